package handlers

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"strings"

	"order-insights/internal/errors"
	"order-insights/internal/models"
	"order-insights/internal/services"
)

const (
	uploadField     = "file"
	multipartMemory = 8 << 20
)

const (
	msgNoFile   = "No file uploaded. Use the 'file' form field."
	msgNotCSV   = "Only .csv files are accepted."
	msgTooLarge = "File exceeds the maximum upload size."
)

type upload struct {
	filename string
	data     []byte
}

// readUpload extracts the single CSV file of a multipart request. The whole
// request body is capped at maxBytes.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*upload, *errors.AppError) {
	if r.ContentLength > maxBytes {
		return nil, errors.PayloadTooLarge(msgTooLarge)
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			return nil, errors.PayloadTooLarge(msgTooLarge)
		}
		return nil, errors.New(errors.CodeBadRequest, msgNoFile)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, errors.New(errors.CodeBadRequest, msgNoFile)
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		return nil, errors.BadRequest(msgNotCSV)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.InternalWrap(err, errors.MessageInternal)
	}

	return &upload{filename: header.Filename, data: data}, nil
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return stderrors.As(err, &maxErr)
}

// analyzeUpload runs the analysis and maps failures onto API errors. File
// problems keep their message; anything else is hidden behind a generic one.
func analyzeUpload(ctx context.Context, analytics *services.Analytics, up *upload) (*models.AnalysisResult, *errors.AppError) {
	result, err := analytics.Analyze(ctx, bytes.NewReader(up.data))
	if err == nil {
		return result, nil
	}

	var validation *services.ValidationError
	if stderrors.As(err, &validation) {
		return nil, errors.ValidationWrap(err, validation.Message)
	}
	return nil, errors.InternalWrap(err, errors.MessageInternal)
}
