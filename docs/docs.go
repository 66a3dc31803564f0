// Package docs holds the OpenAPI descriptor served at /swagger/. Regenerate
// with: swag init -g cmd/web/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/admin/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Analysis counters",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/errors.SuccessResponse"}
                    }
                }
            }
        },
        "/analyze": {
            "post": {
                "description": "Returns total revenue, the best-selling SKU and per-SKU quantity and revenue. SKU maps keep the order in which SKUs first appear in the file.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Analyze an order CSV",
                "parameters": [
                    {
                        "type": "file",
                        "description": "Order CSV with sku, quantity and price columns",
                        "name": "file",
                        "in": "formData",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/models.AnalysisResult"},
                        "headers": {
                            "X-Analysis-ID": {"type": "string", "description": "Identifier of this analysis"}
                        }
                    },
                    "400": {
                        "description": "Missing file, wrong extension or invalid rows",
                        "schema": {"$ref": "#/definitions/errors.ErrorResponse"}
                    },
                    "413": {
                        "description": "Upload too large",
                        "schema": {"$ref": "#/definitions/errors.ErrorResponse"}
                    },
                    "429": {
                        "description": "Rate limited",
                        "schema": {"$ref": "#/definitions/errors.ErrorResponse"}
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {"$ref": "#/definitions/errors.ErrorResponse"}
                    }
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["operations"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/errors.SuccessResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "details": {"type": "string"},
                "error": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "errors.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "success": {"type": "boolean"}
            }
        },
        "models.AnalysisResult": {
            "type": "object",
            "properties": {
                "best_selling_sku": {"$ref": "#/definitions/models.BestSeller"},
                "sku_quantities": {
                    "type": "object",
                    "additionalProperties": {"type": "integer"}
                },
                "sku_revenue": {
                    "type": "object",
                    "additionalProperties": {"type": "number"}
                },
                "total_revenue": {"type": "number"}
            }
        },
        "models.BestSeller": {
            "type": "object",
            "properties": {
                "sku": {"type": "string"},
                "total_quantity": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Order Insights API",
	Description:      "Upload an order CSV and get revenue and best-seller analytics.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
