// Package docs registers the OpenAPI document of the simreg API with swag.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/wizards": {
            "post": {
                "produces": ["application/json"],
                "tags": ["wizards"],
                "summary": "Start a registration wizard",
                "responses": {
                    "201": {"description": "Wizard created", "schema": {"$ref": "#/definitions/handler.WizardCreatedResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/wizards/current": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["wizards"],
                "summary": "Get the wizard view",
                "responses": {
                    "200": {"description": "Wizard view"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "404": {"description": "Wizard closed", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["wizards"],
                "summary": "Discard the wizard",
                "responses": {"204": {"description": "Wizard discarded"}}
            }
        },
        "/wizards/current/mobile": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["mobile"],
                "summary": "Enter the mobile number",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.MobileRequest"}}],
                "responses": {
                    "200": {"description": "Wizard view"},
                    "400": {"description": "Invalid number", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "422": {"description": "Rejected by the eKYC service", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/wizards/current/otp/verify": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["otp"],
                "summary": "Verify the OTP",
                "responses": {"200": {"description": "Wizard view"}}
            }
        },
        "/wizards/current/captures/document": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scan"],
                "summary": "Upload the ID document capture",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CaptureRequest"}}],
                "responses": {"200": {"description": "Wizard view"}}
            }
        },
        "/wizards/current/captures/selfie": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["scan"],
                "summary": "Upload the face capture",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.CaptureRequest"}}],
                "responses": {"200": {"description": "Wizard view"}}
            }
        },
        "/wizards/current/personal/submit": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["personal"],
                "summary": "Submit the personal information",
                "responses": {
                    "200": {"description": "Wizard view"},
                    "400": {"description": "Required fields missing", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/wizards/current/processing/wait": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["finalize"],
                "summary": "Wait for registration processing",
                "responses": {
                    "200": {"description": "Wizard view"},
                    "504": {"description": "Processing timed out", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/admin/reports/funnel.xlsx": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["reports"],
                "summary": "Wizard funnel workbook",
                "responses": {"200": {"description": "Funnel workbook", "schema": {"type": "file"}}}
            }
        }
    },
    "definitions": {
        "handler.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "fields": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": false},
                "error": {"$ref": "#/definitions/handler.APIError"}
            }
        },
        "handler.WizardCreatedResponse": {
            "type": "object",
            "properties": {
                "wizard_id": {"type": "string", "example": "550e8400-e29b-41d4-a716-446655440000"},
                "token": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "handler.MobileRequest": {
            "type": "object",
            "required": ["number"],
            "properties": {"number": {"type": "string", "example": "09171234567"}}
        },
        "handler.CaptureFrame": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "example": "neutral-face"},
                "image": {"type": "string"},
                "content_type": {"type": "string", "example": "image/jpeg"}
            }
        },
        "handler.CaptureRequest": {
            "type": "object",
            "properties": {
                "frames": {"type": "array", "items": {"$ref": "#/definitions/handler.CaptureFrame"}},
                "metadata": {"type": "object", "additionalProperties": {"type": "string"}},
                "error": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "simreg API",
	Description:      "Backend-for-frontend hosting eKYC SIM registration wizards.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
