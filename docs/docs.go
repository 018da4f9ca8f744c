// Package docs registers the modelfolio OpenAPI document with swag.
// Regenerate with `swag init -g cmd/modelfolio/docs.go` after changing annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/inference": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Run a model demo",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.InferenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DemoResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Model loading", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/models": {
            "get": {
                "produces": ["application/json"],
                "summary": "List public model listings",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListingsResponse"}}
                }
            }
        },
        "/api/models/{id}": {
            "get": {
                "produces": ["application/json"],
                "summary": "Get one model listing",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "string", "in": "header", "name": "X-User-ID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Listing"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/models/{id}/demo": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "summary": "Run the demo of a model listing",
                "parameters": [
                    {"type": "string", "in": "path", "name": "id", "required": true},
                    {"type": "string", "in": "header", "name": "X-User-ID"},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.ListingDemoRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.DemoResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/users/{userID}/models": {
            "get": {
                "produces": ["application/json"],
                "summary": "List a user's model listings",
                "parameters": [
                    {"type": "string", "in": "path", "name": "userID", "required": true},
                    {"type": "string", "in": "header", "name": "X-User-ID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListingsResponse"}}
                }
            }
        },
        "/healthz": {"get": {"produces": ["text/plain"], "summary": "Liveness probe", "responses": {"200": {"description": "ok"}}}},
        "/readyz": {"get": {"produces": ["text/plain"], "summary": "Readiness probe", "responses": {"200": {"description": "ready"}, "503": {"description": "unavailable"}}}}
    },
    "definitions": {
        "types.InferenceRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "facebook/bart-large-cnn"},
                "input": {"type": "string"},
                "demoType": {"type": "string", "enum": ["text-to-text", "image-to-text", "text-to-image", "sentiment-analysis", "question-answering"]}
            }
        },
        "types.ListingDemoRequest": {
            "type": "object",
            "properties": {
                "input": {"type": "string", "example": "What color is the sky?"},
                "context": {"type": "string", "example": "The sky is blue."}
            }
        },
        "types.DemoResult": {
            "type": "object",
            "properties": {
                "output": {},
                "type": {"type": "string", "enum": ["text", "image", "classification"]},
                "model": {"type": "string"},
                "score": {"type": "number"}
            }
        },
        "types.Listing": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "is_public": {"type": "boolean"},
                "demo_type": {"type": "string"},
                "api_endpoint": {"type": "string"},
                "user_id": {"type": "string"}
            }
        },
        "types.ListingsResponse": {
            "type": "object",
            "properties": {
                "listings": {"type": "array", "items": {"$ref": "#/definitions/types.Listing"}}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Input is required"},
                "code": {"type": "integer", "example": 400}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "modelfolio API",
	Description:      "Model portfolio listings and hosted inference demos.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
