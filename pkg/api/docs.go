package api

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
        "/health": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/documents": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "List document names",
                "parameters": [
                    {"type": "string", "description": "Only names starting with this prefix", "name": "prefix", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.ListResponse"}}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/xml"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Compile an XML document under a generated name",
                "parameters": [
                    {"description": "XML document", "name": "document", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.Info"}},
                    "400": {"description": "Malformed XML or text too long", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/documents/{name}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/xml", "application/x-cxml", "application/json"],
                "tags": ["documents"],
                "summary": "Fetch a document as XML, raw CXML or JSON events",
                "parameters": [
                    {"type": "string", "description": "Document name", "name": "name", "in": "path", "required": true},
                    {"enum": ["xml", "cxml", "events"], "type": "string", "default": "xml", "description": "Output format", "name": "format", "in": "query"},
                    {"type": "boolean", "description": "Indent nested elements (xml format)", "name": "indent", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Unknown format", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "422": {"description": "Stored buffer is corrupt", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            },
            "put": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/xml"],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Compile an XML document and store it under name",
                "parameters": [
                    {"type": "string", "description": "Document name", "name": "name", "in": "path", "required": true},
                    {"description": "XML document", "name": "document", "in": "body", "required": true, "schema": {"type": "string"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.Info"}},
                    "400": {"description": "Malformed XML, bad name or text too long", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["documents"],
                "summary": "Delete a document",
                "parameters": [
                    {"type": "string", "description": "Document name", "name": "name", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Store statistics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/store.Stats"}}
                }
            }
        }
    },
    "definitions": {
        "api.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"type": "string"}
            }
        },
        "api.ListResponse": {
            "type": "object",
            "properties": {
                "prefix": {"type": "string"},
                "names": {"type": "array", "items": {"type": "string"}},
                "count": {"type": "integer"}
            }
        },
        "catalog.Info": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "size": {"type": "integer"},
                "events": {"type": "integer"},
                "symbols": {"type": "integer"}
            }
        },
        "store.Stats": {
            "type": "object",
            "properties": {
                "engine": {"type": "string"},
                "documents": {"type": "integer"},
                "data_size": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "cxmldb REST API",
	Description:      "Compiles XML documents into CXML and serves them back as XML, raw CXML or JSON events.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
