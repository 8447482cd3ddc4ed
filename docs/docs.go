// Package docs holds the Swagger description served under /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/templates": {
            "get": {
                "tags": ["templates"],
                "summary": "List recurrence templates",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "owner_id", "in": "query"},
                    {"type": "boolean", "name": "active", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Templates", "schema": {"$ref": "#/definitions/TemplateList"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["templates"],
                "summary": "Create a recurrence template",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/CreateTemplateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/RecurrenceTemplate"}},
                    "400": {"description": "Invalid rule", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/templates/{id}": {
            "get": {
                "tags": ["templates"],
                "summary": "Get recurrence template",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Template", "schema": {"$ref": "#/definitions/RecurrenceTemplate"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "patch": {
                "tags": ["templates"],
                "summary": "Update title, description, priority or activity",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/UpdateTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Template", "schema": {"$ref": "#/definitions/RecurrenceTemplate"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["templates"],
                "summary": "Delete template with its exceptions and instances",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/templates/{id}/generate": {
            "post": {
                "tags": ["generation"],
                "summary": "Generate instances for a window",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Created count", "schema": {"$ref": "#/definitions/GenerateResponse"}},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/templates/{id}/exceptions": {
            "get": {
                "tags": ["exceptions"],
                "summary": "List exceptions",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Exceptions", "schema": {"$ref": "#/definitions/ExceptionList"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["exceptions"],
                "summary": "Skip or reschedule one occurrence",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/AddExceptionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/RecurrenceException"}},
                    "400": {"description": "Invalid exception", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Occurrence already has an exception", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/exceptions/{id}": {
            "delete": {
                "tags": ["exceptions"],
                "summary": "Remove exception",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/owners/{ownerId}/generate": {
            "post": {
                "tags": ["generation"],
                "summary": "Generate instances for every active template of an owner",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "ownerId", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per template results", "schema": {"$ref": "#/definitions/BatchResult"}},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/owners/{ownerId}/tasks": {
            "get": {
                "tags": ["tasks"],
                "summary": "List an owner's tasks due in a window",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "ownerId", "in": "path", "required": true},
                    {"type": "string", "name": "from", "in": "query", "required": true},
                    {"type": "string", "name": "to", "in": "query", "required": true},
                    {"type": "boolean", "name": "generate", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Tasks", "schema": {"$ref": "#/definitions/TaskList"}},
                    "400": {"description": "Invalid window", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "CreateTemplateRequest": {
            "type": "object",
            "required": ["owner_id", "title", "frequency", "start_date"],
            "properties": {
                "owner_id": {"type": "string", "format": "uuid"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
                "frequency": {"type": "string", "enum": ["DAILY", "WEEKLY", "MONTHLY", "YEARLY"]},
                "interval": {"type": "integer", "minimum": 1},
                "by_week_day": {"type": "array", "items": {"type": "string", "enum": ["MO", "TU", "WE", "TH", "FR", "SA", "SU"]}},
                "by_month_day": {"type": "integer", "minimum": 1, "maximum": 31},
                "start_date": {"type": "string", "format": "date-time"},
                "end_type": {"type": "string", "enum": ["NEVER", "ON_DATE", "AFTER_COUNT"]},
                "end_date": {"type": "string", "format": "date-time"},
                "count": {"type": "integer", "minimum": 1},
                "is_active": {"type": "boolean"}
            }
        },
        "UpdateTemplateRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high", "critical"]},
                "is_active": {"type": "boolean"}
            }
        },
        "RecurrenceTemplate": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "owner_id": {"type": "string", "format": "uuid"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "priority": {"type": "string"},
                "frequency": {"type": "string"},
                "interval": {"type": "integer"},
                "by_week_day": {"type": "array", "items": {"type": "string"}},
                "by_month_day": {"type": "integer"},
                "start_date": {"type": "string", "format": "date-time"},
                "end_type": {"type": "string"},
                "end_date": {"type": "string", "format": "date-time"},
                "count": {"type": "integer"},
                "is_active": {"type": "boolean"},
                "last_generated": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "TemplateList": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/RecurrenceTemplate"}},
                "total": {"type": "integer"}
            }
        },
        "AddExceptionRequest": {
            "type": "object",
            "required": ["original_date", "action"],
            "properties": {
                "original_date": {"type": "string", "format": "date-time"},
                "action": {"type": "string", "enum": ["skip", "reschedule"]},
                "new_date": {"type": "string", "format": "date-time"}
            }
        },
        "RecurrenceException": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "template_id": {"type": "string", "format": "uuid"},
                "original_date": {"type": "string", "format": "date-time"},
                "action": {"type": "string"},
                "new_date": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "ExceptionList": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/RecurrenceException"}},
                "total": {"type": "integer"}
            }
        },
        "GenerateRequest": {
            "type": "object",
            "required": ["from", "to"],
            "properties": {
                "from": {"type": "string", "format": "date-time"},
                "to": {"type": "string", "format": "date-time"}
            }
        },
        "GenerateResponse": {
            "type": "object",
            "properties": {
                "template_id": {"type": "string", "format": "uuid"},
                "created": {"type": "integer"}
            }
        },
        "TemplateResult": {
            "type": "object",
            "properties": {
                "template_id": {"type": "string", "format": "uuid"},
                "created": {"type": "integer"},
                "error": {"type": "string"}
            }
        },
        "BatchResult": {
            "type": "object",
            "properties": {
                "owner_id": {"type": "string", "format": "uuid"},
                "created": {"type": "integer"},
                "failed": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/TemplateResult"}}
            }
        },
        "Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "format": "uuid"},
                "owner_id": {"type": "string", "format": "uuid"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "status": {"type": "string"},
                "priority": {"type": "string"},
                "due_date": {"type": "string", "format": "date-time"},
                "recurring_template_id": {"type": "string", "format": "uuid"},
                "recurring_date": {"type": "string", "format": "date-time"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "TaskList": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/Task"}},
                "total": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Recurring Tasks API",
	Description:      "Recurrence templates, exceptions and instance generation",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
