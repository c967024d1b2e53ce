package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Crew Booking API",
        "description": "Crew assignment booking, conflict detection, gantt views and calendar sync",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "tags": [
        {"name": "Assignments", "description": "Crew bookings on projects"},
        {"name": "Assignment Days", "description": "Booked days of an assignment"},
        {"name": "Excluded Dates", "description": "Dates carved out of an assignment"},
        {"name": "Conflicts", "description": "Double-booking detection"},
        {"name": "Gantt", "description": "Timeline read model"},
        {"name": "Calendar", "description": "External calendar connections"},
        {"name": "Calendar Sync", "description": "Assignment mirroring to external calendars"},
        {"name": "Confirmations", "description": "Customer booking confirmations"}
    ],
    "paths": {
        "/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Create assignment with days and exclusions",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Get assignment detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Assignments"],
                "summary": "Delete assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "OK"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}/cycle-status": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Advance booking status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/bulk-status": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Set status on many assignments",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}/days": {
            "post": {
                "tags": ["Assignment Days"],
                "summary": "Add days to assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AddDaysRequest"}}
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignment-days/{dayId}": {
            "patch": {
                "tags": ["Assignment Days"],
                "summary": "Update day times",
                "parameters": [
                    {"name": "dayId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateDayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignment-days/{dayId}/move": {
            "post": {
                "tags": ["Assignment Days"],
                "summary": "Move day to another date",
                "parameters": [
                    {"name": "dayId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveDayRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignment-days/remove": {
            "post": {
                "tags": ["Assignment Days"],
                "summary": "Remove days",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RemoveDaysRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}/excluded-dates": {
            "post": {
                "tags": ["Excluded Dates"],
                "summary": "Exclude dates from assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExcludeDatesRequest"}}
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/excluded-dates/{id}": {
            "delete": {
                "tags": ["Excluded Dates"],
                "summary": "Remove exclusion",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "OK"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/excluded-dates/bulk-remove": {
            "post": {
                "tags": ["Excluded Dates"],
                "summary": "Remove many exclusions",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IDsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts": {
            "get": {
                "tags": ["Conflicts"],
                "summary": "List double bookings for a user",
                "parameters": [
                    {"name": "user_id", "in": "query", "type": "string"},
                    {"name": "start_date", "in": "query", "type": "string"},
                    {"name": "end_date", "in": "query", "type": "string"},
                    {"name": "exclude_assignment_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflicts/{id}/override": {
            "post": {
                "tags": ["Conflicts"],
                "summary": "Acknowledge a conflict",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OverrideConflictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gantt": {
            "get": {
                "tags": ["Gantt"],
                "summary": "Gantt rows for a date window",
                "parameters": [
                    {"name": "start_date", "in": "query", "type": "string"},
                    {"name": "end_date", "in": "query", "type": "string"},
                    {"name": "project_id", "in": "query", "type": "string"},
                    {"name": "user_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gantt/export": {
            "get": {
                "tags": ["Gantt"],
                "summary": "Export gantt rows as csv or pdf",
                "parameters": [
                    {"name": "start_date", "in": "query", "type": "string"},
                    {"name": "end_date", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{userId}/calendar-connections": {
            "get": {
                "tags": ["Calendar"],
                "summary": "List calendar connections",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/oauth/{provider}/authorize": {
            "get": {
                "tags": ["Calendar"],
                "summary": "Start OAuth consent",
                "parameters": [
                    {"name": "provider", "in": "path", "required": true, "type": "string"},
                    {"name": "user_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar/oauth/{provider}/callback": {
            "get": {
                "tags": ["Calendar"],
                "summary": "OAuth redirect target",
                "parameters": [
                    {"name": "provider", "in": "path", "required": true, "type": "string"},
                    {"name": "code", "in": "query", "type": "string"},
                    {"name": "state", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-connections/{id}": {
            "delete": {
                "tags": ["Calendar"],
                "summary": "Disconnect calendar",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "OK"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{userId}/calendar-sync": {
            "post": {
                "tags": ["Calendar Sync"],
                "summary": "Full sync for user",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{userId}/calendar-sync/assignments/{id}/retry": {
            "post": {
                "tags": ["Calendar Sync"],
                "summary": "Retry one assignment",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{userId}/calendar-sync/errors": {
            "get": {
                "tags": ["Calendar Sync"],
                "summary": "List sync errors",
                "parameters": [
                    {"name": "userId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/calendar-sync/errors/{id}": {
            "delete": {
                "tags": ["Calendar Sync"],
                "summary": "Dismiss sync error",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "OK"},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/confirmations": {
            "post": {
                "tags": ["Confirmations"],
                "summary": "Send confirmation request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmationRequest"}}
                ],
                "responses": {
                    "201": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/confirmations/respond": {
            "post": {
                "tags": ["Confirmations"],
                "summary": "Approve or decline",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConfirmationDecision"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "default": {"description": "Error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateAssignmentRequest": {
            "type": "object",
            "properties": {"project_id": {"type": "string"}, "user_id": {"type": "string"}, "booking_status": {"type": "string"}, "notes": {"type": "string"}, "days": {"type": "array", "items": {"$ref": "#/definitions/DayInput"}}}
        },
        "DayInput": {
            "type": "object",
            "properties": {"date": {"type": "string", "format": "date"}, "start_time": {"type": "string"}, "end_time": {"type": "string"}}
        },
        "AddDaysRequest": {
            "type": "object",
            "properties": {"days": {"type": "array", "items": {"$ref": "#/definitions/DayInput"}}}
        },
        "UpdateDayRequest": {
            "type": "object",
            "properties": {"start_time": {"type": "string"}, "end_time": {"type": "string"}}
        },
        "MoveDayRequest": {
            "type": "object",
            "properties": {"date": {"type": "string", "format": "date"}}
        },
        "BulkStatusRequest": {
            "type": "object",
            "properties": {"assignment_ids": {"type": "array", "items": {"type": "string"}}, "status": {"type": "string", "enum": ["draft", "pending_confirm", "confirmed"]}, "note": {"type": "string"}}
        },
        "IDsRequest": {
            "type": "object",
            "properties": {"ids": {"type": "array", "items": {"type": "string"}}}
        },
        "RemoveDaysRequest": {
            "type": "object",
            "properties": {"day_ids": {"type": "array", "items": {"type": "string"}}}
        },
        "OverrideConflictRequest": {
            "type": "object",
            "properties": {"reason": {"type": "string"}}
        },
        "ExcludeDatesRequest": {
            "type": "object",
            "properties": {"dates": {"type": "array", "items": {"type": "string", "format": "date"}}, "reason": {"type": "string"}}
        },
        "ConfirmationRequest": {
            "type": "object",
            "properties": {"project_id": {"type": "string"}, "recipient_email": {"type": "string"}, "assignment_ids": {"type": "array", "items": {"type": "string"}}}
        },
        "ConfirmationDecision": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "decision": {"type": "string", "enum": ["approve", "decline"]}}
        },
        "APIError": {
            "type": "object",
            "properties": {"code": {"type": "string"}, "message": {"type": "string"}, "status": {"type": "integer"}}
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {"data": {"type": "object"}, "error": {"$ref": "#/definitions/APIError"}, "meta": {"type": "object"}}
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
