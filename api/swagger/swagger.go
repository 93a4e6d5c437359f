package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Timetable API",
        "description": "Timetable allocation engine with a live weekly overlay",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Allocations", "description": "Timetable builds"},
        {"name": "Schedules", "description": "Schedule lifecycle"},
        {"name": "Overlay", "description": "Live weekly layer over a locked schedule"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/allocations/plan": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Build a full timetable",
                "description": "Consults the external optimizing service first; any failure falls back to the deterministic constraint allocator.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/allocations/anneal": {
            "post": {
                "tags": ["Allocations"],
                "summary": "Assign rooms to slot-fixed sections",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AnnealRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedules",
                "parameters": [
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "academicYear", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get a schedule with its allocations",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/schedules/{id}/lock": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Lock a schedule against allocator writes",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/current": {
            "post": {
                "tags": ["Schedules"],
                "summary": "Promote a locked schedule to the live one",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule not locked"}
                }
            }
        },
        "/schedules/{id}/weeks/{week}": {
            "get": {
                "tags": ["Overlay"],
                "summary": "Render the live view of one schedule week",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "week", "in": "path", "required": true, "type": "string", "description": "Any date of the week (YYYY-MM-DD)"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule not locked"}
                }
            }
        },
        "/schedules/{id}/weeks/{week}/ical": {
            "get": {
                "tags": ["Overlay"],
                "summary": "Export a schedule week as an iCalendar feed",
                "produces": ["text/calendar"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "week", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "text/calendar payload"}
                }
            }
        },
        "/schedules/{id}/weeks/{week}/availability": {
            "get": {
                "tags": ["Overlay"],
                "summary": "Probe free/busy cells for a week",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "week", "in": "path", "required": true, "type": "string"},
                    {"name": "roomId", "in": "query", "type": "string"},
                    {"name": "teacherName", "in": "query", "type": "string"},
                    {"name": "sectionCode", "in": "query", "type": "string"},
                    {"name": "duration", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/weeks/{week}/overrides": {
            "delete": {
                "tags": ["Overlay"],
                "summary": "Remove every override of a week",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "week", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}/overrides": {
            "put": {
                "tags": ["Overlay"],
                "summary": "Create or replace a week-scoped override",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OverrideRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflicts with the rest of the week"}
                }
            }
        },
        "/absences": {
            "post": {
                "tags": ["Overlay"],
                "summary": "Record a faculty absence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkAbsenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate absence"}
                }
            }
        },
        "/absences/{id}": {
            "patch": {
                "tags": ["Overlay"],
                "summary": "Update an absence's review status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewAbsenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/makeup-requests": {
            "post": {
                "tags": ["Overlay"],
                "summary": "File a makeup session request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MakeupRequestCreate"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/makeup-requests/{id}": {
            "patch": {
                "tags": ["Overlay"],
                "summary": "Approve or reject a pending makeup request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewMakeupRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Makeup session conflicts"},
                    "412": {"description": "Request already reviewed"}
                }
            }
        }
    },
    "definitions": {
        "PlanRequest": {
            "type": "object",
            "required": ["name", "semester", "academicYear"],
            "properties": {
                "name": {"type": "string"},
                "semester": {"type": "string"},
                "academicYear": {"type": "string"},
                "persist": {"type": "boolean"},
                "scheduleId": {"type": "string", "description": "Existing unlocked schedule to re-plan in place"}
            }
        },
        "AnnealRequest": {
            "type": "object",
            "required": ["name", "semester", "academicYear"],
            "properties": {
                "name": {"type": "string"},
                "semester": {"type": "string"},
                "academicYear": {"type": "string"},
                "persist": {"type": "boolean"},
                "maxIterations": {"type": "integer"},
                "initialTemperature": {"type": "number"},
                "coolingRate": {"type": "number"},
                "tunnelingProbability": {"type": "number"},
                "accessibilityPriority": {"type": "boolean"},
                "seed": {"type": "integer"}
            }
        },
        "OverrideRequest": {
            "type": "object",
            "required": ["allocationId", "weekStart"],
            "properties": {
                "allocationId": {"type": "string"},
                "weekStart": {"type": "string"},
                "dayOfWeek": {"type": "integer"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "roomId": {"type": "string"},
                "building": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "MarkAbsenceRequest": {
            "type": "object",
            "required": ["allocationId", "absenceDate", "facultyId"],
            "properties": {
                "allocationId": {"type": "string"},
                "absenceDate": {"type": "string"},
                "facultyId": {"type": "string"},
                "reason": {"type": "string"}
            }
        },
        "ReviewAbsenceRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["confirmed", "reviewed"]}
            }
        },
        "MakeupRequestCreate": {
            "type": "object",
            "required": ["allocationId", "facultyId", "requestedDate", "startTime", "endTime"],
            "properties": {
                "allocationId": {"type": "string"},
                "facultyId": {"type": "string"},
                "requestedDate": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "roomId": {"type": "string"},
                "reason": {"type": "string"},
                "originalAbsenceDate": {"type": "string"}
            }
        },
        "ReviewMakeupRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["approved", "rejected"]},
                "adminNote": {"type": "string"},
                "force": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
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
