// Package docs registers the OpenAPI document served under /swagger.
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
        "/bookings": {
            "get": {
                "summary": "List bookings",
                "parameters": [
                    {"name": "renter_id", "in": "query", "type": "string", "format": "uuid"},
                    {"name": "lender_id", "in": "query", "type": "string", "format": "uuid"},
                    {"name": "equipment_id", "in": "query", "type": "string", "format": "uuid"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["created_at", "start_date", "total_amount"]},
                    {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            },
            "post": {
                "summary": "Create a booking",
                "parameters": [
                    {"name": "X-User-ID", "in": "header", "required": true, "type": "string", "format": "uuid"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/createBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Self booking"},
                    "404": {"description": "Equipment not found"},
                    "409": {"description": "Equipment unavailable"},
                    "422": {"description": "Invalid duration"},
                    "503": {"description": "Store busy, retry"}
                }
            }
        },
        "/bookings/{id}": {
            "get": {
                "summary": "Get a booking",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/bookings/{id}/transitions": {
            "post": {
                "summary": "Move a booking to another status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"},
                    {"name": "X-User-ID", "in": "header", "required": true, "type": "string", "format": "uuid"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/transitionRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid transition or dates taken"}}
            }
        },
        "/bookings/{id}/cancel": {
            "post": {
                "summary": "Cancel a booking and compute the refund",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"},
                    {"name": "X-User-ID", "in": "header", "required": true, "type": "string", "format": "uuid"}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Not cancellable"}}
            }
        },
        "/bookings/{id}/history": {
            "get": {
                "summary": "Status history of a booking",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/equipment": {
            "post": {
                "summary": "Register an equipment item owned by the caller",
                "parameters": [
                    {"name": "X-User-ID", "in": "header", "required": true, "type": "string", "format": "uuid"},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/registerEquipmentRequest"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/equipment/{id}": {
            "get": {
                "summary": "Get an equipment item",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/equipment/{id}/availability": {
            "get": {
                "summary": "Check whether equipment is free for a date range",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"},
                    {"name": "start", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "end", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        }
    },
    "definitions": {
        "createBookingRequest": {
            "type": "object",
            "required": ["equipment_id", "start_date", "end_date"],
            "properties": {
                "equipment_id": {"type": "string", "format": "uuid"},
                "start_date": {"type": "string", "format": "date"},
                "end_date": {"type": "string", "format": "date"},
                "pickup_method": {"type": "string", "enum": ["pickup", "delivery"]},
                "special_instructions": {"type": "string"}
            }
        },
        "registerEquipmentRequest": {
            "type": "object",
            "required": ["name", "daily_rate_cents"],
            "properties": {
                "name": {"type": "string"},
                "daily_rate_cents": {"type": "integer"},
                "security_deposit_cents": {"type": "integer"},
                "min_rental_days": {"type": "integer"},
                "max_rental_days": {"type": "integer"}
            }
        },
        "transitionRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string"},
                "reason": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Gear Booking API",
	Description:      "Bookings and availability for the equipment rental marketplace.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
