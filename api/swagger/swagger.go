package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Procurement API",
        "description": "Request intake, review, vendor forwarding and stock keeping",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Sessions and tokens"},
        {"name": "Requests", "description": "Request uploads and review"},
        {"name": "Catalogue", "description": "Vendors, categories and food items"},
        {"name": "Stock", "description": "Stock adjustments, exports and delivery notes"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Settings", "description": "Countdown flag and activity log"},
        {"name": "Realtime", "description": "Snapshot subscriptions"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/verifyToken": {
            "post": {
                "tags": ["Auth"],
                "summary": "Verify an ID token",
                "responses": {"200": {"description": "uid and role"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/sendEmail": {
            "post": {
                "tags": ["Requests"],
                "summary": "Send an email with optional PDF attachment",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Email sent successfully"}}
            }
        },
        "/api/sendNotifications": {
            "post": {
                "tags": ["Requests"],
                "summary": "Send a decision notification",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Notification sent successfully"}}
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Sign in",
                "responses": {"200": {"description": "Session issued"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/api/v1/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Create a pending lecturer account",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Email taken"}}
            }
        },
        "/api/v1/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Refresh the session token",
                "responses": {"200": {"description": "Session refreshed"}}
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Clear session cookies",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/v1/requests": {
            "get": {
                "tags": ["Requests"],
                "summary": "List requests visible to the caller",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Requests"],
                "summary": "Upload one or more request files",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "responses": {"200": {"description": "Batch accepted"}, "201": {"description": "Created"}}
            }
        },
        "/api/v1/requests/{id}": {
            "get": {
                "tags": ["Requests"],
                "summary": "Get a request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "put": {
                "tags": ["Requests"],
                "summary": "Resubmit a rejected request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/requests/{id}/approve": {
            "post": {
                "tags": ["Requests"],
                "summary": "Approve a request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/requests/{id}/reject": {
            "post": {
                "tags": ["Requests"],
                "summary": "Reject a request with a remark",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/forward": {
            "post": {
                "tags": ["Requests"],
                "summary": "Forward approved requests to a vendor",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/vendors": {
            "get": {
                "tags": ["Catalogue"],
                "summary": "List vendors",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Catalogue"],
                "summary": "Create vendor",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/api/v1/vendors/{id}/categories": {
            "get": {
                "tags": ["Catalogue"],
                "summary": "List vendor categories",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/food-items": {
            "get": {
                "tags": ["Catalogue"],
                "summary": "List food items",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "vendor", "in": "query", "type": "string"},
                    {"name": "categoryId", "in": "query", "type": "string"},
                    {"name": "includeArchived", "in": "query", "type": "boolean"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/food-items/import": {
            "post": {
                "tags": ["Catalogue"],
                "summary": "Import a market list workbook",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Unreadable workbook"}}
            }
        },
        "/api/v1/food-items/{id}/stock": {
            "put": {
                "tags": ["Stock"],
                "summary": "Set stock to a typed value",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/stock/bulk": {
            "post": {
                "tags": ["Stock"],
                "summary": "Add or subtract stock from item lines",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "No items"}}
            }
        },
        "/api/v1/stock/export": {
            "get": {
                "tags": ["Stock"],
                "summary": "Export stock as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/api/v1/stock/delivery-notes/preview": {
            "post": {
                "tags": ["Stock"],
                "summary": "Extract item lines from a delivery note",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/settings/countdown": {
            "get": {
                "tags": ["Settings"],
                "summary": "Read the countdown flag",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Toggle the countdown flag",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/subscribe": {
            "get": {
                "tags": ["Realtime"],
                "summary": "Stream snapshots of a collection path",
                "security": [{"BearerAuth": []}],
                "produces": ["text/event-stream"],
                "parameters": [{"name": "path", "in": "query", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Event stream"}}
            }
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "message": {"type": "string"},
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
