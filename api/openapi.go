package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getOpenAPISpec returns the OpenAPI 3.1.0 document for the UserDeck API.
// The document is assembled by hand so it stays the single source the /docs
// UI renders, with no generation step.
func (s *Server) getOpenAPISpec(c *gin.Context) {
	spec := map[string]interface{}{
		"openapi": "3.1.0",
		"info": map[string]interface{}{
			"title":       "UserDeck REST API",
			"description": "A REST API for managing console user accounts.",
			"version":     Version,
		},
		"servers": []map[string]interface{}{
			{
				"url":         "http://" + s.config.Server.Address(),
				"description": "Configured server",
			},
		},
		"paths":      s.getOpenAPIPaths(),
		"components": s.getOpenAPIComponents(),
	}

	c.JSON(http.StatusOK, spec)
}

// getOpenAPIPaths returns all API paths for the OpenAPI document
func (s *Server) getOpenAPIPaths() map[string]interface{} {
	return map[string]interface{}{
		"/login": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":     "Log in",
				"description": "Exchange form-encoded credentials for a bearer grant",
				"tags":        []string{"Auth"},
				"requestBody": map[string]interface{}{
					"required": true,
					"content": map[string]interface{}{
						"application/x-www-form-urlencoded": map[string]interface{}{
							"schema": map[string]interface{}{
								"type":     "object",
								"required": []string{"username", "password"},
								"properties": map[string]interface{}{
									"username": map[string]interface{}{"type": "string"},
									"password": map[string]interface{}{"type": "string"},
								},
							},
						},
					},
				},
				"responses": map[string]interface{}{
					"200": s.envelopeResponse("Bearer grant issued", "#/components/schemas/TokenGrant"),
					"401": s.errorResponse("Incorrect password"),
					"403": s.errorResponse("User is disabled"),
					"404": s.errorResponse("User not found"),
				},
			},
		},
		"/logout": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":     "Log out",
				"description": "End the session named by the bearer token",
				"tags":        []string{"Auth"},
				"security":    []map[string]interface{}{{"BearerAuth": []string{}}},
				"responses": map[string]interface{}{
					"200": s.envelopeResponse("Logged out", ""),
					"401": s.errorResponse("Invalid credentials"),
				},
			},
		},
		"/users": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":     "List users",
				"description": "Get one page of accounts, optionally filtered by a name fragment",
				"tags":        []string{"Users"},
				"security":    []map[string]interface{}{{"BearerAuth": []string{}}},
				"parameters": []map[string]interface{}{
					s.queryParam("page", "integer", "Page number, starting at 1"),
					s.queryParam("size", "integer", "Page size, at most 100"),
					s.queryParam("name", "string", "Name fragment filter"),
				},
				"responses": map[string]interface{}{
					"200": s.envelopeResponse("One page of users", "#/components/schemas/UserPage"),
					"401": s.errorResponse("Invalid credentials"),
				},
			},
		},
		"/user": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":     "Create user",
				"description": "Add a new account with a unique username",
				"tags":        []string{"Users"},
				"security":    []map[string]interface{}{{"BearerAuth": []string{}}},
				"requestBody": s.jsonBody("#/components/schemas/UserInput"),
				"responses": map[string]interface{}{
					"201": s.envelopeResponse("User created", "#/components/schemas/User"),
					"400": s.errorResponse("Username already exists"),
					"401": s.errorResponse("Invalid credentials"),
				},
			},
		},
		"/user/{id}": map[string]interface{}{
			"get": map[string]interface{}{
				"summary":    "Get user",
				"tags":       []string{"Users"},
				"security":   []map[string]interface{}{{"BearerAuth": []string{}}},
				"parameters": []map[string]interface{}{s.idParam()},
				"responses": map[string]interface{}{
					"200": s.envelopeResponse("The requested user", "#/components/schemas/User"),
					"401": s.errorResponse("Invalid credentials"),
					"404": s.errorResponse("User not found"),
				},
			},
			"put": map[string]interface{}{
				"summary":     "Update user",
				"description": "Rewrite the writable fields. An empty password keeps the stored one.",
				"tags":        []string{"Users"},
				"security":    []map[string]interface{}{{"BearerAuth": []string{}}},
				"parameters":  []map[string]interface{}{s.idParam()},
				"requestBody": s.jsonBody("#/components/schemas/UserInput"),
				"responses": map[string]interface{}{
					"200": s.envelopeResponse("User updated", "#/components/schemas/User"),
					"400": s.errorResponse("Username already exists"),
					"401": s.errorResponse("Invalid credentials"),
					"404": s.errorResponse("User not found"),
				},
			},
			"delete": map[string]interface{}{
				"summary":    "Delete user",
				"tags":       []string{"Users"},
				"security":   []map[string]interface{}{{"BearerAuth": []string{}}},
				"parameters": []map[string]interface{}{s.idParam()},
				"responses": map[string]interface{}{
					"200": s.envelopeResponse("User deleted", "#/components/schemas/DeleteResult"),
					"401": s.errorResponse("Invalid credentials"),
					"404": s.errorResponse("User not found"),
				},
			},
		},
		"/health": map[string]interface{}{
			"get": map[string]interface{}{
				"summary": "Health Check",
				"tags":    []string{"Health"},
				"responses": map[string]interface{}{
					"200": s.envelopeResponse("Server is healthy", "#/components/schemas/HealthStatus"),
					"503": s.errorResponse("Database unreachable"),
				},
			},
		},
		"/metrics": map[string]interface{}{
			"get": map[string]interface{}{
				"summary": "Metrics snapshot",
				"tags":    []string{"Health"},
				"responses": map[string]interface{}{
					"200": s.envelopeResponse("Current request metrics", ""),
				},
			},
		},
	}
}

// getOpenAPIComponents returns the schema components for the OpenAPI document
func (s *Server) getOpenAPIComponents() map[string]interface{} {
	return map[string]interface{}{
		"securitySchemes": map[string]interface{}{
			"BearerAuth": map[string]interface{}{
				"type":         "http",
				"scheme":       "bearer",
				"bearerFormat": "JWT",
			},
		},
		"schemas": map[string]interface{}{
			"Envelope": map[string]interface{}{
				"type":        "object",
				"description": "Uniform response wrapper. Code 0 is success; any other code is an application failure.",
				"properties": map[string]interface{}{
					"code": map[string]interface{}{"type": "integer"},
					"msg":  map[string]interface{}{"type": "string"},
					"data": map[string]interface{}{},
				},
			},
			"TokenGrant": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"access_token": map[string]interface{}{"type": "string"},
					"token_type":   map[string]interface{}{"type": "string", "example": "bearer"},
					"expires_in":   map[string]interface{}{"type": "integer", "description": "Lifetime in seconds"},
				},
			},
			"User": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id":           map[string]interface{}{"type": "integer"},
					"name":         map[string]interface{}{"type": "string"},
					"username":     map[string]interface{}{"type": "string"},
					"is_superuser": map[string]interface{}{"type": "boolean"},
					"status":       map[string]interface{}{"type": "boolean"},
					"description":  map[string]interface{}{"type": "string"},
					"created_time": map[string]interface{}{"type": "string", "example": "2025-01-02 15:04:05"},
					"updated_time": map[string]interface{}{"type": "string", "example": "2025-01-02 15:04:05"},
				},
			},
			"UserInput": map[string]interface{}{
				"type":     "object",
				"required": []string{"name", "username", "status"},
				"properties": map[string]interface{}{
					"name":        map[string]interface{}{"type": "string", "maxLength": 50},
					"username":    map[string]interface{}{"type": "string", "maxLength": 50},
					"password":    map[string]interface{}{"type": "string", "maxLength": 255},
					"status":      map[string]interface{}{"type": "boolean"},
					"description": map[string]interface{}{"type": "string", "maxLength": 255},
				},
			},
			"UserPage": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"items": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"$ref": "#/components/schemas/User"},
					},
					"total": map[string]interface{}{"type": "integer"},
					"page":  map[string]interface{}{"type": "integer"},
					"size":  map[string]interface{}{"type": "integer"},
				},
			},
			"DeleteResult": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"deleted": map[string]interface{}{"type": "boolean"},
				},
			},
			"HealthStatus": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"status":    map[string]interface{}{"type": "string", "example": "healthy"},
					"timestamp": map[string]interface{}{"type": "string"},
					"version":   map[string]interface{}{"type": "string"},
					"uptime":    map[string]interface{}{"type": "string"},
					"checks": map[string]interface{}{
						"type":                 "object",
						"additionalProperties": map[string]interface{}{"type": "string"},
					},
				},
			},
		},
	}
}

// envelopeResponse describes a success envelope whose data follows schemaRef
func (s *Server) envelopeResponse(description, schemaRef string) map[string]interface{} {
	data := map[string]interface{}{}
	if schemaRef != "" {
		data["$ref"] = schemaRef
	}
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]interface{}{
					"allOf": []map[string]interface{}{
						{"$ref": "#/components/schemas/Envelope"},
						{
							"type": "object",
							"properties": map[string]interface{}{
								"data": data,
							},
						},
					},
				},
			},
		},
	}
}

// errorResponse describes a failure envelope
func (s *Server) errorResponse(description string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]interface{}{
					"$ref": "#/components/schemas/Envelope",
				},
			},
		},
	}
}

func (s *Server) jsonBody(schemaRef string) map[string]interface{} {
	return map[string]interface{}{
		"required": true,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]interface{}{"$ref": schemaRef},
			},
		},
	}
}

func (s *Server) queryParam(name, typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"required":    false,
		"description": description,
		"schema":      map[string]interface{}{"type": typ},
	}
}

func (s *Server) idParam() map[string]interface{} {
	return map[string]interface{}{
		"name":     "id",
		"in":       "path",
		"required": true,
		"schema":   map[string]interface{}{"type": "integer"},
	}
}
