package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves a small Swagger UI and the OpenAPI document for the
// person and photo API.
// - GET /swagger/index.html  -> HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>recordbook — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "recordbook", "version": "v0.1.0" },
  "paths": {
    "/person": {
      "post": { "summary": "Save a person (insert or replace by personId)", "responses": { "200": { "description": "personId" } } },
      "get": { "summary": "List people, or those whose first name starts with ?name", "responses": { "200": { "description": "people" } } }
    },
    "/person/{id}": {
      "get": { "summary": "Get a person", "responses": { "200": { "description": "person" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a person", "responses": { "204": { "description": "deleted" } } }
    },
    "/person/age": {
      "get": { "summary": "People with minAge < age < maxAge, addresses omitted", "responses": { "200": { "description": "people" } } }
    },
    "/person/search": {
      "get": {
        "summary": "Paginated search; every supplied criterion must match",
        "parameters": [
          { "name": "name", "in": "query", "schema": { "type": "string" } },
          { "name": "minAge", "in": "query", "schema": { "type": "integer" } },
          { "name": "maxAge", "in": "query", "schema": { "type": "integer" } },
          { "name": "city", "in": "query", "schema": { "type": "string" } },
          { "name": "page", "in": "query", "schema": { "type": "integer" } },
          { "name": "size", "in": "query", "schema": { "type": "integer" } },
          { "name": "sort", "in": "query", "schema": { "type": "string" }, "description": "field[,asc|desc]" }
        ],
        "responses": { "200": { "description": "page" }, "400": { "description": "bad parameter" } }
      }
    },
    "/person/oldestPerson": { "get": { "summary": "Oldest person per city", "responses": { "200": { "description": "rows" } } } },
    "/person/populationByCity": { "get": { "summary": "Population per city, most populous first", "responses": { "200": { "description": "rows" } } } },
    "/photo": {
      "post": { "summary": "Upload a photo (multipart field image)", "responses": { "200": { "description": "id" } } }
    },
    "/photo/{id}": {
      "get": { "summary": "Download a photo", "responses": { "200": { "description": "binary" }, "404": { "description": "not found" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
