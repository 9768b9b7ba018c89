package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/pkg/version"
	"github.com/invopop/jsonschema"
)

// schemaFor reflects v into an inline JSON Schema suitable for OpenAPI components.
func schemaFor(v any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	s := r.Reflect(v)
	s.Version = ""
	return s
}

func personSchema() *jsonschema.Schema {
	s := schemaFor(&persons.Person{})
	if id, ok := s.Properties.Get("id"); ok {
		id.ReadOnly = true
	}
	return s
}

func ref(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

func jsonContent(schema any) map[string]any {
	return map[string]any{
		"application/json": map[string]any{"schema": schema},
	}
}

func response(description string, schema any) map[string]any {
	resp := map[string]any{"description": description}
	if schema != nil {
		resp["content"] = jsonContent(schema)
	}
	return resp
}

// openAPIDocument renders the OpenAPI 3.1 description of the API.
func openAPIDocument() ([]byte, error) {
	message := map[string]any{"type": "string"}
	idParam := []map[string]any{{
		"name":     "id",
		"in":       "path",
		"required": true,
		"schema":   map[string]any{"type": "integer", "format": "int64"},
	}}
	personBody := map[string]any{"required": true, "content": jsonContent(ref("Person"))}

	doc := map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "Persons API",
			"version": version.Version,
		},
		"paths": map[string]any{
			"/persons": map[string]any{
				"get": map[string]any{
					"operationId": "ListPersons",
					"responses": map[string]any{
						"200": response("All persons ordered by id", map[string]any{"type": "array", "items": ref("Person")}),
					},
				},
				"post": map[string]any{
					"operationId": "CreatePerson",
					"requestBody": personBody,
					"responses": map[string]any{
						"201": response("Person created", ref("Person")),
						"400": response("Invalid body", message),
					},
				},
			},
			"/persons/{id}": map[string]any{
				"parameters": idParam,
				"get": map[string]any{
					"operationId": "GetPerson",
					"responses": map[string]any{
						"200": response("The person", ref("Person")),
						"404": response("Person not found", message),
					},
				},
				"put": map[string]any{
					"operationId": "UpdatePerson",
					"requestBody": personBody,
					"responses": map[string]any{
						"200": response("Person updated", ref("Person")),
						"400": response("Invalid id or body", message),
						"404": response("Person not found", message),
					},
				},
				"delete": map[string]any{
					"operationId": "DeletePerson",
					"responses": map[string]any{
						"200": response("Person deleted", message),
						"404": response("Person not found", message),
					},
				},
			},
			"/weatherforecast": map[string]any{
				"get": map[string]any{
					"operationId": "GetWeatherForecast",
					"responses": map[string]any{
						"200": response("Forecast for the next days", map[string]any{"type": "array", "items": ref("WeatherForecast")}),
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Person":          personSchema(),
				"WeatherForecast": schemaFor(&persons.WeatherForecast{}),
			},
		},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render openapi document: %w", err)
	}
	return data, nil
}

func (s *Server) openAPIHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write(s.openAPI)
}
