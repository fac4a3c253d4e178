// Package api serves the OpenAPI description of the HTTP interface.
package api

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/swaggo/swag"
	"gopkg.in/yaml.v3"
)

//go:embed swagger.yaml
var swaggerYAML []byte

// InstanceName is the swag registry name of the todo API document
const InstanceName = "todolist"

// GetSwaggerSpec returns the embedded swagger specification as bytes
func GetSwaggerSpec() []byte {
	return swaggerYAML
}

// GetSwaggerSpecAsJSON returns the swagger specification converted to JSON
func GetSwaggerSpecAsJSON() ([]byte, error) {
	var spec interface{}
	if err := yaml.Unmarshal(swaggerYAML, &spec); err != nil {
		return nil, err
	}
	return json.Marshal(spec)
}

// Register publishes the document in the swag registry under InstanceName.
// host, when set, overrides the host the document advertises.
func Register(host string) error {
	doc, err := GetSwaggerSpecAsJSON()
	if err != nil {
		return fmt.Errorf("failed to convert swagger spec: %w", err)
	}

	spec := &swag.Spec{
		Version:          "1.0",
		Host:             host,
		BasePath:         "/api/v1",
		Title:            "Todo List API",
		InfoInstanceName: InstanceName,
		SwaggerTemplate:  string(doc),
		LeftDelim:        "{{",
		RightDelim:       "}}",
	}
	if swag.GetSwagger(InstanceName) == nil {
		swag.Register(spec.InstanceName(), spec)
	}
	return nil
}

// DocHandler serves the registered document as JSON
func DocHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(InstanceName)
		if err != nil {
			http.Error(w, "swagger document not registered", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}
}

// SwaggerHandler returns an HTTP handler that serves the swagger specification
func SwaggerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") == "application/json" {
			jsonSpec, err := GetSwaggerSpecAsJSON()
			if err != nil {
				http.Error(w, "Failed to convert swagger spec to JSON", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write(jsonSpec)
			return
		}

		w.Header().Set("Content-Type", "application/yaml")
		w.Write(swaggerYAML)
	}
}
