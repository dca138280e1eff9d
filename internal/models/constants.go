// Package models contains data types and constants shared by samarth components.
package models

import "strings"

// Endpoints for the Gemini API
const (
	EndpointBase = "https://generativelanguage.googleapis.com"
	// EndpointStreamPath is formatted with the model name.
	EndpointStreamPath = "/v1beta/models/%s:streamGenerateContent"
)

// Model represents an available Gemini model
type Model struct {
	Name  string
	Alias string
}

// Available models
var (
	Model25Flash = Model{
		Name:  "gemini-2.5-flash",
		Alias: "fast",
	}

	Model25Pro = Model{
		Name:  "gemini-2.5-pro",
		Alias: "pro",
	}

	Model20Flash = Model{
		Name:  "gemini-2.0-flash",
		Alias: "lite",
	}

	// DefaultModel is the model the analyst persona was tuned on
	DefaultModel = Model25Flash
)

// AllModels returns a list of all known models
func AllModels() []Model {
	return []Model{Model25Flash, Model25Pro, Model20Flash}
}

// ModelFromName returns a Model by its name or alias.
// Unknown names are passed through so newer models can be used without a release.
func ModelFromName(name string) Model {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultModel
	}
	for _, m := range AllModels() {
		if strings.EqualFold(name, m.Name) || strings.EqualFold(name, m.Alias) {
			return m
		}
	}
	return Model{Name: name}
}

// DefaultHeaders returns the headers sent with every provider request
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Accept":        "text/event-stream",
		"Cache-Control": "no-cache",
		"User-Agent":    "samarth/0.1",
	}
}
