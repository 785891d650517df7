package model

// OutputSchema names the structured object a Generator must return and the top-level
// fields that must be present and non-empty.
type OutputSchema struct {
	Name     string
	Required []string
}

// Generator is the hosted text-generation service. It returns a JSON object.
type Generator interface {
	Generate(prompt string, schema OutputSchema) ([]byte, error)
}
