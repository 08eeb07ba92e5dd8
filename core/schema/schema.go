package schema

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/goccy/go-json"

	"github.com/xeipuuv/gojsonschema"
)

// Base is the prefix of all request schema ids
const Base = "https://sakamichi.cloud/schemas/"

// Request schema ids
const (
	Document   = Base + "document.json"
	Trivia     = Base + "trivia.json"
	FunFact    = Base + "funfact.json"
	Social     = Base + "social.json"
	AdminSign  = Base + "admin-sign.json"
	AdminLogin = Base + "admin-login.json"
)

//go:embed requests
var requestFS embed.FS

// Validator is a utility to validate JSON object against a given schema
type Validator struct {
	schemaValidators map[string]*gojsonschema.Schema
}

// NewRequestValidator returns a validator for all request bodies accepted by the service
func NewRequestValidator() (*Validator, error) {
	sub, err := fs.Sub(requestFS, "requests")
	if err != nil {
		return nil, err
	}
	return NewValidatorFromFS(sub)
}

// NewValidatorFromFS creates a new Validator using schemas from schemaFS. JSON files
// in the root are top level schemas, JSON files in refs/ may be referenced by them.
func NewValidatorFromFS(schemaFS fs.FS) (*Validator, error) {
	schemas, err := readSchemas(schemaFS, ".")
	if err != nil {
		return nil, err
	}
	refs, err := readSchemas(schemaFS, "refs")
	if err != nil {
		return nil, err
	}
	return NewValidator(schemas, refs)
}

func readSchemas(schemaFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(schemaFS, dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read schema folder %s: %w", dir, err)
	}
	var schemas []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := fs.ReadFile(schemaFS, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("cannot read schema %s: %w", e.Name(), err)
		}
		schemas = append(schemas, string(data))
	}
	return schemas, nil
}

// NewValidator creates a new Validator from top level schemas and the refs they
// may point to. Top level schemas cannot reference each other.
func NewValidator(schemas []string, refs []string) (*Validator, error) {
	validator := Validator{schemaValidators: make(map[string]*gojsonschema.Schema, len(schemas))}
	for _, str := range schemas {
		var header struct {
			ID string `json:"$id"`
		}
		if err := json.Unmarshal([]byte(str), &header); err != nil {
			return nil, fmt.Errorf("invalid schema %q: %w", str, err)
		}
		if header.ID == "" {
			return nil, fmt.Errorf("schema without $id: %q", str)
		}

		loader := gojsonschema.NewSchemaLoader()
		for _, ref := range refs {
			if err := loader.AddSchemas(gojsonschema.NewStringLoader(ref)); err != nil {
				return nil, fmt.Errorf("cannot add ref to %s: %w", header.ID, err)
			}
		}
		compiled, err := loader.Compile(gojsonschema.NewStringLoader(str))
		if err != nil {
			return nil, fmt.Errorf("cannot compile schema %s: %w", header.ID, err)
		}
		validator.schemaValidators[header.ID] = compiled
	}
	return &validator, nil
}

// HasSchema returns true if schemaID is known
func (v *Validator) HasSchema(schemaID string) bool {
	_, ok := v.schemaValidators[schemaID]
	return ok
}

// ValidateStruct validates v as JSON against schemaID
func (v *Validator) ValidateStruct(value interface{}, schemaID string) error {
	return v.validate(gojsonschema.NewGoLoader(value), schemaID)
}

// ValidateString validates a JSON string against schemaID
func (v *Validator) ValidateString(data, schemaID string) error {
	return v.validate(gojsonschema.NewStringLoader(data), schemaID)
}

// ValidateBytes validates a raw request body against schemaID
func (v *Validator) ValidateBytes(body []byte, schemaID string) error {
	return v.validate(gojsonschema.NewBytesLoader(body), schemaID)
}

func (v *Validator) validate(loader gojsonschema.JSONLoader, schemaID string) error {
	compiled, ok := v.schemaValidators[schemaID]
	if !ok {
		return fmt.Errorf("unknown schema %s", schemaID)
	}
	result, err := compiled.Validate(loader)
	if err != nil {
		return fmt.Errorf("cannot validate against %s: %w", schemaID, err)
	}

	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}
