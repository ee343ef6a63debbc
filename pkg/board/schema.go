package board

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

const draft07 = "http://json-schema.org/draft-07/schema#"

// Schema returns the JSON schema of a board document.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(&Document{})
	schema.Version = draft07
	return schema
}

// ValidateDocument checks a YAML or JSON board document against Schema and
// then against Board.Validate.
func ValidateDocument(b []byte) (*Document, error) {
	var raw interface{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, errors.Wrap(err, "parse board document")
	}
	if raw == nil {
		return nil, &ValidationError{Reason: "document is empty"}
	}

	schemaBytes, err := json.Marshal(Schema())
	if err != nil {
		return nil, err
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return nil, errors.Wrap(err, "validate board document")
	}
	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			descriptions = append(descriptions, desc.String())
		}
		return nil, &ValidationError{
			Field:  result.Errors()[0].Field(),
			Reason: strings.Join(descriptions, "; "),
		}
	}

	return DecodeYAMLDocument(b)
}
