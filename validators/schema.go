package validators

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// blockSchema is the JSON schema every canonical block must satisfy: an
// object carrying a numeric confidence in [0,1].
const blockSchema = `{
	"type": "object",
	"required": ["confidence"],
	"properties": {
		"confidence": {
			"type": "number",
			"minimum": 0,
			"maximum": 1
		}
	}
}`

var blockSchemaLoader = gojsonschema.NewStringLoader(blockSchema)

// SchemaError is one field-level schema violation.
type SchemaError struct {
	Block       string
	Field       string
	Description string
}

// Error implements the error interface.
func (e SchemaError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Block, e.Field, e.Description)
}

// CheckBlockSchemas validates every present block of a Result against the
// block schema. Violations are returned, never raised; in strict mode the
// orchestrator elevates them to fatal.
func CheckBlockSchemas(result Result) []SchemaError {
	var errs []SchemaError
	for _, name := range result.BlocksPresent {
		block := result.Data[name]
		data, err := json.Marshal(block)
		if err != nil {
			errs = append(errs, SchemaError{Block: name, Field: "", Description: err.Error()})
			continue
		}

		validation, err := gojsonschema.Validate(blockSchemaLoader, gojsonschema.NewBytesLoader(data))
		if err != nil {
			errs = append(errs, SchemaError{Block: name, Field: "", Description: err.Error()})
			continue
		}
		if !validation.Valid() {
			for _, e := range validation.Errors() {
				errs = append(errs, SchemaError{
					Block:       name,
					Field:       e.Field(),
					Description: e.Description(),
				})
			}
		}
	}
	return errs
}
