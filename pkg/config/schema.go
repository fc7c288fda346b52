package config

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// configSchema is the structural JSON Schema for the configuration file,
// validated once at startup (not on the pulse hot path — see DESIGN.md).
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["mqtt", "devices"],
  "properties": {
    "version": {"type": "string"},
    "mqtt": {
      "type": "object",
      "required": ["broker", "port", "client_id"],
      "properties": {
        "broker": {"type": "string", "minLength": 1},
        "port": {"type": "integer", "minimum": 1},
        "client_id": {"type": "string", "minLength": 1}
      }
    },
    "devices": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "device_id": {"type": "string"},
          "target_mac": {"type": "string", "pattern": "^[0-9A-Fa-f]{12}$"},
          "subscribe_topic": {"type": "string"},
          "impulses_per_kwh": {"type": "integer", "minimum": 1},
          "max_power_kw": {"type": "number", "exclusiveMinimum": 0},
          "power_average_window": {"type": "integer", "minimum": 1},
          "power_timeout_seconds": {"type": "integer", "minimum": 1},
          "initial_kwh": {"type": "number", "minimum": 0},
          "monthly_usage_kwh": {"type": "number", "minimum": 0}
        }
      }
    }
  }
}`

// ValidateWithSchema validates raw YAML config bytes against configSchema,
// grounded on soothill-matter-data-logger's config/schema.go pattern:
// unmarshal YAML into a generic document, re-marshal to JSON, validate.
func ValidateWithSchema(yamlData []byte) error {
	var document interface{}
	if err := yaml.Unmarshal(yamlData, &document); err != nil {
		return fmt.Errorf("failed to unmarshal YAML for schema validation: %w", err)
	}

	jsonData, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal config to JSON for schema validation: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate config schema: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("configuration does not match schema: %v", msgs)
	}

	return nil
}
