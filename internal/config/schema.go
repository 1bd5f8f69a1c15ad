package config

import (
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "config.schema.json"

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["rounds", "population", "particle", "learner", "policy", "networks", "resources", "mobility"],
  "properties": {
    "rounds": {"type": "integer", "minimum": 0},
    "population": {
      "type": "object",
      "properties": {
        "c_agents": {"type": "integer", "minimum": 0},
        "nc_agents": {"type": "integer", "minimum": 0},
        "c_pcheat": {"$ref": "#/$defs/probability"},
        "nc_pcheat": {"$ref": "#/$defs/probability"}
      }
    },
    "particle": {
      "type": "object",
      "properties": {
        "a": {"type": "number", "minimum": 0},
        "b": {"type": "number", "minimum": 0},
        "c": {"type": "number", "minimum": 0},
        "alpha": {"$ref": "#/$defs/rate"},
        "beta": {"$ref": "#/$defs/rate"},
        "theta": {"type": "number", "minimum": 0},
        "phi": {"type": "number", "minimum": 0},
        "cheat_on": {"type": "string", "minLength": 1},
        "warning_weight": {"$ref": "#/$defs/probability"}
      }
    },
    "learner": {
      "type": "object",
      "properties": {
        "plan_length": {"type": "integer", "minimum": 2}
      }
    },
    "policy": {
      "type": "object",
      "properties": {
        "evaluate_every": {"type": "integer", "minimum": 1},
        "leave_threshold": {"type": "integer", "minimum": 1},
        "tolerance1": {"$ref": "#/$defs/probability"},
        "tolerance2": {"$ref": "#/$defs/probability"},
        "acclimatization": {"type": "integer", "minimum": 0},
        "base_lifespan": {"type": "integer", "minimum": 1}
      }
    },
    "networks": {
      "type": "object",
      "properties": {
        "initial": {"type": ["array", "null"], "items": {"type": "string"}},
        "strict_nets": {"$ref": "#/$defs/probability"},
        "strict_monitoring": {"$ref": "#/$defs/probability"},
        "lenient_monitoring": {"$ref": "#/$defs/probability"},
        "monitoring_cost": {"$ref": "#/$defs/probability"},
        "severity_lb": {"$ref": "#/$defs/probability"},
        "severity_ub": {"$ref": "#/$defs/probability"},
        "warnings": {"type": "integer", "minimum": 0},
        "forgiveness": {"$ref": "#/$defs/probability"}
      }
    },
    "resources": {
      "type": "object",
      "properties": {
        "radius": {"type": "number", "exclusiveMinimum": 0, "maximum": 1}
      }
    },
    "mobility": {
      "type": "object",
      "properties": {
        "size": {"type": "integer", "minimum": 1},
        "velocity": {"type": "integer", "minimum": 0},
        "v_const": {"type": "integer", "minimum": 0},
        "drift_bias": {"$ref": "#/$defs/probability"}
      }
    }
  },
  "$defs": {
    "probability": {"type": "number", "minimum": 0, "maximum": 1},
    "rate": {"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
)

// schema returns the compiled configuration schema. The schema is a constant,
// so a compile failure is a programming error.
func schema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		compiledSchema = jsonschema.MustCompileString(schemaURL, schemaJSON)
	})
	return compiledSchema
}
