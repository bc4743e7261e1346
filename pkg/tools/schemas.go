package tools

// Argument schemas, one per tool. Schemas are strict: unknown properties
// are rejected so a model cannot smuggle extra arguments past validation.
// user_id appears in identity-bound schemas because the registry overlays
// it before validation.

var toolSchemas = map[string]string{
	"create_brick": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"title": {"type": "string", "minLength": 1, "maxLength": 200},
			"description": {"type": "string"},
			"category": {"type": "string"},
			"priority": {"type": "string"},
			"estimated_duration_minutes": {"type": "integer", "minimum": 1},
			"target_date": {"type": "string"},
			"deadline": {"type": "string"}
		},
		"required": ["user_id", "title", "category", "priority", "estimated_duration_minutes"],
		"additionalProperties": false
	}`,

	"update_brick": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"brick_id": {"type": "string", "minLength": 1},
			"title": {"type": "string", "minLength": 1, "maxLength": 200},
			"description": {"type": "string"},
			"status": {"type": "string"},
			"priority": {"type": "string"}
		},
		"required": ["user_id", "brick_id"],
		"additionalProperties": false
	}`,

	"delete_brick": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"brick_id": {"type": "string", "minLength": 1},
			"delete_quantas": {"type": "boolean"}
		},
		"required": ["user_id", "brick_id"],
		"additionalProperties": false
	}`,

	"list_bricks": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"status": {"type": "string"},
			"category": {"type": "string"},
			"limit": {"type": "integer", "minimum": 1, "maximum": 200}
		},
		"required": ["user_id"],
		"additionalProperties": false
	}`,

	"create_quanta": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"brick_id": {"type": "string", "minLength": 1},
			"title": {"type": "string", "minLength": 1, "maxLength": 200},
			"description": {"type": "string"},
			"estimated_duration_minutes": {"type": "integer", "minimum": 1, "maximum": 1440},
			"order_index": {"type": "integer", "minimum": 0}
		},
		"required": ["user_id", "brick_id", "title", "estimated_duration_minutes"],
		"additionalProperties": false
	}`,

	"update_quanta": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"quanta_id": {"type": "string", "minLength": 1},
			"title": {"type": "string", "minLength": 1, "maxLength": 200},
			"description": {"type": "string"},
			"status": {"type": "string"},
			"estimated_duration_minutes": {"type": "integer", "minimum": 1, "maximum": 1440},
			"order_index": {"type": "integer", "minimum": 0}
		},
		"required": ["user_id", "quanta_id"],
		"additionalProperties": false
	}`,

	"delete_quanta": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"quanta_id": {"type": "string", "minLength": 1}
		},
		"required": ["user_id", "quanta_id"],
		"additionalProperties": false
	}`,

	"list_quantas": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"brick_id": {"type": "string"},
			"status": {"type": "string"}
		},
		"required": ["user_id"],
		"additionalProperties": false
	}`,

	"get_schedule": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"start_date": {"type": "string"},
			"end_date": {"type": "string"}
		},
		"required": ["user_id"],
		"additionalProperties": false
	}`,

	"generate_schedule": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"tasks": {"type": "array", "items": {"type": "object"}},
			"existing_events": {"type": "array", "items": {"type": "object"}},
			"preferences": {"type": "object"},
			"constraints": {"type": "array", "items": {"type": "object"}},
			"horizon_days": {"type": "integer", "minimum": 0, "maximum": 60}
		},
		"required": ["user_id", "tasks"],
		"additionalProperties": false
	}`,

	"optimize_schedule": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"existing_schedule": {"type": "array", "items": {"type": "object"}},
			"goals": {"type": "array", "items": {"type": "string"}},
			"preferences": {"type": "object"},
			"horizon_days": {"type": "integer", "minimum": 0, "maximum": 60}
		},
		"required": ["user_id", "existing_schedule"],
		"additionalProperties": false
	}`,

	"list_calendar_events": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"calendar_id": {"type": "string", "minLength": 1},
			"start": {"type": "string"},
			"end": {"type": "string"},
			"max": {"type": "integer", "minimum": 1, "maximum": 500}
		},
		"required": ["user_id", "calendar_id"],
		"additionalProperties": false
	}`,

	"sync_calendar": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"calendar_id": {"type": "string", "minLength": 1},
			"start": {"type": "string"},
			"end": {"type": "string"},
			"conflict_strategy": {"type": "string", "enum": ["auto", "report"]}
		},
		"required": ["user_id", "calendar_id"],
		"additionalProperties": false
	}`,

	"apply_conflict_resolution": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"calendar_id": {"type": "string"},
			"resolutions": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"properties": {
						"conflict_id": {"type": "string", "minLength": 1},
						"strategy": {"type": "string", "minLength": 1},
						"user_decision": {
							"type": "object",
							"properties": {
								"keep": {"type": "array", "items": {"type": "string"}},
								"discard": {"type": "array", "items": {"type": "string"}}
							},
							"additionalProperties": false
						}
					},
					"required": ["conflict_id", "strategy"],
					"additionalProperties": false
				}
			}
		},
		"required": ["user_id", "resolutions"],
		"additionalProperties": false
	}`,

	"list_resources": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"topic": {"type": "string"},
			"limit": {"type": "integer", "minimum": 1, "maximum": 50}
		},
		"required": ["user_id"],
		"additionalProperties": false
	}`,

	"search_resources": `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"query": {"type": "string", "minLength": 1},
			"limit": {"type": "integer", "minimum": 1, "maximum": 50}
		},
		"required": ["user_id", "query"],
		"additionalProperties": false
	}`,
}

// schemaFor returns the raw schema JSON for a tool name.
func schemaFor(name string) string {
	return toolSchemas[name]
}
