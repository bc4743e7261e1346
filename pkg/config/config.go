// Package config loads and validates application configuration.
//
// Configuration comes from beq.yaml merged over built-in defaults, with
// ${ENV} references expanded before parsing. The resulting Config is an
// immutable snapshot; components receive the sub-structs they need via
// dependency injection and never read configuration globals.
package config

import "time"

// Config is the complete application configuration.
type Config struct {
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	LLM          LLMConfig          `yaml:"llm"`
	Planner      PlannerConfig      `yaml:"planner"`
	Calendar     CalendarConfig     `yaml:"calendar"`
	API          APIConfig          `yaml:"api"`
}

// OrchestratorConfig bounds the conversational turn state machine.
type OrchestratorConfig struct {
	// MaxAssistantTurns caps assistant cycles per turn; when exceeded the
	// turn finalizes with a bounded notice.
	MaxAssistantTurns int `yaml:"max_assistant_turns"`

	// TurnDeadline is the overall budget for one ProcessTurn call.
	TurnDeadline time.Duration `yaml:"turn_deadline"`

	// ToolTimeout bounds a single tool dispatch inside a turn.
	ToolTimeout time.Duration `yaml:"tool_timeout"`
}

// LLMConfig configures the model provider.
type LLMConfig struct {
	// BaseURL of an OpenAI-compatible endpoint. Empty means api.openai.com.
	BaseURL string `yaml:"base_url,omitempty"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`

	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// MaxConcurrent bounds in-flight completions per process.
	MaxConcurrent int `yaml:"max_concurrent"`

	Retry RetryConfig `yaml:"retry"`
}

// RetryConfig parameterizes the exponential backoff helper.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	MinWait     time.Duration `yaml:"min_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
}

// PlannerConfig selects and bounds the schedule planners.
type PlannerConfig struct {
	// Engine is "heuristic" or "llm". The LLM planner falls back to the
	// heuristic one on parse failure regardless of this setting.
	Engine string `yaml:"engine"`

	HorizonDays int           `yaml:"horizon_days"`
	LLMDeadline time.Duration `yaml:"llm_deadline"`
}

// CalendarConfig configures the external calendar provider.
type CalendarConfig struct {
	// BaseURL of the calendar REST API. Empty means the Google Calendar
	// public endpoint; tests point it at a local server.
	BaseURL string `yaml:"base_url,omitempty"`

	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}
