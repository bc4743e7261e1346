package config

import "time"

// Default bounds for the turn state machine. MaxAssistantTurns prevents
// runaway tool-call loops when a model keeps requesting tools without
// converging; TurnDeadline is the hard budget for one user turn.
const (
	DefaultMaxAssistantTurns = 5
	DefaultTurnDeadline      = 45 * time.Second
	DefaultToolTimeout       = 20 * time.Second
)

// defaults returns the built-in configuration applied under user config.
func defaults() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			MaxAssistantTurns: DefaultMaxAssistantTurns,
			TurnDeadline:      DefaultTurnDeadline,
			ToolTimeout:       DefaultToolTimeout,
		},
		LLM: LLMConfig{
			APIKeyEnv:     "OPENAI_API_KEY",
			Model:         "gpt-4o-mini",
			Temperature:   0.7,
			MaxTokens:     4096,
			MaxConcurrent: 8,
			Retry: RetryConfig{
				MaxAttempts: 3,
				MinWait:     4 * time.Second,
				MaxWait:     10 * time.Second,
			},
		},
		Planner: PlannerConfig{
			Engine:      "heuristic",
			HorizonDays: 7,
			LLMDeadline: 60 * time.Second,
		},
		Calendar: CalendarConfig{
			RequestTimeout: 15 * time.Second,
		},
		API: APIConfig{
			ListenAddr: ":8080",
		},
	}
}
