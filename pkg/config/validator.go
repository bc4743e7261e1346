package config

import "fmt"

// validate performs a consistency check over the merged configuration.
func validate(cfg *Config) error {
	if cfg.Orchestrator.MaxAssistantTurns < 1 {
		return fmt.Errorf("orchestrator.max_assistant_turns must be >= 1, got %d", cfg.Orchestrator.MaxAssistantTurns)
	}
	if cfg.Orchestrator.TurnDeadline <= 0 {
		return fmt.Errorf("orchestrator.turn_deadline must be positive, got %s", cfg.Orchestrator.TurnDeadline)
	}
	if cfg.Orchestrator.ToolTimeout <= 0 {
		return fmt.Errorf("orchestrator.tool_timeout must be positive, got %s", cfg.Orchestrator.ToolTimeout)
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.LLM.MaxConcurrent < 1 {
		return fmt.Errorf("llm.max_concurrent must be >= 1, got %d", cfg.LLM.MaxConcurrent)
	}
	if cfg.LLM.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm.retry.max_attempts must be >= 1, got %d", cfg.LLM.Retry.MaxAttempts)
	}
	if cfg.LLM.Retry.MinWait > cfg.LLM.Retry.MaxWait {
		return fmt.Errorf("llm.retry.min_wait %s exceeds max_wait %s", cfg.LLM.Retry.MinWait, cfg.LLM.Retry.MaxWait)
	}
	switch cfg.Planner.Engine {
	case "heuristic", "llm":
	default:
		return fmt.Errorf("planner.engine must be \"heuristic\" or \"llm\", got %q", cfg.Planner.Engine)
	}
	if cfg.Planner.HorizonDays < 1 {
		return fmt.Errorf("planner.horizon_days must be >= 1, got %d", cfg.Planner.HorizonDays)
	}
	if cfg.API.ListenAddr == "" {
		return fmt.Errorf("api.listen_addr is required")
	}
	return nil
}
