package planner

import (
	"log/slog"
	"time"

	"github.com/beq-project/beq/pkg/llm"
	"github.com/beq-project/beq/pkg/models"
)

// New selects the planning engine by name. "llm" wraps the heuristic as its
// fallback; any other value (including "heuristic") yields the heuristic
// planner alone.
func New(engine string, provider llm.Provider, clock models.Clock, llmDeadline time.Duration, logger *slog.Logger) Planner {
	heuristic := NewHeuristic(clock, logger)
	if engine == "llm" && provider != nil {
		return NewLLM(provider, heuristic, clock, llmDeadline, logger)
	}
	return heuristic
}
