package conflict

import "time"

// Rules drives AutoResolve. An empty strategy means the conflict is never
// resolved automatically; these vetoes are honored before any positive rule.
// Among positive rules, severity takes precedence over type.
type Rules struct {
	BySeverity map[Severity]Strategy
	ByType     map[Type]Strategy
}

// DefaultRules returns the conservative defaults: low-severity clashes keep
// the existing event, priority clashes yield to the higher-priority side,
// and critical or recurring conflicts are never resolved automatically.
func DefaultRules() Rules {
	return Rules{
		BySeverity: map[Severity]Strategy{
			SeverityLow:      KeepExisting,
			SeverityCritical: "",
		},
		ByType: map[Type]Strategy{
			TypeTimeOverlap: KeepExisting,
			TypePriority:    ReplaceWithNew,
			TypeRecurring:   "",
		},
	}
}

// AutoResolve applies the rules to each conflict and returns resolutions for
// those the rules cover. Conflicts whose rule is empty, or for which no rule
// matches, are skipped so a human can decide.
func AutoResolve(conflicts []Conflict, rules Rules) []Resolution {
	var out []Resolution
	for i := range conflicts {
		c := &conflicts[i]
		strategy, ok := pickStrategy(c, rules)
		if !ok || strategy == "" || strategy == UserDecision {
			continue
		}
		res, err := Resolve(c, strategy, nil)
		if err != nil {
			continue
		}
		out = append(out, *res)
	}
	return out
}

func pickStrategy(c *Conflict, rules Rules) (Strategy, bool) {
	typeRule, hasType := rules.ByType[c.Type]
	sevRule, hasSev := rules.BySeverity[c.Severity]
	if hasType && typeRule == "" {
		return "", false
	}
	if hasSev && sevRule == "" {
		return "", false
	}
	if hasSev {
		return sevRule, true
	}
	if hasType {
		return typeRule, true
	}
	return "", false
}

// Stats summarizes a detection pass and any resolutions applied to it.
type Stats struct {
	Total          int              `json:"total"`
	ByType         map[Type]int     `json:"by_type"`
	BySeverity     map[Severity]int `json:"by_severity"`
	Resolved       int              `json:"resolved"`
	ResolutionRate float64          `json:"resolution_rate"`
	ComputedAt     time.Time        `json:"computed_at"`
}

// Statistics computes counts by type and severity plus the share of
// conflicts that have a resolution.
func Statistics(conflicts []Conflict, resolutions []Resolution, now time.Time) Stats {
	stats := Stats{
		Total:      len(conflicts),
		ByType:     make(map[Type]int),
		BySeverity: make(map[Severity]int),
		ComputedAt: now,
	}
	resolved := make(map[string]bool, len(resolutions))
	for _, r := range resolutions {
		resolved[r.ConflictID] = true
	}
	for _, c := range conflicts {
		stats.ByType[c.Type]++
		stats.BySeverity[c.Severity]++
		if resolved[c.ID] {
			stats.Resolved++
		}
	}
	if stats.Total > 0 {
		stats.ResolutionRate = float64(stats.Resolved) / float64(stats.Total)
	}
	return stats
}
