package conflict

import (
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/beq-project/beq/pkg/models"
)

// genEvent generates one event within a single day so overlaps are common
// enough to exercise the grouping logic.
func genEvent() gopter.Gen {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	priorities := []models.Priority{"", models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent}

	return gopter.CombineGens(
		gen.IntRange(0, 23*60), // start minute of day
		gen.IntRange(15, 180),  // duration minutes
		gen.IntRange(0, len(priorities)-1),
	).Map(func(vals []any) *models.Event {
		start := day.Add(time.Duration(vals[0].(int)) * time.Minute)
		return &models.Event{
			StartTime: start,
			EndTime:   start.Add(time.Duration(vals[1].(int)) * time.Minute),
			Priority:  priorities[vals[2].(int)],
		}
	})
}

// genEvents generates a small event set with unique ids.
func genEvents() gopter.Gen {
	return gen.IntRange(0, 6).FlatMap(func(n any) gopter.Gen {
		count := n.(int)
		return gen.SliceOfN(count, genEvent()).Map(func(events []*models.Event) []*models.Event {
			for i, e := range events {
				e.ID = fmt.Sprintf("ev%d", i)
				e.Title = e.ID
			}
			return events
		})
	}, reflect.TypeOf([]*models.Event{}))
}

func conflictIDs(r Report) []string {
	ids := make([]string, len(r.Conflicts))
	for i, c := range r.Conflicts {
		ids[i] = c.ID
	}
	sort.Strings(ids)
	return ids
}

func TestDetectProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("detection is idempotent", prop.ForAll(
		func(events []*models.Event) bool {
			first := conflictIDs(Detect(events, nil))
			second := conflictIDs(Detect(events, nil))
			if len(first) != len(second) {
				return false
			}
			for i := range first {
				if first[i] != second[i] {
					return false
				}
			}
			return true
		},
		genEvents(),
	))

	properties.Property("conflict ids are order independent", prop.ForAll(
		func(events []*models.Event) bool {
			forward := conflictIDs(Detect(events, nil))
			reversed := make([]*models.Event, len(events))
			for i, e := range events {
				reversed[len(events)-1-i] = e
			}
			backward := conflictIDs(Detect(reversed, nil))
			if len(forward) != len(backward) {
				return false
			}
			for i := range forward {
				if forward[i] != backward[i] {
					return false
				}
			}
			return true
		},
		genEvents(),
	))

	properties.Property("every conflict involves at least two events", prop.ForAll(
		func(events []*models.Event) bool {
			for _, c := range Detect(events, nil).Conflicts {
				if len(c.Events) < 2 {
					return false
				}
			}
			return true
		},
		genEvents(),
	))

	properties.Property("resolving never keeps a discarded event", prop.ForAll(
		func(events []*models.Event) bool {
			for _, c := range Detect(events, nil).Conflicts {
				for _, strategy := range []Strategy{KeepExisting, ReplaceWithNew} {
					res, err := Resolve(&c, strategy, nil)
					if err != nil {
						return false
					}
					discarded := make(map[string]bool)
					for _, id := range res.DiscardedIDs {
						discarded[id] = true
					}
					for _, kept := range res.Kept {
						if discarded[kept.ID] {
							return false
						}
					}
				}
			}
			return true
		},
		genEvents(),
	))

	properties.TestingRun(t)
}
