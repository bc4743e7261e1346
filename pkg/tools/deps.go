package tools

import (
	"log/slog"

	"github.com/beq-project/beq/pkg/calendar"
	"github.com/beq-project/beq/pkg/models"
	"github.com/beq-project/beq/pkg/planner"
	"github.com/beq-project/beq/pkg/repository"
)

// DefaultHorizonDays bounds schedule views and conflict re-detection when
// the caller gives no explicit range.
const DefaultHorizonDays = 7

// Deps are the services the built-in tool set runs against. Calendar and
// Sync may be nil when no calendar is connected; the calendar tools then
// fail with an upstream error instead of being unregistered, so the model
// gets a useful hint rather than an unknown-tool failure.
type Deps struct {
	Store       *repository.Store
	Planner     planner.Planner
	Calendar    calendar.Provider
	Sync        *calendar.SyncService
	Clock       models.Clock
	HorizonDays int
}

func (d *Deps) horizon() int {
	if d.HorizonDays > 0 {
		return d.HorizonDays
	}
	return DefaultHorizonDays
}

// NewDefaultRegistry builds the full built-in tool set.
func NewDefaultRegistry(deps Deps, logger *slog.Logger) *Registry {
	d := &deps
	r := NewRegistry(logger)

	r.mustRegister("create_brick",
		"Create a new Brick: a durable goal with category, priority, and estimated effort.",
		schemaFor("create_brick"), true, true, d.createBrick)
	r.mustRegister("update_brick",
		"Update a Brick's title, description, status, or priority.",
		schemaFor("update_brick"), true, true, d.updateBrick)
	r.mustRegister("delete_brick",
		"Delete a Brick. Set delete_quantas to also remove its Quantas.",
		schemaFor("delete_brick"), true, true, d.deleteBrick)
	r.mustRegister("list_bricks",
		"List the caller's Bricks, optionally filtered by status or category.",
		schemaFor("list_bricks"), true, false, d.listBricks)

	r.mustRegister("create_quanta",
		"Create a Quanta: one actionable step inside an existing Brick.",
		schemaFor("create_quanta"), true, true, d.createQuanta)
	r.mustRegister("update_quanta",
		"Update a Quanta's fields.",
		schemaFor("update_quanta"), true, true, d.updateQuanta)
	r.mustRegister("delete_quanta",
		"Delete a Quanta.",
		schemaFor("delete_quanta"), true, true, d.deleteQuanta)
	r.mustRegister("list_quantas",
		"List Quantas, optionally scoped to one Brick or status.",
		schemaFor("list_quantas"), true, false, d.listQuantas)

	r.mustRegister("get_schedule",
		"Show the user's schedule for a date range, grouped by day.",
		schemaFor("get_schedule"), true, false, d.getSchedule)
	r.mustRegister("generate_schedule",
		"Plan tasks into free time and return the proposed schedule.",
		schemaFor("generate_schedule"), true, true, d.generateSchedule)
	r.mustRegister("optimize_schedule",
		"Re-plan an existing schedule, moving moveable events toward the given goals.",
		schemaFor("optimize_schedule"), true, true, d.optimizeSchedule)

	r.mustRegister("list_calendar_events",
		"List events from a connected calendar within a time range.",
		schemaFor("list_calendar_events"), true, false, d.listCalendarEvents)
	r.mustRegister("sync_calendar",
		"Pull events from a connected calendar and report scheduling conflicts.",
		schemaFor("sync_calendar"), true, true, d.syncCalendar)
	r.mustRegister("apply_conflict_resolution",
		"Apply resolution strategies to detected calendar conflicts.",
		schemaFor("apply_conflict_resolution"), true, true, d.applyConflictResolution)

	r.mustRegister("list_resources",
		"List stored resources, optionally filtered by topic.",
		schemaFor("list_resources"), true, false, d.listResources)
	r.mustRegister("search_resources",
		"Search stored resources by keyword.",
		schemaFor("search_resources"), true, false, d.searchResources)

	return r
}
