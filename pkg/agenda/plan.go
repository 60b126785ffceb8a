// Package agenda exports a helper's assignments to Google Calendar as
// consecutive work blocks.
package agenda

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/sonrisas/pkg/model"
)

// PropertyKey is the private extended property tying an event to an
// assignment.
const PropertyKey = "sonrisas_asignacion"

const (
	prefixInProgress = "‣"
	prefixFinished   = "✓"
)

// Google Calendar event colors per assignment status.
var statusColors = map[model.AssignmentStatus]string{
	model.Created:    "1",  // lavender
	model.InProgress: "5",  // banana
	model.Finished:   "10", // basil
}

// Block is one assignment laid out on the calendar.
type Block struct {
	Helper     model.Helper
	Assignment model.Assignment
	Start, End time.Time
}

// Key identifies the assignment behind a block.
func (b Block) Key() string { return Key(b.Helper.ID, b.Assignment.TaskID()) }

// Key joins a helper and a task id into an assignment key.
func Key(helperID, taskID string) string { return helperID + ":" + taskID }

// ParseStart accepts an RFC 3339 timestamp or a bare date, which starts at
// workday (HH:MM) in loc.
func ParseStart(s, workday string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start %q, expected YYYY-MM-DD or RFC3339", s)
	}
	clock, err := time.Parse("15:04", workday)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid workday start %q, expected HH:MM", workday)
	}
	return day.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), nil
}

// Plan lays out the helper's unfinished assignments back to back from start,
// in assignment order. Each block lasts the assignment's hours.
func Plan(h model.Helper, start time.Time) []Block {
	var blocks []Block
	at := start
	for _, a := range h.TareasAsignadas {
		if a.Estado == model.Finished || a.Horas < 1 {
			continue
		}
		end := at.Add(time.Duration(a.Horas) * time.Hour)
		blocks = append(blocks, Block{Helper: h, Assignment: a, Start: at, End: end})
		at = end
	}
	return blocks
}

// Event converts a block into the calendar event it should be.
func Event(b Block) *calendar.Event {
	task := b.Assignment.Tarea.Resolved()

	summary := task.Nombre
	switch b.Assignment.Estado {
	case model.InProgress:
		summary = prefixInProgress + " " + summary
	case model.Finished:
		summary = prefixFinished + " " + summary
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Ayudante: %s\n", b.Helper.Nombre)
	if task.Accion != "" {
		fmt.Fprintf(&desc, "Acción: %s\n", task.Accion)
	}
	fmt.Fprintf(&desc, "Horas: %d\n", b.Assignment.Horas)
	fmt.Fprintf(&desc, "Estado: %s\n", b.Assignment.Estado)
	fmt.Fprintf(&desc, "ID: %s\n", b.Key())

	color, ok := statusColors[b.Assignment.Estado]
	if !ok {
		color = statusColors[model.Created]
	}

	return &calendar.Event{
		Summary:     summary,
		Description: desc.String(),
		ColorId:     color,
		Start:       &calendar.EventDateTime{DateTime: b.Start.UTC().Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: b.End.UTC().Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{PropertyKey: b.Key()},
		},
	}
}

// EventNeedsUpdate returns a patch with the fields of target that differ from
// existing, or nil when they match.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	sameStart, err := sameTime(existing.Start, target.Start)
	if err != nil {
		return nil, err
	}
	sameEnd, err := sameTime(existing.End, target.End)
	if err != nil {
		return nil, err
	}
	if !sameStart || !sameEnd {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameTime(a, b *calendar.EventDateTime) (bool, error) {
	if a == nil || b == nil || a.DateTime == "" {
		return false, nil
	}
	ta, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false, err
	}
	tb, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false, err
	}
	return ta.Equal(tb), nil
}
