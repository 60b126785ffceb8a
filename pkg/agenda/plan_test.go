package agenda

import (
	"strings"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/sonrisas/pkg/model"
)

func sampleHelper() model.Helper {
	leer := model.Task{ID: "t1", Nombre: "Leer", Accion: "Leer un cuento", CantidadHoras: 4}
	contar := model.Task{ID: "t2", Nombre: "Contar", CantidadHoras: 2}
	pintar := model.Task{ID: "t3", Nombre: "Pintar", CantidadHoras: 3}
	return model.Helper{
		ID:     "h1",
		Nombre: "Ana",
		TareasAsignadas: []model.Assignment{
			{Tarea: model.Ref(leer), Horas: 4, Estado: model.Created},
			{Tarea: model.Ref(contar), Horas: 2, Estado: model.Finished},
			{Tarea: model.Ref(pintar), Horas: 3, Estado: model.InProgress},
		},
	}
}

func TestParseStart(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)

	got, err := ParseStart("2026-03-02", "08:30", bogota)
	if err != nil {
		t.Fatal(err)
	}
	expected := time.Date(2026, 3, 2, 8, 30, 0, 0, bogota)
	if !got.Equal(expected) {
		t.Errorf("Expected %s, got %s", expected, got)
	}

	got, err = ParseStart("2026-03-02T14:00:00Z", "08:00", bogota)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected RFC3339 start kept, got %s", got)
	}

	if _, err := ParseStart("mañana", "08:00", bogota); err == nil {
		t.Error("Expected error for invalid start")
	}
	if _, err := ParseStart("2026-03-02", "8am", bogota); err == nil {
		t.Error("Expected error for invalid workday start")
	}
}

func TestPlanSkipsFinishedAndChainsBlocks(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	blocks := Plan(sampleHelper(), start)

	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Key() != "h1:t1" || blocks[1].Key() != "h1:t3" {
		t.Errorf("Expected keys h1:t1 and h1:t3, got %s and %s", blocks[0].Key(), blocks[1].Key())
	}
	if !blocks[0].End.Equal(start.Add(4*time.Hour)) || !blocks[1].Start.Equal(blocks[0].End) {
		t.Errorf("Expected consecutive blocks, got %+v", blocks)
	}
	if !blocks[1].End.Equal(start.Add(7 * time.Hour)) {
		t.Errorf("Expected second block to end at 15:00, got %s", blocks[1].End)
	}
}

func TestEventConversion(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	blocks := Plan(sampleHelper(), start)

	first := Event(blocks[0])
	if first.Summary != "Leer" {
		t.Errorf("Expected plain summary for Creada, got %q", first.Summary)
	}
	if first.Start.DateTime != "2026-03-02T08:00:00Z" || first.End.DateTime != "2026-03-02T12:00:00Z" {
		t.Errorf("Unexpected times %s - %s", first.Start.DateTime, first.End.DateTime)
	}
	if got := first.ExtendedProperties.Private[PropertyKey]; got != "h1:t1" {
		t.Errorf("Expected private property h1:t1, got %q", got)
	}
	if !strings.Contains(first.Description, "Acción: Leer un cuento") || !strings.Contains(first.Description, "Ayudante: Ana") {
		t.Errorf("Unexpected description %q", first.Description)
	}

	second := Event(blocks[1])
	if second.Summary != "‣ Pintar" {
		t.Errorf("Expected in-progress prefix, got %q", second.Summary)
	}

	h := sampleHelper()
	done := Event(Block{Helper: h, Assignment: h.TareasAsignadas[1], Start: start, End: start.Add(time.Hour)})
	if done.Summary != "✓ Contar" {
		t.Errorf("Expected finished prefix, got %q", done.Summary)
	}
}

func TestEventForMissingTask(t *testing.T) {
	h := model.Helper{ID: "h1", TareasAsignadas: []model.Assignment{{Tarea: model.TaskRef{ID: "x"}, Horas: 1, Estado: model.Created}}}
	ev := Event(Plan(h, time.Now())[0])
	if ev.Summary != model.MissingTaskName {
		t.Errorf("Expected placeholder summary, got %q", ev.Summary)
	}
}

func TestEventNeedsUpdate(t *testing.T) {
	start := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	target := Event(Plan(sampleHelper(), start)[0])

	same := *target
	same.Start = &calendar.EventDateTime{DateTime: "2026-03-02T03:00:00-05:00"}
	patch, err := EventNeedsUpdate(&same, target)
	if err != nil {
		t.Fatal(err)
	}
	if patch != nil {
		t.Errorf("Expected no patch for equal instants, got %+v", patch)
	}

	moved := *target
	moved.Summary = "Leer viejo"
	moved.End = &calendar.EventDateTime{DateTime: "2026-03-02T13:00:00Z"}
	patch, err = EventNeedsUpdate(&moved, target)
	if err != nil {
		t.Fatal(err)
	}
	if patch == nil || patch.Summary != "Leer" || patch.End.DateTime != target.End.DateTime {
		t.Errorf("Expected summary and time patch, got %+v", patch)
	}
	if patch.Description != "" || patch.ColorId != "" {
		t.Errorf("Expected unchanged fields left out of patch, got %+v", patch)
	}

	broken := *target
	broken.Start = &calendar.EventDateTime{DateTime: "not a time"}
	if _, err := EventNeedsUpdate(&broken, target); err == nil {
		t.Error("Expected error for unparseable time")
	}
}
