// Package assign reconciles a helper's assignments against the task
// collection while an assignment view is open.
//
// A Session holds two disjoint partitions of the task collection: tasks still
// available and assignments already made. Mutations move entries between the
// partitions; nothing is persisted until Save.
package assign

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/sonrisas/pkg/model"
	"github.com/harrisonrobin/sonrisas/pkg/records"
)

// Updater persists a helper. *records.Client[model.Helper] satisfies it.
type Updater interface {
	Update(ctx context.Context, id string, h model.Helper) (model.Helper, error)
}

// Session is an editable assignment state for one helper. It is not safe for
// concurrent use.
type Session struct {
	helper    model.Helper
	available []model.Task
	assigned  []model.Assignment

	// snapshot taken at Open or the last successful Save, for Discard
	baseAvailable []model.Task
	baseAssigned  []model.Assignment
	dirty         bool

	onSaved func(model.Helper)
}

type Option func(*Session)

// WithOnSaved registers a callback run with the stored helper after every
// successful Save.
func WithOnSaved(fn func(model.Helper)) Option {
	return func(s *Session) { s.onSaved = fn }
}

// Open resolves the helper's persisted assignments against all tasks.
// References to tasks that no longer exist are kept with a placeholder task
// so they can still be viewed and removed. Repeated references to the same
// task keep only the first.
func Open(helper model.Helper, all []model.Task, opts ...Option) *Session {
	s := &Session{helper: helper}
	for _, opt := range opts {
		opt(s)
	}
	s.reset(all)
	return s
}

func (s *Session) reset(all []model.Task) {
	byID := make(map[string]model.Task, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	taken := make(map[string]bool, len(s.helper.TareasAsignadas))
	assigned := make([]model.Assignment, 0, len(s.helper.TareasAsignadas))
	for _, a := range s.helper.TareasAsignadas {
		id := a.TaskID()
		if taken[id] {
			continue
		}
		taken[id] = true
		if t, ok := byID[id]; ok {
			a.Tarea = model.Ref(t)
		} else {
			a.Tarea = model.Ref(model.MissingTask(id))
		}
		assigned = append(assigned, a)
	}

	available := make([]model.Task, 0, len(all))
	for _, t := range all {
		if !taken[t.ID] {
			available = append(available, t)
		}
	}

	s.available, s.assigned = available, assigned
	s.baseAvailable = append([]model.Task(nil), available...)
	s.baseAssigned = cloneAssignments(assigned)
	s.dirty = false
}

// Helper returns the helper the session edits, as last persisted.
func (s *Session) Helper() model.Helper { return s.helper }

// Available returns the unassigned tasks in display order.
func (s *Session) Available() []model.Task {
	return append([]model.Task(nil), s.available...)
}

// Assigned returns the current assignments in display order. Every entry
// carries a resolved task.
func (s *Session) Assigned() []model.Assignment {
	return cloneAssignments(s.assigned)
}

// Assign moves task from the available partition into a new assignment with
// the task's hours and status Creada. It is a no-op unless the task is
// currently available.
func (s *Session) Assign(task model.Task) {
	i := s.availableIndex(task.ID)
	if i < 0 {
		return
	}
	t := s.available[i]
	s.available = append(s.available[:i], s.available[i+1:]...)
	s.assigned = append(s.assigned, model.Assignment{
		Tarea:  model.Ref(t),
		Horas:  t.CantidadHoras,
		Estado: model.Created,
	})
	s.dirty = true
}

// Unassign removes the assignment for taskID and returns its task to the
// available partition. Placeholders for missing tasks are dropped.
func (s *Session) Unassign(taskID string) {
	i := s.assignedIndex(taskID)
	if i < 0 {
		return
	}
	t := s.assigned[i].Tarea.Resolved()
	s.assigned = append(s.assigned[:i], s.assigned[i+1:]...)
	if !t.Missing() {
		s.available = append(s.available, t)
	}
	s.dirty = true
}

// SetStatus changes the status of the assignment for taskID. Unknown task ids
// are ignored; statuses outside the workflow are rejected.
func (s *Session) SetStatus(taskID string, status model.AssignmentStatus) error {
	if !status.Valid() {
		return records.Invalid(records.ResourceAyudantes, map[string]string{
			"estado": fmt.Sprintf("estado de asignación inválido %q", status),
		})
	}
	i := s.assignedIndex(taskID)
	if i < 0 {
		return nil
	}
	if s.assigned[i].Estado != status {
		s.assigned[i].Estado = status
		s.dirty = true
	}
	return nil
}

// SetHours overrides the hours of the assignment for taskID. Unknown task ids
// are ignored.
func (s *Session) SetHours(taskID string, hours int) error {
	if hours < 1 {
		return records.Invalid(records.ResourceAyudantes, map[string]string{
			"horas": "las horas de la asignación deben ser al menos 1",
		})
	}
	i := s.assignedIndex(taskID)
	if i < 0 {
		return nil
	}
	if s.assigned[i].Horas != hours {
		s.assigned[i].Horas = hours
		s.dirty = true
	}
	return nil
}

// TotalHours sums the hours of the current assignments.
func (s *Session) TotalHours() int {
	total := 0
	for _, a := range s.assigned {
		total += a.Horas
	}
	return total
}

// Dirty reports whether the partitions changed since Open or the last Save.
func (s *Session) Dirty() bool { return s.dirty }

// Discard drops every unsaved change.
func (s *Session) Discard() {
	s.available = append([]model.Task(nil), s.baseAvailable...)
	s.assigned = cloneAssignments(s.baseAssigned)
	s.dirty = false
}

// Payload is the helper update carrying the current assignments, with each
// task reduced to its id.
func (s *Session) Payload() model.Helper {
	h := s.helper
	h.TareasAsignadas = make([]model.Assignment, 0, len(s.assigned))
	for _, a := range s.assigned {
		h.TareasAsignadas = append(h.TareasAsignadas, model.Assignment{
			Tarea:  model.TaskRef{ID: a.TaskID()},
			Horas:  a.Horas,
			Estado: a.Estado,
		})
	}
	return h
}

// Save persists the payload through u. On success the session adopts the
// stored helper and becomes clean; on failure it is left as it was so the
// caller can retry.
func (s *Session) Save(ctx context.Context, u Updater) (model.Helper, error) {
	saved, err := u.Update(ctx, s.helper.ID, s.Payload())
	if err != nil {
		return model.Helper{}, err
	}

	// keep the resolved tasks; the store may answer with bare references
	assigned := cloneAssignments(s.assigned)
	s.helper = saved
	s.helper.TareasAsignadas = cloneAssignments(assigned)
	s.assigned = assigned
	s.baseAvailable = append([]model.Task(nil), s.available...)
	s.baseAssigned = cloneAssignments(assigned)
	s.dirty = false

	if s.onSaved != nil {
		s.onSaved(saved)
	}
	return saved, nil
}

func (s *Session) availableIndex(id string) int {
	for i, t := range s.available {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) assignedIndex(id string) int {
	for i, a := range s.assigned {
		if a.TaskID() == id {
			return i
		}
	}
	return -1
}

func cloneAssignments(in []model.Assignment) []model.Assignment {
	out := make([]model.Assignment, len(in))
	for i, a := range in {
		if a.Tarea.Task != nil {
			t := *a.Tarea.Task
			a.Tarea.Task = &t
		}
		out[i] = a
	}
	return out
}
