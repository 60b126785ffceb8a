package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Helper is a person who can be assigned tasks.
type Helper struct {
	ID                string       `json:"_id,omitempty"`
	TipoDocumento     DocumentType `json:"tipoDocumento"`
	Identificacion    string       `json:"identificacion"`
	Nombre            string       `json:"nombre"`
	Telefono          string       `json:"telefono"`
	Rol               Role         `json:"rol"`
	Direccion         string       `json:"direccion"`
	CorreoElectronico string       `json:"correoElectronico,omitempty"`
	Institucion       string       `json:"institucion"`
	Estado            Status       `json:"estado,omitempty"`
	TareasAsignadas   []Assignment `json:"tareasAsignadas"`
}

// RecordID returns the Record Store identity of the helper.
func (h Helper) RecordID() string { return h.ID }

// Assignment binds one task to one helper. Horas is a snapshot taken at
// assignment time and is edited independently of the task afterwards.
type Assignment struct {
	Tarea  TaskRef          `json:"tarea"`
	Horas  int              `json:"horas"`
	Estado AssignmentStatus `json:"estado"`
}

// TaskID returns the id of the referenced task.
func (a Assignment) TaskID() string { return a.Tarea.ID }

// TaskRef references a task by id and optionally carries the resolved task.
// It always encodes as the bare id; it decodes both a bare id and an embedded
// task object.
type TaskRef struct {
	ID   string
	Task *Task
}

// Ref builds a resolved reference to t.
func Ref(t Task) TaskRef {
	return TaskRef{ID: t.ID, Task: &t}
}

// Resolved returns the embedded task, or a missing-task placeholder when the
// reference was never resolved.
func (r TaskRef) Resolved() Task {
	if r.Task != nil {
		return *r.Task
	}
	return MissingTask(r.ID)
}

// MarshalJSON implements the json.Marshaler interface for TaskRef.
func (r TaskRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

// UnmarshalJSON implements the json.Unmarshaler interface for TaskRef.
func (r *TaskRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*r = TaskRef{}
		return nil
	case b[0] == '"':
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = TaskRef{ID: id}
		return nil
	case b[0] == '{':
		var t Task
		if err := json.Unmarshal(b, &t); err != nil {
			return fmt.Errorf("failed to decode embedded task: %w", err)
		}
		*r = TaskRef{ID: t.ID, Task: &t}
		return nil
	}
	return fmt.Errorf("unexpected task reference %s", b)
}
