package model

// MissingTaskName is shown for assignments whose task no longer exists.
const MissingTaskName = "Tarea no encontrada"

// Task is a unit of work with a fixed hour cost.
type Task struct {
	ID            string `json:"_id,omitempty"`
	Nombre        string `json:"nombre"`
	Accion        string `json:"accion"`
	CantidadHoras int    `json:"cantidadHoras"`
	Estado        Status `json:"estado,omitempty"`
	Proceso       string `json:"proceso,omitempty"`

	missing bool
}

// RecordID returns the Record Store identity of the task.
func (t Task) RecordID() string { return t.ID }

// MissingTask builds the placeholder used when an assignment references a task
// id that is not in the task collection.
func MissingTask(id string) Task {
	return Task{ID: id, Nombre: MissingTaskName, missing: true}
}

// Missing reports whether t is a placeholder built by MissingTask.
func (t Task) Missing() bool { return t.missing }
