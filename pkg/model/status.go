package model

// Status is the lifecycle state shared by tasks and helpers.
type Status string

const (
	Active   Status = "activo"
	Inactive Status = "inactivo"
)

// Toggle returns the opposite lifecycle state. Anything that is not active
// becomes active.
func (s Status) Toggle() Status {
	if s == Active {
		return Inactive
	}
	return Active
}

// AssignmentStatus tracks the progress of a single assignment, independent of
// the task's own lifecycle.
type AssignmentStatus string

const (
	Created    AssignmentStatus = "Creada"
	InProgress AssignmentStatus = "En proceso"
	Finished   AssignmentStatus = "Finalizada"
)

// AssignmentStatuses lists the valid assignment states in workflow order.
var AssignmentStatuses = []AssignmentStatus{Created, InProgress, Finished}

func (s AssignmentStatus) Valid() bool {
	switch s {
	case Created, InProgress, Finished:
		return true
	}
	return false
}

// DocumentType is the kind of identity document a helper carries.
type DocumentType string

const (
	CitizenID DocumentType = "C.C"
	MinorID   DocumentType = "T.I"
)

// Role is the kind of work a helper does.
type Role string

const (
	Literacy  Role = "alfabetizador"
	Volunteer Role = "voluntario"
)
