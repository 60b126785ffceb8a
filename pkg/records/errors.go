package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind classifies every failure the data layer returns.
type Kind int

const (
	// KindNetwork covers transport and server failures. Retryable by the user.
	KindNetwork Kind = iota + 1
	// KindValidation is a rejected draft, either locally or by the Record Store.
	KindValidation
	// KindNotFound is a stale reference to a deleted record.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	}
	return "unknown"
}

// Sentinels for errors.Is.
var (
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
)

// Error is the normalized failure of a data layer call.
type Error struct {
	Kind     Kind
	Op       string
	Resource string
	ID       string
	Status   int
	// Message is the server supplied explanation, when there was one.
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Resource != "" {
		b.WriteString(e.Resource)
		if e.Op != "" {
			b.WriteString(" ")
		}
	}
	b.WriteString(e.Op)
	if e.ID != "" {
		fmt.Fprintf(&b, " %s", e.ID)
	}
	if b.Len() > 0 {
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	switch {
	case e.Message != "":
		fmt.Fprintf(&b, ": %s", e.Message)
	case len(e.Fields) > 0:
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
		}
		fmt.Fprintf(&b, ": %s", strings.Join(parts, "; "))
	case e.Err != nil:
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels, so errors.Is(err, ErrNotFound) works for any
// not-found failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Resource == "" && t.Kind == e.Kind
}

// KindOf returns the kind of err, or zero when err did not come from this
// package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Invalid builds a validation failure from per-field messages.
func Invalid(resource string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: "validate", Resource: resource, Fields: fields}
}

// fromResponse maps a non-2xx googleapi.Error onto the taxonomy.
func fromResponse(gerr *googleapi.Error) *Error {
	e := &Error{Status: gerr.Code, Message: serverMessage(gerr), Err: gerr}
	switch gerr.Code {
	case http.StatusNotFound:
		e.Kind = KindNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	default:
		e.Kind = KindNetwork
	}
	return e
}

// serverMessage extracts the explanation from bodies shaped like
// {"error": "..."} or {"message": "..."}.
func serverMessage(gerr *googleapi.Error) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal([]byte(gerr.Body), &body); err == nil {
		var s string
		if len(body.Error) > 0 && json.Unmarshal(body.Error, &s) == nil && s != "" {
			return s
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if gerr.Message != "" {
		return gerr.Message
	}
	return strings.TrimSpace(gerr.Body)
}
