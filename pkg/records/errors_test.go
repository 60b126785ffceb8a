package records

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestFromResponse(t *testing.T) {
	cases := []struct {
		code    int
		body    string
		kind    Kind
		message string
	}{
		{404, `{"error":"Tarea no encontrada"}`, KindNotFound, "Tarea no encontrada"},
		{400, `{"message":"campo inválido"}`, KindValidation, "campo inválido"},
		{422, `not json`, KindValidation, "not json"},
		{409, `{"error":"El ayudante ya existe."}`, KindValidation, "El ayudante ya existe."},
		{500, `{"error":"boom"}`, KindNetwork, "boom"},
		{503, ``, KindNetwork, ""},
	}
	for _, tc := range cases {
		e := fromResponse(&googleapi.Error{Code: tc.code, Body: tc.body})
		if e.Kind != tc.kind {
			t.Errorf("%d: expected kind %s, got %s", tc.code, tc.kind, e.Kind)
		}
		if e.Message != tc.message {
			t.Errorf("%d: expected message %q, got %q", tc.code, tc.message, e.Message)
		}
		if e.Status != tc.code {
			t.Errorf("%d: expected status, got %d", tc.code, e.Status)
		}
	}
}

func TestErrorIsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindNotFound, Op: "update", Resource: "tareas", ID: "t1"})
	if !errors.Is(err, ErrNotFound) {
		t.Error("Expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, ErrNetwork) {
		t.Error("Expected errors.Is not to match ErrNetwork")
	}
	if !strings.Contains(err.Error(), "tareas update t1") {
		t.Errorf("Expected op context in message, got %q", err.Error())
	}
}

func TestInvalidMessageListsFields(t *testing.T) {
	e := Invalid("ayudantes", map[string]string{"telefono": "mal", "nombre": "peor"})
	if !errors.Is(e, ErrValidation) {
		t.Error("Expected validation kind")
	}
	if !strings.Contains(e.Error(), "nombre: peor; telefono: mal") {
		t.Errorf("Expected sorted field messages, got %q", e.Error())
	}
}
