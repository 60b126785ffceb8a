package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestCreateAssignsIdentityAndStatus(t *testing.T) {
	h := New("tareas").Handler()
	rec, doc := do(t, h, http.MethodPost, "/tareas", `{"nombre":"Leer","cantidadHoras":3}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}
	if id, _ := doc["_id"].(string); id == "" {
		t.Errorf("Expected assigned _id, got %v", doc["_id"])
	}
	if doc["estado"] != "activo" {
		t.Errorf("Expected estado activo, got %v", doc["estado"])
	}
}

func TestToggleAndDelete(t *testing.T) {
	s := New("tareas")
	ids, err := s.Seed("tareas", map[string]any{"nombre": "Leer"})
	if err != nil {
		t.Fatal(err)
	}
	h := s.Handler()

	_, doc := do(t, h, http.MethodPatch, "/tareas/"+ids[0]+"/estado", `{}`)
	if doc["estado"] != "inactivo" {
		t.Errorf("Expected inactivo after toggle, got %v", doc["estado"])
	}

	rec, _ := do(t, h, http.MethodDelete, "/tareas/"+ids[0], "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	rec, doc = do(t, h, http.MethodDelete, "/tareas/"+ids[0], "")
	if rec.Code != http.StatusNotFound || doc["error"] == nil {
		t.Errorf("Expected 404 with error body, got %d %v", rec.Code, doc)
	}
}

func TestDuplicateIdentification(t *testing.T) {
	s := New("ayudantes")
	if _, err := s.Seed("ayudantes", map[string]any{"identificacion": "12345678"}); err != nil {
		t.Fatal(err)
	}
	rec, doc := do(t, s.Handler(), http.MethodPost, "/ayudantes", `{"identificacion":" 12345678 "}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rec.Code)
	}
	if doc["error"] != "El ayudante ya existe." {
		t.Errorf("Unexpected error body: %v", doc)
	}
}

func TestFailNext(t *testing.T) {
	s := New("tareas")
	s.FailNext(http.StatusServiceUnavailable)
	h := s.Handler()

	rec, _ := do(t, h, http.MethodGet, "/tareas", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected injected 503, got %d", rec.Code)
	}
	rec, _ = do(t, h, http.MethodGet, "/tareas", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 after injected failure, got %d", rec.Code)
	}
	if s.Requests() != 2 {
		t.Errorf("Expected 2 requests, got %d", s.Requests())
	}
}
