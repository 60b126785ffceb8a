// Package mockapi is an in-memory Record Store that speaks the same HTTP
// surface as the production API. It backs the data layer tests and the
// mock-server command.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type document map[string]any

type collection struct {
	order []string
	docs  map[string]document
}

type Server struct {
	mu          sync.Mutex
	collections map[string]*collection
	failNext    []int
	requests    int
}

// New creates a server exposing the given resources, e.g. "tareas" and
// "ayudantes".
func New(resources ...string) *Server {
	s := &Server{collections: make(map[string]*collection)}
	for _, r := range resources {
		s.collections[r] = &collection{docs: make(map[string]document)}
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "timestamp": time.Now().Unix()})
	}).Methods(http.MethodGet)

	r.HandleFunc("/{resource}", s.list).Methods(http.MethodGet)
	r.HandleFunc("/{resource}", s.create).Methods(http.MethodPost)
	r.HandleFunc("/{resource}/{id}", s.update).Methods(http.MethodPut)
	r.HandleFunc("/{resource}/{id}", s.delete).Methods(http.MethodDelete)
	r.HandleFunc("/{resource}/{id}/estado", s.toggle).Methods(http.MethodPatch)

	r.Use(s.faults)
	return r
}

// FailNext makes the next request answer with status instead of being
// served. Calls queue up.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = append(s.failNext, status)
}

// Requests returns how many resource requests reached the server.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Seed stores records as-is, assigning an _id to those without one, and
// returns the ids in order.
func (s *Server) Seed(resource string, records ...any) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[resource]
	if !ok {
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		var doc document
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, err
		}
		ids = append(ids, c.insert(doc))
	}
	return ids, nil
}

func (s *Server) faults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		s.mu.Lock()
		s.requests++
		var status int
		if len(s.failNext) > 0 {
			status, s.failNext = s.failNext[0], s.failNext[1:]
		}
		s.mu.Unlock()
		if status != 0 {
			writeError(w, status, "fallo simulado")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (*collection, bool) {
	c, ok := s.collections[mux.Vars(r)["resource"]]
	if !ok {
		writeError(w, http.StatusNotFound, "recurso desconocido")
	}
	return c, ok
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	out := make([]document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.docs[id])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var doc document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || doc == nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	delete(doc, "_id")
	if msg := c.conflict(mux.Vars(r)["resource"], "", doc); msg != "" {
		writeError(w, http.StatusConflict, msg)
		return
	}
	id := c.insert(doc)
	writeJSON(w, http.StatusCreated, c.docs[id])
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var patch document
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil || patch == nil {
		writeError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	doc, ok := c.docs[id]
	if !ok {
		writeError(w, http.StatusNotFound, "registro no encontrado")
		return
	}
	delete(patch, "_id")
	if msg := c.conflict(mux.Vars(r)["resource"], id, patch); msg != "" {
		writeError(w, http.StatusConflict, msg)
		return
	}
	for k, v := range patch {
		doc[k] = v
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if _, ok := c.docs[id]; !ok {
		writeError(w, http.StatusNotFound, "registro no encontrado")
		return
	}
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	doc, ok := c.docs[mux.Vars(r)["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "registro no encontrado")
		return
	}
	if doc["estado"] == "activo" {
		doc["estado"] = "inactivo"
	} else {
		doc["estado"] = "activo"
	}
	writeJSON(w, http.StatusOK, doc)
}

func (c *collection) insert(doc document) string {
	id, _ := doc["_id"].(string)
	if id == "" {
		id = uuid.NewString()
		doc["_id"] = id
	}
	if _, ok := doc["estado"]; !ok {
		doc["estado"] = "activo"
	}
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc
	return id
}

// conflict enforces unique helper identification numbers, like the
// production API.
func (c *collection) conflict(resource, selfID string, doc document) string {
	if resource != "ayudantes" {
		return ""
	}
	ident, _ := doc["identificacion"].(string)
	if ident == "" {
		return ""
	}
	for id, other := range c.docs {
		if id == selfID {
			continue
		}
		if o, _ := other["identificacion"].(string); strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(ident)) {
			return "El ayudante ya existe."
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
