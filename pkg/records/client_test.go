package records

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harrisonrobin/sonrisas/pkg/config"
	"github.com/harrisonrobin/sonrisas/pkg/mockapi"
	"github.com/harrisonrobin/sonrisas/pkg/model"
)

func newTestServices(t *testing.T, opts ...Option) (*Services, *mockapi.Server) {
	t.Helper()
	mock := mockapi.New(ResourceTareas, ResourceAyudantes)
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)
	svc := NewServices(config.API{
		TareasURL:    srv.URL + "/tareas",
		AyudantesURL: srv.URL + "/ayudantes/",
	}, opts...)
	return svc, mock
}

func TestListReplacesCache(t *testing.T) {
	svc, mock := newTestServices(t)
	ctx := context.Background()
	if _, err := mock.Seed(ResourceTareas, model.Task{Nombre: "Leer", CantidadHoras: 2}, model.Task{Nombre: "Escribir", CantidadHoras: 3}); err != nil {
		t.Fatal(err)
	}

	tasks, err := svc.Tareas.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Nombre != "Leer" || tasks[1].CantidadHoras != 3 {
		t.Fatalf("Unexpected tasks: %+v", tasks)
	}
	if len(svc.Tareas.Cached()) != 2 {
		t.Errorf("Expected 2 cached tasks, got %d", len(svc.Tareas.Cached()))
	}
}

func TestMutationsUpdateCache(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	if _, err := svc.Tareas.List(ctx); err != nil {
		t.Fatal(err)
	}

	created, err := svc.Tareas.Create(ctx, model.Task{Nombre: "Leer", Accion: "Leer un cuento", CantidadHoras: 2})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" || created.Estado != model.Active {
		t.Fatalf("Expected stored task with id and estado activo, got %+v", created)
	}
	if cached := svc.Tareas.Cached(); len(cached) != 1 || cached[0].ID != created.ID {
		t.Fatalf("Expected created task appended to cache, got %+v", cached)
	}

	created.CantidadHoras = 5
	updated, err := svc.Tareas.Update(ctx, created.ID, created)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got, _ := svc.Tareas.Get(ctx, created.ID); got.CantidadHoras != 5 || updated.CantidadHoras != 5 {
		t.Errorf("Expected 5 hours after update, got %d", got.CantidadHoras)
	}

	toggled, err := svc.Tareas.ToggleStatus(ctx, created.ID)
	if err != nil {
		t.Fatalf("ToggleStatus failed: %v", err)
	}
	if toggled.Estado != model.Inactive {
		t.Errorf("Expected inactivo, got %s", toggled.Estado)
	}
	if cached := svc.Tareas.Cached(); cached[0].Estado != model.Inactive {
		t.Errorf("Expected cache to hold toggled task, got %+v", cached[0])
	}

	if err := svc.Tareas.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(svc.Tareas.Cached()) != 0 {
		t.Errorf("Expected empty cache after delete, got %+v", svc.Tareas.Cached())
	}
}

func TestFailedMutationLeavesCache(t *testing.T) {
	svc, mock := newTestServices(t)
	ctx := context.Background()
	ids, err := mock.Seed(ResourceTareas, model.Task{Nombre: "Leer", CantidadHoras: 2})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Tareas.List(ctx); err != nil {
		t.Fatal(err)
	}

	mock.FailNext(http.StatusInternalServerError)
	_, err = svc.Tareas.Update(ctx, ids[0], model.Task{Nombre: "Otro", CantidadHoras: 9})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Expected network error, got %v", err)
	}
	mock.FailNext(http.StatusBadGateway)
	if err := svc.Tareas.Delete(ctx, ids[0]); !errors.Is(err, ErrNetwork) {
		t.Fatalf("Expected network error, got %v", err)
	}

	cached := svc.Tareas.Cached()
	if len(cached) != 1 || cached[0].Nombre != "Leer" || cached[0].CantidadHoras != 2 {
		t.Errorf("Expected untouched cache, got %+v", cached)
	}
}

func TestErrorKinds(t *testing.T) {
	svc, mock := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Tareas.Update(ctx, "nope", model.Task{Nombre: "Leer"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
	if _, err := svc.Tareas.ToggleStatus(ctx, "nope"); KindOf(err) != KindNotFound {
		t.Errorf("Expected not found kind, got %v", err)
	}

	if _, err := mock.Seed(ResourceAyudantes, model.Helper{Identificacion: "12345678"}); err != nil {
		t.Fatal(err)
	}
	_, err = svc.Ayudantes.Create(ctx, model.Helper{Identificacion: "12345678"})
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindValidation {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if e.Message != "El ayudante ya existe." || e.Op != "create" || e.Resource != ResourceAyudantes {
		t.Errorf("Unexpected error details: %+v", e)
	}
}

func TestTransportFailureIsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient[model.Task](ResourceTareas, url+"/tareas")
	_, err := c.List(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Expected network error, got %v", err)
	}
}

func TestContextDeadlineIsNetwork(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient[model.Task](ResourceTareas, srv.URL+"/tareas")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.List(ctx); KindOf(err) != KindNetwork {
		t.Errorf("Expected network kind on deadline, got %v", err)
	}
}

func TestGetUsesCacheThenFetches(t *testing.T) {
	svc, mock := newTestServices(t)
	ctx := context.Background()
	ids, err := mock.Seed(ResourceAyudantes, model.Helper{Nombre: "Ana"})
	if err != nil {
		t.Fatal(err)
	}

	h, err := svc.Ayudantes.Get(ctx, ids[0])
	if err != nil || h.Nombre != "Ana" {
		t.Fatalf("Expected Ana, got %+v, %v", h, err)
	}
	before := mock.Requests()
	if _, err := svc.Ayudantes.Get(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	if mock.Requests() != before {
		t.Errorf("Expected cache hit without a request, got %d new requests", mock.Requests()-before)
	}
	if _, err := svc.Ayudantes.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected not found for unknown id, got %v", err)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	svc, mock := newTestServices(t, WithBreaker(config.Breaker{
		MinRequests:     2,
		MaxFailureRatio: 0.5,
		OpenTimeout:     time.Minute,
	}))
	ctx := context.Background()
	mock.FailNext(http.StatusServiceUnavailable)
	mock.FailNext(http.StatusServiceUnavailable)
	for i := 0; i < 2; i++ {
		if _, err := svc.Tareas.List(ctx); !errors.Is(err, ErrNetwork) {
			t.Fatalf("Expected network error, got %v", err)
		}
	}

	before := mock.Requests()
	_, err := svc.Tareas.List(ctx)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("Expected open breaker to fail as network, got %v", err)
	}
	if mock.Requests() != before {
		t.Errorf("Expected open breaker to short-circuit, got %d requests", mock.Requests()-before)
	}
	// the breaker is per resource
	if _, err := svc.Ayudantes.List(ctx); err != nil {
		t.Errorf("Expected ayudantes client unaffected, got %v", err)
	}
}

func TestValidationDoesNotTripBreaker(t *testing.T) {
	svc, _ := newTestServices(t, WithBreaker(config.Breaker{MinRequests: 1, MaxFailureRatio: 0.1, OpenTimeout: time.Minute}))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.Tareas.Update(ctx, "nope", model.Task{}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Expected not found, got %v", err)
		}
	}
	if _, err := svc.Tareas.List(ctx); err != nil {
		t.Errorf("Expected closed breaker, got %v", err)
	}
}
