package model

import (
	"strings"
	"testing"
)

func TestDecodeTasks(t *testing.T) {
	input := `{"nombre": "Leer", "accion": "Leer un cuento", "cantidadHoras": 2}
{"nombre": "Contar", "accion": "Contar hasta cien", "cantidadHoras": 5, "estado": "inactivo"}
`
	tasks, err := DecodeTasks(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeTasks failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Nombre != "Leer" || tasks[0].CantidadHoras != 2 {
		t.Errorf("Unexpected first task %+v", tasks[0])
	}
	if tasks[1].Estado != Inactive {
		t.Errorf("Expected estado inactivo, got %q", tasks[1].Estado)
	}
}

func TestDecodeTasksReportsPosition(t *testing.T) {
	input := `{"nombre": "Leer"}
{"nombre": `
	_, err := DecodeTasks(strings.NewReader(input))
	if err == nil {
		t.Fatal("Expected error for truncated input")
	}
	if !strings.Contains(err.Error(), "task 2") {
		t.Errorf("Expected error to name task 2, got %v", err)
	}
}

func TestDecodeTasksEmpty(t *testing.T) {
	tasks, err := DecodeTasks(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(tasks) != 0 {
		t.Errorf("Expected no tasks, got %d", len(tasks))
	}
}
