package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/harrisonrobin/sonrisas/pkg/model"
	"github.com/harrisonrobin/sonrisas/pkg/records"
)

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func (a *app) printTasks(tasks []model.Task) error {
	if a.jsonOut {
		return a.printJSON(tasks)
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tNOMBRE\tACCION\tHORAS\tESTADO")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", t.ID, t.Nombre, t.Accion, t.CantidadHoras, t.Estado)
	}
	return tw.Flush()
}

func (a *app) printHelpers(helpers []model.Helper) error {
	if a.jsonOut {
		return a.printJSON(helpers)
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "ID\tDOCUMENTO\tNOMBRE\tTELEFONO\tROL\tINSTITUCION\tESTADO\tTAREAS")
	for _, h := range helpers {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			h.ID, h.TipoDocumento, h.Identificacion, h.Nombre, h.Telefono, h.Rol, h.Institucion, h.Estado, len(h.TareasAsignadas))
	}
	return tw.Flush()
}

func (a *app) printAssignments(assigned []model.Assignment, total int) error {
	tw := newTable(a.out)
	fmt.Fprintln(tw, "TAREA\tNOMBRE\tHORAS\tESTADO")
	for _, as := range assigned {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", as.TaskID(), as.Tarea.Resolved().Nombre, as.Horas, as.Estado)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total de horas: %d\n", total)
	return nil
}

// describe renders an error the way the user should read it.
func describe(err error) string {
	var e *records.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case records.KindValidation:
		if e.Message != "" {
			return e.Message
		}
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %s", k, e.Fields[k]))
		}
		return "datos inválidos\n  " + strings.Join(lines, "\n  ")
	case records.KindNotFound:
		if e.ID != "" {
			return fmt.Sprintf("%s %s no existe", singular(e.Resource), e.ID)
		}
		return "el registro no existe"
	default:
		msg := "no se pudo contactar el servidor"
		if e.Message != "" {
			msg += ": " + e.Message
		} else if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	}
}

func singular(resource string) string {
	switch resource {
	case records.ResourceTareas:
		return "La tarea"
	case records.ResourceAyudantes:
		return "El ayudante"
	}
	return "El registro"
}
