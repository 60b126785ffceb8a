package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/sonrisas/pkg/model"
)

type assignEdits struct {
	add, remove   []string
	status, hours []string
	dryRun        bool
}

func (a *app) asignarCmd() *cobra.Command {
	var e assignEdits
	cmd := &cobra.Command{
		Use:   "asignar <helperID>",
		Short: "Assign tasks to a helper and save",
		Long: `Opens the helper's assignments, applies the edits in order (adds, removes,
statuses, hours), prints the result and saves it unless --dry-run is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsignar(cmd, args[0], e)
		},
	}
	fl := cmd.Flags()
	fl.StringArrayVar(&e.add, "add", nil, "task id to assign (repeatable)")
	fl.StringArrayVar(&e.remove, "remove", nil, "task id to unassign (repeatable)")
	fl.StringArrayVar(&e.status, "status", nil, `assignment status as id=Estado, e.g. t1="En proceso" (repeatable)`)
	fl.StringArrayVar(&e.hours, "hours", nil, "assignment hours as id=N (repeatable)")
	fl.BoolVar(&e.dryRun, "dry-run", false, "show the result without saving")
	return cmd
}

func (a *app) runAsignar(cmd *cobra.Command, helperID string, e assignEdits) error {
	s, err := a.openSession(cmd, helperID)
	if err != nil {
		return err
	}

	for _, id := range e.add {
		task, ok := findTask(s.Available(), id)
		if !ok {
			fmt.Fprintf(a.errOut, "la tarea %s no está disponible\n", id)
			continue
		}
		s.Assign(task)
	}
	for _, id := range e.remove {
		s.Unassign(id)
	}
	for _, kv := range e.status {
		id, v, err := splitEdit(kv)
		if err != nil {
			return err
		}
		if err := s.SetStatus(id, model.AssignmentStatus(v)); err != nil {
			return err
		}
	}
	for _, kv := range e.hours {
		id, v, err := splitEdit(kv)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid hours %q for %s", v, id)
		}
		if err := s.SetHours(id, n); err != nil {
			return err
		}
	}

	if !e.dryRun && s.Dirty() {
		if _, err := s.Save(cmd.Context(), a.svc.Ayudantes); err != nil {
			return err
		}
		a.log.WithField("helper", helperID).Info("assignments saved")
	}

	if a.jsonOut {
		return a.printJSON(struct {
			Disponibles []model.Task       `json:"disponibles"`
			Asignadas   []model.Assignment `json:"asignadas"`
			TotalHoras  int                `json:"totalHoras"`
		}{s.Available(), s.Assigned(), s.TotalHours()})
	}
	fmt.Fprintf(a.out, "Ayudante: %s\n\nTareas disponibles\n", s.Helper().Nombre)
	if err := a.printTasks(s.Available()); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "\nTareas asignadas")
	return a.printAssignments(s.Assigned(), s.TotalHours())
}

func findTask(tasks []model.Task, id string) (model.Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func splitEdit(kv string) (string, string, error) {
	id, v, ok := strings.Cut(kv, "=")
	if !ok || id == "" {
		return "", "", fmt.Errorf("expected id=value, got %q", kv)
	}
	return id, v, nil
}
