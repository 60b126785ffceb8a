package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/sonrisas/pkg/model"
	"github.com/harrisonrobin/sonrisas/pkg/records"
	"github.com/harrisonrobin/sonrisas/pkg/validate"
)

type taskForm struct {
	nombre, accion, horas, estado, proceso string
}

func (f *taskForm) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.nombre, "nombre", "", "task name")
	cmd.Flags().StringVar(&f.accion, "accion", "", "what the task consists of")
	cmd.Flags().StringVar(&f.horas, "horas", "", "hour cost, 1 to 12")
	cmd.Flags().StringVar(&f.estado, "estado", "", "activo or inactivo")
	cmd.Flags().StringVar(&f.proceso, "proceso", "", "process the task belongs to")
}

// apply copies the flags the user set onto t and validates the whole form.
func (f *taskForm) apply(cmd *cobra.Command, t model.Task) (model.Task, error) {
	changed := cmd.Flags().Changed
	if changed("nombre") {
		t.Nombre = f.nombre
	}
	if changed("accion") {
		t.Accion = f.accion
	}
	if changed("proceso") {
		t.Proceso = f.proceso
	}
	values := validate.TaskValues(t)
	if changed("horas") {
		values["cantidadHoras"] = f.horas
	}
	if changed("estado") {
		s := model.Status(f.estado)
		if s != model.Active && s != model.Inactive {
			return t, records.Invalid(records.ResourceTareas, map[string]string{"estado": "El estado debe ser activo o inactivo."})
		}
		t.Estado = s
	}

	if errs := validate.Form(validate.TaskFields, values, validate.Context{}); len(errs) > 0 {
		return t, errs.Err(records.ResourceTareas)
	}
	t.CantidadHoras = parseHours(values["cantidadHoras"])
	return t, nil
}

// parseHours reads the integer part of an already validated value.
func parseHours(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int(math.Trunc(f))
}

func (a *app) tareasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tareas",
		Aliases: []string{"tarea"},
		Short:   "Manage tasks",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := a.svc.Tareas.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.printTasks(tasks)
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.svc.Tareas.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printTasks([]model.Task{t})
		},
	}

	var createForm taskForm
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := createForm.apply(cmd, model.Task{})
			if err != nil {
				return err
			}
			created, err := a.svc.Tareas.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return a.printTasks([]model.Task{created})
		},
	}
	createForm.bind(create)

	var updateForm taskForm
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a task, keeping the fields not given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.svc.Tareas.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			draft, err := updateForm.apply(cmd, current)
			if err != nil {
				return err
			}
			updated, err := a.svc.Tareas.Update(cmd.Context(), current.ID, draft)
			if err != nil {
				return err
			}
			return a.printTasks([]model.Task{updated})
		},
	}
	updateForm.bind(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Tareas.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Tarea %s eliminada\n", args[0])
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Switch a task between activo and inactivo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.svc.Tareas.ToggleStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printTasks([]model.Task{t})
		},
	}

	imp := &cobra.Command{
		Use:   "import",
		Short: "Create tasks from JSON objects read on stdin",
		Args:  cobra.NoArgs,
		RunE:  a.runImport,
	}

	cmd.AddCommand(list, show, create, update, del, toggle, imp)
	return cmd
}

// runImport validates every decoded task and creates the valid ones. It
// fails when any task was skipped.
func (a *app) runImport(cmd *cobra.Command, args []string) error {
	tasks, err := model.DecodeTasks(a.in)
	if err != nil {
		return err
	}

	var created []model.Task
	failed := 0
	for i, t := range tasks {
		t.ID = ""
		if errs := validate.Task(t); len(errs) > 0 {
			fmt.Fprintf(a.errOut, "tarea %d: %s\n", i+1, describe(errs.Err(records.ResourceTareas)))
			failed++
			continue
		}
		c, err := a.svc.Tareas.Create(cmd.Context(), t)
		if err != nil {
			fmt.Fprintf(a.errOut, "tarea %d: %s\n", i+1, describe(err))
			failed++
			continue
		}
		created = append(created, c)
	}

	if err := a.printTasks(created); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tasks were not imported", failed, len(tasks))
	}
	return nil
}
