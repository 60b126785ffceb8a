package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/sonrisas/pkg/assign"
	"github.com/harrisonrobin/sonrisas/pkg/model"
	"github.com/harrisonrobin/sonrisas/pkg/records"
	"github.com/harrisonrobin/sonrisas/pkg/validate"
)

type helperForm struct {
	tipoDocumento, identificacion, nombre, telefono string
	rol, direccion, correo, institucion             string
}

func (f *helperForm) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.tipoDocumento, "tipo-documento", "", "document type, C.C or T.I")
	fl.StringVar(&f.identificacion, "identificacion", "", "document number, 8 to 10 digits")
	fl.StringVar(&f.nombre, "nombre", "", "full name")
	fl.StringVar(&f.telefono, "telefono", "", "phone number, 10 digits")
	fl.StringVar(&f.rol, "rol", "", "alfabetizador or voluntario")
	fl.StringVar(&f.direccion, "direccion", "", "address")
	fl.StringVar(&f.correo, "correo", "", "email address")
	fl.StringVar(&f.institucion, "institucion", "", "institution")
}

func (f *helperForm) apply(cmd *cobra.Command, h model.Helper) model.Helper {
	changed := cmd.Flags().Changed
	if changed("tipo-documento") {
		h.TipoDocumento = model.DocumentType(f.tipoDocumento)
	}
	if changed("identificacion") {
		h.Identificacion = f.identificacion
	}
	if changed("nombre") {
		h.Nombre = f.nombre
	}
	if changed("telefono") {
		h.Telefono = f.telefono
	}
	if changed("rol") {
		h.Rol = model.Role(f.rol)
	}
	if changed("direccion") {
		h.Direccion = f.direccion
	}
	if changed("correo") {
		h.CorreoElectronico = f.correo
	}
	if changed("institucion") {
		h.Institucion = f.institucion
	}
	return h
}

// checkHelper validates h against the current helper collection.
func (a *app) checkHelper(cmd *cobra.Command, h model.Helper) error {
	all, err := a.svc.Ayudantes.List(cmd.Context())
	if err != nil {
		return err
	}
	return validate.Helper(h, validate.Context{Ayudantes: all}).Err(records.ResourceAyudantes)
}

func (a *app) ayudantesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ayudantes",
		Aliases: []string{"ayudante"},
		Short:   "Manage helpers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all helpers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			helpers, err := a.svc.Ayudantes.List(cmd.Context())
			if err != nil {
				return err
			}
			return a.printHelpers(helpers)
		},
	}

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a helper with its assignments",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runShowHelper,
	}

	var createForm helperForm
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a helper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := createForm.apply(cmd, model.Helper{TareasAsignadas: []model.Assignment{}})
			if err := a.checkHelper(cmd, draft); err != nil {
				return err
			}
			created, err := a.svc.Ayudantes.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			return a.printHelpers([]model.Helper{created})
		},
	}
	createForm.bind(create)

	var updateForm helperForm
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a helper, keeping the fields not given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.svc.Ayudantes.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			draft := updateForm.apply(cmd, current)
			if err := a.checkHelper(cmd, draft); err != nil {
				return err
			}
			updated, err := a.svc.Ayudantes.Update(cmd.Context(), current.ID, draft)
			if err != nil {
				return err
			}
			return a.printHelpers([]model.Helper{updated})
		},
	}
	updateForm.bind(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a helper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Ayudantes.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Ayudante %s eliminado\n", args[0])
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Switch a helper between activo and inactivo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.svc.Ayudantes.ToggleStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printHelpers([]model.Helper{h})
		},
	}

	cmd.AddCommand(list, show, create, update, del, toggle)
	return cmd
}

func (a *app) runShowHelper(cmd *cobra.Command, args []string) error {
	s, err := a.openSession(cmd, args[0])
	if err != nil {
		return err
	}
	h := s.Helper()
	h.TareasAsignadas = s.Assigned()
	if a.jsonOut {
		return a.printJSON(struct {
			model.Helper
			TotalHoras int `json:"totalHoras"`
		}{h, s.TotalHours()})
	}
	if err := a.printHelpers([]model.Helper{h}); err != nil {
		return err
	}
	fmt.Fprintln(a.out)
	return a.printAssignments(h.TareasAsignadas, s.TotalHours())
}

// openSession fetches fresh collections and opens an assignment session for
// helperID.
func (a *app) openSession(cmd *cobra.Command, helperID string) (*assign.Session, error) {
	tasks, err := a.svc.Tareas.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	if _, err := a.svc.Ayudantes.List(cmd.Context()); err != nil {
		return nil, err
	}
	h, err := a.svc.Ayudantes.Get(cmd.Context(), helperID)
	if err != nil {
		return nil, err
	}
	return assign.Open(h, tasks), nil
}
