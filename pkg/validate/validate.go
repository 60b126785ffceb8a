// Package validate checks task and helper form fields one at a time. Checks
// return a Code; rendering the code for people is a separate step.
package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/harrisonrobin/sonrisas/pkg/model"
	"github.com/harrisonrobin/sonrisas/pkg/records"
)

var (
	reIdent   = regexp.MustCompile(`^\d{8,10}$`)
	reName    = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	reEmail   = regexp.MustCompile(`.+@.+\..+`)
	reAddress = regexp.MustCompile(`^[a-zA-Z0-9#\-\s]+$`)
)

var checker = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	for tag, re := range map[string]*regexp.Regexp{
		"identificacion": reIdent,
		"nombre":         reName,
		"correo":         reEmail,
		"direccion":      reAddress,
	} {
		re := re
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}
	return v
}

// rule is one validator tag and the code reported when it fails. conv, when
// set, transforms the raw value before the tag runs.
type rule struct {
	tag  string
	code Code
	conv func(string) any
}

// Rules run in order and stop at the first failure, so "required" always
// short-circuits the rest.
var rules = map[string][]rule{
	"identificacion":    {{tag: "required", code: Required}, {tag: "identificacion", code: IdentFormat}},
	"nombre":            {{tag: "required", code: Required}, {tag: "nombre", code: NameFormat}},
	"telefono":          {{tag: "required", code: Required}, {tag: "len=10", code: PhoneLength}},
	"correoElectronico": {{tag: "omitempty,correo", code: EmailFormat}},
	"direccion":         {{tag: "required", code: Required}, {tag: "min=5", code: AddressLength}, {tag: "direccion", code: AddressFormat}},
	"institucion":       {{tag: "required", code: Required}, {tag: "min=5", code: InstitutionLength}},
	"tipoDocumento":     {{tag: "omitempty,oneof=C.C T.I", code: DocumentType}},
	"rol":               {{tag: "omitempty,oneof=alfabetizador voluntario", code: Role}},
	"accion":            {{tag: "required", code: Required}},
	"cantidadHoras": {
		{tag: "required", code: Required},
		{tag: "numeric", code: HoursNotNumber},
		{tag: "gte=1", code: HoursTooLow, conv: hours},
		{tag: "lte=12", code: HoursTooHigh, conv: hours},
	},
}

// HelperFields and TaskFields list the form fields in display order.
var (
	HelperFields = []string{"tipoDocumento", "identificacion", "nombre", "telefono", "rol", "direccion", "correoElectronico", "institucion"}
	TaskFields   = []string{"nombre", "accion", "cantidadHoras"}
)

// Context is what a check may consult beyond the value itself.
type Context struct {
	// Ayudantes is the current helper collection, for the uniqueness check.
	Ayudantes []model.Helper
	// SelfID is the helper being edited; it never conflicts with itself.
	SelfID string
}

// Field checks a single form field. Unknown fields are always valid.
func Field(name, value string, ctx Context) Code {
	for _, r := range rules[name] {
		var val any = value
		if r.conv != nil {
			val = r.conv(value)
		}
		if err := checker.Var(val, r.tag); err != nil {
			return r.code
		}
	}
	if name == "identificacion" && duplicate(value, ctx) {
		return Duplicate
	}
	return OK
}

// Message checks a single field and renders the result; valid is "".
func Message(name, value string, ctx Context) string {
	return Field(name, value, ctx).Message()
}

func duplicate(ident string, ctx Context) bool {
	ident = strings.TrimSpace(ident)
	for _, h := range ctx.Ayudantes {
		if ctx.SelfID != "" && h.ID == ctx.SelfID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(h.Identificacion), ident) {
			return true
		}
	}
	return false
}

// hours mirrors how the form reads a number: the integer part of the value.
func hours(value string) any {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return int(math.Trunc(f))
}

// Errors maps field names to the failures found at submit time.
type Errors map[string]Code

// Form checks every listed field, not just those the user touched, and
// collects all failures.
func Form(fields []string, values map[string]string, ctx Context) Errors {
	errs := Errors{}
	for _, name := range fields {
		if code := Field(name, values[name], ctx); code != OK {
			errs[name] = code
		}
	}
	return errs
}

func Helper(h model.Helper, ctx Context) Errors {
	if ctx.SelfID == "" {
		ctx.SelfID = h.ID
	}
	return Form(HelperFields, HelperValues(h), ctx)
}

func Task(t model.Task) Errors {
	return Form(TaskFields, TaskValues(t), Context{})
}

// HelperValues flattens a helper into form values.
func HelperValues(h model.Helper) map[string]string {
	return map[string]string{
		"tipoDocumento":     string(h.TipoDocumento),
		"identificacion":    h.Identificacion,
		"nombre":            h.Nombre,
		"telefono":          h.Telefono,
		"rol":               string(h.Rol),
		"direccion":         h.Direccion,
		"correoElectronico": h.CorreoElectronico,
		"institucion":       h.Institucion,
	}
}

// TaskValues flattens a task into form values. Zero hours reads as an empty
// field.
func TaskValues(t model.Task) map[string]string {
	h := ""
	if t.CantidadHoras != 0 {
		h = strconv.Itoa(t.CantidadHoras)
	}
	return map[string]string{
		"nombre":        t.Nombre,
		"accion":        t.Accion,
		"cantidadHoras": h,
	}
}

// Messages renders every failure.
func (e Errors) Messages() map[string]string {
	out := make(map[string]string, len(e))
	for k, c := range e {
		out[k] = c.Message()
	}
	return out
}

// Err returns a validation error for resource, or nil when nothing failed.
func (e Errors) Err(resource string) error {
	if len(e) == 0 {
		return nil
	}
	return records.Invalid(resource, e.Messages())
}
