package validate

// Code identifies why a field was rejected. OK means the value is valid.
type Code string

const (
	OK                Code = ""
	Required          Code = "required"
	IdentFormat       Code = "identificacion.format"
	Duplicate         Code = "identificacion.duplicate"
	NameFormat        Code = "nombre.format"
	PhoneLength       Code = "telefono.length"
	EmailFormat       Code = "correoElectronico.format"
	AddressLength     Code = "direccion.length"
	AddressFormat     Code = "direccion.format"
	InstitutionLength Code = "institucion.length"
	DocumentType      Code = "tipoDocumento.oneof"
	Role              Code = "rol.oneof"
	HoursNotNumber    Code = "cantidadHoras.number"
	HoursTooLow       Code = "cantidadHoras.min"
	HoursTooHigh      Code = "cantidadHoras.max"
)

var messages = map[Code]string{
	Required:          "Este campo es obligatorio",
	IdentFormat:       "El documento debe contener entre 8 y 10 dígitos",
	Duplicate:         "El ayudante ya existe.",
	NameFormat:        "El nombre solo debe contener letras y espacios",
	PhoneLength:       "El teléfono debe tener 10 dígitos",
	EmailFormat:       "Ingrese un correo electrónico válido",
	AddressLength:     "La dirección debe tener al menos 5 caracteres",
	AddressFormat:     "La dirección solo puede contener letras, números, #, - y espacios",
	InstitutionLength: "La institución debe tener al menos 5 caracteres",
	DocumentType:      "El tipo de documento debe ser C.C o T.I",
	Role:              "El rol debe ser alfabetizador o voluntario",
	HoursNotNumber:    "La cantidad de horas debe ser un número",
	HoursTooLow:       "La cantidad de horas debe ser al menos 1",
	HoursTooHigh:      "La cantidad de horas no debe ser más de 12",
}

// Message renders the code for display. OK renders as the empty string.
func (c Code) Message() string {
	if c == OK {
		return ""
	}
	if m, ok := messages[c]; ok {
		return m
	}
	return string(c)
}
