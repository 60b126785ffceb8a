package records

import (
	"github.com/harrisonrobin/sonrisas/pkg/config"
	"github.com/harrisonrobin/sonrisas/pkg/model"
)

const (
	ResourceTareas    = "tareas"
	ResourceAyudantes = "ayudantes"
)

// Services bundles the two resource clients. It is built once at startup and
// handed to whatever needs it.
type Services struct {
	Tareas    *Client[model.Task]
	Ayudantes *Client[model.Helper]
}

func NewServices(api config.API, opts ...Option) *Services {
	return &Services{
		Tareas:    NewClient[model.Task](ResourceTareas, api.TareasURL, opts...),
		Ayudantes: NewClient[model.Helper](ResourceAyudantes, api.AyudantesURL, opts...),
	}
}
