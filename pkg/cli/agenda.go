package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/sonrisas/pkg/agenda"
	"github.com/harrisonrobin/sonrisas/pkg/index"
)

func (a *app) agendaCmd() *cobra.Command {
	var start, calendarName string
	cmd := &cobra.Command{
		Use:   "agenda <helperID>",
		Short: "Export a helper's assignments to Google Calendar",
		Long: `Lays the helper's unfinished assignments out as consecutive blocks from
--start and creates, updates or deletes the matching Google Calendar events.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if calendarName == "" {
				calendarName = a.cfg.Agenda.Calendar
			}
			if start == "" {
				start = time.Now().Format("2006-01-02")
			}
			from, err := agenda.ParseStart(start, a.cfg.Agenda.WorkdayStart, time.Local)
			if err != nil {
				return err
			}

			s, err := a.openSession(cmd, args[0])
			if err != nil {
				return err
			}
			h := s.Helper()
			h.TareasAsignadas = s.Assigned()

			g, err := a.google()
			if err != nil {
				return err
			}
			srv, err := g.CalendarService(cmd.Context())
			if err != nil {
				return err
			}
			calendarID, err := agenda.FindCalendar(cmd.Context(), srv, calendarName)
			if err != nil {
				return err
			}

			path, err := index.DefaultPath()
			if err != nil {
				return err
			}
			idx, err := index.Open(path)
			if err != nil {
				a.log.WithError(err).Warn("failed to load event index, searching the calendar instead")
				idx = nil
			}

			res, err := agenda.NewSyncer(srv, calendarID, idx, a.log).Sync(cmd.Context(), h, from)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Agenda de %s en %q: %d creados, %d actualizados, %d sin cambios, %d eliminados\n",
				h.Nombre, calendarName, res.Created, res.Updated, res.Unchanged, res.Deleted)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first block start, YYYY-MM-DD or RFC3339 (default today)")
	cmd.Flags().StringVar(&calendarName, "calendar", "", "calendar name (overrides agenda.calendar)")
	return cmd
}
