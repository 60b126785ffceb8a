// Package cli is the command line front end: task and helper management,
// assignment editing and the agenda export.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/sonrisas/pkg/auth"
	"github.com/harrisonrobin/sonrisas/pkg/config"
	"github.com/harrisonrobin/sonrisas/pkg/logging"
	"github.com/harrisonrobin/sonrisas/pkg/records"
)

// app carries what every command needs once flags are parsed.
type app struct {
	in          io.Reader
	out, errOut io.Writer

	cfgPath  string
	jsonOut  bool
	logLevel string

	cfg *config.Config
	log *logrus.Logger
	svc *records.Services
}

// NewRootCmd builds the command tree reading from in and writing to out and
// errOut.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "sonrisas",
		Short: "Sonrisas - tasks and helpers of the literacy program",
		Long: `Sonrisas manages the tasks and helpers stored in the program's Record Store
and the assignment of tasks to helpers.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ~/.config/sonrisas/config.yaml)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of tables")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		a.tareasCmd(),
		a.ayudantesCmd(),
		a.asignarCmd(),
		a.agendaCmd(),
		a.authCmd(),
		a.configCmd(),
		a.mockServerCmd(),
	)
	return root
}

// Execute runs the command line and prints failures for the user.
func Execute(version string) error {
	root := NewRootCmd(os.Stdin, os.Stdout, os.Stderr)
	root.Version = version
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		return err
	}
	return nil
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log, err := logging.New(cfg.Log, a.errOut)
	if err != nil {
		return err
	}

	a.cfg, a.log = cfg, log
	a.svc = records.NewServices(cfg.API,
		records.WithHTTPClient(auth.RecordStoreClient(cmd.Context(), cfg.API)),
		records.WithLogger(log),
		records.WithBreaker(cfg.Breaker),
	)
	return nil
}
