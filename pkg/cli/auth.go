package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/sonrisas/pkg/auth"
	"github.com/harrisonrobin/sonrisas/pkg/config"
)

func (a *app) google() (*auth.Google, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, fmt.Errorf("could not find path to configuration directory: %w", err)
	}
	return &auth.Google{Dir: dir, Log: a.log, Out: a.out}, nil
}

func (a *app) authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Long: `Discards any stored Google token and runs the browser authorization flow.
The client secrets are read from credentials.json in the configuration directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.google()
			if err != nil {
				return err
			}
			if err := g.Login(cmd.Context()); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintf(a.out, "Autenticación exitosa, token guardado en %s\n", g.Dir)
			return nil
		},
	}
}
