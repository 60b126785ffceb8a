package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/sonrisas/pkg/config"
)

func (a *app) configPath() (string, error) {
	if a.cfgPath != "" {
		return a.cfgPath, nil
	}
	return config.DefaultPath()
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = a.out.Write(data)
			return err
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, p)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a key in the configuration file, e.g. api.token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.configPath()
			if err != nil {
				return err
			}
			if err := config.Set(a.cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(a.cfg, p); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Fprintf(a.out, "%s = %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(show, path, set)
	return cmd
}
