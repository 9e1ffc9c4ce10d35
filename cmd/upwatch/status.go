package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petra-dev/upwatch/internal/config"
	"github.com/petra-dev/upwatch/internal/registry"
	"github.com/petra-dev/upwatch/internal/storage"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the registered services and their last known status",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Storage.Path == "" {
		return fmt.Errorf("status requires storage.path to be configured")
	}

	db, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	return executeStatus(cmd.OutOrStdout(), db)
}

func executeStatus(out io.Writer, store registry.Store) error {
	services, err := store.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing services: %w", err)
	}

	if len(services) == 0 {
		fmt.Fprintln(out, "No services registered. Run 'upwatch serve' and add services, or seed them in the config file.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tMODE\tURL\tSTATUS\tLAST CHECKED")
	for _, svc := range services {
		checked := "never"
		if svc.LastChecked != nil {
			checked = svc.LastChecked.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			svc.Name,
			svc.Mode,
			svc.URL,
			svc.Status,
			checked,
		)
	}
	w.Flush()
	return nil
}
