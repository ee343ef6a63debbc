package cmds

import (
	"fmt"
	"time"

	"github.com/go-go-golems/canvas-chat/pkg/models"
	"github.com/go-go-golems/canvas-chat/pkg/models/discovery"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewModelsCommand() *cobra.Command {
	var (
		timeout time.Duration
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "models [ENDPOINT...]",
		Short: "List configured models and the models served by local endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			if all || len(args) == 0 {
				s, err := loadSettings()
				if err != nil {
					return err
				}
				catalog, err := s.Catalog()
				if err != nil {
					return err
				}
				for _, m := range catalog.Models() {
					printModel(cmd, m, !m.RequiresAuth || m.Credential(s.Credentials) != "")
				}
			}

			svc := discovery.NewService(nil, discovery.WithTimeout(timeout))
			results := make([][]*models.Model, len(args))
			eg, egCtx := errgroup.WithContext(ctx)
			for i, endpoint := range args {
				i, endpoint := i, endpoint
				eg.Go(func() error {
					results[i] = svc.ListModels(egCtx, endpoint)
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			for i, endpoint := range args {
				if len(results[i]) == 0 {
					_, _ = fmt.Fprintf(w, "%s: no models (endpoint unavailable or not OpenAI-compatible)\n", endpoint)
					continue
				}
				for _, m := range results[i] {
					printModel(cmd, m, true)
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", discovery.DefaultTimeout, "Probe timeout per endpoint")
	cmd.Flags().BoolVar(&all, "all", false, "Also list configured models when endpoints are given")
	return cmd
}

func printModel(cmd *cobra.Command, m *models.Model, usable bool) {
	marker := " "
	if !usable {
		marker = "!"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %-45s %-11s %8d  %s\n", marker, m.ID, m.Provider, m.MaxTokens, m.Name)
}
