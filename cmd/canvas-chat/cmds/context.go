package cmds

import (
	"encoding/json"
	"fmt"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/spf13/cobra"
)

func NewContextCommand() *cobra.Command {
	var (
		bf     boardFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the prompt context a node would send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := loadSettings()
			if err != nil {
				return err
			}
			store, err := openStore(bf.path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			boardID, err := resolveBoardID(ctx, store, bf.boardID)
			if err != nil {
				return err
			}
			svc, err := newService(store, s, bf.endpoints)
			if err != nil {
				return err
			}
			nc, err := svc.ResolveNodeContext(ctx, boardID, conversation.NodeID(bf.nodeID))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]interface{}{
					"node":     nc.Node.ID,
					"title":    nc.Node.Title(),
					"model":    nc.Model.ID,
					"messages": nc.Messages(),
					"stats":    nc.Stats,
				})
			}

			_, _ = fmt.Fprintf(w, "# %s (%s)\n\n", nc.Node.Title(), nc.Model.Name)
			for _, m := range nc.Messages() {
				_, _ = fmt.Fprintf(w, "[%s]: %s\n", m.Role, m.Content)
				if m.ImageURL != "" {
					_, _ = fmt.Fprintf(w, "  (image: %s)\n", m.ImageURL)
				}
			}
			_, _ = fmt.Fprintf(w, "\n%d upstream nodes, %d upstream messages, %d missing, %d without history, %d revisits\n",
				nc.Stats.Visited, nc.Stats.Messages, nc.Stats.MissingNodes, nc.Stats.NodesWithoutMessages, nc.Stats.Revisits)
			return nil
		},
	}
	bf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}
