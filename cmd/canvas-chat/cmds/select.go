package cmds

import (
	"fmt"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewSelectModelCommand() *cobra.Command {
	var bf boardFlags
	cmd := &cobra.Command{
		Use:   "select-model MODEL",
		Short: "Set a node's model and remember it for new nodes",
		Args:  cobra.ExactArgs(1),
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
			m, err := svc.SelectModel(ctx, boardID, conversation.NodeID(bf.nodeID), args[0])
			if err != nil {
				return err
			}

			if path := viper.ConfigFileUsed(); path != "" {
				if err := s.SaveToFile(path); err != nil {
					return err
				}
			} else {
				log.Debug().Msg("No config file, last selected model not persisted")
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s now uses %s (%s)\n", bf.nodeID, m.Name, m.ID)
			return nil
		},
	}
	bf.register(cmd)
	return cmd
}
