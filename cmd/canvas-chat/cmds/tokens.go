package cmds

import (
	"fmt"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tiktoken-go/tokenizer"
)

// getCodec returns the tokenizer of a model, falling back to cl100k_base for
// models tiktoken does not know.
func getCodec(model string) (tokenizer.Codec, string, error) {
	if c, err := tokenizer.ForModel(tokenizer.Model(model)); err == nil {
		return c, model, nil
	}
	log.Debug().Str("model", model).Msg("No tokenizer for model, using cl100k_base")
	c, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, "", err
	}
	return c, string(tokenizer.Cl100kBase), nil
}

// countTokens estimates the prompt size of a conversation. Role prefixes are
// counted, per-message framing overhead is not.
func countTokens(codec tokenizer.Codec, msgs conversation.Conversation) (int, error) {
	total := 0
	for _, m := range msgs {
		ids, _, err := codec.Encode(string(m.Role) + ": " + m.Content)
		if err != nil {
			return 0, err
		}
		total += len(ids)
	}
	return total, nil
}

func NewTokensCommand() *cobra.Command {
	var (
		bf    boardFlags
		extra string
	)
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Estimate the token count of a node's context against its model limit",
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

			msgs := nc.Messages()
			if sp := s.Generation.SystemPrompt; sp != "" {
				msgs = conversation.Concat(
					conversation.Conversation{conversation.NewChatMessage(conversation.RoleSystem, sp)},
					msgs,
				)
			}
			if extra != "" {
				msgs = append(msgs, conversation.NewChatMessage(conversation.RoleUser, extra))
			}

			codec, codecName, err := getCodec(nc.Model.ID)
			if err != nil {
				return err
			}
			count, err := countTokens(codec, msgs)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "Model: %s\n", nc.Model.ID)
			_, _ = fmt.Fprintf(w, "Codec: %s\n", codecName)
			_, _ = fmt.Fprintf(w, "Messages: %d\n", len(msgs))
			_, _ = fmt.Fprintf(w, "Total tokens: %d\n", count)
			if nc.Model.MaxTokens > 0 {
				_, _ = fmt.Fprintf(w, "Context window: %d (%.1f%% used)\n",
					nc.Model.MaxTokens, 100*float64(count)/float64(nc.Model.MaxTokens))
				if count > nc.Model.MaxTokens {
					log.Warn().Int("tokens", count).Int("max", nc.Model.MaxTokens).Msg("Context exceeds the model's window")
				}
			}
			return nil
		},
	}
	bf.register(cmd)
	cmd.Flags().StringVar(&extra, "message", "", "Message to count on top of the context")
	return cmd
}
