package cmds

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/canvas-chat/pkg/chat"
	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/go-go-golems/canvas-chat/pkg/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func NewSendCommand() *cobra.Command {
	var (
		bf       boardFlags
		image    string
		render   bool
		printEvs bool
		newNode  bool
	)
	cmd := &cobra.Command{
		Use:   "send MESSAGE...",
		Short: "Send a message from a node and append the reply to its history",
		Args:  cobra.MinimumNArgs(1),
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

			nodeID := conversation.NodeID(bf.nodeID)
			if newNode {
				parent := nodeID
				nodeID = conversation.NodeID(uuid.NewString())
				err = store.AddNode(ctx, boardID,
					&conversation.Node{ID: nodeID, Data: conversation.NodeData{Model: s.DefaultModelID()}},
					&conversation.Edge{ID: uuid.NewString(), Source: parent, Target: nodeID},
				)
				if err != nil {
					return err
				}
				log.Info().Str("node", nodeID.String()).Str("parent", parent.String()).Msg("Created node")
			}

			var options []chat.ServiceOption
			var router *events.EventRouter
			if printEvs {
				router, err = events.NewEventRouter()
				if err != nil {
					return err
				}
				router.AddEventHandler("print", events.DispatchTopic, func(ev events.Event) error {
					printEvent(cmd.ErrOrStderr(), ev)
					return nil
				})
				options = append(options, chat.WithEventSinks(router.Sink(events.DispatchTopic)))
			}

			svc, err := newService(store, s, bf.endpoints, options...)
			if err != nil {
				return err
			}

			var res *chat.SendResult
			send := func() error {
				var err error
				res, err = svc.Send(ctx, boardID, nodeID, strings.Join(args, " "), image)
				return err
			}

			if router != nil {
				eg, egCtx := errgroup.WithContext(ctx)
				eg.Go(func() error { return router.Run(egCtx) })
				eg.Go(func() error {
					defer func() { _ = router.Close() }()
					<-router.Running()
					return send()
				})
				err = eg.Wait()
			} else {
				err = send()
			}
			if err != nil {
				return err
			}

			return printReply(cmd.OutOrStdout(), res, render)
		},
	}
	bf.register(cmd)
	cmd.Flags().StringVar(&image, "image", "", "Image URL or data URL to attach")
	cmd.Flags().BoolVar(&render, "render", false, "Render the reply as markdown")
	cmd.Flags().BoolVar(&printEvs, "events", false, "Print dispatch events to stderr")
	cmd.Flags().BoolVar(&newNode, "new-node", false, "Send from a new node branching off --node")
	return cmd
}

func printReply(w io.Writer, res *chat.SendResult, render bool) error {
	content := res.Reply.Content
	if render {
		out, err := glamour.Render(content, "dark")
		if err != nil {
			return err
		}
		content = out
	}
	if _, err := fmt.Fprintln(w, content); err != nil {
		return err
	}
	if line := res.Reply.Metrics.String(); line != "" {
		_, err := fmt.Fprintf(w, "\n%s · %s · node %s\n", res.Model.Name, line, res.Node)
		return err
	}
	return nil
}

func printEvent(w io.Writer, ev events.Event) {
	meta := ev.Metadata()
	switch e := ev.(type) {
	case *events.EventDispatchStarted:
		_, _ = fmt.Fprintf(w, "[%s] %s → %s (%d context messages)\n", e.Type(), meta.NodeID, meta.Model, e.ContextMessages)
	case *events.EventDispatchCompleted:
		_, _ = fmt.Fprintf(w, "[%s] %s %.2fs\n", e.Type(), meta.NodeID, e.TotalTime)
	case *events.EventDispatchFailed:
		_, _ = fmt.Fprintf(w, "[%s] %s %s\n", e.Type(), meta.NodeID, e.ErrorString)
	default:
		_, _ = fmt.Fprintf(w, "[%s] %s\n", ev.Type(), meta.NodeID)
	}
}
