package cmds

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-go-golems/canvas-chat/pkg/board"
	"github.com/spf13/cobra"
)

func NewBoardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Inspect and validate board files",
	}
	cmd.AddCommand(newBoardSchemaCommand(), newBoardValidateCommand(), newBoardListCommand())
	return cmd
}

func newBoardSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of board files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := json.MarshalIndent(board.Schema(), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

func newBoardValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate YAML or JSON board files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				b, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				doc, err := board.ValidateDocument(b)
				if err != nil {
					failed++
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
					continue
				}
				nodes := 0
				for _, bd := range doc.Boards {
					nodes += len(bd.Nodes)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d boards, %d nodes)\n", path, len(doc.Boards), nodes)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files are invalid", failed, len(args))
			}
			return nil
		},
	}
}

func newBoardListCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the boards and nodes of a board file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStore(path)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			current, _ := store.CurrentBoard(ctx)
			boards, err := store.ListBoards(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, b := range boards {
				marker := " "
				if b.ID == current {
					marker = "*"
				}
				_, _ = fmt.Fprintf(w, "%s %s %s\n", marker, b.ID, b.Name)
				for _, n := range b.Nodes {
					_, _ = fmt.Fprintf(w, "    %-38s %-24s %3d messages  %s\n", n.ID, n.Data.Model, len(n.Data.Messages), n.Title())
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "board", "", "Board file (.yaml, or .db for SQLite)")
	_ = cmd.MarkFlagRequired("board")
	return cmd
}
