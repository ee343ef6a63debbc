package cmds

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-go-golems/canvas-chat/pkg/board"
	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boardYAML = `current_board: main
boards:
  - id: main
    nodes:
      - id: root
        data:
          messages:
            - role: user
              content: What is a DAG?
            - role: assistant
              content: A directed acyclic graph.
      - id: child
        data:
          model: test-model
          messages: []
    edges:
      - source: root
        target: child
`

func setup(t *testing.T, serverURL string) (boardPath string) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()

	configPath := filepath.Join(dir, "config.yaml")
	config := "custom_models:\n" +
		"  - id: test-model\n" +
		"    name: Test Model\n" +
		"    provider: local\n" +
		"    endpoint: " + serverURL + "/v1\n"
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))
	viper.SetConfigFile(configPath)

	boardPath = filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(boardPath, []byte(boardYAML), 0o644))
	return boardPath
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSendCommandAppendsToBoardFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"It has no cycles."}}],
			"usage":{"prompt_tokens":12,"completion_tokens":4}}`))
	}))
	defer server.Close()
	boardPath := setup(t, server.URL)

	out, err := run(t, NewSendCommand(), "--board", boardPath, "--node", "child", "--events", "so", "what?")
	require.NoError(t, err)
	assert.Contains(t, out, "It has no cycles.")
	assert.Contains(t, out, "[dispatch-started] child")
	assert.Contains(t, out, "[dispatch-completed] child")

	store, err := board.NewYAMLFileStore(boardPath)
	require.NoError(t, err)
	snap, err := store.Snapshot(context.Background(), "main")
	require.NoError(t, err)
	child, _ := snap.Node("child")
	require.Len(t, child.Data.Messages, 2)
	assert.Equal(t, "so what?", child.Data.Messages[0].Content)
	assert.Equal(t, "It has no cycles.", child.Data.Messages[1].Content)
	assert.Equal(t, uint64(1), child.Version)
}

func TestSendCommandNewNode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"branch"}}]}`))
	}))
	defer server.Close()
	boardPath := setup(t, server.URL)

	// new nodes use the last selected model
	cfg := viper.ConfigFileUsed()
	f, err := os.OpenFile(cfg, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("last_selected_model: test-model\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = run(t, NewSendCommand(), "--board", boardPath, "--node", "root", "--new-node", "hello")
	require.NoError(t, err)

	store, err := board.NewYAMLFileStore(boardPath)
	require.NoError(t, err)
	snap, err := store.Snapshot(context.Background(), "main")
	require.NoError(t, err)
	require.Len(t, snap.Nodes, 3)
	require.Len(t, snap.Edges, 2)
	assert.Equal(t, conversation.NodeID("root"), snap.Edges[1].Source)
	assert.Equal(t, snap.Nodes[2].ID, snap.Edges[1].Target)
	assert.Len(t, snap.Nodes[2].Data.Messages, 2)
}

func TestSendCommandFailureKeepsBoard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	boardPath := setup(t, server.URL)
	before, err := os.ReadFile(boardPath)
	require.NoError(t, err)

	_, err = run(t, NewSendCommand(), "--board", boardPath, "--node", "child", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	after, err := os.ReadFile(boardPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestContextCommand(t *testing.T) {
	boardPath := setup(t, "http://127.0.0.1:1")

	out, err := run(t, NewContextCommand(), "--board", boardPath, "--node", "child")
	require.NoError(t, err)
	assert.Contains(t, out, "[user]: What is a DAG?")
	assert.Contains(t, out, "[assistant]: A directed acyclic graph.")
	assert.Contains(t, out, "1 upstream nodes, 2 upstream messages")
}

func TestTokensCommand(t *testing.T) {
	boardPath := setup(t, "http://127.0.0.1:1")

	out, err := run(t, NewTokensCommand(), "--board", boardPath, "--node", "child")
	require.NoError(t, err)
	assert.Contains(t, out, "Model: test-model")
	assert.Contains(t, out, "Codec: cl100k_base")
	assert.Contains(t, out, "Messages: 3")
	assert.Contains(t, out, "Context window: 8192")
}

func TestCountTokens(t *testing.T) {
	codec, _, err := getCodec("gpt-4")
	require.NoError(t, err)

	empty, err := countTokens(codec, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty)

	n, err := countTokens(codec, conversation.Conversation{
		conversation.NewChatMessage(conversation.RoleUser, "hello world"),
	})
	require.NoError(t, err)
	assert.Greater(t, n, 2)
}

func TestSelectModelCommandPersistsLastSelected(t *testing.T) {
	boardPath := setup(t, "http://127.0.0.1:1")

	out, err := run(t, NewSelectModelCommand(), "--board", boardPath, "--node", "root", "test-model")
	require.NoError(t, err)
	assert.Contains(t, out, "root now uses Test Model")

	s, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, "test-model", s.LastSelectedModel)
	require.Len(t, s.CustomModels, 1)
}

func TestBoardValidateCommand(t *testing.T) {
	boardPath := setup(t, "http://127.0.0.1:1")
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("boards:\n  - name: no id\n"), 0o644))

	out, err := run(t, NewBoardCommand(), "validate", boardPath)
	require.NoError(t, err)
	assert.Contains(t, out, "ok (1 boards, 2 nodes)")

	out, err = run(t, NewBoardCommand(), "validate", boardPath, bad)
	require.Error(t, err)
	assert.Contains(t, out, "bad.yaml: validation error")
}

func TestBoardSchemaCommand(t *testing.T) {
	out, err := run(t, NewBoardCommand(), "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"$schema": "http://json-schema.org/draft-07/schema#"`)
}

func TestOpenStorePicksBackendByExtension(t *testing.T) {
	dir := t.TempDir()

	s, err := openStore(filepath.Join(dir, "boards.db"))
	require.NoError(t, err)
	_, ok := s.(*board.SQLiteStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	s, err = openStore(filepath.Join(dir, "boards.yaml"))
	require.NoError(t, err)
	_, ok = s.(*board.YAMLFileStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	_, err = openStore("")
	assert.Error(t, err)
}
