package cmds

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/go-go-golems/canvas-chat/pkg/board"
	"github.com/go-go-golems/canvas-chat/pkg/chat"
	"github.com/go-go-golems/canvas-chat/pkg/dispatch"
	"github.com/go-go-golems/canvas-chat/pkg/models"
	"github.com/go-go-golems/canvas-chat/pkg/models/discovery"
	"github.com/go-go-golems/canvas-chat/pkg/retrieval"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// loadSettings reads the config file found by viper, then overlays the
// provider keys given as flags or CANVAS_CHAT_<PROVIDER>_API_KEY.
func loadSettings() (*settings.AppSettings, error) {
	s := settings.NewAppSettings()
	if path := viper.ConfigFileUsed(); path != "" {
		loaded, err := settings.LoadAppSettingsFromFile(path)
		if err != nil {
			return nil, err
		}
		s = loaded
	}
	for _, p := range models.AllProviders() {
		if key := viper.GetString(p.String() + "-api-key"); key != "" {
			s.SetAPIKey(p, key)
		}
	}
	return s, nil
}

// openStore opens a SQLite store for .db/.sqlite files and a YAML store otherwise.
func openStore(path string) (board.Store, error) {
	if path == "" {
		return nil, errors.New("--board is required")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		dsn, err := board.SQLiteDSNForFile(path)
		if err != nil {
			return nil, err
		}
		return board.NewSQLiteStore(dsn)
	default:
		return board.NewYAMLFileStore(path)
	}
}

func resolveBoardID(ctx context.Context, store board.Store, boardID string) (string, error) {
	if boardID != "" {
		return boardID, nil
	}
	return store.CurrentBoard(ctx)
}

func newAdapter(s *settings.AppSettings) (*dispatch.Adapter, error) {
	options := []dispatch.AdapterOption{
		dispatch.WithHTTPClient(s.Client.Client()),
	}
	if s.Retrieval.Enabled && s.Retrieval.ChunksFile != "" {
		var ropts []retrieval.StaticRetrieverOption
		if s.Retrieval.MaxChunks > 0 {
			ropts = append(ropts, retrieval.WithMaxChunks(s.Retrieval.MaxChunks))
		}
		r, err := retrieval.LoadStaticRetriever(s.Retrieval.ChunksFile, ropts...)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", s.Retrieval.ChunksFile).Msg("Loaded retrieval chunks")
		options = append(options, dispatch.WithRetriever(r))
	}
	return dispatch.NewAdapter(options...), nil
}

func newService(store board.Store, s *settings.AppSettings, endpoints []string, options ...chat.ServiceOption) (*chat.Service, error) {
	adapter, err := newAdapter(s)
	if err != nil {
		return nil, err
	}
	if len(endpoints) > 0 {
		options = append(options, chat.WithDiscovery(discovery.NewService(nil), endpoints...))
	}
	return chat.NewService(store, adapter, s, options...), nil
}

type boardFlags struct {
	path      string
	boardID   string
	nodeID    string
	endpoints []string
}

func (f *boardFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.path, "board", "", "Board file (.yaml, or .db for SQLite)")
	cmd.Flags().StringVar(&f.boardID, "board-id", "", "Board id (default: the current board)")
	cmd.Flags().StringVar(&f.nodeID, "node", "", "Node id")
	cmd.Flags().StringSliceVar(&f.endpoints, "local-endpoint", nil, "OpenAI-compatible endpoints whose models can be used by id")
	_ = cmd.MarkFlagRequired("board")
	_ = cmd.MarkFlagRequired("node")
}
