package board

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Shape(t *testing.T) {
	s := Schema()
	assert.Equal(t, "http://json-schema.org/draft-07/schema#", s.Version)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"current_board"`)
	assert.Contains(t, string(b), `"boards"`)
	assert.NotContains(t, string(b), `"$ref"`)
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "valid yaml",
			doc: `boards:
  - id: main
    nodes:
      - id: a
        data:
          messages:
            - role: user
              content: hi
    edges: []
`,
		},
		{
			name: "valid json",
			doc:  `{"boards":[{"id":"main","nodes":[{"id":"a","data":{}}],"edges":[{"source":"a","target":"b"}]}]}`,
		},
		{
			name:    "missing board id",
			doc:     "boards:\n  - name: nameless\n",
			wantErr: true,
		},
		{
			name:    "empty board id",
			doc:     "boards:\n  - id: ''\n",
			wantErr: true,
		},
		{
			name:    "edge without target",
			doc:     "boards:\n  - id: main\n    edges:\n      - source: a\n",
			wantErr: true,
		},
		{
			name:    "unknown role",
			doc:     "boards:\n  - id: main\n    nodes:\n      - id: a\n        data:\n          messages:\n            - role: robot\n              content: x\n",
			wantErr: true,
		},
		{
			name:    "duplicate node ids",
			doc:     "boards:\n  - id: main\n    nodes:\n      - id: a\n      - id: a\n",
			wantErr: true,
		},
		{
			name:    "empty document",
			doc:     "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ValidateDocument([]byte(tt.doc))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.Len(t, doc.Boards, 1)
			assert.Equal(t, "main", doc.Boards[0].ID)
		})
	}
}
