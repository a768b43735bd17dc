package mcpserver

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withLimits swaps the pagination limits for the duration of the test.
func withLimits(t *testing.T, resultLimit, maxLimit int) {
	t.Helper()
	prev := cfg
	c := *prev
	c.ResultLimit, c.MaxLimit = resultLimit, maxLimit
	cfg = &c
	t.Cleanup(func() { cfg = prev })
}

func TestPaginate(t *testing.T) {
	withLimits(t, 3, 4)
	paths := []string{"/a", "/b", "/c", "/d", "/e"}

	tests := []struct {
		name          string
		offset, limit int
		want          []string
	}{
		{"default limit", 0, 0, []string{"/a", "/b", "/c"}},
		{"negative limit uses default", 0, -5, []string{"/a", "/b", "/c"}},
		{"explicit limit", 0, 2, []string{"/a", "/b"}},
		{"offset and limit", 1, 2, []string{"/b", "/c"}},
		{"limit capped at max", 0, 50, []string{"/a", "/b", "/c", "/d"}},
		{"limit past the end", 3, 4, []string{"/d", "/e"}},
		{"overflowing limit", 2, math.MaxInt, []string{"/c", "/d", "/e"}},
		{"offset at end", 5, 1, nil},
		{"negative offset", -1, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paginate(paths, tt.offset, tt.limit))
		})
	}

	assert.Nil(t, paginate([]string(nil), 0, 1))
}

func TestMakeSlice(t *testing.T) {
	assert.Nil(t, makeSlice[string](0))
	s := makeSlice[string](3)
	assert.NotNil(t, s)
	assert.Empty(t, s)
	assert.Equal(t, 3, cap(s))
}

func TestSanitizeError(t *testing.T) {
	assert.Empty(t, sanitizeError(nil))
	assert.Equal(t, `schema load error: <path>: no such file`,
		sanitizeError(errors.New("schema load error: /srv/schemas/participant.json: no such file")))
	assert.Equal(t, "merging <path> into <path>",
		sanitizeError(errors.New("merging /tmp/patch.yaml into /home/dm/trial.json")))
	assert.Equal(t, "pointer /properties/nope not found in clinical_trial.json",
		sanitizeError(errors.New("pointer /properties/nope not found in clinical_trial.json")))
}

func TestErrResult(t *testing.T) {
	result := errResult(errors.New("loading /var/lib/trials/base.json failed"))
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "loading <path> failed", text.Text)
}

// startTestSession connects an in-process client to a server with every
// tool registered. The server stops when the test ends.
func startTestSession(t *testing.T) *mcp.ClientSession {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{Name: "ctschema-test", Version: "test"}, nil)
	registerAllTools(server)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx, serverTransport) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		<-done
		require.NoError(t, err)
	}
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})
	return session
}

func TestServer_ListTools(t *testing.T) {
	session := startTestSession(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"validate", "merge", "locate", "resolve_path", "resolve_schema"}, names)
}

func TestServer_CallLocate(t *testing.T) {
	session := startTestSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "locate",
		Arguments: map[string]any{
			"document": map[string]any{"content": trialJSON},
			"value":    "CTTTPP1S1.00",
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	assert.JSONEq(t, `{
  "count": 1,
  "returned": 1,
  "paths": ["root['participants'][0]['samples'][0]['cimac_id']"]
}`, string(data))
}
