package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/at-fk/finalproject/services"
	"github.com/at-fk/finalproject/services/answer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func TestCommandFlags(t *testing.T) {
	app := newApp(&bytes.Buffer{})

	find := func(name string) *cli.Command {
		for _, cmd := range app.Commands {
			if cmd.Name == name {
				return cmd
			}
		}
		return nil
	}

	for _, name := range []string{"search", "ask", "structure", "article", "embed"} {
		assert.NotNil(t, find(name), "command %s", name)
	}

	t.Run("ask requires a regulation", func(t *testing.T) {
		err := newApp(&bytes.Buffer{}).Run([]string{"lexctl", "ask", "what applies?"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "regulation")
	})

	t.Run("search defaults to keyword", func(t *testing.T) {
		for _, flag := range find("search").Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "type" {
				assert.Equal(t, "keyword", f.Value)
				return
			}
		}
		t.Fatal("type flag not found")
	})
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"invalid log level", []string{"lexctl", "--log-level", "loud", "embed", "x"}, "invalid log level"},
		{"ask without question", []string{"lexctl", "ask", "--regulation", "r1"}, "a question is required"},
		{"unsupported search type", []string{"lexctl", "search", "--type", "fuzzy", "data"}, "unsupported search type"},
		{"malformed regulation id", []string{"lexctl", "structure", "not-a-uuid"}, "invalid regulation id"},
		{"malformed article id", []string{"lexctl", "article", "not-a-uuid"}, "Invalid article ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newApp(&bytes.Buffer{}).Run(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestEmbedCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,-0.25]}]}`))
	}))
	defer server.Close()

	os.Clearenv()
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("EMBEDDING_API_URL", server.URL)

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"lexctl", "embed", "right", "to", "erasure"})
	require.NoError(t, err)

	var body map[string][]float32
	require.NoError(t, json.Unmarshal(out.Bytes(), &body))
	assert.Equal(t, []float32{0.5, -0.25}, body["embedding"])
}

func TestEmbedCommand_EmptyText(t *testing.T) {
	os.Clearenv()
	t.Setenv("ENVIRONMENT", "test")

	err := newApp(&bytes.Buffer{}).Run([]string{"lexctl", "embed"})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrEmptyEmbeddingText)
}

func TestPrintAnswer(t *testing.T) {
	stream := func(events ...answer.Event) <-chan answer.Event {
		ch := make(chan answer.Event, len(events))
		for _, ev := range events {
			ch <- ev
		}
		close(ch)
		return ch
	}

	t.Run("writes content until done", func(t *testing.T) {
		var out bytes.Buffer
		rt := &runtime{out: &out, logger: zap.NewNop()}

		err := rt.printAnswer(stream(
			answer.Event{Type: answer.EventContext, Content: "【Context 1】"},
			answer.Event{Type: answer.EventContent, Content: "Article 17 "},
			answer.Event{Type: answer.EventContent, Content: "applies."},
			answer.Event{Type: answer.EventDone},
		))

		require.NoError(t, err)
		assert.Equal(t, "Article 17 applies.\n", out.String())
	})

	t.Run("returns the stream error", func(t *testing.T) {
		rt := &runtime{out: &bytes.Buffer{}, logger: zap.NewNop()}

		err := rt.printAnswer(stream(
			answer.Event{Type: answer.EventContent, Content: "partial"},
			answer.Event{Type: answer.EventError, Err: services.ErrProviderUnavailable},
		))

		assert.ErrorIs(t, err, services.ErrProviderUnavailable)
	})
}
