package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestJSON(t *testing.T) {
	assert.Empty(t, DigestJSON(nil))
	assert.Len(t, DigestJSON([]byte(`{"removed":1}`)), 64)
	assert.Equal(t, DigestJSON([]byte(`{}`)), DigestJSON([]byte(`{}`)))
}

func TestSlogLoggerFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := logger.Log(context.Background(), Entry{
		Actor:    "user-1",
		Role:     "admin",
		Action:   "response_cache.flush",
		Metadata: json.RawMessage(`{"removed":3}`),
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "response_cache.flush", line["action"])
	assert.True(t, strings.HasPrefix(line["id"].(string), "audit-"))
	assert.Len(t, line["payload_digest"], 64)
}

func TestNilRepository(t *testing.T) {
	assert.Nil(t, NewRepository(nil))
	var repo *Repository
	assert.Error(t, repo.Log(context.Background(), Entry{}))
}
