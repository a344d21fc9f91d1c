package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "json")

	logger.Info().Int("line", 3).Msg("parsed")
	logger.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, `"line":3`)
	assert.Contains(t, out, `"message":"parsed"`)
	assert.NotContains(t, out, "hidden")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), New(&buf, "info", "json"))

	FromContext(ctx).Warn().Msg("from context")
	assert.Contains(t, buf.String(), "from context")

	// Missing logger falls back to Nop
	FromContext(context.Background()).Error().Msg("dropped")
}
