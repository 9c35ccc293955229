package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())

	log.Debug().Msg("hidden")
	log.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DefaultLevel, ParseLevel(""))
	assert.Equal(t, DefaultLevel, ParseLevel("loud"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
}

func TestWithRunID(t *testing.T) {
	var buf bytes.Buffer
	log, id := WithRunID(NewWithWriter(&buf))

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	log.Warn().Msg("tagged")
	assert.Contains(t, buf.String(), `"run_id":"`+id+`"`)
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithContext(context.Background(), NewWithWriter(&buf))

	log := FromContext(ctx)
	log.Info().Msg("test")
	assert.Contains(t, buf.String(), "test")
}

func TestFromContext_Default(t *testing.T) {
	log := FromContext(context.Background())
	assert.Equal(t, DefaultLevel, log.GetLevel())
}
