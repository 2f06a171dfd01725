// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	require := require.New(t)

	cfg, err := ConfigFromEnv()
	require.NoError(err)
	require.Equal("info", cfg.Level)

	t.Setenv("LINK_LOG_LEVEL", "debug")
	t.Setenv("LINK_LOG_NOCOLOR", "true")
	t.Setenv("LINK_LOG_JSON", "1")
	cfg, err = ConfigFromEnv()
	require.NoError(err)
	require.Equal(Config{Level: "debug", NoColor: true, JSON: true}, cfg)

	t.Setenv("LINK_LOG_JSON", "maybe")
	_, err = ConfigFromEnv()
	require.Error(err)
}

func TestNewJSON(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	logger, err := New("linkgen", &buf, Config{Level: "warn", JSON: true})
	require.NoError(err)

	logger.Info().Msg("dropped")
	require.Zero(buf.Len())

	logger.Warn().Str("file", "todo.link.toml").Msg("kept")
	var line map[string]any
	require.NoError(json.Unmarshal(buf.Bytes(), &line))
	require.Equal("linkgen", line["app"])
	require.Equal("warn", line["level"])
	require.Equal("todo.link.toml", line["file"])
	require.Equal("kept", line["message"])
}

func TestNewConsole(t *testing.T) {
	require := require.New(t)

	var buf bytes.Buffer
	logger, err := New("todo", &buf, Config{Level: "info", NoColor: true})
	require.NoError(err)

	logger.Info().Msg("serving")
	require.Contains(buf.String(), "INF")
	require.Contains(buf.String(), "serving")
	require.Contains(buf.String(), "app=todo")
}

func TestNewBadLevel(t *testing.T) {
	_, err := New("todo", &bytes.Buffer{}, Config{Level: "loud"})
	require.ErrorContains(t, err, `log level "loud"`)
}
