package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "ledger.db", filepath.Base(cfg.DB))
	assert.Equal(t, "model.json", filepath.Base(cfg.Model))
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("MATCHSTATS_DB", "postgres://u:p@localhost/stats")
	t.Setenv("MATCHSTATS_LOG_LEVEL", "DEBUG")

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@localhost/stats", cfg.DB)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	v := New()
	v.Set(KeyLogFormat, "xml")
	_, err := Load(v)
	assert.ErrorContains(t, err, KeyLogFormat)

	v = New()
	v.Set(KeyDB, " ")
	_, err = Load(v)
	assert.Error(t, err)
}

func TestLoad_ExpandsHome(t *testing.T) {
	v := New()
	v.Set(KeyModel, "~/models/m.json")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(cfg.Model, "~"))
	assert.Equal(t, filepath.Join("models", "m.json"), filepath.Join(filepath.Base(filepath.Dir(cfg.Model)), filepath.Base(cfg.Model)))
}
