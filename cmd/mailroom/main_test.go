package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/config"
	"github.com/dmitrymomot/mailroom/pkg/logger"
)

func TestRun_Usage(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), config.Default(), logger.NewNope(), nil)
	require.ErrorIs(t, err, errUsage)
}

func TestReadInput(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "request.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"welcome"}`), 0o600))

	data, err := readInput(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"welcome"}`, string(data))

	_, err = readInput(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
