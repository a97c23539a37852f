package migrations

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceListsVersionsInOrder(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	next, err = src.Next(next)
	require.NoError(t, err)
	assert.Equal(t, uint(3), next)

	_, err = src.Next(next)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEveryUpHasADown(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	for version, err := src.First(); err == nil; version, err = src.Next(version) {
		up, _, upErr := src.ReadUp(version)
		require.NoError(t, upErr, "version %d up", version)
		up.Close()

		down, _, downErr := src.ReadDown(version)
		require.NoError(t, downErr, "version %d down", version)
		down.Close()
	}
}

func TestSchemaDeclaresPaidGuardColumns(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	up, _, err := src.ReadUp(1)
	require.NoError(t, err)
	defer up.Close()

	body, err := io.ReadAll(up)
	require.NoError(t, err)
	schema := string(body)

	assert.True(t, strings.Contains(schema, "invoice TEXT NOT NULL UNIQUE"))
	assert.True(t, strings.Contains(schema, "CHECK (quantity > 0)"))
}
