package cleanup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvusHold/postal/internal/logger"
)

func TestRemoveBestEffort(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.pdf")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("y"), 0o600))

	c := New(logger.Nop())
	// a missing path in the middle must not stop the rest
	c.Remove(a, filepath.Join(dir, "missing.tmp"), "", b)

	_, err := os.Stat(a)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(b)
	require.True(t, os.IsNotExist(err))
}

func TestRemoveIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o600))

	c := New(logger.Nop())
	c.Remove(a)
	c.Remove(a)
}
