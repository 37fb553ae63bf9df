package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureParentDir_CreatesNestedDirs(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "state", "nested", "codifyr.db")

	require.NoError(t, EnsureParentDir(path))

	fi, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	// idempotent
	require.NoError(t, EnsureParentDir(path))
}

func TestEnsureParentDir_BareFileName(t *testing.T) {
	require.NoError(t, EnsureParentDir("codifyr.db"))
}

func TestEnsureParentDir_FailsWhenParentIsFile(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "state")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	require.Error(t, EnsureParentDir(filepath.Join(blocker, "codifyr.db")))
}

func TestRegularFileSize(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, "cert.pdf")
	require.NoError(t, os.WriteFile(p, []byte("12345"), 0o600))

	n, err := RegularFileSize(p)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	_, err = RegularFileSize(tmp)
	require.ErrorIs(t, err, ErrNotRegularFile)

	_, err = RegularFileSize(filepath.Join(tmp, "missing"))
	require.Error(t, err)
}
