package common

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDint64Unique(t *testing.T) {
	seen := make(map[int64]struct{})
	for i := 0; i < 10000; i++ {
		id := UUIDint64()
		require.Positive(t, id)
		_, dup := seen[id]
		require.False(t, dup, "id %d repeated", id)
		seen[id] = struct{}{}
	}
}

func TestUUIDUnique(t *testing.T) {
	a := UUID()
	b := UUID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestMustMakeDirAndFileExists(t *testing.T) {
	dir := path.Join(t.TempDir(), "a", "b")
	MustMakeDir(dir)

	assert.False(t, FileExists(dir), "directories are not files")

	file := path.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.True(t, FileExists(file))
	assert.False(t, FileExists(path.Join(dir, "missing")))
}
