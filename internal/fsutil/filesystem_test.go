package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	var fsys FileSystem = OSFileSystem{}

	frames := filepath.Join(dir, "videos", "v1")
	require.NoError(t, fsys.MkdirAll(frames, 0o755))
	require.NoError(t, fsys.WriteFile(filepath.Join(frames, "1.jpg"), []byte("b"), 0o644))

	w, err := fsys.Create(filepath.Join(frames, "0.jpg"))
	require.NoError(t, err)
	_, err = w.Write([]byte("a"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.Mkdir(filepath.Join(frames, "sub"), 0o755))

	names, err := fsys.ReadDir(frames)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.jpg", "1.jpg"}, names)

	data, err := fsys.ReadFile(filepath.Join(frames, "0.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	assert.True(t, fsys.Exists(frames))
	require.NoError(t, fsys.Remove(filepath.Join(frames, "0.jpg")))
	assert.False(t, fsys.Exists(filepath.Join(frames, "0.jpg")))

	_, err = fsys.ReadDir(filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("out/coco.json", []byte("{}"), 0o644))

	data, err := m.ReadFile("out/./coco.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	// callers cannot mutate stored data
	data[0] = 'x'
	again, _ := m.ReadFile("out/coco.json")
	assert.Equal(t, "{}", string(again))

	_, err = m.ReadFile("nope")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_Create(t *testing.T) {
	m := NewMemoryFileSystem()
	w, err := m.Create("images/a.png")
	require.NoError(t, err)
	assert.True(t, m.Exists("images/a.png"))

	_, _ = w.Write([]byte("pn"))
	_, _ = w.Write([]byte("g"))
	require.NoError(t, w.Close())

	data, err := m.ReadFile("images/a.png")
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestMemoryFileSystem_ReadDir(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.ReadDir("videos/v1")
	assert.Error(t, err)

	require.NoError(t, m.MkdirAll("videos/v1", 0o755))
	assert.True(t, m.Exists("videos"))

	for _, name := range []string{"videos/v1/2.jpg", "videos/v1/0.jpg", "videos/v1/1.jpg", "videos/v1/deep/x.jpg", "videos/v2/0.jpg"} {
		require.NoError(t, m.WriteFile(name, nil, 0o644))
	}
	names, err := m.ReadDir("videos/v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"0.jpg", "1.jpg", "2.jpg"}, names)

	assert.Equal(t, []string{"videos/v2/0.jpg"}, m.Files("videos/v2"))
}

func TestMemoryFileSystem_Remove(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.WriteFile("a", []byte("1"), 0o644))
	require.NoError(t, m.Remove("a"))
	assert.False(t, m.Exists("a"))
	assert.Error(t, m.Remove("a"))
}

func TestMemoryFileSystem_Concurrent(t *testing.T) {
	m := NewMemoryFileSystem()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := filepath.Join("d", string(rune('a'+i)))
			_ = m.WriteFile(name, []byte{byte(i)}, 0o644)
			_, _ = m.ReadFile(name)
		}(i)
	}
	wg.Wait()
	assert.Len(t, m.Files("d/"), 16)
}
