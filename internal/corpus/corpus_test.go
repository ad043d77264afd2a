package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("the cat sat"))
	writeFile(t, dir, "B.TXT", []byte("the dog ran"))
	writeFile(t, dir, ".hidden.txt", []byte("secret"))
	writeFile(t, dir, "notes.md", []byte("ignored"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	c, err := LoadDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, Corpus{"a.txt": "the cat sat", "B.TXT": "the dog ran"}, c)
}

func TestLoadDir_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.txt", []byte("fine"))
	writeFile(t, dir, "bad.txt", []byte{0xff, 0xfe, 0x00})

	_, err := LoadDir(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "bad.txt")
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDir_Empty(t *testing.T) {
	c, err := LoadDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, c)
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "x.txt", []byte("hello"))

	src := NewDirSource(dir)
	assert.Equal(t, dir, src.Dir())

	c, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Corpus{"x.txt": "hello"}, c)
}

func TestIsCorpusFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"doc.txt", true},
		{"/data/corpus/doc.TXT", true},
		{".doc.txt", false},
		{"doc.txt.swp", false},
		{"doc.md", false},
		{"txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCorpusFile(tt.path))
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Sample(), DefaultMinDocuments))
	require.NoError(t, Validate(Corpus{}, 0))

	err := Validate(Corpus{"only": "one"}, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotEnoughDocuments)
	assert.Equal(t, 400, apperrors.HTTPStatusCode(err))
}

func TestCorpusOrdering(t *testing.T) {
	c := Corpus{"b": "2", "a": "1", "c": "3"}
	assert.Equal(t, []string{"a", "b", "c"}, c.IDs())
	assert.Equal(t, []Document{{"a", "1"}, {"b", "2"}, {"c", "3"}}, c.Documents())
}

func TestClone(t *testing.T) {
	orig := Corpus{"a": "1"}
	cp := orig.Clone()
	cp["a"] = "changed"
	cp["b"] = "new"
	assert.Equal(t, Corpus{"a": "1"}, orig)
}

func TestContentHash(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ContentHash(""))
	assert.Equal(t, ContentHash("abc"), ContentHash("abc"))
	assert.NotEqual(t, ContentHash("abc"), ContentHash("abd"))
}

func TestSample(t *testing.T) {
	s := Sample()
	assert.Len(t, s, 7)
	assert.Equal(t, "Data mining is an interdisciplinary field.", s["doc7"])
}

func TestStaticSource(t *testing.T) {
	c := Corpus{"a": "1"}
	src := NewStaticSource(c)
	c["a"] = "mutated"

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Corpus{"a": "1"}, got)

	got["a"] = "also mutated"
	again, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", again["a"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
