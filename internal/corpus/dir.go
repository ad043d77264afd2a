package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/errors"
)

// FileExt is the extension of files picked up from a corpus directory.
const FileExt = ".txt"

const maxParallelReads = 8

// DirSource loads every *.txt file in a directory. The file name, extension
// included, is the document ID.
type DirSource struct {
	dir    string
	logger *slog.Logger
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{
		dir:    dir,
		logger: slog.Default().With("component", "corpus-dir"),
	}
}

// Dir returns the directory the source reads from.
func (s *DirSource) Dir() string {
	return s.dir
}

func (s *DirSource) Load(ctx context.Context) (Corpus, error) {
	c, err := LoadDir(ctx, s.dir)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("corpus loaded", "dir", s.dir, "documents", len(c))
	return c, nil
}

// IsCorpusFile reports whether path names a file LoadDir would read.
func IsCorpusFile(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), FileExt) && !strings.HasPrefix(base, ".")
}

// LoadDir reads all corpus files directly inside dir concurrently.
// Sub-directories and hidden files are ignored. A file that is not valid
// UTF-8 fails the whole load.
func LoadDir(ctx context.Context, dir string) (Corpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory %s: %w", dir, err)
	}

	var (
		mu     sync.Mutex
		corpus = make(Corpus, len(entries))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for _, entry := range entries {
		if entry.IsDir() || !IsCorpusFile(entry.Name()) {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("reading %s: %w", name, err)
			}
			if !utf8.Valid(data) {
				return apperrors.Newf(apperrors.ErrInvalidInput, 400, "%s is not valid UTF-8 text", name)
			}
			mu.Lock()
			corpus[name] = string(data)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading corpus from %s: %w", dir, err)
	}
	return corpus, nil
}
