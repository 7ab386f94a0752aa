// Package inputcache implements the thread-safe, content-addressed cache of
// parsed description files. Each distinct file is read and parsed at most
// once per run; concurrent misses for the same file block on the first
// load's completion and observe its result.
package inputcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/mason/internal/core/domain"
	"go.trai.ch/mason/internal/core/ports"
	"go.trai.ch/zerr"
)

type entry struct {
	done   chan struct{}
	tree   *domain.DescriptionFile
	digest uint64
	err    error
}

// Cache is the input file manager handed out by the scheduler.
type Cache struct {
	rootDir string
	parser  ports.Parser

	mu      sync.Mutex
	entries map[domain.SourceFile]*entry
}

// New creates a cache reading files below rootDir and parsing them with
// the given parser.
func New(rootDir string, parser ports.Parser) *Cache {
	return &Cache{
		rootDir: rootDir,
		parser:  parser,
		entries: make(map[domain.SourceFile]*entry),
	}
}

// Load returns the parsed description for file, reading and parsing it on
// first use. A parse failure is cached and returned to every caller.
func (c *Cache) Load(ctx context.Context, file domain.SourceFile) (*domain.DescriptionFile, error) {
	c.mu.Lock()
	e, ok := c.entries[file]
	if !ok {
		e = &entry{done: make(chan struct{})}
		c.entries[file] = e
		c.mu.Unlock()
		c.fill(e, file)
		return e.tree, e.err
	}
	c.mu.Unlock()

	select {
	case <-e.done:
		return e.tree, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fill(e *entry, file domain.SourceFile) {
	defer close(e.done)

	data, err := os.ReadFile(filepath.Join(c.rootDir, filepath.FromSlash(file.Path())))
	if err != nil {
		e.err = zerr.With(errors.Join(domain.ErrDescriptionReadFailed, err), "file", string(file))
		return
	}
	e.digest = xxhash.Sum64(data)

	tree, err := c.parser.ParseFile(file, data)
	if err != nil {
		e.err = zerr.With(err, "file", string(file))
		return
	}
	e.tree = tree
}

// Digest returns the content digest of a previously loaded file.
func (c *Cache) Digest(file domain.SourceFile) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[file]
	if !ok {
		return 0, false
	}
	select {
	case <-e.done:
	default:
		return 0, false
	}
	return e.digest, e.err == nil
}

// InputFileCount reports how many distinct description files were consumed.
func (c *Cache) InputFileCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
