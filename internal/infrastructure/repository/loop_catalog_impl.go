package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model/loop"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/repository"
	"github.com/YoshitsuguKoike/loopkit/internal/infra/persistence/file"
)

// loopCatalogFile is the on-disk shape of loops.yaml
type loopCatalogFile struct {
	Version int         `yaml:"version"`
	Loops   []loop.Loop `yaml:"loops"`
}

// LoopCatalogImpl implements repository.LoopRepository on a YAML file
type LoopCatalogImpl struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewLoopCatalogImpl creates a catalog backed by the YAML file at path
func NewLoopCatalogImpl(fs afero.Fs, path string) *LoopCatalogImpl {
	return &LoopCatalogImpl{fs: fs, path: path}
}

var _ repository.LoopRepository = (*LoopCatalogImpl)(nil)

// FindByID returns the loop with id or a NotFoundError
func (c *LoopCatalogImpl) FindByID(ctx context.Context, id string) (*loop.Loop, error) {
	loops, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range loops {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, model.NewNotFoundError("loop", id)
}

// List returns all loops with titles normalized and activities ordered
func (c *LoopCatalogImpl) List(ctx context.Context) ([]*loop.Loop, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	catalog, err := c.read()
	if err != nil {
		return nil, err
	}
	out := make([]*loop.Loop, len(catalog.Loops))
	for i := range catalog.Loops {
		l := catalog.Loops[i]
		l.Normalize()
		out[i] = &l
	}
	return out, nil
}

// Save validates the loop, then inserts or replaces it by id
func (c *LoopCatalogImpl) Save(ctx context.Context, l *loop.Loop) error {
	if err := l.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	catalog, err := c.read()
	if err != nil {
		return err
	}

	saved := *l.Clone()
	saved.Normalize()
	replaced := false
	for i := range catalog.Loops {
		if catalog.Loops[i].ID == saved.ID {
			catalog.Loops[i] = saved
			replaced = true
			break
		}
	}
	if !replaced {
		catalog.Loops = append(catalog.Loops, saved)
	}
	catalog.Version = 1

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(catalog); err != nil {
		return fmt.Errorf("loops: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("loops: encode: %w", err)
	}
	return file.WriteFileAtomic(c.fs, c.path, buf.Bytes())
}

// read parses the catalog with strict field checking; a missing file is an empty catalog
func (c *LoopCatalogImpl) read() (*loopCatalogFile, error) {
	data, err := file.ReadFileIfExists(c.fs, c.path)
	if err != nil {
		return nil, fmt.Errorf("loops: read: %w", err)
	}
	catalog := &loopCatalogFile{}
	if len(bytes.TrimSpace(data)) == 0 {
		return catalog, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(catalog); err != nil && !errors.Is(err, io.EOF) {
		return nil, model.NewInvalidInputError("loops: parse %s: %v", c.path, err)
	}
	return catalog, nil
}

// Validate checks every loop in the catalog and returns one error per invalid loop
func (c *LoopCatalogImpl) Validate(ctx context.Context) ([]error, error) {
	loops, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	var problems []error
	seen := make(map[string]bool, len(loops))
	for _, l := range loops {
		if err := l.Validate(); err != nil {
			problems = append(problems, err)
			continue
		}
		if seen[l.ID] {
			problems = append(problems, model.NewInvalidInputError("duplicate loop id %s", l.ID))
		}
		seen[l.ID] = true
	}
	return problems, nil
}
