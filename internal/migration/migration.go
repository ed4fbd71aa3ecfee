package migration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	ErrNoMigrations = errors.New("no migration files found")
	ErrNotFound     = errors.New("migration not found")
	ErrTargetExists = errors.New("target migration file already exists")
)

// Source is one migration unit as read from disk.
type Source struct {
	ID   string
	Path string
	Text string
}

// jsonMigration is the on-disk layout of generated JSON migrations:
// {"migration": {"id": "...", "up": "...", "down": "..."}}.
type jsonMigration struct {
	Migration struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Up   string `json:"up"`
		Down string `json:"down"`
	} `json:"migration"`
}

// Loader reads migration files from a directory. It understands plain
// .sql files, golang-migrate style .up.sql/.down.sql pairs, schema builder
// .php files and JSON migrations.
type Loader struct {
	fs     afero.Fs
	dir    string
	logger *zap.Logger

	paths map[string][]string // id -> files making up the migration
}

type LoaderOption func(*Loader)

func WithFs(fsys afero.Fs) LoaderOption {
	return func(l *Loader) { l.fs = fsys }
}

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLoader(dir string, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:     afero.NewOsFs(),
		dir:    dir,
		logger: zap.NewNop(),
		paths:  make(map[string][]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) Dir() string { return l.dir }

// Load returns the migrations sorted by identifier, the order they are
// claimed to run in.
func (l *Loader) Load(ctx context.Context) ([]Source, error) {
	var sources []Source
	paths := make(map[string][]string)

	err := afero.Walk(l.fs, l.dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		id, kind := classify(info.Name())
		switch kind {
		case fileIgnored:
			return nil
		case fileDown:
			paths[id] = append(paths[id], path)
			return nil
		}

		content, err := afero.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", path, err)
		}

		text := string(content)
		if kind == fileJSON {
			var jm jsonMigration
			if err := json.Unmarshal(content, &jm); err != nil {
				l.logger.Warn("skipping unparsable JSON migration", zap.String("path", path), zap.Error(err))
				return nil
			}
			text = jm.Migration.Up
		}

		paths[id] = append(paths[id], path)
		sources = append(sources, Source{
			ID:   id,
			Path: path,
			Text: text,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory %s: %w", l.dir, err)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoMigrations, l.dir)
	}

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].ID < sources[j].ID
	})

	l.paths = paths
	l.logger.Debug("loaded migrations", zap.String("dir", l.dir), zap.Int("count", len(sources)))
	return sources, nil
}

// Rename moves every file belonging to migration id so that it is
// identified by newID. Load must have been called first.
func (l *Loader) Rename(id, newID string) error {
	files, ok := l.paths[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, taken := l.paths[newID]; taken {
		return fmt.Errorf("%w: %s", ErrTargetExists, newID)
	}

	targets := make([]string, len(files))
	for i, path := range files {
		base := filepath.Base(path)
		targets[i] = filepath.Join(filepath.Dir(path), newID+strings.TrimPrefix(base, id))
		if _, err := l.fs.Stat(targets[i]); err == nil {
			return fmt.Errorf("%w: %s", ErrTargetExists, targets[i])
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check %s: %w", targets[i], err)
		}
	}

	for i, path := range files {
		if err := l.fs.Rename(path, targets[i]); err != nil {
			return fmt.Errorf("failed to rename %s: %w", path, err)
		}
		l.logger.Info("renamed migration file", zap.String("from", path), zap.String("to", targets[i]))
	}

	delete(l.paths, id)
	l.paths[newID] = targets
	return nil
}

type fileKind int

const (
	fileIgnored fileKind = iota
	fileSQL
	fileBlueprint
	fileJSON
	fileDown
)

// classify derives the migration identifier from a file name.
func classify(name string) (string, fileKind) {
	switch {
	case strings.HasSuffix(name, ".down.sql"):
		return strings.TrimSuffix(name, ".down.sql"), fileDown
	case strings.HasSuffix(name, ".up.sql"):
		return strings.TrimSuffix(name, ".up.sql"), fileSQL
	case strings.HasSuffix(name, ".sql"):
		return strings.TrimSuffix(name, ".sql"), fileSQL
	case strings.HasSuffix(name, ".php"):
		return strings.TrimSuffix(name, ".php"), fileBlueprint
	case strings.HasSuffix(name, ".json"):
		return strings.TrimSuffix(name, ".json"), fileJSON
	default:
		return "", fileIgnored
	}
}
