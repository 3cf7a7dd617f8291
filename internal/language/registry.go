package language

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/quill/internal/cachemanager"
	"github.com/zjrosen/quill/internal/grammar"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/watcher"
)

// fileExtensions are the extensions of language files in a directory.
var fileExtensions = []string{".yaml", ".yml"}

// Config configures a Registry.
type Config struct {
	// Dirs are searched for language files. Earlier directories win, and
	// every directory wins over the built-in languages.
	Dirs []string
	// CacheTTL is how long a compiled language stays cached. Zero keeps
	// entries until invalidated; a negative value disables caching.
	CacheTTL time.Duration
	// MatchTimeout bounds a single pattern match. Zero uses the grammar
	// default.
	MatchTimeout time.Duration
}

// entry locates a language file without compiling it.
type entry struct {
	name       string
	path       string
	extensions []string
}

func (e entry) builtin() bool { return isBuiltinSource(e.path) }

// Registry resolves languages by name or file extension. Languages are
// compiled on first use and cached. It is safe for concurrent use.
type Registry struct {
	cfg   Config
	ttl   time.Duration
	cache *cachemanager.ReadThroughCache[string, *Language, entry]

	mu     sync.RWMutex
	byName map[string]entry
	byExt  map[string]string
}

// NewRegistry indexes the built-in languages and every language file in
// cfg.Dirs.
func NewRegistry(cfg Config) (*Registry, error) {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = cachemanager.NoExpiration
	}
	r := &Registry{cfg: cfg, ttl: ttl}

	manager := cachemanager.NewInMemoryCacheManager[string, *Language]("languages", ttl, cachemanager.DefaultCleanupInterval)
	r.cache = cachemanager.NewReadThroughCache[string, *Language, entry](manager, r.load, cfg.CacheTTL < 0)

	if err := r.Refresh(); err != nil {
		return nil, err
	}
	return r, nil
}

// Refresh rebuilds the index from the built-in languages and cfg.Dirs.
// Unreadable language files are logged and skipped.
func (r *Registry) Refresh() error {
	byName := make(map[string]entry)
	byExt := make(map[string]string)
	add := func(e entry) {
		byName[e.name] = e
		for _, ext := range e.extensions {
			byExt[ext] = e.name
		}
	}

	for _, name := range Builtin() {
		path := builtinPrefix + "languages/" + name + ".yaml"
		data, err := readSource(path)
		if err != nil {
			return err
		}
		h, err := parseHeader(data)
		if err != nil {
			return fmt.Errorf("builtin language %s: %w", name, err)
		}
		add(entry{name: h.Name, path: path, extensions: h.Extensions})
	}

	for i := len(r.cfg.Dirs) - 1; i >= 0; i-- {
		entries, err := scanDir(r.cfg.Dirs[i])
		if err != nil {
			return err
		}
		for _, e := range entries {
			add(e)
		}
	}

	r.mu.Lock()
	r.byName, r.byExt = byName, byExt
	r.mu.Unlock()

	log.Debug(log.CatLanguage, "language index refreshed", "languages", len(byName), "extensions", len(byExt))
	return nil
}

func scanDir(dir string) ([]entry, error) {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	files, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug(log.CatLanguage, "language dir missing", "dir", dir)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading language dir: %w", err)
	}

	var entries []entry
	for _, f := range files {
		if f.IsDir() || !isLanguageFile(f.Name()) {
			continue
		}
		path := filepath.Join(dir, f.Name())
		data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from configured language dirs
		if err != nil {
			log.Warn(log.CatLanguage, "language file unreadable", "path", path, "error", err)
			continue
		}
		h, err := parseHeader(data)
		if err != nil {
			log.Warn(log.CatLanguage, "language file skipped", "path", path, "error", err)
			continue
		}
		name := h.Name
		if name == "" {
			name = strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
		}
		entries = append(entries, entry{name: name, path: path, extensions: h.Extensions})
	}
	return entries, nil
}

func isLanguageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range fileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func readSource(path string) ([]byte, error) {
	if isBuiltinSource(path) {
		return builtinFS.ReadFile(strings.TrimPrefix(path, builtinPrefix))
	}
	return os.ReadFile(path) //nolint:gosec // G304: path comes from configured language dirs
}

func (r *Registry) load(_ context.Context, e entry) (*Language, error) {
	data, err := readSource(e.path)
	if err != nil {
		return nil, fmt.Errorf("reading language: %w", err)
	}

	var opts []grammar.Option
	if r.cfg.MatchTimeout > 0 {
		opts = append(opts, grammar.WithMatchTimeout(r.cfg.MatchTimeout))
	}
	lang, err := Parse(data, opts...)
	if err != nil {
		log.Warn(log.CatLanguage, "language rejected", "path", e.path, "error", err)
		return nil, err
	}
	lang.Source = e.path
	log.Debug(log.CatLanguage, "language compiled", "name", lang.Name, "source", e.path, "builtin", e.builtin())
	return lang, nil
}

// Get returns the named language, compiling it on first use.
func (r *Registry) Get(ctx context.Context, name string) (*Language, error) {
	r.mu.RLock()
	e, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	return r.cache.GetWithRefresh(ctx, name, e, r.ttl)
}

// ForFile returns the language registered for path's extension.
func (r *Registry) ForFile(ctx context.Context, path string) (*Language, error) {
	ext := strings.ToLower(filepath.Ext(path))
	r.mu.RLock()
	name, ok := r.byExt[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no language for %q", ErrUnknownLanguage, filepath.Base(path))
	}
	return r.Get(ctx, name)
}

// Info describes an indexed language without compiling it.
type Info struct {
	Name       string
	Extensions []string
	Source     string
	Builtin    bool
}

// List returns every indexed language sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.byName))
	for _, e := range r.byName {
		infos = append(infos, Info{Name: e.name, Extensions: e.extensions, Source: e.path, Builtin: e.builtin()})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Invalidate re-indexes and drops compiled languages loaded from paths, or
// whose name now resolves to a different file, so the next Get sees the
// current definitions.
func (r *Registry) Invalidate(ctx context.Context, paths ...string) error {
	if err := r.Refresh(); err != nil {
		return err
	}

	changed := make(map[string]bool, len(paths))
	for _, p := range paths {
		changed[p] = true
	}
	r.mu.RLock()
	byName := r.byName
	r.mu.RUnlock()

	removed := r.cache.InvalidateFunc(ctx, func(name string, lang *Language) bool {
		e, ok := byName[name]
		return changed[lang.Source] || !ok || e.path != lang.Source
	})
	log.Debug(log.CatLanguage, "languages invalidated", "paths", len(paths), "dropped", removed)
	return nil
}

// Watch invalidates languages whenever files in cfg.Dirs change, until ctx
// is done or stop is called. onChange, if set, runs after each invalidation.
func (r *Registry) Watch(ctx context.Context, onChange func(paths []string)) (stop func() error, err error) {
	var dirs []string
	for _, d := range r.cfg.Dirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			dirs = append(dirs, d)
		}
	}
	if len(dirs) == 0 {
		return func() error { return nil }, nil
	}

	cfg := watcher.DefaultConfig(dirs...)
	cfg.Extensions = fileExtensions
	w, err := watcher.New(cfg)
	if err != nil {
		return nil, err
	}
	changes, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case paths := <-changes:
				if err := r.Invalidate(ctx, paths...); err != nil {
					log.ErrorErr(log.CatLanguage, "language reload failed", err)
					continue
				}
				if onChange != nil {
					onChange(paths)
				}
			}
		}
	}()

	var once sync.Once
	return func() error {
		var stopErr error
		once.Do(func() {
			cancel()
			<-done
			stopErr = w.Stop()
		})
		return stopErr
	}, nil
}
