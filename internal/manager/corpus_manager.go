// Package manager maintains the set of open corpora: each corpus is a
// directory of framework sources plus a snapshot store, served through an
// atomically swappable index so rebuilds never block readers.
package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cogpy/chainlex/pkg/corpus"
	"github.com/cogpy/chainlex/pkg/graph"
	"github.com/cogpy/chainlex/pkg/index"
	"github.com/cogpy/chainlex/pkg/store"
)

// CorpusMetadata represents the corpus information exposed by the API.
type CorpusMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	// MaxOpenCorpora bounds the number of corpora held open at once;
	// least recently used ones are closed on eviction.
	MaxOpenCorpora = 10

	// CorpusListTTL caches the directory listing between API calls.
	CorpusListTTL = 1 * time.Minute

	// rebuildDebounce coalesces bursts of file events into one rebuild.
	rebuildDebounce = 500 * time.Millisecond

	// snapshotDirName is the per-corpus snapshot store location.
	snapshotDirName = ".index"
)

// Corpus is one open corpus: its sources, its snapshot store and the
// current index generation.
type Corpus struct {
	ID      string
	root    string
	dataDir string

	cfg    *corpus.Config
	loader *corpus.Loader
	logger *slog.Logger

	holder  *index.Holder
	adjView atomic.Pointer[graph.Graph]
	st      *store.SnapshotStore

	rebuildMu   sync.Mutex
	annotations []graph.Annotation
	watcher     *fsnotify.Watcher
}

// Index returns the current index generation, or ErrIndexNotReady before
// the first successful build.
func (c *Corpus) Index() (*index.Index, error) {
	return c.holder.Get()
}

// Graph returns the adjacency view paired with the current index
// generation.
func (c *Corpus) Graph() (*graph.Graph, error) {
	if _, err := c.holder.Get(); err != nil {
		return nil, err
	}
	return c.adjView.Load(), nil
}

// Rebuild reparses the corpus sources, builds a fresh index and installs
// it atomically. The previous generation keeps serving until the new one
// is complete; a failed build leaves it untouched. The new snapshot is
// persisted best-effort.
func (c *Corpus) Rebuild() error {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	result, err := c.loader.LoadCorpus(c.root, c.cfg)
	if err != nil {
		return fmt.Errorf("load corpus %s: %w", c.ID, err)
	}
	for _, failure := range result.Failures {
		c.logger.Warn("record skipped during extraction",
			"corpus", c.ID, "file", failure.SourceFile, "reason", failure.Reason)
	}

	ix, report, err := index.Build(result.Frameworks)
	if err != nil {
		return fmt.Errorf("build index for corpus %s: %w", c.ID, err)
	}
	for _, issue := range report.Issues {
		if issue.Severity == index.SeverityWarning {
			c.logger.Warn("validation warning", "corpus", c.ID, "check", issue.Check, "detail", issue.Message)
		}
	}

	c.install(ix)

	if c.st != nil {
		if err := c.st.Save(index.NewSnapshot(ix)); err != nil {
			c.logger.Warn("snapshot save failed", "corpus", c.ID, "error", err)
		}
	}
	return nil
}

// restoreFromSnapshot installs the stored snapshot, if one exists.
func (c *Corpus) restoreFromSnapshot() error {
	snap, err := c.st.Load()
	if err != nil {
		return err
	}
	ix, err := snap.Restore()
	if err != nil {
		return err
	}
	c.install(ix)
	return nil
}

func (c *Corpus) install(ix *index.Index) {
	// Graph first: readers observing the new index must never pair it
	// with the previous adjacency view.
	g := graph.New(ix)
	g.ApplyAnnotations(c.annotations)
	c.adjView.Store(g)
	c.holder.Install(ix)
}

// Annotate records externally computed edge annotations and republishes
// the adjacency view with them applied. Annotations survive rebuilds; the
// index itself is never touched.
func (c *Corpus) Annotate(annotations []graph.Annotation) error {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	ix, err := c.holder.Get()
	if err != nil {
		return err
	}
	c.annotations = append(c.annotations, annotations...)

	g := graph.New(ix)
	g.ApplyAnnotations(c.annotations)
	c.adjView.Store(g)
	return nil
}

// Watch rebuilds the corpus whenever a source file changes, until the
// context is cancelled. Events are debounced so editor save bursts
// trigger a single rebuild.
func (c *Corpus) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	c.watcher = watcher

	if err := watcher.Add(c.root); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", c.root, err)
	}
	for _, fw := range c.cfg.Frameworks {
		dir := filepath.Join(c.root, fw.Path)
		if _, err := os.Stat(dir); err == nil {
			if err := watcher.Add(dir); err != nil {
				c.logger.Warn("cannot watch framework dir", "dir", dir, "error", err)
			}
		}
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(rebuildDebounce, func() {
					c.logger.Info("source change detected, rebuilding", "corpus", c.ID)
					if err := c.Rebuild(); err != nil {
						c.logger.Error("rebuild failed, keeping previous index", "corpus", c.ID, "error", err)
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warn("watcher error", "corpus", c.ID, "error", err)
			}
		}
	}()
	return nil
}

// Close releases the snapshot store and stops any watcher.
func (c *Corpus) Close() error {
	if c.watcher != nil {
		_ = c.watcher.Close()
	}
	if c.st != nil {
		return c.st.Close()
	}
	return nil
}

// CorpusManager manages multiple open Corpus instances under one base
// directory, one subdirectory per corpus.
type CorpusManager struct {
	baseDir string
	logger  *slog.Logger

	corpora *lru.Cache[string, *Corpus]
	mu      sync.RWMutex

	cachedList    []CorpusMetadata
	lastListBuild time.Time
}

// NewCorpusManager creates a manager rooted at baseDir.
func NewCorpusManager(baseDir string, logger *slog.Logger) *CorpusManager {
	if logger == nil {
		logger = slog.Default()
	}
	cache, _ := lru.NewWithEvict[string, *Corpus](MaxOpenCorpora, func(key string, value *Corpus) {
		_ = value.Close()
	})
	return &CorpusManager{
		baseDir: baseDir,
		logger:  logger,
		corpora: cache,
	}
}

// Get retrieves a corpus by ID, opening and building it if necessary. A
// stored snapshot serves immediately; absent one, the sources are parsed.
func (cm *CorpusManager) Get(corpusID string) (*Corpus, error) {
	// Fast path: lru.Get updates recency.
	if c, ok := cm.corpora.Get(corpusID); ok {
		return c, nil
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	// Double-check under lock.
	if c, ok := cm.corpora.Get(corpusID); ok {
		return c, nil
	}

	root := filepath.Join(cm.baseDir, corpusID)
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, fmt.Errorf("corpus not found: %s", corpusID)
	}

	c, err := cm.open(corpusID, root)
	if err != nil {
		return nil, err
	}
	cm.corpora.Add(corpusID, c)
	return c, nil
}

func (cm *CorpusManager) open(corpusID, root string) (*Corpus, error) {
	cfg := corpus.DefaultConfig()
	cfgPath := filepath.Join(root, "frameworks.yaml")
	if _, err := os.Stat(cfgPath); err == nil {
		loaded, err := corpus.LoadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("corpus %s config: %w", corpusID, err)
		}
		cfg = loaded
	}

	logger := cm.logger.With("corpus", corpusID)
	c := &Corpus{
		ID:      corpusID,
		root:    root,
		dataDir: filepath.Join(root, snapshotDirName),
		cfg:     cfg,
		loader:  corpus.NewLoader(logger),
		logger:  logger,
		holder:  index.NewHolder(),
	}

	st, err := store.Open(store.DefaultConfig(c.dataDir))
	if err != nil {
		// A broken snapshot store is not fatal; the corpus still
		// serves from sources, just without persistence.
		logger.Warn("snapshot store unavailable", "error", err)
	} else {
		c.st = st
	}

	if c.st != nil {
		if err := c.restoreFromSnapshot(); err == nil {
			logger.Info("corpus restored from snapshot")
			return c, nil
		}
	}

	if err := c.Rebuild(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// List returns the available corpora, cached for CorpusListTTL.
func (cm *CorpusManager) List() ([]CorpusMetadata, error) {
	cm.mu.RLock()
	if time.Since(cm.lastListBuild) < CorpusListTTL && cm.cachedList != nil {
		list := make([]CorpusMetadata, len(cm.cachedList))
		copy(list, cm.cachedList)
		cm.mu.RUnlock()
		return list, nil
	}
	cm.mu.RUnlock()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if time.Since(cm.lastListBuild) < CorpusListTTL && cm.cachedList != nil {
		list := make([]CorpusMetadata, len(cm.cachedList))
		copy(list, cm.cachedList)
		return list, nil
	}

	entries, err := os.ReadDir(cm.baseDir)
	if err != nil {
		return nil, err
	}

	var corpora []CorpusMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		meta := CorpusMetadata{ID: id, Name: id}

		metaPath := filepath.Join(cm.baseDir, id, "metadata.json")
		if data, err := os.ReadFile(metaPath); err == nil {
			var jsonMeta CorpusMetadata
			if err := json.Unmarshal(data, &jsonMeta); err == nil {
				if jsonMeta.Name != "" {
					meta.Name = jsonMeta.Name
				}
				meta.Description = jsonMeta.Description
			}
		}
		corpora = append(corpora, meta)
	}

	cm.cachedList = corpora
	cm.lastListBuild = time.Now()
	return corpora, nil
}

// CloseAll closes every open corpus.
func (cm *CorpusManager) CloseAll() {
	cm.corpora.Purge()
}
