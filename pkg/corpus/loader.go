package corpus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/cogpy/chainlex/pkg/index"
)

// LoadResult carries the populated frameworks plus every record-level
// failure encountered on the way. Failures are reported, never fatal.
type LoadResult struct {
	Frameworks []index.Framework
	Failures   []ParseFailure
}

// Loader walks a corpus directory tree and extracts rule records for each
// configured framework.
type Loader struct {
	extractor *Extractor
	logger    *slog.Logger
}

// NewLoader creates a loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{extractor: NewExtractor(), logger: logger}
}

// LoadCorpus reads every framework's source documents under root. A missing
// framework directory is skipped with a warning; the original corpus ships
// with some branches absent.
func (l *Loader) LoadCorpus(root string, cfg *Config) (*LoadResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &LoadResult{}

	for _, fc := range cfg.Frameworks {
		dir := filepath.Join(root, fc.Path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			l.logger.Warn("framework directory missing, skipping", "framework", fc.Code, "dir", dir)
			continue
		}

		fw, failures, err := l.loadFramework(dir, fc)
		if err != nil {
			return nil, fmt.Errorf("framework %s: %w", fc.Code, err)
		}
		result.Frameworks = append(result.Frameworks, fw)
		result.Failures = append(result.Failures, failures...)
	}

	return result, nil
}

// loadFramework extracts records from every *.scm file in the framework's
// directory, in lexical order so rebuilds are deterministic.
func (l *Loader) loadFramework(dir string, fc FrameworkConfig) (index.Framework, []ParseFailure, error) {
	fw := index.Framework{
		Code:    fc.Code,
		Name:    fc.Name,
		Level:   fc.Level,
		Domains: fc.Domains,
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.scm"))
	if err != nil {
		return fw, nil, err
	}
	sort.Strings(files)

	var allFailures []ParseFailure
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			// File-level read errors are isolated like record failures:
			// one unreadable document must not sink the framework.
			l.logger.Warn("unreadable source document", "file", path, "err", err)
			allFailures = append(allFailures, ParseFailure{
				SourceFile: filepath.Base(path),
				Reason:     fmt.Sprintf("read failed: %v", err),
			})
			continue
		}

		records, failures := l.extractor.ExtractRecords(filepath.Base(path), content, fc.Code, fc.Level)
		for _, f := range failures {
			l.logger.Warn("skipped malformed definition", "file", f.SourceFile, "offset", f.Offset, "reason", f.Reason)
		}
		fw.Records = append(fw.Records, records...)
		allFailures = append(allFailures, failures...)
	}

	l.logger.Info("framework loaded", "framework", fc.Code, "files", len(files), "records", len(fw.Records))
	return fw, allFailures, nil
}
