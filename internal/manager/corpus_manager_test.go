package manager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCorpus(t *testing.T) string {
	t.Helper()
	baseDir := t.TempDir()
	root := filepath.Join(baseDir, "za-law")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "lv1"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "civ"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(root, "frameworks.yaml"), []byte(`frameworks:
  - code: lv1
    name: Principles
    level: 1
    path: lv1
  - code: civ
    name: Civil
    level: 2
    path: civ
    domains: [contract]
`), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(root, "lv1", "foundations.scm"), []byte(
		`(define (pacta-sunt-servanda) "Agreements must be kept." #t)`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "civ", "contract.scm"), []byte(
		`(define (contract-valid?)
  "Valid contract test."
  ;; Cross-reference: pacta-sunt-servanda
  #t)`), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(root, "metadata.json"), []byte(
		`{"name": "South African Law", "description": "Demo corpus"}`), 0o644))

	return baseDir
}

func TestGetBuildsCorpus(t *testing.T) {
	baseDir := setupTestCorpus(t)
	cm := NewCorpusManager(baseDir, nil)
	defer cm.CloseAll()

	corp, err := cm.Get("za-law")
	require.NoError(t, err)

	ix, err := corp.Index()
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Stats().TotalRecords)
	assert.Equal(t, 1, ix.Stats().TotalPrinciples)

	rec, ok := ix.Record("civ:contract-valid?")
	require.True(t, ok)
	assert.Equal(t, []string{"pacta-sunt-servanda"}, rec.CrossReferences)

	g, err := corp.Graph()
	require.NoError(t, err)
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())

	// Second Get returns the cached instance.
	again, err := cm.Get("za-law")
	require.NoError(t, err)
	assert.Same(t, corp, again)
}

func TestGetUnknownCorpus(t *testing.T) {
	cm := NewCorpusManager(t.TempDir(), nil)
	defer cm.CloseAll()

	_, err := cm.Get("missing")
	assert.Error(t, err)
}

func TestRebuildPicksUpChanges(t *testing.T) {
	baseDir := setupTestCorpus(t)
	cm := NewCorpusManager(baseDir, nil)
	defer cm.CloseAll()

	corp, err := cm.Get("za-law")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "za-law", "civ", "delict.scm"), []byte(
		`(define (delict-wrongful?) "Wrongfulness test." #t)`), 0o644))
	require.NoError(t, corp.Rebuild())

	ix, err := corp.Index()
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Stats().TotalRecords)
}

func TestRestoreFromSnapshot(t *testing.T) {
	baseDir := setupTestCorpus(t)

	cm := NewCorpusManager(baseDir, nil)
	_, err := cm.Get("za-law")
	require.NoError(t, err)
	cm.CloseAll()

	// Remove the sources; a fresh manager must serve from the snapshot.
	require.NoError(t, os.RemoveAll(filepath.Join(baseDir, "za-law", "lv1")))
	require.NoError(t, os.RemoveAll(filepath.Join(baseDir, "za-law", "civ")))

	cm2 := NewCorpusManager(baseDir, nil)
	defer cm2.CloseAll()

	corp, err := cm2.Get("za-law")
	require.NoError(t, err)
	ix, err := corp.Index()
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Stats().TotalRecords)
}

func TestList(t *testing.T) {
	baseDir := setupTestCorpus(t)
	cm := NewCorpusManager(baseDir, nil)
	defer cm.CloseAll()

	list, err := cm.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "za-law", list[0].ID)
	assert.Equal(t, "South African Law", list[0].Name)
	assert.Equal(t, "Demo corpus", list[0].Description)
}
