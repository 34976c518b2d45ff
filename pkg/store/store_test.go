package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/cogpy/chainlex/pkg/common/errors"
	"github.com/cogpy/chainlex/pkg/index"
)

func setupTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	s, err := Open(&Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func buildTestIndex(t *testing.T) *index.Index {
	t.Helper()
	ix, _, err := index.Build([]index.Framework{
		{
			Code: "lv1", Name: "Principles", Level: 1,
			Records: []index.RuleRecord{
				{LocalName: "pacta-sunt-servanda", DocText: "Agreements must be kept.", FrameworkCode: "lv1"},
			},
		},
		{
			Code: "civ", Name: "Civil", Level: 2, Domains: []string{"contract"},
			Records: []index.RuleRecord{
				{LocalName: "contract-valid?", CrossReferences: []string{"pacta-sunt-servanda"}, FrameworkCode: "civ"},
			},
		},
	})
	require.NoError(t, err)
	return ix
}

func TestSaveAndLoad(t *testing.T) {
	s := setupTestStore(t)
	ix := buildTestIndex(t)

	snap := index.NewSnapshot(ix)
	require.NoError(t, s.Save(snap))

	loaded, err := s.Load()
	require.NoError(t, err)

	assert.Equal(t, snap.ID, loaded.ID)
	assert.Len(t, loaded.Frameworks, 2)
	assert.Equal(t, snap.RecordOrder, loaded.RecordOrder)
	assert.Equal(t, snap.Stats.TotalPrinciples, loaded.Stats.TotalPrinciples)

	restored, err := loaded.Restore()
	require.NoError(t, err)
	rec, ok := restored.Record("civ:contract-valid?")
	require.True(t, ok)
	assert.Equal(t, []string{"pacta-sunt-servanda"}, rec.CrossReferences)
}

func TestLoadEmptyStore(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Load()
	assert.True(t, errors.Is(err, commonerrors.ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestSaveReplacesPrevious(t *testing.T) {
	s := setupTestStore(t)
	ix := buildTestIndex(t)

	first := index.NewSnapshot(ix)
	require.NoError(t, s.Save(first))

	second := index.NewSnapshot(ix)
	require.NoError(t, s.Save(second))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, second.ID, loaded.ID)
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, (&Config{}).Validate())
	assert.NoError(t, (&Config{InMemory: true}).Validate())
	assert.NoError(t, DefaultConfig(t.TempDir()).Validate())
}
