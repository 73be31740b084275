package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/floorsmith/pkg/config"
	"github.com/matzehuels/floorsmith/pkg/errors"
	"github.com/matzehuels/floorsmith/pkg/plan"
)

func sampleSession(name string) *Session {
	return NewSession(name, []plan.Space{
		{
			Name: "hall",
			Size: plan.Size{Width: 40, Height: 30},
			Doors: []plan.Door{
				{Wall: plan.WallEast, Position: 15, Width: 6, LeadsTo: "armory"},
			},
		},
		{Name: "armory", Size: plan.Size{Width: 20, Height: 20}},
	}, plan.DefaultWallSettings())
}

// backendTest exercises the Store contract against one backend.
func backendTest(t *testing.T, s Store) {
	ctx := context.Background()
	t.Cleanup(func() { _ = s.Close(ctx) })

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound), "got %v", err)

	sess := sampleSession("keep")
	require.NoError(t, s.Put(ctx, sess))

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "keep", got.Name)
	require.Len(t, got.Spaces, 2)
	assert.Equal(t, sess.Spaces[0].Doors, got.Spaces[0].Doors)
	assert.Equal(t, plan.DefaultWallSettings(), got.Walls)

	// Put replaces and bumps UpdatedAt.
	before := got.UpdatedAt
	time.Sleep(5 * time.Millisecond)
	sess.Name = "renamed"
	require.NoError(t, s.Put(ctx, sess))
	got, err = s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.True(t, got.UpdatedAt.After(before), "UpdatedAt did not advance")

	other := sampleSession("other")
	require.NoError(t, s.Put(ctx, other))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, other.ID, list[0].ID, "most recently updated first")
	assert.Equal(t, 2, list[0].Spaces)

	require.NoError(t, s.Delete(ctx, sess.ID))
	require.NoError(t, s.Delete(ctx, sess.ID), "deleting twice is not an error")
	_, err = s.Get(ctx, sess.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound))

	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStore(t *testing.T) {
	backendTest(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	backendTest(t, s)
}

func TestFileStoreRejectsEscapingIDs(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	bad := []string{"../escape", "a/b", `a\b`, "..", ".", ""}
	for _, id := range bad {
		_, err := s.Get(ctx, id)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "Get(%q): %v", id, err)

		sess := sampleSession("trap")
		sess.ID = id
		err = s.Put(ctx, sess)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "Put(%q): %v", id, err)

		err = s.Delete(ctx, id)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "Delete(%q): %v", id, err)
	}

	// Nothing escaped the base directory.
	_, err = os.Stat(dir + "/../escape.json")
	assert.True(t, os.IsNotExist(err), "file written outside base dir")
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	sess := sampleSession("iso")
	require.NoError(t, s.Put(ctx, sess))

	// Mutating the caller's copy or a returned copy must not leak into the
	// stored session.
	sess.Spaces[0].Name = "mutated"
	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "hall", got.Spaces[0].Name)

	got.Spaces[0].Name = "also mutated"
	again, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "hall", again.Spaces[0].Name)
}

func TestFileStoreSkipsCorruptFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, sampleSession("good")))
	writeFile(t, dir+"/broken.json", "{nope")

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.StoreConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, config.StoreConfig{
		Backend: "file",
		File:    config.FileStoreConfig{Dir: t.TempDir()},
	})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open(ctx, config.StoreConfig{Backend: "carrier-pigeon"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestNewSessionClones(t *testing.T) {
	spaces := []plan.Space{{Name: "a", Size: plan.Size{Width: 10, Height: 10}}}
	sess := NewSession("s", spaces, plan.DefaultWallSettings())

	spaces[0].Name = "mutated"
	assert.Equal(t, "a", sess.Spaces[0].Name)
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.CreatedAt.IsZero())
}
