package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/wikisophy/pkg/adapters/file"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Cache = (*file.Cache)(nil)

func TestFileCache_Contract(t *testing.T) {
	ports.RunCacheContract(t, file.New(t.TempDir()))
}

func TestFileCache_Expiration(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := file.New(t.TempDir(), file.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "markup:Cat", []byte("<p>cat</p>"), time.Minute))
	require.NoError(t, c.Set(ctx, "markup:Dog", []byte("<p>dog</p>"), 0))

	now = now.Add(59 * time.Second)
	got, err := c.Get(ctx, "markup:Cat")
	require.NoError(t, err)
	assert.Equal(t, "<p>cat</p>", string(got))

	now = now.Add(time.Second)
	_, err = c.Get(ctx, "markup:Cat")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	got, err = c.Get(ctx, "markup:Dog")
	require.NoError(t, err)
	assert.Equal(t, "<p>dog</p>", string(got))
}

func TestFileCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	require.NoError(t, file.New(dir).Set(ctx, "preview:Ancient Greece/Athens", []byte(`{"title":"Athens"}`), time.Hour))

	got, err := file.New(dir).Get(ctx, "preview:Ancient Greece/Athens")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Athens"}`, string(got))
}

func TestFileCache_Purge(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dir := t.TempDir()
	c := file.New(dir, file.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("a"), time.Second))
	require.NoError(t, c.Set(ctx, "long", []byte("b"), time.Hour))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{not json"), 0o600))

	now = now.Add(time.Minute)
	removed, err := c.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = c.Get(ctx, "long")
	assert.NoError(t, err)

	removed, err = file.New(filepath.Join(dir, "absent")).Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestFileCache_Corrupt(t *testing.T) {
	dir := t.TempDir()
	c := file.New(dir)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{"), 0o600))

	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}
