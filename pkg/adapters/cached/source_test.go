package cached_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/wikisophy/internal/testutils"
	"github.com/aretw0/wikisophy/pkg/adapters/cached"
	"github.com/aretw0/wikisophy/pkg/adapters/memory"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Source = (*cached.Source)(nil)

type countingObserver struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (o *countingObserver) ObserveCache(_ string, hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("cache down")
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}
func (failingCache) Delete(context.Context, string) error { return nil }

func TestCachedSource_Markup(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal")
	obs := &countingObserver{}
	s := cached.New(src, memory.NewCache(), cached.WithObserver(obs))
	ctx := context.Background()

	first, err := s.LeadMarkup(ctx, "Cat")
	require.NoError(t, err)
	second, err := s.LeadMarkup(ctx, "Cat")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.Calls("markup", "Cat"))
	assert.Equal(t, 1, obs.hits)
	assert.Equal(t, 1, obs.misses)
}

func TestCachedSource_Preview(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal")
	src.Previews["Mammal"] = domain.Preview{Title: "Mammal", Extract: "A mammal is...", Thumbnail: "t.png"}
	s := cached.New(src, memory.NewCache())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := s.Preview(ctx, "Mammal")
		require.NoError(t, err)
		assert.Equal(t, src.Previews["Mammal"], p)
	}
	assert.Equal(t, 1, src.Calls("preview", "Mammal"))

	require.NoError(t, s.Invalidate(ctx, "Mammal"))
	_, err := s.Preview(ctx, "Mammal")
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls("preview", "Mammal"))
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	src := testutils.NewFakeSource()
	s := cached.New(src, memory.NewCache())
	ctx := context.Background()

	_, err := s.LeadMarkup(ctx, "Ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	src.AddArticle("Ghost", "")
	markup, err := s.LeadMarkup(ctx, "Ghost")
	require.NoError(t, err)
	assert.Contains(t, markup, "Ghost")
}

func TestCachedSource_SingleFlight(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal")
	src.Gate = make(chan struct{})
	src.Entered = make(chan string, 10)
	s := cached.New(src, memory.NewCache())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.LeadMarkup(ctx, "Cat")
			assert.NoError(t, err)
		}()
	}

	<-src.Entered
	// Give the other callers time to join the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(src.Gate)
	wg.Wait()

	assert.Equal(t, 1, src.Calls("markup", "Cat"))
}

func TestCachedSource_CacheFailureFallsThrough(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal")
	s := cached.New(src, failingCache{})

	markup, err := s.LeadMarkup(context.Background(), "Cat")
	require.NoError(t, err)
	assert.Contains(t, markup, "/wiki/Mammal")
}

func TestCachedSource_PassThrough(t *testing.T) {
	src := testutils.NewFakeSource()
	src.Results = []domain.SearchResult{{Title: "Plato"}}
	src.Random = []string{"Stoicism", "Stoicism"}
	s := cached.New(src, memory.NewCache())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		title, err := s.RandomTitle(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Stoicism", title)

		results, err := s.Search(ctx, "plat", 5)
		require.NoError(t, err)
		assert.Len(t, results, 1)
	}
	assert.Equal(t, 2, src.Calls("random", ""))
	assert.Equal(t, 2, src.Calls("search", ""))
}
