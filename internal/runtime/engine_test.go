package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/wikisophy/internal/runtime"
	"github.com/aretw0/wikisophy/internal/testutils"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolverFunc adapts a function to runtime.StepResolver.
type resolverFunc func(ctx context.Context, title string) domain.StepResult

func (f resolverFunc) Resolve(ctx context.Context, title string) domain.StepResult {
	return f(ctx, title)
}

func newEngine(t *testing.T, src *testutils.FakeSource, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	engine, err := runtime.NewEngine(runtime.NewResolver(src, src), runtime.DefaultConfig(), opts...)
	require.NoError(t, err)
	return engine
}

func start(t *testing.T, e *runtime.Engine, title string) {
	t.Helper()
	_, err := e.Start(context.Background(), domain.Article{Title: title})
	require.NoError(t, err)
}

func TestEngine_Success(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal", "Animal", "Philosophy")
	engine := newEngine(t, src)
	start(t, engine, "Cat")

	state, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFinished, state.Status)
	assert.Equal(t, domain.OutcomeSuccess, state.Outcome)
	require.Len(t, state.Path, 4)
	assert.Equal(t, "Philosophy", state.Path[3].Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Philosophy", state.Path[3].URL)

	// Arriving at the target must not trigger a fetch for it.
	assert.Equal(t, 0, src.Calls("markup", "Philosophy"))
}

func TestEngine_TargetIsCaseInsensitive(t *testing.T) {
	src := testutils.NewFakeSource()
	engine := newEngine(t, src)
	start(t, engine, "PHILOSOPHY")

	state, err := engine.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, state.Outcome)
	assert.Len(t, state.Path, 1)
	assert.Equal(t, 0, src.TotalCalls(), "no fetch on the target")
}

func TestEngine_Cycle(t *testing.T) {
	src := testutils.Chain("A", "B", "C")
	src.Link("C", "A")
	engine := newEngine(t, src)
	start(t, engine, "A")

	ctx := context.Background()
	_, err := engine.Step(ctx) // A -> B
	require.NoError(t, err)
	_, err = engine.Step(ctx) // B -> C
	require.NoError(t, err)

	before := engine.State()
	require.Len(t, before.Path, 3)

	state, err := engine.Step(ctx) // C -> A (visited)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCycle, state.Outcome)
	assert.Equal(t, before.Path, state.Path, "the duplicate is detected, not appended")
}

func TestEngine_CycleIsExactString(t *testing.T) {
	// Same article under a different title spelling is not recognized as a revisit.
	src := testutils.Chain("Greek", "Language")
	src.Link("Language", "greek")
	src.AddArticle("greek", "")
	src.Link("greek", "Greek")
	engine := newEngine(t, src)
	start(t, engine, "Greek")

	state, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCycle, state.Outcome)
	assert.Len(t, state.Path, 3)
}

func TestEngine_DeadEnd(t *testing.T) {
	t.Run("No Link", func(t *testing.T) {
		src := testutils.Chain("Cat", "Stub")
		engine := newEngine(t, src)
		start(t, engine, "Cat")

		state, err := engine.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeDeadEnd, state.Outcome)
		assert.Len(t, state.Path, 2)
	})

	t.Run("Missing Article", func(t *testing.T) {
		src := testutils.NewFakeSource()
		engine := newEngine(t, src)
		start(t, engine, "Nowhere")

		state, err := engine.Step(context.Background())
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeDeadEnd, state.Outcome)
	})
}

func TestEngine_TransientFailureIsError(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal")
	src.MarkupErr["Mammal"] = errors.New("503 service unavailable")
	engine := newEngine(t, src)
	start(t, engine, "Cat")

	state, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeError, state.Outcome)
	assert.Len(t, state.Path, 2, "successful steps are not rolled back")
}

func TestEngine_PreviewFallback(t *testing.T) {
	src := testutils.NewFakeSource()
	src.Markup["Cat"] = `<p>The cat is a <a href="/wiki/Felis_catus">felid</a>.</p>`
	engine := newEngine(t, src)
	start(t, engine, "Cat")

	state, err := engine.Step(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, state.Status)
	require.Len(t, state.Path, 2)
	assert.Equal(t, domain.Article{
		Title: "Felis catus",
		URL:   "https://en.wikipedia.org/wiki/Felis_catus",
	}, state.Path[1])
}

func TestEngine_StepBudget(t *testing.T) {
	titles := make([]string, 60)
	for i := range titles {
		titles[i] = fmt.Sprintf("Article %d", i)
	}
	src := testutils.Chain(titles...)
	engine := newEngine(t, src)
	start(t, engine, titles[0])

	state, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDeadEnd, state.Outcome)
	assert.Len(t, state.Path, domain.DefaultMaxSteps+1)
	assert.Equal(t, domain.DefaultMaxSteps, state.Steps())
	assert.Equal(t, titles[50], state.Path[50].Title, "the completing node is recorded")
}

func TestEngine_CustomBudget(t *testing.T) {
	src := testutils.Chain("A", "B", "C", "D", "E")
	cfg := runtime.DefaultConfig()
	cfg.MaxSteps = 2
	engine, err := runtime.NewEngine(runtime.NewResolver(src, src), cfg)
	require.NoError(t, err)
	start(t, engine, "A")

	state, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeDeadEnd, state.Outcome)
	assert.Len(t, state.Path, 3)
}

func TestEngine_CancelWhilePending(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal")
	src.Gate = make(chan struct{})
	src.Entered = make(chan string, 1)
	engine := newEngine(t, src)
	start(t, engine, "Cat")

	done := make(chan domain.JourneyState, 1)
	go func() {
		state, err := engine.Step(context.Background())
		assert.NoError(t, err)
		done <- state
	}()

	<-src.Entered
	assert.True(t, engine.Pending())

	// A second step while the first is in flight is rejected.
	_, err := engine.Step(context.Background())
	assert.ErrorIs(t, err, domain.ErrStepPending)

	require.NoError(t, engine.Cancel(context.Background()))
	cancelled := engine.State()
	assert.Equal(t, domain.OutcomeCancelled, cancelled.Outcome)

	// Let the pending fetch complete with a valid link.
	close(src.Gate)

	select {
	case state := <-done:
		assert.Equal(t, domain.OutcomeCancelled, state.Outcome)
		assert.Len(t, state.Path, 1, "discarded result must not mutate the path")
	case <-time.After(2 * time.Second):
		t.Fatal("pending step did not return")
	}
	assert.Equal(t, cancelled, engine.State())
}

func TestEngine_ResetWhilePending(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	resolver := resolverFunc(func(ctx context.Context, title string) domain.StepResult {
		entered <- struct{}{}
		<-release
		return domain.Found{Title: title, Link: "/wiki/Stale", Preview: domain.Preview{Title: "Stale"}}
	})
	engine, err := runtime.NewEngine(resolver, runtime.DefaultConfig())
	require.NoError(t, err)
	start(t, engine, "Old")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = engine.Step(context.Background())
	}()
	<-entered

	engine.Reset()
	start(t, engine, "New")

	close(release)
	wg.Wait()

	state := engine.State()
	assert.Equal(t, domain.StatusRunning, state.Status)
	require.Len(t, state.Path, 1)
	assert.Equal(t, "New", state.Path[0].Title)
	assert.False(t, engine.Pending())
}

func TestEngine_ContextCancelled(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal", "Animal")
	src.Gate = make(chan struct{})
	src.Entered = make(chan string, 1)
	engine := newEngine(t, src)
	start(t, engine, "Cat")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan domain.JourneyState, 1)
	go func() {
		state, _ := engine.Run(ctx)
		done <- state
	}()

	<-src.Entered
	cancel()

	select {
	case state := <-done:
		assert.Equal(t, domain.OutcomeCancelled, state.Outcome)
		assert.Len(t, state.Path, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}

func TestEngine_Transitions(t *testing.T) {
	src := testutils.NewFakeSource()
	engine := newEngine(t, src)
	ctx := context.Background()

	t.Run("Step While Idle", func(t *testing.T) {
		_, err := engine.Step(ctx)
		assert.ErrorIs(t, err, domain.ErrNotRunning)
	})

	t.Run("Cancel While Idle", func(t *testing.T) {
		assert.ErrorIs(t, engine.Cancel(ctx), domain.ErrNotRunning)
	})

	t.Run("Start Twice", func(t *testing.T) {
		start(t, engine, "Cat")
		_, err := engine.Start(ctx, domain.Article{Title: "Dog"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Step After Finish", func(t *testing.T) {
		require.NoError(t, engine.Cancel(ctx))
		_, err := engine.Step(ctx)
		assert.ErrorIs(t, err, domain.ErrNotRunning)
		_, err = engine.Start(ctx, domain.Article{Title: "Dog"})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("Reset From Finished", func(t *testing.T) {
		state := engine.Reset()
		assert.Equal(t, domain.NewJourneyState(), state)
		start(t, engine, "Dog")
		assert.Equal(t, "Dog", engine.State().Path[0].Title)
	})
}

func TestEngine_InvalidConfig(t *testing.T) {
	src := testutils.NewFakeSource()
	resolver := runtime.NewResolver(src, src)

	_, err := runtime.NewEngine(nil, runtime.DefaultConfig())
	assert.Error(t, err)

	_, err = runtime.NewEngine(resolver, runtime.Config{Target: " ", MaxSteps: 10})
	assert.Error(t, err)

	_, err = runtime.NewEngine(resolver, runtime.Config{Target: "Philosophy", MaxSteps: 0})
	assert.Error(t, err)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	src := testutils.Chain("Cat", "Mammal", "Philosophy")

	var mu sync.Mutex
	var events []string
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, s)
	}

	hooks := domain.LifecycleHooks{
		OnStart: func(_ context.Context, e *domain.JourneyEvent) {
			record("start:" + e.Title)
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			record(fmt.Sprintf("step:%s->%s#%d", e.From, e.To, e.Step))
		},
		OnFinish: func(_ context.Context, e *domain.JourneyEvent) {
			record(fmt.Sprintf("finish:%s:%s:%d", e.Title, e.Outcome, e.PathLength))
		},
	}

	var diffs []*domain.JourneyDiff
	listener := func(prev, next domain.JourneyState) {
		diffs = append(diffs, domain.Diff("j", &prev, &next))
	}

	engine := newEngine(t, src, runtime.WithLifecycleHooks(hooks), runtime.WithStateListener(listener))
	start(t, engine, "Cat")
	_, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start:Cat",
		"step:Cat->Mammal#1",
		"step:Mammal->Philosophy#2",
		"finish:Philosophy:success:3",
	}, events)

	// start, two steps, success
	require.Len(t, diffs, 4)
	assert.Equal(t, domain.StatusRunning, *diffs[0].Status)
	assert.Equal(t, "Mammal", diffs[1].Appended[0].Title)
	assert.Equal(t, domain.OutcomeSuccess, *diffs[3].Outcome)
}
