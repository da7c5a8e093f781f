package session_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/quest-weaver/pkg/adventure"
	"github.com/jwebster45206/quest-weaver/pkg/session"
	"github.com/jwebster45206/quest-weaver/pkg/storage"
)

// scriptedGenerator answers each template with a fixed reply.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	calls     []string
	block     chan struct{}
}

func (g *scriptedGenerator) Generate(ctx context.Context, req *adventure.GenerationRequest) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req.TemplateID)
	block := g.block
	g.mu.Unlock()
	if block != nil {
		<-block
	}
	if g.err != nil {
		return "", g.err
	}
	return g.responses[req.TemplateID], nil
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type upperFilter struct{}

func (upperFilter) FilterText(text string) string { return strings.ToUpper(text) }

func newTestController(gen adventure.Generator, opts ...session.Option) (*session.Controller, *storage.MemoryStorage) {
	store := storage.NewMemoryStorage()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return session.NewController(store, gen, logger, opts...), store
}

func TestController_EndToEnd(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{responses: map[string]string{
		adventure.TemplateGenerateStory:    `{"story":"A dragon sleeps on a hoard of gold.","progress":"Dragons await."}`,
		adventure.TemplateInterpretCommand: `{"narration":"The dragon stirs.","updatedGameState":"The dragon is awake."}`,
	}}
	c, _ := newTestController(gen)

	s, err := c.Create(ctx)
	require.NoError(t, err)

	res, err := c.Bootstrap(ctx, s.ID, &adventure.BootstrapRequest{Prompt: "fantasy adventure with dragons"})
	require.NoError(t, err)
	assert.False(t, res.Failed)
	assert.Equal(t, session.PhaseActive, res.Session.Phase)
	assert.Equal(t, "A dragon sleeps on a hoard of gold.", res.Session.NarrativeState)

	var narrator []session.Line
	for _, l := range res.Session.Transcript {
		if l.Kind == session.LineNarrator {
			narrator = append(narrator, l)
		}
	}
	require.Len(t, narrator, 1)
	assert.Equal(t, "A dragon sleeps on a hoard of gold.", narrator[0].Text)

	res, err = c.Interpret(ctx, s.ID, "look around")
	require.NoError(t, err)
	assert.Equal(t, "The dragon is awake.", res.Session.NarrativeState)
	assert.Equal(t, []session.Line{
		{Kind: session.LinePlayer, Text: "look around"},
		{Kind: session.LineNarrator, Text: "The dragon stirs."},
		{Kind: session.LinePrompt, Text: session.NextPromptText},
	}, res.Lines)

	stored, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Session.Transcript, stored.Transcript)
	assert.Len(t, stored.Transcript, 5)
}

func TestController_InterpretBlankCommand(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{}
	c, _ := newTestController(gen)

	s, err := c.Create(ctx)
	require.NoError(t, err)

	for _, cmd := range []string{"", "   ", "\t\n"} {
		res, err := c.Interpret(ctx, s.ID, cmd)
		require.NoError(t, err)
		assert.True(t, res.Skipped)
		assert.Empty(t, res.Lines)
		assert.Equal(t, s.Transcript, res.Session.Transcript)
		assert.Equal(t, s.NarrativeState, res.Session.NarrativeState)
	}
	assert.Zero(t, gen.callCount())
}

func TestController_InterpretFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{responses: map[string]string{
		adventure.TemplateGenerateStory:    `{"story":"Exact state.","progress":"p"}`,
		adventure.TemplateInterpretCommand: `not json at all`,
	}}
	c, _ := newTestController(gen)

	s, _ := c.Create(ctx)
	_, err := c.Bootstrap(ctx, s.ID, &adventure.BootstrapRequest{Prompt: "heist"})
	require.NoError(t, err)

	res, err := c.Interpret(ctx, s.ID, "open vault")
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.Equal(t, "Exact state.", res.Session.NarrativeState)
	assert.Equal(t, []session.Line{
		{Kind: session.LinePlayer, Text: "open vault"},
		{Kind: session.LineError, Text: session.CommandFailedText},
		{Kind: session.LinePrompt, Text: session.NextPromptText},
	}, res.Lines)
}

func TestController_BootstrapFailure(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{err: errors.New("timeout")}
	c, _ := newTestController(gen)

	s, _ := c.Create(ctx)
	res, err := c.Bootstrap(ctx, s.ID, &adventure.BootstrapRequest{Prompt: "noir"})
	require.NoError(t, err)
	assert.True(t, res.Failed)
	assert.Equal(t, session.PhaseUnstarted, res.Session.Phase)
	assert.Equal(t, []session.Line{{Kind: session.LineError, Text: session.StoryFailedText}}, res.Lines)
}

func TestController_AdjustDifficulty(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		success  bool
		reply    string
		want     int
		failed   bool
		wantLine bool
	}{
		{"clamps high", 10, true, `{"newDifficulty":13,"reasoning":"r"}`, 10, false, false},
		{"clamps low", 1, false, `{"newDifficulty":-1,"reasoning":"r"}`, 1, false, false},
		{"normal step", 5, true, `{"newDifficulty":7,"reasoning":"r"}`, 7, false, false},
		{"bad reply", 5, true, `{"newDifficulty":"seven","reasoning":"r"}`, 5, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			gen := &scriptedGenerator{responses: map[string]string{
				adventure.TemplateAdjustDifficulty: tt.reply,
			}}
			c, store := newTestController(gen)

			s := session.New()
			s.Difficulty = tt.start
			require.NoError(t, store.SaveSession(ctx, s))

			res, err := c.AdjustDifficulty(ctx, s.ID, tt.success)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Session.Difficulty)
			assert.Equal(t, tt.failed, res.Failed)
			if tt.wantLine {
				assert.Equal(t, []session.Line{{Kind: session.LineError, Text: session.DifficultyFailedText}}, res.Lines)
			} else {
				assert.Empty(t, res.Lines)
				assert.Equal(t, s.Transcript, res.Session.Transcript)
			}
		})
	}
}

func TestController_NotFound(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(&scriptedGenerator{})

	_, err := c.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = c.Interpret(ctx, uuid.New(), "look")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = c.Interpret(ctx, uuid.New(), " ")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = c.AdjustDifficulty(ctx, uuid.New(), true)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestController_Delete(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(&scriptedGenerator{})

	s, _ := c.Create(ctx)
	require.NoError(t, c.Delete(ctx, s.ID))
	_, err := c.Get(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestController_DeleteDuringGeneration(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{
		responses: map[string]string{
			adventure.TemplateGenerateStory: `{"story":"Rain on the docks.","progress":"arrived"}`,
		},
		block: make(chan struct{}),
	}
	c, _ := newTestController(gen)
	s, _ := c.Create(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := c.Bootstrap(ctx, s.ID, &adventure.BootstrapRequest{Prompt: "noir"})
		done <- err
	}()

	require.Eventually(t, func() bool { return gen.callCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, c.Delete(ctx, s.ID), session.ErrSessionBusy)

	close(gen.block)
	require.NoError(t, <-done)

	// The deleted session stays gone once the story has been saved.
	require.NoError(t, c.Delete(ctx, s.ID))
	_, err := c.Get(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestController_BootstrapInvalidRequest(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{}
	c, _ := newTestController(gen)
	s, _ := c.Create(ctx)

	_, err := c.Bootstrap(ctx, s.ID, nil)
	assert.ErrorIs(t, err, session.ErrInvalidRequest)

	_, err = c.Bootstrap(ctx, s.ID, &adventure.BootstrapRequest{Prompt: "   "})
	assert.ErrorIs(t, err, session.ErrInvalidRequest)

	assert.Equal(t, 0, gen.callCount())
	got, err := c.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseUnstarted, got.Phase)
	assert.Len(t, got.Transcript, len(s.Transcript))
}

func TestController_LogsCarrySessionID(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	gen := &scriptedGenerator{err: errors.New("backend down")}
	c := session.NewController(storage.NewMemoryStorage(), gen, logger)

	s, _ := c.Create(ctx)
	_, err := c.Interpret(ctx, s.ID, "look")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="Generation failed"`)
	assert.Contains(t, out, "session_id="+s.ID.String())
	assert.Contains(t, out, "reason=backend")
}

func TestController_Busy(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{
		responses: map[string]string{
			adventure.TemplateInterpretCommand: `{"narration":"n","updatedGameState":"g"}`,
		},
		block: make(chan struct{}),
	}
	c, _ := newTestController(gen)
	s, _ := c.Create(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := c.Interpret(ctx, s.ID, "first")
		done <- err
	}()

	require.Eventually(t, func() bool { return gen.callCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := c.Interpret(ctx, s.ID, "second")
	assert.ErrorIs(t, err, session.ErrSessionBusy)

	close(gen.block)
	require.NoError(t, <-done)

	// The lock is released after the first call completes.
	res, err := c.Interpret(ctx, s.ID, "third")
	require.NoError(t, err)
	assert.Equal(t, "third", res.Lines[0].Text)
	assert.Equal(t, 2, gen.callCount())
}

func TestController_NarrationFilter(t *testing.T) {
	ctx := context.Background()
	gen := &scriptedGenerator{responses: map[string]string{
		adventure.TemplateInterpretCommand: `{"narration":"quiet words","updatedGameState":"raw state"}`,
	}}
	c, _ := newTestController(gen, session.WithNarrationFilter(upperFilter{}))

	s, _ := c.Create(ctx)
	res, err := c.Interpret(ctx, s.ID, "whisper")
	require.NoError(t, err)

	assert.Equal(t, "whisper", res.Lines[0].Text)
	assert.Equal(t, "QUIET WORDS", res.Lines[1].Text)
	assert.Equal(t, "QUIET WORDS", res.Session.Transcript[2].Text)
	assert.Equal(t, "raw state", res.Session.NarrativeState)
}
