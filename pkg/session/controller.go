package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/quest-weaver/internal/logger"
	"github.com/jwebster45206/quest-weaver/pkg/adventure"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is busy")
	ErrInvalidRequest  = errors.New("invalid request")
)

const DefaultLockTTL = 2 * time.Minute

// Store persists sessions and arbitrates per-session locks.
type Store interface {
	SaveSession(ctx context.Context, s *Session) error
	// LoadSession returns ErrSessionNotFound for unknown ids.
	LoadSession(ctx context.Context, id uuid.UUID) (*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	AcquireLock(ctx context.Context, id uuid.UUID, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, id uuid.UUID, owner string) error
}

// NarrationFilter rewrites narrator text before it reaches the transcript.
type NarrationFilter interface {
	FilterText(text string) string
}

// Result is the outcome of one action on a session.
type Result struct {
	Session *Session `json:"session"`
	Lines   []Line   `json:"lines"`
	// Failed marks a generation failure that was turned into an error line.
	Failed bool `json:"failed"`
	// Skipped marks an action that did nothing, such as an empty command.
	Skipped bool `json:"skipped"`
}

// Option configures a Controller.
type Option func(*Controller)

// WithNarrationFilter filters narrator lines through f.
func WithNarrationFilter(f NarrationFilter) Option {
	return func(c *Controller) {
		c.filter = f
	}
}

// WithLockTTL bounds how long a crashed caller can hold a session.
func WithLockTTL(ttl time.Duration) Option {
	return func(c *Controller) {
		if ttl > 0 {
			c.lockTTL = ttl
		}
	}
}

// Controller owns session state. It runs one generation at a time per
// session and turns generation failures into transcript lines.
type Controller struct {
	store   Store
	gen     adventure.Generator
	logger  *slog.Logger
	filter  NarrationFilter
	lockTTL time.Duration
}

func NewController(store Store, gen adventure.Generator, log *slog.Logger, opts ...Option) *Controller {
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		store:   store,
		gen:     gen,
		logger:  log,
		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create starts and stores a new unstarted session.
func (c *Controller) Create(ctx context.Context) (*Session, error) {
	s := New()
	if err := c.store.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	c.sessionLogger(s.ID).Debug("Session created")
	return s, nil
}

func (c *Controller) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return c.store.LoadSession(ctx, id)
}

// Delete removes a session. It returns ErrSessionBusy while an action on
// the session is in flight.
func (c *Controller) Delete(ctx context.Context, id uuid.UUID) error {
	release, err := c.lock(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	if err := c.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Bootstrap generates the opening story for a session. A missing or blank
// prompt is rejected with ErrInvalidRequest before the session is touched.
func (c *Controller) Bootstrap(ctx context.Context, id uuid.UUID, req *adventure.BootstrapRequest) (*Result, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: missing story request", ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return c.update(ctx, id, func(s Session) (Session, []Line, bool) {
		resp, err := adventure.Bootstrap(ctx, c.gen, req)
		if err != nil {
			c.logFailure(id, err)
			next, lines := ApplyBootstrapFailure(s)
			return next, lines, true
		}
		next, lines := ApplyBootstrap(s, resp)
		return next, lines, false
	})
}

// Interpret runs a player command. A blank command is skipped without
// touching the session.
func (c *Controller) Interpret(ctx context.Context, id uuid.UUID, command string) (*Result, error) {
	if strings.TrimSpace(command) == "" {
		s, err := c.store.LoadSession(ctx, id)
		if err != nil {
			return nil, err
		}
		return &Result{Session: s, Lines: []Line{}, Skipped: true}, nil
	}

	return c.update(ctx, id, func(s Session) (Session, []Line, bool) {
		resp, err := adventure.Interpret(ctx, c.gen, &adventure.InterpretRequest{
			Command:   command,
			GameState: s.NarrativeState,
		})
		if err != nil {
			c.logFailure(id, err)
			next, lines := ApplyInterpretFailure(s, command)
			return next, lines, true
		}
		next, lines := ApplyInterpret(s, command, resp)
		return next, lines, false
	})
}

// AdjustDifficulty asks for a new difficulty after a challenge.
func (c *Controller) AdjustDifficulty(ctx context.Context, id uuid.UUID, playerSuccess bool) (*Result, error) {
	return c.update(ctx, id, func(s Session) (Session, []Line, bool) {
		resp, err := adventure.AdjustDifficulty(ctx, c.gen, &adventure.AdjustDifficultyRequest{
			PlayerSuccess:     playerSuccess,
			CurrentDifficulty: s.Difficulty,
		})
		if err != nil {
			c.logFailure(id, err)
			next, lines := ApplyDifficultyFailure(s)
			return next, lines, true
		}
		next, lines := ApplyDifficulty(s, resp)
		c.sessionLogger(id).Debug("Difficulty adjusted",
			"from", s.Difficulty,
			"to", next.Difficulty,
			"proposed", resp.NewDifficulty)
		return next, lines, false
	})
}

// update loads the session under its lock, applies fn and saves the result.
func (c *Controller) update(ctx context.Context, id uuid.UUID, fn func(Session) (Session, []Line, bool)) (*Result, error) {
	release, err := c.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := c.store.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	next, lines, failed := fn(*current)
	c.filterNarration(&next, lines)
	if lines == nil {
		lines = []Line{}
	}
	next.UpdatedAt = time.Now().UTC()

	if err := c.store.SaveSession(ctx, &next); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return &Result{Session: &next, Lines: lines, Failed: failed}, nil
}

// lock takes the session lock for one action. The returned func releases it
// even if ctx has been cancelled.
func (c *Controller) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	owner := uuid.NewString()
	ok, err := c.store.AcquireLock(ctx, id, owner, c.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock session: %w", err)
	}
	if !ok {
		return nil, ErrSessionBusy
	}
	return func() {
		if err := c.store.ReleaseLock(context.WithoutCancel(ctx), id, owner); err != nil {
			c.sessionLogger(id).Warn("Failed to release session lock", "error", err)
		}
	}, nil
}

func (c *Controller) sessionLogger(id uuid.UUID) *slog.Logger {
	return logger.WithSession(c.logger, id.String())
}

// filterNarration rewrites narrator lines in the delta and in the matching
// tail of the transcript. lines must be the last entries of s.Transcript.
func (c *Controller) filterNarration(s *Session, lines []Line) {
	if c.filter == nil {
		return
	}
	offset := len(s.Transcript) - len(lines)
	for i := range lines {
		if lines[i].Kind != LineNarrator {
			continue
		}
		lines[i].Text = c.filter.FilterText(lines[i].Text)
		s.Transcript[offset+i] = lines[i]
	}
}

func (c *Controller) logFailure(id uuid.UUID, err error) {
	operation := ""
	reason := ""
	var genErr *adventure.GenerationError
	if errors.As(err, &genErr) {
		operation = genErr.Operation
		reason = string(genErr.Reason)
	}
	c.sessionLogger(id).Error("Generation failed",
		"operation", operation,
		"reason", reason,
		"error", err)
}
