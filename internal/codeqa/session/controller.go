// Package session drives question-answer turns against the backend and folds
// the answer stream into a conversation store.
package session

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/longkey1/codeqa/internal/codeqa"
	"github.com/longkey1/codeqa/internal/codeqa/client"
	"github.com/longkey1/codeqa/internal/codeqa/conversation"
	"github.com/longkey1/codeqa/internal/codeqa/stream"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Phase is the controller's position in a turn.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSending
	PhaseStreaming
)

func (p Phase) String() string {
	switch p {
	case PhaseSending:
		return "sending"
	case PhaseStreaming:
		return "streaming"
	default:
		return "idle"
	}
}

// Streamer opens the answer stream for a query.
type Streamer interface {
	QueryStream(ctx context.Context, req client.QueryRequest) (io.ReadCloser, error)
}

// Outcome summarizes the latest finished turn.
type Outcome struct {
	TurnID string
	// Err is the failure shown in place of the answer, nil on success.
	Err error
	// EndReceived is false when the stream ended without its end record.
	EndReceived bool
}

// Controller runs at most one turn at a time against a Streamer.
type Controller struct {
	store    *conversation.Store
	streamer Streamer

	templateName   string
	includeContext bool
	delimiter      string
	logger         zerolog.Logger

	mu      sync.Mutex
	phase   Phase
	cancel  context.CancelFunc
	outcome Outcome
}

// Option configures a Controller.
type Option func(*Controller)

// WithTemplateName sets the server-side prompt template used for queries.
func WithTemplateName(name string) Option {
	return func(c *Controller) {
		if name != "" {
			c.templateName = name
		}
	}
}

// WithIncludeContext sets whether the backend is asked to append retrieval context.
func WithIncludeContext(include bool) Option {
	return func(c *Controller) {
		c.includeContext = include
	}
}

// WithDelimiter overrides the literal separating the answer from its context.
func WithDelimiter(delimiter string) Option {
	return func(c *Controller) {
		c.delimiter = delimiter
	}
}

// WithLogger sets the logger for turn diagnostics. Each turn logs with a
// short turn ID attached.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController creates a Controller committing turns to store.
func NewController(store *conversation.Store, streamer Streamer, opts ...Option) *Controller {
	c := &Controller{
		store:          store,
		streamer:       streamer,
		templateName:   codeqa.DefaultTemplateName,
		includeContext: true,
		delimiter:      codeqa.ContextDelimiter,
		logger:         log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "session").Logger()
	return c
}

// Store returns the conversation store this controller commits to.
func (c *Controller) Store() *conversation.Store {
	return c.store
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// LastOutcome returns the summary of the latest finished turn.
func (c *Controller) LastOutcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome
}

// Cancel aborts the turn in flight. It does nothing when idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Submit asks question about repository (nil for all repositories) and runs the
// turn to completion, committing every step to the store.
//
// It returns codeqa.ErrInvalidInput for a blank question and
// codeqa.ErrTurnInFlight while another turn runs; neither changes the store.
// Any failure after the turn has started is shown as the assistant's reply and
// reported through LastOutcome, not returned.
func (c *Controller) Submit(ctx context.Context, question string, repository *string) error {
	if strings.TrimSpace(question) == "" {
		return codeqa.ErrInvalidInput
	}

	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return codeqa.ErrTurnInFlight
	}
	ctx, cancel := context.WithCancel(ctx)
	c.phase = PhaseSending
	c.cancel = cancel
	c.mu.Unlock()

	turnID := uuid.New().String()
	logger := c.logger.With().Str("turn", turnID[:8]).Logger()

	outcome := c.runTurn(ctx, logger, question, repository)
	outcome.TurnID = turnID
	cancel()

	c.mu.Lock()
	c.phase = PhaseIdle
	c.cancel = nil
	c.outcome = outcome
	c.mu.Unlock()
	return nil
}

func (c *Controller) runTurn(ctx context.Context, logger zerolog.Logger, question string, repository *string) Outcome {
	if err := c.store.AppendUserMessage(question); err != nil {
		c.store.FailTurn(err)
		return Outcome{Err: err}
	}
	c.store.BeginAssistantTurn()

	started := time.Now()
	logger.Debug().
		Str("repository", codeqa.FormatRepository(repository)).
		Str("template", c.templateName).
		Msg("turn started")

	body, err := c.streamer.QueryStream(ctx, client.QueryRequest{
		Question:       question,
		Repository:     repository,
		TemplateName:   c.templateName,
		IncludeContext: c.includeContext,
	})
	if err != nil {
		err = cancelCause(ctx, err)
		logger.Warn().Err(err).Msg("opening answer stream failed")
		c.store.FailTurn(err)
		return Outcome{Err: err}
	}
	defer body.Close()

	c.setPhase(PhaseStreaming)

	acc := codeqa.NewAccumulator(c.delimiter)
	endReceived := false
	decoder := stream.NewDecoder(body, stream.WithLogger(logger))

	for ev, err := range decoder.Events() {
		if err != nil {
			err = cancelCause(ctx, err)
			logger.Warn().Err(err).Msg("answer stream failed")
			c.store.FailTurn(err)
			return Outcome{Err: err, EndReceived: endReceived}
		}

		switch ev.Kind {
		case stream.KindContent:
			res := acc.Apply(ev.Content)
			c.store.UpdateLastAssistantMessage(res.Answer)
			if res.HasContext {
				c.store.SetLastContext(res.Context)
			}
			if res.JustSplit {
				logger.Debug().Msg("answer complete, receiving context")
			}
		case stream.KindEnd:
			endReceived = true
			c.store.SetExecutionTime(ev.ExecutionTime)
		case stream.KindStart:
			logger.Debug().
				Str("repository", codeqa.FormatRepository(ev.Repository)).
				Msg("backend accepted query")
		case stream.KindServerError:
			logger.Warn().Str("detail", ev.Content).Msg("backend reported an error")
		case stream.KindMalformed:
		}
	}

	if !endReceived {
		logger.Warn().
			Int("lines", decoder.Lines()).
			Msg("protocol violation: answer stream ended without an end record")
	}
	c.store.EndTurn()

	logger.Debug().
		Dur("elapsed", time.Since(started)).
		Bool("context", acc.DelimiterFound()).
		Msg("turn finished")
	return Outcome{EndReceived: endReceived}
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = p
}

// cancelCause reports a cancelled turn as context.Canceled even when the
// transport surfaced it as some other error.
func cancelCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return ctxErr
	}
	return err
}
