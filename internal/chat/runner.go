// Package chat drives the send flow: optimistic local append, server
// analysis, and rollback when the server rejects the message.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
	"github.com/Ajaypalvai07/ai-help-center/internal/conversation"
	"github.com/Ajaypalvai07/ai-help-center/internal/logging"
	"github.com/Ajaypalvai07/ai-help-center/internal/session"
)

const instrumentationName = "github.com/Ajaypalvai07/ai-help-center/internal/chat"

// ErrEmptyMessage is returned when the message is empty after sanitization.
// Nothing is persisted or sent in that case.
var ErrEmptyMessage = errors.New("chat: message is empty")

// AnalyzeClient is the slice of the API client the runner depends on.
type AnalyzeClient interface {
	Analyze(ctx context.Context, req api.AnalyzeRequest) (*api.AnalyzeResponse, error)
}

// Transcript is the conversation store surface the runner mutates.
type Transcript interface {
	Load(categoryID string) []conversation.Message
	Append(categoryID string, msg conversation.Message) []conversation.Message
	Remove(categoryID, messageID string) []conversation.Message
	ReplaceID(categoryID, oldID, newID string) []conversation.Message
	SetLastCategory(categoryID string)
}

// Sessions exposes the current session for attribution and forced
// sign-out when the backend revokes the token mid-flow.
type Sessions interface {
	Current() session.Session
	TouchActivity(now time.Time)
	SignOut(ctx context.Context)
}

// Runner sends user messages and keeps the transcript consistent with
// what the server actually accepted.
type Runner struct {
	api        AnalyzeClient
	transcript Transcript
	sessions   Sessions
	logger     *logging.Logger
	clock      func() time.Time

	sendCounter     metric.Int64Counter
	rollbackCounter metric.Int64Counter
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock injects the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) { r.clock = clock }
}

// NewRunner creates a chat runner.
func NewRunner(a AnalyzeClient, transcript Transcript, sessions Sessions, logger *logging.Logger, opts ...Option) (*Runner, error) {
	if a == nil {
		return nil, errors.New("api client is required")
	}
	if transcript == nil {
		return nil, errors.New("transcript store is required")
	}
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	r := &Runner{
		api:        a,
		transcript: transcript,
		sessions:   sessions,
		logger:     logger,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.initMetrics()
	return r, nil
}

func (r *Runner) initMetrics() {
	meter := otel.Meter(instrumentationName)
	var err error

	r.sendCounter, err = meter.Int64Counter(
		"helpcenter.chat.sends_total",
		metric.WithDescription("Total number of user messages sent for analysis"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		r.logger.Warn(context.Background(), "failed to create send counter", zap.Error(err))
	}

	r.rollbackCounter, err = meter.Int64Counter(
		"helpcenter.chat.rollbacks_total",
		metric.WithDescription("Total number of optimistic appends rolled back after a failed send"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		r.logger.Warn(context.Background(), "failed to create rollback counter", zap.Error(err))
	}
}

// Send submits a user message to a category and returns the transcript
// after the assistant reply lands.
//
// The user message is appended locally before the request so the
// transcript never loses input to a slow network. If the analyze call
// fails, that optimistic append is removed and the error is returned;
// the transcript ends up exactly as it was before the call.
func (r *Runner) Send(ctx context.Context, categoryID, content string) ([]conversation.Message, error) {
	ctx = logging.WithCategory(ctx, categoryID)
	now := r.clock()

	userMsg := conversation.NewUserMessage(content, categoryID, now)
	if userMsg.Content == "" {
		return nil, ErrEmptyMessage
	}

	r.transcript.Append(categoryID, userMsg)
	r.transcript.SetLastCategory(categoryID)
	r.sessions.TouchActivity(now)
	if r.sendCounter != nil {
		r.sendCounter.Add(ctx, 1)
	}

	req := api.AnalyzeRequest{
		Content:   userMsg.Content,
		Category:  categoryID,
		Timestamp: now.UTC().Format(time.RFC3339),
		Type:      "text",
	}
	if current := r.sessions.Current(); current.User != nil {
		req.UserID = current.User.ID
	}

	resp, err := r.api.Analyze(ctx, req)
	if err != nil {
		r.transcript.Remove(categoryID, userMsg.ID)
		if r.rollbackCounter != nil {
			r.rollbackCounter.Add(ctx, 1)
		}
		r.logger.Warn(ctx, "message send failed, rolled back optimistic append",
			zap.String("message.id", userMsg.ID),
			zap.Error(err))
		if errors.Is(err, api.ErrUnauthenticated) {
			// The backend revoked the token between verification and
			// this call; fail closed instead of retrying with it.
			r.sessions.SignOut(ctx)
		}
		return nil, fmt.Errorf("send message: %w", err)
	}

	if resp.UserMessageID != "" && resp.UserMessageID != userMsg.ID {
		r.transcript.ReplaceID(categoryID, userMsg.ID, resp.UserMessageID)
	}

	replyAt := r.clock()
	if t, err := time.Parse(time.RFC3339, resp.CreatedAt); err == nil {
		replyAt = t
	}
	reply := conversation.NewAssistantMessage(resp.ID, resp.Content, categoryID, replyAt)

	return r.transcript.Append(categoryID, reply), nil
}
