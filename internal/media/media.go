// Package media runs the upload-then-poll flow for voice and image
// analysis jobs.
//
// Uploads return immediately with a job ID while the backend transcribes
// in the background. The poller checks the job at a fixed interval until
// it reaches a terminal status or the attempt budget runs out.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
	"github.com/Ajaypalvai07/ai-help-center/internal/logging"
)

const instrumentationName = "github.com/Ajaypalvai07/ai-help-center/internal/media"

var (
	// ErrPollTimeout means the job never reached a terminal status inside
	// the attempt budget. The job may still finish server-side.
	ErrPollTimeout = errors.New("media analysis timed out")

	// ErrAnalysisFailed means the backend reported a terminal error status
	// for the job.
	ErrAnalysisFailed = errors.New("media analysis failed")
)

// Analyzer is the API surface the client needs. api.Client satisfies it.
type Analyzer interface {
	UploadMedia(ctx context.Context, kind api.MediaKind, filename string, r io.Reader) (*api.UploadResponse, error)
	Analysis(ctx context.Context, jobID string) (*api.AnalysisJob, error)
}

// Client uploads media and polls the resulting analysis job.
type Client struct {
	api         Analyzer
	logger      *logging.Logger
	maxAttempts int
	delay       time.Duration
	sleep       func(ctx context.Context, d time.Duration) error

	uploadCounter  metric.Int64Counter
	timeoutCounter metric.Int64Counter
}

// Option customizes a Client.
type Option func(*Client)

// WithSleep injects the inter-attempt wait. Used by tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// New creates a media client polling up to maxAttempts times, waiting
// delay between attempts.
func New(a Analyzer, maxAttempts int, delay time.Duration, logger *logging.Logger, opts ...Option) (*Client, error) {
	if a == nil {
		return nil, errors.New("api client is required")
	}
	if maxAttempts <= 0 {
		return nil, errors.New("max attempts must be positive")
	}
	if delay <= 0 {
		return nil, errors.New("poll delay must be positive")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	c := &Client{
		api:         a,
		logger:      logger,
		maxAttempts: maxAttempts,
		delay:       delay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.initMetrics()
	return c, nil
}

func (c *Client) initMetrics() {
	meter := otel.Meter(instrumentationName)
	var err error

	c.uploadCounter, err = meter.Int64Counter(
		"helpcenter.media.uploads_total",
		metric.WithDescription("Total number of media uploads accepted by the backend"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		c.logger.Warn(context.Background(), "failed to create upload counter", zap.Error(err))
	}

	c.timeoutCounter, err = meter.Int64Counter(
		"helpcenter.media.poll_timeouts_total",
		metric.WithDescription("Total number of analysis jobs abandoned after the poll budget"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		c.logger.Warn(context.Background(), "failed to create timeout counter", zap.Error(err))
	}
}

// Analyze uploads the asset and blocks until the analysis job finishes.
//
// It returns ErrAnalysisFailed when the backend marks the job failed and
// ErrPollTimeout when the job is still processing after the last attempt.
// Context cancellation aborts between attempts.
func (c *Client) Analyze(ctx context.Context, kind api.MediaKind, filename string, r io.Reader) (*api.AnalysisResult, error) {
	up, err := c.api.UploadMedia(ctx, kind, filename, r)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", kind, err)
	}
	if c.uploadCounter != nil {
		c.uploadCounter.Add(ctx, 1)
	}
	c.logger.Debug(ctx, "media uploaded",
		zap.String("media.kind", string(kind)),
		zap.String("job.id", up.ID))

	if up.Status.Terminal() {
		return c.finish(ctx, &api.AnalysisJob{ID: up.ID, Status: up.Status})
	}
	return c.Poll(ctx, up.ID)
}

// Poll checks a job until it is terminal or the attempt budget runs out.
func (c *Client) Poll(ctx context.Context, jobID string) (*api.AnalysisResult, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.delay); err != nil {
				return nil, err
			}
		}

		job, err := c.api.Analysis(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("poll job %s: %w", jobID, err)
		}
		c.logger.Trace(ctx, "polled analysis job",
			zap.String("job.id", jobID),
			zap.Int("attempt", attempt),
			zap.String("status", string(job.Status)))

		if job.Status.Terminal() {
			return c.finish(ctx, job)
		}
	}

	if c.timeoutCounter != nil {
		c.timeoutCounter.Add(ctx, 1)
	}
	c.logger.Warn(ctx, "analysis job never finished",
		zap.String("job.id", jobID),
		zap.Int("attempts", c.maxAttempts))
	return nil, fmt.Errorf("job %s after %d attempts: %w", jobID, c.maxAttempts, ErrPollTimeout)
}

func (c *Client) finish(ctx context.Context, job *api.AnalysisJob) (*api.AnalysisResult, error) {
	if job.Status == api.StatusError {
		if job.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrAnalysisFailed, job.Error)
		}
		return nil, ErrAnalysisFailed
	}
	if job.Result == nil {
		return nil, fmt.Errorf("%w: completed job %s has no result", api.ErrInvalidResponse, job.ID)
	}
	return job.Result, nil
}

// sleepContext waits for d unless the context ends first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
