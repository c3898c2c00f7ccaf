package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
	"github.com/Ajaypalvai07/ai-help-center/internal/logging"
)

type fakeAnalyzer struct {
	uploadErr  error
	uploadResp *api.UploadResponse

	jobs     []*api.AnalysisJob
	jobErr   error
	pollCall int
}

func (f *fakeAnalyzer) UploadMedia(_ context.Context, _ api.MediaKind, _ string, _ io.Reader) (*api.UploadResponse, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadResp, nil
}

func (f *fakeAnalyzer) Analysis(_ context.Context, _ string) (*api.AnalysisJob, error) {
	if f.jobErr != nil {
		return nil, f.jobErr
	}
	job := f.jobs[f.pollCall]
	if f.pollCall < len(f.jobs)-1 {
		f.pollCall++
	}
	return job, nil
}

func processing(id string) *api.AnalysisJob {
	return &api.AnalysisJob{ID: id, Status: api.StatusProcessing}
}

func completed(id, text string) *api.AnalysisJob {
	return &api.AnalysisJob{
		ID:     id,
		Status: api.StatusCompleted,
		Result: &api.AnalysisResult{Text: text, Confidence: 0.93},
	}
}

func newTestClient(t *testing.T, a Analyzer) (*Client, *[]time.Duration) {
	t.Helper()

	var waits []time.Duration
	c, err := New(a, 10, time.Second, logging.NewNop(),
		WithSleep(func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}))
	require.NoError(t, err)
	return c, &waits
}

func TestNew_Validation(t *testing.T) {
	fake := &fakeAnalyzer{}

	_, err := New(nil, 10, time.Second, nil)
	require.Error(t, err)

	_, err = New(fake, 0, time.Second, nil)
	require.Error(t, err)

	_, err = New(fake, 10, 0, nil)
	require.Error(t, err)
}

func TestAnalyze_CompletesAfterPolling(t *testing.T) {
	fake := &fakeAnalyzer{
		uploadResp: &api.UploadResponse{ID: "job-1", Status: api.StatusProcessing},
		jobs: []*api.AnalysisJob{
			processing("job-1"),
			processing("job-1"),
			completed("job-1", "hello world"),
		},
	}
	client, waits := newTestClient(t, fake)

	result, err := client.Analyze(context.Background(), api.MediaVoice, "note.wav", strings.NewReader("audio"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Text)

	// No wait before the first attempt, one second between the rest.
	require.Len(t, *waits, 2)
	assert.Equal(t, time.Second, (*waits)[0])
}

func TestAnalyze_UploadFailureSurfaces(t *testing.T) {
	uploadErr := &api.Error{Status: 413, Detail: "file too large"}
	client, _ := newTestClient(t, &fakeAnalyzer{uploadErr: uploadErr})

	_, err := client.Analyze(context.Background(), api.MediaImage, "big.png", strings.NewReader("img"))
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 413, apiErr.Status)
}

func TestPoll_TimesOutAfterBudget(t *testing.T) {
	fake := &fakeAnalyzer{jobs: []*api.AnalysisJob{processing("job-2")}}
	client, waits := newTestClient(t, fake)

	_, err := client.Poll(context.Background(), "job-2")
	require.ErrorIs(t, err, ErrPollTimeout)
	assert.NotErrorIs(t, err, ErrAnalysisFailed)
	assert.Len(t, *waits, 9)
}

func TestPoll_FailedJobIsNotTimeout(t *testing.T) {
	fake := &fakeAnalyzer{jobs: []*api.AnalysisJob{
		{ID: "job-3", Status: api.StatusError, Error: "unsupported codec"},
	}}
	client, _ := newTestClient(t, fake)

	_, err := client.Poll(context.Background(), "job-3")
	require.ErrorIs(t, err, ErrAnalysisFailed)
	assert.NotErrorIs(t, err, ErrPollTimeout)
	assert.Contains(t, err.Error(), "unsupported codec")
}

func TestPoll_CompletedWithoutResultIsInvalid(t *testing.T) {
	fake := &fakeAnalyzer{jobs: []*api.AnalysisJob{
		{ID: "job-4", Status: api.StatusCompleted},
	}}
	client, _ := newTestClient(t, fake)

	_, err := client.Poll(context.Background(), "job-4")
	assert.ErrorIs(t, err, api.ErrInvalidResponse)
}

func TestPoll_ContextCancellationAborts(t *testing.T) {
	fake := &fakeAnalyzer{jobs: []*api.AnalysisJob{processing("job-5")}}

	client, err := New(fake, 10, time.Second, logging.NewNop(),
		WithSleep(func(ctx context.Context, _ time.Duration) error {
			return context.Canceled
		}))
	require.NoError(t, err)

	_, err = client.Poll(context.Background(), "job-5")
	require.ErrorIs(t, err, context.Canceled)
}

func TestPoll_TransportErrorSurfaces(t *testing.T) {
	netErr := errors.New("connection refused")
	client, _ := newTestClient(t, &fakeAnalyzer{jobErr: netErr})

	_, err := client.Poll(context.Background(), "job-6")
	require.ErrorIs(t, err, netErr)
}

func TestAnalyze_TerminalUploadSkipsPolling(t *testing.T) {
	fake := &fakeAnalyzer{
		uploadResp: &api.UploadResponse{ID: "job-7", Status: api.StatusError},
	}
	client, waits := newTestClient(t, fake)

	_, err := client.Analyze(context.Background(), api.MediaVoice, "note.wav", strings.NewReader("audio"))
	require.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Empty(t, *waits)
}
