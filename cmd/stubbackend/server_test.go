package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
	"github.com/Ajaypalvai07/ai-help-center/internal/config"
	"github.com/Ajaypalvai07/ai-help-center/internal/logging"
	"github.com/Ajaypalvai07/ai-help-center/internal/media"
)

// startStub runs the stub on an ephemeral port and returns an API client
// pointed at it.
func startStub(t *testing.T, mediaPolls int, token api.TokenSource) *api.Client {
	t.Helper()

	srv := newServer(zaptest.NewLogger(t), mediaPolls)
	ts := httptest.NewServer(srv.echo)
	t.Cleanup(ts.Close)

	client, err := api.NewClient(ts.URL+"/api/v1", token)
	require.NoError(t, err)
	return client
}

func login(t *testing.T, client *api.Client, email, password string) *api.TokenResponse {
	t.Helper()
	tok, err := client.Login(context.Background(), email, config.Secret(password))
	require.NoError(t, err)
	return tok
}

func TestStub_LoginAndVerify(t *testing.T) {
	var source api.StaticToken
	client := startStub(t, 3, &source)

	tok := login(t, client, "user@example.com", "password")
	assert.Equal(t, api.RoleUser, tok.User.Role)
	source = api.StaticToken(tok.AccessToken)

	user, err := client.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
}

func TestStub_BadCredentials(t *testing.T) {
	client := startStub(t, 3, nil)

	_, err := client.Login(context.Background(), "user@example.com", config.Secret("wrong"))
	assert.ErrorIs(t, err, api.ErrInvalidCredentials)
}

func TestStub_RegisterThenLogin(t *testing.T) {
	client := startStub(t, 3, nil)

	user, err := client.Register(context.Background(), api.RegisterRequest{
		Email:    "new@example.com",
		Password: "hunter2",
		Name:     "New User",
	})
	require.NoError(t, err)
	assert.Equal(t, api.RoleUser, user.Role)

	login(t, client, "new@example.com", "hunter2")

	_, err = client.Register(context.Background(), api.RegisterRequest{
		Email:    "new@example.com",
		Password: "hunter2",
	})
	require.Error(t, err)
}

func TestStub_AnalyzeRequiresAuth(t *testing.T) {
	client := startStub(t, 3, nil)

	_, err := client.Analyze(context.Background(), api.AnalyzeRequest{
		Content: "hello", Category: "general", Timestamp: time.Now().Format(time.RFC3339), Type: "text",
	})
	assert.ErrorIs(t, err, api.ErrUnauthenticated)
}

func TestStub_AnalyzeReturnsReply(t *testing.T) {
	var source api.StaticToken
	client := startStub(t, 3, &source)
	source = api.StaticToken(login(t, client, "user@example.com", "password").AccessToken)

	resp, err := client.Analyze(context.Background(), api.AnalyzeRequest{
		Content: "my invoice is wrong", Category: "billing",
		Timestamp: time.Now().Format(time.RFC3339), Type: "text",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.NotEmpty(t, resp.UserMessageID)
	assert.Contains(t, resp.Content, "billing")
}

func TestStub_MediaCompletesAfterPolls(t *testing.T) {
	var source api.StaticToken
	client := startStub(t, 3, &source)
	source = api.StaticToken(login(t, client, "user@example.com", "password").AccessToken)

	mc, err := media.New(client, 10, time.Second, logging.NewNop(),
		media.WithSleep(func(context.Context, time.Duration) error { return nil }))
	require.NoError(t, err)

	result, err := mc.Analyze(context.Background(), api.MediaVoice, "note.wav", strings.NewReader("audio-bytes"))
	require.NoError(t, err)
	assert.Contains(t, result.Text, "transcription")
}

func TestStub_MediaNeverCompletingHitsPollTimeout(t *testing.T) {
	var source api.StaticToken
	client := startStub(t, 0, &source)
	source = api.StaticToken(login(t, client, "user@example.com", "password").AccessToken)

	mc, err := media.New(client, 3, time.Second, logging.NewNop(),
		media.WithSleep(func(context.Context, time.Duration) error { return nil }))
	require.NoError(t, err)

	_, err = mc.Analyze(context.Background(), api.MediaImage, "shot.png", strings.NewReader("img"))
	assert.ErrorIs(t, err, media.ErrPollTimeout)
}

func TestStub_AdminEndpointsAreGated(t *testing.T) {
	var source api.StaticToken
	client := startStub(t, 3, &source)

	source = api.StaticToken(login(t, client, "user@example.com", "password").AccessToken)
	_, err := client.AdminMetrics(context.Background())
	assert.ErrorIs(t, err, api.ErrUnauthenticated)

	source = api.StaticToken(login(t, client, "admin@example.com", "admin").AccessToken)
	metrics, err := client.AdminMetrics(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, metrics.TotalUsers, 2)

	users, err := client.AdminUsers(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, users)

	logs, err := client.AdminLogs(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, logs)
}

func TestStub_FeedbackRoundTrip(t *testing.T) {
	var source api.StaticToken
	client := startStub(t, 3, &source)
	source = api.StaticToken(login(t, client, "user@example.com", "password").AccessToken)

	require.NoError(t, client.MessageFeedback(context.Background(), "msg-1", 5, "great"))
	require.NoError(t, client.SubmitFeedback(context.Background(), api.FeedbackSubmission{
		MessageID: "msg-1", Rating: 1, FeedbackType: "general",
	}))

	stats, err := client.FeedbackStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSubmissions)
	assert.Equal(t, 1, stats.PositiveCount)
	assert.Equal(t, 1, stats.NegativeCount)
}
