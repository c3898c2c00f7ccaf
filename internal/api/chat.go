// internal/api/chat.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Analyze sends a user message to the assistant and returns its reply.
// A 2xx response missing the content or created_at fields is treated as
// ErrInvalidResponse; the caller must not append a reply it cannot render.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	var out AnalyzeResponse
	if err := c.postJSON(ctx, "/chat/analyze", req, &out); err != nil {
		return nil, err
	}
	if out.Content == "" || out.CreatedAt == "" {
		return nil, fmt.Errorf("%w: analyze response missing content or created_at", ErrInvalidResponse)
	}
	return &out, nil
}

// MessageFeedback rates a single assistant message.
func (c *Client) MessageFeedback(ctx context.Context, messageID string, rating int, comment string) error {
	body := map[string]any{
		"rating":  rating,
		"comment": comment,
	}
	path := "/chat/" + url.PathEscape(messageID) + "/feedback"
	return c.postJSON(ctx, path, body, nil)
}

// Categories lists all help categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Category fetches one help category by ID.
func (c *Client) Category(ctx context.Context, id string) (*Category, error) {
	var out Category
	if err := c.do(ctx, http.MethodGet, "/categories/"+url.PathEscape(id), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitFeedback submits general feedback about a conversation.
func (c *Client) SubmitFeedback(ctx context.Context, sub FeedbackSubmission) error {
	return c.postJSON(ctx, "/feedback/submit", sub, nil)
}

// FeedbackStats returns aggregate feedback statistics.
func (c *Client) FeedbackStats(ctx context.Context) (*FeedbackStats, error) {
	var out FeedbackStats
	if err := c.do(ctx, http.MethodGet, "/feedback/stats", nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
