// internal/api/media.go
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// MediaKind selects the media upload endpoint.
type MediaKind string

const (
	MediaVoice MediaKind = "voice"
	MediaImage MediaKind = "image"
)

// UploadMedia uploads a voice or image asset for analysis and returns the
// created job. Transport failures surface immediately; there is no silent
// retry on upload.
func (c *Client) UploadMedia(ctx context.Context, kind MediaKind, filename string, r io.Reader) (*UploadResponse, error) {
	var path string
	switch kind {
	case MediaVoice:
		path = "/media/voice"
	case MediaImage:
		path = "/media/image"
	default:
		return nil, fmt.Errorf("unknown media kind %q", kind)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create multipart body: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read media %q: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	var out UploadResponse
	if err := c.do(ctx, http.MethodPost, path, &buf, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: upload response missing job id", ErrInvalidResponse)
	}
	return &out, nil
}

// Analysis fetches the current state of a media analysis job.
func (c *Client) Analysis(ctx context.Context, jobID string) (*AnalysisJob, error) {
	var out AnalysisJob
	if err := c.do(ctx, http.MethodGet, "/media/analysis/"+url.PathEscape(jobID), nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
