package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ajaypalvai07/ai-help-center/internal/api"
	"github.com/Ajaypalvai07/ai-help-center/internal/media"
)

var uploadKind string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a voice or image file for analysis",
	Long: `Upload a voice recording or image and wait for its analysis.

The media kind is inferred from the file extension; use --kind to
override it.

Examples:
  helpcenter upload note.wav
  helpcenter upload screenshot.png
  helpcenter upload --kind voice recording.bin`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadKind, "kind", "", "media kind: voice or image (default inferred from extension)")
}

func inferKind(path string) (api.MediaKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".mp3", ".ogg", ".m4a", ".webm":
		return api.MediaVoice, nil
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp":
		return api.MediaImage, nil
	default:
		return "", fmt.Errorf("cannot infer media kind from %q, pass --kind", filepath.Base(path))
	}
}

func runUpload(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.requireAuth(cmd.Context()); err != nil {
		return err
	}

	kind := api.MediaKind(uploadKind)
	if kind == "" {
		kind, err = inferKind(args[0])
		if err != nil {
			return err
		}
	} else if kind != api.MediaVoice && kind != api.MediaImage {
		return fmt.Errorf("unknown media kind %q", uploadKind)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	result, err := a.media.Analyze(cmd.Context(), kind, filepath.Base(args[0]), f)
	if err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthenticated):
			a.sessions.SignOut(cmd.Context())
			return errors.New("session expired, sign in again")
		case errors.Is(err, media.ErrPollTimeout):
			return errors.New("analysis is still running, try again in a moment")
		case errors.Is(err, media.ErrAnalysisFailed):
			return fmt.Errorf("analysis failed: %w", err)
		}
		return err
	}

	fmt.Println(result.Text)
	if result.Confidence > 0 {
		fmt.Fprintf(os.Stderr, "confidence: %.0f%%\n", result.Confidence*100)
	}
	return nil
}
