package acquisition

import (
	"context"

	"github.com/youtube-transcript-mcp/internal/models"
	"github.com/youtube-transcript-mcp/internal/proxy"
)

// TranscriptAdapter is a pluggable strategy that attempts one path to a
// transcript. A nil payload and nil error means "empty, try the next
// strategy"; a non-nil *AdapterError distinguishes transient, blocked,
// and fatal outcomes for the orchestrator.
type TranscriptAdapter interface {
	Name() string
	SupportsProxy() bool
	FetchTranscript(ctx context.Context, videoID string, languages []string, opts Options, prov *proxy.Provider) (*models.TranscriptPayload, error)
}

// CommentAdapter is a pluggable strategy that attempts one path to a
// comment list.
type CommentAdapter interface {
	Name() string
	SupportsProxy() bool
	FetchComments(ctx context.Context, videoID string, useProxy bool, prov *proxy.Provider) ([]string, error)
}
