package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
)

// MaxSourceBytes limits how much of a remote or uploaded image is read
const MaxSourceBytes = 10 * 1024 * 1024

// Fetcher retrieves images from remote URLs
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchSource downloads imageURL and describes it as a Source.
// The MIME type comes from the Content-Type header, sniffed from the body when absent.
func (f *Fetcher) FetchSource(ctx context.Context, imageURL string) (models.Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return models.Source{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return models.Source{}, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Source{}, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSourceBytes+1))
	if err != nil {
		return models.Source{}, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxSourceBytes {
		return models.Source{}, fmt.Errorf("image too large (max %d bytes)", MaxSourceBytes)
	}

	mimeType := CleanMIMEType(resp.Header.Get("Content-Type"))
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = DetectMIMEType(data)
	}

	// zero without Last-Modified, so a URL added twice keeps one id
	var modTime time.Time
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			modTime = t
		}
	}

	src := models.Source{
		Name:     nameFromURL(imageURL),
		MIMEType: mimeType,
		ModTime:  modTime,
		Size:     int64(len(data)),
		Data:     data,
	}
	slog.Info("Fetched remote image", "url", imageURL, "mime_type", mimeType, "bytes", len(data))
	return src, nil
}

func nameFromURL(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "image"
	}
	if base := path.Base(u.Path); base != "" && base != "/" && base != "." {
		return base
	}
	if u.Hostname() != "" {
		return u.Hostname()
	}
	return "image"
}
