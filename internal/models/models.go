package models

import (
	"fmt"
	"strings"
	"time"
)

// UploadedImage is the canonical image encoding sent to the generation service.
// Data is raw base64 with no data-URL prefix.
type UploadedImage struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Source is a caller-supplied image before normalization
type Source struct {
	Name     string
	MIMEType string
	ModTime  time.Time
	Size     int64
	Data     []byte
}

// ItemID derives the stable identifier of a source from its name, modification time and size.
func ItemID(name string, modTime time.Time, size int64) string {
	return fmt.Sprintf("%s-%d-%d", name, modTime.UnixMilli(), size)
}

// ID returns the item identifier this source would be stored under
func (s Source) ID() string {
	return ItemID(s.Name, s.ModTime, s.Size)
}

// Item is one normalized image held by a batch
type Item struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	SourceMIMEType string        `json:"source_mime_type"`
	Image          UploadedImage `json:"-"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	PreviewURL     string        `json:"preview_url,omitempty"`
	AddedAt        time.Time     `json:"added_at"`
	// Original keeps the source bytes behind PreviewURL until the item is removed
	Original []byte `json:"-"`
}

// Metadata is the structured result produced for one image
type Metadata struct {
	Title    string `json:"title"`
	Keywords string `json:"keywords"`
	Category string `json:"category"`
}

// KeywordList splits the comma-joined keywords, trimming and dropping empty entries
func (m Metadata) KeywordList() []string {
	parts := strings.Split(m.Keywords, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			keywords = append(keywords, p)
		}
	}
	return keywords
}

// Status is the lifecycle state of an item's outcome
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

// Outcome is the per-item result of the most recent pass through the pipeline
type Outcome struct {
	ItemID    string    `json:"item_id"`
	Status    Status    `json:"status"`
	Metadata  *Metadata `json:"metadata,omitempty"`
	Error     string    `json:"error,omitempty"`
	Keyword   string    `json:"keyword,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether the outcome reached a terminal state
func (o Outcome) Done() bool {
	return o.Status == StatusSucceeded || o.Status == StatusFailed
}

// Languages carries the interface and metadata-output language codes for one call
type Languages struct {
	Interface string `json:"interface_language"`
	Metadata  string `json:"metadata_language"`
}

// NeedsTranslation reports whether user keywords must be translated before prompting
func (l Languages) NeedsTranslation() bool {
	return l.Interface != l.Metadata
}
