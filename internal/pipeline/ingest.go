package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/images"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
)

// IngestReport lists what happened to each source handed to Ingest
type IngestReport struct {
	Added      []models.Item   `json:"added"`
	Duplicates []string        `json:"duplicates"`
	Skipped    []string        `json:"skipped"`
	Failed     []IngestFailure `json:"failed"`
}

type IngestFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Ingest normalizes sources into the batch. Sources outside the allow-list are skipped,
// sources already held are no-ops, and sources that fail to normalize are reported
// without affecting the others.
func (r *Runner) Ingest(b *Batch, sources ...models.Source) (*IngestReport, error) {
	if b.Running() {
		return nil, ErrBatchRunning
	}

	report := &IngestReport{
		Added:      []models.Item{},
		Duplicates: []string{},
		Skipped:    []string{},
		Failed:     []IngestFailure{},
	}
	for _, src := range sources {
		if !images.IsAllowed(src.MIMEType) {
			slog.Debug("Skipping source with unsupported type", "name", src.Name, "mime_type", src.MIMEType)
			report.Skipped = append(report.Skipped, src.Name)
			continue
		}

		id := src.ID()
		val, err, _ := b.uploads.Do(id, func() (interface{}, error) {
			if b.Has(id) {
				return nil, nil
			}
			return r.newItem(id, src)
		})
		if err != nil {
			if errors.Is(err, ErrBatchRunning) {
				return report, err
			}
			slog.Error("Error processing file", "name", src.Name, "err", err)
			report.Failed = append(report.Failed, IngestFailure{Name: src.Name, Error: err.Error()})
			continue
		}

		item, ok := val.(*models.Item)
		if !ok || item == nil {
			report.Duplicates = append(report.Duplicates, src.Name)
			continue
		}

		added, err := b.Add(item)
		if err != nil {
			return report, err
		}
		if !added {
			report.Duplicates = append(report.Duplicates, src.Name)
			continue
		}
		slog.Info("Added item", "session_id", b.ID, "id", item.ID, "mime_type", item.Image.MIMEType, "width", item.Width, "height", item.Height)
		report.Added = append(report.Added, *item)
	}
	return report, nil
}

func (r *Runner) newItem(id string, src models.Source) (*models.Item, error) {
	image, err := r.normalizer.Normalize(src)
	if err != nil {
		return nil, fmt.Errorf("error processing %s, it might be corrupted or an unsupported format: %w", src.Name, err)
	}

	width, height, err := images.DimensionsOf(image)
	if err != nil {
		slog.Warn("Unable to read image dimensions", "name", src.Name, "err", err)
	}

	return &models.Item{
		ID:             id,
		Name:           src.Name,
		SourceMIMEType: images.CleanMIMEType(src.MIMEType),
		Image:          image,
		Width:          width,
		Height:         height,
		AddedAt:        time.Now(),
		Original:       src.Data,
	}, nil
}
