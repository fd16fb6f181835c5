package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestIngest(t *testing.T) {
	data := pngBytes(t, 12, 7)
	mod := time.UnixMilli(1700000000000)
	photo := models.Source{Name: "photo.png", MIMEType: "image/png", ModTime: mod, Size: int64(len(data)), Data: data}

	b := NewBatch("s1")
	b.PreviewPrefix = "/api/sessions/s1/items/"
	r := NewRunner(nil, &fakeGenerator{}, &fakeTranslator{})

	report, err := r.Ingest(b,
		photo,
		photo,
		models.Source{Name: "scan.tiff", MIMEType: "image/tiff", Data: []byte("II*")},
		models.Source{Name: "broken.gif", MIMEType: "image/gif", ModTime: mod, Size: 3, Data: []byte("GIF")},
	)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(report.Added) != 1 || len(report.Duplicates) != 1 || len(report.Skipped) != 1 || len(report.Failed) != 1 {
		t.Fatalf("Unexpected report: %+v", report)
	}
	if report.Skipped[0] != "scan.tiff" || report.Failed[0].Name != "broken.gif" {
		t.Errorf("Unexpected skipped/failed entries: %+v", report)
	}

	item := report.Added[0]
	if item.ID != "photo.png-1700000000000-"+strconv.Itoa(len(data)) {
		t.Errorf("Unexpected item id %s", item.ID)
	}
	if item.Width != 12 || item.Height != 7 {
		t.Errorf("Expected 12x7, got %dx%d", item.Width, item.Height)
	}
	if item.PreviewURL != "/api/sessions/s1/items/"+item.ID+"/preview" {
		t.Errorf("Unexpected preview url %s", item.PreviewURL)
	}
	if !bytes.Equal(item.Original, data) {
		t.Error("Expected original bytes to be kept for previews")
	}
	if b.Len() != 1 {
		t.Errorf("Expected 1 item held, got %d", b.Len())
	}
	if o, _ := b.Outcome(item.ID); o.Status != models.StatusPending {
		t.Errorf("Expected new item to be pending, got %s", o.Status)
	}
}

func TestIngestConcurrentDuplicates(t *testing.T) {
	data := pngBytes(t, 4, 4)
	src := models.Source{Name: "same.png", MIMEType: "image/png", ModTime: time.UnixMilli(1), Size: int64(len(data)), Data: data}

	b := NewBatch("s1")
	r := NewRunner(nil, &fakeGenerator{}, &fakeTranslator{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Ingest(b, src); err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if b.Len() != 1 {
		t.Errorf("Expected a single item, got %d", b.Len())
	}
}

func TestIngestWhileRunning(t *testing.T) {
	b := newTestBatch(t, "one")
	b.running = true

	r := NewRunner(nil, &fakeGenerator{}, &fakeTranslator{})
	if _, err := r.Ingest(b, models.Source{Name: "x.png", MIMEType: "image/png", Data: []byte("x")}); !errors.Is(err, ErrBatchRunning) {
		t.Errorf("Expected ErrBatchRunning, got %v", err)
	}
}
