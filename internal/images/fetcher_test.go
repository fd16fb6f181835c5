package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchSource(t *testing.T) {
	png := encodePNG(t, testImage(8, 8))
	svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 10"></svg>`)

	mux := http.NewServeMux()
	mux.HandleFunc("/photo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT")
		_, _ = w.Write(png)
	})
	mux.HandleFunc("/logo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(svg)
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f := NewFetcher()

	src, err := f.FetchSource(context.Background(), server.URL+"/photo.png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src.Name != "photo.png" || src.MIMEType != MIMEPNG || src.Size != int64(len(png)) {
		t.Errorf("Unexpected source: name=%s mime=%s size=%d", src.Name, src.MIMEType, src.Size)
	}
	if src.ModTime.Year() != 2015 {
		t.Errorf("Expected Last-Modified to set the modification time, got %v", src.ModTime)
	}

	src, err = f.FetchSource(context.Background(), server.URL+"/logo")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if src.MIMEType != MIMESVG {
		t.Errorf("Expected sniffed svg type, got %s", src.MIMEType)
	}

	first, err := f.FetchSource(context.Background(), server.URL+"/logo")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !first.ModTime.IsZero() {
		t.Errorf("Expected zero modification time without Last-Modified, got %v", first.ModTime)
	}
	if first.ID() != src.ID() {
		t.Errorf("Expected repeated fetch to keep id %s, got %s", src.ID(), first.ID())
	}

	if _, err := f.FetchSource(context.Background(), server.URL+"/missing.png"); err == nil {
		t.Error("Expected error for 404 response")
	}
}

func TestMIMETypeForFile(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{filename: "a.JPG", expected: MIMEJPEG},
		{filename: "b.png", expected: MIMEPNG},
		{filename: "c.svg", expected: MIMESVG},
		{filename: "d.bmp", expected: MIMEBMP},
		{filename: "e.webp", expected: MIMEWEBP},
		{filename: "f.gif", expected: MIMEGIF},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := MIMETypeForFile(tt.filename, nil); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestNameFromURL(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{url: "https://example.com/photos/dog.jpg?size=large", expected: "dog.jpg"},
		{url: "https://example.com/", expected: "example.com"},
		{url: "https://example.com", expected: "example.com"},
		{url: "::not a url", expected: "image"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := nameFromURL(tt.url); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}
