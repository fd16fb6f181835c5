package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
	"github.com/lehigh-university-libraries/imagemeta/internal/translation"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
}

func (f *fakeGenerator) GenerateMetadata(ctx context.Context, image models.UploadedImage, prompt string) (*models.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return &models.Metadata{Title: "Red square", Keywords: "red, square", Category: "Graphic Resources"}, nil
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(ctx context.Context, keyword string, langs models.Languages) translation.Result {
	return translation.Result{Text: keyword, Translated: true}
}

func newTestServer(t *testing.T) (*Handler, *httptest.Server, *fakeGenerator) {
	t.Helper()
	gen := &fakeGenerator{}
	h := New(Options{Generator: gen, Translator: fakeTranslator{}, Provider: "gemini", Model: "test-model", StaticDir: t.TempDir()})
	server := httptest.NewServer(h.Routes())
	t.Cleanup(server.Close)
	return h, server, gen
}

func createSession(t *testing.T, server *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(server.URL+"/api/sessions", "application/json", nil)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}
	return body.ID
}

type uploadFile struct {
	name     string
	mimeType string
	data     []byte
}

func uploadFiles(t *testing.T, server *httptest.Server, sessionID string, files ...uploadFile) (*http.Response, pipeline.IngestReport) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		header.Set("Content-Type", f.mimeType)
		part, err := mw.CreatePart(header)
		if err != nil {
			t.Fatalf("Failed to create part: %v", err)
		}
		_, _ = part.Write(f.data)
		_ = mw.WriteField("last_modified", "170000000000"+string(rune('0'+i)))
	}
	_ = mw.Close()

	resp, err := http.Post(server.URL+"/api/sessions/"+sessionID+"/items", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	defer resp.Body.Close()

	var report pipeline.IngestReport
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
			t.Fatalf("Failed to decode report: %v", err)
		}
	}
	return resp, report
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 6))); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func getSnapshot(t *testing.T, server *httptest.Server, sessionID string) pipeline.Snapshot {
	t.Helper()
	resp, err := http.Get(server.URL + "/api/sessions/" + sessionID)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	defer resp.Body.Close()
	var snap pipeline.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	return snap
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	return resp
}

func TestStaticEndpoints(t *testing.T) {
	_, server, _ := newTestServer(t)

	tests := []struct {
		path     string
		contains string
	}{
		{path: "/healthcheck", contains: "OK"},
		{path: "/api/languages", contains: `"code":"ru"`},
		{path: "/api/categories", contains: "Plants and Flowers"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			defer resp.Body.Close()
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(resp.Body)
			if resp.StatusCode != http.StatusOK || !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("Expected 200 containing %q, got %d: %s", tt.contains, resp.StatusCode, buf.String())
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	h, server, gen := newTestServer(t)
	sessionID := createSession(t, server)
	data := pngData(t)

	resp := postJSON(t, server.URL+"/api/sessions/"+sessionID+"/generate", map[string]string{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty batch, got %d", resp.StatusCode)
	}

	resp, report := uploadFiles(t, server, sessionID,
		uploadFile{name: "square.png", mimeType: "image/png", data: data},
		uploadFile{name: "scan.tiff", mimeType: "image/tiff", data: []byte("II*")},
	)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 for upload, got %d", resp.StatusCode)
	}
	if len(report.Added) != 1 || len(report.Skipped) != 1 {
		t.Fatalf("Unexpected ingest report: %+v", report)
	}
	item := report.Added[0]

	preview, err := http.Get(server.URL + item.PreviewURL)
	if err != nil {
		t.Fatalf("Preview request failed: %v", err)
	}
	var previewBody bytes.Buffer
	_, _ = previewBody.ReadFrom(preview.Body)
	preview.Body.Close()
	if preview.StatusCode != http.StatusOK || !bytes.Equal(previewBody.Bytes(), data) {
		t.Errorf("Expected preview to return original bytes, got %d", preview.StatusCode)
	}

	resp = postJSON(t, server.URL+"/api/sessions/"+sessionID+"/generate", map[string]string{"keyword": "square", "metadata_language": "de"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", resp.StatusCode)
	}
	h.Wait()

	snap := getSnapshot(t, server, sessionID)
	if snap.Running || len(snap.Outcomes) != 1 || snap.Outcomes[0].Status != models.StatusSucceeded {
		t.Fatalf("Unexpected snapshot after run: %+v", snap)
	}
	if !strings.Contains(gen.prompts[0], "MUST be in Deutsch") {
		t.Error("Expected metadata language from the request to reach the prompt")
	}

	resp = postJSON(t, server.URL+"/api/sessions/"+sessionID+"/items/"+item.ID+"/regenerate", map[string]string{"keyword": "  "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank keyword, got %d", resp.StatusCode)
	}
	if gen.calls() != 1 {
		t.Errorf("Expected no generation call for blank keyword, got %d calls", gen.calls())
	}

	resp = postJSON(t, server.URL+"/api/sessions/"+sessionID+"/items/"+item.ID+"/regenerate", map[string]string{"keyword": "red"})
	var outcome models.Outcome
	_ = json.NewDecoder(resp.Body).Decode(&outcome)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || outcome.Keyword != "red" || outcome.Status != models.StatusSucceeded {
		t.Errorf("Unexpected regenerate response %d: %+v", resp.StatusCode, outcome)
	}

	exportResp, err := http.Get(server.URL + "/api/sessions/" + sessionID + "/export?format=yaml")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	var exported bytes.Buffer
	_, _ = exported.ReadFrom(exportResp.Body)
	exportResp.Body.Close()
	if !strings.Contains(exported.String(), "title: Red square") || !strings.Contains(exported.String(), "model: test-model") {
		t.Errorf("Unexpected export: %s", exported.String())
	}

	req, _ := http.NewRequest("DELETE", server.URL+"/api/sessions/"+sessionID+"/items/"+item.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", delResp.StatusCode)
	}
	if snap := getSnapshot(t, server, sessionID); len(snap.Items) != 0 {
		t.Errorf("Expected item to be removed, got %d items", len(snap.Items))
	}
}

func TestUnknownSession(t *testing.T) {
	_, server, _ := newTestServer(t)

	for _, path := range []string{"/api/sessions/nope", "/api/sessions/nope/export"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

func TestPreferences(t *testing.T) {
	_, server, _ := newTestServer(t)

	put := func(body string) int {
		req, _ := http.NewRequest("PUT", server.URL+"/api/preferences", strings.NewReader(body))
		req.Header.Set("X-User-ID", "alice")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("Request failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := put(`{"interface_language":"en","metadata_language":"xx"}`); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unsupported language, got %d", code)
	}
	if code := put(`{"interface_language":"ru","metadata_language":"en"}`); code != http.StatusOK {
		t.Errorf("Expected 200, got %d", code)
	}

	req, _ := http.NewRequest("GET", server.URL+"/api/preferences", nil)
	req.Header.Set("X-User-ID", "alice")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	var langs models.Languages
	_ = json.NewDecoder(resp.Body).Decode(&langs)
	if langs.Interface != "ru" || langs.Metadata != "en" {
		t.Errorf("Expected saved preferences, got %+v", langs)
	}
}

func TestEventStream(t *testing.T) {
	h, server, _ := newTestServer(t)
	sessionID := createSession(t, server)
	uploadFiles(t, server, sessionID, uploadFile{name: "square.png", mimeType: "image/png", data: pngData(t)})

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/sessions/" + sessionID + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first map[string]any
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	if first["type"] != "snapshot" {
		t.Fatalf("Expected snapshot first, got %v", first["type"])
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.hub.Clients(sessionID) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	resp := postJSON(t, server.URL+"/api/sessions/"+sessionID+"/generate", map[string]string{})
	resp.Body.Close()

	var types []string
	for {
		var e pipeline.Event
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("Failed to read event: %v (got %v)", err, types)
		}
		types = append(types, string(e.Type))
		if e.Type == pipeline.EventFinished {
			break
		}
	}

	expected := []string{"started", "outcome", "progress", "outcome", "finished"}
	if strings.Join(types, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected events %v, got %v", expected, types)
	}
	h.Wait()
}
