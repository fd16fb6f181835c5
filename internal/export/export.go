package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/models"
	"github.com/lehigh-university-libraries/imagemeta/internal/pipeline"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// Config describes the run that produced a report
type Config struct {
	SessionID         string `yaml:"sessionid" json:"session_id"`
	Provider          string `yaml:"provider" json:"provider"`
	Model             string `yaml:"model" json:"model"`
	InterfaceLanguage string `yaml:"interfacelanguage" json:"interface_language"`
	MetadataLanguage  string `yaml:"metadatalanguage" json:"metadata_language"`
	Keyword           string `yaml:"keyword,omitempty" json:"keyword,omitempty"`
	Timestamp         string `yaml:"timestamp" json:"timestamp"`
}

// Record is one item and its latest outcome, flattened for export
type Record struct {
	ID       string `yaml:"id" json:"id" parquet:"id"`
	Name     string `yaml:"name" json:"name" parquet:"name"`
	MIMEType string `yaml:"mimetype" json:"mime_type" parquet:"mime_type"`
	Width    int64  `yaml:"width" json:"width" parquet:"width"`
	Height   int64  `yaml:"height" json:"height" parquet:"height"`
	Status   string `yaml:"status" json:"status" parquet:"status"`
	Title    string `yaml:"title,omitempty" json:"title,omitempty" parquet:"title"`
	Keywords string `yaml:"keywords,omitempty" json:"keywords,omitempty" parquet:"keywords"`
	Category string `yaml:"category,omitempty" json:"category,omitempty" parquet:"category"`
	Keyword  string `yaml:"keyword,omitempty" json:"keyword,omitempty" parquet:"keyword"`
	Error    string `yaml:"error,omitempty" json:"error,omitempty" parquet:"error"`
}

type Report struct {
	Config  Config   `yaml:"config" json:"config"`
	Results []Record `yaml:"results" json:"results"`
}

// Summary counts outcomes in a report
type Summary struct {
	Total      int            `json:"total"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	Pending    int            `json:"pending"`
	Categories map[string]int `json:"categories"`
}

// NewReport flattens a batch snapshot
func NewReport(snap pipeline.Snapshot, provider, model string) *Report {
	outcomes := make(map[string]models.Outcome, len(snap.Outcomes))
	for _, o := range snap.Outcomes {
		outcomes[o.ItemID] = o
	}

	report := &Report{
		Config: Config{
			SessionID:         snap.ID,
			Provider:          provider,
			Model:             model,
			InterfaceLanguage: snap.Languages.Interface,
			MetadataLanguage:  snap.Languages.Metadata,
			Keyword:           snap.Keyword,
			Timestamp:         time.Now().Format("2006-01-02_15-04-05"),
		},
		Results: make([]Record, 0, len(snap.Items)),
	}

	for _, item := range snap.Items {
		record := Record{
			ID:       item.ID,
			Name:     item.Name,
			MIMEType: item.SourceMIMEType,
			Width:    int64(item.Width),
			Height:   int64(item.Height),
			Status:   string(models.StatusPending),
		}
		if o, ok := outcomes[item.ID]; ok {
			record.Status = string(o.Status)
			record.Error = o.Error
			record.Keyword = o.Keyword
			if o.Metadata != nil {
				record.Title = o.Metadata.Title
				record.Keywords = o.Metadata.Keywords
				record.Category = o.Metadata.Category
			}
		}
		report.Results = append(report.Results, record)
	}
	return report
}

func (r *Report) Summarize() Summary {
	s := Summary{Total: len(r.Results), Categories: make(map[string]int)}
	for _, rec := range r.Results {
		switch models.Status(rec.Status) {
		case models.StatusSucceeded:
			s.Succeeded++
			if rec.Category != "" {
				s.Categories[rec.Category]++
			}
		case models.StatusFailed:
			s.Failed++
		default:
			s.Pending++
		}
	}
	return s
}

// SortedCategories returns category names by descending count, then name
func (s Summary) SortedCategories() []string {
	names := make([]string, 0, len(s.Categories))
	for name := range s.Categories {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.Categories[names[i]] != s.Categories[names[j]] {
			return s.Categories[names[i]] > s.Categories[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// Format names an export encoding
type Format string

const (
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat accepts a format name or a file extension
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: yaml, json, parquet)", s)
	}
}

// ContentType returns the HTTP content type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/yaml"
	}
}

// Write encodes the report in the given format
func Write(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return nil
	case FormatParquet:
		return WriteParquet(w, r.Results)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// WriteParquet writes the records as a single parquet file
func WriteParquet(w io.Writer, records []Record) error {
	writer := parquet.NewGenericWriter[Record](w)
	if _, err := writer.Write(records); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads every record from a parquet file held in r
func ReadParquet(r io.ReaderAt, size int64) ([]Record, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Record](pf)
	defer reader.Close()

	var records []Record
	rows := make([]Record, 128)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return records, nil
}

// Save writes the report to path, choosing the format from its extension
func Save(path string, r *Report) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, r, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads a report written by Save. Parquet files carry no run config.
func Load(path string) (*Report, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var report Report
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatParquet:
		records, err := ReadParquet(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		report.Results = records
	}
	return &report, nil
}
