package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/lehigh-university-libraries/imagemeta/internal/images"
	"github.com/lehigh-university-libraries/imagemeta/internal/models"
)

const maxUploadMemory = 32 << 20

// sourcesFromMultipart reads every file part named "files" (or "file").
// Optional "last_modified" values, in epoch milliseconds, pair with files by position.
func sourcesFromMultipart(r *http.Request) ([]models.Source, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("no files in request")
	}
	modified := r.MultipartForm.Value["last_modified"]

	sources := make([]models.Source, 0, len(headers))
	for i, header := range headers {
		data, err := readPart(header)
		if err != nil {
			return nil, err
		}

		modTime := time.UnixMilli(0)
		if i < len(modified) {
			if ms, err := strconv.ParseInt(modified[i], 10, 64); err == nil {
				modTime = time.UnixMilli(ms)
			}
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = images.MIMETypeForFile(header.Filename, data)
		}

		sources = append(sources, models.Source{
			Name:     header.Filename,
			MIMEType: mimeType,
			ModTime:  modTime,
			Size:     int64(len(data)),
			Data:     data,
		})
	}
	return sources, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, images.MaxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	if len(data) > images.MaxSourceBytes {
		return nil, fmt.Errorf("file %s too large (max %dMB)", header.Filename, images.MaxSourceBytes/1024/1024)
	}
	return data, nil
}
