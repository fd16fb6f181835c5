package images

import (
	"bytes"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectMIMEType sniffs the content type of data. SVG is recognised by its root element
// since net/http reports it as text/xml or text/plain.
func DetectMIMEType(data []byte) string {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if bytes.Contains(head, []byte("<svg")) {
		return MIMESVG
	}
	return CleanMIMEType(http.DetectContentType(data))
}

// MIMETypeForFile picks a MIME type from the file extension, then from the content
func MIMETypeForFile(filename string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return MIMEJPEG
	case ".svg":
		return MIMESVG
	case ".bmp":
		return MIMEBMP
	case ".webp":
		return MIMEWEBP
	}
	if t := CleanMIMEType(mime.TypeByExtension(ext)); t != "" {
		return t
	}
	return DetectMIMEType(data)
}
