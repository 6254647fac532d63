package storage

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectContentType determines an object's MIME type: an explicitly
// provided type wins, then extension lookup, then sniffing the first
// 512 bytes, then "application/octet-stream".
func DetectContentType(providedType, filename string, data io.Reader) string {
	if providedType != "" {
		return providedType
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	if data != nil {
		buffer := make([]byte, 512)
		n, err := io.ReadFull(data, buffer)
		if err == nil || err == io.EOF || err == io.ErrUnexpectedEOF {
			return http.DetectContentType(buffer[:n])
		}
	}

	return "application/octet-stream"
}

// AllowedBillImageTypes are the MIME types accepted for bill uploads.
// PDF is included because utilities commonly issue e-bills as PDF.
var AllowedBillImageTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
	"image/heif":      true,
	"application/pdf": true,
}

// IsAllowedBillType checks whether a content type is accepted for bill
// uploads.
func IsAllowedBillType(contentType string) bool {
	return AllowedBillImageTypes[baseType(contentType)]
}

// IsImage reports whether the content type is any image format.
func IsImage(contentType string) bool {
	return strings.HasPrefix(baseType(contentType), "image/")
}

// baseType strips parameters like charset and normalizes casing.
func baseType(contentType string) string {
	base := strings.Split(contentType, ";")[0]
	return strings.TrimSpace(strings.ToLower(base))
}
