// backend/src/security/validation/payload_validation.go
package validation

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/username/cartera/backend/src/logger"
)

// isBinaryContent checks if a buffer contains binary control characters (like
// null bytes) which indicate the payload is not a text-based export.
func isBinaryContent(buf []byte) bool {
	// 1. Check for null bytes. Text files should not have these.
	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}

	// 2. Validate UTF-8. If it's invalid UTF-8, it might be binary garbage.
	if !utf8.Valid(buf) {
		return true
	}

	return false
}

// ValidatePayload inspects a raw import payload before any parser sees it.
// It rejects empty and binary content and anything whose sniffed content type
// is not a text format a broker export could plausibly have.
func ValidatePayload(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("payload is empty")
	}

	head := payload
	if len(head) > 1024 {
		head = head[:1024]
	}

	if isBinaryContent(head) {
		logger.L.Warn("Payload rejected: binary content detected in text import")
		return "application/octet-stream", fmt.Errorf("payload appears to be binary, not a text export")
	}

	detectedContentType := http.DetectContentType(head)
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	allowedDetectedTypes := map[string]bool{
		"text/plain":      true,
		"text/csv":        true,
		"application/csv": true,
	}

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected payload content type", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("detected payload content type '%s' is not allowed", detectedContentType)
	}

	return detectedContentType, nil
}
