// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides utility functions for the medscope application.
package util

import (
	"net/http"
	"path/filepath"
	"strings"
)

// MaxImageSize is the largest image accepted for attachment (20MB).
const MaxImageSize = 20 * 1024 * 1024

// DetectImageMIME sniffs the MIME type of image data, falling back to the
// file extension when content sniffing is inconclusive.
func DetectImageMIME(data []byte, path string) string {
	mime := http.DetectContentType(data)
	if mime != "application/octet-stream" {
		return mime
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".webp":
		return "image/webp"
	case ".dcm":
		return "application/dicom"
	default:
		return "application/octet-stream"
	}
}

// IsImageMIME returns true for MIME types the backend accepts as scans.
// DICOM is included since radiology sources commonly produce it.
func IsImageMIME(mime string) bool {
	return strings.HasPrefix(mime, "image/") || mime == "application/dicom"
}
