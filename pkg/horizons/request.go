// Package horizons encodes requests for the JPL Horizons file API and
// classifies its failures.
package horizons

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
)

const (
	// DefaultURI is the Horizons batch-file endpoint.
	DefaultURI = "https://ssd.jpl.nasa.gov/api/horizons_file.api"

	// Boundary is the fixed multipart boundary sent with every request.
	Boundary = "affedeadbeaf"

	// InputFilename is the file name attached to the command payload.
	InputFilename = "a.cmd"
)

// EncodeForm returns the multipart body carrying format=text and the command file.
func EncodeForm(cmd string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	if err := mw.SetBoundary(Boundary); err != nil {
		return nil, "", fmt.Errorf("set boundary: %w", err)
	}

	if err := mw.WriteField("format", "text"); err != nil {
		return nil, "", fmt.Errorf("write format field: %w", err)
	}

	fw, err := mw.CreateFormFile("input", InputFilename)
	if err != nil {
		return nil, "", fmt.Errorf("create input field: %w", err)
	}
	if _, err := fw.Write([]byte(cmd)); err != nil {
		return nil, "", fmt.Errorf("write input field: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return body, mw.FormDataContentType(), nil
}

// NewRequest builds the POST for one command.
func NewRequest(ctx context.Context, uri, cmd, userAgent string) (*http.Request, error) {
	body, contentType, err := EncodeForm(cmd)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uri, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}
