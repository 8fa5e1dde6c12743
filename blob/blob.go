// FILE: blob/blob.go

// Package blob moves byte payloads to and from URI-addressed locations.
// Paths without a scheme are treated as local files. The s3 scheme is
// recognized but intentionally unimplemented so callers can distinguish
// "unsupported right now" from a transfer failure.
package blob

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

// DefaultContentType is assumed when a caller does not specify one.
const DefaultContentType = "application/octet-stream"

var (
	// ErrUnsupportedScheme marks a URI scheme the package does not
	// recognize at all.
	ErrUnsupportedScheme = errors.New("blob: unsupported scheme")

	// ErrSchemeUnavailable marks a recognized scheme with no transfer
	// implementation yet.
	ErrSchemeUnavailable = errors.New("blob: scheme not implemented")
)

const requestTimeout = 10 * time.Second

var client = &fasthttp.Client{
	Name: "modelkit-blob",
}

// SplitScheme splits a URI of the form <scheme>://<location>. A path
// without "://" is the file scheme with the whole string as location.
func SplitScheme(uri string) (scheme, location string) {
	if i := strings.Index(uri, "://"); i >= 0 {
		return strings.ToLower(uri[:i]), uri[i+3:]
	}
	return "file", uri
}

// Get fetches the contents addressed by uri from the local file system or
// an HTTP(S) server.
func Get(uri string) ([]byte, error) {
	scheme, location := SplitScheme(uri)
	switch scheme {
	case "file":
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("blob: failed to read '%s': %w", location, err)
		}
		return data, nil

	case "http", "https":
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(uri)
		req.Header.SetMethod(fasthttp.MethodGet)
		if err := client.DoTimeout(req, resp, requestTimeout); err != nil {
			return nil, fmt.Errorf("blob: GET %s failed: %w", uri, err)
		}
		if code := resp.StatusCode(); code < 200 || code > 299 {
			return nil, fmt.Errorf("blob: GET %s returned status %d", uri, code)
		}
		// The response body is recycled with resp
		body := append([]byte(nil), resp.Body()...)
		return body, nil

	case "s3":
		return nil, fmt.Errorf("%w: s3", ErrSchemeUnavailable)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// Save writes contents to the location addressed by uri. HTTP(S) targets
// receive a POST and, when that fails or is rejected, a PUT with the same
// payload. An empty contentType means DefaultContentType.
func Save(uri string, contents []byte, contentType string) error {
	if contentType == "" {
		contentType = DefaultContentType
	}
	scheme, location := SplitScheme(uri)
	switch scheme {
	case "file":
		if err := os.WriteFile(location, contents, 0644); err != nil {
			return fmt.Errorf("blob: failed to write '%s': %w", location, err)
		}
		return nil

	case "http", "https":
		if err := send(fasthttp.MethodPost, uri, contents, contentType); err != nil {
			return send(fasthttp.MethodPut, uri, contents, contentType)
		}
		return nil

	case "s3":
		return fmt.Errorf("%w: s3", ErrSchemeUnavailable)

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// send performs one HTTP write attempt.
func send(method, uri string, contents []byte, contentType string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.SetContentType(contentType)
	req.SetBody(contents)

	if err := client.DoTimeout(req, resp, requestTimeout); err != nil {
		return fmt.Errorf("blob: %s %s failed: %w", method, uri, err)
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return fmt.Errorf("blob: %s %s returned status %d", method, uri, code)
	}
	return nil
}
