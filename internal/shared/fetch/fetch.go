// Package fetch reads the static JSON files the service starts from. A path
// with an http or https scheme is fetched; anything else is read from disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

var (
	// ErrStatus is returned when the server answers with a non-2xx status.
	ErrStatus = errors.New("unexpected HTTP status")
	// ErrTooLarge is returned for bodies over maxBody bytes.
	ErrTooLarge = errors.New("response too large")
)

var maxBody int64 = 64 << 20

func IsRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Read returns the bytes behind path.
func Read(ctx context.Context, client *http.Client, path string) ([]byte, error) {
	if !IsRemote(path) {
		return os.ReadFile(path)
	}
	return Get(ctx, client, path)
}

// Get performs a GET and fails on any non-success status.
func Get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > maxBody {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, maxBody)
	}
	return body, nil
}
