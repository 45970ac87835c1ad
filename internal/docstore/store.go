package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPreconditionFailed is returned by a conditional write whose ETag no longer matches.
	ErrPreconditionFailed = errors.New("document changed since read")
	ErrInvalidPath        = errors.New("invalid document path")
)

// Store abstracts a path-addressed JSON document tree.
//
// Get returns nil bytes (and no error) when nothing is stored at the path.
type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, value any) error
	Post(ctx context.Context, path string, value any) (string, error)
	Patch(ctx context.Context, path string, fields any) error
	Delete(ctx context.Context, path string) error
}

// ConditionalStore is implemented by stores that can compare-and-set a single path.
type ConditionalStore interface {
	Store
	GetVersioned(ctx context.Context, path string) ([]byte, string, error)
	PutIfMatch(ctx context.Context, path string, value any, etag string) error
}

// Join builds a document path from segments, dropping empty ones.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// IsNull reports whether a body means "no document".
func IsNull(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// GetJSON reads path into dst. It returns false when the document is absent.
func GetJSON(ctx context.Context, s Store, path string, dst any) (bool, error) {
	body, err := s.Get(ctx, path)
	if err != nil {
		return false, err
	}
	if IsNull(body) {
		return false, nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// GetFlags reads a map of key->bool and returns the keys whose value is true.
func GetFlags(ctx context.Context, s Store, path string) ([]string, error) {
	var raw map[string]json.RawMessage
	found, err := GetJSON(ctx, s, path, &raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return []string{}, nil
	}
	keys := make([]string, 0, len(raw))
	for key, value := range raw {
		var flag bool
		if json.Unmarshal(value, &flag) == nil && flag {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// GetFlag reads a single boolean edge. Absent means false.
func GetFlag(ctx context.Context, s Store, path string) (bool, error) {
	var flag bool
	found, err := GetJSON(ctx, s, path, &flag)
	if err != nil || !found {
		return false, err
	}
	return flag, nil
}

func validatePath(path string) error {
	if path == "" || strings.Contains(path, "//") || strings.ContainsAny(path, ".#$[]") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}
