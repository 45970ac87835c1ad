package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"social-service/internal/observability"
)

const (
	DefaultTimeout        = 30 * time.Second
	defaultConnectTimeout = 5 * time.Second
	defaultTLSTimeout     = 5 * time.Second

	etagRequestHeader = "X-Firebase-ETag"
)

// HTTPStore talks to a REST document tree where every path is served at {base}/{path}.json.
//
// Safe for concurrent use.
type HTTPStore struct {
	baseURL    string
	auth       string
	httpClient *http.Client
}

// NewHTTPStore builds a client for the document tree rooted at baseURL.
// auth, when set, is sent as the `auth` query parameter on every call.
func NewHTTPStore(baseURL, auth string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dialer := &net.Dialer{Timeout: defaultConnectTimeout}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: defaultTLSTimeout,
			},
			Timeout: timeout,
		},
	}
}

// Get returns the document at path, or nil when the store answers with a null body.
func (s *HTTPStore) Get(ctx context.Context, path string) ([]byte, error) {
	body, _, err := s.get(ctx, path, false)
	return body, err
}

// GetVersioned returns the document together with its ETag.
func (s *HTTPStore) GetVersioned(ctx context.Context, path string) ([]byte, string, error) {
	return s.get(ctx, path, true)
}

func (s *HTTPStore) get(ctx context.Context, path string, versioned bool) ([]byte, string, error) {
	headers := map[string]string{}
	if versioned {
		headers[etagRequestHeader] = "true"
	}
	resp, body, err := s.do(ctx, http.MethodGet, path, nil, headers)
	if err != nil {
		return nil, "", err
	}
	if IsNull(body) {
		return nil, resp.Header.Get("ETag"), nil
	}
	return body, resp.Header.Get("ETag"), nil
}

// Put replaces the document at path.
func (s *HTTPStore) Put(ctx context.Context, path string, value any) error {
	_, _, err := s.do(ctx, http.MethodPut, path, value, nil)
	return err
}

// PutIfMatch replaces the document only if its ETag still equals etag.
func (s *HTTPStore) PutIfMatch(ctx context.Context, path string, value any, etag string) error {
	_, _, err := s.do(ctx, http.MethodPut, path, value, map[string]string{"if-match": etag})
	return err
}

// Post appends value under path and returns the id the store assigned.
func (s *HTTPStore) Post(ctx context.Context, path string, value any) (string, error) {
	_, body, err := s.do(ctx, http.MethodPost, path, value, nil)
	if err != nil {
		return "", err
	}
	var created struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("decode post response: %w", err)
	}
	if created.Name == "" {
		return "", fmt.Errorf("post %s: store returned no id", path)
	}
	return created.Name, nil
}

// Patch merges fields into the document at path.
func (s *HTTPStore) Patch(ctx context.Context, path string, fields any) error {
	_, _, err := s.do(ctx, http.MethodPatch, path, fields, nil)
	return err
}

// Delete removes the document at path. Deleting an absent path succeeds.
func (s *HTTPStore) Delete(ctx context.Context, path string) error {
	_, _, err := s.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func (s *HTTPStore) do(ctx context.Context, method, path string, value any, headers map[string]string) (*http.Response, []byte, error) {
	if err := validatePath(path); err != nil {
		return nil, nil, err
	}

	var reader io.Reader
	if value != nil {
		payload, err := json.Marshal(value)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.url(path), reader)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, val := range headers {
		req.Header.Set(key, val)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		observability.ObserveDocstoreRequest(method, "error", time.Since(start))
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	observability.ObserveDocstoreRequest(method, strconv.Itoa(resp.StatusCode), time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode == http.StatusPreconditionFailed {
		return resp, nil, fmt.Errorf("%s %s: %w", method, path, ErrPreconditionFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, nil, fmt.Errorf("%s %s: store returned status %d: %s", method, path, resp.StatusCode, string(body))
	}
	return resp, body, nil
}

func (s *HTTPStore) url(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	u := s.baseURL + "/" + strings.Join(segments, "/") + ".json"
	if s.auth != "" {
		u += "?auth=" + url.QueryEscape(s.auth)
	}
	return u
}
