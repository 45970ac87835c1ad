package docstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

const nullETag = "null_etag"

// MemoryStore is an in-process document tree with the same semantics as HTTPStore:
// null/absent reads, merge-on-patch, store-assigned ids on post, empty objects pruned.
type MemoryStore struct {
	mu   sync.Mutex
	root map[string]any
}

// NewMemoryStore returns an empty tree.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: map[string]any{}}
}

func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	body, _, err := m.GetVersioned(ctx, path)
	return body, err
}

func (m *MemoryStore) GetVersioned(_ context.Context, path string) ([]byte, string, error) {
	if err := validatePath(path); err != nil {
		return nil, "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.lookup(path)
	if !ok {
		return nil, nullETag, nil
	}
	body, err := json.Marshal(node)
	if err != nil {
		return nil, "", fmt.Errorf("marshal %s: %w", path, err)
	}
	return body, etagOf(body), nil
}

func (m *MemoryStore) Put(_ context.Context, path string, value any) error {
	if err := validatePath(path); err != nil {
		return err
	}
	normalized, err := normalize(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(path, normalized)
	return nil
}

func (m *MemoryStore) PutIfMatch(_ context.Context, path string, value any, etag string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	normalized, err := normalize(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current := nullETag
	if node, ok := m.lookup(path); ok {
		body, err := json.Marshal(node)
		if err != nil {
			return err
		}
		current = etagOf(body)
	}
	if current != etag {
		return fmt.Errorf("PUT %s: %w", path, ErrPreconditionFailed)
	}
	m.set(path, normalized)
	return nil
}

func (m *MemoryStore) Post(_ context.Context, path string, value any) (string, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}
	normalized, err := normalize(value)
	if err != nil {
		return "", err
	}
	id := ulid.Make().String()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(Join(path, id), normalized)
	return id, nil
}

func (m *MemoryStore) Patch(_ context.Context, path string, fields any) error {
	if err := validatePath(path); err != nil {
		return err
	}
	normalized, err := normalize(fields)
	if err != nil {
		return err
	}
	children, ok := normalized.(map[string]any)
	if !ok {
		return fmt.Errorf("patch %s: body must be an object", path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range children {
		m.set(Join(path, key), value)
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(path, nil)
	return nil
}

func (m *MemoryStore) lookup(path string) (any, bool) {
	var node any = m.root
	for _, seg := range strings.Split(path, "/") {
		children, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = children[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// set writes value at path; a nil value or empty object removes the path and prunes
// parents left empty.
func (m *MemoryStore) set(path string, value any) {
	segs := strings.Split(path, "/")
	if obj, ok := value.(map[string]any); ok && len(obj) == 0 {
		value = nil
	}

	parents := make([]map[string]any, 0, len(segs))
	node := m.root
	for _, seg := range segs[:len(segs)-1] {
		parents = append(parents, node)
		next, ok := node[seg].(map[string]any)
		if !ok {
			if value == nil {
				return
			}
			next = map[string]any{}
			node[seg] = next
		}
		node = next
	}

	last := segs[len(segs)-1]
	if value != nil {
		node[last] = value
		return
	}
	delete(node, last)
	for i := len(parents) - 1; i >= 0 && len(node) == 0; i-- {
		delete(parents[i], segs[i])
		node = parents[i]
	}
}

func normalize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	var out any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	return out, nil
}

func etagOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
