// Package storage persists the element collection. The store hands every new
// collection to a Persister under a fixed key; the bytes written are the
// envelope produced by EncodeState, which keeps the {"state":{...},"version"}
// layout browser builds have always used so exported storage can be loaded
// back unchanged.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// DefaultKey is the storage key the collection lives under.
const DefaultKey = "form-builder-storage"

// StateVersion is written into every envelope. Envelopes carrying any other
// version are treated as malformed.
const StateVersion = 0

var (
	// ErrNotFound reports that nothing is stored under the requested key.
	ErrNotFound = errors.New("storage: key not found")
	// ErrMalformedState reports persisted bytes that do not decode into a
	// valid collection.
	ErrMalformedState = errors.New("storage: malformed state")
)

// Persister reads and writes raw state blobs by key.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

type envelope struct {
	State   persistedState `json:"state"`
	Version *int           `json:"version"`
}

type persistedState struct {
	Elements []model.Element `json:"elements"`
}

// EncodeState serialises the collection into the persisted envelope.
func EncodeState(elements []model.Element) ([]byte, error) {
	version := StateVersion
	if elements == nil {
		elements = []model.Element{}
	}
	data, err := json.Marshal(envelope{
		State:   persistedState{Elements: elements},
		Version: &version,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses an envelope and validates the collection invariants.
// Every failure wraps ErrMalformedState.
func DecodeState(data []byte) ([]model.Element, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	if env.Version == nil || *env.Version != StateVersion {
		return nil, fmt.Errorf("%w: unsupported version", ErrMalformedState)
	}
	if err := model.ValidateCollection(env.State.Elements); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return env.State.Elements, nil
}

// Memory is an in-process Persister, used by tests and the "memory" driver.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ Persister = (*Memory)(nil)

// NewMemory returns an empty in-memory persister.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Load returns a copy of the blob stored under key.
func (m *Memory) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Save stores a copy of data under key.
func (m *Memory) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}
