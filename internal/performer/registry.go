// Package performer loads the performer registry, a JSON file mapping
// performer names to a system prompt and voice settings.
package performer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"
)

// DefaultSpeed applies to entries that name a voice but omit speed.
const DefaultSpeed = 1.3

// ErrInvalidEntry marks a registry entry that cannot be used.
var ErrInvalidEntry = errors.New("invalid performer entry")

// Voice is the resolved synthesis setting for one performer.
type Voice struct {
	ID           string
	Speed        float64
	SystemPrompt string
}

// Fallback is used for performers that are unknown or carry no voice.
var Fallback = Voice{ID: "alloy", Speed: DefaultSpeed}

// entry mirrors one record of prompts.json. Voice is a pointer so an absent
// key can be told apart from an empty one.
type entry struct {
	SystemPrompt string          `json:"system_prompt"`
	Voice        *string         `json:"voice"`
	Speed        json.RawMessage `json:"speed"`
}

// Entry is a validated registry record.
type Entry struct {
	SystemPrompt string
	// HasVoice is false when the record has no voice key.
	HasVoice bool
	Voice    string
	Speed    float64
}

// Parse validates the registry document. Names are NFC-normalized.
func Parse(data []byte) (map[string]Entry, error) {
	var raw map[string]entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse performer registry: %w", err)
	}

	entries := make(map[string]Entry, len(raw))
	for name, r := range raw {
		e := Entry{SystemPrompt: r.SystemPrompt, Speed: DefaultSpeed}

		if r.Voice != nil {
			if *r.Voice == "" {
				return nil, fmt.Errorf("%w %q: voice is empty", ErrInvalidEntry, name)
			}
			e.HasVoice = true
			e.Voice = *r.Voice
		}

		if len(r.Speed) > 0 && !bytes.Equal(r.Speed, []byte("null")) {
			var speed float64
			if err := json.Unmarshal(r.Speed, &speed); err != nil {
				return nil, fmt.Errorf("%w %q: speed %s is not a number", ErrInvalidEntry, name, r.Speed)
			}
			if speed <= 0 {
				return nil, fmt.Errorf("%w %q: speed must be positive, got %v", ErrInvalidEntry, name, speed)
			}
			e.Speed = speed
		}

		entries[norm.NFC.String(name)] = e
	}
	return entries, nil
}

// Registry is a concurrency-safe view of the registry file.
type Registry struct {
	path   string
	logger *log.Logger

	mu      sync.RWMutex
	entries map[string]Entry
}

// Load reads the registry at path. A missing file yields an empty registry.
func Load(path string, logger *log.Logger) (*Registry, error) {
	if logger == nil {
		logger = log.Default()
	}
	r := &Registry{path: path, logger: logger, entries: map[string]Entry{}}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// FromEntries builds a registry that is not backed by a file.
func FromEntries(entries map[string]Entry, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	normalized := make(map[string]Entry, len(entries))
	for name, e := range entries {
		normalized[norm.NFC.String(name)] = e
	}
	return &Registry{logger: logger, entries: normalized}
}

// Path returns the backing file, if any.
func (r *Registry) Path() string {
	return r.path
}

// Reload re-reads the backing file. On error the previous entries are kept.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}

	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("performer registry not found", "path", r.path)
		r.mu.Lock()
		r.entries = map[string]Entry{}
		r.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read performer registry: %w", err)
	}

	entries, err := Parse(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.entries = entries
	r.mu.Unlock()

	r.logger.Debug("performer registry loaded", "path", r.path, "performers", len(entries))
	return nil
}

// Names returns the registered performers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the raw entry for name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[norm.NFC.String(name)]
	return e, ok
}

// Resolve returns the voice for name. The boolean is false when Fallback was
// substituted, in which case a warning has been logged.
func (r *Registry) Resolve(name string) (Voice, bool) {
	e, ok := r.Lookup(name)
	if !ok || !e.HasVoice {
		r.logger.Warn("performer has no voice, using fallback",
			"performer", name, "voice", Fallback.ID, "speed", Fallback.Speed)
		v := Fallback
		v.SystemPrompt = e.SystemPrompt
		return v, false
	}
	return Voice{ID: e.Voice, Speed: e.Speed, SystemPrompt: e.SystemPrompt}, true
}
