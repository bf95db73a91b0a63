package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Stream yields text fragments of one generation in arrival order.
// Next returns iterator.Done (google.golang.org/api/iterator) after the last fragment.
type Stream interface {
	Next() (string, error)
	Close() error
}

type Engine interface {
	Name() string
	GetModel() string
	GenerateStream(ctx context.Context, prompt string, image []byte, mime string) (Stream, error)
}

// Manager keeps the engine each chat picked, falling back to a default.
type Manager struct {
	def     Engine
	engines map[string]Engine
	m       sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine, all ...Engine) *Manager {
	mgr := &Manager{def: defaultEngine, engines: map[string]Engine{}}
	for _, e := range append([]Engine{defaultEngine}, all...) {
		if e != nil {
			mgr.engines[e.Name()] = e
		}
	}
	return mgr
}

func (m *Manager) Default() Engine { return m.def }

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}

// Lookup finds an engine by name; "openai" is accepted for "gpt".
func (m *Manager) Lookup(name string) (Engine, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "openai" {
		name = "gpt"
	}
	if e, ok := m.engines[name]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("unknown engine %q; available: %s", name, strings.Join(m.Names(), " | "))
}

func (m *Manager) Names() []string {
	out := make([]string, 0, len(m.engines))
	for _, n := range []string{"gemini", "gpt"} {
		if _, ok := m.engines[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// ModelSwitcher is implemented by engines that can serve another model on the same client.
type ModelSwitcher interface {
	WithModel(model string) Engine
}
