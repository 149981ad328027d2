package watchlist

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrDuplicate     = errors.New("symbol already on watchlist")
	ErrNotFound      = errors.New("symbol not on watchlist")
	ErrInvalidSymbol = errors.New("invalid symbol")
)

// Manager handles watchlist mutations with concurrency safety. Every
// mutation is persisted before it returns.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewManager creates a Manager, loading state from disk. Seed symbols are
// used only when no state file exists yet.
func NewManager(filePath string, seed []string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}

	m := &Manager{state: state, filePath: filePath}
	if len(state.Symbols) == 0 && state.UpdatedAt.IsZero() {
		for _, s := range seed {
			if sym, err := Normalize(s); err == nil && !m.contains(sym) {
				state.Symbols = append(state.Symbols, sym)
			}
		}
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

// Normalize trims and upper-cases a symbol. Symbols may contain letters,
// digits and the characters ^ . - =.
func Normalize(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || len(s) > 16 {
		return "", fmt.Errorf("%q: %w", symbol, ErrInvalidSymbol)
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '^', r == '.', r == '-', r == '=':
		default:
			return "", fmt.Errorf("%q: %w", symbol, ErrInvalidSymbol)
		}
	}
	return s, nil
}

// List returns a copy of the watched symbols in insertion order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.state.Symbols))
	copy(out, m.state.Symbols)
	return out
}

// Contains reports whether symbol is watched.
func (m *Manager) Contains(symbol string) bool {
	sym, err := Normalize(symbol)
	if err != nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contains(sym)
}

// Add appends symbol and returns its normalized form.
func (m *Manager) Add(symbol string) (string, error) {
	sym, err := Normalize(symbol)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.contains(sym) {
		return sym, fmt.Errorf("%s: %w", sym, ErrDuplicate)
	}
	m.state.Symbols = append(m.state.Symbols, sym)
	if err := m.save(); err != nil {
		m.state.Symbols = m.state.Symbols[:len(m.state.Symbols)-1]
		return sym, fmt.Errorf("save watchlist: %w", err)
	}
	return sym, nil
}

// Remove deletes symbol and returns its normalized form.
func (m *Manager) Remove(symbol string) (string, error) {
	sym, err := Normalize(symbol)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.indexOf(sym)
	if idx < 0 {
		return sym, fmt.Errorf("%s: %w", sym, ErrNotFound)
	}
	prev := m.state.Symbols
	next := make([]string, 0, len(prev)-1)
	next = append(next, prev[:idx]...)
	next = append(next, prev[idx+1:]...)
	m.state.Symbols = next
	if err := m.save(); err != nil {
		m.state.Symbols = prev
		return sym, fmt.Errorf("save watchlist: %w", err)
	}
	return sym, nil
}

func (m *Manager) indexOf(sym string) int {
	for i, s := range m.state.Symbols {
		if s == sym {
			return i
		}
	}
	return -1
}

func (m *Manager) contains(sym string) bool { return m.indexOf(sym) >= 0 }

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
