package winreg

import (
	"sort"
	"strings"
	"sync"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/types"
)

type memKey struct {
	name   string // original casing of the last path element
	values map[string]memValue
}

type memValue struct {
	name  string
	value Value
}

// Memory is an in-memory KeyStore. Key paths and value names are
// case-insensitive, like the Windows registry.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]*memKey
	fail map[string]error
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		keys: make(map[string]*memKey),
		fail: make(map[string]error),
	}
}

func keyID(root types.Root, path string) string {
	path = strings.Trim(strings.ReplaceAll(path, "/", `\`), `\`)
	if path == "" {
		return strings.ToLower(string(root))
	}
	return strings.ToLower(string(root) + `\` + path)
}

func opID(op string, root types.Root, path, name string) string {
	return op + "|" + keyID(root, path) + `\` + strings.ToLower(name)
}

// FailOn makes the given operation ("get", "set", "delete") fail for one
// value with err. Used to inject faults in tests.
func (m *Memory) FailOn(op string, root types.Root, path, name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[opID(op, root, path, name)] = err
}

func (m *Memory) injected(op string, root types.Root, path, name string) error {
	return m.fail[opID(op, root, path, name)]
}

// Get implements KeyStore
func (m *Memory) Get(root types.Root, path, name string) (Value, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.injected("get", root, path, name); err != nil {
		return Value{}, false, err
	}
	k, ok := m.keys[keyID(root, path)]
	if !ok {
		return Value{}, false, nil
	}
	v, ok := k.values[strings.ToLower(name)]
	if !ok {
		return Value{}, false, nil
	}
	return copyValue(v.value), true, nil
}

// Set implements KeyStore. Missing parent keys are created.
func (m *Memory) Set(root types.Root, path, name string, v Value) error {
	if !v.Kind.Valid() {
		return errors.Newf(errors.ErrInvalidInput, "unknown value kind %q", v.Kind)
	}
	norm, err := types.NormalizeValue(v.Kind, v.Data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected("set", root, path, name); err != nil {
		return err
	}
	k := m.createPathLocked(root, path)
	k.values[strings.ToLower(name)] = memValue{name: name, value: Value{Kind: v.Kind, Data: norm}}
	return nil
}

// Delete implements KeyStore
func (m *Memory) Delete(root types.Root, path, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.injected("delete", root, path, name); err != nil {
		return err
	}
	if k, ok := m.keys[keyID(root, path)]; ok {
		delete(k.values, strings.ToLower(name))
	}
	return nil
}

// CreatePath implements KeyStore
func (m *Memory) CreatePath(root types.Root, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createPathLocked(root, path)
	return nil
}

func (m *Memory) createPathLocked(root types.Root, path string) *memKey {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '\\' || r == '/' })
	var k *memKey
	for i := 0; i <= len(parts); i++ {
		id := keyID(root, strings.Join(parts[:i], `\`))
		existing, ok := m.keys[id]
		if !ok {
			name := ""
			if i > 0 {
				name = parts[i-1]
			}
			existing = &memKey{name: name, values: make(map[string]memValue)}
			m.keys[id] = existing
		}
		k = existing
	}
	return k
}

// KeyExists implements KeyStore
func (m *Memory) KeyExists(root types.Root, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[keyID(root, path)]
	return ok, nil
}

// ListSubKeys implements KeyStore. A missing key has no subkeys.
func (m *Memory) ListSubKeys(root types.Root, path string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := keyID(root, path) + `\`
	var names []string
	for id, k := range m.keys {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok || rest == "" || strings.Contains(rest, `\`) {
			continue
		}
		names = append(names, k.name)
	}
	sort.Strings(names)
	return names, nil
}

// DeleteKey removes a key and everything below it
func (m *Memory) DeleteKey(root types.Root, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := keyID(root, path)
	for k := range m.keys {
		if k == id || strings.HasPrefix(k, id+`\`) {
			delete(m.keys, k)
		}
	}
}

func copyValue(v Value) Value {
	switch d := v.Data.(type) {
	case []byte:
		v.Data = append([]byte{}, d...)
	case []string:
		v.Data = append([]string{}, d...)
	}
	return v
}
