//go:build !windows

package winreg

import "github.com/arthur-debert/snapback/pkg/types"

// System is a placeholder registry on platforms without one. Every
// operation fails with NOT_IMPLEMENTED.
type System struct{}

// NewSystem returns the platform registry store
func NewSystem() KeyStore {
	return &System{}
}

func (s *System) Get(types.Root, string, string) (Value, bool, error) {
	return Value{}, false, unsupported("read")
}

func (s *System) Set(types.Root, string, string, Value) error {
	return unsupported("write")
}

func (s *System) Delete(types.Root, string, string) error {
	return unsupported("delete")
}

func (s *System) CreatePath(types.Root, string) error {
	return unsupported("create")
}

func (s *System) KeyExists(types.Root, string) (bool, error) {
	return false, unsupported("read")
}

func (s *System) ListSubKeys(types.Root, string) ([]string, error) {
	return nil, unsupported("enumerate")
}
