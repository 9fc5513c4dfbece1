package winreg

import (
	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/types"
)

// Value is a registry value together with its storage kind. Data holds the
// canonical Go type for Kind (see types.NormalizeValue).
type Value struct {
	Kind types.ValueKind
	Data any
}

// KeyStore reads and writes values in a registry-like hierarchy.
//
// A missing key or value is never an error for Get or Delete: Get reports
// exists=false and Delete succeeds.
type KeyStore interface {
	Get(root types.Root, path, name string) (v Value, exists bool, err error)
	Set(root types.Root, path, name string, v Value) error
	Delete(root types.Root, path, name string) error
	CreatePath(root types.Root, path string) error
	KeyExists(root types.Root, path string) (bool, error)
	ListSubKeys(root types.Root, path string) ([]string, error)
}

// NewValue normalizes data for kind and returns a Value
func NewValue(kind types.ValueKind, data any) (Value, error) {
	norm, err := types.NormalizeValue(kind, data)
	if err != nil {
		return Value{}, err
	}
	return Value{Kind: kind, Data: norm}, nil
}

func unsupported(op string) error {
	return errors.Newf(errors.ErrNotImplemented, "registry %s is only available on Windows", op)
}
