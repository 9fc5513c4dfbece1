//go:build windows

package winreg

import (
	stderrors "errors"
	"unsafe"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/types"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

var procRegSetValueExW = windows.NewLazySystemDLL("advapi32.dll").NewProc("RegSetValueExW")

// System is the live Windows registry
type System struct{}

// NewSystem returns the Windows registry store
func NewSystem() KeyStore {
	return &System{}
}

func rootKey(root types.Root) (registry.Key, error) {
	switch root {
	case types.RootLocalMachine:
		return registry.LOCAL_MACHINE, nil
	case types.RootCurrentUser:
		return registry.CURRENT_USER, nil
	}
	return 0, errors.Newf(errors.ErrInvalidInput, "unknown registry root %q", root)
}

func notExist(err error) bool {
	return stderrors.Is(err, registry.ErrNotExist)
}

// Get implements KeyStore
func (s *System) Get(root types.Root, path, name string) (Value, bool, error) {
	base, err := rootKey(root)
	if err != nil {
		return Value{}, false, err
	}
	k, err := registry.OpenKey(base, path, registry.QUERY_VALUE)
	if err != nil {
		if notExist(err) {
			return Value{}, false, nil
		}
		return Value{}, false, err
	}
	defer k.Close()

	size, valtype, err := k.GetValue(name, nil)
	if err != nil {
		if notExist(err) {
			return Value{}, false, nil
		}
		return Value{}, false, err
	}

	switch valtype {
	case registry.SZ, registry.EXPAND_SZ:
		// GetStringValue does not expand environment references, so an
		// ExpandString round-trips verbatim.
		s, _, err := k.GetStringValue(name)
		if err != nil {
			return Value{}, false, err
		}
		kind := types.KindString
		if valtype == registry.EXPAND_SZ {
			kind = types.KindExpandString
		}
		return Value{Kind: kind, Data: s}, true, nil
	case registry.MULTI_SZ:
		ss, _, err := k.GetStringsValue(name)
		if err != nil {
			return Value{}, false, err
		}
		if ss == nil {
			ss = []string{}
		}
		return Value{Kind: types.KindMultiString, Data: ss}, true, nil
	case registry.DWORD:
		n, _, err := k.GetIntegerValue(name)
		if err != nil {
			return Value{}, false, err
		}
		return Value{Kind: types.KindDWord, Data: uint32(n)}, true, nil
	case registry.QWORD:
		n, _, err := k.GetIntegerValue(name)
		if err != nil {
			return Value{}, false, err
		}
		return Value{Kind: types.KindQWord, Data: n}, true, nil
	case registry.BINARY:
		b, _, err := k.GetBinaryValue(name)
		if err != nil {
			return Value{}, false, err
		}
		return Value{Kind: types.KindBinary, Data: b}, true, nil
	case registry.NONE:
		buf := make([]byte, size)
		if size > 0 {
			if _, _, err := k.GetValue(name, buf); err != nil {
				return Value{}, false, err
			}
		}
		return Value{Kind: types.KindNone, Data: buf}, true, nil
	}

	return Value{}, false, errors.Newf(errors.ErrNotImplemented, "unsupported registry value type %d", valtype)
}

// Set implements KeyStore. Missing keys along path are created.
func (s *System) Set(root types.Root, path, name string, v Value) error {
	base, err := rootKey(root)
	if err != nil {
		return err
	}
	data, err := types.NormalizeValue(v.Kind, v.Data)
	if err != nil {
		return err
	}

	k, _, err := registry.CreateKey(base, path, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	switch v.Kind {
	case types.KindString:
		return k.SetStringValue(name, data.(string))
	case types.KindExpandString:
		return k.SetExpandStringValue(name, data.(string))
	case types.KindMultiString:
		return k.SetStringsValue(name, data.([]string))
	case types.KindDWord:
		return k.SetDWordValue(name, data.(uint32))
	case types.KindQWord:
		return k.SetQWordValue(name, data.(uint64))
	case types.KindBinary:
		return k.SetBinaryValue(name, data.([]byte))
	case types.KindNone:
		b, _ := data.([]byte)
		return setNone(k, name, b)
	}
	return errors.Newf(errors.ErrInvalidInput, "unknown value kind %q", v.Kind)
}

// setNone writes a REG_NONE value, which the registry package has no
// exported setter for.
func setNone(k registry.Key, name string, data []byte) error {
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return err
	}
	var buf *byte
	if len(data) > 0 {
		buf = &data[0]
	}
	r, _, _ := procRegSetValueExW.Call(
		uintptr(k),
		uintptr(unsafe.Pointer(namep)),
		0,
		uintptr(registry.NONE),
		uintptr(unsafe.Pointer(buf)),
		uintptr(len(data)),
	)
	if r != 0 {
		return windows.Errno(r)
	}
	return nil
}

// Delete implements KeyStore
func (s *System) Delete(root types.Root, path, name string) error {
	base, err := rootKey(root)
	if err != nil {
		return err
	}
	k, err := registry.OpenKey(base, path, registry.SET_VALUE)
	if err != nil {
		if notExist(err) {
			return nil
		}
		return err
	}
	defer k.Close()

	if err := k.DeleteValue(name); err != nil && !notExist(err) {
		return err
	}
	return nil
}

// CreatePath implements KeyStore
func (s *System) CreatePath(root types.Root, path string) error {
	base, err := rootKey(root)
	if err != nil {
		return err
	}
	k, _, err := registry.CreateKey(base, path, registry.QUERY_VALUE)
	if err != nil {
		return err
	}
	return k.Close()
}

// KeyExists implements KeyStore
func (s *System) KeyExists(root types.Root, path string) (bool, error) {
	base, err := rootKey(root)
	if err != nil {
		return false, err
	}
	k, err := registry.OpenKey(base, path, registry.QUERY_VALUE)
	if err != nil {
		if notExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, k.Close()
}

// ListSubKeys implements KeyStore
func (s *System) ListSubKeys(root types.Root, path string) ([]string, error) {
	base, err := rootKey(root)
	if err != nil {
		return nil, err
	}
	k, err := registry.OpenKey(base, path, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		if notExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer k.Close()
	return k.ReadSubKeyNames(-1)
}
