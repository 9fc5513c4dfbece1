package types

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/arthur-debert/snapback/pkg/errors"
)

// NormalizeValue converts raw into the canonical Go type for kind:
//
//	String, ExpandString -> string
//	MultiString          -> []string
//	DWord                -> uint32
//	QWord                -> uint64
//	Binary, None         -> []byte (None may also be nil)
//
// raw may come straight from a JSON decoder (float64, json.Number, []any,
// base64 strings). Signed inputs are reinterpreted bitwise, so documents
// that stored 0xFFFFFFFF as -1 still round-trip.
func NormalizeValue(kind ValueKind, raw any) (any, error) {
	switch kind {
	case KindString, KindExpandString:
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch(kind, raw)
		}
		return s, nil

	case KindMultiString:
		switch v := raw.(type) {
		case []string:
			return append([]string{}, v...), nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, mismatch(kind, raw)
				}
				out = append(out, s)
			}
			return out, nil
		case nil:
			return []string{}, nil
		}
		return nil, mismatch(kind, raw)

	case KindDWord:
		n, err := toUint(raw, 32)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid %s value", kind)
		}
		return uint32(n), nil

	case KindQWord:
		n, err := toUint(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid %s value", kind)
		}
		return n, nil

	case KindBinary, KindNone:
		switch v := raw.(type) {
		case []byte:
			return append([]byte{}, v...), nil
		case string:
			b, err := base64.StdEncoding.DecodeString(v)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid %s value", kind)
			}
			return b, nil
		case []any:
			out := make([]byte, 0, len(v))
			for _, item := range v {
				n, err := toUint(item, 8)
				if err != nil {
					return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid %s value", kind)
				}
				out = append(out, byte(n))
			}
			return out, nil
		case nil:
			if kind == KindNone {
				return nil, nil
			}
			return []byte{}, nil
		}
		return nil, mismatch(kind, raw)
	}

	return nil, errors.Newf(errors.ErrInvalidInput, "unknown value kind %q", kind)
}

func mismatch(kind ValueKind, raw any) error {
	return errors.Newf(errors.ErrInvalidInput, "value of type %T does not match kind %s", raw, kind)
}

// toUint converts integer-like values to an unsigned integer of the given
// bit size. Negative values inside the signed range are reinterpreted.
func toUint(raw any, bits int) (uint64, error) {
	var signed int64
	var unsigned uint64
	isSigned := false

	switch v := raw.(type) {
	case uint8:
		unsigned = uint64(v)
	case uint16:
		unsigned = uint64(v)
	case uint32:
		unsigned = uint64(v)
	case uint64:
		unsigned = v
	case uint:
		unsigned = uint64(v)
	case int:
		signed, isSigned = int64(v), true
	case int8:
		signed, isSigned = int64(v), true
	case int16:
		signed, isSigned = int64(v), true
	case int32:
		signed, isSigned = int64(v), true
	case int64:
		signed, isSigned = v, true
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		if v < 0 {
			signed, isSigned = int64(v), true
		} else {
			if v >= math.Exp2(float64(bits)) {
				return 0, fmt.Errorf("%v overflows %d bits", v, bits)
			}
			unsigned = uint64(v)
		}
	case json.Number:
		s := v.String()
		if strings.HasPrefix(s, "-") {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return 0, err
			}
			signed, isSigned = n, true
		} else {
			n, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return 0, err
			}
			unsigned = n
		}
	case string:
		return toUint(json.Number(strings.TrimSpace(v)), bits)
	default:
		return 0, fmt.Errorf("value of type %T is not an integer", raw)
	}

	if isSigned {
		if signed >= 0 {
			unsigned = uint64(signed)
		} else {
			if bits < 64 && signed < -(int64(1)<<(bits-1)) {
				return 0, fmt.Errorf("%d underflows %d bits", signed, bits)
			}
			unsigned = uint64(signed)
			if bits < 64 {
				unsigned &= (uint64(1) << bits) - 1
			}
			return unsigned, nil
		}
	}

	if bits < 64 && unsigned >= uint64(1)<<bits {
		return 0, fmt.Errorf("%d overflows %d bits", unsigned, bits)
	}
	return unsigned, nil
}

// ValuesEqual compares two values of the same kind after normalization
func ValuesEqual(kind ValueKind, a, b any) bool {
	na, errA := NormalizeValue(kind, a)
	nb, errB := NormalizeValue(kind, b)
	if errA != nil || errB != nil {
		return false
	}
	if ba, ok := na.([]byte); ok {
		bb, ok := nb.([]byte)
		return ok && bytes.Equal(ba, bb)
	}
	return reflect.DeepEqual(na, nb)
}

// FormatValue renders a value for logs and display
func FormatValue(v any) string {
	if v == nil {
		return "<absent>"
	}
	switch val := v.(type) {
	case []byte:
		return fmt.Sprintf("hex:%x", val)
	case []string:
		return strings.Join(val, "\\0")
	case uint32:
		return fmt.Sprintf("%d (0x%08x)", val, val)
	case uint64:
		return fmt.Sprintf("%d (0x%016x)", val, val)
	}
	return fmt.Sprint(v)
}

// decodeTypedValue decodes a raw JSON value according to kind. A missing
// or null value with no kind means "not captured".
func decodeTypedValue(raw json.RawMessage, kind *ValueKind) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		if kind != nil && *kind == KindMultiString {
			return []string{}, nil
		}
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if kind == nil {
		return v, nil
	}
	return NormalizeValue(*kind, v)
}
