//go:build !windows

package winreg_test

import (
	"testing"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/arthur-debert/snapback/pkg/winreg"
	"github.com/stretchr/testify/assert"
)

func TestSystem_UnsupportedOffWindows(t *testing.T) {
	s := winreg.NewSystem()

	_, _, err := s.Get(types.RootLocalMachine, `SOFTWARE\X`, "Y")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotImplemented))

	err = s.Set(types.RootLocalMachine, `SOFTWARE\X`, "Y", winreg.Value{Kind: types.KindString, Data: "z"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotImplemented))
}
