package adapters_test

import (
	"testing"

	"github.com/arthur-debert/snapback/pkg/adapters"
	"github.com/arthur-debert/snapback/pkg/filesystem"
	"github.com/arthur-debert/snapback/pkg/runner"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/arthur-debert/snapback/pkg/winreg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_DispatchCoversEveryKind(t *testing.T) {
	set := adapters.NewSet(adapters.Options{
		Runner:  runner.NewFake(),
		Keys:    winreg.NewMemory(),
		FS:      filesystem.NewMemory(),
		BlobDir: "/blobs",
	})
	d := set.Dispatch()

	assert.Len(t, d.Keys(), len(types.AllRecordKinds))
	for _, kind := range types.AllRecordKinds {
		applier, err := d.Get(kind)
		require.NoError(t, err, kind)
		assert.NotNil(t, applier)
	}

	power, err := d.Get(types.RecordPower)
	require.NoError(t, err)
	_, isAdvisor := power.(adapters.Advisor)
	assert.True(t, isAdvisor)
}
