package adapters

import (
	"context"

	"github.com/arthur-debert/snapback/pkg/errors"
	"github.com/arthur-debert/snapback/pkg/logging"
	"github.com/arthur-debert/snapback/pkg/types"
	"github.com/arthur-debert/snapback/pkg/winreg"
	"github.com/rs/zerolog"
)

// RegistryID identifies one registry value
type RegistryID struct {
	Root types.Root
	Path string
	Name string
}

func (id RegistryID) String() string {
	return types.RegistryIdentity(id.Root, id.Path, id.Name)
}

// RegistryAdapter captures and applies registry values with their kind
type RegistryAdapter struct {
	keys   winreg.KeyStore
	logger zerolog.Logger
}

// NewRegistry creates a registry adapter over keys
func NewRegistry(keys winreg.KeyStore) *RegistryAdapter {
	return &RegistryAdapter{keys: keys, logger: logging.GetLogger("adapters.registry")}
}

// Capture reads the value and its kind. A missing key or value is
// Existed=false.
func (a *RegistryAdapter) Capture(ctx context.Context, id RegistryID) (Captured, error) {
	return captureValue(ctx, a.keys, id)
}

// Apply writes the captured value back with its original kind, creating
// the key path, or deletes the value when it did not exist.
func (a *RegistryAdapter) Apply(ctx context.Context, id RegistryID, c Captured) error {
	if err := applyValue(ctx, a.keys, id, c); err != nil {
		return err
	}
	a.logger.Debug().
		Str("value", id.String()).
		Bool("existed", c.Existed).
		Msg("Registry value restored")
	return nil
}

// CaptureRecord captures id into a RegistryValueChange
func (a *RegistryAdapter) CaptureRecord(ctx context.Context, id RegistryID) (*types.RegistryValueChange, error) {
	c, err := a.Capture(ctx, id)
	if err != nil {
		return nil, err
	}
	return &types.RegistryValueChange{
		Root:              id.Root,
		Path:              id.Path,
		ValueName:         id.Name,
		ExistedBefore:     c.Existed,
		OriginalValue:     c.Value,
		OriginalValueKind: c.Kind,
	}, nil
}

// ApplyRecord implements RecordApplier
func (a *RegistryAdapter) ApplyRecord(ctx context.Context, rec types.ChangeRecord) error {
	r, ok := rec.(*types.RegistryValueChange)
	if !ok {
		return wrongRecord(types.RecordRegistry, rec)
	}
	id := RegistryID{Root: r.Root, Path: r.Path, Name: r.ValueName}
	return a.Apply(ctx, id, Captured{Existed: r.ExistedBefore, Value: r.OriginalValue, Kind: r.OriginalValueKind})
}

func captureValue(ctx context.Context, keys winreg.KeyStore, id RegistryID) (Captured, error) {
	if err := ctx.Err(); err != nil {
		return Captured{}, errors.Wrapf(err, errors.ErrCapture, "capture of %s cancelled", id)
	}
	v, exists, err := keys.Get(id.Root, id.Path, id.Name)
	if err != nil {
		return Captured{}, errors.Wrapf(err, errors.ErrCapture, "failed to read %s", id)
	}
	if !exists {
		return Captured{}, nil
	}
	return Captured{Existed: true, Value: v.Data, Kind: types.KindPtr(v.Kind)}, nil
}

func applyValue(ctx context.Context, keys winreg.KeyStore, id RegistryID, c Captured) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, errors.ErrApply, "restore of %s cancelled", id)
	}
	if !c.Existed {
		if err := keys.Delete(id.Root, id.Path, id.Name); err != nil {
			return errors.Wrapf(err, errors.ErrApply, "failed to delete %s", id)
		}
		return nil
	}
	if c.Kind == nil {
		return errors.Newf(errors.ErrApply, "%s has no recorded value kind", id)
	}
	// A value that already holds the recorded data is left alone. A read
	// error falls through to the write, which reports it.
	if cur, ok, err := keys.Get(id.Root, id.Path, id.Name); err == nil && ok &&
		cur.Kind == *c.Kind && types.ValuesEqual(cur.Kind, cur.Data, c.Value) {
		return nil
	}
	if err := keys.CreatePath(id.Root, id.Path); err != nil {
		return errors.Wrapf(err, errors.ErrApply, "failed to create key for %s", id)
	}
	if err := keys.Set(id.Root, id.Path, id.Name, winreg.Value{Kind: *c.Kind, Data: c.Value}); err != nil {
		return errors.Wrapf(err, errors.ErrApply, "failed to write %s", id)
	}
	return nil
}
