/*
Package regulation implements the MiCA registry: the per-asset record of
whether MiCA regulation is enabled for the asset contract.
*/
package regulation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/assetkit/assetkit/pkg/storage"
	"github.com/ethereum/go-ethereum/common"
)

// Entry is a single registry record.
type Entry struct {
	Asset common.Address `json:"asset" yaml:"asset"`
	MiCA  bool           `json:"mica" yaml:"mica"`
}

// Registry is the MiCA registry persisted in a storage.Store. Missing
// entries are treated as "not enabled".
type Registry struct {
	store storage.Store
}

var _ asset.RegulationChecker = (*Registry)(nil)

// errBadValue is returned for corrupted registry values.
var errBadValue = errors.New("bad registry value")

// NewRegistry creates a registry on top of the given store.
func NewRegistry(s storage.Store) *Registry {
	return &Registry{store: s}
}

func micaKey(id common.Address) []byte {
	return storage.RegulationMiCA.Key(id.Bytes())
}

// MiCAEnabled implements the asset.RegulationChecker interface.
func (r *Registry) MiCAEnabled(ctx context.Context, id common.Address) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := r.store.Get(micaKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get MiCA state of %s: %w", id, err)
	}
	return decodeFlag(v)
}

// SetMiCA records MiCA state of the given asset.
func (r *Registry) SetMiCA(ctx context.Context, id common.Address, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var v byte
	if enabled {
		v = 1
	}
	if err := r.store.Put(micaKey(id), []byte{v}); err != nil {
		return fmt.Errorf("failed to store MiCA state of %s: %w", id, err)
	}
	return nil
}

// Remove deletes the record of the given asset.
func (r *Registry) Remove(ctx context.Context, id common.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.Delete(micaKey(id))
}

// List returns all registry records sorted by asset address.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		res  []Entry
		berr error
	)
	err := r.store.Seek(storage.RegulationMiCA.Bytes(), func(k, v []byte) bool {
		if len(k) != 1+common.AddressLength {
			berr = fmt.Errorf("%w: key %x", errBadValue, k)
			return false
		}
		enabled, err := decodeFlag(v)
		if err != nil {
			berr = err
			return false
		}
		res = append(res, Entry{Asset: common.BytesToAddress(k[1:]), MiCA: enabled})
		return true
	})
	if err == nil {
		err = berr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list registry: %w", err)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Asset.Cmp(res[j].Asset) < 0
	})
	return res, nil
}

func decodeFlag(v []byte) (bool, error) {
	if len(v) != 1 || v[0] > 1 {
		return false, fmt.Errorf("%w: %x", errBadValue, v)
	}
	return v[0] == 1, nil
}
