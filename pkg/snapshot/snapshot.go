/*
Package snapshot implements a file-backed asset data source. A snapshot is a
YAML or JSON document with asset records, holder balances and supply manager
lists, the format is chosen by file extension.
*/
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned for assets and balances missing from the snapshot.
var ErrNotFound = errors.New("not found")

type balanceKey struct {
	asset   common.Address
	account common.Address
}

// Snapshot is an immutable in-memory set of asset records. It's safe for
// concurrent use.
type Snapshot struct {
	assets   map[common.Address]*asset.Detail
	balances map[balanceKey]*asset.Balance
	roles    map[common.Address][]common.Address
}

// Load reads snapshot from the given file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read snapshot: %w", err)
	}
	var doc document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case ".yml", ".yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return build(doc)
}

// build creates a snapshot from a decoded document, every record is validated.
func build(doc document) (*Snapshot, error) {
	s := &Snapshot{
		assets:   make(map[common.Address]*asset.Detail, len(doc.Assets)),
		balances: make(map[balanceKey]*asset.Balance, len(doc.Balances)),
		roles:    make(map[common.Address][]common.Address, len(doc.Roles)),
	}
	for i, a := range doc.Assets {
		d, err := a.detail()
		if err != nil {
			return nil, fmt.Errorf("asset #%d: %w", i, err)
		}
		if _, ok := s.assets[d.ID]; ok {
			return nil, fmt.Errorf("asset #%d: duplicate id %s", i, d.ID)
		}
		s.assets[d.ID] = d
	}
	for i, b := range doc.Balances {
		bal, err := asset.NewBalance(b.Account, b.Value, b.Frozen, b.Blocked)
		if err != nil {
			return nil, fmt.Errorf("balance #%d: %w", i, err)
		}
		if _, ok := s.assets[b.Asset]; !ok {
			return nil, fmt.Errorf("balance #%d: unknown asset %s", i, b.Asset)
		}
		s.balances[balanceKey{b.Asset, b.Account}] = bal
	}
	for k, managers := range doc.Roles {
		if !common.IsHexAddress(k) {
			return nil, fmt.Errorf("roles: bad asset address %q", k)
		}
		id := common.HexToAddress(k)
		if _, ok := s.assets[id]; !ok {
			return nil, fmt.Errorf("roles: unknown asset %s", id)
		}
		s.roles[id] = managers
	}
	return s, nil
}

// AssetDetail returns the asset record. Returned value must not be modified.
func (s *Snapshot) AssetDetail(ctx context.Context, id common.Address) (*asset.Detail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := s.assets[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return d, nil
}

// Balance returns balance of account for the given asset. Accounts without a
// record have zero balance.
func (s *Snapshot) Balance(ctx context.Context, id, account common.Address) (*asset.Balance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := s.assets[id]; !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	if b, ok := s.balances[balanceKey{id, account}]; ok {
		return b, nil
	}
	return &asset.Balance{Account: account}, nil
}

// SupplyManagers returns accounts holding the supply management role.
func (s *Snapshot) SupplyManagers(ctx context.Context, id common.Address) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := s.assets[id]; !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	return append([]common.Address(nil), s.roles[id]...), nil
}

// Assets returns ids of all assets sorted.
func (s *Snapshot) Assets() []common.Address {
	res := make([]common.Address, 0, len(s.assets))
	for id := range s.assets {
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Cmp(res[j]) < 0 })
	return res
}
