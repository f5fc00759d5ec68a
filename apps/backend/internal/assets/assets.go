package assets

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

//go:embed networks/*.json
var networkFS embed.FS

// Asset represents an ERC20 token the platform supports
type Asset struct {
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Address  common.Address `json:"address"`
	Decimals int            `json:"decimals"`
}

// AssetRegistry holds all supported assets
type AssetRegistry struct {
	assets    map[string]*Asset // keyed by upper-case symbol
	byAddress map[common.Address]*Asset
}

// NewAssetRegistry builds a registry from the given assets. Duplicate symbols
// or addresses are rejected.
func NewAssetRegistry(supportedAssets []*Asset) (*AssetRegistry, error) {
	registry := &AssetRegistry{
		assets:    make(map[string]*Asset, len(supportedAssets)),
		byAddress: make(map[common.Address]*Asset, len(supportedAssets)),
	}

	for _, asset := range supportedAssets {
		if asset.Symbol == "" {
			return nil, fmt.Errorf("asset at %s has no symbol", asset.Address.Hex())
		}
		if asset.Decimals < 0 || asset.Decimals > 36 {
			return nil, fmt.Errorf("asset %s has invalid decimals %d", asset.Symbol, asset.Decimals)
		}

		key := strings.ToUpper(asset.Symbol)
		if _, exists := registry.assets[key]; exists {
			return nil, fmt.Errorf("duplicate asset symbol %s", asset.Symbol)
		}
		if _, exists := registry.byAddress[asset.Address]; exists {
			return nil, fmt.Errorf("duplicate asset address %s", asset.Address.Hex())
		}

		registry.assets[key] = asset
		registry.byAddress[asset.Address] = asset
	}

	return registry, nil
}

// LoadRegistry reads the asset list from path, or from the list bundled for
// network when path is empty.
func LoadRegistry(path, network string) (*AssetRegistry, error) {
	var (
		raw []byte
		err error
	)
	if path != "" {
		raw, err = os.ReadFile(path)
	} else {
		raw, err = networkFS.ReadFile("networks/" + network + ".json")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read asset list: %w", err)
	}

	var supportedAssets []*Asset
	if err := json.Unmarshal(raw, &supportedAssets); err != nil {
		return nil, fmt.Errorf("failed to parse asset list: %w", err)
	}

	return NewAssetRegistry(supportedAssets)
}

// GetBySymbol returns an asset by its symbol (case-insensitive)
func (r *AssetRegistry) GetBySymbol(symbol string) (*Asset, bool) {
	asset, exists := r.assets[strings.ToUpper(symbol)]
	return asset, exists
}

// GetByAddress returns an asset by its contract address
func (r *AssetRegistry) GetByAddress(address common.Address) (*Asset, bool) {
	asset, exists := r.byAddress[address]
	return asset, exists
}

// GetAll returns all assets sorted by symbol
func (r *AssetRegistry) GetAll() []*Asset {
	result := make([]*Asset, 0, len(r.assets))
	for _, asset := range r.assets {
		result = append(result, asset)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Symbol < result[j].Symbol
	})
	return result
}

func (r *AssetRegistry) IsSupported(symbol string) bool {
	_, exists := r.GetBySymbol(symbol)
	return exists
}
