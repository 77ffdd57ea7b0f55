// Package refdata loads the catalog, price tables, and RFP index from a
// data directory. Reference data is loaded once per process and treated
// as read-only thereafter.
package refdata

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/BigO-Debbuger/RFP-IGNITE/internal/pricing"
	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/errors"
)

// File layout under the data directory.
const (
	catalogFile       = "catalog/catalog.json"
	productPricesFile = "pricing/product_prices.json"
	testPricesFile    = "pricing/test_prices.json"
	rfpIndexFile      = "rfp_index.json"
)

// Store holds all loaded reference tables.
type Store struct {
	Catalog *api.Catalog
	Prices  *pricing.PriceTable
	Tests   *pricing.TestTable
	Index   *api.RFPIndex
}

// Load reads all reference data from dataDir. A missing or unreadable
// file is a fatal configuration error.
func Load(dataDir string) (*Store, error) {
	catalog, err := LoadCatalog(filepath.Join(dataDir, catalogFile))
	if err != nil {
		return nil, err
	}
	prices, err := LoadProductPrices(filepath.Join(dataDir, productPricesFile))
	if err != nil {
		return nil, err
	}
	tests, err := LoadTestPrices(filepath.Join(dataDir, testPricesFile))
	if err != nil {
		return nil, err
	}
	index, err := LoadRFPIndex(filepath.Join(dataDir, rfpIndexFile))
	if err != nil {
		return nil, err
	}
	return &Store{Catalog: catalog, Prices: prices, Tests: tests, Index: index}, nil
}

// FindRFP returns the index record for rfpID.
func (s *Store) FindRFP(rfpID string) (*api.RFPRecord, bool) {
	for i := range s.Index.RFPs {
		if s.Index.RFPs[i].ID == rfpID {
			return &s.Index.RFPs[i], true
		}
	}
	return nil, false
}

// LoadCatalog reads the product catalog.
func LoadCatalog(path string) (*api.Catalog, error) {
	var catalog api.Catalog
	if err := readJSON(path, "catalog.json", &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

type productPrice struct {
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type productPricesDoc struct {
	Products []productPrice `json:"products"`
}

// LoadProductPrices reads SKU unit prices into an immutable table.
func LoadProductPrices(path string) (*pricing.PriceTable, error) {
	var doc productPricesDoc
	if err := readJSON(path, "product_prices.json", &doc); err != nil {
		return nil, err
	}
	prices := make(map[string]decimal.Decimal, len(doc.Products))
	for _, p := range doc.Products {
		prices[p.SKU] = p.UnitPrice
	}
	return pricing.NewPriceTable(prices), nil
}

type testPricesDoc struct {
	Tests []api.TestDefinition `json:"tests"`
}

// LoadTestPrices reads test definitions into an immutable table.
func LoadTestPrices(path string) (*pricing.TestTable, error) {
	var doc testPricesDoc
	if err := readJSON(path, "test_prices.json", &doc); err != nil {
		return nil, err
	}
	return pricing.NewTestTable(doc.Tests), nil
}

// LoadRFPIndex reads the canonical RFP index.
func LoadRFPIndex(path string) (*api.RFPIndex, error) {
	var index api.RFPIndex
	if err := readJSON(path, "rfp_index.json", &index); err != nil {
		return nil, err
	}
	return &index, nil
}

func readJSON(path, name string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewDataSourceNotFoundError(name, path)
		}
		return errors.NewDataSourceInvalidError(name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewDataSourceInvalidError(name, err)
	}
	return nil
}
