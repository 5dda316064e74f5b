package stock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"allocationservice/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, time.March, 14, 8, 0, 0, 0, time.UTC)

func clock() domain.Option {
	return domain.WithClock(func() time.Time { return today })
}

const sample = `
batches:
  - reference: in-stock-batch
    sku: RETRO-CLOCK
    quantity: 100
  - reference: speedy-batch
    sku: MINIMALIST-SPOON
    quantity: 50
    eta: "2024-03-20"
  - reference: shipment-batch
    sku: RETRO-CLOCK
    quantity: 20
    eta: "2024-03-15"
`

func TestParseAndGroup(t *testing.T) {
	file, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, file.Batches, 3)

	products, err := file.Products(clock())
	require.NoError(t, err)
	require.Len(t, products, 2)

	clocks := products[0]
	assert.Equal(t, "RETRO-CLOCK", clocks.SKU())
	require.Len(t, clocks.Batches(), 2)
	assert.Equal(t, "in-stock-batch", clocks.Batches()[0].Reference())
	assert.Nil(t, clocks.Batches()[0].ETA())
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), *clocks.Batches()[1].ETA())

	spoons := products[1]
	assert.Equal(t, "MINIMALIST-SPOON", spoons.SKU())
	assert.Equal(t, 50, spoons.Batches()[0].AvailableQuantity())
}

func TestParseEmptyDocument(t *testing.T) {
	file, err := Parse(strings.NewReader(""))
	require.NoError(t, err)

	products, err := file.Products(clock())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("batches:\n  - reference: b1\n    colour: red\n"))
	assert.ErrorContains(t, err, "failed to parse stock file")
}

func TestProductsRejectsInvalidBatches(t *testing.T) {
	tests := []struct {
		name  string
		entry BatchEntry
	}{
		{"malformed eta", BatchEntry{Reference: "b1", SKU: "LAMP", Quantity: 1, ETA: "14/03/2024"}},
		{"eta in the past", BatchEntry{Reference: "b1", SKU: "LAMP", Quantity: 1, ETA: "2024-03-13"}},
		{"negative quantity", BatchEntry{Reference: "b1", SKU: "LAMP", Quantity: -5}},
		{"missing sku", BatchEntry{Reference: "b1", Quantity: 5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := File{Batches: []BatchEntry{tc.entry}}.Products(clock())
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	t.Run("duplicate reference within a sku", func(t *testing.T) {
		file := File{Batches: []BatchEntry{
			{Reference: "b1", SKU: "LAMP", Quantity: 5},
			{Reference: "b1", SKU: "LAMP", Quantity: 7},
		}}
		_, err := file.Products(clock())
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.ErrorContains(t, err, "duplicate for sku LAMP")
	})
}

func TestProductsAllowsSameReferenceAcrossSKUs(t *testing.T) {
	file := File{Batches: []BatchEntry{
		{Reference: "b1", SKU: "LAMP", Quantity: 5},
		{Reference: "b1", SKU: "CLOCK", Quantity: 7},
	}}
	products, err := file.Products(clock())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	file, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, file.Batches, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read stock file")
}
