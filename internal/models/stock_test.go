package models

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var skuPattern = regexp.MustCompile(`^([A-Z0-9]{1,3})-([A-Z0-9]{1,2})-([A-Z0-9]+)-(\d{3})$`)

func TestGenerateSKU_Format(t *testing.T) {
	sku := GenerateSKU("Charm Bracelet", "Red", "M")

	parts := skuPattern.FindStringSubmatch(sku)
	require.NotNil(t, parts, "SKU %q does not match the expected pattern", sku)
	assert.Equal(t, "CHA", parts[1])
	assert.Equal(t, "RE", parts[2])
	assert.Equal(t, "M", parts[3])

	suffix, err := strconv.Atoi(parts[4])
	require.NoError(t, err)
	assert.GreaterOrEqual(t, suffix, 100)
	assert.LessOrEqual(t, suffix, 999)
}

func TestGenerateSKU_Defaults(t *testing.T) {
	sku := GenerateSKU("Bead", "", "")
	assert.True(t, strings.HasPrefix(sku, "BEA-XX-NA-"), "got %q", sku)
}

func TestGenerateSKU_StripsSpacesAndNonAlphanumericSize(t *testing.T) {
	sku := GenerateSKU("A B Chain", "Navy Blue", "size: 42 cm")
	parts := skuPattern.FindStringSubmatch(sku)
	require.NotNil(t, parts, "got %q", sku)
	assert.Equal(t, "ABC", parts[1])
	assert.Equal(t, "NA", parts[2])
	assert.Equal(t, "SIZE42CM", parts[3])
}

func TestGenerateSKU_ShortName(t *testing.T) {
	sku := GenerateSKU("Xy", "Red", "S")
	assert.True(t, strings.HasPrefix(sku, "XY-RE-S-"), "got %q", sku)
}

func TestGenerateSKU_MultibyteNameAndColorStayValidUTF8(t *testing.T) {
	sku := GenerateSKU("ABÖkobeutel", "Red", "M")
	assert.True(t, utf8.ValidString(sku), "got %q", sku)
	assert.True(t, strings.HasPrefix(sku, "ABÖ-RE-M-"), "got %q", sku)

	sku = GenerateSKU("Bracelet", "赤色", "M")
	assert.True(t, utf8.ValidString(sku), "got %q", sku)
	assert.True(t, strings.HasPrefix(sku, "BRA-赤色-M-"), "got %q", sku)
}

func TestGenerateSKU_SuffixStaysInRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		sku := GenerateSKU("Charm Bracelet", "Red", "M")
		parts := skuPattern.FindStringSubmatch(sku)
		require.NotNil(t, parts, "got %q", sku)
		suffix, err := strconv.Atoi(parts[4])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, suffix, 100)
		assert.LessOrEqual(t, suffix, 999)
	}
}

func TestNormalizeStock_RecomputesAggregateAndBackfillsSKUs(t *testing.T) {
	product := &Product{
		Name:        "Charm Bracelet",
		HasVariants: true,
		Stock:       0,
		Variants: []*ProductVariant{
			{Color: "Red", Size: "M", Stock: 10},
			{Color: "Blue", Size: "M", Stock: 5},
		},
	}

	NormalizeStock(product)

	assert.Equal(t, 15, product.Stock)
	for _, v := range product.Variants {
		assert.True(t, skuPattern.MatchString(v.SKU), "variant SKU %q does not match the pattern", v.SKU)
	}
	assert.True(t, strings.HasPrefix(product.Variants[0].SKU, "CHA-RE-M-"))
	assert.True(t, strings.HasPrefix(product.Variants[1].SKU, "CHA-BL-M-"))
}

func TestNormalizeStock_KeepsExistingVariantSKUs(t *testing.T) {
	product := &Product{
		Name:        "Charm Bracelet",
		HasVariants: true,
		Variants: []*ProductVariant{
			{SKU: "KEEP-ME-001", Color: "Red", Size: "M", Stock: 3},
		},
	}

	NormalizeStock(product)

	assert.Equal(t, "KEEP-ME-001", product.Variants[0].SKU)
	assert.Equal(t, 3, product.Stock)
}

func TestNormalizeStock_ClampsNegativeVariantStock(t *testing.T) {
	product := &Product{
		Name:        "Charm Bracelet",
		HasVariants: true,
		Variants: []*ProductVariant{
			{SKU: "V-1", Color: "Red", Size: "M", Stock: 8},
			{SKU: "V-2", Color: "Blue", Size: "M", Stock: -4},
		},
	}

	NormalizeStock(product)

	assert.Equal(t, 8, product.Stock)
	assert.Equal(t, 0, product.Variants[1].Stock)
}

func TestNormalizeStock_SimpleProductGetsPlaceholderSKU(t *testing.T) {
	product := &Product{Name: "Gift Card"}

	NormalizeStock(product)

	assert.True(t, strings.HasPrefix(product.SKU, "GIF-ST-ND-"), "got %q", product.SKU)
	assert.False(t, product.HasVariants)
}

func TestNormalizeStock_SimpleProductKeepsExistingSKU(t *testing.T) {
	product := &Product{Name: "Gift Card", SKU: "GC-100"}

	NormalizeStock(product)

	assert.Equal(t, "GC-100", product.SKU)
	assert.Equal(t, 0, product.Stock)
}

func TestVariantKey(t *testing.T) {
	v := &ProductVariant{Color: "Red", Size: "M"}
	assert.Equal(t, "Red-M", v.VariantKey())
}

func TestEffectiveMinOrderQty_FallbackChain(t *testing.T) {
	ten := 10
	three := 3

	t.Run("variant override wins", func(t *testing.T) {
		v := &ProductVariant{MinOrderQty: &ten}
		p := &Product{MinOrderQty: &three}
		assert.Equal(t, 10, v.EffectiveMinOrderQty(p))
	})

	t.Run("parent value when variant unset", func(t *testing.T) {
		v := &ProductVariant{}
		p := &Product{MinOrderQty: &three}
		assert.Equal(t, 3, v.EffectiveMinOrderQty(p))
	})

	t.Run("defaults to one", func(t *testing.T) {
		v := &ProductVariant{}
		assert.Equal(t, 1, v.EffectiveMinOrderQty(&Product{}))
		assert.Equal(t, 1, v.EffectiveMinOrderQty(nil))
	})
}
