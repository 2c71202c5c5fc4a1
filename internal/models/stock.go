package models

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"gorm.io/gorm"
)

// Placeholder SKU segments for products without variants.
const (
	skuPlaceholderColor = "ST"
	skuPlaceholderSize  = "ND"
)

// GenerateSKU builds a SKU from the product name plus color/size descriptors:
// first 3 letters of the name (uppercased, spaces stripped), first 2 letters
// of the color (default "XX"), the alphanumeric-only uppercased size (default
// "NA") and a random 3-digit suffix. There is no collision retry; a duplicate
// surfaces as a uniqueness violation on save.
func GenerateSKU(name, color, size string) string {
	namePart := truncateRunes(strings.ToUpper(strings.ReplaceAll(name, " ", "")), 3)

	colorPart := truncateRunes(strings.ToUpper(color), 2)
	if colorPart == "" {
		colorPart = "XX"
	}

	sizePart := alphanumericUpper(size)
	if sizePart == "" {
		sizePart = "NA"
	}

	suffix := 100 + rand.Intn(900)
	return fmt.Sprintf("%s-%s-%s-%d", namePart, colorPart, sizePart, suffix)
}

// GenerateVariantSKU derives a SKU for a variant of the named product.
func GenerateVariantSKU(productName string, v *ProductVariant) string {
	return GenerateSKU(productName, v.Color, v.Size)
}

// truncateRunes cuts s to at most n runes. Byte slicing would split a
// multibyte rune and produce invalid UTF-8.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}

func alphanumericUpper(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// NormalizeStock enforces the stock invariant on the in-memory product:
// a variant-bearing product's aggregate stock equals the sum of its variants'
// stock, every variant carries a SKU, and a simple product without a SKU gets
// a placeholder-derived one. Called from the save lifecycle; safe to call
// repeatedly.
func NormalizeStock(p *Product) {
	if len(p.Variants) > 0 {
		p.HasVariants = true
		total := 0
		for _, v := range p.Variants {
			if v.Stock < 0 {
				v.Stock = 0
			}
			total += v.Stock
			if v.SKU == "" {
				v.SKU = GenerateVariantSKU(p.Name, v)
			}
		}
		p.Stock = total
		return
	}

	if !p.HasVariants && p.SKU == "" {
		p.SKU = GenerateSKU(p.Name, skuPlaceholderColor, skuPlaceholderSize)
	}
}

// BeforeSave recomputes derived stock fields on every full save. Narrow
// column updates do not pass through here; the stock audit covers that gap.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	NormalizeStock(p)
	return nil
}
