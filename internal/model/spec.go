package model

import (
	"fmt"
	"sort"
	"strings"
)

// ProductSpec identifies a stocked product. Two specs are equal when all
// three normalized fields are equal.
type ProductSpec struct {
	ProductType string
	Size        string
	Thickness   string
}

func NewProductSpec(productType, size, thickness string) ProductSpec {
	return ProductSpec{ProductType: productType, Size: size, Thickness: thickness}.Normalize()
}

func (s ProductSpec) Normalize() ProductSpec {
	return ProductSpec{
		ProductType: strings.TrimSpace(s.ProductType),
		Size:        strings.TrimSpace(s.Size),
		Thickness:   strings.TrimSpace(s.Thickness),
	}
}

func (s ProductSpec) Complete() bool {
	n := s.Normalize()
	return n.ProductType != "" && n.Size != "" && n.Thickness != ""
}

const (
	keySeparator = '|'
	keyEscape    = '\\'
)

var keyEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`)

// Key is a stable string form used for lock names, document ids and sorting.
// Separators and escapes inside fields are escaped, so distinct specs never share a key.
func (s ProductSpec) Key() string {
	n := s.Normalize()
	return keyEscaper.Replace(n.ProductType) + string(keySeparator) +
		keyEscaper.Replace(n.Size) + string(keySeparator) +
		keyEscaper.Replace(n.Thickness)
}

func (s ProductSpec) String() string {
	return fmt.Sprintf("%s %s x %s", s.ProductType, s.Size, s.Thickness)
}

func ParseSpecKey(key string) (ProductSpec, error) {
	parts := make([]string, 0, 3)
	var cur strings.Builder
	for i := 0; i < len(key); i++ {
		switch c := key[i]; c {
		case keyEscape:
			if i+1 == len(key) {
				return ProductSpec{}, fmt.Errorf("%w: malformed spec key %q", ErrValidation, key)
			}
			i++
			cur.WriteByte(key[i])
		case keySeparator:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	parts = append(parts, cur.String())

	if len(parts) != 3 {
		return ProductSpec{}, fmt.Errorf("%w: malformed spec key %q", ErrValidation, key)
	}
	return NewProductSpec(parts[0], parts[1], parts[2]), nil
}

func SortSpecs(specs []ProductSpec) {
	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Key() < specs[j].Key()
	})
}
