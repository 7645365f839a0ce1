package enums

import "fmt"

// ProductCategory buckets catalog items for browsing and filtering.
type ProductCategory string

const (
	ProductCategoryElectronics ProductCategory = "electronics"
	ProductCategoryFashion     ProductCategory = "fashion"
	ProductCategoryGroceries   ProductCategory = "groceries"
	ProductCategoryHome        ProductCategory = "home"
	ProductCategoryBeauty      ProductCategory = "beauty"
	ProductCategorySports      ProductCategory = "sports"
	ProductCategoryOther       ProductCategory = "other"
)

var validProductCategories = []ProductCategory{
	ProductCategoryElectronics,
	ProductCategoryFashion,
	ProductCategoryGroceries,
	ProductCategoryHome,
	ProductCategoryBeauty,
	ProductCategorySports,
	ProductCategoryOther,
}

// String implements fmt.Stringer.
func (c ProductCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ProductCategory.
func (c ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
