package enums

// DiscountType selects how a promotion reduces an order.
type DiscountType string

const (
	DiscountTypePercentage   DiscountType = "percentage"
	DiscountTypeFixedAmount  DiscountType = "fixed_amount"
	DiscountTypeFreeShipping DiscountType = "free_shipping"
)

var validDiscountTypes = []DiscountType{DiscountTypePercentage, DiscountTypeFixedAmount, DiscountTypeFreeShipping}

func (d DiscountType) IsValid() bool { return contains(validDiscountTypes, d) }

func ParseDiscountType(value string) (DiscountType, error) {
	return parse(validDiscountTypes, value, "discount type")
}
