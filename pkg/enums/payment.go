package enums

// PaymentStatus tracks whether an order has been paid.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

var validPaymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed}

func (s PaymentStatus) IsValid() bool { return contains(validPaymentStatuses, s) }

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	return parse(validPaymentStatuses, value, "payment status")
}

// PaymentMethod is the tag recorded on an order; no processor is attached.
type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "COD"
	PaymentMethodVNPay   PaymentMethod = "VNPay"
	PaymentMethodMomo    PaymentMethod = "Momo"
	PaymentMethodBanking PaymentMethod = "Banking"
)

var validPaymentMethods = []PaymentMethod{PaymentMethodCOD, PaymentMethodVNPay, PaymentMethodMomo, PaymentMethodBanking}

func (m PaymentMethod) IsValid() bool { return contains(validPaymentMethods, m) }

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parse(validPaymentMethods, value, "payment method")
}
