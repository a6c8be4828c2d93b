package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		got, err := ParseOrderStatus(string(s))
		if err != nil || got != s {
			t.Fatalf("expected %s to parse, got %v %v", s, got, err)
		}
	}
	if _, err := ParseOrderStatus("refunded"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
	if !OrderStatusDelivered.IsTerminal() || !OrderStatusCancelled.IsTerminal() || OrderStatusShipping.IsTerminal() {
		t.Fatal("unexpected terminal classification")
	}
}

func TestPaymentMethodIsCaseSensitive(t *testing.T) {
	if _, err := ParsePaymentMethod("cod"); err == nil {
		t.Fatal("expected lower-case cod to be rejected")
	}
	if m, err := ParsePaymentMethod("Momo"); err != nil || m != PaymentMethodMomo {
		t.Fatalf("unexpected %v %v", m, err)
	}
}

func TestTimeRangeLookback(t *testing.T) {
	cases := map[TimeRange]int{TimeRangeDay: 1, TimeRangeWeek: 7, TimeRangeMonth: 30, TimeRangeYear: 365, "": 7}
	for r, want := range cases {
		if got := r.LookbackDays(); got != want {
			t.Fatalf("%q: expected %d got %d", r, want, got)
		}
	}
}

func TestDiscountAndRoleValidity(t *testing.T) {
	if !DiscountTypeFreeShipping.IsValid() || DiscountType("bogo").IsValid() {
		t.Fatal("discount validity mismatch")
	}
	if !UserRoleAdmin.IsValid() || UserRole("barista").IsValid() {
		t.Fatal("role validity mismatch")
	}
	if _, err := ParseUserStatus("banned"); err == nil {
		t.Fatal("expected unknown user status to fail")
	}
}
