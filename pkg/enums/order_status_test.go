package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"pending", "confirmed", "processing", "shipped", "delivered", "cancelled", "refunded"} {
		status, err := ParseOrderStatus(raw)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", raw, err)
		}
		if status.String() != raw {
			t.Fatalf("round trip mismatch: %q vs %q", status, raw)
		}
		if !status.IsValid() {
			t.Fatalf("%q should be valid", raw)
		}
	}

	if _, err := ParseOrderStatus("canceled"); err == nil {
		t.Fatalf("expected error for misspelled status")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusCancelled.IsTerminal() {
		t.Fatalf("cancelled should be terminal")
	}
	if !OrderStatusRefunded.IsTerminal() {
		t.Fatalf("refunded should be terminal")
	}
	if OrderStatusDelivered.IsTerminal() {
		t.Fatalf("delivered still allows refund")
	}
	if OrderStatusPending.IsTerminal() {
		t.Fatalf("pending should not be terminal")
	}
}
