package order

import "testing"

func TestSymbolConstraintsValidate(t *testing.T) {
	c := SymbolConstraints{
		TickSize:    0.01,
		StepSize:    0.001,
		MinQty:      0.001,
		MaxQty:      10,
		MinNotional: 5,
	}
	if err := c.Validate(100.01, 0.1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.1+0.2 之类的浮点误差不应判为未对齐
	if err := c.Validate(99.9, 0.1+0.2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Validate(100.015, 0.002); err == nil {
		t.Fatalf("expected tick size error")
	}
	if err := c.Validate(100.01, 0.0005); err == nil {
		t.Fatalf("expected qty error")
	}
	if err := c.Validate(100.01, 0.0006); err == nil {
		t.Fatalf("expected min qty error")
	}
	if err := c.Validate(100.01, 11); err == nil {
		t.Fatalf("expected max qty error")
	}
	if err := c.Validate(10, 0.2); err == nil {
		t.Fatalf("expected notional error")
	}
}

func TestSymbolConstraintsValidateQty(t *testing.T) {
	c := SymbolConstraints{TickSize: 0.01, StepSize: 1, MinQty: 1, MinNotional: 1000}
	if err := c.ValidateQty(5); err != nil {
		t.Fatalf("qty-only check should ignore price and notional: %v", err)
	}
	if err := c.ValidateQty(2.5); err == nil {
		t.Fatalf("expected step error")
	}
}
