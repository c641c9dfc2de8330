package eth

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"
)

func TestToWei(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"2", "2000000000000000000"},
		{"0.5", "500000000000000000"},
		{"0.000000000000000001", "1"},
		{" 1.25 ", "1250000000000000000"},
		{"0", "0"},
	}

	for _, tt := range tests {
		got, err := ToWei(tt.in)
		if err != nil {
			t.Fatalf("ToWei(%q) failed: %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Errorf("ToWei(%q): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestToWeiRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "0.0000000000000000001"} {
		if _, err := ToWei(in); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ToWei(%q): expected ErrInvalidAmount, got %v", in, err)
		}
	}
}

func TestWeiRoundTrip(t *testing.T) {
	values := []string{
		"0",
		"1",
		"150",
		"999999999999999999",
		"2000000000000000000",
		"123456789012345678901234567890",
	}

	for _, v := range values {
		wei, _ := new(big.Int).SetString(v, 10)
		back, err := ToWei(FromWei(wei).String())
		if err != nil {
			t.Fatalf("round trip %s failed: %v", v, err)
		}
		if back.Cmp(wei) != 0 {
			t.Errorf("Round trip changed value: %s -> %s", v, back)
		}
	}
}

func TestFromWeiDoesNotMutate(t *testing.T) {
	wei := big.NewInt(1500)
	_ = FromWei(wei)
	if wei.Int64() != 1500 {
		t.Errorf("FromWei mutated input: %s", wei)
	}
}

func TestAmountDisplay(t *testing.T) {
	wei, _ := new(big.Int).SetString("2000000000000000000", 10)
	a := NewAmount(wei)

	if a.String() != "2" {
		t.Errorf("Expected display 2, got %s", a.String())
	}

	// Mutating the source must not leak into the Amount.
	wei.SetInt64(7)
	if a.String() != "2" {
		t.Errorf("Amount aliases its input: %s", a.String())
	}

	w := a.Wei()
	w.SetInt64(1)
	if a.String() != "2" {
		t.Errorf("Wei() leaked internal state: %s", a.String())
	}
}

func TestAmountJSON(t *testing.T) {
	a, err := ParseAmount("1.5")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"1.5"` {
		t.Errorf("Expected \"1.5\", got %s", data)
	}

	var back Amount
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Equal(a) {
		t.Errorf("JSON round trip changed amount: %s -> %s", a.Wei(), back.Wei())
	}
}

func TestAmountZeroValue(t *testing.T) {
	var a Amount
	if !a.IsZero() {
		t.Error("Zero value should be zero")
	}
	if a.String() != "0" {
		t.Errorf("Expected 0, got %s", a.String())
	}
	sum := a.Add(NewAmount(big.NewInt(5)))
	if sum.Wei().Int64() != 5 {
		t.Errorf("Expected 5 wei, got %s", sum.Wei())
	}
}
