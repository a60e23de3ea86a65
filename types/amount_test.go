package types

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"
)

const maxDecimal = "115792089237316195423570985008687907853269984665640564039457584007913129639935"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"Zero", "0", "0", nil},
		{"Small", "4900", "4900", nil},
		{"One ether", "1000000000000000000", "1000000000000000000", nil},
		{"Max", maxDecimal, maxDecimal, nil},
		{"Max plus one", "115792089237316195423570985008687907853269984665640564039457584007913129639936", "", ErrOverflow},
		{"Negative", "-1", "", ErrUnderflow},
		{"Negative zero", "-0", "0", nil},
		{"Padded", "  42 ", "42", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error: got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("Got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.5", "0x10"} {
		if _, err := ParseAmount(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestAmountFromBig(t *testing.T) {
	over := new(big.Int).Lsh(big.NewInt(1), 256)

	if _, err := AmountFromBig(big.NewInt(-1)); !errors.Is(err, ErrUnderflow) {
		t.Errorf("negative: got %v, want ErrUnderflow", err)
	}
	if _, err := AmountFromBig(over); !errors.Is(err, ErrOverflow) {
		t.Errorf("2^256: got %v, want ErrOverflow", err)
	}

	maxBig := new(big.Int).Sub(over, big.NewInt(1))
	got, err := AmountFromBig(maxBig)
	if err != nil {
		t.Fatalf("max: unexpected error %v", err)
	}
	if !got.IsMax() {
		t.Errorf("expected MaxAmount, got %s", got)
	}
	if got.Big().Cmp(maxBig) != 0 {
		t.Errorf("Big round trip: got %s, want %s", got.Big(), maxBig)
	}
}

func TestCheckedArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		op      func() (Amount, error)
		want    Amount
		wantErr error
	}{
		{"Add", func() (Amount, error) { return CheckedAdd(NewAmount(100), NewAmount(200)) }, NewAmount(300), nil},
		{"Sub", func() (Amount, error) { return CheckedSub(NewAmount(500), NewAmount(200)) }, NewAmount(300), nil},
		{"Mul", func() (Amount, error) { return CheckedMul(NewAmount(100), NewAmount(3)) }, NewAmount(300), nil},
		{"MulUnits", func() (Amount, error) { return NewAmount(150).MulUnits(2) }, NewAmount(300), nil},
		{"Sub to zero", func() (Amount, error) { return CheckedSub(NewAmount(7), NewAmount(7)) }, ZeroAmount(), nil},
		{"Add max and zero", func() (Amount, error) { return CheckedAdd(MaxAmount(), ZeroAmount()) }, MaxAmount(), nil},
		{"Mul max by one", func() (Amount, error) { return MaxAmount().MulUnits(1) }, MaxAmount(), nil},
		{"Add overflow", func() (Amount, error) { return CheckedAdd(MaxAmount(), NewAmount(1)) }, Amount{}, ErrOverflow},
		{"Mul overflow", func() (Amount, error) { return MaxAmount().MulUnits(2) }, Amount{}, ErrOverflow},
		{"Sub underflow", func() (Amount, error) { return CheckedSub(NewAmount(1), NewAmount(2)) }, Amount{}, ErrUnderflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error: got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSum(t *testing.T) {
	got, err := Sum(NewAmount(1), NewAmount(2), NewAmount(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(NewAmount(6)) {
		t.Errorf("Got %v, want 6", got)
	}

	if _, err := Sum(MaxAmount(), NewAmount(1)); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected ErrOverflow, got %v", err)
	}

	empty, err := Sum()
	if err != nil || !empty.IsZero() {
		t.Errorf("empty sum: got %v, %v", empty, err)
	}
}

func TestAmountComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Amount
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", NewAmount(100), NewAmount(100), false, false, true},
		{"Less", NewAmount(50), NewAmount(100), true, false, false},
		{"Greater", NewAmount(200), NewAmount(100), false, true, false},
		{"Zero equal", NewAmount(0), ZeroAmount(), false, false, true},
		{"Max greater", MaxAmount(), NewAmount(1), false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestAmountJSON(t *testing.T) {
	type payload struct {
		Fee Amount `json:"fee"`
	}

	data, err := json.Marshal(payload{Fee: MustParseAmount("10000000000000000")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"fee":"10000000000000000"}` {
		t.Errorf("Got %s", data)
	}

	var decoded payload
	if err := json.Unmarshal([]byte(`{"fee":"`+maxDecimal+`"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Fee.IsMax() {
		t.Errorf("expected max fee, got %s", decoded.Fee)
	}

	if err := json.Unmarshal([]byte(`{"fee":"-5"}`), &decoded); !errors.Is(err, ErrUnderflow) {
		t.Errorf("negative fee: got %v, want ErrUnderflow", err)
	}
}

func TestAmountJSONRejectsMalformed(t *testing.T) {
	for _, in := range []string{`"5`, `5"`, `""5""`, `""`, `"-5"`} {
		var a Amount
		if err := a.UnmarshalJSON([]byte(in)); err == nil {
			t.Errorf("expected error for %s, got %s", in, a)
		}
	}

	var a Amount
	if err := a.UnmarshalJSON([]byte(`42`)); err != nil || !a.Equal(NewAmount(42)) {
		t.Errorf("bare number: got %s, %v", a, err)
	}
	if err := a.UnmarshalJSON([]byte(`"7"`)); err != nil || !a.Equal(NewAmount(7)) {
		t.Errorf("quoted: got %s, %v", a, err)
	}
}

func TestAmountScan(t *testing.T) {
	var a Amount
	if err := a.Scan("12345"); err != nil || !a.Equal(NewAmount(12345)) {
		t.Errorf("string scan: got %v, %v", a, err)
	}
	if err := a.Scan([]byte("77")); err != nil || !a.Equal(NewAmount(77)) {
		t.Errorf("bytes scan: got %v, %v", a, err)
	}
	if err := a.Scan(nil); err != nil || !a.IsZero() {
		t.Errorf("nil scan: got %v, %v", a, err)
	}
	if err := a.Scan(3.14); err == nil {
		t.Error("expected error scanning float")
	}

	v, err := NewAmount(99).Value()
	if err != nil || v != "99" {
		t.Errorf("Value: got %v, %v", v, err)
	}
}
