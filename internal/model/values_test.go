package model

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestParseMoney(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Money
		wantErr bool
	}{
		{"0", 0, false},
		{"12", 1200, false},
		{"12.5", 1250, false},
		{"12.34", 1234, false},
		{"0.10", 10, false},
		{"1e2", 10000, false},
		{"12.345", 0, true},
		{"abc", 0, true},
		{"", 0, true},
		{"3/2", 0, true},
		{"0x10", 0, true},
		{"0b101", 0, true},
		{".5", 0, true},
		{"1_000", 0, true},
		{"-2.50", -250, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseMoney(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMoney(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMoney(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMoney_JSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Money(1205))
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != "12.05" {
		t.Errorf("Marshal = %s, want 12.05", data)
	}

	var m Money
	if err := json.Unmarshal([]byte(`"7.5"`), &m); err != nil {
		t.Fatalf("Unmarshal string error = %v", err)
	}
	if m != 750 {
		t.Errorf("Unmarshal string = %d, want 750", m)
	}

	if err := json.Unmarshal([]byte(`true`), &m); err == nil {
		t.Error("expected error for boolean amount")
	}
}

func TestMoney_ScanNumeric(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   pgtype.Numeric
		want Money
	}{
		{"scale two", pgtype.Numeric{Int: big.NewInt(1234), Exp: -2, Valid: true}, 1234},
		{"integral", pgtype.Numeric{Int: big.NewInt(5), Exp: 0, Valid: true}, 500},
		{"scale one", pgtype.Numeric{Int: big.NewInt(75), Exp: -1, Valid: true}, 750},
		{"null", pgtype.Numeric{}, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var m Money
			if err := m.ScanNumeric(tt.in); err != nil {
				t.Fatalf("ScanNumeric error = %v", err)
			}
			if m != tt.want {
				t.Errorf("ScanNumeric = %d, want %d", m, tt.want)
			}
		})
	}
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()

	d := NewDate(2025, time.March, 9)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(data) != `"2025-03-09"` {
		t.Errorf("Marshal = %s", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("Unmarshal = %v, want %v", back, d)
	}

	if err := json.Unmarshal([]byte(`"09/03/2025"`), &back); err == nil {
		t.Error("expected error for non ISO date")
	}
	if err := json.Unmarshal([]byte(`20250309`), &back); err == nil {
		t.Error("expected error for numeric date")
	}
}

func TestDate_Within(t *testing.T) {
	t.Parallel()

	from := NewDate(2025, time.May, 1)
	to := NewDate(2025, time.May, 31)

	if !from.Within(from, to) || !to.Within(from, to) {
		t.Error("range bounds should be inclusive")
	}
	if from.AddDays(-1).Within(from, to) {
		t.Error("day before range should be outside")
	}
	if to.AddDays(1).Within(from, to) {
		t.Error("day after range should be outside")
	}
}

func TestBudget_Check(t *testing.T) {
	t.Parallel()

	b := &Budget{StartDate: NewDate(2025, time.May, 1), EndDate: NewDate(2025, time.May, 1)}
	if err := b.Check(); err != nil {
		t.Errorf("single day budget should be valid, got %v", err)
	}

	b.EndDate = NewDate(2025, time.April, 30)
	if err := b.Check(); err != ErrInvalidDateRange {
		t.Errorf("Check() = %v, want ErrInvalidDateRange", err)
	}
}
