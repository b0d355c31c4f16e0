package core

import (
	"math"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input string
		want  string // "" means absent
	}{
		{"R$ 35,00", "35"},
		{"R$35,5", "35.5"},
		{"35.90", "35.9"},
		{"R$ 1.234,56", "1234.56"},
		{"R$ 12,00", "12"},
		{"0,00", "0"},
		{"12,345", "12.35"},
		{"", ""},
		{"-", ""},
		{"Indisponível", ""},
		{"indisponivel", ""},
		{"R$ -5,00", ""},
		{"abc", ""},
		{"R$", ""},
		{"R$ 1.500", "1500"},
		{"R$1.234", "1234"},
		{"1.234.567", "1234567"},
		{"r$ 5,00", "5"},
		{"R$ 12.50", "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseMoney(tt.input)
			if tt.want == "" {
				if got.Valid {
					t.Errorf("ParseMoney(%q) = %s, want absent", tt.input, got.Decimal)
				}
				return
			}
			if !got.Valid {
				t.Fatalf("ParseMoney(%q) is absent, want %s", tt.input, tt.want)
			}
			if !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseMoney(%q) = %s, want %s", tt.input, got.Decimal, tt.want)
			}
		})
	}
}

func TestParsePercentage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"75%", "75"},
		{"12,5 %", "12.5"},
		{"-3,25%", "-3.25"},
		{"33,333%", "33.33"},
		{"-", ""},
		{"", ""},
		{"n/a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParsePercentage(tt.input)
			if tt.want == "" {
				if got.Valid {
					t.Errorf("ParsePercentage(%q) = %s, want absent", tt.input, got.Decimal)
				}
				return
			}
			if !got.Valid || !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParsePercentage(%q) = %v, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseVolumeML(t *testing.T) {
	tests := []struct {
		input string
		want  int
		valid bool
	}{
		{"350ml", 350, true},
		{"350 ML", 350, true},
		{"1,5L", 1500, true},
		{"2L", 2000, true},
		{"1,25 l", 1250, true},
		{"1kg", 0, false},
		{"Indisponível", 0, false},
		{"", 0, false},
		{"grande", 0, false},
		{"2147483647ml", 2147483647, true},
		{"5000000000ml", 0, false},
		{"3000000L", 0, false},
		{"99999999999999999999ml", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseVolumeML(tt.input)
			if got.Valid != tt.valid {
				t.Fatalf("ParseVolumeML(%q).Valid = %v, want %v", tt.input, got.Valid, tt.valid)
			}
			if tt.valid && int(got.Int32) != tt.want {
				t.Errorf("ParseVolumeML(%q) = %d, want %d", tt.input, got.Int32, tt.want)
			}
		})
	}
}

func TestParseSellMode(t *testing.T) {
	tests := []struct {
		input string
		want  SellMode
	}{
		{"", SellMode{SellsIndividually: true, PackageSize: 1}},
		{"unidade", SellMode{SellsIndividually: true, PackageSize: 1}},
		{"unidade, pacote (12un.)", SellMode{SellsIndividually: true, SellsByPackage: true, PackageSize: 12}},
		{"Pacote (6un)", SellMode{SellsByPackage: true, PackageSize: 6}},
		{"caixa (24un.)", SellMode{SellsByPackage: true, PackageSize: 24}},
		{"pacote", SellMode{PackageSize: 1}},
		{"pacote (4000000000un.)", SellMode{SellsByPackage: true, PackageSize: 1}},
		{"caixa (0un)", SellMode{SellsByPackage: true, PackageSize: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseSellMode(tt.input); got != tt.want {
				t.Errorf("ParseSellMode(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseStock(t *testing.T) {
	tests := []struct {
		input       string
		packageSize int
		want        StockInfo
	}{
		{"8pc + 9un", 12, StockInfo{TotalUnits: 105, PackagesCount: 8, LooseUnits: 9}},
		{"8pc+9un", 12, StockInfo{TotalUnits: 105, PackagesCount: 8, LooseUnits: 9}},
		{"27pc", 6, StockInfo{TotalUnits: 162, PackagesCount: 27}},
		{"24un", 1, StockInfo{TotalUnits: 24, LooseUnits: 24}},
		{"24UN", 12, StockInfo{TotalUnits: 24, LooseUnits: 24}},
		{"2cx", 12, StockInfo{TotalUnits: 48, PackagesCount: 2}},
		{"2cx", 1, StockInfo{TotalUnits: 48, PackagesCount: 2}},
		{"3pc", 0, StockInfo{TotalUnits: 3, PackagesCount: 3}},
		{"", 12, StockInfo{}},
		{"muito", 12, StockInfo{}},
		{"4000000000pc", 4000000000, StockInfo{}},
		{"2pc + 4000000000un", 12, StockInfo{TotalUnits: 24, PackagesCount: 2}},
		{"2000000000pc", 2, StockInfo{}},
		{"1500000000cx", 12, StockInfo{}},
		{"2147483647un", 1, StockInfo{TotalUnits: 2147483647, LooseUnits: 2147483647}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseStock(tt.input, tt.packageSize); got != tt.want {
				t.Errorf("ParseStock(%q, %d) = %+v, want %+v", tt.input, tt.packageSize, got, tt.want)
			}
		})
	}
}

func TestParseStockNeverNegative(t *testing.T) {
	inputs := []string{"9999999999pc + 9999999999un", "65536pc", "4294967296cx", "46341pc + 1un"}
	for _, in := range inputs {
		for _, size := range []int{1, 12, 65536, math.MaxInt32, math.MaxInt32 + 1} {
			got := ParseStock(in, size)
			if got.TotalUnits < 0 || got.TotalUnits > math.MaxInt32 {
				t.Errorf("ParseStock(%q, %d).TotalUnits = %d, want within [0, MaxInt32]", in, size, got.TotalUnits)
			}
		}
	}
}

func TestParseStockAdditivity(t *testing.T) {
	for packages := 0; packages <= 20; packages += 4 {
		for size := 1; size <= 24; size += 5 {
			for loose := 0; loose <= 15; loose += 3 {
				s := strconv.Itoa(packages) + "pc + " + strconv.Itoa(loose) + "un"
				got := ParseStock(s, size)
				if got.TotalUnits != packages*size+loose {
					t.Errorf("ParseStock(%q, %d).TotalUnits = %d, want %d", s, size, got.TotalUnits, packages*size+loose)
				}
			}
		}
	}
}

func TestParseTurnover(t *testing.T) {
	tests := []struct {
		input string
		want  Turnover
	}{
		{"Rapido", TurnoverFast},
		{"Rápido", TurnoverFast},
		{"VENDE RÁPIDO", TurnoverFast},
		{"Devagar", TurnoverSlow},
		{"lento", TurnoverSlow},
		{"", TurnoverMedium},
		{"normal", TurnoverMedium},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseTurnover(tt.input); got != tt.want {
				t.Errorf("ParseTurnover(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanCategoryAndSupplier(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      string
	}{
		{"  Cerveja ", true, "Cerveja"},
		{"Bebidas Quentes", true, "Bebidas Quentes"},
		{"Indisponível", false, ""},
		{"INDISPONIVEL", false, ""},
		{"", false, ""},
		{"   ", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CleanCategory(tt.input)
			if got.Valid != tt.wantValid || got.String != tt.want {
				t.Errorf("CleanCategory(%q) = %+v, want {%q %v}", tt.input, got, tt.want, tt.wantValid)
			}
		})
	}

	if got := CleanSupplier(" Ambev "); !got.Valid || got.String != "Ambev" {
		t.Errorf("CleanSupplier() = %+v, want Ambev", got)
	}
	if got := CleanSupplier(""); got.Valid {
		t.Errorf("CleanSupplier(\"\") = %+v, want absent", got)
	}
}

func TestMoneyRoundTrip(t *testing.T) {
	values := []string{"0.01", "1", "35", "35.5", "999.99", "1234.56", "1000000", "12345678.9"}
	for _, v := range values {
		d := decimal.RequireFromString(v)
		s := FormatMoney(d)
		got := ParseMoney(s)
		if !got.Valid || !got.Decimal.Equal(d) {
			t.Errorf("ParseMoney(FormatMoney(%s)) = %v via %q", v, got, s)
		}
	}
}

func TestPercentRoundTrip(t *testing.T) {
	values := []string{"0", "75", "12.5", "-3.25", "150.01"}
	for _, v := range values {
		d := decimal.RequireFromString(v)
		s := FormatPercent(d)
		got := ParsePercentage(s)
		if !got.Valid || !got.Decimal.Equal(d) {
			t.Errorf("ParsePercentage(FormatPercent(%s)) = %v via %q", v, got, s)
		}
	}
}

func TestVolumeRoundTrip(t *testing.T) {
	for _, ml := range []int{200, 350, 750, 1000, 1500, 2250, 5000} {
		s := FormatVolume(ml)
		got := ParseVolumeML(s)
		if !got.Valid || int(got.Int32) != ml {
			t.Errorf("ParseVolumeML(FormatVolume(%d)) = %v via %q", ml, got, s)
		}
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"money", FormatMoney(decimal.RequireFromString("1234.5")), "R$ 1.234,50"},
		{"money small", FormatMoney(decimal.RequireFromString("35")), "R$ 35,00"},
		{"percent", FormatPercent(decimal.RequireFromString("75")), "75,00%"},
		{"volume ml", FormatVolume(350), "350ml"},
		{"volume liters", FormatVolume(1500), "1,5L"},
		{"stock mixed", FormatStock(StockInfo{PackagesCount: 8, LooseUnits: 9}), "8pc + 9un"},
		{"stock packages", FormatStock(StockInfo{PackagesCount: 8}), "8pc"},
		{"stock units", FormatStock(StockInfo{LooseUnits: 24}), "24un"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestToPgInt4Range(t *testing.T) {
	tests := []struct {
		in    int64
		valid bool
	}{
		{0, true},
		{350, true},
		{math.MaxInt32, true},
		{math.MaxInt32 + 1, false},
		{-1, false},
	}
	for _, tt := range tests {
		got := ToPgInt4(tt.in)
		if got.Valid != tt.valid {
			t.Errorf("ToPgInt4(%d).Valid = %v, want %v", tt.in, got.Valid, tt.valid)
		}
		if tt.valid && int64(got.Int32) != tt.in {
			t.Errorf("ToPgInt4(%d) = %d", tt.in, got.Int32)
		}
	}
}
