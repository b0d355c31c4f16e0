package core

// convert.go turns the locale-formatted cells of an import file into typed
// values.
//
// These functions handle the messy reality of spreadsheet exports:
//   - Brazilian currency ("R$ 1.234,56") and decimal commas
//   - Volumes in milliliters or liters ("350ml", "1,5L")
//   - Composite stock counts ("8pc + 9un", "2cx")
//   - Free-text sell modes and turnover labels, with or without accents
//
// Every normalizer is total: empty cells, "-" and the "Indisponível" marker map
// to an absent value (Valid=false) instead of failing.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// unavailableMarker is the spreadsheet placeholder for "no value", compared
// after accent folding.
const unavailableMarker = "indisponivel"

var (
	decimalRegex = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

	currencySymbolRegex = regexp.MustCompile(`(?i)r\$`)
	dotThousandsRegex   = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

	volumeMLRegex    = regexp.MustCompile(`(\d+)ml`)
	volumeLiterRegex = regexp.MustCompile(`(\d+(?:,\d+)?)l`)

	packageRegex = regexp.MustCompile(`pacote\s*\((\d+)un\.?\)`)
	boxSellRegex = regexp.MustCompile(`caixa\s*\((\d+)un\.?\)`)

	stockMixedRegex    = regexp.MustCompile(`(\d+)pc\s*\+\s*(\d+)un`)
	stockPackagesRegex = regexp.MustCompile(`(\d+)pc`)
	stockUnitsRegex    = regexp.MustCompile(`(\d+)un`)
	stockBoxesRegex    = regexp.MustCompile(`(\d+)cx`)
)

// Box conversion used by ParseStock when a stock cell counts boxes. The
// source data never states how many units a box holds, so a box is taken to
// be two packages, or defaultUnitsPerBox when the package size is unknown.
// Kept for compatibility with existing spreadsheets.
const (
	packagesPerBox     = 2
	defaultUnitsPerBox = 24
)

// ToPgText converts a string to pgtype.Text.
// Returns invalid if the string is empty or only whitespace.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgInt4 converts an int to pgtype.Int4. Values outside
// [0, math.MaxInt32] are invalid.
func ToPgInt4(i int64) pgtype.Int4 {
	if i < 0 || i > math.MaxInt32 {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(i), Valid: true}
}

// foldAccents lowercases s and strips combining marks, so "Rápido" and
// "RAPIDO" compare equal.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// isPlaceholder reports whether a cell holds no value.
func isPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return true
	}
	return strings.Contains(foldAccents(s), unavailableMarker)
}

// stripSpaces removes every whitespace rune, including non-breaking spaces
// that spreadsheet programs put between "R$" and the amount.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ' ' {
			return -1
		}
		return r
	}, s)
}

// parseLocaleDecimal parses "1.234,56", "1234,56" and "1234.56".
// When a comma is present it is the decimal separator and dots group
// thousands.
func parseLocaleDecimal(s string) (decimal.Decimal, bool) {
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	if !decimalRegex.MatchString(s) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseMoney parses a Brazilian currency cell into a value with two decimal
// places. Negative or non-numeric input is absent.
func ParseMoney(s string) decimal.NullDecimal {
	if isPlaceholder(s) {
		return decimal.NullDecimal{}
	}
	s = stripSpaces(currencySymbolRegex.ReplaceAllString(s, ""))
	// "1.500" is fifteen hundred reais, not one and a half.
	if !strings.Contains(s, ",") && dotThousandsRegex.MatchString(s) {
		s = strings.ReplaceAll(s, ".", "")
	}

	d, ok := parseLocaleDecimal(s)
	if !ok || d.IsNegative() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d.Round(2))
}

// ParsePercentage parses "75%", "12,5 %" or "-3,25%" with two decimal places.
func ParsePercentage(s string) decimal.NullDecimal {
	if isPlaceholder(s) {
		return decimal.NullDecimal{}
	}
	s = stripSpaces(strings.ReplaceAll(s, "%", ""))

	d, ok := parseLocaleDecimal(s)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d.Round(2))
}

// ParseVolumeML returns the volume in whole milliliters. Mass units such as
// "1kg" are not liquid volumes and yield absent.
func ParseVolumeML(s string) pgtype.Int4 {
	if isPlaceholder(s) {
		return pgtype.Int4{}
	}
	v := strings.ToLower(stripSpaces(s))

	if strings.Contains(v, "kg") {
		return pgtype.Int4{}
	}

	if strings.Contains(v, "ml") {
		m := volumeMLRegex.FindStringSubmatch(v)
		if m == nil {
			return pgtype.Int4{}
		}
		ml, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return pgtype.Int4{}
		}
		return ToPgInt4(ml)
	}

	if m := volumeLiterRegex.FindStringSubmatch(v); m != nil {
		liters, err := decimal.NewFromString(strings.Replace(m[1], ",", ".", 1))
		if err != nil {
			return pgtype.Int4{}
		}
		ml := liters.Mul(decimal.NewFromInt(1000)).Round(0)
		if ml.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
			return pgtype.Int4{}
		}
		return ToPgInt4(ml.IntPart())
	}

	return pgtype.Int4{}
}

// ParseSellMode parses the "Venda em" descriptor, for example
// "unidade, pacote (12un.)". An empty descriptor means individual sale only.
func ParseSellMode(s string) SellMode {
	mode := SellMode{SellsIndividually: true, PackageSize: 1}
	if strings.TrimSpace(s) == "" {
		return mode
	}

	v := foldAccents(s)
	mode.SellsIndividually = strings.Contains(v, "unidade")

	m := packageRegex.FindStringSubmatch(v)
	if m == nil {
		m = boxSellRegex.FindStringSubmatch(v)
	}
	if m != nil {
		mode.SellsByPackage = true
		if n := atoi(m[1]); n > 0 {
			mode.PackageSize = n
		}
	}
	return mode
}

// ParseStock decodes a composite stock cell. Recognized shapes, tried in
// order: "<p>pc + <u>un", "<p>pc", "<u>un" and "<b>cx". Anything else is
// zero stock, and so is a total that does not fit in an int4 column.
func ParseStock(s string, packageSize int) StockInfo {
	if packageSize < 1 || packageSize > math.MaxInt32 {
		packageSize = 1
	}
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return StockInfo{}
	}

	var (
		total           int64
		packages, loose int
	)
	switch {
	case stockMixedRegex.MatchString(v):
		m := stockMixedRegex.FindStringSubmatch(v)
		packages, loose = atoi(m[1]), atoi(m[2])
		total = int64(packages)*int64(packageSize) + int64(loose)
	case stockPackagesRegex.MatchString(v):
		packages = atoi(stockPackagesRegex.FindStringSubmatch(v)[1])
		total = int64(packages) * int64(packageSize)
	case stockUnitsRegex.MatchString(v):
		loose = atoi(stockUnitsRegex.FindStringSubmatch(v)[1])
		total = int64(loose)
	case stockBoxesRegex.MatchString(v):
		packages = atoi(stockBoxesRegex.FindStringSubmatch(v)[1])
		total = int64(packages) * unitsPerBox(packageSize)
	default:
		return StockInfo{}
	}

	if total > math.MaxInt32 {
		return StockInfo{}
	}
	return StockInfo{TotalUnits: int(total), PackagesCount: packages, LooseUnits: loose}
}

func unitsPerBox(packageSize int) int64 {
	if packageSize > 1 {
		return int64(packageSize) * packagesPerBox
	}
	return defaultUnitsPerBox
}

// atoi converts a regex digit group. Anything above math.MaxInt32 cannot be
// stored and yields 0.
func atoi(s string) int {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}

// ParseTurnover classifies a turnover label. Unknown and empty labels are
// medium.
func ParseTurnover(s string) Turnover {
	v := foldAccents(s)
	switch {
	case v == "":
		return TurnoverMedium
	case strings.Contains(v, "rapido"), strings.Contains(v, "fast"):
		return TurnoverFast
	case strings.Contains(v, "devagar"), strings.Contains(v, "lento"), strings.Contains(v, "slow"):
		return TurnoverSlow
	default:
		return TurnoverMedium
	}
}

// CleanCategory trims a category name. Placeholders such as "Indisponível"
// are absent.
func CleanCategory(s string) pgtype.Text {
	if isPlaceholder(s) {
		return pgtype.Text{}
	}
	return ToPgText(s)
}

// CleanSupplier trims a supplier name. Empty is absent.
func CleanSupplier(s string) pgtype.Text {
	return ToPgText(s)
}

// FormatMoney renders a value the way ParseMoney reads it: "R$ 1.234,56".
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return "R$ " + sign + groupThousands(intPart) + "," + frac
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatPercent renders a value the way ParsePercentage reads it: "12,50%".
func FormatPercent(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1) + "%"
}

// FormatVolume renders milliliters as "350ml", or in liters from 1000ml up
// ("1,5L").
func FormatVolume(ml int) string {
	if ml < 1000 {
		return strconv.Itoa(ml) + "ml"
	}
	liters := decimal.NewFromInt(int64(ml)).Div(decimal.NewFromInt(1000))
	return strings.Replace(liters.String(), ".", ",", 1) + "L"
}

// FormatStock renders a stock breakdown as "8pc + 9un", "8pc" or "9un".
func FormatStock(s StockInfo) string {
	switch {
	case s.PackagesCount > 0 && s.LooseUnits > 0:
		return strconv.Itoa(s.PackagesCount) + "pc + " + strconv.Itoa(s.LooseUnits) + "un"
	case s.PackagesCount > 0:
		return strconv.Itoa(s.PackagesCount) + "pc"
	default:
		return strconv.Itoa(s.LooseUnits) + "un"
	}
}
