package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampFormat is the format engines use to render timestamps as text.
const TimestampFormat = "2006-01-02 15:04:05.000"

var timestampLayouts = []string{
	TimestampFormat,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

// ParseTimestamp parses engine timestamp text. Values without a zone are
// interpreted as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

type NestedKind int

const (
	NestedNull NestedKind = iota
	NestedStructured
	NestedRaw
)

// Nested is a cell carrying a JSON object of unknown shape. A cell that
// could not be decoded keeps its original text as Raw.
type Nested struct {
	Kind   NestedKind
	Fields map[string]string
	Raw    string
}

func NullNested() Nested { return Nested{Kind: NestedNull} }
func StructuredNested(f map[string]string) Nested { return Nested{Kind: NestedStructured, Fields: f} }
func RawNested(raw string) Nested { return Nested{Kind: NestedRaw, Raw: raw} }

// Get returns the value of key in a structured payload. Null and raw
// payloads have no fields.
func (n Nested) Get(key string) (string, bool) {
	if n.Kind != NestedStructured {
		return "", false
	}
	v, ok := n.Fields[key]
	return v, ok
}

func (n Nested) String() string {
	switch n.Kind {
	case NestedStructured:
		return fmt.Sprint(n.Fields)
	case NestedRaw:
		return n.Raw
	default:
		return ""
	}
}

type AmountKind int

const (
	AmountNull AmountKind = iota
	AmountNumber
	AmountRaw
)

// Amount is a numeric cell. A cell that could not be coerced keeps its
// original text as Raw.
type Amount struct {
	Kind   AmountKind
	Number decimal.Decimal
	Raw    string
}

func NullAmount() Amount { return Amount{Kind: AmountNull} }
func NumberAmount(d decimal.Decimal) Amount { return Amount{Kind: AmountNumber, Number: d} }
func RawAmount(raw string) Amount { return Amount{Kind: AmountRaw, Raw: raw} }

// ParseAmount coerces s into a number, returning a raw Amount and the
// coercion error when it is not numeric.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return RawAmount(s), err
	}
	return NumberAmount(d), nil
}

// Decimal returns the numeric value of a. Raw amounts are coerced again,
// tolerating currency symbols and thousands separators; anything still not
// numeric reports false.
func (a Amount) Decimal() (decimal.Decimal, bool) {
	switch a.Kind {
	case AmountNumber:
		return a.Number, true
	case AmountRaw:
		cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(a.Raw)
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// OrZero returns the numeric value of a or zero.
func (a Amount) OrZero() decimal.Decimal {
	d, _ := a.Decimal()
	return d
}

func (a Amount) String() string {
	switch a.Kind {
	case AmountNumber:
		return a.Number.String()
	case AmountRaw:
		return a.Raw
	default:
		return ""
	}
}

// Record is one decoded billing line.
type Record struct {
	Account       *string
	Product       Nested
	ProductFamily *string
	Region        *string
	ResourceID    *string
	Operation     *string
	EffectiveCost Amount
	ResourceTags  Nested
	StartDate     *string
	EndDate       *string
	UsageAmount   Amount
}

// ProductName returns the product_name field of the nested product.
func (r Record) ProductName() (string, bool) {
	name, ok := r.Product.Get("product_name")
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// EndTime parses EndDate.
func (r Record) EndTime() (time.Time, error) {
	if r.EndDate == nil {
		return time.Time{}, fmt.Errorf("end date is null")
	}
	return ParseTimestamp(*r.EndDate)
}

// StringValue dereferences a nullable text field.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
