package coercer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TypeCoercer turns raw table cells into timestamps and numbers with a
// fixed, versioned rule set
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion rules
type CoercionConfig struct {
	MissingTokens    []string `json:"missing_tokens"`    // compared case-insensitively after trimming
	TimestampFormats []string `json:"timestamp_formats"` // tried in order
	AllowUnixSeconds bool     `json:"allow_unix_seconds"`
}

// DefaultCoercionConfig returns the tokens and layouts accepted on CSV and
// spreadsheet ingestion
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		MissingTokens: []string{"", "na", "n/a", "nan", "nat", "null", "none"},
		TimestampFormats: []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
			"01/02/2006",
			"2006/01/02",
			"02-Jan-2006",
		},
		AllowUnixSeconds: true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

var defaultCoercer = NewTypeCoercer(DefaultCoercionConfig())

// IsMissing reports whether a cell is one of the missing-value tokens
func IsMissing(s string) bool { return defaultCoercer.IsMissing(s) }

// ParseTimestamp parses a cell with the default rules
func ParseTimestamp(s string) (time.Time, error) { return defaultCoercer.ParseTimestamp(s) }

// ParseNumeric parses a cell with the default rules
func ParseNumeric(s string) (float64, error) { return defaultCoercer.ParseNumeric(s) }

func (c *TypeCoercer) IsMissing(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, tok := range c.config.MissingTokens {
		if v == tok {
			return true
		}
	}
	return false
}

// ParseTimestamp tries each layout, then integer Unix seconds. Layouts
// without a zone are read as UTC.
func (c *TypeCoercer) ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range c.config.TimestampFormats {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	if c.config.AllowUnixSeconds {
		if unixVal, err := strconv.ParseInt(v, 10, 64); err == nil {
			if unixVal > 0 && unixVal < 1<<35 { // plausible seconds, not millis
				return time.Unix(unixVal, 0).UTC(), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ParseNumeric accepts plain and scientific notation plus currency symbols,
// thousands separators, percent signs and accounting negatives like (12.5).
func (c *TypeCoercer) ParseNumeric(s string) (float64, error) {
	cleanVal := strings.TrimSpace(s)
	if cleanVal == "" {
		return 0, fmt.Errorf("empty number")
	}

	// (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.ReplaceAll(cleanVal, "%", "")
	cleanVal = strings.TrimSpace(cleanVal)
	cleanVal = normalizeSeparators(cleanVal)

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil {
		return 0, fmt.Errorf("unrecognised number %q", s)
	}
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, fmt.Errorf("non-finite number %q", s)
	}
	return val, nil
}

// normalizeSeparators rewrites European and US grouping to a plain decimal.
// 1.234,56 and 1 234,56 use a decimal comma; 1,234.56 and 1,234 group with
// commas; a lone comma followed by other than three digits is a decimal comma.
func normalizeSeparators(v string) string {
	hasComma := strings.Contains(v, ",")
	hasPeriod := strings.Contains(v, ".")
	hasSpace := strings.Contains(v, " ")

	switch {
	case hasComma && (hasPeriod || hasSpace):
		commaIdx := strings.LastIndex(v, ",")
		if commaIdx > strings.LastIndex(v, ".") && allDigits(v[commaIdx+1:]) {
			v = strings.ReplaceAll(v, ".", "")
			v = strings.ReplaceAll(v, " ", "")
			return strings.ReplaceAll(v, ",", ".")
		}
		v = strings.ReplaceAll(v, ",", "")
		return strings.ReplaceAll(v, " ", "")
	case hasComma:
		after := v[strings.LastIndex(v, ",")+1:]
		if len(after) == 3 && allDigits(after) {
			return strings.ReplaceAll(v, ",", "")
		}
		return strings.ReplaceAll(v, ",", ".")
	default:
		return strings.ReplaceAll(v, " ", "")
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
