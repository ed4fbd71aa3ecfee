package migration

import (
	"regexp"
	"time"
)

type timestampKind int

const (
	kindDigits timestampKind = iota
	kindDate
)

// Recognised identifier prefixes, tried in order.
var timestampFormats = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`^(\d{4}_\d{2}_\d{2}_\d{6})(?:[_\-.]|$)`), "2006_01_02_150405"},
	{regexp.MustCompile(`^(\d{14})(?:[_\-.]|$)`), "20060102150405"},
	{regexp.MustCompile(`^(\d+)(?:[_\-.]|$)`), ""},
}

// Timestamp is the ordering prefix of a migration identifier.
type Timestamp struct {
	Value  string
	kind   timestampKind
	layout string
}

func (t Timestamp) String() string { return t.Value }

// ParseTimestamp extracts the timestamp prefix of a migration identifier:
// 2025_01_01_000000_create_users, 20250101000000_create_users or a plain
// version number such as 0042_create_users.
func ParseTimestamp(id string) (Timestamp, bool) {
	for _, f := range timestampFormats {
		m := f.re.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		if f.layout != "" {
			if _, err := time.Parse(f.layout, m[1]); err == nil {
				return Timestamp{Value: m[1], kind: kindDate, layout: f.layout}, true
			}
		}
		return Timestamp{Value: m[1], kind: kindDigits}, true
	}
	return Timestamp{}, false
}

// Next returns the smallest timestamp of the same shape that sorts after t:
// one second later for date stamps, plus one for version numbers.
func (t Timestamp) Next() Timestamp {
	if t.kind == kindDate {
		if parsed, err := time.Parse(t.layout, t.Value); err == nil {
			return Timestamp{Value: parsed.Add(time.Second).Format(t.layout), kind: kindDate, layout: t.layout}
		}
	}
	return Timestamp{Value: incrementDigits(t.Value), kind: kindDigits}
}

// WithTimestamp replaces the timestamp prefix of id.
func WithTimestamp(id string, ts Timestamp) string {
	old, ok := ParseTimestamp(id)
	if !ok {
		return ts.Value + "_" + id
	}
	return ts.Value + id[len(old.Value):]
}

// incrementDigits adds one to a decimal string, carrying across separator
// characters and keeping zero padding; 0099 becomes 0100 and 999 becomes 1000.
func incrementDigits(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < '0' || b[i] > '9' {
			continue
		}
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}
