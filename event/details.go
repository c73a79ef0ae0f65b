package event

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Details is the loosely typed "extra" object of a notification. Every
// accessor tolerates absent keys, nulls and values of the wrong JSON type.
type Details struct {
	res gjson.Result
}

// Has reports whether key is present with a non-null value.
func (d Details) Has(key string) bool {
	v := d.res.Get(key)
	return v.Exists() && v.Type != gjson.Null
}

// String returns the value of key as text. Strings are returned as is.
// Whole numbers render without exponent or fraction. Empty strings, objects,
// arrays and booleans count as absent.
func (d Details) String(key string) (string, bool) {
	v := d.res.Get(key)
	switch v.Type {
	case gjson.String:
		if strings.TrimSpace(v.Str) == "" {
			return "", false
		}
		return v.Str, true
	case gjson.Number:
		return numberText(v.Raw, v.Num), true
	default:
		return "", false
	}
}

// Int returns the integer value of key. Numeric strings, including ones
// already grouped with commas, are accepted. Values outside the int64 range
// count as absent.
func (d Details) Int(key string) (int64, bool) {
	return toInt(d.res.Get(key))
}

// Bool returns true for JSON true, "true" strings and non-zero numbers.
func (d Details) Bool(key string) bool {
	v := d.res.Get(key)
	switch v.Type {
	case gjson.True:
		return true
	case gjson.String:
		b, err := strconv.ParseBool(strings.TrimSpace(v.Str))
		return err == nil && b
	case gjson.Number:
		return v.Num != 0
	default:
		return false
	}
}

// Strings returns the non-empty string elements of an array value.
func (d Details) Strings(key string) []string {
	v := d.res.Get(key)
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, el := range v.Array() {
		if el.Type != gjson.String && el.Type != gjson.Number {
			continue
		}
		s := scalarText(el)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Items returns the item entries stored under key. Entries that are not
// objects are skipped.
func (d Details) Items(key string) []Item {
	v := d.res.Get(key)
	if !v.IsArray() {
		return nil
	}
	var out []Item
	for _, el := range v.Array() {
		if !el.IsObject() {
			continue
		}
		out = append(out, itemFrom(el))
	}
	return out
}

// Item returns a single item entry stored under key.
func (d Details) Item(key string) (Item, bool) {
	v := d.res.Get(key)
	if !v.IsObject() {
		return Item{}, false
	}
	return itemFrom(v), true
}

// Skills returns the skill to level mapping under key in document order.
func (d Details) Skills(key string) []SkillLevel {
	v := d.res.Get(key)
	if !v.IsObject() {
		return nil
	}
	var out []SkillLevel
	v.ForEach(func(k, lvl gjson.Result) bool {
		name := strings.TrimSpace(k.String())
		if name == "" {
			return true
		}
		level := scalarText(lvl)
		if level == "" {
			level = "?"
		}
		out = append(out, SkillLevel{Skill: name, Level: level})
		return true
	})
	return out
}

// Item is one line of a loot, trade or storage list.
type Item struct {
	Name      string
	Quantity  int64
	PriceEach int64
	HasPrice  bool
}

// Value is the total price of the entry, zero when the price is unknown.
// It saturates at math.MaxInt64.
func (i Item) Value() int64 {
	if !i.HasPrice || i.PriceEach <= 0 || i.Quantity <= 0 {
		return 0
	}
	if i.Quantity > math.MaxInt64/i.PriceEach {
		return math.MaxInt64
	}
	return i.Quantity * i.PriceEach
}

type SkillLevel struct {
	Skill string
	Level string
}

func itemFrom(v gjson.Result) Item {
	it := Item{
		Name:     strings.TrimSpace(v.Get("name").String()),
		Quantity: 1,
	}
	if it.Name == "" {
		it.Name = "?"
	}
	if q, ok := toInt(v.Get("quantity")); ok && q > 0 {
		it.Quantity = q
	}
	if p, ok := toInt(v.Get("priceEach")); ok && p >= 0 {
		it.PriceEach = p
		it.HasPrice = true
	}
	return it
}

// int64 range as a float; 1<<63 is exact in float64.
const int64Bound = 1 << 63

func toInt(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Number:
		return numberToInt(v.Raw, v.Num)
	case gjson.String:
		s := strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "")
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return numberToInt(s, f)
	default:
		return 0, false
	}
}

func numberToInt(raw string, f float64) (int64, bool) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, true
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= int64Bound || f < -int64Bound {
		return 0, false
	}
	return int64(f), true
}

func numberText(raw string, f float64) string {
	if n, ok := numberToInt(raw, f); ok && float64(n) == f {
		return strconv.FormatInt(n, 10)
	}
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func scalarText(v gjson.Result) string {
	if v.Type == gjson.Number {
		return numberText(v.Raw, v.Num)
	}
	return strings.TrimSpace(v.String())
}
