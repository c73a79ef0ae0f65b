package caption

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"dink-feed/event"
)

const unknown = "?"

// Number groups n with English thousands separators.
func Number(n int64) string {
	// message.Printer is not safe for concurrent use.
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

// Items renders an item list as "2x Shrimps (56 gp), Bronze pickaxe (22 gp)".
func Items(items []event.Item) string {
	if len(items) == 0 {
		return ""
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var b strings.Builder
		if it.Quantity > 1 {
			b.WriteString(Number(it.Quantity))
			b.WriteString("x ")
		}
		b.WriteString(it.Name)
		b.WriteString(" (")
		b.WriteString(price(it))
		b.WriteString(" gp)")
		out = append(out, b.String())
	}
	return strings.Join(out, ", ")
}

// Party renders the party clause, or "" for an empty party.
func Party(names []string) string {
	kept := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return "👥 Party: " + strings.Join(kept, ", ")
}

// Skills renders "Fishing to level 99, Cooking to level 80".
func Skills(skills []event.SkillLevel) string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		out = append(out, s.Skill+" to level "+s.Level)
	}
	return strings.Join(out, ", ")
}

func price(it event.Item) string {
	if !it.HasPrice {
		return unknown
	}
	return Number(it.PriceEach)
}

// sentence joins the non-blank parts with single spaces.
func sentence(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// joinNonEmpty joins the non-blank parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// paren wraps s in parentheses, or returns "" for blank s.
func paren(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return "(" + strings.TrimSpace(s) + ")"
}

// prefixed returns prefix+s, or "" for blank s.
func prefixed(prefix, s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return prefix + strings.TrimSpace(s)
}

// amount renders a numeric field grouped, falling back to its raw text when
// the value is not a number.
func amount(d event.Details, key string) (string, bool) {
	if n, ok := d.Int(key); ok {
		return Number(n), true
	}
	return d.String(key)
}

// nonZero is amount restricted to present, non-zero numbers.
func nonZero(d event.Details, key string) string {
	n, ok := d.Int(key)
	if !ok || n == 0 {
		return ""
	}
	return Number(n)
}

// positive is amount restricted to numbers above zero.
func positive(d event.Details, key string) string {
	n, ok := d.Int(key)
	if !ok || n <= 0 {
		return ""
	}
	return Number(n)
}

func text(d event.Details, key string) string {
	s, _ := d.String(key)
	return strings.TrimSpace(s)
}

func textOr(d event.Details, key, fallback string) string {
	if s := text(d, key); s != "" {
		return s
	}
	return fallback
}

func amountOr(d event.Details, key, fallback string) string {
	if s, ok := amount(d, key); ok {
		return s
	}
	return fallback
}

// verb lower-cases a Grand Exchange status such as CANCELLED_BUY.
func verb(status string) string {
	status = strings.TrimSpace(strings.ReplaceAll(status, "_", " "))
	if status == "" {
		return "traded"
	}
	return cases.Lower(language.English).String(status)
}
