package rules

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"dink-feed/event"
)

type KindRule struct {
	Disabled bool   `yaml:"disabled"`
	Channel  string `yaml:"channel"`   // overrides the default channel
	MinValue int64  `yaml:"min_value"` // loot-like kinds only: summed gp value
}

type Rules struct {
	Channel string              `yaml:"channel"`
	Kinds   map[string]KindRule `yaml:"kinds"`
}

// Decision is the routing outcome for one notification.
type Decision struct {
	Post    bool
	Channel string
	Reason  string
}

// Default posts every kind to channel.
func Default(channel string) *Rules {
	return &Rules{Channel: channel, Kinds: map[string]KindRule{}}
}

// Load reads a rules file. An empty path yields Default(channel); a channel
// in the file overrides the one passed in.
func Load(path, channel string) (*Rules, error) {
	r := Default(channel)
	if strings.TrimSpace(path) == "" {
		return r, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	if err := yaml.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if r.Kinds == nil {
		r.Kinds = map[string]KindRule{}
	}
	normalized := make(map[string]KindRule, len(r.Kinds))
	for k, v := range r.Kinds {
		key := strings.ToUpper(strings.TrimSpace(k))
		if key == "" {
			return nil, errors.New("parse rules: empty kind name")
		}
		if v.MinValue < 0 {
			return nil, fmt.Errorf("parse rules: %s: min_value must not be negative", key)
		}
		normalized[key] = v
	}
	r.Kinds = normalized
	return r, nil
}

// Route decides whether rec is posted and to which channel.
func (r *Rules) Route(rec event.Record) Decision {
	kr := r.Kinds[string(rec.Kind)]
	d := Decision{Post: true, Channel: r.Channel}
	if kr.Channel != "" {
		d.Channel = kr.Channel
	}
	if kr.Disabled {
		d.Post = false
		d.Reason = fmt.Sprintf("kind %s disabled", rec.Kind)
		return d
	}
	if kr.MinValue > 0 && carriesLoot(rec.Kind) {
		if v := LootValue(rec); v < kr.MinValue {
			d.Post = false
			d.Reason = fmt.Sprintf("loot value %d below %d", v, kr.MinValue)
		}
	}
	return d
}

func carriesLoot(k event.Kind) bool {
	switch k {
	case event.KindLoot, event.KindClue, event.KindBarbarianAssaultGamble:
		return true
	}
	return false
}

// LootValue sums the known item values of rec's item list. The sum
// saturates at math.MaxInt64.
func LootValue(rec event.Record) int64 {
	var total int64
	for _, it := range rec.Details.Items("items") {
		v := it.Value()
		if v > math.MaxInt64-total {
			return math.MaxInt64
		}
		total += v
	}
	return total
}
