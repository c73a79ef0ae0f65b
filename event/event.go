package event

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

type Kind string

const (
	KindDeath                  Kind = "DEATH"
	KindCollection             Kind = "COLLECTION"
	KindLevel                  Kind = "LEVEL"
	KindXPMilestone            Kind = "XP_MILESTONE"
	KindLoot                   Kind = "LOOT"
	KindSlayer                 Kind = "SLAYER"
	KindQuest                  Kind = "QUEST"
	KindClue                   Kind = "CLUE"
	KindKillCount              Kind = "KILL_COUNT"
	KindCombatAchievement      Kind = "COMBAT_ACHIEVEMENT"
	KindAchievementDiary       Kind = "ACHIEVEMENT_DIARY"
	KindPet                    Kind = "PET"
	KindSpeedrun               Kind = "SPEEDRUN"
	KindBarbarianAssaultGamble Kind = "BARBARIAN_ASSAULT_GAMBLE"
	KindPlayerKill             Kind = "PLAYER_KILL"
	KindGroupStorage           Kind = "GROUP_STORAGE"
	KindGrandExchange          Kind = "GRAND_EXCHANGE"
	KindTrade                  Kind = "TRADE"
	KindLeaguesArea            Kind = "LEAGUES_AREA"
	KindLeaguesMastery         Kind = "LEAGUES_MASTERY"
	KindLeaguesRelic           Kind = "LEAGUES_RELIC"
	KindLeaguesTask            Kind = "LEAGUES_TASK"
	KindChat                   Kind = "CHAT"
	KindExternalPlugin         Kind = "EXTERNAL_PLUGIN"
	KindLogin                  Kind = "LOGIN"
	KindLogout                 Kind = "LOGOUT"
	KindTOAUnique              Kind = "TOA_UNIQUE"
)

var kinds = []Kind{
	KindDeath,
	KindCollection,
	KindLevel,
	KindXPMilestone,
	KindLoot,
	KindSlayer,
	KindQuest,
	KindClue,
	KindKillCount,
	KindCombatAchievement,
	KindAchievementDiary,
	KindPet,
	KindSpeedrun,
	KindBarbarianAssaultGamble,
	KindPlayerKill,
	KindGroupStorage,
	KindGrandExchange,
	KindTrade,
	KindLeaguesArea,
	KindLeaguesMastery,
	KindLeaguesRelic,
	KindLeaguesTask,
	KindChat,
	KindExternalPlugin,
	KindLogin,
	KindLogout,
	KindTOAUnique,
}

// Kinds returns every declared kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Known reports whether k is one of the declared kinds.
func (k Kind) Known() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

var ErrInvalidPayload = errors.New("invalid payload")

// Record is one Dink notification. Details holds the kind specific "extra"
// object and is read through tolerant accessors.
type Record struct {
	Kind              Kind
	ActorName         string
	Details           Details
	FallbackText      string
	AccountType       string
	World             int64
	ClanName          string
	GroupIronClanName string
	SeasonalWorld     bool
	RegionID          int64
}

// Parse decodes a payload_json document.
func Parse(raw []byte) (Record, error) {
	if !gjson.ValidBytes(raw) {
		return Record{}, fmt.Errorf("%w: malformed json", ErrInvalidPayload)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Record{}, fmt.Errorf("%w: expected a json object", ErrInvalidPayload)
	}

	world, _ := toInt(doc.Get("world"))
	region, _ := toInt(doc.Get("regionId"))
	rec := Record{
		Kind:              Kind(strings.TrimSpace(doc.Get("type").String())),
		ActorName:         doc.Get("playerName").String(),
		Details:           Details{res: doc.Get("extra")},
		FallbackText:      doc.Get("content").String(),
		AccountType:       doc.Get("accountType").String(),
		World:             world,
		ClanName:          doc.Get("clanName").String(),
		GroupIronClanName: doc.Get("groupIronClanName").String(),
		SeasonalWorld:     doc.Get("seasonalWorld").Bool(),
		RegionID:          region,
	}
	return rec, nil
}
