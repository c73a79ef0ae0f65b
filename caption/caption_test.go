package caption

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dink-feed/event"
)

func record(t *testing.T, kind event.Kind, extra string) event.Record {
	t.Helper()
	typ, err := json.Marshal(string(kind))
	require.NoError(t, err)
	payload := `{"type":` + string(typ) + `,"playerName":"Alice"`
	if extra != "" {
		payload += `,"extra":` + extra
	}
	rec, err := event.Parse([]byte(payload + `}`))
	require.NoError(t, err)
	return rec
}

func details(t *testing.T, extra string) event.Details {
	t.Helper()
	return record(t, "", extra).Details
}

func TestFormatGolden(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		kind  event.Kind
		extra string
		want  string
	}{
		{"death pvp", event.KindDeath, `{"isPvp":true,"killerName":"Bob","valueLost":100000}`,
			"💀 Alice was PKed by Bob! 💸 Lost: 100,000 gp"},
		{"death npc", event.KindDeath, `{"isPvp":false,"killerName":"Goblin","valueLost":500}`,
			"💀 Alice was slain by Goblin! 💸 Lost: 500 gp"},
		{"death plain", event.KindDeath, `{"valueLost":2500}`,
			"💀 Alice has died. 💸 Lost: 2,500 gp"},
		{"collection", event.KindCollection, `{"itemName":"Zamorak chaps","completedEntries":10,"totalEntries":100}`,
			"📚 Alice added Zamorak chaps to their collection! (10/100 logs)"},
		{"level", event.KindLevel, `{"levelledSkills":{"Fishing":99}}`,
			"⬆️ Alice levelled up: Fishing to level 99"},
		{"xp milestone", event.KindXPMilestone, `{"milestoneAchieved":["Cooking"],"interval":5000000}`,
			"🏅 Alice hit an XP milestone in: Cooking (5,000,000 XP)"},
		{"loot", event.KindLoot, `{"items":[{"name":"Dragon scimitar","quantity":1,"priceEach":60000}],"source":"Monkey Madness","party":["Alice","Bob"]}`,
			"📦 Alice looted: Dragon scimitar (60,000 gp) from Monkey Madness 👥 Party: Alice, Bob"},
		{"slayer", event.KindSlayer, `{"slayerTask":"Abyssal demons","slayerPoints":"15","slayerCompleted":"30"}`,
			"🗡️ Alice completed a slayer task: Abyssal demons (15 pts, 30 tasks)"},
		{"quest", event.KindQuest, `{"questName":"Dragon Slayer I","completedQuests":22,"totalQuests":156}`,
			"🧭 Alice completed the quest: Dragon Slayer I (22/156 quests)"},
		{"clue", event.KindClue, `{"clueType":"Beginner","numberCompleted":5,"items":[{"name":"Feather","quantity":100,"priceEach":3}]}`,
			"🗺️ Alice completed a Beginner clue (#5) and got: 100x Feather (3 gp)"},
		{"kill count", event.KindKillCount, `{"boss":"Zulrah","count":42,"isPersonalBest":true,"party":["Alice"]}`,
			"🏆 Alice defeated Zulrah (42). 🔥 New PB! 👥 Party: Alice"},
		{"combat achievement tier", event.KindCombatAchievement, `{"justCompletedTier":"MASTER","task":"Peach Conjurer"}`,
			"🥇 Alice unlocked MASTER tier by completing: Peach Conjurer"},
		{"combat achievement task", event.KindCombatAchievement, `{"tier":"GRANDMASTER","task":"Peach Conjurer"}`,
			"🥇 Alice completed GRANDMASTER combat task: Peach Conjurer"},
		{"achievement diary", event.KindAchievementDiary, `{"area":"Varrock","difficulty":"HARD","total":15}`,
			"📖 Alice finished the HARD Varrock Achievement Diary (15 diaries)"},
		{"pet", event.KindPet, `{"petName":"Ikkle hydra","milestone":"5,000 killcount","duplicate":false}`,
			"🐾 Alice got a pet: Ikkle hydra - 5,000 killcount"},
		{"pet duplicate", event.KindPet, `{"duplicate":true}`,
			"🐾 Alice got a pet: A new pet (duplicate!)"},
		{"speedrun pb", event.KindSpeedrun, `{"questName":"Cook's Assistant","currentTime":"1:13.20","isPersonalBest":true}`,
			"⏱️ Alice set a new PB in Cook's Assistant: 1:13.20"},
		{"speedrun", event.KindSpeedrun, `{"questName":"Cook's Assistant","currentTime":"1:22.20","personalBest":"1:13.20"}`,
			"⏱️ Alice finished a speedrun of Cook's Assistant: 1:22.20 (PB: 1:13.20)"},
		{"barbarian assault gamble", event.KindBarbarianAssaultGamble, `{"gambleCount":500,"items":[{"name":"Granite shield","quantity":1,"priceEach":35500}]}`,
			"🎲 Alice reached 500 high gambles and got: Granite shield (35,500 gp)"},
		{"player kill", event.KindPlayerKill, `{"victimName":"Bob","victimCombatLevel":69}`,
			"⚔️ Alice PK'd Bob (lvl 69)!"},
		{"group storage", event.KindGroupStorage, `{"deposits":[{"name":"Shrimps","quantity":2,"priceEach":56}],"withdrawals":[{"name":"Bronze pickaxe","quantity":1,"priceEach":22}]}`,
			"🏦 Alice deposited: 2x Shrimps (56 gp) | withdrew: Bronze pickaxe (22 gp)"},
		{"grand exchange", event.KindGrandExchange, `{"status":"SOLD","item":{"name":"Feather","quantity":2,"priceEach":3}}`,
			"💱 Alice sold Feather x2 on the GE (3 gp each)"},
		{"grand exchange cancelled", event.KindGrandExchange, `{"status":"CANCELLED_BUY","item":{"name":"Feather","quantity":1000}}`,
			"💱 Alice cancelled buy Feather x1,000 on the GE (? gp each)"},
		{"trade", event.KindTrade, `{"counterparty":"Bob","receivedItems":[{"name":"Feather","quantity":100,"priceEach":2}],"givenItems":[{"name":"Cannonball","quantity":3,"priceEach":150}]}`,
			"🤝 Alice traded with Bob. Received: 100x Feather (2 gp) | Gave: 3x Cannonball (150 gp)"},
		{"leagues area", event.KindLeaguesArea, `{"area":"Kandarin","index":2}`,
			"🌍 Alice unlocked region: Kandarin (#2)"},
		{"leagues mastery", event.KindLeaguesMastery, `{"masteryType":"Melee","masteryTier":1}`,
			"🥋 Alice unlocked Combat Mastery: Melee (Tier 1)"},
		{"leagues relic", event.KindLeaguesRelic, `{"relic":"Production Prodigy","tier":1}`,
			"🔮 Alice unlocked Tier 1 Relic: Production Prodigy"},
		{"leagues task trophy", event.KindLeaguesTask, `{"difficulty":"Hard","taskName":"The Frozen Door","earnedTrophy":"Bronze","taskPoints":80}`,
			"🏆 Alice completed a Hard task: The Frozen Door, unlocking the Bronze trophy!"},
		{"leagues task", event.KindLeaguesTask, `{"difficulty":"Easy","taskName":"Pickpocket a Citizen","taskPoints":10}`,
			"📝 Alice completed a Easy task: Pickpocket a Citizen (+10 pts)"},
		{"chat", event.KindChat, `{"message":"Hello world!"}`,
			`💬 Alice received a chat message: "Hello world!"`},
		{"external plugin", event.KindExternalPlugin, `{"sourcePlugin":"MyPlugin"}`,
			"🔌 Alice got a notification from MyPlugin"},
		{"login", event.KindLogin, `{"world":338}`,
			"🔑 Alice logged in to World 338"},
		{"logout", event.KindLogout, ``,
			"🚪 Alice logged out."},
		{"toa unique", event.KindTOAUnique, ``,
			"🟣 Alice rolled a purple (unique) drop in Tombs of Amascut!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Format(record(t, tt.kind, tt.extra)))
		})
	}
}

func TestFormatCoversEveryKind(t *testing.T) {
	t.Parallel()

	for _, k := range event.Kinds() {
		require.Truef(t, hasRule(k), "no template for %s", k)
		out := Format(record(t, k, `{}`))
		assert.NotEmpty(t, out, k)
		assert.Contains(t, out, "Alice", k)
	}
}

func TestFormatFallback(t *testing.T) {
	t.Parallel()

	rec := record(t, "UNKNOWN_TYPE", `{}`)
	rec.FallbackText = "Custom content"
	assert.Equal(t, "Custom content", Format(rec))

	rec.FallbackText = "   "
	assert.Equal(t, "Alice did something cool in OSRS!", Format(rec))

	rec.ActorName = ""
	assert.Equal(t, "A player did something cool in OSRS!", Format(rec))
}

func TestFormatMissingActor(t *testing.T) {
	t.Parallel()

	rec := record(t, event.KindLogout, ``)
	rec.ActorName = "  "
	assert.Equal(t, "🚪 A player logged out.", Format(rec))
}

func TestFormatIdempotent(t *testing.T) {
	t.Parallel()

	rec := record(t, event.KindLoot, `{"items":[{"name":"Coins","quantity":5000000,"priceEach":1}],"source":"Vorkath"}`)
	first := Format(rec)
	assert.Equal(t, first, Format(rec))
	assert.Equal(t, "📦 Alice looted: 5,000,000x Coins (1 gp) from Vorkath", first)
}

func TestFormatOmitsOptionalClauses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		kind  event.Kind
		extra string
		want  string
	}{
		{"death without loss", event.KindDeath, `{}`, "💀 Alice has died."},
		{"death zero loss", event.KindDeath, `{"killerName":"Goblin","valueLost":0}`, "💀 Alice was slain by Goblin!"},
		{"death negative loss", event.KindDeath, `{"valueLost":-5000}`, "💀 Alice has died."},
		{"death loss out of range", event.KindDeath, `{"valueLost":1e300}`, "💀 Alice has died."},
		{"pvp without killer", event.KindDeath, `{"isPvp":true}`, "💀 Alice was PKed by another player!"},
		{"loot without source or party", event.KindLoot, `{"items":[{"name":"Bones"}],"party":[]}`, "📦 Alice looted: Bones (? gp)"},
		{"loot without items", event.KindLoot, `{"source":"Goblin"}`, "📦 Alice received loot from Goblin"},
		{"kill count without count", event.KindKillCount, `{"boss":"Zulrah","isPersonalBest":false}`, "🏆 Alice defeated Zulrah."},
		{"kill count without boss", event.KindKillCount, `{}`, "🏆 Alice defeated a boss."},
		{"clue without items", event.KindClue, `{"clueType":"Elite"}`, "🗺️ Alice completed a Elite clue"},
		{"speedrun without pb", event.KindSpeedrun, `{"questName":"Cook's Assistant","currentTime":"1:22.20"}`, "⏱️ Alice finished a speedrun of Cook's Assistant: 1:22.20"},
		{"leagues task without points", event.KindLeaguesTask, `{"difficulty":"Easy","taskName":"Pickpocket a Citizen"}`, "📝 Alice completed a Easy task: Pickpocket a Citizen"},
		{"leagues task negative points", event.KindLeaguesTask, `{"difficulty":"Easy","taskName":"Pickpocket a Citizen","taskPoints":-5}`, "📝 Alice completed a Easy task: Pickpocket a Citizen"},
		{"group storage withdraw only", event.KindGroupStorage, `{"deposits":[],"withdrawals":[{"name":"Rune axe","priceEach":12000}]}`, "🏦 Alice withdrew: Rune axe (12,000 gp)"},
		{"group storage empty", event.KindGroupStorage, `{}`, "🏦 Alice updated their group storage."},
		{"trade nothing received", event.KindTrade, `{"counterparty":"Bob","givenItems":[{"name":"Coins","quantity":10,"priceEach":1}]}`, "🤝 Alice traded with Bob. Gave: 10x Coins (1 gp)"},
		{"trade empty", event.KindTrade, `{}`, "🤝 Alice traded with another player."},
		{"player kill without level", event.KindPlayerKill, `{"victimName":"Bob"}`, "⚔️ Alice PK'd Bob!"},
		{"relic without tier", event.KindLeaguesRelic, `{"relic":"Endless Harvest"}`, "🔮 Alice unlocked Relic: Endless Harvest"},
		{"login without world", event.KindLogin, `{}`, "🔑 Alice logged in."},
		{"level without skills", event.KindLevel, `{}`, "⬆️ Alice levelled up!"},
		{"xp milestone without interval", event.KindXPMilestone, `{"milestoneAchieved":["Attack","Magic"]}`, "🏅 Alice hit an XP milestone in: Attack, Magic"},
		{"chat without message", event.KindChat, `{}`, "💬 Alice received a chat message."},
		{"grand exchange without item", event.KindGrandExchange, `{"status":"BOUGHT"}`, "💱 Alice bought an item on the GE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := Format(record(t, tt.kind, tt.extra))
			assert.Equal(t, tt.want, out)
			assert.NotContains(t, out, "  ")
			assert.False(t, strings.HasPrefix(out, "|"))
			assert.False(t, strings.HasSuffix(out, " "))
			assert.False(t, strings.HasSuffix(out, "|"))
			assert.False(t, strings.HasSuffix(out, ":"))
		})
	}
}

func TestFormatNoOrphanSeparatorsOnEmptyDetails(t *testing.T) {
	t.Parallel()

	for _, k := range event.Kinds() {
		for _, extra := range []string{``, `{}`, `null`, `[]`, `{"items":"oops","party":{"a":1}}`} {
			out := Format(record(t, k, extra))
			assert.NotContains(t, out, "  ", "%s %s", k, extra)
			assert.NotContains(t, out, "()", "%s %s", k, extra)
			assert.False(t, strings.HasSuffix(out, ":"), "%s %s: %q", k, extra, out)
			assert.False(t, strings.HasSuffix(out, "|"), "%s %s: %q", k, extra, out)
			assert.Equal(t, strings.TrimSpace(out), out)
		}
	}
}

func TestFormatLoginFallsBackToRecordWorld(t *testing.T) {
	t.Parallel()

	rec := record(t, event.KindLogin, `{}`)
	rec.World = 420
	assert.Equal(t, "🔑 Alice logged in to World 420", Format(rec))
}

func TestFormatFloatFormNumbers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "🔑 Alice logged in to World 338", Format(record(t, event.KindLogin, `{"world":338.0}`)))
	assert.Equal(t, "🌍 Alice unlocked region: Kandarin (#2)", Format(record(t, event.KindLeaguesArea, `{"area":"Kandarin","index":2e0}`)))
	assert.Equal(t, "💀 Alice has died. 💸 Lost: 2,500 gp", Format(record(t, event.KindDeath, `{"valueLost":2.5e3}`)))
}

func TestFormatConcurrent(t *testing.T) {
	t.Parallel()

	rec := record(t, event.KindDeath, `{"isPvp":true,"killerName":"Bob","valueLost":100000}`)
	want := Format(rec)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Format(rec))
		}()
	}
	wg.Wait()
}

func TestAnomalies(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Anomalies(record(t, event.KindCombatAchievement, `{"tier":"HARD","task":"x"}`)))
	assert.Len(t, Anomalies(record(t, event.KindCombatAchievement, `{"tier":"HARD","justCompletedTier":"MEDIUM"}`)), 1)
	assert.Len(t, Anomalies(record(t, event.KindSpeedrun, `{"isPersonalBest":true,"personalBest":"1:00"}`)), 1)
	assert.Empty(t, Anomalies(record(t, event.KindSpeedrun, `{"isPersonalBest":false,"personalBest":"1:00"}`)))
	assert.Len(t, Anomalies(record(t, event.KindLeaguesTask, `{"earnedTrophy":"Bronze","taskPoints":80}`)), 1)
	assert.Empty(t, Anomalies(record(t, event.KindLoot, `{}`)))
}
