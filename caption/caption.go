// Package caption turns Dink notifications into one line of text for a cast.
//
// Format is total: every kind, known or not, yields a non-empty sentence and
// absent optional fields drop their clause instead of failing.
package caption

import (
	"strconv"
	"strings"

	"dink-feed/event"
)

const defaultActor = "A player"

type rule func(actor string, rec event.Record) string

var rules = map[event.Kind]rule{
	event.KindDeath:                  death,
	event.KindCollection:             collection,
	event.KindLevel:                  level,
	event.KindXPMilestone:            xpMilestone,
	event.KindLoot:                   loot,
	event.KindSlayer:                 slayer,
	event.KindQuest:                  quest,
	event.KindClue:                   clue,
	event.KindKillCount:              killCount,
	event.KindCombatAchievement:      combatAchievement,
	event.KindAchievementDiary:       achievementDiary,
	event.KindPet:                    pet,
	event.KindSpeedrun:               speedrun,
	event.KindBarbarianAssaultGamble: gamble,
	event.KindPlayerKill:             playerKill,
	event.KindGroupStorage:           groupStorage,
	event.KindGrandExchange:          grandExchange,
	event.KindTrade:                  trade,
	event.KindLeaguesArea:            leaguesArea,
	event.KindLeaguesMastery:         leaguesMastery,
	event.KindLeaguesRelic:           leaguesRelic,
	event.KindLeaguesTask:            leaguesTask,
	event.KindChat:                   chat,
	event.KindExternalPlugin:         externalPlugin,
	event.KindLogin:                  login,
	event.KindLogout:                 logout,
	event.KindTOAUnique:              toaUnique,
}

// Format returns the post text for rec.
func Format(rec event.Record) string {
	actor := strings.TrimSpace(rec.ActorName)
	if actor == "" {
		actor = defaultActor
	}
	if r, ok := rules[rec.Kind]; ok {
		return r(actor, rec)
	}
	return fallback(actor, rec)
}

// hasRule reports whether k has a dedicated template.
func hasRule(k event.Kind) bool {
	_, ok := rules[k]
	return ok
}

func fallback(actor string, rec event.Record) string {
	if strings.TrimSpace(rec.FallbackText) != "" {
		return rec.FallbackText
	}
	return actor + " did something cool in OSRS!"
}

func death(actor string, rec event.Record) string {
	d := rec.Details
	loss := prefixed("💸 Lost: ", positive(d, "valueLost"))
	if loss != "" {
		loss += " gp"
	}
	killer := text(d, "killerName")
	switch {
	case d.Bool("isPvp"):
		if killer == "" {
			killer = "another player"
		}
		return sentence("💀", actor, "was PKed by", killer+"!", loss)
	case killer != "":
		return sentence("💀", actor, "was slain by", killer+"!", loss)
	default:
		return sentence("💀", actor, "has died.", loss)
	}
}

func collection(actor string, rec event.Record) string {
	d := rec.Details
	logs := ""
	if done, ok := amount(d, "completedEntries"); ok {
		if total, ok := amount(d, "totalEntries"); ok {
			logs = done + "/" + total + " logs"
		} else {
			logs = done + " logs"
		}
	}
	return sentence("📚", actor, "added", textOr(d, "itemName", unknown), "to their collection!", paren(logs))
}

func level(actor string, rec event.Record) string {
	skills := Skills(rec.Details.Skills("levelledSkills"))
	if skills == "" {
		return sentence("⬆️", actor, "levelled up!")
	}
	return sentence("⬆️", actor, "levelled up:", skills)
}

func xpMilestone(actor string, rec event.Record) string {
	d := rec.Details
	skills := strings.Join(d.Strings("milestoneAchieved"), ", ")
	xp := suffixed(nonZero(d, "interval"), " XP")
	if skills == "" {
		return sentence("🏅", actor, "hit an XP milestone", paren(xp))
	}
	return sentence("🏅", actor, "hit an XP milestone in:", skills, paren(xp))
}

func loot(actor string, rec event.Record) string {
	d := rec.Details
	head := prefixed("looted: ", Items(d.Items("items")))
	if head == "" {
		head = "received loot"
	}
	return sentence("📦", actor, head, prefixed("from ", text(d, "source")), Party(d.Strings("party")))
}

func slayer(actor string, rec event.Record) string {
	d := rec.Details
	stats := joinNonEmpty(", ",
		suffixed(amountOr(d, "slayerPoints", ""), " pts"),
		suffixed(amountOr(d, "slayerCompleted", ""), " tasks"),
	)
	return sentence("🗡️", actor, "completed a slayer task:", textOr(d, "slayerTask", unknown), paren(stats))
}

func quest(actor string, rec event.Record) string {
	d := rec.Details
	progress := ""
	if done, ok := amount(d, "completedQuests"); ok {
		if total, ok := amount(d, "totalQuests"); ok {
			progress = done + "/" + total + " quests"
		} else {
			progress = done + " quests"
		}
	}
	return sentence("🧭", actor, "completed the quest:", textOr(d, "questName", unknown), paren(progress))
}

func clue(actor string, rec event.Record) string {
	d := rec.Details
	kind := "a clue"
	if t := text(d, "clueType"); t != "" {
		kind = "a " + t + " clue"
	}
	number := prefixed("#", amountOr(d, "numberCompleted", ""))
	return sentence("🗺️", actor, "completed", kind, paren(number), prefixed("and got: ", Items(d.Items("items"))))
}

func killCount(actor string, rec event.Record) string {
	d := rec.Details
	head := "defeated " + textOr(d, "boss", "a boss")
	if n := nonZero(d, "count"); n != "" {
		head += " (" + n + ")"
	}
	pb := ""
	if d.Bool("isPersonalBest") {
		pb = "🔥 New PB!"
	}
	return sentence("🏆", actor, head+".", pb, Party(d.Strings("party")))
}

func combatAchievement(actor string, rec event.Record) string {
	d := rec.Details
	task := textOr(d, "task", unknown)
	if tier := text(d, "justCompletedTier"); tier != "" {
		return sentence("🥇", actor, "unlocked", tier, "tier by completing:", task)
	}
	tier := text(d, "tier")
	if tier == "" {
		return sentence("🥇", actor, "completed a combat task:", task)
	}
	return sentence("🥇", actor, "completed", tier, "combat task:", task)
}

func achievementDiary(actor string, rec event.Record) string {
	d := rec.Details
	total := suffixed(amountOr(d, "total", ""), " diaries")
	return sentence("📖", actor, "finished the", text(d, "difficulty"), text(d, "area"), "Achievement Diary", paren(total))
}

func pet(actor string, rec event.Record) string {
	d := rec.Details
	dup := ""
	if d.Bool("duplicate") {
		dup = "(duplicate!)"
	}
	return sentence("🐾", actor, "got a pet:", textOr(d, "petName", "A new pet"), dup, prefixed("- ", text(d, "milestone")))
}

func speedrun(actor string, rec event.Record) string {
	d := rec.Details
	name := textOr(d, "questName", unknown)
	current := textOr(d, "currentTime", unknown)
	if d.Bool("isPersonalBest") {
		return sentence("⏱️", actor, "set a new PB in", name+":", current)
	}
	return sentence("⏱️", actor, "finished a speedrun of", name+":", current, paren(prefixed("PB: ", text(d, "personalBest"))))
}

func gamble(actor string, rec event.Record) string {
	d := rec.Details
	return sentence("🎲", actor, "reached", amountOr(d, "gambleCount", unknown), "high gambles",
		prefixed("and got: ", Items(d.Items("items"))))
}

func playerKill(actor string, rec event.Record) string {
	d := rec.Details
	head := "PK'd " + textOr(d, "victimName", "another player")
	if lvl := text(d, "victimCombatLevel"); lvl != "" {
		head += " (lvl " + lvl + ")"
	}
	return sentence("⚔️", actor, head+"!")
}

func groupStorage(actor string, rec event.Record) string {
	d := rec.Details
	moves := joinNonEmpty(" | ",
		prefixed("deposited: ", Items(d.Items("deposits"))),
		prefixed("withdrew: ", Items(d.Items("withdrawals"))),
	)
	if moves == "" {
		return sentence("🏦", actor, "updated their group storage.")
	}
	return sentence("🏦", actor, moves)
}

func grandExchange(actor string, rec event.Record) string {
	d := rec.Details
	action := verb(text(d, "status"))
	item, ok := d.Item("item")
	if !ok {
		return sentence("💱", actor, action, "an item on the GE")
	}
	return sentence("💱", actor, action, item.Name, "x"+Number(item.Quantity), "on the GE", paren(price(item)+" gp each"))
}

func trade(actor string, rec event.Record) string {
	d := rec.Details
	with := "traded with " + textOr(d, "counterparty", "another player") + "."
	exchanged := joinNonEmpty(" | ",
		prefixed("Received: ", Items(d.Items("receivedItems"))),
		prefixed("Gave: ", Items(d.Items("givenItems"))),
	)
	return sentence("🤝", actor, with, exchanged)
}

func leaguesArea(actor string, rec event.Record) string {
	d := rec.Details
	return sentence("🌍", actor, "unlocked region:", textOr(d, "area", unknown), paren(prefixed("#", text(d, "index"))))
}

func leaguesMastery(actor string, rec event.Record) string {
	d := rec.Details
	return sentence("🥋", actor, "unlocked Combat Mastery:", textOr(d, "masteryType", unknown),
		paren(prefixed("Tier ", text(d, "masteryTier"))))
}

func leaguesRelic(actor string, rec event.Record) string {
	d := rec.Details
	return sentence("🔮", actor, "unlocked", prefixed("Tier ", text(d, "tier")), "Relic:", textOr(d, "relic", unknown))
}

func leaguesTask(actor string, rec event.Record) string {
	d := rec.Details
	task := "completed a task:"
	if diff := text(d, "difficulty"); diff != "" {
		task = "completed a " + diff + " task:"
	}
	name := textOr(d, "taskName", unknown)
	if trophy := text(d, "earnedTrophy"); trophy != "" {
		return sentence("🏆", actor, task, name+", unlocking the", trophy, "trophy!")
	}
	return sentence("📝", actor, task, name, paren(prefixed("+", suffixed(positive(d, "taskPoints"), " pts"))))
}

func chat(actor string, rec event.Record) string {
	msg, ok := rec.Details.String("message")
	if !ok {
		return sentence("💬", actor, "received a chat message.")
	}
	return sentence("💬", actor, "received a chat message:", `"`+msg+`"`)
}

func externalPlugin(actor string, rec event.Record) string {
	return sentence("🔌", actor, "got a notification from", textOr(rec.Details, "sourcePlugin", "a plugin"))
}

func login(actor string, rec event.Record) string {
	world := text(rec.Details, "world")
	if world == "" && rec.World > 0 {
		world = strconv.FormatInt(rec.World, 10)
	}
	if world == "" {
		return sentence("🔑", actor, "logged in.")
	}
	return sentence("🔑", actor, "logged in to World", world)
}

func logout(actor string, _ event.Record) string {
	return sentence("🚪", actor, "logged out.")
}

func toaUnique(actor string, _ event.Record) string {
	return sentence("🟣", actor, "rolled a purple (unique) drop in Tombs of Amascut!")
}

// suffixed returns s+suffix, or "" for blank s.
func suffixed(s, suffix string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return strings.TrimSpace(s) + suffix
}
