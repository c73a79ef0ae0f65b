package caption

import "dink-feed/event"

// Anomalies lists template selectors that were set together on rec. Format
// resolves each pair by the first field; callers may log the rest.
func Anomalies(rec event.Record) []string {
	d := rec.Details
	var out []string
	switch rec.Kind {
	case event.KindCombatAchievement:
		if text(d, "justCompletedTier") != "" && text(d, "tier") != "" {
			out = append(out, "justCompletedTier and tier both set; rendered as tier unlock")
		}
	case event.KindSpeedrun:
		if d.Bool("isPersonalBest") && text(d, "personalBest") != "" {
			out = append(out, "isPersonalBest and personalBest both set; rendered as new PB")
		}
	case event.KindLeaguesTask:
		if text(d, "earnedTrophy") != "" && d.Has("taskPoints") {
			out = append(out, "earnedTrophy and taskPoints both set; rendered as trophy unlock")
		}
	}
	return out
}
