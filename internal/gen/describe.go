package gen

import (
	"strings"
	"unicode"
)

// knownDescriptions is checked in order, first for exact and then for
// substring matches.
var knownDescriptions = []struct {
	name string
	desc string
}{
	{"tick", "Game tick when event occurred"},
	{"user_name", "Player name"},
	{"user_steamid", "Player Steam ID"},
	{"attacker_name", "Attacker name"},
	{"attacker_steamid", "Attacker Steam ID"},
	{"victim_name", "Victim name"},
	{"victim_steamid", "Victim Steam ID"},
	{"steamid", "Player Steam ID"},
	{"name", "Player name"},
	{"team_number", "Team number"},
	{"X", "X coordinate"},
	{"Y", "Y coordinate"},
	{"Z", "Z coordinate"},
	{"health", "Player health"},
	{"armor", "Player armor"},
	{"balance", "Player money balance"},
	{"weapon", "Weapon name"},
	{"item", "Item name"},
	{"damage", "Damage amount"},
	{"distance", "Distance"},
	{"headshot", "Whether it was a headshot"},
	{"flash_duration", "Flash duration in seconds"},
	{"entity_id", "Entity ID"},
	{"defindex", "Item definition index"},
	{"paint_index", "Paint/skin index"},
	{"paint_seed", "Paint seed for pattern"},
	{"paint_wear", "Wear value of the skin"},
	{"custom_name", "Custom name tag"},
}

// Describe returns a human description for a column name.
func Describe(name string) string {
	for _, d := range knownDescriptions {
		if d.name == name {
			return d.desc
		}
	}

	lower := strings.ToLower(name)
	for _, d := range knownDescriptions {
		if strings.Contains(lower, strings.ToLower(d.name)) {
			return d.desc
		}
	}

	spaced := strings.ReplaceAll(name, "_", " ")

	switch {
	case strings.Contains(lower, "time"), strings.Contains(lower, "id"):
		return titleCase(spaced)
	case strings.Contains(lower, "is_"):
		return "Whether " + strings.ReplaceAll(strings.ReplaceAll(name, "is_", ""), "_", " ")
	case strings.Contains(lower, "has_"):
		return "Whether player has " + strings.ReplaceAll(strings.ReplaceAll(name, "has_", ""), "_", " ")
	case strings.Contains(lower, "num_"), strings.Contains(lower, "count"):
		return "Number of " + strings.ReplaceAll(strings.ReplaceAll(name, "num_", ""), "_", " ")
	default:
		return titleCase(spaced)
	}
}

// titleCase upper-cases the first letter of every word and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder

	prevLetter := false

	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}

			prevLetter = true

			continue
		}

		prevLetter = false

		b.WriteRune(r)
	}

	return b.String()
}
