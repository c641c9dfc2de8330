package betting

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTeamName folds case and accents and drops club suffixes so
// "Atlético Madrid" matches "atletico madrid".
func NormalizeTeamName(name string) string {
	name = strings.ToLower(name)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	name, _, _ = transform.String(t, name)

	name = strings.Join(strings.Fields(name), " ")
	for _, suffix := range []string{" afc", " fc", " cf"} {
		name = strings.TrimSuffix(name, suffix)
	}

	return strings.TrimSpace(name)
}

// MatchesTeam reports whether either side of m contains query.
// An empty query matches everything.
func MatchesTeam(m Match, query string) bool {
	q := NormalizeTeamName(query)
	if q == "" {
		return true
	}
	return strings.Contains(NormalizeTeamName(m.Home), q) ||
		strings.Contains(NormalizeTeamName(m.Away), q)
}
