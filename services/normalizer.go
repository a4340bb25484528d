package services

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// allowedRune ist die Whitelist der Normalisierung: A-Z, a-z, 0-9, Leerzeichen,
// Zeilenumbruch und Punkt. Alles andere (auch Umlaute, Bindestriche, Apostrophe)
// wird ersatzlos entfernt.
func allowedRune(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '\n', r == '.':
		return true
	}
	return false
}

var stripDisallowed = runes.Remove(runes.Predicate(func(r rune) bool { return !allowedRune(r) }))

// Normalize entfernt alle Zeichen außerhalb der Whitelist. Groß-/Kleinschreibung
// bleibt erhalten, Trennzeichen werden nicht zusammengefasst. Idempotent.
func Normalize(raw string) string {
	// runes.Remove liefert keinen Fehler
	out, _, _ := transform.String(stripDisallowed, raw)
	return out
}

// NormalizeField ist Normalize plus Trim, so wie Gruppe und Dateiname eines
// Manifest-Eintrags behandelt werden.
func NormalizeField(raw string) string {
	return strings.TrimSpace(Normalize(raw))
}
