package todo

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxTextLength is the longest item text accepted, in runes.
const MaxTextLength = 512

// PreferencesKey identifies the persisted preferences row.
const PreferencesKey = "user_state"

// Item is a single to-do entry.
type Item struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

// Preferences is the persisted per-user view state.
type Preferences struct {
	HideDone bool `json:"hide_done"`
}

// Visible reports whether the item is shown when hideDone is set.
func (it Item) Visible(hideDone bool) bool {
	return !hideDone || !it.Done
}

// NormalizeText trims surrounding whitespace and converts s to NFC so that
// visually identical texts are stored identically.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ValidateText normalizes s and checks it is acceptable as item text.
// Returns the normalized text, or an error wrapping ErrValidation.
func ValidateText(s string) (string, error) {
	text := NormalizeText(s)
	if text == "" {
		return "", Validationf("text must not be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return "", Validationf("text is %d characters, limit is %d", n, MaxTextLength)
	}
	return text, nil
}

// Filter returns the items visible under hideDone, preserving order.
// The result is never nil.
func Filter(items []Item, hideDone bool) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Visible(hideDone) {
			out = append(out, it)
		}
	}
	return out
}
