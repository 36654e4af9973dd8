package modes

import (
	"strings"
	"unicode"
)

// Entry maps a lowercase trigger phrase to the system directive it injects.
type Entry struct {
	Trigger   string `yaml:"trigger" json:"trigger"`
	Directive string `yaml:"directive" json:"directive"`
}

// Title renders the trigger the way confirmations name it ("network security" -> "Network Security").
func (e Entry) Title() string {
	return TitleCase(e.Trigger)
}

// Registry is an immutable, ordered set of entries. Lookup order is
// declaration order, so the first entry whose trigger occurs in the message wins.
type Registry struct {
	entries []Entry
}

func NewRegistry(entries ...Entry) *Registry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.Trigger = strings.ToLower(strings.TrimSpace(e.Trigger))
		if e.Trigger == "" {
			continue
		}
		out = append(out, e)
	}
	return &Registry{entries: out}
}

// Match returns the first entry whose trigger is a substring of lowerMsg.
func (r *Registry) Match(lowerMsg string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	for _, e := range r.entries {
		if strings.Contains(lowerMsg, e.Trigger) {
			return e, true
		}
	}
	return Entry{}, false
}

func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// TitleCase upper-cases the first letter of every run of letters and lower-cases the rest.
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) && !prevLetter:
			b.WriteRune(unicode.ToUpper(r))
			prevLetter = true
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
