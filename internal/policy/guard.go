package policy

import (
	"regexp"
	"unicode/utf8"
)

const (
	TooLongReply = "Your message is too long. Please shorten it."
	UnsafeReply  = "For safety reasons, I can't respond to that request. " +
		"Try rephrasing it as a general cybersecurity awareness question."
)

var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ddos`),
	regexp.MustCompile(`(?i)botnet`),
	regexp.MustCompile(`(?i)ransomware`),
	regexp.MustCompile(`(?i)zero[-\s]?day`),
	regexp.MustCompile(`(?i)exploit code`),
	regexp.MustCompile(`(?i)malware sample`),
	regexp.MustCompile(`(?i)payload`),
	regexp.MustCompile(`(?i)sql injection`),
	regexp.MustCompile(`(?i)\bsqli\b`),
	regexp.MustCompile(`(?i)\bbruteforce\b`),
	regexp.MustCompile(`(?i)credential stuffing`),
	regexp.MustCompile(`(?i)\bkill\b`),
	regexp.MustCompile(`(?i)suicide`),
	regexp.MustCompile(`(?i)self[-\s]?harm`),
}

// Guard holds the optional pre-classification checks. The zero value allows everything.
type Guard struct {
	MaxLength    int
	SafetyFilter bool
}

type Decision struct {
	Blocked bool
	Reason  string
	Reply   string
}

// Check runs the enabled checks against an already-trimmed, non-empty message.
func (g Guard) Check(msg string) Decision {
	if g.MaxLength > 0 && utf8.RuneCountInString(msg) > g.MaxLength {
		return Decision{Blocked: true, Reason: "too_long", Reply: TooLongReply}
	}
	if g.SafetyFilter && ContainsUnsafeContent(msg) {
		return Decision{Blocked: true, Reason: "unsafe_content", Reply: UnsafeReply}
	}
	return Decision{}
}

func ContainsUnsafeContent(text string) bool {
	for _, re := range unsafePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
