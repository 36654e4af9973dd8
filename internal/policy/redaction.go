package policy

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`)
	ipv4Pattern  = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`)
	phonePattern = regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`)
)

type redaction struct {
	pattern *regexp.Regexp
	marker  string
}

// Cards before IPs and phones so long digit runs are not split; IPs before
// phones because dotted quads otherwise look like phone fragments.
var redactions = []redaction{
	{pattern: emailPattern, marker: "[REDACTED_EMAIL]"},
	{pattern: cardPattern, marker: "[REDACTED_CARD]"},
	{pattern: ipv4Pattern, marker: "[REDACTED_IP]"},
	{pattern: phonePattern, marker: "[REDACTED_PHONE]"},
}

// RedactPII masks common high-risk PII patterns before text reaches the logs.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, r := range redactions {
		next := r.pattern.ReplaceAllString(out, r.marker)
		changed = changed || next != out
		out = next
	}
	return out, changed
}
