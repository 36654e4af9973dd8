package quiz

import "strings"

const (
	NetworkQuiz = "Network Security Quiz:\n1. What is a firewall?\n2. What port does HTTPS use?\n3. Explain IDS vs IPS."
	CloudQuiz   = "Cloud Security Quiz:\n1. What is the shared responsibility model?\n2. What is RBAC?\n3. What is an NSG?"
	SOCQuiz     = "SOC Quiz:\n1. What is SIEM?\n2. What is an IOC?\n3. What is alert triage?"

	ClarifyPrompt = "Which topic would you like a quiz for?"
)

type subject struct {
	keyword string
	text    string
}

// Checked in this order; "network" wins over "cloud" when both appear.
var subjects = []subject{
	{keyword: "network", text: NetworkQuiz},
	{keyword: "cloud", text: CloudQuiz},
	{keyword: "soc", text: SOCQuiz},
}

// IsRequest reports whether the lowercased message asks for a quiz.
func IsRequest(lowerMsg string) bool {
	return strings.Contains(lowerMsg, "quiz")
}

// Respond returns the canned quiz for the first subject keyword found in
// lowerMsg, or the clarifying prompt. matched is false for the latter.
func Respond(lowerMsg string) (text string, matched bool) {
	for _, s := range subjects {
		if strings.Contains(lowerMsg, s.keyword) {
			return s.text, true
		}
	}
	return ClarifyPrompt, false
}
