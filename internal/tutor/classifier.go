package tutor

import (
	"strings"

	"github.com/noventrax/tutor/internal/feedback"
	"github.com/noventrax/tutor/internal/modes"
	"github.com/noventrax/tutor/internal/quiz"
)

// Kind is the category a chat message is routed to.
type Kind string

const (
	KindEmpty    Kind = "empty"
	KindBlocked  Kind = "blocked"
	KindFeedback Kind = "feedback"
	KindTrack    Kind = "track"
	KindTopic    Kind = "topic"
	KindQuiz     Kind = "quiz"
	KindChat     Kind = "chat"
)

const (
	feedbackPrefix = "feedback:"
	ratePrefix     = "rate:"
)

// Command is the classifier's verdict for one message. Only the fields for
// Kind are populated.
type Command struct {
	Kind    Kind
	Message string

	Rating  feedback.Rating
	Comment string

	Mode modes.Entry

	QuizText string
}

type rule struct {
	kind  Kind
	match func(msg, lower string, set modes.Set) (Command, bool)
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{kind: KindFeedback, match: matchFeedback},
	{kind: KindTrack, match: matchTrack},
	{kind: KindTopic, match: matchTopic},
	{kind: KindQuiz, match: matchQuiz},
}

// Classify decides how a message is handled. msg must already be trimmed and
// non-empty; anything no rule claims is plain chat.
func Classify(msg string, set modes.Set) Command {
	lower := strings.ToLower(msg)
	for _, r := range rules {
		if cmd, ok := r.match(msg, lower, set); ok {
			cmd.Kind = r.kind
			cmd.Message = msg
			return cmd
		}
	}
	return Command{Kind: KindChat, Message: msg}
}

// matchFeedback handles "feedback: <comment>" and "rate: <n> - <comment>".
// A rating that is not an integer is dropped, never reported.
func matchFeedback(msg, lower string, _ modes.Set) (Command, bool) {
	isRate := strings.HasPrefix(lower, ratePrefix)
	isFeedback := strings.HasPrefix(lower, feedbackPrefix)
	if !isRate && !isFeedback {
		return Command{}, false
	}

	cmd := Command{Comment: msg}
	_, tail, _ := strings.Cut(msg, ":")
	tail = strings.TrimSpace(tail)

	if isRate {
		left, right, found := strings.Cut(tail, "-")
		cmd.Rating = feedback.ParseRating(left)
		cmd.Comment = tail
		if found {
			cmd.Comment = strings.TrimSpace(right)
		}
	}
	if isFeedback {
		cmd.Comment = tail
	}
	return cmd, true
}

func matchTrack(_, lower string, set modes.Set) (Command, bool) {
	e, ok := set.Tracks.Match(lower)
	return Command{Mode: e}, ok
}

func matchTopic(_, lower string, set modes.Set) (Command, bool) {
	e, ok := set.Topics.Match(lower)
	return Command{Mode: e}, ok
}

func matchQuiz(_, lower string, _ modes.Set) (Command, bool) {
	if !quiz.IsRequest(lower) {
		return Command{}, false
	}
	text, _ := quiz.Respond(lower)
	return Command{QuizText: text}, true
}
