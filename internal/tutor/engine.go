package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/noventrax/tutor/internal/completion"
	"github.com/noventrax/tutor/internal/feedback"
	"github.com/noventrax/tutor/internal/modes"
	"github.com/noventrax/tutor/internal/observability"
	"github.com/noventrax/tutor/internal/policy"
	"github.com/noventrax/tutor/internal/transcript"
)

const (
	BasePrompt = "You are the Noventrax Cyberskills Assistant — a friendly, patient, and highly knowledgeable cybersecurity tutor.\n" +
		"Your mission is to help beginners and intermediate learners understand cybersecurity concepts with clarity, confidence, and practical examples."

	EmptyReply       = "Please type a message so I can help."
	FeedbackAckReply = "✅ Thanks! Your feedback has been recorded."
)

// Completer produces the assistant's next turn for a transcript.
type Completer interface {
	Complete(ctx context.Context, turns []transcript.Turn) (string, error)
}

// Reply is the outcome of one chat message. Err is set only for plain chat
// whose completion failed; Text is then empty.
type Reply struct {
	Kind Kind
	Text string
	Err  error
}

// Options carries the optional collaborators of an Engine.
type Options struct {
	Modes   modes.Set
	Guard   policy.Guard
	Log     logrus.FieldLogger
	Metrics *observability.Metrics
}

// Engine routes chat messages. It owns the process-wide transcript and
// feedback log; both are safe for concurrent use.
type Engine struct {
	transcript *transcript.Store
	feedback   *feedback.Recorder
	completer  Completer
	modes      modes.Set
	guard      policy.Guard
	log        logrus.FieldLogger
	metrics    *observability.Metrics
}

func NewEngine(store *transcript.Store, recorder *feedback.Recorder, completer Completer, opts Options) (*Engine, error) {
	if store == nil {
		return nil, errors.New("tutor: transcript store must not be nil")
	}
	if recorder == nil {
		return nil, errors.New("tutor: feedback recorder must not be nil")
	}
	if completer == nil {
		return nil, errors.New("tutor: completer must not be nil")
	}
	if opts.Modes.Tracks == nil {
		opts.Modes.Tracks = modes.DefaultTracks()
	}
	if opts.Modes.Topics == nil {
		opts.Modes.Topics = modes.DefaultTopics()
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		opts.Log = l
	}
	return &Engine{
		transcript: store,
		feedback:   recorder,
		completer:  completer,
		modes:      opts.Modes,
		guard:      opts.Guard,
		log:        opts.Log,
		metrics:    opts.Metrics,
	}, nil
}

// Handle classifies one raw message and carries out its effect.
func (e *Engine) Handle(ctx context.Context, raw string) Reply {
	started := time.Now()
	reply := e.route(ctx, strings.TrimSpace(raw))
	if e.metrics != nil {
		e.metrics.ObserveRoute(string(reply.Kind), time.Since(started))
		e.metrics.TranscriptTurns.Set(float64(e.transcript.Len()))
	}
	return reply
}

func (e *Engine) route(ctx context.Context, msg string) Reply {
	if msg == "" {
		return Reply{Kind: KindEmpty, Text: EmptyReply}
	}
	if d := e.guard.Check(msg); d.Blocked {
		e.log.WithField("reason", d.Reason).Info("message blocked by guard")
		return Reply{Kind: KindBlocked, Text: d.Reply}
	}
	return e.dispatch(ctx, Classify(msg, e.modes))
}

func (e *Engine) dispatch(ctx context.Context, cmd Command) Reply {
	switch cmd.Kind {
	case KindFeedback:
		e.feedback.Record(cmd.Rating, cmd.Comment, "")
		return Reply{Kind: cmd.Kind, Text: FeedbackAckReply}
	case KindTrack:
		n := e.transcript.Append(transcript.System(cmd.Mode.Directive))
		e.log.WithFields(logrus.Fields{"track": cmd.Mode.Trigger, "transcript_len": n}).Info("track activated")
		return Reply{Kind: cmd.Kind, Text: fmt.Sprintf("%s learning track activated.", cmd.Mode.Title())}
	case KindTopic:
		n := e.transcript.Append(transcript.System(cmd.Mode.Directive))
		e.log.WithFields(logrus.Fields{"topic": cmd.Mode.Trigger, "transcript_len": n}).Info("topic activated")
		return Reply{Kind: cmd.Kind, Text: fmt.Sprintf("%s module activated. Let's begin.", cmd.Mode.Title())}
	case KindQuiz:
		return Reply{Kind: cmd.Kind, Text: cmd.QuizText}
	default:
		return e.chat(ctx, cmd.Message)
	}
}

// chat appends the user turn before calling the provider, so a failed call
// leaves an unanswered user turn in the transcript. The store lock is not
// held while the provider works.
func (e *Engine) chat(ctx context.Context, msg string) Reply {
	requestID := uuid.NewString()
	turns := e.transcript.AppendSnapshot(transcript.User(msg))

	started := time.Now()
	text, err := e.completer.Complete(ctx, turns)
	elapsed := time.Since(started)
	if err != nil {
		e.observeFailure(requestID, len(turns), err)
		return Reply{Kind: KindChat, Err: err}
	}
	if e.metrics != nil {
		e.metrics.ObserveCompletion(elapsed)
	}

	n := e.transcript.Append(transcript.Assistant(text))
	e.log.WithFields(logrus.Fields{
		"request_id":     requestID,
		"transcript_len": n,
		"duration_ms":    elapsed.Milliseconds(),
	}).Debug("completion succeeded")
	return Reply{Kind: KindChat, Text: text}
}

func (e *Engine) observeFailure(requestID string, transcriptLen int, err error) {
	kind := "unknown"
	retryable := false
	var cerr *completion.Error
	if errors.As(err, &cerr) {
		kind = string(cerr.Kind)
		retryable = cerr.Retryable
	}

	entry := e.log.WithFields(logrus.Fields{
		"request_id":     requestID,
		"kind":           kind,
		"retryable":      retryable,
		"transcript_len": transcriptLen,
	}).WithError(err)
	if kind == string(completion.KindConfiguration) {
		entry.Warn("completion not configured")
	} else {
		entry.Error("completion failed")
	}

	if e.metrics != nil {
		e.metrics.ObserveCompletionError(kind, retryable)
	}
}

// RecordFeedback stores feedback submitted outside the chat, e.g. from a page form.
func (e *Engine) RecordFeedback(rating feedback.Rating, comment, source string) feedback.Record {
	return e.feedback.Record(rating, comment, source)
}

func (e *Engine) Feedback() []feedback.Record { return e.feedback.List() }

// Reset returns the transcript to its single base system turn.
func (e *Engine) Reset() {
	e.transcript.Reset()
	e.log.Info("conversation reset")
	if e.metrics != nil {
		e.metrics.TranscriptTurns.Set(float64(e.transcript.Len()))
	}
}

func (e *Engine) Transcript() []transcript.Turn { return e.transcript.Snapshot() }

func (e *Engine) Modes() modes.Set { return e.modes }
