package feedback

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/noventrax/tutor/internal/policy"
)

// Recorder is the append-only, in-process feedback log.
type Recorder struct {
	mu       sync.RWMutex
	records  []Record
	log      logrus.FieldLogger
	now      func() time.Time
	onRecord func(Record)
}

func NewRecorder(log logrus.FieldLogger) *Recorder {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Recorder{log: log, now: time.Now}
}

func (r *Recorder) SetRecordHook(hook func(Record)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRecord = hook
}

// Record appends a feedback entry stamped with the current time. It never fails.
func (r *Recorder) Record(rating Rating, comment, source string) Record {
	now := r.now().UTC()
	rec := Record{
		ID:        uuid.NewString(),
		Timestamp: now.Unix(),
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		Source:    strings.TrimSpace(source),
	}

	r.mu.Lock()
	r.records = append(r.records, rec)
	hook := r.onRecord
	r.mu.Unlock()

	origin := "page"
	if rec.Source == "" {
		origin = "chat"
	}
	redacted, _ := policy.RedactPII(rec.Comment)
	r.log.WithFields(logrus.Fields{
		"origin":  origin,
		"rating":  rec.Rating.String(),
		"comment": redacted,
		"page":    rec.Source,
	}).Info("feedback received")

	if hook != nil {
		hook(rec)
	}
	return rec
}

// List returns a copy of all records in arrival order.
func (r *Recorder) List() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
