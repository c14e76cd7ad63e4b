// Package cost tracks model token usage for transparency.
package cost

import (
	"context"
	"sync"
	"time"

	"github.com/vidcraft-ai/vidcraft/internal/model"
)

// Purposes under which model calls are accounted.
const (
	PurposeReasoning = "reasoning"
	PurposeCodegen   = "codegen"
)

// Observer receives every accounted call.
type Observer interface {
	ObserveTokens(purpose string, tokens int, failed bool)
}

// Usage is the token usage of one purpose.
type Usage struct {
	Requests int `json:"requests"`
	Failures int `json:"failures"`
	Tokens   int `json:"tokens"`
}

// DailyStats tracks usage for a single day.
type DailyStats struct {
	Date     string `json:"date"`
	Requests int    `json:"requests"`
	Tokens   int    `json:"tokens"`
}

// Summary is a point-in-time view of the tracker.
type Summary struct {
	Daily     DailyStats       `json:"daily"`
	ByPurpose map[string]Usage `json:"by_purpose"`
}

// Tracker monitors model usage. It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	now       func() time.Time
	daily     DailyStats
	byPurpose map[string]*Usage
	observer  Observer
}

// NewTracker creates a new tracker. observer may be nil.
func NewTracker(observer Observer) *Tracker {
	t := &Tracker{
		now:       time.Now,
		byPurpose: make(map[string]*Usage),
		observer:  observer,
	}
	t.daily.Date = t.today()
	return t
}

func (t *Tracker) today() string {
	return t.now().Format(time.DateOnly)
}

// Record records one model call.
func (t *Tracker) Record(purpose string, tokens int, failed bool) {
	t.mu.Lock()
	if d := t.today(); d != t.daily.Date {
		t.daily = DailyStats{Date: d}
	}
	t.daily.Requests++
	t.daily.Tokens += tokens

	u, ok := t.byPurpose[purpose]
	if !ok {
		u = &Usage{}
		t.byPurpose[purpose] = u
	}
	u.Requests++
	u.Tokens += tokens
	if failed {
		u.Failures++
	}
	t.mu.Unlock()

	if t.observer != nil {
		t.observer.ObserveTokens(purpose, tokens, failed)
	}
}

// Summary returns a copy of the current usage.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{Daily: t.daily, ByPurpose: make(map[string]Usage, len(t.byPurpose))}
	if s.Daily.Date != t.today() {
		s.Daily = DailyStats{Date: t.today()}
	}
	for k, u := range t.byPurpose {
		s.ByPurpose[k] = *u
	}
	return s
}

// Meter wraps m so every Generate call is recorded under purpose.
func Meter(m model.Model, purpose string, t *Tracker) model.Model {
	return &metered{Model: m, purpose: purpose, tracker: t}
}

type metered struct {
	model.Model
	purpose string
	tracker *Tracker
}

func (m *metered) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	resp, err := m.Model.Generate(ctx, req)
	tokens := 0
	if resp != nil {
		tokens = resp.TokensUsed
	}
	m.tracker.Record(m.purpose, tokens, err != nil)
	return resp, err
}
