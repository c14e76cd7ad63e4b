package cost

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidcraft-ai/vidcraft/internal/model"
)

type fakeModel struct {
	resp *model.Response
	err  error
}

func (f *fakeModel) Generate(context.Context, *model.Request) (*model.Response, error) {
	return f.resp, f.err
}
func (f *fakeModel) IsAvailable() bool { return true }
func (f *fakeModel) Name() string      { return "fake" }

type tokenObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *tokenObserver) ObserveTokens(purpose string, _ int, failed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if failed {
		purpose += ":failed"
	}
	o.calls = append(o.calls, purpose)
}

func TestMeterRecordsUsage(t *testing.T) {
	obs := &tokenObserver{}
	tracker := NewTracker(obs)

	ok := Meter(&fakeModel{resp: &model.Response{Text: "[]", TokensUsed: 120}}, PurposeReasoning, tracker)
	bad := Meter(&fakeModel{err: errors.New("rate limited")}, PurposeCodegen, tracker)

	_, err := ok.Generate(context.Background(), &model.Request{Prompt: "x"})
	require.NoError(t, err)
	_, err = ok.Generate(context.Background(), &model.Request{Prompt: "y"})
	require.NoError(t, err)
	_, err = bad.Generate(context.Background(), &model.Request{Prompt: "z"})
	require.Error(t, err)

	s := tracker.Summary()
	assert.Equal(t, Usage{Requests: 2, Tokens: 240}, s.ByPurpose[PurposeReasoning])
	assert.Equal(t, Usage{Requests: 1, Failures: 1}, s.ByPurpose[PurposeCodegen])
	assert.Equal(t, 3, s.Daily.Requests)
	assert.Equal(t, 240, s.Daily.Tokens)
	assert.Equal(t, []string{"reasoning", "reasoning", "codegen:failed"}, obs.calls)

	assert.Equal(t, "fake", ok.Name())
	assert.True(t, ok.IsAvailable())
}

func TestDailyRollover(t *testing.T) {
	tracker := NewTracker(nil)
	day := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return day }
	tracker.daily = DailyStats{Date: day.Format(time.DateOnly)}

	tracker.Record(PurposeReasoning, 10, false)
	assert.Equal(t, 10, tracker.Summary().Daily.Tokens)

	day = day.Add(2 * time.Hour)
	assert.Equal(t, DailyStats{Date: "2026-03-02"}, tracker.Summary().Daily)

	tracker.Record(PurposeReasoning, 5, false)
	s := tracker.Summary()
	assert.Equal(t, DailyStats{Date: "2026-03-02", Requests: 1, Tokens: 5}, s.Daily)
	assert.Equal(t, 15, s.ByPurpose[PurposeReasoning].Tokens)
}

func TestConcurrentRecord(t *testing.T) {
	tracker := NewTracker(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Record(PurposeCodegen, 2, false)
		}()
	}
	wg.Wait()
	assert.Equal(t, Usage{Requests: 50, Tokens: 100}, tracker.Summary().ByPurpose[PurposeCodegen])
}
