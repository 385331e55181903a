package scoring

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/koopa0/lessonbank/internal/lesson"
)

func TestCompute(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   lesson.ScoreInput
		want float64
	}{
		{
			name: "fresh unused lesson scores recency only",
			in:   lesson.ScoreInput{CreatedAt: now},
			want: 0.2,
		},
		{
			name: "old unused lesson scores zero",
			in:   lesson.ScoreInput{CreatedAt: now.AddDate(-2, 0, 0)},
			want: 0,
		},
		{
			name: "saturated lesson scores one",
			in: lesson.ScoreInput{
				CreatedAt:    now,
				UsageCount:   1000,
				HelpfulCount: 1000,
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Compute(tt.in, now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Compute = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompute_Bounds(t *testing.T) {
	t.Parallel()

	now := time.Now()
	inputs := []lesson.ScoreInput{
		{CreatedAt: now, UsageCount: 1 << 40, HelpfulCount: 1 << 40},
		{CreatedAt: now.AddDate(-10, 0, 0)},
		{CreatedAt: now.Add(time.Hour)}, // clock skew: created in the future
	}
	for _, in := range inputs {
		got := Compute(in, now)
		if got < 0 || got > 1 {
			t.Errorf("Compute(%+v) = %v, out of [0,1]", in, got)
		}
	}
}

func TestCompute_ReferenceValues(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	// Ten uses, all helpful, ten days old:
	// 0.4*ln(11)/ln(1001) + 0.4*1.0 + 0.2*(1-10/365) = 0.733
	active := lesson.ScoreInput{
		CreatedAt:    now.AddDate(0, 0, -10),
		UsageCount:   10,
		HelpfulCount: 10,
	}
	// Three helpful of five uses, past the recency horizon:
	// 0.4*ln(6)/ln(1001) + 0.4*0.6 + 0 = 0.344
	stale := lesson.ScoreInput{
		CreatedAt:    now.AddDate(0, 0, -400),
		UsageCount:   5,
		HelpfulCount: 3,
	}

	gotActive := Compute(active, now)
	gotStale := Compute(stale, now)

	if math.Abs(gotActive-0.733) > 0.005 {
		t.Errorf("Compute(active) = %v, want ~0.733", gotActive)
	}
	if math.Abs(gotStale-0.344) > 0.005 {
		t.Errorf("Compute(stale) = %v, want ~0.344", gotStale)
	}
	if gotStale >= gotActive {
		t.Errorf("stale score %v not below active score %v", gotStale, gotActive)
	}
}

func TestCompute_Monotonicity(t *testing.T) {
	t.Parallel()

	now := time.Now()
	base := lesson.ScoreInput{CreatedAt: now.AddDate(0, -1, 0)}

	// More usage at the same helpful rate raises the score.
	low := base
	low.UsageCount = 10
	high := base
	high.UsageCount = 100
	if Compute(low, now) >= Compute(high, now) {
		t.Error("score did not grow with usage")
	}

	// More helpful feedback at the same usage raises the score.
	unhelpful := base
	unhelpful.UsageCount = 50
	helpful := unhelpful
	helpful.HelpfulCount = 40
	if Compute(unhelpful, now) >= Compute(helpful, now) {
		t.Error("score did not grow with helpful feedback")
	}

	// A newer lesson outranks an identical older one.
	older := base
	older.CreatedAt = now.AddDate(0, -6, 0)
	if Compute(older, now) >= Compute(base, now) {
		t.Error("score did not decay with age")
	}
}

// pagedStore serves score inputs in id order and records writes.
type pagedStore struct {
	inputs []lesson.ScoreInput

	mu     sync.Mutex
	writes map[uuid.UUID]float64
}

func (p *pagedStore) ScorePage(_ context.Context, after uuid.UUID, limit int) ([]lesson.ScoreInput, error) {
	start := 0
	if after != uuid.Nil {
		for i, in := range p.inputs {
			if in.ID == after {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(p.inputs) {
		end = len(p.inputs)
	}
	return p.inputs[start:end], nil
}

func (p *pagedStore) SetRelevanceScore(_ context.Context, id uuid.UUID, score float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writes == nil {
		p.writes = make(map[uuid.UUID]float64)
	}
	p.writes[id] = score
	return nil
}

func (p *pagedStore) writeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.writes)
}

func makeInputs(n int) []lesson.ScoreInput {
	now := time.Now()
	inputs := make([]lesson.ScoreInput, n)
	for i := range inputs {
		inputs[i] = lesson.ScoreInput{
			ID:         uuid.New(),
			CreatedAt:  now.AddDate(0, 0, -i),
			UsageCount: int64(i),
		}
	}
	return inputs
}

func TestRecomputeAll_PagesThroughEverything(t *testing.T) {
	t.Parallel()

	store := &pagedStore{inputs: makeInputs(5)}
	scorer := NewScorer(store, nil)

	report, err := scorer.RecomputeAll(context.Background(), 2, false)
	if err != nil {
		t.Fatalf("RecomputeAll failed: %v", err)
	}

	if report.Processed != 5 || report.Updated != 5 {
		t.Errorf("report = %+v, want all 5 processed and written", report)
	}
	if len(store.writes) != 5 {
		t.Errorf("wrote %d scores, want 5", len(store.writes))
	}
	for id, score := range store.writes {
		if score < 0 || score > 1 {
			t.Errorf("score for %s = %v, out of [0,1]", id, score)
		}
	}
}

func TestRecomputeAll_DryRun(t *testing.T) {
	t.Parallel()

	inputs := makeInputs(3)
	// One stored score already matches what Compute will produce.
	inputs[0].RelevanceScore = Compute(inputs[0], time.Now())

	store := &pagedStore{inputs: inputs}
	scorer := NewScorer(store, nil)

	report, err := scorer.RecomputeAll(context.Background(), 10, true)
	if err != nil {
		t.Fatalf("RecomputeAll failed: %v", err)
	}

	if len(store.writes) != 0 {
		t.Errorf("dry run wrote %d scores, want 0", len(store.writes))
	}
	if report.Processed != 3 {
		t.Errorf("processed = %d, want 3", report.Processed)
	}
	if report.Updated != 2 {
		t.Errorf("updated = %d, want only the 2 lessons whose score moves", report.Updated)
	}
}

func TestRecomputeAll_EmptyTable(t *testing.T) {
	t.Parallel()

	scorer := NewScorer(&pagedStore{}, nil)
	report, err := scorer.RecomputeAll(context.Background(), 100, false)
	if err != nil {
		t.Fatalf("RecomputeAll failed: %v", err)
	}
	if report.Processed != 0 || report.Updated != 0 {
		t.Errorf("report = %+v, want zero work", report)
	}
}
