// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package translate

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

const goodTitle = "基于注意力机制的序列转换模型"
const goodAbstract = "我们提出了一种完全基于注意力机制的新型网络架构，不再依赖循环或卷积结构，在翻译质量上显著优于现有模型。"

// fakeBackend returns canned results, optionally failing the first n calls
// per paper title.
type fakeBackend struct {
	mu        sync.Mutex
	calls     map[string]int
	failFirst int
	result    Result
	err       error
	delay     func() time.Duration
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:  make(map[string]int),
		result: Result{Title: goodTitle, Abstract: goodAbstract},
	}
}

func (b *fakeBackend) Translate(ctx context.Context, title, abstract string) (Result, error) {
	b.mu.Lock()
	b.calls[title]++
	n := b.calls[title]
	b.mu.Unlock()

	if b.delay != nil {
		time.Sleep(b.delay())
	}
	if b.err != nil {
		return Result{}, b.err
	}
	if n <= b.failFirst {
		return Result{}, fmt.Errorf("transient failure %d", n)
	}
	return b.result, nil
}

// countingStore counts Put calls.
type countingStore struct {
	puts atomic.Int64
	err  error
}

func (s *countingStore) Put(p *types.Paper) error {
	s.puts.Add(1)
	return s.err
}

func testOrchestrator(backend Backend, st Store) *Orchestrator {
	o := New(backend, st, types.TranslationConfig{
		MaxRetries: 2,
		Workers:    4,
		RetryDelay: time.Millisecond,
	}, nil)
	o.sleep = func(time.Duration) {}
	return o
}

func untranslated(id string) *types.Paper {
	return &types.Paper{
		ID:       id,
		Title:    "Paper " + id,
		Abstract: "An abstract long enough to be plausible for " + id,
	}
}

func TestTranslateBatchSuccess(t *testing.T) {
	backend := newFakeBackend()
	st := &countingStore{}

	papers := []*types.Paper{untranslated("1"), untranslated("2"), untranslated("3")}
	outcome := testOrchestrator(backend, st).TranslateBatch(context.Background(), papers, false)

	if outcome.Succeeded != 3 || outcome.Failed != 0 || outcome.Skipped != 0 {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.Total() != 3 {
		t.Errorf("total = %d, want 3", outcome.Total())
	}
	for _, p := range papers {
		if !p.Translated() {
			t.Errorf("paper %s not translated", p.ID)
		}
		if p.TranslatedAt == nil {
			t.Errorf("paper %s missing translated_at", p.ID)
		}
	}
	if st.puts.Load() != 3 {
		t.Errorf("puts = %d, want 3", st.puts.Load())
	}
}

func TestTranslateBatchSkipsTranslated(t *testing.T) {
	backend := newFakeBackend()
	st := &countingStore{}

	done := untranslated("done")
	done.SetTranslation(goodTitle, goodAbstract)
	papers := []*types.Paper{done, untranslated("new")}

	outcome := testOrchestrator(backend, st).TranslateBatch(context.Background(), papers, false)
	if outcome.Succeeded != 1 || outcome.Skipped != 1 {
		t.Errorf("outcome = %+v", outcome)
	}

	backend.mu.Lock()
	calls := backend.calls["Paper done"]
	backend.mu.Unlock()
	if calls != 0 {
		t.Errorf("translated paper was submitted %d time(s)", calls)
	}
}

func TestTranslateBatchForceResubmits(t *testing.T) {
	backend := newFakeBackend()
	st := &countingStore{}

	done := untranslated("done")
	done.SetTranslation("旧标题翻译", "这是一段旧的翻译摘要文本，内容足够长以通过校验。")

	outcome := testOrchestrator(backend, st).TranslateBatch(
		context.Background(), []*types.Paper{done}, true)
	if outcome.Succeeded != 1 || outcome.Skipped != 0 {
		t.Errorf("outcome = %+v", outcome)
	}
	if done.TranslatedTitle != goodTitle {
		t.Errorf("title = %q, want refreshed translation", done.TranslatedTitle)
	}
}

func TestTranslateRetriesThenSucceeds(t *testing.T) {
	backend := newFakeBackend()
	backend.failFirst = 2
	st := &countingStore{}

	outcome := testOrchestrator(backend, st).TranslateBatch(
		context.Background(), []*types.Paper{untranslated("r")}, false)
	if outcome.Succeeded != 1 {
		t.Errorf("outcome = %+v", outcome)
	}

	backend.mu.Lock()
	calls := backend.calls["Paper r"]
	backend.mu.Unlock()
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestTranslateExhaustsRetries(t *testing.T) {
	backend := newFakeBackend()
	backend.err = fmt.Errorf("permanent failure")
	st := &countingStore{}

	p := untranslated("x")
	outcome := testOrchestrator(backend, st).TranslateBatch(
		context.Background(), []*types.Paper{p}, false)

	if outcome.Failed != 1 || outcome.Succeeded != 0 {
		t.Errorf("outcome = %+v", outcome)
	}
	if !outcome.HasFailures() {
		t.Error("expected HasFailures")
	}
	if p.Translated() {
		t.Error("failed paper must stay untranslated")
	}
	if st.puts.Load() != 0 {
		t.Errorf("puts = %d, want 0", st.puts.Load())
	}

	// MaxRetries=2 means three attempts total.
	backend.mu.Lock()
	calls := backend.calls["Paper x"]
	backend.mu.Unlock()
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestTranslateRejectsInvalidThenRetries(t *testing.T) {
	backend := newFakeBackend()
	// First result echoes the source text back, which validation rejects.
	backend.result = Result{Title: goodTitle, Abstract: goodAbstract}
	st := &countingStore{}

	p := untranslated("v")
	echo := &echoBackend{inner: backend, echoFirst: 1}
	outcome := testOrchestrator(echo, st).TranslateBatch(
		context.Background(), []*types.Paper{p}, false)
	if outcome.Succeeded != 1 {
		t.Errorf("outcome = %+v", outcome)
	}
}

// echoBackend returns the source text for the first echoFirst calls.
type echoBackend struct {
	inner     Backend
	mu        sync.Mutex
	calls     int
	echoFirst int
}

func (b *echoBackend) Translate(ctx context.Context, title, abstract string) (Result, error) {
	b.mu.Lock()
	b.calls++
	n := b.calls
	b.mu.Unlock()
	if n <= b.echoFirst {
		return Result{Title: title, Abstract: abstract}, nil
	}
	return b.inner.Translate(ctx, title, abstract)
}

func TestTranslateBatchBoundedConcurrency(t *testing.T) {
	backend := newFakeBackend()
	backend.delay = func() time.Duration {
		return time.Duration(rand.Intn(3)) * time.Millisecond
	}
	st := &countingStore{}

	papers := make([]*types.Paper, 50)
	for i := range papers {
		papers[i] = untranslated(fmt.Sprintf("p%02d", i))
	}

	o := New(backend, st, types.TranslationConfig{
		MaxRetries: 1,
		Workers:    8,
		RetryDelay: time.Millisecond,
	}, nil)
	o.sleep = func(time.Duration) {}

	outcome := o.TranslateBatch(context.Background(), papers, false)
	if outcome.Succeeded != 50 || outcome.Total() != 50 {
		t.Errorf("outcome = %+v", outcome)
	}
	if st.puts.Load() != 50 {
		t.Errorf("puts = %d, want 50", st.puts.Load())
	}
}

func TestTranslateStorePutFailure(t *testing.T) {
	backend := newFakeBackend()
	st := &countingStore{err: fmt.Errorf("disk full")}

	outcome := testOrchestrator(backend, st).TranslateBatch(
		context.Background(), []*types.Paper{untranslated("s")}, false)
	if outcome.Failed != 1 {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestValidateTranslation(t *testing.T) {
	srcTitle := "A Study of Digest Pipelines"
	srcAbstract := "We study how digest pipelines behave under concurrent load and retries."

	tests := []struct {
		name            string
		title, abstract string
		wantErr         bool
	}{
		{"valid", goodTitle, goodAbstract, false},
		{"title too short", "好", goodAbstract, true},
		{"abstract too short", goodTitle, "太短", true},
		{"title untranslated", "Still English Title Here", goodAbstract, true},
		{"abstract untranslated", goodTitle, "This abstract clearly came back in the original source language entirely.", true},
		{"title identical", srcTitle, goodAbstract, true},
		{"abstract identical", goodTitle, srcAbstract, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTranslation(srcTitle, srcAbstract, tt.title, tt.abstract)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAsciiLetterRatio(t *testing.T) {
	if r := asciiLetterRatio("abcd"); r != 1.0 {
		t.Errorf("ratio = %f, want 1.0", r)
	}
	if r := asciiLetterRatio("中文文本"); r != 0 {
		t.Errorf("ratio = %f, want 0", r)
	}
	if r := asciiLetterRatio(""); r != 0 {
		t.Errorf("ratio = %f, want 0", r)
	}
	// Mixed text with technical terms stays under the abstract ceiling.
	mixed := "我们使用 GPU 训练模型，基准为 BERT 与 Transformer 架构的对比实验结果。"
	if r := asciiLetterRatio(mixed); r >= 0.5 {
		t.Errorf("ratio = %f, want < 0.5", r)
	}
}
