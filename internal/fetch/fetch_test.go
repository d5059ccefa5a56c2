// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// fakeSource returns canned records per category.
type fakeSource struct {
	records map[string][]RawRecord
	err     error
	calls   int
}

func (f *fakeSource) Fetch(ctx context.Context, category string, cap int) ([]RawRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records[category], nil
}

// fakeStore keeps papers in a map and counts writes.
type fakeStore struct {
	papers    map[string]*types.Paper
	puts      int
	summaries map[string]map[string][]*types.Paper
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		papers:    make(map[string]*types.Paper),
		summaries: make(map[string]map[string][]*types.Paper),
	}
}

func (f *fakeStore) Exists(id string) (bool, error) {
	_, ok := f.papers[id]
	return ok, nil
}

func (f *fakeStore) Get(id string) (*types.Paper, error) {
	return f.papers[id], nil
}

func (f *fakeStore) Put(p *types.Paper) error {
	f.puts++
	f.papers[p.ID] = p
	return nil
}

func (f *fakeStore) PutSummary(date string, byCat map[string][]*types.Paper) error {
	f.summaries[date] = byCat
	return nil
}

// fixedNow is a Thursday, so the default two-day lookback applies and
// the cutoff is Tuesday 18:00 UTC.
var fixedNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func testPipeline(source Source, st Store) *Pipeline {
	cfg := types.FetchConfig{
		Categories:        []string{"cs.AI"},
		MaxResults:        50,
		MirrorURLTemplate: "https://hjfy.top/arxiv/{arxiv_id}",
	}
	p := NewPipeline(source, st, cfg, nil)
	p.now = func() time.Time { return fixedNow }
	p.sleep = func(time.Duration) {}
	return p
}

func rawAt(id string, published time.Time, categories ...string) RawRecord {
	if len(categories) == 0 {
		categories = []string{"cs.AI"}
	}
	return RawRecord{
		ID:         id,
		Title:      "Paper " + id,
		Authors:    []string{"Author"},
		Abstract:   "Abstract for " + id,
		Published:  published.Format(time.RFC3339),
		Categories: categories,
		URL:        "http://arxiv.org/abs/" + id,
	}
}

func TestCutoffWeekdays(t *testing.T) {
	p := testPipeline(&fakeSource{}, newFakeStore())

	tests := []struct {
		now  time.Time
		want time.Time
	}{
		// Monday reaches back to Thursday 18:00.
		{time.Date(2026, 8, 17, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 13, 18, 0, 0, 0, time.UTC)},
		// Tuesday reaches back to Saturday 18:00.
		{time.Date(2026, 8, 18, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 15, 18, 0, 0, 0, time.UTC)},
		// Thursday reaches back two days.
		{time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 18, 18, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := p.Cutoff(tt.now); !got.Equal(tt.want) {
			t.Errorf("Cutoff(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestIngestStopsAtFirstStaleRecord(t *testing.T) {
	fresh := fixedNow.Add(-2 * time.Hour)
	stale := fixedNow.AddDate(0, 0, -7)

	source := &fakeSource{records: map[string][]RawRecord{
		"cs.AI": {
			rawAt("2608.00001", fresh),
			rawAt("2608.00002", stale),
			// Never reached: the stream stops at the first stale record.
			rawAt("2608.00003", fresh),
		},
	}}
	st := newFakeStore()

	papers, err := testPipeline(source, st).IngestCategory(context.Background(), "cs.AI")
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 1 {
		t.Fatalf("papers = %d, want 1", len(papers))
	}
	if papers[0].ID != "2608.00001" {
		t.Errorf("paper = %s", papers[0].ID)
	}
}

func TestIngestFiltersCrossListings(t *testing.T) {
	fresh := fixedNow.Add(-time.Hour)
	source := &fakeSource{records: map[string][]RawRecord{
		"cs.AI": {
			rawAt("2608.00010", fresh, "cs.AI", "cs.CL"),
			rawAt("2608.00011", fresh, "math.CO"),
		},
	}}

	papers, err := testPipeline(source, newFakeStore()).IngestCategory(context.Background(), "cs.AI")
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 1 || papers[0].ID != "2608.00010" {
		t.Errorf("papers = %v", papers)
	}
}

func TestIngestSkipsUnparsableTimestamp(t *testing.T) {
	fresh := fixedNow.Add(-time.Hour)
	bad := rawAt("2608.00020", fresh)
	bad.Published = "not-a-timestamp"

	source := &fakeSource{records: map[string][]RawRecord{
		"cs.AI": {bad, rawAt("2608.00021", fresh)},
	}}

	papers, err := testPipeline(source, newFakeStore()).IngestCategory(context.Background(), "cs.AI")
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 1 || papers[0].ID != "2608.00021" {
		t.Errorf("papers = %v", papers)
	}
}

func TestIngestSubstitutesStoredRecord(t *testing.T) {
	fresh := fixedNow.Add(-time.Hour)
	st := newFakeStore()

	stored := &types.Paper{
		ID:       "2608.00030",
		Title:    "Paper 2608.00030",
		Abstract: "Abstract",
	}
	stored.SetTranslation("翻译标题", "这是一段保存下来的翻译摘要。")
	st.papers[stored.ID] = stored

	source := &fakeSource{records: map[string][]RawRecord{
		"cs.AI": {rawAt("2608.00030", fresh)},
	}}

	papers, err := testPipeline(source, st).IngestCategory(context.Background(), "cs.AI")
	if err != nil {
		t.Fatal(err)
	}
	if len(papers) != 1 {
		t.Fatalf("papers = %d, want 1", len(papers))
	}
	if !papers[0].Translated() {
		t.Error("expected stored translation to survive re-fetch")
	}
	if st.puts != 0 {
		t.Errorf("puts = %d, want 0 for an already-stored record", st.puts)
	}
}

func TestIngestPersistsNewRecordsImmediately(t *testing.T) {
	fresh := fixedNow.Add(-time.Hour)
	st := newFakeStore()
	source := &fakeSource{records: map[string][]RawRecord{
		"cs.AI": {rawAt("2608.00040", fresh), rawAt("2608.00041", fresh)},
	}}

	if _, err := testPipeline(source, st).IngestCategory(context.Background(), "cs.AI"); err != nil {
		t.Fatal(err)
	}
	if st.puts != 2 {
		t.Errorf("puts = %d, want 2", st.puts)
	}

	p := st.papers["2608.00040"]
	if p == nil {
		t.Fatal("expected new record in store")
	}
	if p.MirrorURL != "https://hjfy.top/arxiv/2608.00040" {
		t.Errorf("mirror = %q", p.MirrorURL)
	}
}

func TestFetchDailyWritesSummary(t *testing.T) {
	fresh := fixedNow.Add(-time.Hour)
	st := newFakeStore()
	source := &fakeSource{records: map[string][]RawRecord{
		"cs.AI": {rawAt("2608.00050", fresh)},
		"cs.CL": {rawAt("2608.00051", fresh, "cs.CL")},
	}}

	p := testPipeline(source, st)
	byCat, err := p.FetchDaily(context.Background(), []string{"cs.AI", "cs.CL"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byCat["cs.AI"]) != 1 || len(byCat["cs.CL"]) != 1 {
		t.Errorf("byCat = %v", byCat)
	}

	sum := st.summaries[fixedNow.Format("2006-01-02")]
	if sum == nil {
		t.Fatal("expected daily summary to be written")
	}
	if len(sum["cs.AI"]) != 1 {
		t.Errorf("summary cs.AI = %d, want 1", len(sum["cs.AI"]))
	}
}

func TestFetchDailyContinuesPastCategoryFailure(t *testing.T) {
	fresh := fixedNow.Add(-time.Hour)
	st := newFakeStore()

	source := &failingSource{
		failCategory: "cs.AI",
		inner: &fakeSource{records: map[string][]RawRecord{
			"cs.CL": {rawAt("2608.00060", fresh, "cs.CL")},
		}},
	}

	byCat, err := testPipeline(source, st).FetchDaily(context.Background(), []string{"cs.AI", "cs.CL"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byCat["cs.CL"]) != 1 {
		t.Errorf("expected healthy category to still ingest, got %v", byCat)
	}
}

func TestFetchDailySkipsSummaryWhenEmpty(t *testing.T) {
	st := newFakeStore()
	source := &fakeSource{records: map[string][]RawRecord{}}

	if _, err := testPipeline(source, st).FetchDaily(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(st.summaries) != 0 {
		t.Errorf("expected no summary for an empty day, got %v", st.summaries)
	}
}

func TestFetchDailyNoCategories(t *testing.T) {
	p := NewPipeline(&fakeSource{}, newFakeStore(), types.FetchConfig{}, nil)
	if _, err := p.FetchDaily(context.Background(), nil); err == nil {
		t.Error("expected error with no categories configured")
	}
}

type failingSource struct {
	failCategory string
	inner        *fakeSource
}

func (f *failingSource) Fetch(ctx context.Context, category string, cap int) ([]RawRecord, error) {
	if category == f.failCategory {
		return nil, fmt.Errorf("simulated API failure")
	}
	return f.inner.Fetch(ctx, category, cap)
}

func TestPaperByIDPrefersStore(t *testing.T) {
	st := newFakeStore()
	st.papers["2608.00070"] = &types.Paper{ID: "2608.00070", Title: "Stored"}

	source := &idSource{}
	p := testPipeline(source, st)

	paper, err := p.PaperByID(context.Background(), "2608.00070")
	if err != nil {
		t.Fatal(err)
	}
	if paper == nil || paper.Title != "Stored" {
		t.Errorf("paper = %+v", paper)
	}
	if source.calls != 0 {
		t.Errorf("source calls = %d, want 0", source.calls)
	}
}

func TestPaperByIDFallsBackToSource(t *testing.T) {
	st := newFakeStore()
	raw := rawAt("2608.00071", fixedNow.Add(-time.Hour))
	source := &idSource{record: &raw}

	paper, err := testPipeline(source, st).PaperByID(context.Background(), "2608.00071")
	if err != nil {
		t.Fatal(err)
	}
	if paper == nil || paper.ID != "2608.00071" {
		t.Fatalf("paper = %+v", paper)
	}
	if _, ok := st.papers["2608.00071"]; !ok {
		t.Error("expected fetched paper to be persisted")
	}
}

func TestPaperByIDUnknownReturnsNil(t *testing.T) {
	paper, err := testPipeline(&idSource{}, newFakeStore()).PaperByID(context.Background(), "0000.00000")
	if err != nil {
		t.Fatal(err)
	}
	if paper != nil {
		t.Errorf("paper = %+v, want nil", paper)
	}
}

type idSource struct {
	fakeSource
	record *RawRecord
	calls  int
}

func (s *idSource) FetchByID(ctx context.Context, id string) (*RawRecord, error) {
	s.calls++
	if s.record != nil && s.record.ID == id {
		return s.record, nil
	}
	return nil, nil
}
