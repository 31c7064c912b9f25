package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"queryscope/internal/llm"
	"queryscope/internal/types"
)

type fakeSource struct {
	queries []types.QueryRecord
	err     error
}

func (f *fakeSource) ListCandidates(_ context.Context, limit int) ([]types.QueryRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.queries) {
		return f.queries[:limit], nil
	}
	return f.queries, nil
}

type fakeAudit struct {
	events []string
	meta   []map[string]any
	err    error
}

func (f *fakeAudit) Log(_ context.Context, eventType string, metadata map[string]any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, eventType)
	f.meta = append(f.meta, metadata)
	return nil
}

// testUUID returns a deterministic UUID-v4-shaped id.
func testUUID(n int) string {
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", n, n)
}

func testQueries(n int) []types.QueryRecord {
	out := make([]types.QueryRecord, n)
	for i := range out {
		out[i] = types.QueryRecord{
			ID:          testUUID(i),
			Text:        fmt.Sprintf("query %d", i),
			Impressions: int64(100 - i),
			Clicks:      int64(10 - i%10),
			AvgPosition: float64(i + 1),
		}
	}
	return out
}

func envelope(clusters ...map[string]any) json.RawMessage {
	b, _ := json.Marshal(map[string]any{"clusters": clusters})
	return b
}

func TestGenerate_EmptyCandidates_NoCompletionCall(t *testing.T) {
	cli := llm.NewFakeClient()
	gen := NewGenerator(cli, &fakeSource{}, &fakeAudit{})
	out, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
	if cli.Calls() != 0 {
		t.Fatalf("completion service called %d times for empty input", cli.Calls())
	}
}

func TestGenerate_DropsForeignAndInvalidIDs(t *testing.T) {
	qs := testQueries(5)
	resp := envelope(map[string]any{
		"name": "Signup flow questions",
		"queryIds": []string{
			qs[0].ID, qs[1].ID, qs[2].ID,
			testUUID(901),   // UUID-shaped but not in the batch
			"not-a-uuid-42", // not UUID-shaped
		},
	})
	gen := NewGenerator(llm.NewFakeClient(resp), &fakeSource{queries: qs}, &fakeAudit{})
	out, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("suggestions = %d, want 1", len(out))
	}
	s := out[0]
	if s.QueryCount != 3 || len(s.Queries) != 3 {
		t.Fatalf("member count = %d, want 3", s.QueryCount)
	}
	wantImp := qs[0].Impressions + qs[1].Impressions + qs[2].Impressions
	if s.Metrics.Impressions != wantImp {
		t.Fatalf("metrics over %d impressions, want %d", s.Metrics.Impressions, wantImp)
	}
	for _, q := range s.Queries {
		found := false
		for _, c := range qs {
			if c.ID == q.ID {
				found = true
			}
		}
		if !found {
			t.Fatalf("emitted id %s absent from batch", q.ID)
		}
	}
}

func TestGenerate_DropsClustersBelowMinimum(t *testing.T) {
	qs := testQueries(6)
	resp := envelope(
		map[string]any{"name": "Too small", "queryIds": []string{qs[0].ID, qs[1].ID}},
		map[string]any{"name": "Big enough", "queryIds": []string{qs[2].ID, qs[3].ID, qs[4].ID}},
	)
	gen := NewGenerator(llm.NewFakeClient(resp), &fakeSource{queries: qs}, &fakeAudit{})
	out, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Name != "Big enough" {
		t.Fatalf("expected only the 3-member cluster, got %d", len(out))
	}
}

func TestGenerate_MalformedEnvelopeAborts(t *testing.T) {
	qs := testQueries(4)
	for _, raw := range []string{
		`"just a string"`,
		`{"groups": []}`,
		`{"clusters": "nope"}`,
	} {
		gen := NewGenerator(llm.NewFakeClient(json.RawMessage(raw)), &fakeSource{queries: qs}, &fakeAudit{})
		_, err := gen.Generate(context.Background())
		if !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("raw %s: expected malformed-response error, got %v", raw, err)
		}
	}
}

func TestGenerate_UpstreamErrorClassification(t *testing.T) {
	qs := testQueries(4)

	transient := &llm.FakeClient{Err: errors.New("503 service unavailable")}
	gen := NewGenerator(llm.Wrap(transient), &fakeSource{queries: qs}, &fakeAudit{})
	_, err := gen.Generate(context.Background())
	if !IsRetryable(err) {
		t.Fatalf("transient failure should be retryable, got %v", err)
	}

	fatal := &llm.FakeClient{Err: llm.NewPermanentError(errors.New("401 unauthorized"))}
	gen = NewGenerator(llm.Wrap(fatal), &fakeSource{queries: qs}, &fakeAudit{})
	_, err = gen.Generate(context.Background())
	if err == nil || IsRetryable(err) {
		t.Fatalf("permanent failure should not be retryable, got %v", err)
	}
}

func TestBuildPayload_TruncatesTextOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", maxQueryTextLen+30)
	payload := buildPayload([]types.QueryRecord{{ID: testUUID(1), Text: long}})

	got := payload.Queries[0].Q
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != maxQueryTextLen {
		t.Fatalf("expected %d runes, got %d", maxQueryTextLen, n)
	}

	short := "plain ascii"
	payload = buildPayload([]types.QueryRecord{{ID: testUUID(2), Text: short}})
	if payload.Queries[0].Q != short {
		t.Fatalf("short text must pass through unchanged, got %q", payload.Queries[0].Q)
	}
}

func TestGenerate_NonJSONModelOutputIsMalformed(t *testing.T) {
	qs := testQueries(4)

	broken := &llm.FakeClient{Err: llm.NewPermanentError(llm.ErrInvalidJSON)}
	gen := NewGenerator(llm.Wrap(broken), &fakeSource{queries: qs}, &fakeAudit{})
	_, err := gen.Generate(context.Background())
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("non-JSON model output should be a malformed response, got %v", err)
	}
	if IsRetryable(err) {
		t.Fatalf("malformed response must not be retryable, got %v", err)
	}
}

func TestGenerate_SequentialBatchesConcatenateInOrder(t *testing.T) {
	qs := testQueries(6)
	batchNames := []string{"First batch cluster", "Second batch cluster"}
	call := 0
	cli := &llm.FakeClient{Respond: func(_ string, input any) (json.RawMessage, error) {
		name := batchNames[call]
		call++
		payload := input.(batchPayload)
		ids := make([]string, len(payload.Queries))
		for i, q := range payload.Queries {
			ids[i] = q.ID
		}
		return envelope(map[string]any{"name": name, "queryIds": ids}), nil
	}}

	gen := NewGenerator(cli, &fakeSource{queries: qs}, &fakeAudit{})
	gen.SetLimits(3, 100)

	var progress []Progress
	gen.OnProgress = func(p Progress) { progress = append(progress, p) }

	out, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].Name != batchNames[0] || out[1].Name != batchNames[1] {
		t.Fatalf("batch order not preserved: %+v", out)
	}
	if len(progress) != 2 || progress[0].BatchIndex != 1 || progress[1].BatchIndex != 2 || progress[1].BatchCount != 2 {
		t.Fatalf("unexpected progress events: %+v", progress)
	}
}

func TestGenerate_AuditRecordedAndFailuresSwallowed(t *testing.T) {
	qs := testQueries(4)
	resp := envelope(map[string]any{"name": "N", "queryIds": []string{qs[0].ID, qs[1].ID, qs[2].ID}})

	audit := &fakeAudit{}
	gen := NewGenerator(llm.NewFakeClient(resp), &fakeSource{queries: qs}, audit)
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(audit.events) != 1 || audit.events[0] != "clusters_generated" {
		t.Fatalf("audit events = %v", audit.events)
	}
	if audit.meta[0]["clusterCount"] != 1 || audit.meta[0]["batchCount"] != 1 {
		t.Fatalf("audit metadata = %v", audit.meta[0])
	}

	// A failing audit sink must not fail generation.
	gen = NewGenerator(llm.NewFakeClient(resp), &fakeSource{queries: qs}, &fakeAudit{err: errors.New("audit down")})
	if _, err := gen.Generate(context.Background()); err != nil {
		t.Fatalf("audit failure leaked: %v", err)
	}
}

func TestGenerate_StableIdentityAcrossRuns(t *testing.T) {
	qs := testQueries(4)
	resp := envelope(map[string]any{"name": "Stable", "queryIds": []string{qs[0].ID, qs[1].ID, qs[2].ID}})

	run := func() string {
		gen := NewGenerator(llm.NewFakeClient(resp), &fakeSource{queries: qs}, nil)
		out, err := gen.Generate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return out[0].ID
	}
	if a, b := run(), run(); a != b {
		t.Fatalf("same content produced ids %q and %q", a, b)
	}
}

func TestGenerate_DuplicateIDsWithinClusterCollapse(t *testing.T) {
	qs := testQueries(4)
	resp := envelope(map[string]any{
		"name":     "Dups",
		"queryIds": []string{qs[0].ID, qs[0].ID, qs[1].ID, qs[2].ID},
	})
	gen := NewGenerator(llm.NewFakeClient(resp), &fakeSource{queries: qs}, nil)
	out, err := gen.Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].QueryCount != 3 {
		t.Fatalf("expected 3 unique members, got %+v", out)
	}
}
