package modelcompare

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_SingleCandidateInline(t *testing.T) {
	candidates := []Candidate{{ID: "a"}}
	payload := Payload{Question: "q"}
	caller := func(ctx context.Context, c Candidate, p Payload, timeoutSec int) (any, error) {
		return "ok", nil
	}
	results, err := Dispatch(context.Background(), candidates, payload, 5, 3, caller)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Status != StatusSuccess || results[0].Answer != "ok" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestDispatch_PreservesOrderRegardlessOfCompletionOrder(t *testing.T) {
	candidates := []Candidate{{ID: "slow"}, {ID: "fast"}}
	payload := Payload{Question: "q"}
	caller := func(ctx context.Context, c Candidate, p Payload, timeoutSec int) (any, error) {
		if c.ID == "slow" {
			time.Sleep(30 * time.Millisecond)
		}
		return c.ID, nil
	}
	results, err := Dispatch(context.Background(), candidates, payload, 5, 2, caller)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "slow", results[0].CandidateID)
	assert.Equal(t, "fast", results[1].CandidateID)
	assert.Equal(t, "slow", results[0].Answer)
	assert.Equal(t, "fast", results[1].Answer)
}

func TestDispatch_ErrorIsolatedPerCandidate(t *testing.T) {
	candidates := []Candidate{{ID: "good"}, {ID: "bad"}}
	payload := Payload{Question: "q"}
	caller := func(ctx context.Context, c Candidate, p Payload, timeoutSec int) (any, error) {
		if c.ID == "bad" {
			return nil, errors.New("boom")
		}
		return "fine", nil
	}
	results, err := Dispatch(context.Background(), candidates, payload, 5, 2, caller)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != StatusSuccess {
		t.Fatalf("expected good candidate to succeed: %+v", results[0])
	}
	if results[1].Status != StatusError || results[1].Error != "boom" {
		t.Fatalf("expected bad candidate to error with message: %+v", results[1])
	}
}

func TestDispatch_TimeoutIsolation(t *testing.T) {
	// A caller that honors context cancellation must still be reported as
	// a timeout, not an error, once the deadline fires.
	candidates := []Candidate{{ID: "A"}, {ID: "B"}}
	payload := Payload{Question: "q"}
	caller := func(ctx context.Context, c Candidate, p Payload, timeoutSec int) (any, error) {
		if c.ID == "B" {
			select {
			case <-time.After(60 * time.Second):
			case <-ctx.Done():
			}
			return nil, ctx.Err()
		}
		time.Sleep(10 * time.Millisecond)
		return "ok", nil
	}
	results, err := Dispatch(context.Background(), candidates, payload, 1, 2, caller)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status != StatusSuccess || results[0].Answer != "ok" {
		t.Fatalf("expected A to succeed, got %+v", results[0])
	}
	if results[1].Status != StatusTimeout || results[1].Error != "request timeout" {
		t.Fatalf("expected B to time out, got %+v", results[1])
	}
	if results[1].LatencyMS != 1000 {
		t.Fatalf("expected timeout latency_ms=1000, got %d", results[1].LatencyMS)
	}
}

func TestDispatch_SharedPayloadSignature(t *testing.T) {
	candidates := []Candidate{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	payload := Payload{Question: "q"}
	caller := func(ctx context.Context, c Candidate, p Payload, timeoutSec int) (any, error) {
		return "x", nil
	}
	results, err := Dispatch(context.Background(), candidates, payload, 5, 3, caller)
	require.NoError(t, err)
	want, _ := PayloadSignature(payload)
	for _, r := range results {
		assert.Equal(t, want, r.PayloadSignature)
	}
}

func TestNormalizeAnswer_MappingPrefersAnswerKey(t *testing.T) {
	got := normalizeAnswer(map[string]any{"content": "c", "answer": "a"})
	if got != "a" {
		t.Fatalf("expected 'a', got %q", got)
	}
}

func TestNormalizeAnswer_MappingFallsBackToJSON(t *testing.T) {
	got := normalizeAnswer(map[string]any{"other": "v"})
	if got != `{"other":"v"}` {
		t.Fatalf("unexpected fallback serialization: %q", got)
	}
}

func TestNormalizeAnswer_OtherStringForm(t *testing.T) {
	got := normalizeAnswer(42)
	if got != "42" {
		t.Fatalf("expected '42', got %q", got)
	}
}
