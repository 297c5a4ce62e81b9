package modelcompare

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ResultStatus is the outcome of one candidate's dispatch.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
	StatusTimeout ResultStatus = "timeout"
)

// NormalizedResult is the uniformly shaped per-candidate outcome of a
// dispatch. Answer is present iff Status==success; Error is present iff
// Status!=success.
type NormalizedResult struct {
	CandidateID      string
	Status           ResultStatus
	LatencyMS        int64
	Answer           string
	Error            string
	PayloadSignature string
}

// ModelCaller is the injected transport: given a candidate, the shared
// payload, and an advisory timeout in seconds, it returns a string, a
// mapping, or some other value — or it may return an error to signal
// failure. The fan-out executor is agnostic to provider semantics beyond
// the openai_compatible admission rule.
type ModelCaller func(ctx context.Context, candidate Candidate, payload Payload, timeoutSec int) (any, error)

// Dispatch fans the same payload out to every candidate in order,
// respecting a single global deadline of timeoutSec seconds and a worker
// pool capped at min(maxParallel, len(candidates)) (floor 1). A single
// candidate is executed inline with no pool and no deadline of its own;
// timeoutSec only reaches the caller as its advisory bound. Result order matches
// candidate input order regardless of completion order.
func Dispatch(ctx context.Context, candidates []Candidate, payload Payload, timeoutSec, maxParallel int, caller ModelCaller) ([]NormalizedResult, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("modelcompare: Dispatch requires at least one candidate")
	}

	sig, err := PayloadSignature(payload)
	if err != nil {
		return nil, fmt.Errorf("modelcompare: sign payload: %w", err)
	}

	if len(candidates) == 1 {
		return []NormalizedResult{callOne(ctx, candidates[0], payload, timeoutSec, sig, caller)}, nil
	}

	// slots arbitrates between a finishing call and the deadline firing at
	// nearly the same instant: each slot is written at most once, via a
	// CompareAndSwap on the pointer itself, so the winning side's write and
	// its claim are the same atomic operation — there is no window where a
	// write can still be in flight after the other side has moved on.
	slots := make([]atomic.Pointer[NormalizedResult], len(candidates))

	deadline := time.Now().Add(time.Duration(timeoutSec) * time.Second)
	dctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	workers := maxParallel
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))

	done := make(chan struct{})
	go func() {
		for i, c := range candidates {
			if err := sem.Acquire(dctx, 1); err != nil {
				return
			}
			i, c := i, c
			go func() {
				defer sem.Release(1)
				r := callOne(dctx, c, payload, timeoutSec, sig, caller)
				if r.Status != StatusSuccess && dctx.Err() != nil {
					// The call failed after the deadline fired; the timeout
					// result written below claims this slot instead.
					return
				}
				slots[i].CompareAndSwap(nil, &r)
			}()
		}
		// Wait for every slot to be free, i.e. every call finished.
		_ = sem.Acquire(dctx, int64(workers))
		close(done)
	}()

	select {
	case <-done:
	case <-dctx.Done():
	}

	for i, c := range candidates {
		timeoutResult := &NormalizedResult{
			CandidateID:      c.ID,
			Status:           StatusTimeout,
			LatencyMS:        int64(timeoutSec) * 1000,
			Error:            "request timeout",
			PayloadSignature: sig,
		}
		slots[i].CompareAndSwap(nil, timeoutResult)
	}

	results := make([]NormalizedResult, len(candidates))
	for i := range candidates {
		results[i] = *slots[i].Load()
	}

	return results, nil
}

// callOne invokes caller for a single candidate, recording monotonic
// latency, and normalizes the outcome into a NormalizedResult.
func callOne(ctx context.Context, candidate Candidate, payload Payload, timeoutSec int, sig string, caller ModelCaller) NormalizedResult {
	start := time.Now()
	raw, err := func() (result any, callErr error) {
		defer func() {
			if r := recover(); r != nil {
				callErr = fmt.Errorf("panic: %v", r)
			}
		}()
		return caller(ctx, candidate, payload, timeoutSec)
	}()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return NormalizedResult{
			CandidateID:      candidate.ID,
			Status:           StatusError,
			LatencyMS:        latency,
			Error:            err.Error(),
			PayloadSignature: sig,
		}
	}

	return NormalizedResult{
		CandidateID:      candidate.ID,
		Status:           StatusSuccess,
		LatencyMS:        latency,
		Answer:           normalizeAnswer(raw),
		PayloadSignature: sig,
	}
}

// normalizeAnswer implements the answer normalization rule: strings pass
// through verbatim; mappings contribute the first present of
// answer/content/text/output (coerced to string), or their compact JSON
// serialization if none are present; anything else is stringified.
func normalizeAnswer(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		for _, key := range []string{"answer", "content", "text", "output"} {
			if raw, ok := val[key]; ok {
				if s, ok := raw.(string); ok {
					return s
				}
				return fmt.Sprint(raw)
			}
		}
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}
