package acquisition

import "context"

// Attempt is one named strategy invocation. Generalizes the teacher's
// CompositeFetcher "try each fetcher in order" loop to any result type
// and to both the serial and parallel-race execution modes the spec
// requires.
type Attempt[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// RunSerial tries attempts in declared order, returning the first result
// for which notEmpty holds. shortCircuit, if non-nil, stops the chain
// early on a matching error (used for the comment engine's
// PermanentBlock short-circuit).
func RunSerial[T any](ctx context.Context, attempts []Attempt[T], notEmpty func(T) bool, shortCircuit func(error) bool) (result T, err error, circuited bool) {
	var lastErr error
	for _, a := range attempts {
		res, aerr := a.Run(ctx)
		if aerr != nil {
			if shortCircuit != nil && shortCircuit(aerr) {
				return result, aerr, true
			}
			lastErr = aerr
			continue
		}
		if notEmpty(res) {
			return res, nil, false
		}
	}
	return result, lastErr, false
}

// RunParallelFirst races attempts concurrently, returning the first
// non-empty result. It returns as soon as a winner is found or ctx is
// done; goroutines for attempts that haven't reported yet are abandoned
// (their results are discarded when they eventually arrive).
func RunParallelFirst[T any](ctx context.Context, attempts []Attempt[T], notEmpty func(T) bool) (T, error) {
	var zero T
	type outcome struct {
		val T
		err error
	}
	ch := make(chan outcome, len(attempts))
	for _, a := range attempts {
		a := a
		go func() {
			v, err := a.Run(ctx)
			select {
			case ch <- outcome{v, err}:
			case <-ctx.Done():
			}
		}()
	}

	var lastErr error
	for i := 0; i < len(attempts); i++ {
		select {
		case o := <-ch:
			if o.err == nil && notEmpty(o.val) {
				return o.val, nil
			}
			if o.err != nil {
				lastErr = o.err
			}
		case <-ctx.Done():
			if lastErr == nil {
				lastErr = &AdapterError{Kind: KindOrchestratorTimeout, Adapter: "orchestrator", Reason: "parallel fallback deadline exceeded"}
			}
			return zero, lastErr
		}
	}
	if lastErr != nil {
		return zero, lastErr
	}
	return zero, ErrNoTranscriptFound
}
