package acquisition

// Options is the immutable record of caller-controlled flags threaded
// through the transcript orchestrator and its adapters. Kept as a single
// struct rather than process-global state so the same orchestrator
// instance can serve concurrent requests with different flags.
type Options struct {
	PreferOriginal  bool
	StrictLanguages bool
	AllowTranslate  bool
}

// DefaultOptions matches the HTTP surface's documented defaults
// (preferOriginal=true, strictLanguages=false, allowTranslate=false).
func DefaultOptions() Options {
	return Options{PreferOriginal: true, StrictLanguages: false, AllowTranslate: false}
}
