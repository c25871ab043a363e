// Package comment implements the comment acquisition strategies and the
// engine that runs them in strict serial order with a permanent-block
// short circuit.
package comment

import "strings"

// blockPatterns maps a reason code to the substrings that, once seen in
// a strategy's captured diagnostic output, confirm a permanent
// sign-in/bot challenge rather than a transient failure. Grounded on the
// original's _detect_comment_permanent_block; the original carries only
// the sign-in pattern, so that is all that is reproduced here.
var blockPatterns = map[string][]string{
	"signin_required": {
		"sign in to confirm you're not a bot",
		"sign in to confirm you’re not a bot",
	},
}

// DetectPermanentBlock joins every captured diagnostic message (plus an
// optional extra string) and checks it against the known block patterns.
// Returns the matching reason code, or "" if nothing matched.
func DetectPermanentBlock(messages []string, extra string) (bool, string) {
	joined := strings.ToLower(strings.Join(append(append([]string{}, messages...), extra), " "))
	for reason, patterns := range blockPatterns {
		for _, p := range patterns {
			if strings.Contains(joined, p) {
				return true, reason
			}
		}
	}
	return false, ""
}

// ErrPermanentBlock signals that a strategy's own source confirmed a
// sign-in/bot-challenge wall, and no further comment strategy should be
// attempted for this request.
type ErrPermanentBlock struct {
	Reason string
}

func (e *ErrPermanentBlock) Error() string {
	return "permanent comment block detected: " + e.Reason
}

// captureLogger accumulates warning/error-level messages from a strategy
// so they can be scanned for a block signature after the fact, mirroring
// the original's _YtDlpCaptureLogger (debug/info are intentionally
// discarded — only warnings and errors carry block signatures).
type captureLogger struct {
	messages []string
}

func (l *captureLogger) Debug(string) {}
func (l *captureLogger) Info(string)  {}
func (l *captureLogger) Warning(msg string) {
	l.messages = append(l.messages, msg)
}
func (l *captureLogger) Error(msg string) {
	l.messages = append(l.messages, msg)
}
