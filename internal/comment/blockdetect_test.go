package comment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPermanentBlockMatchesSignInPattern(t *testing.T) {
	blocked, reason := DetectPermanentBlock([]string{"WARNING: Sign in to confirm you're not a bot"}, "")
	assert.True(t, blocked)
	assert.Equal(t, "signin_required", reason)
}

func TestDetectPermanentBlockNoMatch(t *testing.T) {
	blocked, reason := DetectPermanentBlock([]string{"WARNING: rate limited, retrying"}, "")
	assert.False(t, blocked)
	assert.Empty(t, reason)
}

func TestDetectPermanentBlockChecksExtraText(t *testing.T) {
	blocked, reason := DetectPermanentBlock(nil, "Sign in to confirm you’re not a bot")
	assert.True(t, blocked)
	assert.Equal(t, "signin_required", reason)
}
