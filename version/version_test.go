package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	assert.Equal(t, "globi dev (commit abc1234def, built now)", Info{Version: "dev", CommitHash: "abc1234def", BuildTime: "now"}.String())
	assert.Equal(t, "globi v0.3.0 (commit abc, built now)", Info{Version: "v0.3.0", CommitHash: "abc", BuildTime: "now"}.String())
}

func TestShort(t *testing.T) {
	assert.Equal(t, "abc1234", Info{CommitHash: "abc1234def"}.Short())
	assert.Equal(t, "dev", Info{CommitHash: "dev"}.Short())
}

func TestUserAgent(t *testing.T) {
	info := Info{Version: "v0.3.0"}
	assert.Equal(t, "globi/v0.3.0 (+https://www.globalbioticinteractions.org)", info.UserAgent(""))
	assert.Equal(t, "globi/v0.3.0 (+https://www.globalbioticinteractions.org; mailto:ops@example.org)", info.UserAgent("ops@example.org"))
}
