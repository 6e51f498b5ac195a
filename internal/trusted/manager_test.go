package trusted

import (
	"testing"

	"github.com/mattcorallo/relaynode/internal/options"
	"github.com/stretchr/testify/assert"
)

func TestMatchInboundMatchesByHostIgnoringConfiguredPort(t *testing.T) {
	m := NewManager(newTestCfg(), *options.NewTrustedPeerOptions(), nil)
	m.Add("127.0.0.1:8333")

	c, ok := m.MatchInbound("127.0.0.1")
	assert.True(t, ok)
	assert.Equal(t, "127.0.0.1:8333", c.Addr())
}

func TestMatchInboundMissesUnknownHost(t *testing.T) {
	m := NewManager(newTestCfg(), *options.NewTrustedPeerOptions(), nil)
	m.Add("127.0.0.1:8333")

	_, ok := m.MatchInbound("10.0.0.9")
	assert.False(t, ok)
}
