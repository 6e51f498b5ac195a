package trusted

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/peer"
	"github.com/mattcorallo/relaynode/internal/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCfg() *peer.Config {
	return &peer.Config{ChainParams: &chaincfg.MainNetParams}
}

func TestStateStringCoversAllValues(t *testing.T) {
	cases := []State{StateIdle, StateConnecting, StatePartiallyUp, StateFullyUp, StateDisconnected, StateScheduledReconnect}
	for _, s := range cases {
		assert.NotEqual(t, "*Unknown*", s.String())
	}
	assert.Equal(t, "*Unknown*", State(99).String())
}

func TestAttachInboundAloneIsPartiallyUp(t *testing.T) {
	c := New("127.0.0.1:8333", newTestCfg(), *options.NewTrustedPeerOptions(), nil)

	cfg := &peer.Config{ChainParams: &chaincfg.MainNetParams}
	p := peer.NewInboundPeer(cfg)

	c.AttachInbound(p)
	assert.Equal(t, StatePartiallyUp, c.State())
}

func TestDisconnectPermanentlyStopsReconnect(t *testing.T) {
	var transitions []State
	c := New("127.0.0.1:8333", newTestCfg(), options.TrustedPeerOptions{ReconnectDelay: 5 * time.Millisecond}, func(addr string, s State) {
		transitions = append(transitions, s)
	})

	cfg := &peer.Config{ChainParams: &chaincfg.MainNetParams}
	p := peer.NewInboundPeer(cfg)
	c.AttachInbound(p)
	require.Equal(t, StatePartiallyUp, c.State())

	c.DisconnectPermanently()
	assert.Equal(t, StateDisconnected, c.State())

	// Give any stray reconnect timer a chance to fire; it must not,
	// since the connection was torn down permanently.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateDisconnected, c.State())
}
