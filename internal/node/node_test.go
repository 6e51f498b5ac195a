package node

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/peer"
	"github.com/mattcorallo/relaynode/internal/headerstore"
	"github.com/mattcorallo/relaynode/internal/options"
	"github.com/mattcorallo/relaynode/internal/relaylog"
	"github.com/mattcorallo/relaynode/internal/trusted"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNode(t *testing.T) *Node {
	t.Helper()
	path := t.TempDir() + "/blockrelay.log"
	rl, err := relaylog.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { rl.Close() })

	cfg := &peer.Config{ChainParams: &chaincfg.MainNetParams}
	mgr := trusted.NewManager(cfg, *options.NewTrustedPeerOptions(), nil)
	n := New(*options.NewListenerOptions(), *options.NewPoolOptions(), *options.NewWorkerOptions(), headerstore.NewMemStore(), mgr, rl)
	t.Cleanup(n.Close)
	return n
}

func TestRunOperatorCLIQuit(t *testing.T) {
	n := newTestNode(t)
	quit := false

	n.RunOperatorCLI(strings.NewReader("q\n"), func() { quit = true }, func(string) {}, func(string) {}, func(string) {})

	assert.True(t, quit)
}

func TestRunOperatorCLIAddTrustedPeer(t *testing.T) {
	n := newTestNode(t)
	var connected string

	n.RunOperatorCLI(strings.NewReader("t 127.0.0.1:8333\nq\n"), func() {}, func(addr string) { connected = addr }, func(string) {}, func(string) {})

	assert.Equal(t, "127.0.0.1:8333", connected)
}

func TestRunOperatorCLIAddRelayPeer(t *testing.T) {
	n := newTestNode(t)
	var added string

	n.RunOperatorCLI(strings.NewReader("r 127.0.0.1:8336\nq\n"), func() {}, func(string) {}, func(addr string) { added = addr }, func(string) {})

	assert.Equal(t, "127.0.0.1:8336", added)
}

func TestRunOperatorCLIRemoveUnknownOutboundPeerWarns(t *testing.T) {
	n := newTestNode(t)

	// No prior "o" command was issued, so "o-" targets an address the
	// outbound manager has never heard of; RunOperatorCLI must not panic.
	n.RunOperatorCLI(strings.NewReader("o-127.0.0.1:8333\nq\n"), func() {}, func(string) {}, func(string) {}, func(string) {})
}

func TestSnapshotReflectsTrustedPeers(t *testing.T) {
	n := newTestNode(t)
	n.trusted.Add("127.0.0.1:8333")

	s := n.Snapshot()
	assert.Contains(t, s.TrustedPeers, "127.0.0.1:8333")
}

func TestRenderStatsWritesPanel(t *testing.T) {
	var buf bytes.Buffer
	renderStats(&buf, Stats{HeaderHeight: 5, Timestamp: time.Unix(0, 0)})
	assert.Contains(t, buf.String(), "header height: 5")
}
