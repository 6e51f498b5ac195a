package outboundpeer

import (
	"testing"

	"github.com/mattcorallo/relaynode/internal/options"
	"github.com/mattcorallo/relaynode/internal/p2perrors"
	"github.com/stretchr/testify/assert"
)

func TestMarkForRemovalUnknownAddrErrors(t *testing.T) {
	m := NewManager(nil, *options.NewOutboundPeerOptions(), nil)
	err := m.MarkForRemoval("127.0.0.1:8333")
	assert.ErrorIs(t, err, p2perrors.ErrUnknownPeer)
}

func TestAddIsIdempotent(t *testing.T) {
	m := &Manager{entries: map[string]*entry{"127.0.0.1:8333": {}}}
	m.Add("127.0.0.1:8333")
	assert.Len(t, m.List(), 1)
}

func TestMarkForRemovalFlagsExistingEntry(t *testing.T) {
	m := &Manager{entries: map[string]*entry{"127.0.0.1:8333": {}}}
	assert.NoError(t, m.MarkForRemoval("127.0.0.1:8333"))
	assert.True(t, m.entries["127.0.0.1:8333"].markedForRemoval)
}
