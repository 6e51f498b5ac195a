// Package netpeer builds the btcd wire-protocol peer configuration this
// relay uses for every raw Bitcoin-wire connection: untrusted inbound and
// outbound peers, trusted dual-socket peers, and inbound relay-protocol
// connections. The relay-peer client (C6) is the one exception; it speaks
// an unrelated, opaque side-channel protocol and is built in package
// relaypeer instead.
package netpeer

import (
	"net"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/peer"
	"github.com/btcsuite/btcd/wire"
)

// UserAgentName/Version identify this node in the subversion string sent
// during the handshake.
const (
	UserAgentName    = "RelayNode"
	UserAgentVersion = "1.0.0"
)

// RelayProtocolMarker is the subversion comment that identifies
// relay-protocol traffic. This node appends it to its own version message
// on the relay-protocol port; C4's handler labels a peer as a relay
// source when the peer's own subversion contains it (§4.4).
const RelayProtocolMarker = "RelayNodeProtocol"

// OutboundOperatorPeerComment tags the subversion comments of operator-
// added outbound untrusted peers (the "o" command, §6).
const OutboundOperatorPeerComment = "OutboundRelayNode - bitcoin-peering@…"

// NewestBlockFunc reports this node's local tip for the handshake's
// version message, as required by peer.Config.NewestBlock.
type NewestBlockFunc func() (*chainhash.Hash, int32, error)

// NewConfig builds a peer.Config for a Bitcoin-wire connection. listeners
// is attached directly; newestBlock reports this node's local tip.
// relayMarked, when true, tags the connection's subversion comment with
// RelayProtocolMarker.
func NewConfig(listeners peer.MessageListeners, newestBlock NewestBlockFunc, relayMarked bool) *peer.Config {
	comments := []string{}
	if relayMarked {
		comments = append(comments, RelayProtocolMarker)
	}

	cfg := &peer.Config{
		NewestBlock:       peer.HashFunc(newestBlock),
		UserAgentName:     UserAgentName,
		UserAgentVersion:  UserAgentVersion,
		UserAgentComments: comments,
		ChainParams:       &chaincfg.MainNetParams,
		Services:          0,
		ProtocolVersion:   wire.ProtocolVersion,
		DisableRelayTx:    false,
		TrickleInterval:   time.Second * 10,
		Listeners:         listeners,
	}
	return cfg
}

// Listen opens a TCP listener on addr and invokes onAccept with each
// raw accepted connection, before any peer.Config is chosen, so the
// caller can route a connection (e.g. by remote address, to a trusted
// peer's inbound socket) before deciding which cfg to build it with. It
// runs the accept loop on the calling goroutine and returns only on a
// listener error.
func Listen(addr string, onAccept func(conn net.Conn)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		onAccept(conn)
	}
}

// Accept builds an inbound peer from cfg and associates it with an
// already-accepted conn.
func Accept(cfg *peer.Config, conn net.Conn) *peer.Peer {
	p := peer.NewInboundPeer(cfg)
	p.AssociateConnection(conn)
	return p
}

// Dial opens an outbound Bitcoin-wire connection to addr using cfg.
func Dial(addr string, cfg *peer.Config) (*peer.Peer, error) {
	p, err := peer.NewOutboundPeer(cfg, addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("tcp", p.Addr())
	if err != nil {
		return nil, err
	}
	p.AssociateConnection(conn)
	return p, nil
}
