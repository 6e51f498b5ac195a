package node

import (
	"fmt"
	"io"
	"time"
)

// statsInterval is the stats panel's refresh rate (2 Hz, §4.7/§6).
const statsInterval = 500 * time.Millisecond

// RunStatsTUI renders a repeatedly-redrawn ANSI status panel to w every
// statsInterval until stop is closed. It uses a cursor-home-and-clear
// escape sequence rather than appending lines, matching the original
// relay node's terminal status display.
func (n *Node) RunStatsTUI(w io.Writer, stop <-chan struct{}) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			renderStats(w, n.Snapshot())
		case <-stop:
			return
		}
	}
}

func renderStats(w io.Writer, s Stats) {
	fmt.Fprint(w, "\x1b[H\x1b[2J")
	fmt.Fprintf(w, "relaynode  %s\n", s.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "header height: %d\n", s.HeaderHeight)
	fmt.Fprintf(w, "blocks-only peers: %d\n", s.BlocksOnlyPeers)
	fmt.Fprintf(w, "blocks+tx peers:   %d\n", s.BlocksAndTxPeers)
	fmt.Fprintf(w, "trusted peers:     %d\n", len(s.TrustedPeers))
	for _, addr := range s.TrustedPeers {
		fmt.Fprintf(w, "  %s\n", addr)
	}
	fmt.Fprintf(w, "relay clients:     %d\n", len(s.RelayClients))
	for _, addr := range s.RelayClients {
		fmt.Fprintf(w, "  %s\n", addr)
	}
}
