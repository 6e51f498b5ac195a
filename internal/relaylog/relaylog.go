// Package relaylog implements the structured relay log (C8): an
// append-only record of every block this node has relayed, deduplicated
// so a given block hash is written at most once for the lifetime of the
// process, plus the accumulated per-trusted-peer receive statistics lines
// a relay-peer connection reports alongside each block.
package relaylog

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	log "github.com/koinos/koinos-log-golang"

	"github.com/mattcorallo/relaynode/internal/invitem"
	"github.com/mattcorallo/relaynode/internal/rdns"
)

// Log is the append-only block-relay log plus its first-seen dedup set.
type Log struct {
	mu      sync.Mutex
	file    *os.File
	written map[chainhash.Hash]struct{}

	// pending holds relay-peer LogStatsRecv lines reported since the
	// last LogBlockRelay call. The next call writes them under its block
	// if that block is first-seen and drops them otherwise (§4.8,
	// scenario 3).
	pending []string
}

// Open opens (creating if necessary) the relay log at path for
// appending.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &Log{
		file:    f,
		written: make(map[chainhash.Hash]struct{}),
	}, nil
}

// Close closes the underlying log file.
func (l *Log) Close() error {
	return l.file.Close()
}

// AddStatsLine buffers a relay-peer's LogStatsRecv line until the next
// LogBlockRelay call, which writes it under that call's block if the
// block is first-seen and drops it otherwise (§4.8, scenario 3).
func (l *Log) AddStatsLine(line string) {
	l.mu.Lock()
	l.pending = append(l.pending, line)
	l.mu.Unlock()
}

// LogBlockRelay appends one line recording that hash was relayed, along
// with recvStats plus any relay-peer stats lines buffered by AddStatsLine
// since the last call, and the source description. A hash already logged
// once is silently skipped, matching the log's first-seen semantics (P4);
// the buffered stats lines are cleared either way, so for a skipped hash
// they are dropped unwritten.
func (l *Log) LogBlockRelay(hash chainhash.Hash, source string, recvStats []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pending := l.pending
	l.pending = nil

	if _, ok := l.written[hash]; ok {
		return
	}
	l.written[hash] = struct{}{}

	line := fmt.Sprintf("%s %s %s\n", time.Now().UTC().Format(time.RFC3339), hash, source)
	if _, err := l.file.WriteString(line); err != nil {
		log.Errorf("relaylog: failed to write block relay line for %s: %v", hash, err)
	}
	for _, stat := range recvStats {
		if _, err := l.file.WriteString("  " + stat + "\n"); err != nil {
			log.Errorf("relaylog: failed to write recv-stats line for %s: %v", hash, err)
		}
	}
	for _, stat := range pending {
		if _, err := l.file.WriteString("  " + stat + "\n"); err != nil {
			log.Errorf("relaylog: failed to write recv-stats line for %s: %v", hash, err)
		}
	}
	if err := l.file.Sync(); err != nil {
		log.Warnf("relaylog: sync failed: %v", err)
	}
}

// SourceDescription renders the human-readable source tag used in a
// block-relay line: "relay" for connections arriving on the relay
// protocol port, "p2p" otherwise, qualified with the peer's address and,
// when it resolves to an IP, its reverse-DNS name (§4.8: "from <ip>/<rdns>").
func SourceDescription(addr string, isRelaySource bool) string {
	tag := "p2p"
	if isRelaySource {
		tag = "relay"
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return fmt.Sprintf("%s:%s", tag, addr)
	}
	return fmt.Sprintf("%s:%s/%s", tag, host, rdns.Lookup(ip))
}

// Item is a convenience for callers that have an invitem.Item rather
// than a bare hash; it is a no-op for non-block items.
func (l *Log) Item(item invitem.Item, source string, recvStats []string) {
	if item.Kind != invitem.KindBlock {
		return
	}
	l.LogBlockRelay(item.Hash, source, recvStats)
}
