package node

import (
	"bufio"
	"io"
	"strings"

	log "github.com/koinos/koinos-log-golang"
)

// RunOperatorCLI reads operator commands from r line by line until r is
// closed, per §6:
//
//	q              quit the process immediately
//	t <addr>       add a trusted validator (dual connection)
//	t-<addr>       permanently remove a trusted validator
//	o <addr>       add an outbound untrusted Bitcoin P2P peer
//	o-<addr>       mark an outbound untrusted peer for removal after its next disconnect
//	r <addr>       add an outbound relay-protocol peer (C6 side channel)
//	r-<addr>       mark a relay-protocol peer for removal after its next disconnect
//
// The add-forms take their address after a space; the remove-forms take
// it glued directly to the "x-" prefix, with no space, matching the
// original operator console.
//
// Quit is handled by the caller (a bare process exit, by design — see
// §5); RunOperatorCLI returns right after calling quit for "q", and
// otherwise when r reaches EOF.
func (n *Node) RunOperatorCLI(r io.Reader, quit func(), connectTrusted func(addr string), addRelayPeer func(addr string), removeRelayPeer func(addr string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "q" {
			quit()
			return
		}

		switch {
		case strings.HasPrefix(line, "t-"):
			arg := line[len("t-"):]
			if arg == "" {
				log.Warnf("cli: 't-' requires an address")
				continue
			}
			if err := n.trusted.Remove(arg); err != nil {
				log.Warnf("cli: %v", err)
			}
			continue
		case strings.HasPrefix(line, "o-"):
			arg := line[len("o-"):]
			if arg == "" {
				log.Warnf("cli: 'o-' requires an address")
				continue
			}
			if err := n.RemoveOutboundPeer(arg); err != nil {
				log.Warnf("cli: %v", err)
			}
			continue
		case strings.HasPrefix(line, "r-"):
			arg := line[len("r-"):]
			if arg == "" {
				log.Warnf("cli: 'r-' requires an address")
				continue
			}
			removeRelayPeer(arg)
			continue
		}

		fields := strings.Fields(line)
		cmd := fields[0]
		var arg string
		if len(fields) > 1 {
			arg = fields[1]
		}

		switch cmd {
		case "t":
			if arg == "" {
				log.Warnf("cli: 't' requires an address")
				continue
			}
			connectTrusted(arg)
		case "o":
			if arg == "" {
				log.Warnf("cli: 'o' requires an address")
				continue
			}
			n.AddOutboundPeer(arg)
		case "r":
			if arg == "" {
				log.Warnf("cli: 'r' requires an address")
				continue
			}
			addRelayPeer(arg)
		default:
			log.Warnf("cli: unrecognized command %q", cmd)
		}
	}
}
