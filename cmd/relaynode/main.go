// Command relaynode runs the Bitcoin block and transaction relay node:
// an intermediary between untrusted Bitcoin peers and trusted
// full-validating peers that relays blocks and transactions between
// them, as described in SPEC_FULL.md.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/peer"
	libp2p "github.com/libp2p/go-libp2p"
	gorpc "github.com/libp2p/go-libp2p-gorpc"
	multiaddr "github.com/multiformats/go-multiaddr"
	flag "github.com/spf13/pflag"

	log "github.com/koinos/koinos-log-golang"

	"github.com/mattcorallo/relaynode/internal/headerstore"
	"github.com/mattcorallo/relaynode/internal/node"
	"github.com/mattcorallo/relaynode/internal/options"
	"github.com/mattcorallo/relaynode/internal/relaylog"
	"github.com/mattcorallo/relaynode/internal/relaypeer"
	"github.com/mattcorallo/relaynode/internal/trusted"
)

func main() {
	blocksPort := flag.Int("listen-blocks", 8334, "blocks-only listener port")
	bothPort := flag.Int("listen-both", 8335, "blocks-and-transactions listener port")
	relayPort := flag.Int("listen-relay", 8336, "relay-protocol listener port")
	relayPeerListen := flag.String("relay-peer-listen", "/ip4/0.0.0.0/tcp/0", "libp2p multiaddress the relay-peer side channel listens on")
	logLevel := flag.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	logDir := flag.String("log-dir", ".", "directory for blockrelay.log")
	trustedSeeds := flag.StringSlice("trusted", nil, "trusted peer host:port, may be repeated")
	relayPeers := flag.StringSlice("relay-peer", nil, "outbound relay-peer multiaddress, may be repeated")
	flag.Parse()

	if err := log.InitLogger("relaynode", "", *logLevel, *logDir, false, false); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	relayLog, err := relaylog.Open(*logDir + "/blockrelay.log")
	if err != nil {
		log.Errorf("failed to open relay log: %v", err)
		os.Exit(1)
	}
	defer relayLog.Close()

	headers := headerstore.NewMemStore()

	trustedCfg := &peer.Config{ChainParams: &chaincfg.MainNetParams}
	trustedMgr := trusted.NewManager(trustedCfg, *options.NewTrustedPeerOptions(), func(addr string, s trusted.State) {
		log.Infof("trusted peer %s is now %s", addr, s)
	})
	for _, addr := range *trustedSeeds {
		trustedMgr.Add(addr)
	}

	listenerOpts := options.ListenerOptions{
		BlocksOnlyPort:    *blocksPort,
		BlocksAndTxPort:   *bothPort,
		RelayProtocolPort: *relayPort,
		BindAddress:       "0.0.0.0",
	}

	n := node.New(listenerOpts, *options.NewPoolOptions(), *options.NewWorkerOptions(), headers, trustedMgr, relayLog)
	defer n.Close()

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	relayHost, err := libp2p.New(libp2p.ListenAddrStrings(*relayPeerListen))
	if err != nil {
		log.Errorf("failed to start relay-peer libp2p host: %v", err)
		os.Exit(1)
	}
	defer relayHost.Close()

	relayServer := gorpc.NewServer(relayHost, relaypeer.ServiceID)
	if err := relayServer.Register(&relaypeer.Service{
		OnBlock: n.ReceiveRelayedBlock,
		OnStatsLine: func(line string) {
			log.Debugf("relay-peer stats: %s", line)
			relayLog.AddStatsLine(line)
		},
	}); err != nil {
		log.Errorf("failed to register relay-peer service: %v", err)
		os.Exit(1)
	}

	for _, addr := range *relayPeers {
		addr := addr
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			log.Warnf("invalid relay-peer address %s: %v", addr, err)
			continue
		}
		client := relaypeer.NewClient(relayHost, ma, *options.NewRelayPeerOptions(),
			func() { log.Infof("relay peer %s connected", addr) },
			func() { log.Infof("relay peer %s disconnected", addr) },
		)
		n.AddRelayClient(addr, client)
	}

	go runListener("blocks-only", n.ListenBlocksOnly)
	go runListener("blocks-and-tx", n.ListenBlocksAndTx)
	go runListener("relay-protocol", n.ListenRelayProtocol)

	stop := make(chan struct{})
	go n.RunStatsTUI(os.Stdout, stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		// Operator-driven and signal-driven shutdown both exit the
		// process immediately without graceful teardown, by design
		// (§5).
		os.Exit(0)
	}()

	n.RunOperatorCLI(os.Stdin,
		func() { os.Exit(0) },
		func(addr string) { trustedMgr.Add(addr) },
		func(addr string) {
			ma, err := multiaddr.NewMultiaddr(addr)
			if err != nil {
				log.Warnf("invalid relay-peer address %s: %v", addr, err)
				return
			}
			client := relaypeer.NewClient(relayHost, ma, *options.NewRelayPeerOptions(), nil, nil)
			n.AddRelayClient(addr, client)
		},
		func(addr string) {
			if err := n.RemoveRelayClient(addr); err != nil {
				log.Warnf("%v", err)
			}
		},
	)
}

func runListener(name string, listen func() error) {
	if err := listen(); err != nil {
		log.Errorf("%s listener exited: %v", name, err)
	}
}
