package relaypeer

import (
	"bytes"
	"context"
	"encoding/gob"

	"github.com/btcsuite/btcd/wire"
	log "github.com/koinos/koinos-log-golang"
)

// Service is the gorpc service registered on this node's libp2p host so
// that sibling relay nodes dialing in can deliver blocks, headers,
// transactions, and receive-stats lines.
type Service struct {
	// OnBlock is invoked with each decoded block received from a relay
	// peer.
	OnBlock func(*wire.MsgBlock)
	// OnBlockHeader is invoked with each decoded block header received.
	OnBlockHeader func(*wire.BlockHeader)
	// OnTransaction is invoked with each decoded transaction received.
	OnTransaction func(*wire.MsgTx)
	// OnStatsLine is invoked with each accumulated receive-stats line.
	OnStatsLine func(line string)
}

// ReceiveBlock implements the gorpc method Service.ReceiveBlock.
func (s *Service) ReceiveBlock(ctx context.Context, args BlockArgs, reply *Ack) error {
	var msg wire.MsgBlock
	if err := gobDecode(args.Payload, &msg); err != nil {
		log.Warnf("relaypeer: failed to decode received block: %v", err)
		return err
	}
	if s.OnBlock != nil {
		s.OnBlock(&msg)
	}
	return nil
}

// ReceiveBlockHeader implements the gorpc method
// Service.ReceiveBlockHeader.
func (s *Service) ReceiveBlockHeader(ctx context.Context, args HeaderArgs, reply *Ack) error {
	var hdr wire.BlockHeader
	if err := gobDecode(args.Payload, &hdr); err != nil {
		log.Warnf("relaypeer: failed to decode received block header: %v", err)
		return err
	}
	if s.OnBlockHeader != nil {
		s.OnBlockHeader(&hdr)
	}
	return nil
}

// ReceiveTransaction implements the gorpc method
// Service.ReceiveTransaction.
func (s *Service) ReceiveTransaction(ctx context.Context, args TransactionArgs, reply *Ack) error {
	var tx wire.MsgTx
	if err := gobDecode(args.Payload, &tx); err != nil {
		log.Warnf("relaypeer: failed to decode received transaction: %v", err)
		return err
	}
	if s.OnTransaction != nil {
		s.OnTransaction(&tx)
	}
	return nil
}

// LogStatsRecv implements the gorpc method Service.LogStatsRecv.
func (s *Service) LogStatsRecv(ctx context.Context, args StatsArgs, reply *Ack) error {
	if s.OnStatsLine != nil {
		s.OnStatsLine(args.Line)
	}
	return nil
}

func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
