package relaypeer

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveBlockDecodesAndDispatches(t *testing.T) {
	var got *wire.MsgBlock
	svc := &Service{OnBlock: func(b *wire.MsgBlock) { got = b }}

	block := wire.NewMsgBlock(&wire.BlockHeader{Nonce: 42})
	payload, err := gobEncode(block)
	require.NoError(t, err)

	var ack Ack
	require.NoError(t, svc.ReceiveBlock(context.Background(), BlockArgs{Payload: payload}, &ack))
	require.NotNil(t, got)
	assert.Equal(t, uint32(42), got.Header.Nonce)
}

func TestReceiveBlockHeaderDecodesAndDispatches(t *testing.T) {
	var got *wire.BlockHeader
	svc := &Service{OnBlockHeader: func(h *wire.BlockHeader) { got = h }}

	header := &wire.BlockHeader{Nonce: 7}
	payload, err := gobEncode(header)
	require.NoError(t, err)

	var ack Ack
	require.NoError(t, svc.ReceiveBlockHeader(context.Background(), HeaderArgs{Payload: payload}, &ack))
	require.NotNil(t, got)
	assert.Equal(t, uint32(7), got.Nonce)
}

func TestLogStatsRecvDispatches(t *testing.T) {
	var got string
	svc := &Service{OnStatsLine: func(line string) { got = line }}

	var ack Ack
	require.NoError(t, svc.LogStatsRecv(context.Background(), StatsArgs{Line: "hello"}, &ack))
	assert.Equal(t, "hello", got)
}

func TestReceiveBlockBadPayloadErrors(t *testing.T) {
	svc := &Service{}
	var ack Ack
	err := svc.ReceiveBlock(context.Background(), BlockArgs{Payload: []byte("not gob")}, &ack)
	assert.Error(t, err)
}
