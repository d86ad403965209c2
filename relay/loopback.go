package relay

import (
	"context"
	"sync"
)

// Receiver accepts a delivered payload on the destination chain.
type Receiver func(ctx context.Context, payload []byte) error

// LoopbackTransport is an in-process transport joining endpoints that live in
// the same binary. It is the test double for the wire transport, and it
// deliberately delivers in whatever order Send is called per destination
// with no cross-destination ordering.
type LoopbackTransport struct {
	mtx sync.Mutex

	fee       uint64
	receivers map[uint32]Receiver
	sent      map[uint32][][]byte
}

func NewLoopbackTransport(fee uint64) *LoopbackTransport {
	return &LoopbackTransport{
		fee:       fee,
		receivers: make(map[uint32]Receiver),
		sent:      make(map[uint32][][]byte),
	}
}

// Register wires a destination chain's receiver.
func (t *LoopbackTransport) Register(chainId uint32, recv Receiver) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.receivers[chainId] = recv
}

func (t *LoopbackTransport) QuoteFee(ctx context.Context, destChainId uint32, payload []byte) (uint64, error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if _, ok := t.receivers[destChainId]; !ok {
		return 0, ErrUnknownDest
	}
	return t.fee, nil
}

func (t *LoopbackTransport) Send(ctx context.Context, destChainId uint32, payload []byte) error {
	t.mtx.Lock()
	recv, ok := t.receivers[destChainId]
	if !ok {
		t.mtx.Unlock()
		return ErrUnknownDest
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	t.sent[destChainId] = append(t.sent[destChainId], cp)
	t.mtx.Unlock()
	return recv(ctx, cp)
}

// Sent returns every payload accepted for a destination, in send order.
func (t *LoopbackTransport) Sent(destChainId uint32) [][]byte {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return append([][]byte(nil), t.sent[destChainId]...)
}
