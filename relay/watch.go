package relay

import (
	"context"
	"time"

	ctypes "github.com/cometbft/cometbft/rpc/core/types"
)

// BlockSource is the slice of the cometbft RPC client the watch loop reads.
type BlockSource interface {
	Status(ctx context.Context) (*ctypes.ResultStatus, error)
	BlockResults(ctx context.Context, height *int64) (*ctypes.ResultBlockResults, error)
}

// Watch tails committed block results and dispatches every proposal_sent
// record it sees, the way the chain indexer tails events. It anchors at the
// node's height when it starts; replaying older sends after a restart is
// unnecessary because receivers dedupe by message id, and a failed dispatch
// is retried on the next send of the same proposal.
func (e *Endpoint) Watch(ctx context.Context, src BlockSource) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	height := int64(-1)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st, err := src.Status(ctx)
			if err != nil {
				e.logger.Error("get status fail", "err", err)
				continue
			}
			if height < 0 {
				height = st.SyncInfo.LatestBlockHeight
			}
			for st.SyncInfo.LatestBlockHeight > height {
				next := height + 1
				results, err := src.BlockResults(ctx, &next)
				if err != nil {
					e.logger.Error("get block results fail", "height", next, "err", err)
					break
				}
				for _, res := range results.TxsResults {
					for _, ev := range res.Events {
						if err := e.HandleEvent(ctx, ev); err != nil {
							e.logger.Error("relay dispatch fail", "height", next, "err", err)
						}
					}
				}
				for _, ev := range results.FinalizeBlockEvents {
					if err := e.HandleEvent(ctx, ev); err != nil {
						e.logger.Error("relay dispatch fail", "height", next, "err", err)
					}
				}
				height = next
			}
		}
	}
}
