package indexer

import (
	"context"
	"errors"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"

	"github.com/summerfi/sumr-gov/types"
)

// ChainIndexer tails committed block results over RPC and mirrors governance
// events into sqlite for the HTTP API. It is strictly a read path: indexing
// lag never affects consensus.
type ChainIndexer struct {
	logger cmtlog.Logger
	Url    string
	Height int64

	db            *gorm.DB
	cli           *comethttp.HTTP
	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string) (*ChainIndexer, error) {
	logger = logger.With("module", "indexer")
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Proposal{}, &Vote{}, &Delegation{}, &DecayRecord{}, &Relay{}).Error; err != nil {
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := ChainIndexer{
		logger: logger,
		Url:    chainUrl,
		Height: int64(h.Height + 1),
		db:     db,
		cli:    cli,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventProposalCreatedType:   c.handleEventProposalCreated,
		types.EventVoteCastType:          c.handleEventVoteCast,
		types.EventProposalQueuedType:    c.handleEventProposalStatus,
		types.EventProposalExecutedType:  c.handleEventProposalStatus,
		types.EventProposalCancelledType: c.handleEventProposalStatus,
		types.EventDelegateChangedType:   c.handleEventDelegateChanged,
		types.EventDecayUpdatedType:      c.handleEventDecayUpdated,
		types.EventProposalSentType:      c.handleEventProposalRelay,
		types.EventProposalReceivedType:  c.handleEventProposalRelay,
	}
	return &c, nil
}

type eventHandler func(ctx context.Context, event abci.Event, height int64)

func (c *ChainIndexer) handleEvent(ctx context.Context, event abci.Event, height int64) {
	if h, ok := c.eventHandlers[event.Type]; ok {
		h(ctx, event, height)
	}
}

func (c *ChainIndexer) handleEventProposalCreated(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventProposalCreated(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	proposal := Proposal{
		Id:              ev.Id,
		Seq:             ev.Index,
		ProposerIndex:   ev.Proposer,
		ProposerAddress: ev.ProposerAddress,
		Description:     ev.Description,
		Status:          uint64(types.ProposalStatusPending),
		CreateHeight:    uint64(height),
		VoteStart:       ev.VoteStart,
		VoteEnd:         ev.VoteEnd,
	}
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventVoteCast(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventVoteCast(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	vote := Vote{
		Proposal:     ev.Id,
		VoterIndex:   ev.Voter,
		VoterAddress: ev.VoterAddress,
		Support:      ev.Support,
		Weight:       ev.Weight,
		Height:       uint64(height),
	}
	if err := c.db.Create(&vote).Error; err != nil {
		c.logger.Error("save vote fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventProposalStatus(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventProposalStatus(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	var proposal Proposal
	if err := c.db.Where("id = ?", ev.Id).First(&proposal).Error; err != nil {
		c.logger.Error("get proposal fail", "err", err)
		return
	}
	proposal.Status = ev.Status
	proposal.SettleHeight = uint64(height)
	proposal.Eta = ev.Eta
	if err := c.db.Save(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventDelegateChanged(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventDelegateChanged(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	d := Delegation{
		Id:           ev.Account,
		Address:      ev.Address,
		Delegate:     ev.NewDelegate,
		ChangeHeight: uint64(height),
	}
	if err := c.db.Save(&d).Error; err != nil {
		c.logger.Error("save delegation fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventDecayUpdated(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventDecayUpdated(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	r := DecayRecord{
		Id:           ev.Account,
		Address:      ev.Address,
		Factor:       ev.Factor,
		UpdateHeight: uint64(height),
	}
	if err := c.db.Save(&r).Error; err != nil {
		c.logger.Error("save decay record fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventProposalRelay(ctx context.Context, event abci.Event, height int64) {
	ev := types.DecodeEventProposalRelay(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	r := Relay{
		Proposal:  ev.Id,
		ChainId:   ev.ChainId,
		MessageId: ev.MessageId,
		Sender:    ev.Sender,
		Inbound:   event.Type == types.EventProposalReceivedType,
		Height:    uint64(height),
	}
	if err := c.db.Create(&r).Error; err != nil {
		c.logger.Error("save relay fail", "err", err)
	}
}

func (c *ChainIndexer) Start(ctx context.Context) {
	var err error
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.cli == nil {
				c.cli, err = comethttp.New(c.Url, "/websocket")
				if err != nil {
					c.logger.Error("connect fail", "err", err)
					continue
				}
			}
			b, err := c.cli.Status(context.TODO())
			if err != nil {
				c.logger.Error("get status fail", "err", err)
				if !c.cli.IsRunning() {
					c.cli.Stop()
					c.cli, err = comethttp.New(c.Url, "/websocket")
					if err != nil {
						c.logger.Error("reconnect fail", "err", err)
						continue
					}
				}
				continue
			}
			for b.SyncInfo.LatestBlockHeight > c.Height {
				c.logger.Info("indexer syncing", "height", c.Height)
				events, err := c.cli.BlockResults(ctx, &c.Height)
				if err != nil {
					c.logger.Error("get block results fail", "err", err)
					break
				}
				for _, res := range events.TxsResults {
					for _, event := range res.Events {
						c.handleEvent(ctx, event, c.Height)
					}
				}
				for _, event := range events.FinalizeBlockEvents {
					c.handleEvent(ctx, event, c.Height)
				}
				if err := c.db.Save(&Height{
					Id:     1,
					Height: uint64(c.Height),
				}).Error; err != nil {
					c.logger.Error("save height fail", "err", err)
					break
				}
				c.Height++
			}
		}
	}
}

func (c *ChainIndexer) getProposalById(id string) (*Proposal, error) {
	var p Proposal
	if err := c.db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *ChainIndexer) getProposals(status int64, offset, limit int) ([]Proposal, uint64, error) {
	var ps []Proposal
	var total uint64
	q := c.db.Model(&Proposal{})
	if status >= 0 {
		q = q.Where("status = ?", uint64(status))
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("seq desc").Offset(offset).Limit(limit).Find(&ps).Error; err != nil {
		return nil, 0, err
	}
	return ps, total, nil
}

func (c *ChainIndexer) getVotesByProposal(id string, offset, limit int) ([]Vote, uint64, error) {
	var vs []Vote
	var total uint64
	q := c.db.Model(&Vote{}).Where("proposal = ?", id)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("height asc").Offset(offset).Limit(limit).Find(&vs).Error; err != nil {
		return nil, 0, err
	}
	return vs, total, nil
}

func (c *ChainIndexer) getDelegation(account uint64) (*Delegation, error) {
	var d Delegation
	if err := c.db.First(&d, account).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *ChainIndexer) getRelays(proposal string, offset, limit int) ([]Relay, uint64, error) {
	var rs []Relay
	var total uint64
	q := c.db.Model(&Relay{})
	if proposal != "" {
		q = q.Where("proposal = ?", proposal)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("height asc").Offset(offset).Limit(limit).Find(&rs).Error; err != nil {
		return nil, 0, err
	}
	return rs, total, nil
}
