package tx

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// GovTx is the signed transaction envelope. Tx holds a pointer to one of the
// typed bodies below; Type selects which one during unmarshal.
type GovTx struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Account uint64    `json:"account"`
	Tx      any       `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

// DelegateTx points the sender's delegation at Delegatee. Zero clears the
// delegation, which is refused while the sender has staked balance.
type DelegateTx struct {
	Delegatee uint64 `json:"delegatee"`
}

type StakeTx struct {
	Amount uint64 `json:"amount"`
}

type UnstakeTx struct {
	Amount uint64 `json:"amount"`
}

// ProposeTx submits a call batch for governance. Targets, Values and
// Calldatas must have equal nonzero length.
type ProposeTx struct {
	Targets     []common.Address `json:"targets"`
	Values      []uint64         `json:"values"`
	Calldatas   [][]byte         `json:"calldatas"`
	Description string           `json:"description"`
}

type VoteTx struct {
	ProposalId common.Hash `json:"proposalId"`
	Support    uint8       `json:"support"`
}

type QueueTx struct {
	ProposalId common.Hash `json:"proposalId"`
}

type ExecuteTx struct {
	ProposalId common.Hash `json:"proposalId"`
}

type CancelTx struct {
	ProposalId common.Hash `json:"proposalId"`
}

// RelayTx sends an already queued-and-ready proposal to a satellite chain.
type RelayTx struct {
	DestChainId uint32      `json:"destChainId"`
	ProposalId  common.Hash `json:"proposalId"`
}

// RelayReceiveTx carries an inbound cross-chain message. Payload is the
// RLP-encoded relay message; origin fields are reported by the transport and
// verified against the trusted-remote table.
type RelayReceiveTx struct {
	SrcChainId uint32 `json:"srcChainId"`
	SrcSender  string `json:"srcSender"`
	Payload    []byte `json:"payload"`
}

// RefreshTx forces a decay refresh of Target. Restricted to decay controller
// capability holders.
type RefreshTx struct {
	Target uint64 `json:"target"`
}

type govTxTmpl[Tx any] struct {
	Version uint8     `json:"version"`
	Type    GovTxType `json:"type"`
	Nonce   uint64    `json:"nonce"`
	Account uint64    `json:"account"`
	Tx      Tx        `json:"tx"`
	Sig     [][]byte  `json:"sig"`
}

// SigData is the byte string a signature covers: the envelope with the
// signature slot replaced by ext (normally the chain id).
func (tx *GovTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseGovTxHead(dat []byte) (tp GovTxType, version uint8) {
	var tx struct {
		Version uint8     `json:"version"`
		Type    GovTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return GovTxTypeUnknown, 0
	}
	return tx.Type, tx.Version
}

func unmarshalGovTx[Tx any](dat []byte) (btx *GovTx, err error) {
	var txt govTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	btx = new(GovTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Account = txt.Account
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalGovTx(dat []byte) (btx *GovTx, err error) {
	tp, version := parseGovTxHead(dat)
	if version > GovTxVersion1 {
		return nil, ErrUnsupportedTxVersion
	}
	switch tp {
	case GovTxTypeDelegate:
		return unmarshalGovTx[DelegateTx](dat)
	case GovTxTypeStake:
		return unmarshalGovTx[StakeTx](dat)
	case GovTxTypeUnstake:
		return unmarshalGovTx[UnstakeTx](dat)
	case GovTxTypePropose:
		return unmarshalGovTx[ProposeTx](dat)
	case GovTxTypeVote:
		return unmarshalGovTx[VoteTx](dat)
	case GovTxTypeQueue:
		return unmarshalGovTx[QueueTx](dat)
	case GovTxTypeExecute:
		return unmarshalGovTx[ExecuteTx](dat)
	case GovTxTypeCancel:
		return unmarshalGovTx[CancelTx](dat)
	case GovTxTypeRelaySend:
		return unmarshalGovTx[RelayTx](dat)
	case GovTxTypeRelayReceive:
		return unmarshalGovTx[RelayReceiveTx](dat)
	case GovTxTypeRefresh:
		return unmarshalGovTx[RefreshTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalGovTx(btx *GovTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
