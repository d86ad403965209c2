package tx

import (
	"errors"
)

type GovTxType uint8

const (
	GovTxTypeUnknown      GovTxType = 0
	GovTxTypeDelegate     GovTxType = 1
	GovTxTypeStake        GovTxType = 2
	GovTxTypeUnstake      GovTxType = 3
	GovTxTypePropose      GovTxType = 4
	GovTxTypeVote         GovTxType = 5
	GovTxTypeQueue        GovTxType = 6
	GovTxTypeExecute      GovTxType = 7
	GovTxTypeCancel       GovTxType = 8
	GovTxTypeRelaySend    GovTxType = 9
	GovTxTypeRelayReceive GovTxType = 10
	GovTxTypeRefresh      GovTxType = 11
)

const (
	GovTxVersion0 uint8 = 0
	GovTxVersion1 uint8 = 1
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
