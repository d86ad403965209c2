package types

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	ErrEmptyRelayPayload   = errors.New("relay payload has no calls")
	ErrRelayLengthMismatch = errors.New("relay call arrays length mismatch")
)

// RelayMessage carries one executed proposal's call set from the hub chain to
// a satellite. MessageId is content-derived and re-checked on receipt, so a
// relay that substitutes or reorders payload fields is always detected.
type RelayMessage struct {
	SrcChainId      uint32           `json:"srcChainId"`
	SrcSender       common.Address   `json:"srcSender"`
	ProposalId      common.Hash      `json:"proposalId"`
	Targets         []common.Address `json:"targets"`
	Values          []uint64         `json:"values"`
	Calldatas       [][]byte         `json:"calldatas"`
	DescriptionHash common.Hash      `json:"descriptionHash"`
	MessageId       common.Hash      `json:"messageId"`
}

type relayDigest struct {
	SrcChainId      uint32
	SrcSender       common.Address
	ProposalId      common.Hash
	Targets         []common.Address
	Values          []uint64
	Calldatas       [][]byte
	DescriptionHash common.Hash
}

// ComputeMessageId derives the content-addressed id over every field of the
// message plus its origin.
func (m *RelayMessage) ComputeMessageId() common.Hash {
	enc, err := rlp.EncodeToBytes(&relayDigest{
		SrcChainId:      m.SrcChainId,
		SrcSender:       m.SrcSender,
		ProposalId:      m.ProposalId,
		Targets:         m.Targets,
		Values:          m.Values,
		Calldatas:       m.Calldatas,
		DescriptionHash: m.DescriptionHash,
	})
	if err != nil {
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}

// Validate rejects structurally malformed messages before any state is read.
func (m *RelayMessage) Validate() error {
	if len(m.Targets) == 0 {
		return ErrEmptyRelayPayload
	}
	if len(m.Targets) != len(m.Values) || len(m.Targets) != len(m.Calldatas) {
		return ErrRelayLengthMismatch
	}
	return nil
}

// EncodeRelayMessage produces the wire form handed to the transport.
func EncodeRelayMessage(m *RelayMessage) ([]byte, error) {
	return rlp.EncodeToBytes(m)
}

// DecodeRelayMessage parses a transport payload. It performs no trust or
// integrity checks; those belong to the receiving endpoint.
func DecodeRelayMessage(dat []byte) (*RelayMessage, error) {
	m := new(RelayMessage)
	if err := rlp.DecodeBytes(dat, m); err != nil {
		return nil, err
	}
	return m, nil
}
