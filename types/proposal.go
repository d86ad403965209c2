package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// ProposalStatus follows the governor lifecycle. Pending, Active, Defeated,
// Succeeded and Expired are derived from the stored base status and the chain
// clock; Queued, Executed and Cancelled are stored explicitly.
type ProposalStatus uint8

const (
	ProposalStatusPending   ProposalStatus = 0
	ProposalStatusActive    ProposalStatus = 1
	ProposalStatusDefeated  ProposalStatus = 2
	ProposalStatusSucceeded ProposalStatus = 3
	ProposalStatusQueued    ProposalStatus = 4
	ProposalStatusExecuted  ProposalStatus = 5
	ProposalStatusCancelled ProposalStatus = 6
	ProposalStatusExpired   ProposalStatus = 7
)

func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusPending:
		return "pending"
	case ProposalStatusActive:
		return "active"
	case ProposalStatusDefeated:
		return "defeated"
	case ProposalStatusSucceeded:
		return "succeeded"
	case ProposalStatusQueued:
		return "queued"
	case ProposalStatusExecuted:
		return "executed"
	case ProposalStatusCancelled:
		return "cancelled"
	case ProposalStatusExpired:
		return "expired"
	}
	return "unknown"
}

// VoteSupport is the ballot option for a cast vote.
type VoteSupport uint8

const (
	VoteAgainst VoteSupport = 0
	VoteFor     VoteSupport = 1
	VoteAbstain VoteSupport = 2
)

// Proposal is the stored governance proposal record. Id is content-derived;
// Index is a chain-local sequence number kept for indexers.
type Proposal struct {
	Id              common.Hash      `json:"id"`
	Index           uint64           `json:"index"`
	Proposer        uint64           `json:"proposer"`
	ProposerAddress string           `json:"proposerAddress"`
	Targets         []common.Address `json:"targets"`
	Values          []uint64         `json:"values"`
	Calldatas       [][]byte         `json:"calldatas"`
	Description     string           `json:"description"`
	DescriptionHash common.Hash      `json:"descriptionHash"`
	Status          ProposalStatus   `json:"status"`
	CreatedAt       uint64           `json:"createdAt"`
	VoteStart       uint64           `json:"voteStart"`
	VoteEnd         uint64           `json:"voteEnd"`
	Eta             uint64           `json:"eta"`
	ForVotes        uint64           `json:"forVotes"`
	AgainstVotes    uint64           `json:"againstVotes"`
	AbstainVotes    uint64           `json:"abstainVotes"`
	// Relayed marks proposals created by the cross-chain receive path; they
	// were timelocked on the hub and skip local queuing.
	Relayed bool `json:"relayed"`
}

// VoteReceipt records a single cast ballot per (proposal, voter).
type VoteReceipt struct {
	Proposal     common.Hash `json:"proposal"`
	Voter        uint64      `json:"voter"`
	VoterAddress string      `json:"voterAddress"`
	Support      VoteSupport `json:"support"`
	Weight       uint64      `json:"weight"`
	Height       uint64      `json:"height"`
}

// Checkpoint is an immutable (timestamp, weighted votes) observation for one
// account. Sequences are append-only with non-decreasing timestamps.
type Checkpoint struct {
	Timestamp uint64 `json:"timestamp"`
	Votes     uint64 `json:"votes"`
}

type proposalDigest struct {
	Targets         []common.Address
	Values          []uint64
	Calldatas       [][]byte
	DescriptionHash common.Hash
}

// HashDescription derives the descriptionHash of a proposal's free text.
func HashDescription(description string) common.Hash {
	return crypto.Keccak256Hash([]byte(description))
}

// HashProposal derives the deterministic proposal id. Identical call sets and
// description hashes produce identical ids on every chain, which the relay
// and off-chain tooling both rely on.
func HashProposal(targets []common.Address, values []uint64, calldatas [][]byte, descriptionHash common.Hash) common.Hash {
	enc, err := rlp.EncodeToBytes(&proposalDigest{
		Targets:         targets,
		Values:          values,
		Calldatas:       calldatas,
		DescriptionHash: descriptionHash,
	})
	if err != nil {
		// the digest struct contains only RLP-encodable fields
		panic(err)
	}
	return crypto.Keccak256Hash(enc)
}
