package state

import (
	"encoding/json"

	"github.com/cometbft/cometbft/crypto/ed25519"

	"github.com/summerfi/sumr-gov/decay"
)

// Account is one governance participant. Balance, Staked and VestingBalance
// together form the account's voting units. DecayFactor, LastDecayAt and
// DecayWindowEnd are the decay ledger record. Delegate is the single outgoing
// delegation edge (NoDelegate or self means terminal). PoolTarget/PoolWeight
// remember where and how much this account last contributed to a delegate's
// pooled votes, so contribution moves are O(1). Votes is the decay-weighted
// power pooled at this account by its delegators (itself included when
// terminal); it is the checkpointed quantity.
type Account struct {
	Index          uint64 `json:"index"`
	PubKey         []byte `json:"pubKey"`
	Nonce          uint64 `json:"nonce"`
	Balance        uint64 `json:"balance"`
	Staked         uint64 `json:"staked"`
	VestingBalance uint64 `json:"vestingBalance"`
	Delegate       uint64 `json:"delegate"`
	DecayFactor    uint64 `json:"decayFactor"`
	LastDecayAt    uint64 `json:"lastDecayAt"`
	DecayWindowEnd uint64 `json:"decayWindowEnd"`
	SmoothedFactor uint64 `json:"smoothedFactor"`
	PoolTarget     uint64 `json:"poolTarget"`
	PoolWeight     uint64 `json:"poolWeight"`
	Votes          uint64 `json:"votes"`
	Checkpoints    uint64 `json:"checkpoints"`
}

// NoDelegate marks a terminal account; real indexes start at StartAccountIdx.
const NoDelegate uint64 = 0

func (a *Account) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

func (a *Account) Unmarshal(dat []byte) error {
	return json.Unmarshal(dat, a)
}

func (a *Account) Clone() *Account {
	n := *a
	if a.PubKey != nil {
		n.PubKey = append([]byte(nil), a.PubKey...)
	}
	return &n
}

func (a *Account) SetPubKey(pkey []byte) {
	if a.PubKey == nil {
		a.PubKey = make([]byte, len(pkey))
	}
	copy(a.PubKey, pkey)
}

func (a *Account) AddrBytes() []byte {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address()[:]
}

func (a *Account) Address() string {
	if len(a.PubKey) == 0 {
		return ""
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address().String()
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs[0])
}

// VotingUnits is the raw (undecayed) weight of this account: liquid balance
// plus staked balance plus the associated vesting wallet balance.
func (a *Account) VotingUnits() uint64 {
	return a.Balance + a.Staked + a.VestingBalance
}

// Terminal reports whether this account keeps its own votes local.
func (a *Account) Terminal() bool {
	return a.Delegate == NoDelegate || a.Delegate == a.Index
}

// Contribution is the decay-weighted amount this account adds to its
// effective delegate's pool, computed from the stored factor.
func (a *Account) Contribution() uint64 {
	return decay.ApplyFactor(a.VotingUnits(), a.DecayFactor)
}
