package state

import (
	"encoding/json"
	"fmt"

	"github.com/summerfi/sumr-gov/types"
)

// setVotes records a new pooled vote total for a, writing a checkpoint so the
// change becomes visible to GetPastVotes at later timestamps. The staking
// buffer account holds custody balances only and is never checkpointed.
func (s *State) setVotes(a *Account, votes uint64) error {
	if a.Votes == votes {
		return nil
	}
	a.Votes = votes
	s.markModified(a, ModifiedFlagMod)
	if a.Index == StakingBufferIdx {
		return nil
	}
	return s.checkpoint(a)
}

// checkpoint appends a (block time, votes) observation for a. Repeated vote
// changes within one block overwrite the same slot, so the sequence stays
// strictly increasing in timestamp.
func (s *State) checkpoint(a *Account) error {
	cp := types.Checkpoint{Timestamp: s.header.Time, Votes: a.Votes}
	if a.Checkpoints > 0 {
		last, err := s.getCheckpoint(a.Index, a.Checkpoints-1)
		if err != nil {
			return err
		}
		if last.Timestamp == cp.Timestamp {
			return s.putCheckpoint(a.Index, a.Checkpoints-1, cp)
		}
	}
	if err := s.putCheckpoint(a.Index, a.Checkpoints, cp); err != nil {
		return err
	}
	a.Checkpoints++
	s.markModified(a, ModifiedFlagMod)
	return nil
}

func (s *State) putCheckpoint(idx, seq uint64, cp types.Checkpoint) error {
	val, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	s.stageSet(fmt.Sprintf(KeyCheckpoint, idx, seq), val)
	return nil
}

func (s *State) getCheckpoint(idx, seq uint64) (types.Checkpoint, error) {
	var cp types.Checkpoint
	val, err := s.stagedGet(fmt.Sprintf(KeyCheckpoint, idx, seq))
	if err != nil {
		return cp, err
	}
	if val == nil {
		return cp, ErrCheckpointNoexists
	}
	err = json.Unmarshal(val, &cp)
	return cp, err
}

// GetVotes returns the current pooled voting weight of idx: the sum of
// decay-weighted contributions from every account whose delegation chain
// resolves to idx, including its own when it is terminal.
func (s *State) GetVotes(idx uint64) (uint64, error) {
	a, err := s.GetAccount(idx)
	if err != nil {
		return 0, err
	}
	return a.Votes, nil
}

// GetPastVotes returns the pooled voting weight of idx as of timestamp ts.
// Lookups at or past the current block time are rejected so results stay
// stable against in-flight changes.
func (s *State) GetPastVotes(idx uint64, ts uint64) (uint64, error) {
	if ts >= s.header.Time {
		return 0, ErrFutureLookup
	}
	a, err := s.GetAccount(idx)
	if err != nil {
		return 0, err
	}
	// last checkpoint with Timestamp <= ts
	lo, hi := uint64(0), a.Checkpoints
	for lo < hi {
		mid := (lo + hi) / 2
		cp, err := s.getCheckpoint(idx, mid)
		if err != nil {
			return 0, err
		}
		if cp.Timestamp <= ts {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return 0, nil
	}
	cp, err := s.getCheckpoint(idx, lo-1)
	if err != nil {
		return 0, err
	}
	return cp.Votes, nil
}
