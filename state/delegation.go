package state

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

// EffectiveDelegate walks the delegation chain from idx and returns the
// account that pools idx's votes plus the number of hops taken. A chain that
// would exceed MaxDelegationDepth resolves to the zero-weight sentinel
// (NoDelegate) instead of an error. A cycle stops at the last distinct
// account reached, so each member of a cycle pools along its own pointer
// rather than into a merged pool.
func (s *State) EffectiveDelegate(idx uint64) (uint64, int, error) {
	cur, err := s.GetAccount(idx)
	if err != nil {
		return 0, 0, err
	}
	visited := map[uint64]bool{idx: true}
	hops := 0
	for {
		if cur.Terminal() {
			return cur.Index, hops, nil
		}
		next := cur.Delegate
		if visited[next] {
			return cur.Index, hops, nil
		}
		if hops == MaxDelegationDepth {
			return NoDelegate, MaxDelegationDepth, nil
		}
		visited[next] = true
		cur, err = s.GetAccount(next)
		if err != nil {
			return 0, 0, err
		}
		hops++
	}
}

// ResolveChainLength returns the delegation-chain hop count, capped at
// MaxDelegationDepth.
func (s *State) ResolveChainLength(idx uint64) (int, error) {
	_, hops, err := s.EffectiveDelegate(idx)
	return hops, err
}

// repool re-resolves where an account's decay-weighted contribution belongs
// and moves it, checkpointing every delegate whose pooled votes change.
func (s *State) repool(a *Account) error {
	if a.Index == StakingBufferIdx {
		return nil
	}
	newTarget, _, err := s.EffectiveDelegate(a.Index)
	if err != nil {
		return err
	}
	newWeight := a.Contribution()
	if newTarget == a.PoolTarget && newWeight == a.PoolWeight {
		return nil
	}
	if a.PoolTarget != NoDelegate && a.PoolWeight != 0 {
		old, err := s.GetAccount(a.PoolTarget)
		if err != nil {
			return err
		}
		if err := s.setVotes(old, old.Votes-a.PoolWeight); err != nil {
			return err
		}
	}
	if newTarget != NoDelegate && newWeight != 0 {
		tgt, err := s.GetAccount(newTarget)
		if err != nil {
			return err
		}
		if err := s.setVotes(tgt, tgt.Votes+newWeight); err != nil {
			return err
		}
	}
	a.PoolTarget = newTarget
	a.PoolWeight = newWeight
	s.markModified(a, ModifiedFlagMod)
	return nil
}

// repoolUpstream re-pools every account whose chain passes through idx,
// walking the reverse index up to the delegation depth bound.
func (s *State) repoolUpstream(idx uint64, depth int) error {
	if depth > MaxDelegationDepth {
		return nil
	}
	delegators, err := s.delegatorsOf(idx)
	if err != nil {
		return err
	}
	for _, d := range delegators {
		a, err := s.GetAccount(d)
		if err != nil {
			return err
		}
		if err := s.repool(a); err != nil {
			return err
		}
		if err := s.repoolUpstream(d, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// delegatorsOf lists accounts whose outgoing edge points directly at idx.
// The reverse-index value carries a presence flag plus the delegator index,
// so staged edge changes from this block overlay the committed marks.
func (s *State) delegatorsOf(idx uint64) ([]uint64, error) {
	prefix := fmt.Sprintf("dm%v_", idx)
	start := []byte(prefix)
	end := PrefixEndBytes(start)
	it, err := s.db.Iterator(start, end, false)
	if err != nil {
		return nil, err
	}
	present := make(map[uint64]bool)
	for ; it.Valid(); it.Next() {
		from, ok := decodeDelegatorMark(it.Value())
		if !ok {
			continue
		}
		present[from] = true
	}
	for key, val := range s.pending {
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			continue
		}
		from, ok := decodeDelegatorMark(val)
		if ok {
			present[from] = true
		} else if from, ok = decodeDelegatorTombstone(val); ok {
			delete(present, from)
		}
	}
	out := make([]uint64, 0, len(present))
	for d := range present {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func encodeDelegatorMark(from uint64, present bool) []byte {
	val := make([]byte, 9)
	if present {
		val[0] = 1
	}
	binary.BigEndian.PutUint64(val[1:], from)
	return val
}

func decodeDelegatorMark(val []byte) (uint64, bool) {
	if len(val) != 9 || val[0] != 1 {
		return 0, false
	}
	return binary.BigEndian.Uint64(val[1:]), true
}

func decodeDelegatorTombstone(val []byte) (uint64, bool) {
	if len(val) != 9 || val[0] != 0 {
		return 0, false
	}
	return binary.BigEndian.Uint64(val[1:]), true
}

func (s *State) setDelegatorMark(to, from uint64, present bool) {
	s.stageSet(fmt.Sprintf(KeyDelegatorMark, to, from), encodeDelegatorMark(from, present))
}

// Delegate applies a delegation transaction: refreshes the delegator's decay
// (delegation resets the decay clock), rewires the edge, and re-pools the
// delegator plus everyone upstream of it.
func (s *State) Delegate(dtx *tx.DelegateTx, caller uint64, checkOnly bool) (event *types.EventDelegateChanged, err error) {
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	if dtx.Delegatee == NoDelegate && a.Staked > 0 {
		return nil, ErrCannotUndelegateWhileStaked
	}
	if dtx.Delegatee != NoDelegate && dtx.Delegatee != caller {
		if _, err := s.GetAccount(dtx.Delegatee); err != nil {
			return nil, ErrDelegateNoexists
		}
	}
	if checkOnly {
		return nil, nil
	}

	if _, err := s.TouchAccount(caller); err != nil {
		return nil, err
	}

	old := a.Delegate
	if old != NoDelegate && old != caller {
		s.setDelegatorMark(old, caller, false)
	}
	a.Delegate = dtx.Delegatee
	if dtx.Delegatee != NoDelegate && dtx.Delegatee != caller {
		s.setDelegatorMark(dtx.Delegatee, caller, true)
	}
	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)

	if err := s.repool(a); err != nil {
		return nil, err
	}
	if err := s.repoolUpstream(caller, 1); err != nil {
		return nil, err
	}

	event = &types.EventDelegateChanged{
		Account:     caller,
		Address:     a.Address(),
		OldDelegate: old,
		NewDelegate: dtx.Delegatee,
	}
	return event, nil
}

// Stake moves liquid balance into the staking buffer and credits the staked
// balance. Voting units are unchanged (balance and stake both count), and
// the buffer's custody balance never checkpoints.
func (s *State) Stake(stx *tx.StakeTx, caller uint64, checkOnly bool) (err error) {
	a, err := s.GetAccount(caller)
	if err != nil {
		return err
	}
	if stx.Amount == 0 || a.Balance < stx.Amount {
		return ErrInsufficientBalance
	}
	if checkOnly {
		return nil
	}
	if _, err := s.TouchAccount(caller); err != nil {
		return err
	}
	buffer, err := s.ensureBufferAccount()
	if err != nil {
		return err
	}
	a.Balance -= stx.Amount
	a.Staked += stx.Amount
	buffer.Balance += stx.Amount
	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)
	s.markModified(buffer, ModifiedFlagMod)
	// units unchanged, but stake may have been the first unit-bearing event
	return s.repool(a)
}

// Unstake returns staked balance to the account's liquid balance.
func (s *State) Unstake(utx *tx.UnstakeTx, caller uint64, checkOnly bool) (err error) {
	a, err := s.GetAccount(caller)
	if err != nil {
		return err
	}
	if utx.Amount == 0 || a.Staked < utx.Amount {
		return ErrInsufficientStake
	}
	if checkOnly {
		return nil
	}
	if _, err := s.TouchAccount(caller); err != nil {
		return err
	}
	buffer, err := s.ensureBufferAccount()
	if err != nil {
		return err
	}
	a.Staked -= utx.Amount
	a.Balance += utx.Amount
	if buffer.Balance >= utx.Amount {
		buffer.Balance -= utx.Amount
	}
	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)
	s.markModified(buffer, ModifiedFlagMod)
	return s.repool(a)
}
