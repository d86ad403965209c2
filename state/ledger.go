package state

import (
	"fmt"

	"github.com/summerfi/sumr-gov/decay"
	"github.com/summerfi/sumr-gov/tx"
	"github.com/summerfi/sumr-gov/types"
)

// initDecayRecord anchors a fresh account's decay clock at the chain's
// current time with a full factor.
func (s *State) initDecayRecord(a *Account) {
	a.DecayFactor = decay.WAD
	a.LastDecayAt = s.header.Time
	params, err := s.Params()
	if err == nil {
		a.DecayWindowEnd = s.header.Time + params.DecayFreeWindow
	}
}

// GetFactor is a pure read of the stored decay factor. It never refreshes;
// callers that need freshness refresh explicitly first.
func (s *State) GetFactor(idx uint64) (uint64, error) {
	a, err := s.GetAccount(idx)
	if err != nil {
		return 0, err
	}
	return a.DecayFactor, nil
}

// RefreshDecay advances an account's decay to the chain's current time.
// Within the decay-free window it is a no-op, which also makes a second call
// at the same instant idempotent. A factor change moves the account's pooled
// contribution and checkpoints the affected delegate.
func (s *State) RefreshDecay(idx uint64) (event *types.EventDecayUpdated, err error) {
	a, err := s.GetAccount(idx)
	if err != nil {
		return nil, err
	}
	now := s.header.Time
	if now <= a.DecayWindowEnd {
		return nil, nil
	}
	params, err := s.Params()
	if err != nil {
		return nil, err
	}
	// decay accrues only once the decay-free window is behind us
	from := a.LastDecayAt
	if a.DecayWindowEnd > from {
		from = a.DecayWindowEnd
	}
	elapsed := now - from
	newFactor := decay.Factor(a.DecayFactor, elapsed, params.DecayRatePerYear, params.DecayFunction)
	a.LastDecayAt = now
	a.DecayWindowEnd = now + params.DecayFreeWindow
	changed := newFactor != a.DecayFactor
	a.DecayFactor = newFactor
	s.markModified(a, ModifiedFlagMod)
	if changed {
		if err := s.repool(a); err != nil {
			return nil, err
		}
	}
	event = &types.EventDecayUpdated{
		Account: a.Index,
		Address: a.Address(),
		Factor:  a.DecayFactor,
		Height:  s.header.Height,
	}
	return event, nil
}

// UpdateSmoothedFactor folds the current raw factor into the stored EMA.
// Handlers call this right after the decay refresh, in that order.
func (s *State) UpdateSmoothedFactor(idx uint64) error {
	a, err := s.GetAccount(idx)
	if err != nil {
		return err
	}
	smoothed := decay.Smooth(a.DecayFactor, a.SmoothedFactor, s.cfg.SmoothingAlpha)
	if smoothed != a.SmoothedFactor {
		a.SmoothedFactor = smoothed
		s.markModified(a, ModifiedFlagMod)
	}
	return nil
}

// TouchAccount runs the fixed pre-operation sequence for an account: decay
// refresh first, then the rewards smoothing update.
func (s *State) TouchAccount(idx uint64) (*types.EventDecayUpdated, error) {
	event, err := s.RefreshDecay(idx)
	if err != nil {
		return nil, err
	}
	if err := s.UpdateSmoothedFactor(idx); err != nil {
		return nil, err
	}
	return event, nil
}

// HasDecayController reports whether the account holds the decay controller
// capability required for explicit refresh transactions.
func (s *State) HasDecayController(idx uint64) (bool, error) {
	val, err := s.stagedGet(fmt.Sprintf(KeyDecayController, idx))
	if err != nil {
		return false, err
	}
	return len(val) > 0 && val[0] == 1, nil
}

func (s *State) setDecayController(idx uint64, grant bool) error {
	if _, err := s.GetAccount(idx); err != nil {
		return err
	}
	flag := byte(0)
	if grant {
		flag = 1
	}
	s.stageSet(fmt.Sprintf(KeyDecayController, idx), []byte{flag})
	return nil
}

// Refresh is the explicit decay refresh operation, restricted to decay
// controller capability holders.
func (s *State) Refresh(rtx *tx.RefreshTx, caller uint64, checkOnly bool) (event *types.EventDecayUpdated, err error) {
	ok, err := s.HasDecayController(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotController
	}
	a, err := s.GetAccount(caller)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetAccount(rtx.Target); err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}
	event, err = s.TouchAccount(rtx.Target)
	if err != nil {
		return nil, err
	}
	a.Nonce += 1
	s.markModified(a, ModifiedFlagMod)
	return event, nil
}
