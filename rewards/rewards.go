package rewards

import (
	"errors"
	"math/big"

	"github.com/summerfi/sumr-gov/decay"
	"github.com/summerfi/sumr-gov/state"
)

var (
	ErrBadInterval = errors.New("accrual interval end precedes start")
	ErrOverflow    = errors.New("accrual exceeds uint64 range")
)

// Accounting exposes the stored account records the rewards math reads. It
// is satisfied by *state.State.
type Accounting interface {
	GetAccount(idx uint64) (*state.Account, error)
}

// Calculator derives reward accruals from staked balances, weighted by the
// smoothed decay factor. Smoothing the raw factor on the fly keeps a brief
// decay dip (refresh just after a long idle stretch) from cliffing a whole
// accrual period.
type Calculator struct {
	acct Accounting

	// emissionPerYear is the total reward emission rate in base units per
	// Julian year.
	emissionPerYear uint64

	// alpha is the WAD-scaled EMA weight used when deriving the smoothed
	// factor from the raw one.
	alpha uint64
}

func NewCalculator(acct Accounting, emissionPerYear uint64, alpha uint64) *Calculator {
	return &Calculator{
		acct:            acct,
		emissionPerYear: emissionPerYear,
		alpha:           alpha,
	}
}

// SmoothedWeight is an account's staked balance scaled by its smoothed decay
// factor. The factor is derived fresh from the current raw factor and the
// stored EMA, without touching stored state; an account that never observed
// an EMA update weighs at its raw factor.
func SmoothedWeight(a *state.Account, alpha uint64) uint64 {
	factor := decay.Smooth(a.DecayFactor, a.SmoothedFactor, alpha)
	return decay.ApplyFactor(a.Staked, factor)
}

// Earned returns the reward units idx accrues over [from, to) given the
// total smoothed weight across all stakers. A zero totalWeight means nobody
// is staked and nothing accrues.
func (c *Calculator) Earned(idx uint64, from, to uint64, totalWeight uint64) (uint64, error) {
	if to < from {
		return 0, ErrBadInterval
	}
	if totalWeight == 0 || to == from {
		return 0, nil
	}
	a, err := c.acct.GetAccount(idx)
	if err != nil {
		return 0, err
	}
	weight := SmoothedWeight(a, c.alpha)
	if weight == 0 {
		return 0, nil
	}
	// emission * elapsed * weight / (secondsPerYear * totalWeight), with
	// big.Int intermediates so the product cannot wrap.
	num := new(big.Int).SetUint64(c.emissionPerYear)
	num.Mul(num, new(big.Int).SetUint64(to-from))
	num.Mul(num, new(big.Int).SetUint64(weight))
	den := new(big.Int).SetUint64(decay.SecondsPerYear)
	den.Mul(den, new(big.Int).SetUint64(totalWeight))
	num.Quo(num, den)
	if !num.IsUint64() {
		return 0, ErrOverflow
	}
	return num.Uint64(), nil
}
