package state

import (
	"encoding/json"
	"errors"

	"github.com/summerfi/sumr-gov/decay"
)

var (
	ErrDecayRateOutOfRange   = errors.New("decay rate out of range")
	ErrDecayWindowOutOfRange = errors.New("decay-free window out of range")
	ErrUnknownDecayFunction  = errors.New("unknown decay function")
)

const (
	// MaxDecayRatePerYear caps the yearly decay rate at 50%.
	MaxDecayRatePerYear = decay.WAD / 2

	// Decay-free window bounds in seconds.
	MinDecayFreeWindow uint64 = 3600
	MaxDecayFreeWindow uint64 = 180 * 86400
)

// GovParams are the governance-mutable decay parameters. They change only
// through executed proposals (or genesis); everything else about governance
// timing lives in the immutable node config.
type GovParams struct {
	DecayRatePerYear uint64         `json:"decayRatePerYear"`
	DecayFreeWindow  uint64         `json:"decayFreeWindow"`
	DecayFunction    decay.Function `json:"decayFunction"`
}

func DefaultGovParams() GovParams {
	return GovParams{
		DecayRatePerYear: decay.WAD / 10,
		DecayFreeWindow:  7 * 86400,
		DecayFunction:    decay.FunctionLinear,
	}
}

func ValidateDecayRate(rate uint64) error {
	if rate > MaxDecayRatePerYear {
		return ErrDecayRateOutOfRange
	}
	return nil
}

func ValidateDecayWindow(window uint64) error {
	if window < MinDecayFreeWindow || window > MaxDecayFreeWindow {
		return ErrDecayWindowOutOfRange
	}
	return nil
}

func ValidateDecayFunction(fn decay.Function) error {
	if fn != decay.FunctionLinear && fn != decay.FunctionExponential {
		return ErrUnknownDecayFunction
	}
	return nil
}

func (p *GovParams) Validate() error {
	if err := ValidateDecayRate(p.DecayRatePerYear); err != nil {
		return err
	}
	if err := ValidateDecayWindow(p.DecayFreeWindow); err != nil {
		return err
	}
	return ValidateDecayFunction(p.DecayFunction)
}

func (p *GovParams) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

func (p *GovParams) Unmarshal(dat []byte) error {
	return json.Unmarshal(dat, p)
}
