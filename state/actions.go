package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/summerfi/sumr-gov/decay"
	"github.com/summerfi/sumr-gov/types"
)

// ParamsTarget is the well-known call target for governance parameter
// actions. Proposals address it the way on-chain governors address a params
// contract.
var ParamsTarget = common.HexToAddress("0x0000000000000000000000000000000000000001")

var (
	ErrUnknownTarget = errors.New("unknown call target")
	ErrUnknownAction = errors.New("unknown governance action")
)

var zeroAddressHex = common.Address{}.Hex()

const (
	ActionSetDecayRate       = "set_decay_rate"
	ActionSetDecayFreeWindow = "set_decay_free_window"
	ActionSetDecayFunction   = "set_decay_function"
	ActionSetTrustedRemote   = "set_trusted_remote"
	ActionSetGuardian        = "set_guardian"
	ActionSetDecayController = "set_decay_controller"
	ActionSetVestingBalance  = "set_vesting_balance"
)

// govAction is the JSON calldata body of a governance call. Only the fields
// the named action reads need to be present.
type govAction struct {
	Action string `json:"action"`

	Rate     uint64         `json:"rate,omitempty"`
	Window   uint64         `json:"window,omitempty"`
	Function decay.Function `json:"function,omitempty"`

	ChainId uint32 `json:"chainId,omitempty"`
	Remote  string `json:"remote,omitempty"`

	Address string `json:"address,omitempty"`
	Expiry  uint64 `json:"expiry,omitempty"`

	Account uint64 `json:"account,omitempty"`
	Grant   bool   `json:"grant,omitempty"`
	Amount  uint64 `json:"amount,omitempty"`
}

// executeCalls applies every call in a proposal batch, in order.
func (s *State) executeCalls(p *types.Proposal) error {
	for i := range p.Targets {
		if err := s.applyCall(p.Targets[i], p.Calldatas[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) applyCall(target common.Address, calldata []byte) error {
	if target != ParamsTarget {
		return ErrUnknownTarget
	}
	var act govAction
	if err := json.Unmarshal(calldata, &act); err != nil {
		return err
	}
	params, err := s.Params()
	if err != nil {
		return err
	}
	switch act.Action {
	case ActionSetDecayRate:
		if err := ValidateDecayRate(act.Rate); err != nil {
			return err
		}
		np := *params
		np.DecayRatePerYear = act.Rate
		return s.setParams(np)
	case ActionSetDecayFreeWindow:
		if err := ValidateDecayWindow(act.Window); err != nil {
			return err
		}
		np := *params
		np.DecayFreeWindow = act.Window
		return s.setParams(np)
	case ActionSetDecayFunction:
		if err := ValidateDecayFunction(act.Function); err != nil {
			return err
		}
		np := *params
		np.DecayFunction = act.Function
		return s.setParams(np)
	case ActionSetTrustedRemote:
		s.SetTrustedRemote(act.ChainId, act.Remote)
		return nil
	case ActionSetGuardian:
		if act.Address == "" || act.Address == zeroAddressHex {
			return ErrZeroAddress
		}
		s.setGuardian(act.Address, act.Expiry)
		return nil
	case ActionSetDecayController:
		return s.setDecayController(act.Account, act.Grant)
	case ActionSetVestingBalance:
		return s.setVestingBalance(act.Account, act.Amount)
	}
	return ErrUnknownAction
}

// setVestingBalance pins the vesting wallet balance associated with an
// account. Vesting units count toward voting weight but stay non-liquid.
func (s *State) setVestingBalance(idx uint64, amount uint64) error {
	a, err := s.GetAccount(idx)
	if err != nil {
		return err
	}
	if a.VestingBalance == amount {
		return nil
	}
	if _, err := s.TouchAccount(idx); err != nil {
		return err
	}
	a.VestingBalance = amount
	s.markModified(a, ModifiedFlagMod)
	return s.repool(a)
}

// SetTrustedRemote registers the trusted sender address for a remote chain.
// An empty remote clears the entry.
func (s *State) SetTrustedRemote(chainId uint32, remote string) {
	s.stageSet(fmt.Sprintf(KeyTrustedRemote, chainId), []byte(remote))
}

// TrustedRemote returns the registered sender for chainId, empty when unset.
func (s *State) TrustedRemote(chainId uint32) (string, error) {
	val, err := s.stagedGet(fmt.Sprintf(KeyTrustedRemote, chainId))
	if err != nil {
		return "", err
	}
	return string(val), nil
}
