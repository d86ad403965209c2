package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
)

type GenesisState map[string]json.RawMessage

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisGovState seeds the governance portion of the application state:
// decay parameters, guardian grants and trusted relay remotes.
type GenesisGovState struct {
	DecayRatePerYear uint64            `json:"decay_rate_per_year"`
	DecayFreeWindow  uint64            `json:"decay_free_window"`
	DecayFunction    uint8             `json:"decay_function"`
	Guardians        map[string]uint64 `json:"guardians,omitempty"`       // address -> expiry
	TrustedRemotes   map[uint32]string `json:"trusted_remotes,omitempty"` // chain id -> sender address
}

// GenesisDoc defines the initial conditions for a governance chain, in
// particular its validator set and governance parameters.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenesisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

const GovModuleName = "sumrgov"
const DefaultPower = 1000

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
)
