package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

var (
	ErrThresholdOutOfBand  = errors.New("proposal threshold outside allowed band")
	ErrInvalidVotingPeriod = errors.New("voting period must be positive")
	ErrInvalidAlpha        = errors.New("smoothing alpha must be a WAD fraction")
	ErrMissingHubChain     = errors.New("satellite requires a hub chain id")
)

const (
	// Proposal threshold band, validated once at construction.
	MinProposalThreshold uint64 = 1_000
	MaxProposalThreshold uint64 = 100_000_000

	// WAD fixed-point scale, mirrored here to keep config self-contained.
	wad uint64 = 1e18
)

// GovConfig is the immutable governance configuration of a node, fixed at
// deployment and read-only thereafter. Durations are in seconds of chain
// time, amounts in base voting units.
type GovConfig struct {
	// Hub marks the chain that accepts proposals and votes; satellites only
	// execute relayed, already-approved actions.
	Hub bool `mapstructure:"hub"`
	// EndpointChainId identifies this chain to the relay transport.
	EndpointChainId uint32 `mapstructure:"endpoint_chain_id"`
	// HubChainId is the chain satellites accept relayed proposals from.
	HubChainId uint32 `mapstructure:"hub_chain_id"`

	VotingDelay       uint64 `mapstructure:"voting_delay"`
	VotingPeriod      uint64 `mapstructure:"voting_period"`
	TimelockDelay     uint64 `mapstructure:"timelock_delay"`
	GracePeriod       uint64 `mapstructure:"grace_period"`
	ProposalThreshold uint64 `mapstructure:"proposal_threshold"`
	Quorum            uint64 `mapstructure:"quorum"`

	// SmoothingAlpha is the EMA weight for rewards smoothing, WAD-scaled.
	SmoothingAlpha uint64 `mapstructure:"smoothing_alpha"`
}

func DefaultGovConfig() *GovConfig {
	return &GovConfig{
		Hub:               true,
		EndpointChainId:   1,
		HubChainId:        1,
		VotingDelay:       1,
		VotingPeriod:      3 * 86400,
		TimelockDelay:     2 * 86400,
		GracePeriod:       14 * 86400,
		ProposalThreshold: 100_000,
		Quorum:            1_000_000,
		SmoothingAlpha:    wad / 5,
	}
}

func (c *GovConfig) Validate() error {
	if c.ProposalThreshold < MinProposalThreshold || c.ProposalThreshold > MaxProposalThreshold {
		return ErrThresholdOutOfBand
	}
	if c.VotingPeriod == 0 {
		return ErrInvalidVotingPeriod
	}
	if c.SmoothingAlpha == 0 || c.SmoothingAlpha > wad {
		return ErrInvalidAlpha
	}
	if !c.Hub && c.HubChainId == 0 {
		return ErrMissingHubChain
	}
	return nil
}

// RelayConfig wires the outbound relay endpoint of a hub node. An empty
// destination set disables dispatch.
type RelayConfig struct {
	// KeyFile is the priv-validator key signing the relay-receive
	// transactions submitted to satellites, relative to the node home.
	KeyFile string `mapstructure:"key_file"`
	// Fee is the flat fee the transport quotes per dispatch, in base units.
	Fee uint64 `mapstructure:"fee"`
	// Destinations maps satellite chain ids to their RPC endpoints.
	Destinations map[string]string `mapstructure:"destinations"`
}

// GovAppConfig is the application section of the node configuration.
type GovAppConfig struct {
	Home          string `mapstructure:"-"`
	TimeoutCommit uint64 `mapstructure:"-"`

	Gov   *GovConfig   `mapstructure:"gov"`
	Relay *RelayConfig `mapstructure:"relay"`
	// IndexerListen is the HTTP listen address of the event indexer; empty
	// disables it.
	IndexerListen string `mapstructure:"indexer_listen"`
}

func DefaultGovAppConfig(home string) *GovAppConfig {
	return &GovAppConfig{
		Home:          home,
		Gov:           DefaultGovConfig(),
		Relay:         &RelayConfig{KeyFile: "config/priv_validator_key.json"},
		IndexerListen: "127.0.0.1:8547",
	}
}

func GWeiPerPower(height uint64) uint64 {
	return 1000000000
}

func PowerPerStake(stake uint64, height uint64) int64 {
	return int64(stake / GWeiPerPower(height))
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *GovAppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.sgov")
	}
	config := &Config{
		DefaultCometConfig(),
		DefaultGovAppConfig(home),
	}
	config.RootDir = home
	_ = os.MkdirAll(home+"/config", 0755)
	return config
}

func NewConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.sgov")
	}
	_ = os.MkdirAll(home+"/config", 0755)
	config := &Config{
		DefaultCometConfig(),
		DefaultGovAppConfig(home),
	}
	config.RootDir = home
	return config
}

func DefaultCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 10
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func InitializeNodeOnly(config *Config) {
	_, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return
	}

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return
	}
	privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	os.Remove(pvKeyFile)
}
