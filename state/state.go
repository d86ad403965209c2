package state

import (
	"bytes"
	"container/heap"
	"errors"
	"fmt"
	"sort"

	abci_types "github.com/cometbft/cometbft/abci/types"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/summerfi/sumr-gov/config"
	"github.com/summerfi/sumr-gov/tx"
)

const (
	StartAccountIdx = 65536

	// StakingBufferIdx is the internal custody account holding staked tokens.
	// It never pools votes and its balance changes never checkpoint.
	StakingBufferIdx uint64 = 1

	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1
	ModifiedFlagPK  = 1 << 2

	MaxValidators = 100

	// MaxDelegationDepth bounds delegation-chain traversal. Chains that would
	// exceed it resolve to zero voting weight instead of erroring.
	MaxDelegationDepth = 2
)

var (
	ErrNotFound = errors.New("not found")
)

var (
	KeyState           = "s"
	KeyAccountIndex    = "i%s"
	KeyAccountBody     = "a%x"
	KeyParams          = "gp"
	KeyProposalBody    = "p%x"
	KeyProposalSeq     = "ps%v"
	KeyProposalCount   = "pc"
	KeyCheckpoint      = "c%v_%v"
	KeyVoteReceipt     = "v%x_%v"
	KeyTrustedRemote   = "tr%v"
	KeyRelaySent       = "rs%v_%x"
	KeyRelayReceived   = "rr%x"
	KeyGuardian        = "gd%s"
	KeyDecayController = "dc%v"
	KeyDelegatorMark   = "dm%v_%v"
)

var (
	ErrTxAccountNoexists            = errors.New("account noexists")
	ErrTxNonceInvalid               = errors.New("nonce invalid")
	ErrTxSigInvalid                 = errors.New("signature invalid")
	ErrAccountAlreadyExists         = errors.New("account already exists")
	ErrZeroAddress                  = errors.New("zero address where a real account is required")
	ErrNotController                = errors.New("caller lacks decay controller capability")
	ErrCannotUndelegateWhileStaked  = errors.New("cannot undelegate while staked")
	ErrDelegateNoexists             = errors.New("delegate account noexists")
	ErrInsufficientBalance          = errors.New("insufficient balance")
	ErrInsufficientStake            = errors.New("insufficient staked balance")
	ErrFutureLookup                 = errors.New("lookup timestamp is not in the past")
	ErrOneActionInOneBlock          = errors.New("one action in one block")
	ErrHubOnly                      = errors.New("operation is hub-chain only")
	ErrSatelliteOnly                = errors.New("operation is satellite-chain only")
	ErrCheckpointNoexists           = errors.New("checkpoint noexists")
	ErrProposalNoexists             = errors.New("proposal noexists")
	ErrProposalAlreadyExists        = errors.New("proposal already exists")
	ErrProposalNotActive            = errors.New("proposal is not active")
	ErrProposalWrongStatus          = errors.New("proposal status does not permit this operation")
	ErrAlreadyVoted                 = errors.New("account already voted on this proposal")
	ErrBelowThreshold               = errors.New("proposer votes below threshold")
	ErrTimelockNotReady             = errors.New("timelock delay has not elapsed")
	ErrUntrustedRemote              = errors.New("relay origin is not a trusted remote")
	ErrRelayReplay                  = errors.New("relay message already received")
	ErrRelayIdMismatch              = errors.New("relay message id does not match payload")
	ErrNotAuthorized                = errors.New("caller not authorized")
)

// State is one speculative or finalized view of the governance application
// state over the iavl working tree. All mutations stay in memory until
// Update flushes them; SaveVersion in save commits a block.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64
	cfg    *config.GovConfig

	header     *StateHeader
	validators []abci_types.ValidatorUpdate
	idxs       map[string]uint64
	acnts      map[uint64]*Account

	modifiedAcnts map[uint64]uint32
	params        *GovParams
	paramsDirty   bool
	proposalCount uint64
	countDirty    bool
	// pending stages every non-account write (proposals, checkpoints,
	// receipts, relay flags, roles) keyed by the final db key.
	pending map[string][]byte
}

func newState(db *iavl.MutableTree, cfg *config.GovConfig, logger cmtlog.Logger) *State {
	s := &State{
		logger:        logger,
		db:            db,
		dbVer:         0,
		cfg:           cfg,
		header:        new(StateHeader),
		validators:    []abci_types.ValidatorUpdate{},
		idxs:          make(map[string]uint64),
		acnts:         make(map[uint64]*Account),
		modifiedAcnts: make(map[uint64]uint32),
		pending:       make(map[string][]byte),
	}
	s.header.AccountIdx = StartAccountIdx
	return s
}

func (s *State) nextState() *State {
	n := &State{
		logger:        s.logger,
		db:            s.db,
		dbVer:         s.dbVer,
		cfg:           s.cfg,
		idxs:          make(map[string]uint64),
		acnts:         make(map[uint64]*Account),
		modifiedAcnts: make(map[uint64]uint32),
		params:        s.params,
		proposalCount: s.proposalCount,
		pending:       make(map[string][]byte),
	}
	n.header = s.header.Clone()
	if s.header.GetHash() != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

// Clone produces an isolated copy used for speculative per-tx execution
// during block preparation.
func (s *State) Clone() *State {
	n := &State{
		logger:        s.logger,
		db:            s.db,
		dbVer:         s.dbVer,
		cfg:           s.cfg,
		header:        s.header.Clone(),
		validators:    append([]abci_types.ValidatorUpdate(nil), s.validators...),
		idxs:          make(map[string]uint64, len(s.idxs)),
		acnts:         make(map[uint64]*Account, len(s.acnts)),
		modifiedAcnts: make(map[uint64]uint32, len(s.modifiedAcnts)),
		params:        s.params,
		paramsDirty:   s.paramsDirty,
		proposalCount: s.proposalCount,
		countDirty:    s.countDirty,
		pending:       make(map[string][]byte, len(s.pending)),
	}
	for k, v := range s.idxs {
		n.idxs[k] = v
	}
	for k, v := range s.acnts {
		n.acnts[k] = v.Clone()
	}
	for k, v := range s.modifiedAcnts {
		n.modifiedAcnts[k] = v
	}
	for k, v := range s.pending {
		n.pending[k] = v
	}
	if s.params != nil {
		p := *s.params
		n.params = &p
	}
	return n
}

// SetTime anchors the chain clock for this block's execution.
func (s *State) SetTime(t uint64) {
	s.header.Time = t
}

// Now is the chain clock: the current block's timestamp.
func (s *State) Now() uint64 {
	return s.header.Time
}

func (s *State) Config() *config.GovConfig {
	return s.cfg
}

func (s *State) load() (err error) {
	val, err := s.stagedGet(KeyProposalCount)
	if err != nil {
		return err
	}
	if val != nil {
		if err := rlp.DecodeBytes(val, &s.proposalCount); err != nil {
			return err
		}
	}
	val, err = s.db.Get([]byte(KeyState))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return err
	}
	if val != nil {
		err = s.header.Unmarshal(val)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

// Params returns the governance-mutable decay parameters, loading them on
// first use and defaulting when unset.
func (s *State) Params() (*GovParams, error) {
	if s.params != nil {
		return s.params, nil
	}
	val, err := s.stagedGet(KeyParams)
	if err != nil {
		return nil, err
	}
	p := DefaultGovParams()
	if val != nil {
		if err := p.Unmarshal(val); err != nil {
			return nil, err
		}
	}
	s.params = &p
	return s.params, nil
}

func (s *State) setParams(p GovParams) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = &p
	s.paramsDirty = true
	return nil
}

// stagedGet reads through the pending overlay into the working tree.
func (s *State) stagedGet(key string) ([]byte, error) {
	if val, ok := s.pending[key]; ok {
		return val, nil
	}
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return val, nil
}

func (s *State) stageSet(key string, val []byte) {
	s.pending[key] = val
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		if s.header.RootHash == nil {
			s.header.RootHash = make([]byte, len(rootHash))
		}
		copy(s.header.RootHash, rootHash)
		if s.header.Hash == nil {
			s.header.Hash = make([]byte, len(h))
		}
		copy(s.header.Hash, h[:])
	}
	return
}

// Update flushes all staged mutations into the working tree and returns the
// would-be app hash. The tree rolls back if any write fails.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = s.header.Marshal()
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	if s.countDirty {
		val, err = rlp.EncodeToBytes(s.proposalCount)
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(KeyProposalCount), val)
		if err != nil {
			return
		}
		s.countDirty = false
	}

	if s.paramsDirty && s.params != nil {
		val, err = s.params.Marshal()
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(KeyParams), val)
		if err != nil {
			return
		}
		s.paramsDirty = false
	}

	if len(s.pending) > 0 {
		keys := make([]string, 0, len(s.pending))
		for k := range s.pending {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, err = s.db.Set([]byte(k), s.pending[k])
			if err != nil {
				return
			}
		}
		s.pending = make(map[string][]byte)
	}

	n := len(s.modifiedAcnts)
	if n > 0 {
		idxs := make([]uint64, n)
		i := 0
		for idx := range s.modifiedAcnts {
			idxs[i] = idx
			i += 1
		}
		sort.Slice(idxs, func(i, j int) bool {
			return idxs[i] < idxs[j]
		})
		for _, idx := range idxs {
			flag := s.modifiedAcnts[idx]
			acnt := s.acnts[idx]
			key := fmt.Sprintf(KeyAccountBody, acnt.Index)
			val, err = acnt.Marshal()
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
			if (flag&ModifiedFlagNew == ModifiedFlagNew) || (flag&ModifiedFlagPK == ModifiedFlagPK) {
				if len(acnt.PubKey) > 0 {
					key = fmt.Sprintf(KeyAccountIndex, acnt.Address())
					val, err = rlp.EncodeToBytes(acnt.Index)
					if err != nil {
						return
					}
					_, err = s.db.Set([]byte(key), val)
					if err != nil {
						return
					}
				}
			}
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedAcnts = make(map[uint64]uint32)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func (s *State) markModified(a *Account, flag uint32) {
	v := s.modifiedAcnts[a.Index]
	v |= flag
	s.modifiedAcnts[a.Index] = v
	s.acnts[a.Index] = a
}

func (s *State) GetAccount(idx uint64) (acnt *Account, err error) {
	if idx >= s.header.AccountIdx && idx != StakingBufferIdx {
		err = ErrTxAccountNoexists
		return
	}
	acnt = s.acnts[idx]
	if acnt != nil {
		return
	}
	key := fmt.Sprintf(KeyAccountBody, idx)
	val, err := s.db.Get([]byte(key))
	if err != nil && err != leveldb.ErrNotFound {
		return nil, err
	}
	if val == nil {
		err = ErrNotFound
		return
	}
	acnt = new(Account)
	err = acnt.Unmarshal(val)
	if err != nil {
		acnt = nil
		return
	}
	s.acnts[idx] = acnt
	return
}

func (s *State) FindAccount(addr []byte) (acnt *Account, err error) {
	saddr := cmtcrypto.Address(addr).String()
	idx, ok := s.idxs[saddr]
	if !ok {
		key := fmt.Sprintf(KeyAccountIndex, saddr)
		val, err := s.db.Get([]byte(key))
		if err != nil {
			if err == leveldb.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		err = rlp.DecodeBytes(val, &idx)
		if err != nil {
			return nil, err
		}
		s.idxs[saddr] = idx
	}
	acnt, err = s.GetAccount(idx)

	return
}

// FindAccountByAddress resolves a cometbft hex address string.
func (s *State) FindAccountByAddress(addr string) (*Account, error) {
	for _, a := range s.acnts {
		if a.Address() == addr {
			return a, nil
		}
	}
	key := fmt.Sprintf(KeyAccountIndex, addr)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	var idx uint64
	if err := rlp.DecodeBytes(val, &idx); err != nil {
		return nil, err
	}
	return s.GetAccount(idx)
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// AddAccount registers a new governance participant with a fresh decay
// record: full factor, decay clock anchored at the chain's current time.
func (s *State) AddAccount(acnt *Account) (err error) {
	if len(acnt.PubKey) > 0 {
		a, err := s.FindAccount(acnt.AddrBytes())
		if err != nil {
			return err
		}
		if a != nil {
			return ErrAccountAlreadyExists
		}
	}
	acnt.Index = s.header.AccountIdx
	s.header.AccountIdx += 1
	s.initDecayRecord(acnt)
	s.acnts[acnt.Index] = acnt
	s.modifiedAcnts[acnt.Index] = ModifiedFlagNew
	if err := s.repool(acnt); err != nil {
		return err
	}
	return
}

// ensureBufferAccount creates the internal staking custody account.
func (s *State) ensureBufferAccount() (*Account, error) {
	a, err := s.GetAccount(StakingBufferIdx)
	if err == nil {
		return a, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	a = &Account{Index: StakingBufferIdx}
	s.acnts[a.Index] = a
	s.modifiedAcnts[a.Index] = ModifiedFlagNew
	return a, nil
}

// Verify checks a transaction's account, nonce and signature against this
// state. The signature covers the tx body plus the chain id.
func (s *State) Verify(btx *tx.GovTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(btx.Account)
	if err != nil {
		return succ, err
	}
	if a == nil {
		err = ErrTxAccountNoexists
		return
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, btx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

func (s *State) existPubkey(pubkey []byte) (bool, error) {
	addr := ed25519.PubKey(pubkey).Address()[:]
	saddr := cmtcrypto.Address(addr).String()
	if _, ok := s.idxs[saddr]; ok {
		return true, nil
	}
	key := fmt.Sprintf(KeyAccountIndex, saddr)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return false, err
		}
	}
	if val != nil {
		return true, nil
	}
	for _, acc := range s.acnts {
		if len(acc.PubKey) > 0 && bytes.Equal(acc.AddrBytes(), addr) {
			return true, nil
		}
	}
	return false, nil
}

func (s *State) ValidatorAccounts() (acounts []*Account, height uint64, err error) {
	vals := s.validators
	for _, val := range vals {
		pk := ed25519.PubKey(val.PubKey.GetEd25519()[:])
		addr := pk.Address()[:]
		act, _ := s.FindAccount(addr)
		if act != nil {
			acounts = append(acounts, act)
		}
	}
	height = s.header.Height
	return
}

// Validators derives the validator set from staked balances.
func (s *State) Validators() (updateVals map[string]abci_types.ValidatorUpdate, err error) {
	updateVals = make(map[string]abci_types.ValidatorUpdate, 0)
	start := []byte(fmt.Sprintf(KeyAccountBody, ""))
	end := PrefixEndBytes(start)
	aIterator, err := s.db.Iterator(start, end, false)
	if err != nil {
		return nil, err
	}

	valsQueue := &PowerQueue{}
	heap.Init(valsQueue)
	for ; aIterator.Valid(); aIterator.Next() {
		var act Account
		valBytes := aIterator.Value()
		err = act.Unmarshal(valBytes)
		if err != nil {
			return nil, err
		}
		if act.Index == StakingBufferIdx || len(act.PubKey) == 0 {
			continue
		}
		power := config.PowerPerStake(act.Staked, s.header.Height)
		if power > 0 {
			heap.Push(valsQueue, validatorWithPower{
				Index:  act.Index,
				Pubkey: act.PubKey,
				Power:  power,
			})
		}
	}

	vals := make([]abci_types.ValidatorUpdate, 0)
	for valsQueue.Len() > 0 && len(vals) < MaxValidators {
		val := heap.Pop(valsQueue).(validatorWithPower)
		vals = append(vals, abci_types.Ed25519ValidatorUpdate(val.Pubkey, val.Power))
	}
	s.validators = vals

	for _, val := range vals {
		updateVals[val.PubKey.String()] = val
	}

	return updateVals, nil
}

func (s *State) ValidatorsUpdate(curVals map[string]abci_types.ValidatorUpdate) (updateVals []abci_types.ValidatorUpdate, err error) {
	nextVals, err := s.Validators()
	if err != nil {
		return nil, err
	}

	for key, val := range nextVals {
		if v, ok := curVals[key]; ok {
			if v.Power != val.Power {
				updateVals = append(updateVals, val)
			}
		} else {
			updateVals = append(updateVals, val)
		}
	}

	for key, curVal := range curVals {
		if _, ok := nextVals[key]; !ok {
			curVal.Power = 0
			updateVals = append(updateVals, curVal)
		}
	}
	return
}

type validatorWithPower struct {
	Index  uint64
	Pubkey []byte
	Power  int64
}

type PowerQueue []validatorWithPower

func (pq PowerQueue) Len() int { return len(pq) }

func (pq PowerQueue) Less(i, j int) bool {
	if pq[i].Power == pq[j].Power {
		return pq[i].Index < pq[j].Index
	}
	return pq[i].Power > pq[j].Power
}

func (pq PowerQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *PowerQueue) Push(x any) {
	item := x.(validatorWithPower)
	*pq = append(*pq, item)
}

func (pq *PowerQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
