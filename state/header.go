package state

import "encoding/json"

// StateHeader is the chain-level portion of the application state. Time is
// the last finalized block timestamp in unix seconds; it is the only clock
// the governance core consults.
type StateHeader struct {
	ChainId    string `json:"chainId"`
	Height     uint64 `json:"height"`
	Time       uint64 `json:"time"`
	AccountIdx uint64 `json:"accountIdx"`
	Hash       []byte `json:"hash"`
	RootHash   []byte `json:"rootHash"`
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	if h.Hash != nil {
		n.Hash = append([]byte(nil), h.Hash...)
	}
	if h.RootHash != nil {
		n.RootHash = append([]byte(nil), h.RootHash...)
	}
	return &n
}

func (h *StateHeader) Marshal() ([]byte, error) {
	return json.Marshal(h)
}

func (h *StateHeader) Unmarshal(dat []byte) error {
	return json.Unmarshal(dat, h)
}

func (h *StateHeader) GetHash() []byte {
	return h.Hash
}
