package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primaryKey" json:"id"`
	Height uint64 `json:"height"`
}

type Proposal struct {
	Id              string `gorm:"primaryKey" json:"id"`
	Seq             uint64 `json:"seq"`
	ProposerIndex   uint64 `json:"proposer_index"`
	ProposerAddress string `json:"proposer_address"`
	Description     string `json:"description"`
	Status          uint64 `json:"status"`
	CreateHeight    uint64 `json:"create_height"`
	SettleHeight    uint64 `json:"settle_height"`
	VoteStart       uint64 `json:"vote_start"`
	VoteEnd         uint64 `json:"vote_end"`
	Eta             uint64 `json:"eta"`
	Relayed         bool   `json:"relayed"`
}

type Vote struct {
	Id           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Proposal     string `json:"proposal"`
	VoterIndex   uint64 `json:"voter_index"`
	VoterAddress string `json:"voter_address"`
	Support      uint64 `json:"support"`
	Weight       uint64 `json:"weight"`
	Height       uint64 `json:"height"`
}

type Delegation struct {
	Id           uint64 `gorm:"primaryKey" json:"id"`
	Address      string `json:"address"`
	Delegate     uint64 `json:"delegate"`
	ChangeHeight uint64 `json:"change_height"`
}

type DecayRecord struct {
	Id           uint64 `gorm:"primaryKey" json:"id"`
	Address      string `json:"address"`
	Factor       uint64 `json:"factor"`
	UpdateHeight uint64 `json:"update_height"`
}

type Relay struct {
	Id        uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Proposal  string `json:"proposal"`
	ChainId   uint64 `json:"chain_id"`
	MessageId string `json:"message_id"`
	Sender    string `json:"sender"`
	Inbound   bool   `json:"inbound"`
	Height    uint64 `json:"height"`
}
