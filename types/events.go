package types

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventDecayUpdatedType      = "decay_updated"
	EventStakeType             = "stake"
	EventUnstakeType           = "unstake"
	EventDelegateChangedType   = "delegate_changed"
	EventProposalCreatedType   = "proposal_created"
	EventVoteCastType          = "vote_cast"
	EventProposalQueuedType    = "proposal_queued"
	EventProposalExecutedType  = "proposal_executed"
	EventProposalCancelledType = "proposal_cancelled"
	EventProposalSentType      = "proposal_sent"
	EventProposalReceivedType  = "proposal_received"
	EventUpdateValidatorType   = "update_validator"
)

type EventDecayUpdated struct {
	Account uint64 `json:"account"`
	Address string `json:"address"`
	Factor  uint64 `json:"factor"`
	Height  uint64 `json:"height"`
}

func EncodeEventDecayUpdated(event *EventDecayUpdated) abci.Event {
	return abci.Event{
		Type: EventDecayUpdatedType,
		Attributes: []abci.EventAttribute{
			{Key: "account", Value: fmt.Sprintf("%v", event.Account), Index: true},
			{Key: "address", Value: event.Address, Index: false},
			{Key: "factor", Value: fmt.Sprintf("%v", event.Factor), Index: false},
			{Key: "height", Value: fmt.Sprintf("%v", event.Height), Index: false},
		},
	}
}

func DecodeEventDecayUpdated(originEvent abci.Event) *EventDecayUpdated {
	event := &EventDecayUpdated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "account":
			account, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Account = account
		case "address":
			event.Address = v.Value
		case "factor":
			factor, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Factor = factor
		case "height":
			height, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Height = height
		}
	}
	return event
}

type EventDelegateChanged struct {
	Account     uint64 `json:"account"`
	Address     string `json:"address"`
	OldDelegate uint64 `json:"oldDelegate"`
	NewDelegate uint64 `json:"newDelegate"`
}

func EncodeEventDelegateChanged(event *EventDelegateChanged) abci.Event {
	return abci.Event{
		Type: EventDelegateChangedType,
		Attributes: []abci.EventAttribute{
			{Key: "account", Value: fmt.Sprintf("%v", event.Account), Index: true},
			{Key: "address", Value: event.Address, Index: false},
			{Key: "oldDelegate", Value: fmt.Sprintf("%v", event.OldDelegate), Index: false},
			{Key: "newDelegate", Value: fmt.Sprintf("%v", event.NewDelegate), Index: true},
		},
	}
}

func DecodeEventDelegateChanged(originEvent abci.Event) *EventDelegateChanged {
	event := &EventDelegateChanged{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "account":
			account, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Account = account
		case "address":
			event.Address = v.Value
		case "oldDelegate":
			old, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.OldDelegate = old
		case "newDelegate":
			nw, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.NewDelegate = nw
		}
	}
	return event
}

type EventProposalCreated struct {
	Id              string `json:"id"`
	Index           uint64 `json:"index"`
	Proposer        uint64 `json:"proposer"`
	ProposerAddress string `json:"proposerAddress"`
	Description     string `json:"description"`
	VoteStart       uint64 `json:"voteStart"`
	VoteEnd         uint64 `json:"voteEnd"`
}

func EncodeEventProposalCreated(event *EventProposalCreated) abci.Event {
	return abci.Event{
		Type: EventProposalCreatedType,
		Attributes: []abci.EventAttribute{
			{Key: "id", Value: event.Id, Index: true},
			{Key: "index", Value: fmt.Sprintf("%v", event.Index), Index: true},
			{Key: "proposer", Value: fmt.Sprintf("%v", event.Proposer), Index: true},
			{Key: "proposerAddress", Value: event.ProposerAddress, Index: false},
			{Key: "description", Value: event.Description, Index: false},
			{Key: "voteStart", Value: fmt.Sprintf("%v", event.VoteStart), Index: false},
			{Key: "voteEnd", Value: fmt.Sprintf("%v", event.VoteEnd), Index: false},
		},
	}
}

func DecodeEventProposalCreated(originEvent abci.Event) *EventProposalCreated {
	event := &EventProposalCreated{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "id":
			event.Id = v.Value
		case "index":
			index, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Index = index
		case "proposer":
			proposer, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Proposer = proposer
		case "proposerAddress":
			event.ProposerAddress = v.Value
		case "description":
			event.Description = v.Value
		case "voteStart":
			start, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.VoteStart = start
		case "voteEnd":
			end, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.VoteEnd = end
		}
	}
	return event
}

type EventVoteCast struct {
	Id           string `json:"id"`
	Voter        uint64 `json:"voter"`
	VoterAddress string `json:"voterAddress"`
	Support      uint64 `json:"support"`
	Weight       uint64 `json:"weight"`
}

func EncodeEventVoteCast(event *EventVoteCast) abci.Event {
	return abci.Event{
		Type: EventVoteCastType,
		Attributes: []abci.EventAttribute{
			{Key: "id", Value: event.Id, Index: true},
			{Key: "voter", Value: fmt.Sprintf("%v", event.Voter), Index: true},
			{Key: "voterAddress", Value: event.VoterAddress, Index: false},
			{Key: "support", Value: fmt.Sprintf("%v", event.Support), Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
		},
	}
}

func DecodeEventVoteCast(originEvent abci.Event) *EventVoteCast {
	event := &EventVoteCast{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "id":
			event.Id = v.Value
		case "voter":
			voter, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Voter = voter
		case "voterAddress":
			event.VoterAddress = v.Value
		case "support":
			support, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Support = support
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		}
	}
	return event
}

// EventProposalStatus covers the queued/executed/cancelled transitions; the
// event type distinguishes which one occurred.
type EventProposalStatus struct {
	Id     string `json:"id"`
	Status uint64 `json:"status"`
	Eta    uint64 `json:"eta"`
}

func EncodeEventProposalStatus(eventType string, event *EventProposalStatus) abci.Event {
	return abci.Event{
		Type: eventType,
		Attributes: []abci.EventAttribute{
			{Key: "id", Value: event.Id, Index: true},
			{Key: "status", Value: fmt.Sprintf("%v", event.Status), Index: false},
			{Key: "eta", Value: fmt.Sprintf("%v", event.Eta), Index: false},
		},
	}
}

func DecodeEventProposalStatus(originEvent abci.Event) *EventProposalStatus {
	event := &EventProposalStatus{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "id":
			event.Id = v.Value
		case "status":
			status, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Status = status
		case "eta":
			eta, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Eta = eta
		}
	}
	return event
}

type EventProposalRelay struct {
	Id        string `json:"id"`
	ChainId   uint64 `json:"chainId"`
	MessageId string `json:"messageId"`
	Sender    string `json:"sender"`
}

func EncodeEventProposalRelay(eventType string, event *EventProposalRelay) abci.Event {
	return abci.Event{
		Type: eventType,
		Attributes: []abci.EventAttribute{
			{Key: "id", Value: event.Id, Index: true},
			{Key: "chainId", Value: fmt.Sprintf("%v", event.ChainId), Index: true},
			{Key: "messageId", Value: event.MessageId, Index: false},
			{Key: "sender", Value: event.Sender, Index: false},
		},
	}
}

func DecodeEventProposalRelay(originEvent abci.Event) *EventProposalRelay {
	event := &EventProposalRelay{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "id":
			event.Id = v.Value
		case "chainId":
			chainId, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ChainId = chainId
		case "messageId":
			event.MessageId = v.Value
		case "sender":
			event.Sender = v.Value
		}
	}
	return event
}

type EventUpdateValidators struct {
	Updates []abci.ValidatorUpdate `json:"updates"`
}

func EncodeEventUpdateValidators(event *EventUpdateValidators) abci.Event {
	pks := make([]string, len(event.Updates))
	powers := make([]string, len(event.Updates))
	for i := range event.Updates {
		ed25519PK := event.Updates[i].PubKey.GetEd25519()
		pks[i] = hex.EncodeToString(ed25519PK)
		powers[i] = fmt.Sprintf("%v", event.Updates[i].Power)
	}
	return abci.Event{
		Type: EventUpdateValidatorType,
		Attributes: []abci.EventAttribute{
			{Key: "pks", Value: strings.Join(pks, ","), Index: false},
			{Key: "powers", Value: strings.Join(powers, ","), Index: false},
		},
	}
}

func ParseEventUpdateValidators(originEvent abci.Event) *EventUpdateValidators {
	event := &EventUpdateValidators{
		Updates: []abci.ValidatorUpdate{},
	}
	pks := make([]string, 0)
	powers := make([]uint64, 0)
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "pks":
			pks = strings.Split(v.Value, ",")
		case "powers":
			powerStrs := strings.Split(v.Value, ",")
			for _, powerStr := range powerStrs {
				power, err := strconv.ParseUint(powerStr, 10, 64)
				if err != nil {
					return nil
				}
				powers = append(powers, power)
			}
		}
	}
	if len(pks) != len(powers) {
		return nil
	}
	for i := range pks {
		pk, err := hex.DecodeString(pks[i])
		if err != nil {
			return nil
		}
		event.Updates = append(event.Updates, abci.Ed25519ValidatorUpdate(pk, int64(powers[i])))
	}
	return event
}
