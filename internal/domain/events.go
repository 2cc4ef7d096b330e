package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType identifies a lifecycle event published to the message broker
type EventType string

const (
	EventTokenCreated      EventType = "token_created"
	EventTokenMinted       EventType = "token_minted"
	EventTokenTransferred  EventType = "token_transferred"
	EventTokenBurned       EventType = "token_burned"
	EventBurnRateChanged   EventType = "burn_rate_changed"
	EventMetadataChanged   EventType = "metadata_changed"
	EventMaxSupplyChanged  EventType = "max_supply_changed"
	EventCreatorFeeChanged EventType = "creator_fee_changed"
	EventPlatformFee       EventType = "platform_fee_changed"
	EventPausableChanged   EventType = "pausable_changed"
	EventModeChanged       EventType = "mode_changed"
	EventTokenLocked       EventType = "token_locked"
	EventOwnerChanged      EventType = "owner_changed"
	EventFactoryAuthorized EventType = "factory_authorized"
	EventFactoryPaused     EventType = "factory_paused"
	EventFactoryUnpaused   EventType = "factory_unpaused"
	EventBatchProgress     EventType = "batch_progress"
)

// Event is a fire-and-forget lifecycle event. No delivery guarantee is
// required; publish failures are logged and dropped.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Contract   common.Address `json:"contract"`
	Timestamp  time.Time      `json:"timestamp"`
	Attributes map[string]any `json:"attributes,omitempty"`
}
