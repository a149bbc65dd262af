package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateBooking OutboxAggregateType = "booking"
	AggregateReceipt OutboxAggregateType = "receipt"
	AggregateChat    OutboxAggregateType = "chat"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateBooking,
	AggregateReceipt,
	AggregateChat,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventBookingConfirmed OutboxEventType = "booking_confirmed"
	EventReceiptGenerated OutboxEventType = "receipt_generated"
	EventChatMessageSent  OutboxEventType = "chat_message_sent"
)

var validOutboxEventTypes = []OutboxEventType{
	EventBookingConfirmed,
	EventReceiptGenerated,
	EventChatMessageSent,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason categorizes terminal outbox publish failures.
type OutboxDLQErrorReason string

const (
	DLQReasonPublishFailed OutboxDLQErrorReason = "publish_failed"
	DLQReasonUnroutable    OutboxDLQErrorReason = "unroutable"
	DLQReasonBadPayload    OutboxDLQErrorReason = "bad_payload"
)

// IsValid reports whether the reason matches the canonical enum.
func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case DLQReasonPublishFailed, DLQReasonUnroutable, DLQReasonBadPayload:
		return true
	}
	return false
}
