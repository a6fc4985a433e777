package enums

// OutboxAggregateType identifies the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	OutboxAggregateOrder  OutboxAggregateType = "order"
	OutboxAggregateReturn OutboxAggregateType = "return"
)

func (t OutboxAggregateType) String() string {
	return string(t)
}

func (t OutboxAggregateType) IsValid() bool {
	return t == OutboxAggregateOrder || t == OutboxAggregateReturn
}

// OutboxEventType names the domain events published through the outbox.
type OutboxEventType string

const (
	OutboxEventOrderCreated       OutboxEventType = "order_created"
	OutboxEventOrderStateChanged  OutboxEventType = "order_state_changed"
	OutboxEventOrderCancelled     OutboxEventType = "order_cancelled"
	OutboxEventOrderCompleted     OutboxEventType = "order_completed"
	OutboxEventReturnOpened       OutboxEventType = "return_opened"
	OutboxEventReturnStateChanged OutboxEventType = "return_state_changed"
	OutboxEventPaymentHeld        OutboxEventType = "payment_held"
	OutboxEventPaymentReleased    OutboxEventType = "payment_released"
	OutboxEventPaymentRefunded    OutboxEventType = "payment_refunded"
	OutboxEventPaymentFailed      OutboxEventType = "payment_failed"
)

func (t OutboxEventType) String() string {
	return string(t)
}
