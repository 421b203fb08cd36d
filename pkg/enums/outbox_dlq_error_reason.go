package enums

// OutboxDLQErrorReason says why the publisher gave up on an event.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts: the broker kept failing until attempts ran out.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable: the row cannot be published as stored.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var validOutboxDLQErrorReasons = set[OutboxDLQErrorReason]{
	OutboxDLQReasonMaxAttempts,
	OutboxDLQReasonNonRetryable,
}

func (r OutboxDLQErrorReason) IsValid() bool {
	return validOutboxDLQErrorReasons.has(r)
}

// Retryable reports whether a replay can be expected to succeed without a
// code or data fix.
func (r OutboxDLQErrorReason) Retryable() bool {
	return r == OutboxDLQReasonMaxAttempts
}
