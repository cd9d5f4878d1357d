package main

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/angelmondragon/ordering-backend/pkg/outbox/registry"
)

// disposition says what happens to an outbox row after a write attempt.
type disposition int

const (
	// published rows are marked done.
	published disposition = iota
	// retry rows spend one attempt and are picked up by a later batch.
	retry
	// deadLetter rows go to outbox_dlq at once: resending cannot succeed.
	deadLetter
	// deferred rows keep their attempt count. The broker itself is
	// unreachable so the failure says nothing about the event.
	deferred
)

func (d disposition) String() string {
	switch d {
	case published:
		return "published"
	case retry:
		return "retry"
	case deadLetter:
		return "dead_letter"
	case deferred:
		return "deferred"
	default:
		return "unknown"
	}
}

// kafka error codes that a resend of the same record can never fix.
var permanentKafkaErrors = map[kafkago.Error]bool{
	kafkago.MessageSizeTooLarge:         true,
	kafkago.InvalidMessage:              true,
	kafkago.InvalidMessageSize:          true,
	kafkago.RecordListTooLarge:          true,
	kafkago.InvalidTopic:                true,
	kafkago.TopicAuthorizationFailed:    true,
	kafkago.InvalidRequiredAcks:         true,
	kafkago.UnsupportedForMessageFormat: true,
}

// classifyWriteError maps one record's result from kafka-go to a disposition.
func classifyWriteError(err error) disposition {
	if err == nil {
		return published
	}

	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return deadLetter
	}

	var kerr kafkago.Error
	if errors.As(err, &kerr) {
		switch {
		case permanentKafkaErrors[kerr]:
			return deadLetter
		case kerr == kafkago.BrokerNotAvailable || kerr == kafkago.NetworkException:
			return deferred
		case kerr.Temporary() || kerr.Timeout():
			return retry
		default:
			return deadLetter
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return deferred
	case errors.Is(err, context.DeadlineExceeded):
		return retry
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET):
		return deferred
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return deferred
	}
	return retry
}

// splitWriteErrors spreads the result of one WriteMessages call over its n
// records. kafka-go reports per-record failures as WriteErrors; any other
// error applies to the whole call.
func splitWriteErrors(err error, n int) []error {
	out := make([]error, n)
	if err == nil {
		return out
	}
	var perRecord kafkago.WriteErrors
	if errors.As(err, &perRecord) && len(perRecord) == n {
		copy(out, perRecord)
		return out
	}
	for i := range out {
		out[i] = err
	}
	return out
}
