// Package kinesis decodes activity events delivered in Kinesis batches to a
// Lambda function.
package kinesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/example/storefront/internal/activity"
)

var ErrIncompleteEvent = errors.New("event is missing id or type")

// MessageHandler matches the Kafka consumer handler so both transports feed
// the same code.
type MessageHandler func(ctx context.Context, key, value []byte) error

// DecodeRecord reads one activity envelope from a record.
func DecodeRecord(record events.KinesisEventRecord) (activity.Event, error) {
	var event activity.Event
	if err := json.Unmarshal(record.Kinesis.Data, &event); err != nil {
		return activity.Event{}, fmt.Errorf("unmarshal record %s: %w", record.EventID, err)
	}
	if event.ID == "" || event.Type == "" {
		return activity.Event{}, fmt.Errorf("record %s: %w", record.EventID, ErrIncompleteEvent)
	}
	return event, nil
}

// HandleBatch runs handler for every record. Records that fail to decode or
// to process are reported back so Lambda retries only those.
func HandleBatch(ctx context.Context, batch events.KinesisEvent, handler MessageHandler, logger *log.Logger) events.KinesisEventResponse {
	var failures []events.KinesisBatchItemFailure
	fail := func(record events.KinesisEventRecord) {
		failures = append(failures, events.KinesisBatchItemFailure{ItemIdentifier: record.Kinesis.SequenceNumber})
	}

	for _, record := range batch.Records {
		event, err := DecodeRecord(record)
		if err != nil {
			logger.Printf("[Kinesis] %v", err)
			fail(record)
			continue
		}

		key := record.Kinesis.PartitionKey
		if key == "" {
			key = event.Key
		}
		if err := handler(ctx, []byte(key), record.Kinesis.Data); err != nil {
			logger.Printf("[Kinesis] Failed to process event %s (%s): %v", event.ID, event.Type, err)
			fail(record)
		}
	}

	logger.Printf("[Kinesis] Processed %d/%d records", len(batch.Records)-len(failures), len(batch.Records))
	return events.KinesisEventResponse{BatchItemFailures: failures}
}
