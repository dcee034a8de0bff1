package kinesis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/activity"
)

func record(t *testing.T, seq string, data any) events.KinesisEventRecord {
	t.Helper()
	raw, ok := data.([]byte)
	if !ok {
		var err error
		raw, err = json.Marshal(data)
		require.NoError(t, err)
	}
	return events.KinesisEventRecord{
		EventID: "shard-0:" + seq,
		Kinesis: events.KinesisRecord{SequenceNumber: seq, Data: raw},
	}
}

func placed(t *testing.T, orderID string) activity.Event {
	t.Helper()
	e, err := activity.NewEvent(activity.TypeOrderPlaced, orderID, activity.OrderPlaced{OrderID: orderID})
	require.NoError(t, err)
	return e
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name    string
		data    any
		wantErr error
	}{
		{name: "valid event", data: placed(t, "o-1")},
		{name: "missing type", data: activity.Event{ID: "e-1"}, wantErr: ErrIncompleteEvent},
		{name: "not json", data: []byte("{oops")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := DecodeRecord(record(t, "1", tt.data))
			if tt.name == "valid event" {
				require.NoError(t, err)
				assert.Equal(t, activity.TypeOrderPlaced, event.Type)
				assert.Equal(t, "o-1", event.Key)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestHandleBatch_ReportsOnlyFailedRecords(t *testing.T) {
	batch := events.KinesisEvent{Records: []events.KinesisEventRecord{
		record(t, "1", placed(t, "o-1")),
		record(t, "2", []byte("garbage")),
		record(t, "3", placed(t, "o-3")),
	}}

	var keys []string
	handler := func(_ context.Context, key, _ []byte) error {
		keys = append(keys, string(key))
		if string(key) == "o-3" {
			return errors.New("smtp down")
		}
		return nil
	}

	resp := HandleBatch(context.Background(), batch, handler, log.New(io.Discard, "", 0))

	assert.Equal(t, []string{"o-1", "o-3"}, keys)
	require.Len(t, resp.BatchItemFailures, 2)
	assert.Equal(t, "2", resp.BatchItemFailures[0].ItemIdentifier)
	assert.Equal(t, "3", resp.BatchItemFailures[1].ItemIdentifier)
}

func TestHandleBatch_PrefersPartitionKey(t *testing.T) {
	r := record(t, "1", placed(t, "o-1"))
	r.Kinesis.PartitionKey = "user-7"

	var got string
	resp := HandleBatch(context.Background(), events.KinesisEvent{Records: []events.KinesisEventRecord{r}},
		func(_ context.Context, key, _ []byte) error { got = string(key); return nil },
		log.New(io.Discard, "", 0))

	assert.Equal(t, "user-7", got)
	assert.Empty(t, resp.BatchItemFailures)
}
