package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"topicgraph/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	inputs []*eventbridge.PutEventsInput
	out    *eventbridge.PutEventsOutput
	err    error
}

func (f *fakeClient) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.out != nil {
		return f.out, nil
	}
	return &eventbridge.PutEventsOutput{}, nil
}

func deleted(n int) []events.DomainEvent {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewNodeDeleted("w1", fmt.Sprint(i), int64(i+2), at)
	}
	return out
}

func TestPublisher_Batches(t *testing.T) {
	client := &fakeClient{}
	p := NewPublisher(client, "bus", zap.NewNop())

	require.NoError(t, p.PublishBatch(context.Background(), deleted(23)))
	require.Len(t, client.inputs, 3)
	assert.Len(t, client.inputs[0].Entries, 10)
	assert.Len(t, client.inputs[2].Entries, 3)

	entry := client.inputs[0].Entries[0]
	assert.Equal(t, "bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, events.Source, aws.ToString(entry.Source))
	assert.Equal(t, events.TypeNodeDeleted, aws.ToString(entry.DetailType))

	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "w1", detail["aggregate_id"])
}

func TestPublisher_Failures(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		p := NewPublisher(&fakeClient{err: errors.New("denied")}, "bus", zap.NewNop())
		assert.Error(t, p.Publish(context.Background(), deleted(1)[0]))
	})

	t.Run("partial", func(t *testing.T) {
		client := &fakeClient{out: &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
		}}
		p := NewPublisher(client, "bus", zap.NewNop())
		err := p.Publish(context.Background(), deleted(1)[0])
		assert.EqualError(t, err, "1 events failed to publish")
	})

	t.Run("empty", func(t *testing.T) {
		client := &fakeClient{}
		require.NoError(t, NewPublisher(client, "bus", zap.NewNop()).PublishBatch(context.Background(), nil))
		assert.Empty(t, client.inputs)
	})
}
