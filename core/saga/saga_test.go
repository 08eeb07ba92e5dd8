package saga

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/sakamichi/core/logger"
)

// Recorder is a Reporter remembering all effects
type Recorder struct {
	mu      sync.Mutex
	Effects []Effect
}

func (r *Recorder) Orphaned(ctx context.Context, effect Effect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Effects = append(r.Effects, effect)
}

func TestThenSuccess(t *testing.T) {
	rec := &Recorder{}
	r := Runner{Reporter: rec, Compensate: true}
	undone := false
	err := r.Then(context.Background(), Effect{Kind: "file"}, func(context.Context) error {
		undone = true
		return nil
	}, func(context.Context) error { return nil })

	require.NoError(t, err)
	assert.False(t, undone)
	assert.Empty(t, rec.Effects)
}

func TestThenFailureWithoutCompensation(t *testing.T) {
	rec := &Recorder{}
	r := Runner{Reporter: rec}
	stepErr := errors.New("document rejected")
	undone := false

	ctx, _ := logger.ContextWithRequestID(context.Background(), "req-7")
	err := r.Then(ctx, Effect{Kind: "file", Resource: "production", ID: "f1", Detail: "create document"},
		func(context.Context) error { undone = true; return nil },
		func(context.Context) error { return stepErr })

	assert.Same(t, stepErr, err)
	assert.False(t, undone)
	require.Len(t, rec.Effects, 1)
	assert.Equal(t, "f1", rec.Effects[0].ID)
	assert.False(t, rec.Effects[0].Compensated)
	assert.Equal(t, "req-7", rec.Effects[0].RequestID)
}

func TestThenFailureWithCompensation(t *testing.T) {
	rec := &Recorder{}
	r := Runner{Reporter: rec, Compensate: true}
	stepErr := errors.New("label rejected")

	err := r.Then(context.Background(), Effect{Kind: "user", ID: "u1"},
		func(context.Context) error { return nil },
		func(context.Context) error { return stepErr })
	assert.Same(t, stepErr, err)
	require.Len(t, rec.Effects, 1)
	assert.True(t, rec.Effects[0].Compensated)

	err = r.Then(context.Background(), Effect{Kind: "user", ID: "u2"},
		func(context.Context) error { return errors.New("undo failed") },
		func(context.Context) error { return stepErr })
	assert.Same(t, stepErr, err)
	require.Len(t, rec.Effects, 2)
	assert.False(t, rec.Effects[1].Compensated)
}

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m1")}, nil
}

func TestSQSReporter(t *testing.T) {
	client := &fakeSQS{}
	reporter := NewSQSReporter(client, "https://sqs.eu-central-1.amazonaws.com/1/orphans")

	ctx, _ := logger.ContextWithRequestID(context.Background(), "req-9")
	MultiReporter{LogReporter{}, reporter}.Orphaned(ctx, Effect{Kind: "file", Resource: "production", ID: "f1"})

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "https://sqs.eu-central-1.amazonaws.com/1/orphans", aws.ToString(in.QueueUrl))
	var effect Effect
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &effect))
	assert.Equal(t, "f1", effect.ID)
	assert.Equal(t, "file", aws.ToString(in.MessageAttributes["Kind"].StringValue))
	assert.Contains(t, aws.ToString(in.MessageAttributes["Logger"].StringValue), "req-9")

	client.err = errors.New("queue unavailable")
	reporter.Orphaned(ctx, Effect{Kind: "user", ID: "u1"})
	assert.Len(t, client.inputs, 2)
}
