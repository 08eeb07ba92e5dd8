package saga

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/goccy/go-json"

	"github.com/relabs-tech/sakamichi/core/logger"
)

// LogReporter logs orphaned effects
type LogReporter struct{}

// Orphaned implements Reporter
func (LogReporter) Orphaned(ctx context.Context, effect Effect) {
	rlog := logger.FromContext(ctx).WithField("kind", effect.Kind).
		WithField("resource", effect.Resource).
		WithField("id", effect.ID)
	if effect.Compensated {
		rlog.Infoln("compensated after failure:", effect.Detail)
		return
	}
	rlog.Warnln("orphaned after failure:", effect.Detail)
}

// SQSAPI is the part of the SQS client used by SQSReporter
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSReporter publishes orphaned effects as JSON messages to a queue, so that a
// cleanup job can pick them up.
type SQSReporter struct {
	client   SQSAPI
	queueURL string
}

// NewSQSReporter returns a new SQSReporter
func NewSQSReporter(client SQSAPI, queueURL string) *SQSReporter {
	return &SQSReporter{client: client, queueURL: queueURL}
}

// Orphaned implements Reporter. Publishing failures are logged only.
func (s *SQSReporter) Orphaned(ctx context.Context, effect Effect) {
	body, err := json.Marshal(effect)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("cannot marshal orphaned effect")
		return
	}
	_, err = s.client.SendMessage(context.WithoutCancel(ctx), &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"Kind": {DataType: aws.String("String"), StringValue: aws.String(effect.Kind)},
			"Logger": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(logger.SerializeLoggerContext(ctx))),
			},
		},
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("cannot publish orphaned effect", effect.Kind, effect.ID)
	}
}

// MultiReporter fans out to several reporters
type MultiReporter []Reporter

// Orphaned implements Reporter
func (m MultiReporter) Orphaned(ctx context.Context, effect Effect) {
	for _, r := range m {
		r.Orphaned(ctx, effect)
	}
}
