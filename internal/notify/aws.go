package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

type IoTDataAPI interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

// IoT publishes events to an AWS IoT Core topic through the data plane API.
type IoT struct {
	client IoTDataAPI
	topic  string
}

func NewIoT(client IoTDataAPI, topic string) *IoT {
	return &IoT{client: client, topic: topic}
}

func (p *IoT) Publish(ctx context.Context, event domain.DetectionEvent) error {
	payload, err := encode(event)
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(p.topic),
		Qos:     1,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("iot: publish to %s: %w", p.topic, err)
	}
	return nil
}

type SQSSendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQS sends events to a result queue, tagged with the event type.
type SQS struct {
	client   SQSSendAPI
	queueURL string
}

func NewSQS(client SQSSendAPI, queueURL string) *SQS {
	return &SQS{client: client, queueURL: queueURL}
}

func (p *SQS) Publish(ctx context.Context, event domain.DetectionEvent) error {
	payload, err := encode(event)
	if err != nil {
		return err
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(payload)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(string(event.Type))},
		},
	})
	if err != nil {
		return fmt.Errorf("sqs: send to %s: %w", p.queueURL, err)
	}
	return nil
}
