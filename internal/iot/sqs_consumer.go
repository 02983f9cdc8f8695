// Package iot receives captures queued by remote cameras.
package iot

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/service"
)

// SQSAPI is the subset of *sqs.Client the consumer needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type JobHandler interface {
	HandleCaptureJob(ctx context.Context, job domain.CaptureJob) error
}

type SQSConsumer struct {
	sqsClient  SQSAPI
	queueURL   string
	handler    JobHandler
	logger     *slog.Logger
	retryDelay time.Duration
	waitTime   int32
}

func NewSQSConsumer(client SQSAPI, queueURL string, handler JobHandler, logger *slog.Logger) *SQSConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQSConsumer{
		sqsClient:  client,
		queueURL:   queueURL,
		handler:    handler,
		logger:     logger.With("component", "sqs_consumer", "queue", queueURL),
		retryDelay: 5 * time.Second,
		waitTime:   20,
	}
}

// Start long-polls the queue until ctx is cancelled.
func (c *SQSConsumer) Start(ctx context.Context) {
	c.logger.Info("consumer started")
	for {
		if ctx.Err() != nil {
			c.logger.Info("consumer stopped")
			return
		}

		result, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     c.waitTime,
			VisibilityTimeout:   60,
		})
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			c.logger.Warn("receive failed", "error", err)
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
			}
			continue
		}

		if len(result.Messages) > 0 {
			c.logger.Debug("messages received", "count", len(result.Messages))
		}
		for _, message := range result.Messages {
			c.process(ctx, aws.ToString(message.MessageId), message.Body, message.ReceiptHandle)
		}
	}
}

// process deletes the message once it has been handled or can never be.
// Transient failures leave it for redelivery after the visibility timeout.
func (c *SQSConsumer) process(ctx context.Context, id string, body, receiptHandle *string) {
	if body == nil {
		c.logger.Warn("empty message body, deleting", "message_id", id)
		c.deleteMessage(ctx, receiptHandle)
		return
	}

	var job domain.CaptureJob
	if err := json.Unmarshal([]byte(*body), &job); err != nil {
		c.logger.Warn("malformed capture job, deleting", "message_id", id, "error", err)
		c.deleteMessage(ctx, receiptHandle)
		return
	}

	err := c.handler.HandleCaptureJob(ctx, job)
	switch {
	case err == nil:
		c.deleteMessage(ctx, receiptHandle)
	case errors.Is(err, service.ErrInvalidJob):
		c.logger.Warn("invalid capture job, deleting", "message_id", id, "error", err)
		c.deleteMessage(ctx, receiptHandle)
	case errors.Is(err, service.ErrRecognizerUnavailable):
		c.logger.Warn("recognizer unavailable, leaving for redelivery", "message_id", id, "error", err)
	default:
		c.logger.Error("capture job failed, leaving for redelivery", "message_id", id, "error", err)
	}
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		c.logger.Warn("missing receipt handle, cannot delete message")
		return
	}
	_, err := c.sqsClient.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.logger.Warn("delete message failed", "error", err)
	}
}
