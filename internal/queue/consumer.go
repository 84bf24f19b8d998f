// Package queue consumes audit requests from SQS and runs them through the job manager.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/go-playground/validator/v10"

	"github.com/jonathan/seo-auditor/internal/jobs"
	"github.com/jonathan/seo-auditor/internal/logging"
	"github.com/jonathan/seo-auditor/internal/types"
)

// DefaultWaitSeconds is the SQS long-poll wait.
const DefaultWaitSeconds = 20

// errorBackoff is the pause after a failed receive.
const errorBackoff = 5 * time.Second

// AuditRequest is the body of a queued audit message.
type AuditRequest struct {
	SiteURL string `json:"site_url" validate:"required,url"`
	MaxURLs int    `json:"max_urls" validate:"gte=0"`
}

// SQSAPI is the subset of the SQS client used by the consumer.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// AuditRunner runs one audit synchronously.
type AuditRunner interface {
	Run(ctx context.Context, siteURL string, maxURLs int) (*types.AuditResult, error)
}

// Consumer long-polls a queue and runs one audit per message, one at a time.
type Consumer struct {
	client   SQSAPI
	queueURL string
	runner   AuditRunner
	validate *validator.Validate
	logger   *slog.Logger
	wait     int32
}

// NewConsumer creates a Consumer.
func NewConsumer(client SQSAPI, queueURL string, runner AuditRunner) *Consumer {
	return &Consumer{
		client:   client,
		queueURL: queueURL,
		runner:   runner,
		validate: validator.New(),
		logger:   logging.New("queue"),
		wait:     DefaultWaitSeconds,
	}
}

// NewSQSClient builds an SQS client from an AWS config.
func NewSQSClient(cfg aws.Config) *sqs.Client {
	return sqs.NewFromConfig(cfg)
}

// WithWaitSeconds sets the long-poll wait. Zero means short polling.
func (c *Consumer) WithWaitSeconds(s int32) *Consumer {
	c.wait = s
	return c
}

// Enqueue publishes an audit request.
func (c *Consumer) Enqueue(ctx context.Context, req AuditRequest) error {
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("invalid audit request: %w", err)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	_, err = c.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(c.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Run polls until ctx is cancelled. Receive failures are logged and retried
// after a short backoff.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("queue consumer started", "queue", c.queueURL)
	for {
		if ctx.Err() != nil {
			c.logger.Info("queue consumer stopped")
			return nil
		}

		n, err := c.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("receive failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(errorBackoff):
			}
			continue
		}
		if n > 0 {
			c.logger.Debug("batch processed", "messages", n)
		}
	}
}

// Poll receives one batch and handles every message in it. It returns the
// number of messages received.
func (c *Consumer) Poll(ctx context.Context) (int, error) {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     c.wait,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, msg := range out.Messages {
		c.handle(ctx, msg)
	}
	return len(out.Messages), nil
}

// handle runs the audit for one message. The message is deleted once the
// audit completes or fails, and also when its body is unusable. A message
// for a site that is already being audited is left for redelivery.
func (c *Consumer) handle(ctx context.Context, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)

	var req AuditRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		c.logger.Warn("dropping malformed message", "message_id", aws.ToString(msg.MessageId), "error", err)
		c.delete(ctx, msg)
		return
	}
	if err := c.validate.Struct(req); err != nil {
		c.logger.Warn("dropping invalid message", "message_id", aws.ToString(msg.MessageId), "error", err)
		c.delete(ctx, msg)
		return
	}

	result, err := c.runner.Run(ctx, req.SiteURL, req.MaxURLs)
	switch {
	case errors.Is(err, jobs.ErrAuditInProgress):
		c.logger.Info("site busy, leaving message for redelivery", "site", req.SiteURL)
		return
	case err != nil:
		c.logger.Warn("queued audit failed", "site", req.SiteURL, "error", err)
	default:
		c.logger.Info("queued audit complete", "site", req.SiteURL, "job_id", result.JobID,
			"health_score", result.Summary.HealthScore)
	}
	c.delete(ctx, msg)
}

func (c *Consumer) delete(ctx context.Context, msg sqstypes.Message) {
	_, err := c.client.DeleteMessage(context.WithoutCancel(ctx), &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		c.logger.Warn("failed to delete message", "message_id", aws.ToString(msg.MessageId), "error", err)
	}
}
