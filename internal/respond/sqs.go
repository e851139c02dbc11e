package respond

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/codeclass/engine/internal/engine"
)

// SqsRunner long-polls a request queue and publishes each result to the
// response queue.
type SqsRunner struct {
	client      *sqs.Client
	requestURL  string
	responseURL string
	eng         *engine.Engine
	log         *slog.Logger
}

func NewSqsRunner(client *sqs.Client, requestURL, responseURL string, eng *engine.Engine, log *slog.Logger) *SqsRunner {
	return &SqsRunner{
		client:      client,
		requestURL:  requestURL,
		responseURL: responseURL,
		eng:         eng,
		log:         log,
	}
}

// Consume polls until ctx is done. A message is deleted only after its
// response was published; duplicate delivery is acceptable because
// execution is deterministic and side-effect free.
func (r *SqsRunner) Consume(ctx context.Context) error {
	r.log.Info("consuming SQS request queue", slog.String("queue", r.requestURL))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		output, err := r.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(r.requestURL),
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     5,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Error("failed to receive messages", slog.Any("error", err))
			time.Sleep(time.Second)
			continue
		}

		for _, message := range output.Messages {
			body, err := handle(ctx, r.eng, []byte(*message.Body))
			if err != nil {
				r.log.Error("failed to handle SQS message", slog.Any("error", err))
				body, _ = json.Marshal(QueueResponse{ValidationError: "malformed request"})
			}

			env, err := json.Marshal(Pack(body))
			if err != nil {
				r.log.Error("failed to marshal envelope", slog.Any("error", err))
				continue
			}

			_, err = r.client.SendMessage(ctx, &sqs.SendMessageInput{
				QueueUrl:    aws.String(r.responseURL),
				MessageBody: aws.String(string(env)),
			})
			if err != nil {
				r.log.Error("failed to publish response", slog.Any("error", err))
				continue
			}

			_, err = r.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(r.requestURL),
				ReceiptHandle: message.ReceiptHandle,
			})
			if err != nil {
				r.log.Error("failed to delete message", slog.Any("error", err))
			}
		}
	}
}
