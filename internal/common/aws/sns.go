package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type publishAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	client publishAPI
}

func NewSNSClient(ctx context.Context, region string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg)}, nil
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input)
}

// ApplicationEvent is the lifecycle message body published per write.
type ApplicationEvent struct {
	Event         string    `json:"event"`
	ApplicationID int64     `json:"applicationId"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// EventPublisher sends application lifecycle events to one SNS topic.
type EventPublisher struct {
	sns      *SNSClient
	topicARN string
	now      func() time.Time
}

func NewEventPublisher(client *SNSClient, topicARN string) *EventPublisher {
	return &EventPublisher{sns: client, topicARN: topicARN, now: time.Now}
}

func (p *EventPublisher) PublishApplicationEvent(ctx context.Context, event string, applicationID int64) error {
	body, err := json.Marshal(ApplicationEvent{
		Event:         event,
		ApplicationID: applicationID,
		OccurredAt:    p.now().UTC().Truncate(time.Second),
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String(event)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish %s: %w", event, err)
	}
	return nil
}
