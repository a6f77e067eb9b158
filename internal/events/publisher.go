package events

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/mcncl/hello-pipeline/internal/errors"
)

// Publisher sends one JSON-encodable value with string attributes
type Publisher interface {
	Publish(ctx context.Context, data interface{}, attributes map[string]string) (string, error)
	Close() error
}

// PubSubPublisher publishes to a single Google Cloud Pub/Sub topic
type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubPublisher connects to projectID and checks that topicID exists.
// The client honours PUBSUB_EMULATOR_HOST.
func NewPubSubPublisher(ctx context.Context, projectID, topicID string, opts ...option.ClientOption) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.NewUnavailableError("creating pubsub client", err)
	}

	p, err := newPubSubPublisher(ctx, client, topicID)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return p, nil
}

func newPubSubPublisher(ctx context.Context, client *pubsub.Client, topicID string) (*PubSubPublisher, error) {
	topic := client.Topic(topicID)

	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, errors.NewUnavailableError("checking topic", err)
	}
	if !exists {
		return nil, errors.WithDetails(
			errors.NewValidationError("topic does not exist"),
			map[string]interface{}{"topic": topicID},
		)
	}

	return &PubSubPublisher{client: client, topic: topic}, nil
}

// TopicID returns the ID of the topic events go to
func (p *PubSubPublisher) TopicID() string {
	return p.topic.ID()
}

// Publish encodes data as JSON and blocks until the server has assigned a
// message ID or ctx ends
func (p *PubSubPublisher) Publish(ctx context.Context, data interface{}, attributes map[string]string) (string, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return "", errors.Wrap(err, "encoding event")
	}

	msgID, err := p.topic.Publish(ctx, &pubsub.Message{
		Data:       body,
		Attributes: attributes,
	}).Get(ctx)
	if err != nil {
		return "", errors.NewUnavailableError("publishing event", err)
	}
	return msgID, nil
}

// Close sends any buffered messages, then closes the client
func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
