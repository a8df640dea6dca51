package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"github.com/MrJamesThe3rd/nfrecon/internal/events"
)

// Publisher sends events to a Google Cloud Pub/Sub topic as JSON.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New uses Application Default Credentials unless credentialsJSON is provided.
// The topic must already exist.
func New(ctx context.Context, projectID, topic, credentialsJSON string) (*Publisher, error) {
	if projectID == "" {
		return nil, errors.New("pubsub project id is required")
	}

	if topic == "" {
		return nil, errors.New("pubsub topic is required")
	}

	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &Publisher{client: client, topic: client.Topic(topic)}, nil
}

func (p *Publisher) PublishResolved(ctx context.Context, event events.Resolved) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"tenant_id": event.TenantID.String(),
			"event":     event.Event,
		},
	})

	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}

	return nil
}

// Close flushes pending messages and releases the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
