package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PubSubConfig selects the Google Cloud Pub/Sub topic for external
// consumers. Without CredentialsJSON, Application Default Credentials apply.
type PubSubConfig struct {
	ProjectID       string
	Topic           string
	CredentialsJSON string
}

// PubSubNotifier forwards events to a Pub/Sub topic.
type PubSubNotifier struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubNotifier connects to Pub/Sub and creates the topic if needed.
func NewPubSubNotifier(ctx context.Context, cfg PubSubConfig) (*PubSubNotifier, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("pubsub project id is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("pubsub topic is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}

	topic := client.Topic(cfg.Topic)
	ok, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("check topic %q: %w", cfg.Topic, err)
	}
	if !ok {
		if topic, err = client.CreateTopic(ctx, cfg.Topic); err != nil {
			client.Close()
			return nil, fmt.Errorf("create topic %q: %w", cfg.Topic, err)
		}
	}
	return &PubSubNotifier{client: client, topic: topic}, nil
}

// Publish implements Notifier. It waits for the server to acknowledge.
func (n *PubSubNotifier) Publish(ctx context.Context, name string, payload interface{}) error {
	evt, err := NewEvent(name, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	res := n.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"event": name},
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("pubsub publish %s: %w", name, err)
	}
	return nil
}

// Close flushes pending messages and releases the client.
func (n *PubSubNotifier) Close() error {
	n.topic.Stop()
	return n.client.Close()
}
