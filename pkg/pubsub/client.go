// Package pubsub wraps the Pub/Sub v2 client with the topics and
// subscriptions this service is configured for.
package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

type resourceKind string

const (
	topicsKind        resourceKind = "topics"
	subscriptionsKind resourceKind = "subscriptions"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNoSubscriptions   = errors.New("pubsub subscription name is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

type Client struct {
	client    *pubsub.Client
	projectID string
	cfg       config.PubSubConfig
}

// NewClient connects and fails fast when a configured subscription is
// missing, so a worker never starts against nothing.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	psClient, err := pubsub.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{client: psClient, projectID: projectID, cfg: cfg}
	if err := c.checkSubscriptions(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project":       projectID,
			"topics":        topicNames(cfg),
			"subscriptions": subscriptionNames(cfg),
		}), "pubsub client initialized")
	}
	return c, nil
}

// clientOptions prefers inline credentials, then a key file, then ambient
// application default credentials.
func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(gcp.CredentialsJSON))}
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(gcp.ApplicationCredentials)}
	}
	return nil
}

func (c *Client) checkSubscriptions(ctx context.Context) error {
	names := subscriptionNames(c.cfg)
	if len(names) == 0 {
		return errNoSubscriptions
	}
	for _, name := range names {
		_, err := c.client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{
			Subscription: c.resourceName(subscriptionsKind, name),
		})
		if err := describeLookup("subscription", name, err); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) checkTopics(ctx context.Context) error {
	for _, name := range topicNames(c.cfg) {
		_, err := c.client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{
			Topic: c.resourceName(topicsKind, name),
		})
		if err := describeLookup("topic", name, err); err != nil {
			return err
		}
	}
	return nil
}

func describeLookup(what, name string, err error) error {
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("%s %q does not exist", what, name)
	default:
		return fmt.Errorf("checking %s %q: %w", what, name, err)
	}
}

// Subscription accepts an ID or a full resource name.
func (c *Client) Subscription(name string) *pubsub.Subscriber {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName(subscriptionsKind, name)
	if full == "" {
		return nil
	}
	return c.client.Subscriber(full)
}

// PayoutsSubscription is where the payout worker reads withdrawal_requested
// events from.
func (c *Client) PayoutsSubscription() *pubsub.Subscriber {
	return c.Subscription(c.cfg.PayoutsSubscription)
}

func (c *Client) Publisher(name string) *pubsub.Publisher {
	if c == nil || c.client == nil {
		return nil
	}
	full := c.resourceName(topicsKind, name)
	if full == "" {
		return nil
	}
	return c.client.Publisher(full)
}

// Topics lists the configured topic IDs in routing order.
func (c *Client) Topics() []string {
	if c == nil {
		return nil
	}
	return topicNames(c.cfg)
}

// Ping confirms every configured subscription and topic is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	if err := c.checkSubscriptions(ctx); err != nil {
		return err
	}
	return c.checkTopics(ctx)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func subscriptionNames(cfg config.PubSubConfig) []string {
	return nonBlank(cfg.PayoutsSubscription)
}

func topicNames(cfg config.PubSubConfig) []string {
	return nonBlank(cfg.BookingsTopic, cfg.PaymentsTopic, cfg.PayoutsTopic)
}

func nonBlank(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// resourceName expands an ID under the client's project. Full names of the
// same kind pass through unchanged.
func (c *Client) resourceName(kind resourceKind, name string) string {
	name = strings.TrimSpace(name)
	if c == nil || name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+string(kind)+"/") {
		return name
	}
	if c.projectID == "" {
		return ""
	}
	return "projects/" + c.projectID + "/" + string(kind) + "/" + name
}
