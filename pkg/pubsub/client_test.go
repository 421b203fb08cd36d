package pubsub

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/reelpass-backend/pkg/config"
)

func TestConfiguredNamesSkipBlanks(t *testing.T) {
	assert.Equal(t, []string{"payouts-sub"}, subscriptionNames(config.PubSubConfig{PayoutsSubscription: " payouts-sub "}))
	assert.Empty(t, subscriptionNames(config.PubSubConfig{}))

	cfg := config.PubSubConfig{BookingsTopic: "bookings", PaymentsTopic: " ", PayoutsTopic: "payouts"}
	assert.Equal(t, []string{"bookings", "payouts"}, topicNames(cfg))
}

func TestResourceName(t *testing.T) {
	c := &Client{projectID: "reelpass-dev"}

	assert.Equal(t, "projects/reelpass-dev/subscriptions/payouts-sub", c.resourceName(subscriptionsKind, "payouts-sub"))
	assert.Equal(t, "projects/other/subscriptions/x", c.resourceName(subscriptionsKind, "projects/other/subscriptions/x"))
	assert.Equal(t, "projects/reelpass-dev/topics/payments", c.resourceName(topicsKind, " payments "))
	assert.Empty(t, c.resourceName(topicsKind, ""))
	assert.Empty(t, (&Client{}).resourceName(subscriptionsKind, "payouts-sub"))
}

func TestClientOptionsPreferInlineCredentials(t *testing.T) {
	assert.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`, ApplicationCredentials: "/tmp/key.json"}), 1)
	assert.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/key.json"}), 1)
	assert.Empty(t, clientOptions(config.GCPConfig{}))
}

func TestDescribeLookup(t *testing.T) {
	assert.NoError(t, describeLookup("topic", "payments", nil))
	assert.EqualError(t, describeLookup("topic", "payments", status.Error(codes.NotFound, "gone")), `topic "payments" does not exist`)

	cause := status.Error(codes.PermissionDenied, "nope")
	assert.True(t, errors.Is(describeLookup("subscription", "payouts-sub", cause), cause))
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	assert.Nil(t, c.Publisher("payments"))
	assert.Nil(t, c.Subscription("payouts-sub"))
	assert.Nil(t, c.Topics())
	assert.NoError(t, c.Close())
	assert.ErrorIs(t, c.Ping(context.Background()), errNotInitialized)
}
