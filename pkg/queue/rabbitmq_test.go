package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"postcraft/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error { return nil }

func TestPublishReviewTask(t *testing.T) {
	ch := &fakeChannel{}
	client := &Client{channel: ch, logger: logger.New()}

	err := client.PublishReviewTask(context.Background(), ReviewTask{
		Kind:      KindGeneration,
		OwnerID:   "user-1",
		Platform:  "instagram",
		Decision:  "block",
		Reasons:   []string{"missing_disclosure"},
		Caption:   "Autumn blend is back.",
		Rewritten: true,
	})
	require.NoError(t, err)

	assert.Equal(t, ReviewExchange, ch.exchange)
	assert.Equal(t, ReviewRoutingKey, ch.key)
	assert.Equal(t, uint8(5), ch.msg.Priority)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var got ReviewTask
	require.NoError(t, json.Unmarshal(ch.msg.Body, &got))
	assert.Equal(t, []string{"missing_disclosure"}, got.Reasons)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestPublishReviewTask_Error(t *testing.T) {
	client := &Client{channel: &fakeChannel{err: errors.New("channel closed")}, logger: logger.New()}

	err := client.PublishReviewTask(context.Background(), ReviewTask{Kind: KindPublication, PostID: "p1"})
	assert.ErrorContains(t, err, "channel closed")
}
