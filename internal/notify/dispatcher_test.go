package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/user-avatar-service/internal/domain"
	"github.com/weiawesome/user-avatar-service/pkg/pubsub"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []*pubsub.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *pubsub.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestDispatcher_SendWelcomeEmail(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, "")
	assert.Equal(t, TopicEmailSend, d.Topic())

	d.SendWelcomeEmail(context.Background(), "Janet", "janet@example.com")
	d.Close()

	require.Len(t, pub.events, 1)
	assert.Equal(t, TopicEmailSend, pub.topics[0])
	assert.Equal(t, EventTypeEmailSend, pub.events[0].Type)

	var email domain.WelcomeEmail
	require.NoError(t, pub.events[0].UnmarshalPayload(&email))
	assert.Equal(t, domain.WelcomeEmail{
		To:      "janet@example.com",
		Subject: "Welcome to Our App",
		Text:    "Hello Janet, welcome to our app!",
	}, email)
}

func TestDispatcher_PublishErrorIsSwallowed(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	d := NewDispatcher(pub, "custom_topic")

	assert.NotPanics(t, func() {
		d.SendWelcomeEmail(context.Background(), "A", "a@example.com")
		d.Close()
	})
	assert.Equal(t, []string{"custom_topic"}, pub.topics)
}

func TestDispatcher_SurvivesRequestCancellation(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, "")

	ctx, cancel := context.WithCancel(context.Background())
	d.SendWelcomeEmail(ctx, "A", "a@example.com")
	cancel()
	d.Close()

	assert.Len(t, pub.events, 1)
}

func TestDispatcher_RedisPublisher(t *testing.T) {
	mr := miniredis.RunT(t)

	pub, err := pubsub.NewRedisPublisher(pubsub.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer pub.Close()

	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()

	ctx := context.Background()
	ps := sub.Subscribe(ctx, TopicEmailSend)
	defer ps.Close()
	_, err = ps.Receive(ctx)
	require.NoError(t, err)

	d := NewDispatcher(pub, "")
	d.SendWelcomeEmail(ctx, "Janet", "janet@example.com")
	d.Close()

	select {
	case msg := <-ps.Channel():
		var event pubsub.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		var email domain.WelcomeEmail
		require.NoError(t, event.UnmarshalPayload(&email))
		assert.Equal(t, "janet@example.com", email.To)
		assert.Equal(t, "Welcome to Our App", email.Subject)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}
