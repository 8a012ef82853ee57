package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/weiawesome/user-avatar-service/internal/domain"
	"github.com/weiawesome/user-avatar-service/pkg/log"
	"github.com/weiawesome/user-avatar-service/pkg/pubsub"
)

const (
	// TopicEmailSend is consumed by the mail sender.
	TopicEmailSend = "email_send_event"

	EventTypeEmailSend = "email.send"

	welcomeSubject = "Welcome to Our App"

	publishTimeout = 5 * time.Second
)

// Dispatcher hands notifications to the event bus without waiting for
// delivery. Publish failures are logged and never reach the caller.
type Dispatcher struct {
	publisher pubsub.Publisher
	topic     string
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher. An empty topic selects TopicEmailSend.
func NewDispatcher(publisher pubsub.Publisher, topic string) *Dispatcher {
	if topic == "" {
		topic = TopicEmailSend
	}
	return &Dispatcher{publisher: publisher, topic: topic}
}

// Topic returns the topic email events are published to.
func (d *Dispatcher) Topic() string {
	return d.topic
}

// SendWelcomeEmail queues the welcome email for a newly registered user.
func (d *Dispatcher) SendWelcomeEmail(ctx context.Context, name, email string) {
	d.Publish(ctx, email, &domain.WelcomeEmail{
		To:      email,
		Subject: welcomeSubject,
		Text:    fmt.Sprintf("Hello %s, welcome to our app!", name),
	})
}

// Publish sends payload on the dispatcher topic in the background.
// The request context only supplies the logger; cancellation does not
// abort an in-flight publish.
func (d *Dispatcher) Publish(ctx context.Context, key string, payload interface{}) {
	l := log.Ctx(ctx).With().Str(log.FieldTopic, d.topic).Logger()

	event, err := pubsub.NewEvent(EventTypeEmailSend, key, payload)
	if err != nil {
		l.Error().Err(err).Msg("failed to build notification event")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := d.publisher.Publish(pubCtx, d.topic, event); err != nil {
			l.Warn().Err(err).Msg("failed to publish notification")
			return
		}
		l.Debug().Msg("notification published")
	}()
}

// Close waits for in-flight publishes to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}
