package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/avkuzmin/gymcore/internal/apperrors"
)

const otpQueueName = "notify.otp"

// Event published for every generated code
// Carries enough for the mailer to render and send without calling back
type OTPRequestedEvent struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	Purpose     string `json:"purpose"`
	RequestedAt string `json:"requested_at"`
}

// AMQPNotifier publishes codes to a RabbitMQ queue consumed by the mailer
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQP(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial failed. Err: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel open failed. Err: %w", err)
	}

	// Declare durable queue so codes survive broker restarts. Idempotent.
	_, err = ch.QueueDeclare(otpQueueName, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare failed. Err: %w", err)
	}

	return &AMQPNotifier{conn: conn, channel: ch}, nil
}

func (n *AMQPNotifier) SendCode(ctx context.Context, email string, code string, purpose string) error {
	event := OTPRequestedEvent{
		Email:       email,
		Code:        code,
		Purpose:     purpose,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal event. Err: %w", apperrors.ErrNotifyFailed, err)
	}

	err = n.channel.PublishWithContext(ctx,
		"",           // default exchange
		otpQueueName, // routing key = queue name
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: publish. Err: %w", apperrors.ErrNotifyFailed, err)
	}

	return nil
}

func (n *AMQPNotifier) Close() error {
	_ = n.channel.Close()
	return n.conn.Close()
}
