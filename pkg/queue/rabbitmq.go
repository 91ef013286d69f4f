package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"postcraft/pkg/config"
	"postcraft/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ReviewQueueName  = "review_queue"
	ReviewExchange   = "moderation"
	ReviewRoutingKey = "review"
)

// Review task kinds.
const (
	KindGeneration  = "generation"
	KindPublication = "publication"
)

// ReviewTask asks a human to look at content the moderator flagged.
type ReviewTask struct {
	Kind      string    `json:"kind"`
	PostID    string    `json:"post_id,omitempty"`
	OwnerID   string    `json:"owner_id"`
	Platform  string    `json:"platform"`
	Decision  string    `json:"decision"`
	Reasons   []string  `json:"reasons"`
	Coaching  []string  `json:"coaching,omitempty"`
	Caption   string    `json:"caption"`
	Rewritten bool      `json:"rewritten,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Priority ranks rewritten blocks above plain review flags.
func (t ReviewTask) Priority() uint8 {
	if t.Rewritten {
		return 5
	}
	return 1
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Client struct {
	conn    *amqp.Connection
	channel publisher
	logger  *logger.Logger
}

func NewRabbitMQClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser,
		cfg.RabbitMQPassword,
		cfg.RabbitMQHost,
		cfg.RabbitMQPort,
	)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		ReviewExchange, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		ReviewQueueName, // name
		true,            // durable
		false,           // delete when unused
		false,           // exclusive
		false,           // no-wait
		amqp.Table{
			"x-max-priority": 10,
		},
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(ReviewQueueName, ReviewRoutingKey, ReviewExchange, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("Connected to RabbitMQ at %s:%s", cfg.RabbitMQHost, cfg.RabbitMQPort)

	return &Client{
		conn:    conn,
		channel: channel,
		logger:  log,
	}, nil
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishReviewTask hands a flagged item to the human review queue.
func (c *Client) PublishReviewTask(ctx context.Context, task ReviewTask) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal review task: %w", err)
	}

	err = c.channel.PublishWithContext(ctx,
		ReviewExchange,   // exchange
		ReviewRoutingKey, // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Priority:     task.Priority(),
			DeliveryMode: amqp.Persistent,
			Timestamp:    task.CreatedAt,
		},
	)
	if err != nil {
		c.logger.Error("[RABBITMQ] Failed to publish review task kind=%s post=%s: %v", task.Kind, task.PostID, err)
		return fmt.Errorf("failed to publish review task: %w", err)
	}

	c.logger.Info("[RABBITMQ] Published review task kind=%s post=%s decision=%s", task.Kind, task.PostID, task.Decision)
	return nil
}
