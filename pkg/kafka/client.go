package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/multierr"

	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
)

const defaultDialTimeout = 5 * time.Second

var errNoBrokers = errors.New("kafka brokers are required")

// Client hands out one writer per topic and owns their lifecycle.
type Client struct {
	brokers      []string
	writeTimeout time.Duration

	mu      sync.Mutex
	writers map[string]*kafkago.Writer
}

// NewClient validates the broker list and checks that at least one broker
// answers.
func NewClient(ctx context.Context, cfg config.KafkaConfig, logg *logger.Logger) (*Client, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, broker := range cfg.Brokers {
		if trimmed := strings.TrimSpace(broker); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	if len(brokers) == 0 {
		return nil, errNoBrokers
	}

	c := &Client{
		brokers:      brokers,
		writeTimeout: cfg.WriteTimeout,
		writers:      make(map[string]*kafkago.Writer),
	}
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "brokers", strings.Join(brokers, ",")), "kafka client initialized")
	}
	return c, nil
}

// Ping dials the brokers in order and succeeds on the first that accepts.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || len(c.brokers) == 0 {
		return errNoBrokers
	}
	dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	var errs error
	for _, broker := range c.brokers {
		conn, err := kafkago.DialContext(dialCtx, "tcp", broker)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("dial %s: %w", broker, err))
			continue
		}
		_ = conn.Close()
		return nil
	}
	return errs
}

// Publisher returns the writer for topic, creating it on first use.
func (c *Client) Publisher(topic string) *kafkago.Writer {
	topic = strings.TrimSpace(topic)
	if c == nil || topic == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if writer, ok := c.writers[topic]; ok {
		return writer
	}
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(c.brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: c.writeTimeout,
	}
	c.writers[topic] = writer
	return writer
}

// Close flushes and closes every writer handed out.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs error
	for topic, writer := range c.writers {
		if err := writer.Close(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close writer %s: %w", topic, err))
		}
	}
	c.writers = make(map[string]*kafkago.Writer)
	return errs
}
