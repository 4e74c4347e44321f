// Package rabbitmq publishes and consumes marketplace order events.
package rabbitmq

import (
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
	"github.com/tidwall/gjson"
)

// Topology of order events.
const (
	OrderExchange   = "order"
	OrderQueue      = "order_events"
	OrderBindingKey = "order.#"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the order exchange and queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info("RabbitMQ client connected and order topology declared.")

	return &Client{
		conn:    conn,
		channel: ch,
	}, nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		OrderExchange, // name
		"topic",       // kind
		true,          // durable
		false,         // auto-deleted
		false,         // internal
		false,         // no-wait
		nil,           // arguments
	); err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", OrderExchange, err)
	}

	queue, err := ch.QueueDeclare(
		OrderQueue, // name
		true,       // durable
		false,      // delete when unused
		false,      // exclusive
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare %s: %w", OrderQueue, err)
	}

	if err := ch.QueueBind(queue.Name, OrderBindingKey, OrderExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind %s: %w", OrderQueue, err)
	}
	return nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred during RabbitMQ client close: %v", errs)
	}
	return nil
}

// Publish sends a persistent JSON message to exchange with routingKey.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	log.WithField("routing_key", routingKey).Debugf("Sent event: %s", body)
	return nil
}

// ConsumeOrderEvents starts a goroutine that feeds every order event to
// messageHandler until the channel closes.
func (c *Client) ConsumeOrderEvents(messageHandler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(
		OrderQueue, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Info("Waiting for order events")

	go func() {
		for msg := range msgs {
			Dispatch(msg, messageHandler)
		}
	}()

	return nil
}

// Dispatch runs handler on msg and acknowledges it. A failed message is
// rejected without requeue so a poison message cannot loop forever.
func Dispatch(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	if err := handler(msg); err != nil {
		log.Printf("Error processing message %d: %v", msg.DeliveryTag, err)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			log.Printf("Error nacking message %d: %v", msg.DeliveryTag, nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		log.Printf("Error acking message %d: %v", msg.DeliveryTag, ackErr)
	}
}

// HandleOrderMessage logs an order event. Messages without an order id are
// rejected as malformed.
func HandleOrderMessage(msg amqp.Delivery) error {
	if !gjson.ValidBytes(msg.Body) {
		return fmt.Errorf("order event is not valid JSON")
	}
	event := gjson.ParseBytes(msg.Body)
	orderID := event.Get("orderId").String()
	if orderID == "" {
		return fmt.Errorf("order event has no orderId")
	}

	log.WithFields(log.Fields{
		"routing_key": msg.RoutingKey,
		"order_id":    orderID,
		"buyer_id":    event.Get("buyerId").String(),
		"total":       event.Get("total").String(),
		"items":       event.Get("itemCount").Int(),
	}).Info("Order event received")
	return nil
}
