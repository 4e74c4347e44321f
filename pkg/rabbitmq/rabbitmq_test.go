package rabbitmq_test

import (
	"errors"
	"testing"

	"krishak/pkg/rabbitmq"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

type recordingAcknowledger struct {
	acked, nacked, requeued bool
}

func (a *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func delivery(body string) (amqp.Delivery, *recordingAcknowledger) {
	ack := &recordingAcknowledger{}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, RoutingKey: "order.created", Body: []byte(body)}, ack
}

func TestHandleOrderMessage(t *testing.T) {
	msg, _ := delivery(`{"orderId":"o-1","buyerId":"b-1","total":"340.00","itemCount":2}`)
	assert.NoError(t, rabbitmq.HandleOrderMessage(msg))

	msg, _ = delivery(`{"buyerId":"b-1"}`)
	assert.Error(t, rabbitmq.HandleOrderMessage(msg))

	msg, _ = delivery(`not json`)
	assert.Error(t, rabbitmq.HandleOrderMessage(msg))
}

func TestDispatchAcksOnSuccess(t *testing.T) {
	msg, ack := delivery(`{"orderId":"o-1"}`)
	rabbitmq.Dispatch(msg, rabbitmq.HandleOrderMessage)
	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
}

func TestDispatchRejectsWithoutRequeue(t *testing.T) {
	msg, ack := delivery(`{}`)
	rabbitmq.Dispatch(msg, func(amqp.Delivery) error { return errors.New("boom") })
	assert.False(t, ack.acked)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}

func TestPublishWithoutChannel(t *testing.T) {
	var c *rabbitmq.Client
	assert.Error(t, c.Publish(rabbitmq.OrderExchange, "order.created", []byte(`{}`)))
}
