package notify

import (
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPBus is a Bus backed by an exclusive auto-delete queue on the Datamart
// broker.
type AMQPBus struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	msgs chan []byte
	done chan struct{}
	once sync.Once
}

// DialAMQP connects to url, declares topic.Queue and binds every routing key
// to topic.Exchange.
func DialAMQP(url string, topic Topic) (*AMQPBus, error) {
	if url == "" {
		url = DefaultURL
	}
	if topic.Exchange == "" {
		topic.Exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	q, err := declareQueue(ch, topic.Queue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring queue %s: %w", topic.Queue, err)
	}

	for _, key := range topic.RoutingKeys {
		if err := ch.QueueBind(q.Name, key, topic.Exchange, false, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("binding %s to %s: %w", key, topic.Exchange, err)
		}
	}

	deliveries, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("consuming from %s: %w", q.Name, err)
	}

	b := &AMQPBus{
		conn: conn,
		ch:   ch,
		msgs: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go b.forward(deliveries)

	return b, nil
}

type queueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
}

// declareQueue declares a non-durable, auto-delete queue owned by this
// connection alone.
func declareQueue(ch queueDeclarer, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(name, false, true, true, false, nil)
}

func (b *AMQPBus) forward(deliveries <-chan amqp.Delivery) {
	defer close(b.msgs)
	for d := range deliveries {
		select {
		case b.msgs <- d.Body:
		case <-b.done:
			return
		}
	}
}

// Messages returns the message bodies received on the queue.
func (b *AMQPBus) Messages() <-chan []byte {
	return b.msgs
}

// Close tears down the channel and connection. The broker drops the queue.
func (b *AMQPBus) Close() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		if err = b.ch.Close(); err != nil {
			b.conn.Close()
			return
		}
		err = b.conn.Close()
	})
	return err
}
