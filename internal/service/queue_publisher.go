// Package service holds glue between HTTP handlers and external
// systems that is not persistence, currently the broker publisher for
// confirmed donations.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/bloodbridge/api/internal/queue"
)

// PublishDonationConfirmed sends a DonationConfirmedEvent to the
// donation.confirmed queue. The claim handler calls it best-effort
// after the winning donor is recorded, so every failure path logs and
// returns rather than panicking; a broker outage costs a notification,
// not a donation.
func PublishDonationConfirmed(ctx context.Context, event queue.DonationConfirmedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	conn, err := amqp.Dial(queue.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable declare is idempotent and guarantees the queue exists even
	// when the consumer has not started yet.
	if _, err := ch.QueueDeclare(queue.DonationConfirmedQueue, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",                           // default exchange
		queue.DonationConfirmedQueue, // routing key = queue name
		false,                        // mandatory
		false,                        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
	}
	return err
}
