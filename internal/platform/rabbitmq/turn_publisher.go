package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"datacopilot/internal/model"
)

type TurnPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewTurnPublisher(conn *amqp.Connection, queueName string) *TurnPublisher {
	return &TurnPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *TurnPublisher) Publish(ctx context.Context, turn model.ChatTurn) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn payload failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish turn failed: %w", err)
	}
	return nil
}
