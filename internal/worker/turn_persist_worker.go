package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"datacopilot/internal/model"
	"datacopilot/internal/repository"
)

// TurnPersistWorker consumes published chat turns and writes them to the
// turns table, keeping persistence off the request path.
type TurnPersistWorker struct {
	conn      *amqp.Connection
	repo      *repository.TurnRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTurnPersistWorker(conn *amqp.Connection, repo *repository.TurnRepository, queueName string) *TurnPersistWorker {
	return &TurnPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *TurnPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var turn model.ChatTurn
				if err := json.Unmarshal(d.Body, &turn); err != nil {
					log.Printf("worker decode turn failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.repo.Create(&turn); err != nil {
					log.Printf("worker persist turn failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *TurnPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
