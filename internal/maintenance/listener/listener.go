package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/labcare/pmc-service/internal/logger"
	"github.com/labcare/pmc-service/internal/maintenance"
	"github.com/labcare/pmc-service/internal/maintenance/dto"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	EventRoutineServiceSubmitted = "RoutineServiceSubmitted"
	EventRepairEventSubmitted    = "RepairEventSubmitted"

	// systemUser performs submissions that arrive without a submitter.
	systemUser = "system"
)

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// SubmissionListener feeds field-submitted service events into the use case.
type SubmissionListener struct {
	consumer MessageReader
	uc       maintenance.UseCase
	logger   logger.ZapLogger
}

func NewSubmissionListener(consumer MessageReader, uc maintenance.UseCase, logger logger.ZapLogger) *SubmissionListener {
	return &SubmissionListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
	}
}

func (l *SubmissionListener) Start(ctx context.Context) {
	l.logger.Info("Starting PMC submissions Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping PMC submissions Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			if err := l.processMessage(ctx, msg.Value); err != nil {
				l.logger.Error("Failed to process submission",
					zap.String("topic", msg.Topic),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
			}
		}
	}
}

type SubmissionEvent struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	SubmittedBy string          `json:"submitted_by"`
	Payload     json.RawMessage `json:"payload"`
	Timestamp   time.Time       `json:"timestamp"`
}

// processMessage handles one event. Unknown event types are skipped.
// Failed submissions are not retried; the error is returned for logging.
func (l *SubmissionListener) processMessage(ctx context.Context, value []byte) error {
	var event SubmissionEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	userID := event.SubmittedBy
	if userID == "" {
		userID = systemUser
	}

	switch event.EventType {
	case EventRoutineServiceSubmitted:
		var req dto.SubmitReportRequest
		if err := json.Unmarshal(event.Payload, &req); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", event.EventType, err)
		}
		input, err := req.ToInput(userID)
		if err != nil {
			return fmt.Errorf("%w: %v", maintenance.ErrValidation, err)
		}

		l.logger.Info("Processing RoutineServiceSubmitted event",
			zap.String("event_id", event.EventID),
			zap.Int64("workstation_id", input.WorkstationID),
			zap.String("quarter", input.Quarter),
		)
		if _, err := l.uc.RecordRoutineService(ctx, input); err != nil {
			return fmt.Errorf("event %s: %w", event.EventID, err)
		}

	case EventRepairEventSubmitted:
		var req dto.RepairEventRequest
		if err := json.Unmarshal(event.Payload, &req); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", event.EventType, err)
		}
		input, err := req.ToInput(userID)
		if err != nil {
			return fmt.Errorf("%w: %v", maintenance.ErrValidation, err)
		}

		l.logger.Info("Processing RepairEventSubmitted event",
			zap.String("event_id", event.EventID),
			zap.Int64("workstation_id", input.WorkstationID),
			zap.String("quarter", input.Quarter),
		)
		if _, err := l.uc.RecordRepairEvent(ctx, input); err != nil {
			return fmt.Errorf("event %s: %w", event.EventID, err)
		}

	default:
		l.logger.Debug("Skipping unrelated event", zap.String("event_type", event.EventType))
	}
	return nil
}
