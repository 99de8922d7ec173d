package listener

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/labcare/pmc-service/internal/logger"
	"github.com/labcare/pmc-service/internal/maintenance"
	"github.com/labcare/pmc-service/internal/maintenance/dto"
	"github.com/labcare/pmc-service/internal/model"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUseCase struct {
	mu      sync.Mutex
	routine []*dto.RoutineServiceInput
	repair  []*dto.RepairEventInput
	err     error
}

func (r *recordingUseCase) RecordRoutineService(_ context.Context, in *dto.RoutineServiceInput) (*dto.RoutineServiceResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routine = append(r.routine, in)
	return &dto.RoutineServiceResult{}, r.err
}

func (r *recordingUseCase) RecordRepairEvent(_ context.Context, in *dto.RepairEventInput) (*model.ServiceLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.repair = append(r.repair, in)
	return &model.ServiceLogEntry{}, r.err
}

func (r *recordingUseCase) ListServiceHistory(context.Context, *dto.HistoryFilters) ([]model.ServiceLogEntry, error) {
	return nil, nil
}

func (r *recordingUseCase) GetReportDetail(context.Context, model.ReportKey) (*dto.ReportDetail, error) {
	return nil, nil
}

func (r *recordingUseCase) calls() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.routine), len(r.repair)
}

const routineEvent = `{
	"event_id": "ev-1",
	"event_type": "RoutineServiceSubmitted",
	"submitted_by": "tech-7",
	"payload": {
		"laboratory_id": 2,
		"workstation_id": 5,
		"quarter": "1st",
		"report_date": "2026-01-15",
		"workstation_status": "Functional",
		"procedure_ids": [1, 2]
	}
}`

func TestProcessMessage_Routine(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewSubmissionListener(nil, uc, logger.NewNop())

	require.NoError(t, l.processMessage(context.Background(), []byte(routineEvent)))

	require.Len(t, uc.routine, 1)
	in := uc.routine[0]
	assert.Equal(t, "tech-7", in.UserID)
	assert.Equal(t, int64(5), in.WorkstationID)
	assert.Equal(t, "Functional", in.Conditions.WorkstationStatus)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), in.ReportDate)
}

func TestProcessMessage_RepairDefaultsToSystemUser(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewSubmissionListener(nil, uc, logger.NewNop())

	err := l.processMessage(context.Background(), []byte(`{
		"event_type": "RepairEventSubmitted",
		"payload": {"workstation_id": 5, "quarter": "1st", "service_date": "2026-01-22",
			"asset_actions": [{"asset_id": 11, "action": "REPLACED", "replacement_tag": "PT-42"}]}
	}`))
	require.NoError(t, err)

	require.Len(t, uc.repair, 1)
	assert.Equal(t, "system", uc.repair[0].UserID)
	assert.Equal(t, "PT-42", uc.repair[0].AssetActions[0].ReplacementTag)
}

func TestProcessMessage_Rejections(t *testing.T) {
	uc := &recordingUseCase{}
	l := NewSubmissionListener(nil, uc, logger.NewNop())
	ctx := context.Background()

	assert.Error(t, l.processMessage(ctx, []byte(`not json`)))

	err := l.processMessage(ctx, []byte(`{"event_type": "RoutineServiceSubmitted", "payload": {"report_date": "soon"}}`))
	assert.ErrorIs(t, err, maintenance.ErrValidation)

	assert.NoError(t, l.processMessage(ctx, []byte(`{"event_type": "OrderCreated", "payload": {}}`)))

	routine, repair := uc.calls()
	assert.Zero(t, routine)
	assert.Zero(t, repair)
}

func TestProcessMessage_UseCaseErrorIsReturned(t *testing.T) {
	uc := &recordingUseCase{err: maintenance.ErrStorageConflict}
	l := NewSubmissionListener(nil, uc, logger.NewNop())

	err := l.processMessage(context.Background(), []byte(routineEvent))
	assert.ErrorIs(t, err, maintenance.ErrStorageConflict)
}

type chanReader struct {
	msgs chan kafka.Message
}

func (c *chanReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-c.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func TestStart_ConsumesUntilCancelled(t *testing.T) {
	reader := &chanReader{msgs: make(chan kafka.Message, 2)}
	uc := &recordingUseCase{err: errors.New("ignored")}
	l := NewSubmissionListener(reader, uc, logger.NewNop())

	reader.msgs <- kafka.Message{Value: []byte(routineEvent)}
	reader.msgs <- kafka.Message{Value: []byte(routineEvent)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		routine, _ := uc.calls()
		return routine == 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}
