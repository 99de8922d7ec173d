package handler

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/labcare/pmc-service/internal/auth"
	"github.com/labcare/pmc-service/internal/logger"
	"github.com/labcare/pmc-service/internal/maintenance"
	"github.com/labcare/pmc-service/internal/maintenance/dto"
	"github.com/labcare/pmc-service/internal/model"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

type MaintenanceHandler struct {
	uc     maintenance.UseCase
	logger logger.ZapLogger
}

func NewMaintenanceHandler(uc maintenance.UseCase, log logger.ZapLogger) *MaintenanceHandler {
	return &MaintenanceHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *MaintenanceHandler) SubmitMaintenanceReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body dto.SubmitReportRequest
	if err := decode(req, &body); err != nil {
		return nil, err
	}

	input, err := body.ToInput(auth.GetUserID(ctx))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := h.uc.RecordRoutineService(ctx, input)
	if err != nil {
		return nil, h.toStatus("SubmitMaintenanceReport", err)
	}

	return encode(result)
}

func (h *MaintenanceHandler) SubmitRepairEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body dto.RepairEventRequest
	if err := decode(req, &body); err != nil {
		return nil, err
	}

	input, err := body.ToInput(auth.GetUserID(ctx))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	entry, err := h.uc.RecordRepairEvent(ctx, input)
	if err != nil {
		return nil, h.toStatus("SubmitRepairEvent", err)
	}

	return encode(map[string]interface{}{"log_entry": entry})
}

func (h *MaintenanceHandler) ListServiceHistory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body dto.ReportKeyRequest
	if err := decode(req, &body); err != nil {
		return nil, err
	}

	filters := &dto.HistoryFilters{WorkstationID: body.WorkstationID}
	if body.Quarter != "" {
		q := body.Quarter
		filters.Quarter = &q
	}

	entries, err := h.uc.ListServiceHistory(ctx, filters)
	if err != nil {
		return nil, h.toStatus("ListServiceHistory", err)
	}
	if entries == nil {
		entries = []model.ServiceLogEntry{}
	}

	return encode(map[string]interface{}{"entries": entries})
}

func (h *MaintenanceHandler) GetReportDetail(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var body dto.ReportKeyRequest
	if err := decode(req, &body); err != nil {
		return nil, err
	}

	detail, err := h.uc.GetReportDetail(ctx, model.ReportKey{WorkstationID: body.WorkstationID, Quarter: body.Quarter})
	if err != nil {
		return nil, h.toStatus("GetReportDetail", err)
	}

	return encode(detail)
}

// toStatus maps domain errors onto gRPC codes. Only unexpected failures are
// logged here; the use case already logged the rejected write.
func (h *MaintenanceHandler) toStatus(method string, err error) error {
	code := codes.Internal
	switch {
	case errors.Is(err, maintenance.ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, maintenance.ErrReportNotFound),
		errors.Is(err, maintenance.ErrAssetNotFound),
		errors.Is(err, maintenance.ErrWorkstationNotFound):
		code = codes.NotFound
	case errors.Is(err, maintenance.ErrStorageConflict):
		code = codes.Aborted
	case errors.Is(err, maintenance.ErrOutcomeUnknown):
		code = codes.Unknown
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}

	if code == codes.Internal || code == codes.Unknown {
		h.logger.Error("maintenance request failed", zap.String("method", method), zap.Error(err))
	}
	return status.Error(code, err.Error())
}

func decode(req *structpb.Struct, dest interface{}) error {
	if req == nil {
		req = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	return nil
}

func encode(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
