package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labcare/pmc-service/internal/cache"
	"github.com/labcare/pmc-service/internal/logger"
	"github.com/labcare/pmc-service/internal/maintenance"
	"github.com/labcare/pmc-service/internal/maintenance/dto"
	"github.com/labcare/pmc-service/internal/model"
	"go.uber.org/zap"
)

type Config struct {
	CacheTTL       time.Duration
	CacheKeyPrefix string
	Now            func() time.Time
}

type maintenanceUseCase struct {
	uow       maintenance.UnitOfWork
	cache     maintenance.ReadCache
	publisher maintenance.EventPublisher
	cfg       Config
	logger    logger.ZapLogger
}

// NewMaintenanceUseCase wires the orchestrator. cache and publisher may be
// nil; the service then reads straight from Postgres and emits no events.
func NewMaintenanceUseCase(uow maintenance.UnitOfWork, cache maintenance.ReadCache, publisher maintenance.EventPublisher, cfg Config, log logger.ZapLogger) maintenance.UseCase {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CacheKeyPrefix == "" {
		cfg.CacheKeyPrefix = "pmc"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &maintenanceUseCase{
		uow:       uow,
		cache:     cache,
		publisher: publisher,
		cfg:       cfg,
		logger:    log,
	}
}

func (uc *maintenanceUseCase) RecordRoutineService(ctx context.Context, input *dto.RoutineServiceInput) (*dto.RoutineServiceResult, error) {
	status, err := validateRoutine(input)
	if err != nil {
		return nil, err
	}

	now := uc.cfg.Now()
	quarter := strings.TrimSpace(input.Quarter)
	serviceType := maintenance.NormalizeServiceType(input.ServiceType, maintenance.ServiceTypeRoutine)
	actions := uc.verbatimActions(input.AssetActions)

	var result dto.RoutineServiceResult
	err = uc.uow.Do(ctx, func(ctx context.Context, s maintenance.Stores) error {
		report, statusBefore, err := s.Reports.Upsert(ctx, &model.MaintenanceReport{
			BaseModel:          model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			LaboratoryID:       input.LaboratoryID,
			WorkstationID:      input.WorkstationID,
			Quarter:            quarter,
			ReportDate:         input.ReportDate,
			WorkstationStatus:  status.String(),
			SoftwareStatus:     input.Conditions.SoftwareStatus,
			ConnectivityStatus: input.Conditions.ConnectivityStatus,
			Remarks:            input.Conditions.Remarks,
			CreatedBy:          input.UserID,
		})
		if err != nil {
			return err
		}

		links, err := s.Reports.ReplaceProcedureLinks(ctx, report.ID, input.ProcedureIDs)
		if err != nil {
			return err
		}

		if err := s.Assets.SetWorkstationStatus(ctx, input.WorkstationID, status.String()); err != nil {
			return err
		}

		checks := make([]model.ProcedureCheck, len(links))
		for i, l := range links {
			checks[i] = model.ProcedureCheck{ProcedureID: l.ProcedureID, ProcedureName: l.ProcedureName, IsChecked: true}
		}

		entry := &model.ServiceLogEntry{
			ID:              uuid.New().String(),
			ReportID:        report.ID,
			ServiceType:     serviceType,
			ServiceDate:     input.ReportDate,
			PerformedBy:     input.UserID,
			Remarks:         input.Conditions.Remarks,
			StatusBefore:    statusBefore,
			StatusAfter:     status.String(),
			CreatedAt:       now,
			ProcedureChecks: checks,
			AssetActions:    actions,
		}
		if err := s.Log.Append(ctx, entry); err != nil {
			return err
		}

		result = dto.RoutineServiceResult{Report: report, LogEntry: entry}
		return nil
	})
	if err != nil {
		uc.logger.Warn("routine service not recorded",
			zap.Int64("workstation_id", input.WorkstationID),
			zap.String("quarter", quarter),
			zap.Error(err),
		)
		return nil, err
	}

	uc.afterCommit(ctx, result.Report, result.LogEntry)
	return &result, nil
}

func (uc *maintenanceUseCase) RecordRepairEvent(ctx context.Context, input *dto.RepairEventInput) (*model.ServiceLogEntry, error) {
	if err := validateRepair(input); err != nil {
		return nil, err
	}

	now := uc.cfg.Now()
	key := model.ReportKey{WorkstationID: input.WorkstationID, Quarter: strings.TrimSpace(input.Quarter)}
	serviceType := maintenance.NormalizeServiceType(input.ServiceType, maintenance.ServiceTypeRepair)

	var (
		entry   *model.ServiceLogEntry
		updated *model.MaintenanceReport
	)
	err := uc.uow.Do(ctx, func(ctx context.Context, s maintenance.Stores) error {
		report, err := s.Reports.FindCurrent(ctx, key)
		if err != nil {
			return err
		}
		if report == nil {
			return fmt.Errorf("%w: workstation %d has no %s quarter report; record routine service first",
				maintenance.ErrReportNotFound, key.WorkstationID, key.Quarter)
		}
		statusBefore := report.WorkstationStatus

		statuses, err := uc.lookupStatuses(ctx, s, input.AssetActions)
		if err != nil {
			return err
		}

		kinds := make([]maintenance.ActionKind, 0, len(input.AssetActions))
		actions := make([]model.AssetAction, 0, len(input.AssetActions))
		for i := range input.AssetActions {
			in := &input.AssetActions[i]
			kind := uc.parseKind(in)
			kinds = append(kinds, kind)

			var action model.AssetAction
			switch kind {
			case maintenance.ActionReplaced:
				action, err = uc.replaceAsset(ctx, s, input, in, statuses)
			case maintenance.ActionRepaired, maintenance.ActionUpgraded:
				action, err = uc.restoreAsset(ctx, s, input, in, kind, statuses)
			default:
				action = verbatimAction(in, kind)
			}
			if err != nil {
				return err
			}
			actions = append(actions, action)
		}

		statusAfter := maintenance.DeriveStatusAfter(kinds)

		entry = &model.ServiceLogEntry{
			ID:              uuid.New().String(),
			ReportID:        report.ID,
			ServiceType:     serviceType,
			ServiceDate:     input.ServiceDate,
			PerformedBy:     input.UserID,
			Remarks:         input.Remarks,
			StatusBefore:    statusBefore,
			StatusAfter:     statusAfter.String(),
			CreatedAt:       now,
			ProcedureChecks: []model.ProcedureCheck{},
			AssetActions:    actions,
		}
		if err := s.Log.Append(ctx, entry); err != nil {
			return err
		}

		updated, err = s.Reports.ApplyRepair(ctx, report.ID, statusAfter.String(), input.ServiceDate, now)
		if err != nil {
			return err
		}

		return s.Assets.SetWorkstationStatus(ctx, input.WorkstationID, statusAfter.String())
	})
	if err != nil {
		uc.logger.Warn("repair event not recorded",
			zap.Int64("workstation_id", key.WorkstationID),
			zap.String("quarter", key.Quarter),
			zap.Error(err),
		)
		return nil, err
	}

	uc.afterCommit(ctx, updated, entry)
	return entry, nil
}

func (uc *maintenanceUseCase) ListServiceHistory(ctx context.Context, filters *dto.HistoryFilters) ([]model.ServiceLogEntry, error) {
	if filters == nil || filters.WorkstationID <= 0 {
		return nil, maintenance.NewValidationError("workstation_id is required")
	}

	quarterKey := "all"
	if filters.Quarter != nil && strings.TrimSpace(*filters.Quarter) != "" {
		q := strings.TrimSpace(*filters.Quarter)
		filters = &dto.HistoryFilters{WorkstationID: filters.WorkstationID, Quarter: &q}
		quarterKey = q
	} else {
		filters = &dto.HistoryFilters{WorkstationID: filters.WorkstationID}
	}
	cacheKey := uc.cacheKey(filters.WorkstationID, "history", quarterKey)

	var cached []model.ServiceLogEntry
	if uc.readCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	entries, err := uc.uow.Reader().Log.ListByWorkstation(ctx, filters)
	if err != nil {
		return nil, err
	}

	uc.writeCache(ctx, cacheKey, entries)
	return entries, nil
}

func (uc *maintenanceUseCase) GetReportDetail(ctx context.Context, key model.ReportKey) (*dto.ReportDetail, error) {
	key.Quarter = strings.TrimSpace(key.Quarter)
	if key.WorkstationID <= 0 {
		return nil, maintenance.NewValidationError("workstation_id is required")
	}
	if key.Quarter == "" {
		return nil, maintenance.NewValidationError("quarter is required")
	}

	cacheKey := uc.cacheKey(key.WorkstationID, "detail", key.Quarter)
	var cached dto.ReportDetail
	if uc.readCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	stores := uc.uow.Reader()
	report, err := stores.Reports.FindCurrent(ctx, key)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, fmt.Errorf("%w: workstation %d, quarter %s", maintenance.ErrReportNotFound, key.WorkstationID, key.Quarter)
	}

	procedures, err := stores.Reports.GetProcedures(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	history, err := stores.Log.ListByReport(ctx, report.ID)
	if err != nil {
		return nil, err
	}

	detail := &dto.ReportDetail{Report: report, Procedures: procedures, History: history}
	uc.writeCache(ctx, cacheKey, detail)
	return detail, nil
}

// lookupStatuses fetches every status name an action may resolve to, once
// per event. Returns nil when no action mutates inventory.
func (uc *maintenanceUseCase) lookupStatuses(ctx context.Context, s maintenance.Stores, actions []dto.AssetActionInput) ([]model.AssetStatus, error) {
	mutating := false
	for i := range actions {
		if kind, _ := maintenance.ParseActionKind(actions[i].Action); kind != maintenance.ActionChecked {
			mutating = true
			break
		}
	}
	if !mutating {
		return nil, nil
	}

	names := append(append([]string{}, maintenance.EndOfLifeStatusPriority...), maintenance.FunctionalStatusPriority...)
	return s.Assets.FindStatusesByName(ctx, names)
}

func (uc *maintenanceUseCase) replaceAsset(ctx context.Context, s maintenance.Stores, event *dto.RepairEventInput, in *dto.AssetActionInput, statuses []model.AssetStatus) (model.AssetAction, error) {
	asset, err := findAsset(ctx, s, in.AssetID)
	if err != nil {
		return model.AssetAction{}, err
	}
	if err := requireAttached(asset, event.WorkstationID, maintenance.ActionReplaced); err != nil {
		return model.AssetAction{}, err
	}

	current := asset.Detail.CurrentStatus()
	target := maintenance.ResolveStatus(maintenance.EndOfLifeStatusPriority, statuses)
	if target == nil {
		uc.logger.Warn("no end-of-life asset status defined, keeping current status",
			zap.Int64("asset_id", asset.ID),
			zap.Strings("tried", maintenance.EndOfLifeStatusPriority),
		)
		target = current
	}

	if err := s.Assets.DetachFromWorkstation(ctx, asset.ID); err != nil {
		return model.AssetAction{}, err
	}
	remark := maintenance.ComposeRemark(asset.Detail.Remarks, event.ServiceDate, maintenance.ActionReplaced, in.Remarks)
	if err := s.Assets.SetStatusAndRemark(ctx, asset.Detail.ID, statusID(target), remark); err != nil {
		return model.AssetAction{}, err
	}

	action := model.AssetAction{
		ID:             uuid.New().String(),
		AssetID:        asset.ID,
		Action:         string(maintenance.ActionReplaced),
		StatusBefore:   statusName(current),
		StatusAfter:    statusName(target),
		OldPropertyTag: firstNonEmpty(in.OldPropertyTag, asset.Detail.PropertyTag),
		NewPropertyTag: in.NewPropertyTag,
		Remarks:        in.Remarks,
	}

	if !in.HasReplacementDetails() {
		return action, nil
	}

	labID := asset.LaboratoryID
	if labID == nil && event.LaboratoryID > 0 {
		labID = &event.LaboratoryID
	}
	newID, err := s.Assets.CreateReplacement(ctx, &dto.NewAsset{
		LaboratoryID:  labID,
		WorkstationID: event.WorkstationID,
		UnitID:        asset.UnitID,
		AddedBy:       event.UserID,
		PropertyTag:   in.ReplacementTag,
		SerialNumber:  in.ReplacementSerial,
		Description:   in.ReplacementDescription,
		StatusID:      statusID(maintenance.ResolveStatus(maintenance.FunctionalStatusPriority, statuses)),
		Remarks:       maintenance.ComposeRemark("", event.ServiceDate, maintenance.ActionReplaced, fmt.Sprintf("replaces asset %d", asset.ID)),
	})
	if err != nil {
		return model.AssetAction{}, err
	}
	action.ReplacementAssetID = &newID
	if action.NewPropertyTag == nil && in.ReplacementTag != "" {
		tag := in.ReplacementTag
		action.NewPropertyTag = &tag
	}
	return action, nil
}

// restoreAsset handles REPAIRED and UPGRADED: the asset goes back to Functional.
func (uc *maintenanceUseCase) restoreAsset(ctx context.Context, s maintenance.Stores, event *dto.RepairEventInput, in *dto.AssetActionInput, kind maintenance.ActionKind, statuses []model.AssetStatus) (model.AssetAction, error) {
	asset, err := findAsset(ctx, s, in.AssetID)
	if err != nil {
		return model.AssetAction{}, err
	}
	if err := requireAttached(asset, event.WorkstationID, kind); err != nil {
		return model.AssetAction{}, err
	}

	current := asset.Detail.CurrentStatus()
	target := maintenance.ResolveStatus(maintenance.FunctionalStatusPriority, statuses)
	if target == nil {
		uc.logger.Warn("no Functional asset status defined, keeping current status", zap.Int64("asset_id", asset.ID))
		target = current
	}

	remark := maintenance.ComposeRemark(asset.Detail.Remarks, event.ServiceDate, kind, in.Remarks)
	if err := s.Assets.SetStatusAndRemark(ctx, asset.Detail.ID, statusID(target), remark); err != nil {
		return model.AssetAction{}, err
	}

	return model.AssetAction{
		ID:             uuid.New().String(),
		AssetID:        asset.ID,
		Action:         string(kind),
		StatusBefore:   statusName(current),
		StatusAfter:    statusName(target),
		OldPropertyTag: firstNonEmpty(in.OldPropertyTag, asset.Detail.PropertyTag),
		NewPropertyTag: in.NewPropertyTag,
		Remarks:        in.Remarks,
	}, nil
}

func (uc *maintenanceUseCase) parseKind(in *dto.AssetActionInput) maintenance.ActionKind {
	kind, known := maintenance.ParseActionKind(in.Action)
	if !known {
		uc.logger.Warn("unrecognized asset action kind, recording as CHECKED",
			zap.Int64("asset_id", in.AssetID),
			zap.String("action", in.Action),
		)
	}
	return kind
}

func (uc *maintenanceUseCase) verbatimActions(inputs []dto.AssetActionInput) []model.AssetAction {
	actions := make([]model.AssetAction, 0, len(inputs))
	for i := range inputs {
		actions = append(actions, verbatimAction(&inputs[i], uc.parseKind(&inputs[i])))
	}
	return actions
}

func verbatimAction(in *dto.AssetActionInput, kind maintenance.ActionKind) model.AssetAction {
	return model.AssetAction{
		ID:             uuid.New().String(),
		AssetID:        in.AssetID,
		Action:         string(kind),
		StatusBefore:   in.StatusBefore,
		StatusAfter:    in.StatusAfter,
		OldPropertyTag: in.OldPropertyTag,
		NewPropertyTag: in.NewPropertyTag,
		Remarks:        in.Remarks,
	}
}

// requireAttached rejects mutating actions on equipment that is not on the
// workstation being serviced, including assets already detached.
func requireAttached(asset *model.InventoryAsset, workstationID int64, kind maintenance.ActionKind) error {
	if asset.WorkstationID == nil || *asset.WorkstationID != workstationID {
		return maintenance.NewValidationError("asset %d is not attached to workstation %d, cannot record %s",
			asset.ID, workstationID, kind)
	}
	return nil
}

func findAsset(ctx context.Context, s maintenance.Stores, assetID int64) (*model.InventoryAsset, error) {
	asset, err := s.Assets.FindAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil || asset.Detail == nil {
		return nil, fmt.Errorf("%w: asset %d", maintenance.ErrAssetNotFound, assetID)
	}
	return asset, nil
}

// afterCommit runs side effects that must not fail the committed operation.
func (uc *maintenanceUseCase) afterCommit(ctx context.Context, report *model.MaintenanceReport, entry *model.ServiceLogEntry) {
	uc.invalidate(ctx, report.WorkstationID)
	uc.publish(ctx, report, entry)
}

func (uc *maintenanceUseCase) publish(ctx context.Context, report *model.MaintenanceReport, entry *model.ServiceLogEntry) {
	if uc.publisher == nil {
		return
	}

	event := maintenance.ServiceRecordedEvent{
		EventID:   uuid.New().String(),
		EventType: maintenance.EventServiceRecorded,
		Payload: maintenance.ServiceRecordedPayload{
			ReportID:      report.ID,
			LogEntryID:    entry.ID,
			LaboratoryID:  report.LaboratoryID,
			WorkstationID: report.WorkstationID,
			Quarter:       report.Quarter,
			ServiceType:   entry.ServiceType,
			ServiceDate:   entry.ServiceDate,
			StatusBefore:  entry.StatusBefore,
			StatusAfter:   entry.StatusAfter,
			ServiceCount:  report.ServiceCount,
			PerformedBy:   entry.PerformedBy,
		},
		Timestamp: entry.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		uc.logger.Error("failed to encode service event", zap.Error(err))
		return
	}
	if err := uc.publisher.Publish(ctx, fmt.Sprintf("%d", report.WorkstationID), payload); err != nil {
		uc.logger.Error("failed to publish service event",
			zap.String("log_entry_id", entry.ID),
			zap.Error(err),
		)
	}
}

func (uc *maintenanceUseCase) cacheKey(workstationID int64, kind, quarter string) string {
	return fmt.Sprintf("%s:ws:%d:%s:%s", uc.cfg.CacheKeyPrefix, workstationID, kind, quarter)
}

func (uc *maintenanceUseCase) invalidate(ctx context.Context, workstationID int64) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("%s:ws:%d:*", uc.cfg.CacheKeyPrefix, workstationID)
	if err := uc.cache.DeletePattern(ctx, pattern); err != nil {
		uc.logger.Error("failed to invalidate cache", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (uc *maintenanceUseCase) readCache(ctx context.Context, key string, dest interface{}) bool {
	if uc.cache == nil {
		return false
	}
	err := uc.cache.GetJSON(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		uc.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

func (uc *maintenanceUseCase) writeCache(ctx context.Context, key string, value interface{}) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.SetJSON(ctx, key, value, uc.cfg.CacheTTL); err != nil {
		uc.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func statusID(s *model.AssetStatus) *int64 {
	if s == nil {
		return nil
	}
	id := s.ID
	return &id
}

func statusName(s *model.AssetStatus) *string {
	if s == nil || s.Name == "" {
		return nil
	}
	name := s.Name
	return &name
}

func firstNonEmpty(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}
