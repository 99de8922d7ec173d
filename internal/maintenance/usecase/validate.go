package usecase

import (
	"strings"

	"github.com/labcare/pmc-service/internal/maintenance"
	"github.com/labcare/pmc-service/internal/maintenance/dto"
)

func validateRoutine(in *dto.RoutineServiceInput) (maintenance.WorkstationStatus, error) {
	if in == nil {
		return "", maintenance.NewValidationError("request is required")
	}
	if in.LaboratoryID <= 0 {
		return "", maintenance.NewValidationError("laboratory_id is required")
	}
	if in.WorkstationID <= 0 {
		return "", maintenance.NewValidationError("workstation_id is required")
	}
	if strings.TrimSpace(in.Quarter) == "" {
		return "", maintenance.NewValidationError("quarter is required")
	}
	if in.ReportDate.IsZero() {
		return "", maintenance.NewValidationError("report_date is required")
	}
	if in.UserID == "" {
		return "", maintenance.NewValidationError("caller identity is required")
	}
	for _, pid := range in.ProcedureIDs {
		if pid <= 0 {
			return "", maintenance.NewValidationError("invalid procedure id %d", pid)
		}
	}
	if err := validateActions(in.AssetActions); err != nil {
		return "", err
	}
	return maintenance.ParseWorkstationStatus(in.Conditions.WorkstationStatus)
}

func validateRepair(in *dto.RepairEventInput) error {
	if in == nil {
		return maintenance.NewValidationError("request is required")
	}
	if in.WorkstationID <= 0 {
		return maintenance.NewValidationError("workstation_id is required")
	}
	if strings.TrimSpace(in.Quarter) == "" {
		return maintenance.NewValidationError("quarter is required")
	}
	if in.ServiceDate.IsZero() {
		return maintenance.NewValidationError("service_date is required")
	}
	if in.UserID == "" {
		return maintenance.NewValidationError("caller identity is required")
	}
	return validateActions(in.AssetActions)
}

func validateActions(actions []dto.AssetActionInput) error {
	seen := make(map[int64]struct{}, len(actions))
	for i, a := range actions {
		if a.AssetID <= 0 {
			return maintenance.NewValidationError("asset_actions[%d]: asset_id is required", i)
		}
		if _, dup := seen[a.AssetID]; dup {
			return maintenance.NewValidationError("asset_actions[%d]: asset %d appears more than once", i, a.AssetID)
		}
		seen[a.AssetID] = struct{}{}
	}
	return nil
}
