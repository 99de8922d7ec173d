package dto

import "github.com/labcare/pmc-service/internal/model"

type RoutineServiceResult struct {
	Report   *model.MaintenanceReport `json:"report"`
	LogEntry *model.ServiceLogEntry   `json:"log_entry"`
}

type ReportDetail struct {
	Report     *model.MaintenanceReport `json:"report"`
	Procedures []model.ProcedureCheck   `json:"procedures"`
	History    []model.ServiceLogEntry  `json:"history"`
}

// NewAsset carries what the registry needs to create a replacement asset.
type NewAsset struct {
	LaboratoryID  *int64
	WorkstationID int64
	UnitID        *int64
	AddedBy       string
	PropertyTag   string
	SerialNumber  string
	Description   string
	StatusID      *int64
	Remarks       string
}
