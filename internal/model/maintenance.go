package model

import "time"

// MaintenanceReport is the current PMC record for one (workstation, quarter).
type MaintenanceReport struct {
	BaseModel
	LaboratoryID       int64     `db:"laboratory_id" json:"laboratory_id"`
	WorkstationID      int64     `db:"workstation_id" json:"workstation_id"`
	Quarter            string    `db:"quarter" json:"quarter"`
	ReportDate         time.Time `db:"report_date" json:"report_date"`
	WorkstationStatus  string    `db:"workstation_status" json:"workstation_status"`
	SoftwareStatus     string    `db:"software_status" json:"software_status"`
	ConnectivityStatus string    `db:"connectivity_status" json:"connectivity_status"`
	Remarks            string    `db:"remarks" json:"remarks"`
	ServiceCount       int       `db:"service_count" json:"service_count"`
	CreatedBy          string    `db:"created_by" json:"created_by"`
}

// ProcedureCheck links a report or a log entry to an inspection procedure.
type ProcedureCheck struct {
	ID            string  `db:"id" json:"id"`
	ParentID      string  `db:"parent_id" json:"parent_id"`
	ProcedureID   int64   `db:"procedure_id" json:"procedure_id"`
	ProcedureName *string `db:"procedure_name" json:"procedure_name,omitempty"`
	IsChecked     bool    `db:"is_checked" json:"is_checked"`
}

// ServiceLogEntry is immutable once written.
type ServiceLogEntry struct {
	ID              string           `db:"id" json:"id"`
	ReportID        string           `db:"report_id" json:"report_id"`
	ServiceType     string           `db:"service_type" json:"service_type"`
	ServiceDate     time.Time        `db:"service_date" json:"service_date"`
	PerformedBy     string           `db:"performed_by" json:"performed_by"`
	Remarks         string           `db:"remarks" json:"remarks"`
	StatusBefore    string           `db:"status_before" json:"status_before"`
	StatusAfter     string           `db:"status_after" json:"status_after"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	ProcedureChecks []ProcedureCheck `db:"-" json:"procedure_checks"`
	AssetActions    []AssetAction    `db:"-" json:"asset_actions"`
}

type AssetAction struct {
	ID                 string  `db:"id" json:"id"`
	LogEntryID         string  `db:"log_entry_id" json:"log_entry_id"`
	AssetID            int64   `db:"asset_id" json:"asset_id"`
	Action             string  `db:"action" json:"action"`
	StatusBefore       *string `db:"status_before" json:"status_before"`
	StatusAfter        *string `db:"status_after" json:"status_after"`
	OldPropertyTag     *string `db:"old_property_tag" json:"old_property_tag"`
	NewPropertyTag     *string `db:"new_property_tag" json:"new_property_tag"`
	ReplacementAssetID *int64  `db:"replacement_asset_id" json:"replacement_asset_id"`
	Remarks            string  `db:"remarks" json:"remarks"`
}

// ReportKey identifies the single current report for a workstation and quarter.
type ReportKey struct {
	WorkstationID int64  `json:"workstation_id"`
	Quarter       string `json:"quarter"`
}
