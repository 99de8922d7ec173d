package dto

import "time"

type ConditionFields struct {
	WorkstationStatus  string
	SoftwareStatus     string
	ConnectivityStatus string
	Remarks            string
}

type AssetActionInput struct {
	AssetID        int64
	Action         string // CHECKED, REPAIRED, UPGRADED, REPLACED
	Remarks        string
	StatusBefore   *string // Taken verbatim for CHECKED actions
	StatusAfter    *string
	OldPropertyTag *string
	NewPropertyTag *string

	// Replacement details. A REPLACED action creates a new asset only when
	// at least one of these is set.
	ReplacementTag         string
	ReplacementSerial      string
	ReplacementDescription string
}

func (a *AssetActionInput) HasReplacementDetails() bool {
	return a.ReplacementTag != "" || a.ReplacementSerial != "" || a.ReplacementDescription != ""
}

type RoutineServiceInput struct {
	LaboratoryID  int64
	WorkstationID int64
	Quarter       string
	ReportDate    time.Time
	Conditions    ConditionFields
	ProcedureIDs  []int64
	ServiceType   string // Defaults to ROUTINE
	AssetActions  []AssetActionInput
	UserID        string
}

type RepairEventInput struct {
	WorkstationID int64
	Quarter       string
	LaboratoryID  int64
	ServiceDate   time.Time
	ServiceType   string // Defaults to REPAIR
	Remarks       string
	AssetActions  []AssetActionInput
	UserID        string
}

type HistoryFilters struct {
	WorkstationID int64
	Quarter       *string // Nil means every quarter
}
