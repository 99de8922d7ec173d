package dto

import (
	"fmt"
	"strings"
	"time"
)

// Wire shapes shared by the gRPC handler and the submissions listener.
// Field names are snake_case on the wire.

type AssetActionRequest struct {
	AssetID                int64   `json:"asset_id"`
	Action                 string  `json:"action"`
	Remarks                string  `json:"remarks"`
	StatusBefore           *string `json:"status_before"`
	StatusAfter            *string `json:"status_after"`
	OldPropertyTag         *string `json:"old_property_tag"`
	NewPropertyTag         *string `json:"new_property_tag"`
	ReplacementTag         string  `json:"replacement_tag"`
	ReplacementSerial      string  `json:"replacement_serial"`
	ReplacementDescription string  `json:"replacement_description"`
}

type SubmitReportRequest struct {
	LaboratoryID       int64                `json:"laboratory_id"`
	WorkstationID      int64                `json:"workstation_id"`
	Quarter            string               `json:"quarter"`
	ReportDate         string               `json:"report_date"`
	WorkstationStatus  string               `json:"workstation_status"`
	SoftwareStatus     string               `json:"software_status"`
	ConnectivityStatus string               `json:"connectivity_status"`
	Remarks            string               `json:"remarks"`
	ProcedureIDs       []int64              `json:"procedure_ids"`
	ServiceType        string               `json:"service_type"`
	AssetActions       []AssetActionRequest `json:"asset_actions"`
}

type RepairEventRequest struct {
	WorkstationID int64                `json:"workstation_id"`
	Quarter       string               `json:"quarter"`
	LaboratoryID  int64                `json:"laboratory_id"`
	ServiceDate   string               `json:"service_date"`
	ServiceType   string               `json:"service_type"`
	Remarks       string               `json:"remarks"`
	AssetActions  []AssetActionRequest `json:"asset_actions"`
}

type ReportKeyRequest struct {
	WorkstationID int64  `json:"workstation_id"`
	Quarter       string `json:"quarter"`
}

// ToInput converts the request. A malformed date is reported as an error
// the caller maps to a validation failure.
func (r *SubmitReportRequest) ToInput(userID string) (*RoutineServiceInput, error) {
	date, err := ParseDate(r.ReportDate)
	if err != nil {
		return nil, fmt.Errorf("report_date: %w", err)
	}
	return &RoutineServiceInput{
		LaboratoryID:  r.LaboratoryID,
		WorkstationID: r.WorkstationID,
		Quarter:       r.Quarter,
		ReportDate:    date,
		Conditions: ConditionFields{
			WorkstationStatus:  r.WorkstationStatus,
			SoftwareStatus:     r.SoftwareStatus,
			ConnectivityStatus: r.ConnectivityStatus,
			Remarks:            r.Remarks,
		},
		ProcedureIDs: r.ProcedureIDs,
		ServiceType:  r.ServiceType,
		AssetActions: toActionInputs(r.AssetActions),
		UserID:       userID,
	}, nil
}

func (r *RepairEventRequest) ToInput(userID string) (*RepairEventInput, error) {
	date, err := ParseDate(r.ServiceDate)
	if err != nil {
		return nil, fmt.Errorf("service_date: %w", err)
	}
	return &RepairEventInput{
		WorkstationID: r.WorkstationID,
		Quarter:       r.Quarter,
		LaboratoryID:  r.LaboratoryID,
		ServiceDate:   date,
		ServiceType:   r.ServiceType,
		Remarks:       r.Remarks,
		AssetActions:  toActionInputs(r.AssetActions),
		UserID:        userID,
	}, nil
}

func toActionInputs(reqs []AssetActionRequest) []AssetActionInput {
	out := make([]AssetActionInput, len(reqs))
	for i, a := range reqs {
		out[i] = AssetActionInput{
			AssetID:                a.AssetID,
			Action:                 a.Action,
			Remarks:                a.Remarks,
			StatusBefore:           a.StatusBefore,
			StatusAfter:            a.StatusAfter,
			OldPropertyTag:         a.OldPropertyTag,
			NewPropertyTag:         a.NewPropertyTag,
			ReplacementTag:         strings.TrimSpace(a.ReplacementTag),
			ReplacementSerial:      strings.TrimSpace(a.ReplacementSerial),
			ReplacementDescription: strings.TrimSpace(a.ReplacementDescription),
		}
	}
	return out
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// An empty value yields the zero time, which validation rejects.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}
