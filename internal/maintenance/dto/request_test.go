package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2026-01-15", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{" 2026-01-15T09:30:00Z ", time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC), false},
		{"", time.Time{}, false},
		{"15/01/2026", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestSubmitReportRequest_ToInput(t *testing.T) {
	req := &SubmitReportRequest{
		LaboratoryID:      2,
		WorkstationID:     5,
		Quarter:           "1st",
		ReportDate:        "2026-01-15",
		WorkstationStatus: "Functional",
		ProcedureIDs:      []int64{1, 2},
		AssetActions:      []AssetActionRequest{{AssetID: 11, Action: "CHECKED", ReplacementTag: "  "}},
	}

	in, err := req.ToInput("tech-1")
	require.NoError(t, err)
	assert.Equal(t, "tech-1", in.UserID)
	assert.Equal(t, "Functional", in.Conditions.WorkstationStatus)
	assert.Equal(t, []int64{1, 2}, in.ProcedureIDs)
	require.Len(t, in.AssetActions, 1)
	assert.False(t, in.AssetActions[0].HasReplacementDetails())

	req.ReportDate = "yesterday"
	_, err = req.ToInput("tech-1")
	assert.Error(t, err)
}

func TestRepairEventRequest_ToInput(t *testing.T) {
	req := &RepairEventRequest{
		WorkstationID: 5,
		Quarter:       "1st",
		ServiceDate:   "2026-01-22",
		AssetActions:  []AssetActionRequest{{AssetID: 11, Action: "REPLACED", ReplacementSerial: "SN-1"}},
	}

	in, err := req.ToInput("tech-2")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 22, 0, 0, 0, 0, time.UTC), in.ServiceDate)
	assert.True(t, in.AssetActions[0].HasReplacementDetails())
}
