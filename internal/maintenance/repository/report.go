package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labcare/pmc-service/internal/maintenance"
	"github.com/labcare/pmc-service/internal/model"
)

const reportColumns = `id, laboratory_id, workstation_id, quarter, report_date,
        workstation_status, software_status, connectivity_status, remarks,
        service_count, created_by, created_at, updated_at`

type ReportRepository struct {
	DB sqlx.ExtContext
}

func NewReportRepository(db sqlx.ExtContext) *ReportRepository {
	return &ReportRepository{DB: db}
}

func (r *ReportRepository) FindCurrent(ctx context.Context, key model.ReportKey) (*model.MaintenanceReport, error) {
	var report model.MaintenanceReport
	query := `SELECT ` + reportColumns + ` FROM maintenance_reports WHERE workstation_id = $1 AND quarter = $2`
	err := sqlx.GetContext(ctx, r.DB, &report, query, key.WorkstationID, key.Quarter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

type upsertedReport struct {
	model.MaintenanceReport
	StatusBefore sql.NullString `db:"status_before"`
}

// Upsert relies on the unique (workstation_id, quarter) index: the insert and
// the in-place update are one statement, so two submissions for the same key
// can never both create. The prior status is read under FOR UPDATE in the CTE.
func (r *ReportRepository) Upsert(ctx context.Context, in *model.MaintenanceReport) (*model.MaintenanceReport, string, error) {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}

	query := `
        WITH prior AS (
            SELECT workstation_status FROM maintenance_reports
            WHERE workstation_id = $1 AND quarter = $2
            FOR UPDATE
        )
        INSERT INTO maintenance_reports (
            id, laboratory_id, workstation_id, quarter, report_date,
            workstation_status, software_status, connectivity_status, remarks,
            service_count, created_by, created_at, updated_at
        )
        VALUES ($3, $4, $1, $2, $5, $6, $7, $8, $9, 1, $10, $11, $11)
        ON CONFLICT (workstation_id, quarter)
        DO UPDATE SET
            laboratory_id = EXCLUDED.laboratory_id,
            report_date = EXCLUDED.report_date,
            workstation_status = EXCLUDED.workstation_status,
            software_status = EXCLUDED.software_status,
            connectivity_status = EXCLUDED.connectivity_status,
            remarks = EXCLUDED.remarks,
            service_count = maintenance_reports.service_count + 1,
            updated_at = EXCLUDED.updated_at
        RETURNING ` + reportColumns + `,
            (SELECT workstation_status FROM prior) AS status_before
    `

	now := in.UpdatedAt
	if now.IsZero() {
		now = time.Now()
	}

	var row upsertedReport
	err := sqlx.GetContext(ctx, r.DB, &row, query,
		in.WorkstationID, in.Quarter, in.ID, in.LaboratoryID, in.ReportDate,
		in.WorkstationStatus, in.SoftwareStatus, in.ConnectivityStatus, in.Remarks,
		in.CreatedBy, now,
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to upsert maintenance report: %w", err)
	}

	statusBefore := string(maintenance.StatusNotPreviouslyServiced)
	if row.StatusBefore.Valid {
		statusBefore = row.StatusBefore.String
	}
	return &row.MaintenanceReport, statusBefore, nil
}

// ReplaceProcedureLinks makes procedureIDs the report's whole checklist.
func (r *ReportRepository) ReplaceProcedureLinks(ctx context.Context, reportID string, procedureIDs []int64) ([]model.ProcedureCheck, error) {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM maintenance_report_procedures WHERE report_id = $1`, reportID); err != nil {
		return nil, fmt.Errorf("failed to clear procedure links: %w", err)
	}

	checks := buildProcedureChecks(reportID, procedureIDs)
	if len(checks) == 0 {
		return []model.ProcedureCheck{}, nil
	}

	query := `
        INSERT INTO maintenance_report_procedures (id, report_id, procedure_id, is_checked)
        VALUES (:id, :parent_id, :procedure_id, :is_checked)
    `
	if _, err := sqlx.NamedExecContext(ctx, r.DB, query, checks); err != nil {
		return nil, fmt.Errorf("failed to link procedures: %w", err)
	}
	return checks, nil
}

func (r *ReportRepository) ApplyRepair(ctx context.Context, reportID string, statusAfter string, serviceDate, now time.Time) (*model.MaintenanceReport, error) {
	query := `
        UPDATE maintenance_reports
        SET service_count = service_count + 1,
            workstation_status = $2,
            report_date = $3,
            updated_at = $4
        WHERE id = $1
        RETURNING ` + reportColumns

	var report model.MaintenanceReport
	err := sqlx.GetContext(ctx, r.DB, &report, query, reportID, statusAfter, serviceDate, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, maintenance.ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to update maintenance report: %w", err)
	}
	return &report, nil
}

func (r *ReportRepository) GetProcedures(ctx context.Context, reportID string) ([]model.ProcedureCheck, error) {
	query := `
        SELECT mp.id, mp.report_id AS parent_id, mp.procedure_id, p.name AS procedure_name, mp.is_checked
        FROM maintenance_report_procedures mp
        LEFT JOIN pmc_procedures p ON p.id = mp.procedure_id
        WHERE mp.report_id = $1
        ORDER BY mp.procedure_id ASC
    `
	checks := []model.ProcedureCheck{}
	if err := sqlx.SelectContext(ctx, r.DB, &checks, query, reportID); err != nil {
		return nil, err
	}
	return checks, nil
}

// buildProcedureChecks collapses duplicate ids, keeping first-seen order.
func buildProcedureChecks(parentID string, procedureIDs []int64) []model.ProcedureCheck {
	seen := make(map[int64]struct{}, len(procedureIDs))
	checks := make([]model.ProcedureCheck, 0, len(procedureIDs))
	for _, pid := range procedureIDs {
		if _, ok := seen[pid]; ok {
			continue
		}
		seen[pid] = struct{}{}
		checks = append(checks, model.ProcedureCheck{
			ID:          uuid.New().String(),
			ParentID:    parentID,
			ProcedureID: pid,
			IsChecked:   true,
		})
	}
	return checks
}
