package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/labcare/pmc-service/internal/maintenance/dto"
	"github.com/labcare/pmc-service/internal/model"
)

const entryColumns = `e.id, e.report_id, e.service_type, e.service_date, e.performed_by,
        e.remarks, e.status_before, e.status_after, e.created_at`

type ServiceLogRepository struct {
	DB sqlx.ExtContext
}

func NewServiceLogRepository(db sqlx.ExtContext) *ServiceLogRepository {
	return &ServiceLogRepository{DB: db}
}

// Append writes the entry and its child rows. Run it inside a unit of work;
// on its own the three inserts are not atomic.
func (r *ServiceLogRepository) Append(ctx context.Context, entry *model.ServiceLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	insertEntry := `
        INSERT INTO service_log_entries (
            id, report_id, service_type, service_date, performed_by,
            remarks, status_before, status_after, created_at
        )
        VALUES (
            :id, :report_id, :service_type, :service_date, :performed_by,
            :remarks, :status_before, :status_after, :created_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, r.DB, insertEntry, entry); err != nil {
		return fmt.Errorf("failed to append service log entry: %w", err)
	}

	if len(entry.ProcedureChecks) > 0 {
		for i := range entry.ProcedureChecks {
			if entry.ProcedureChecks[i].ID == "" {
				entry.ProcedureChecks[i].ID = uuid.New().String()
			}
			entry.ProcedureChecks[i].ParentID = entry.ID
		}
		insertChecks := `
            INSERT INTO service_log_procedures (id, log_entry_id, procedure_id, is_checked)
            VALUES (:id, :parent_id, :procedure_id, :is_checked)
        `
		if _, err := sqlx.NamedExecContext(ctx, r.DB, insertChecks, entry.ProcedureChecks); err != nil {
			return fmt.Errorf("failed to log procedure checks: %w", err)
		}
	}

	if len(entry.AssetActions) > 0 {
		for i := range entry.AssetActions {
			if entry.AssetActions[i].ID == "" {
				entry.AssetActions[i].ID = uuid.New().String()
			}
			entry.AssetActions[i].LogEntryID = entry.ID
		}
		insertActions := `
            INSERT INTO service_log_asset_actions (
                id, log_entry_id, asset_id, action, status_before, status_after,
                old_property_tag, new_property_tag, replacement_asset_id, remarks
            )
            VALUES (
                :id, :log_entry_id, :asset_id, :action, :status_before, :status_after,
                :old_property_tag, :new_property_tag, :replacement_asset_id, :remarks
            )
        `
		if _, err := sqlx.NamedExecContext(ctx, r.DB, insertActions, entry.AssetActions); err != nil {
			return fmt.Errorf("failed to log asset actions: %w", err)
		}
	}

	return nil
}

// ListByWorkstation returns entries newest first, with children attached.
// Order follows the insert sequence: entries for one report are appended
// while its row is locked, so seq matches commit order.
func (r *ServiceLogRepository) ListByWorkstation(ctx context.Context, f *dto.HistoryFilters) ([]model.ServiceLogEntry, error) {
	query := `
        SELECT ` + entryColumns + `
        FROM service_log_entries e
        JOIN maintenance_reports r ON r.id = e.report_id
        WHERE r.workstation_id = $1`
	args := []interface{}{f.WorkstationID}

	if f.Quarter != nil && *f.Quarter != "" {
		query += ` AND r.quarter = $2`
		args = append(args, *f.Quarter)
	}
	query += ` ORDER BY e.seq DESC`

	entries := []model.ServiceLogEntry{}
	if err := sqlx.SelectContext(ctx, r.DB, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, r.attachChildren(ctx, entries)
}

func (r *ServiceLogRepository) ListByReport(ctx context.Context, reportID string) ([]model.ServiceLogEntry, error) {
	query := `
        SELECT ` + entryColumns + `
        FROM service_log_entries e
        WHERE e.report_id = $1
        ORDER BY e.seq DESC
    `
	entries := []model.ServiceLogEntry{}
	if err := sqlx.SelectContext(ctx, r.DB, &entries, query, reportID); err != nil {
		return nil, err
	}
	return entries, r.attachChildren(ctx, entries)
}

func (r *ServiceLogRepository) attachChildren(ctx context.Context, entries []model.ServiceLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	index := make(map[string]int, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
		index[entries[i].ID] = i
		entries[i].ProcedureChecks = []model.ProcedureCheck{}
		entries[i].AssetActions = []model.AssetAction{}
	}

	query, args, err := sqlx.In(`
        SELECT sp.id, sp.log_entry_id AS parent_id, sp.procedure_id, p.name AS procedure_name, sp.is_checked
        FROM service_log_procedures sp
        LEFT JOIN pmc_procedures p ON p.id = sp.procedure_id
        WHERE sp.log_entry_id IN (?)
        ORDER BY sp.procedure_id ASC
    `, ids)
	if err != nil {
		return err
	}
	var checks []model.ProcedureCheck
	if err := sqlx.SelectContext(ctx, r.DB, &checks, r.DB.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load procedure checks: %w", err)
	}
	for _, c := range checks {
		if i, ok := index[c.ParentID]; ok {
			entries[i].ProcedureChecks = append(entries[i].ProcedureChecks, c)
		}
	}

	query, args, err = sqlx.In(`
        SELECT id, log_entry_id, asset_id, action, status_before, status_after,
               old_property_tag, new_property_tag, replacement_asset_id, remarks
        FROM service_log_asset_actions
        WHERE log_entry_id IN (?)
        ORDER BY asset_id ASC, id ASC
    `, ids)
	if err != nil {
		return err
	}
	var actions []model.AssetAction
	if err := sqlx.SelectContext(ctx, r.DB, &actions, r.DB.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load asset actions: %w", err)
	}
	for _, a := range actions {
		if i, ok := index[a.LogEntryID]; ok {
			entries[i].AssetActions = append(entries[i].AssetActions, a)
		}
	}

	return nil
}
