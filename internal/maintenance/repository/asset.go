package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labcare/pmc-service/internal/maintenance"
	"github.com/labcare/pmc-service/internal/maintenance/dto"
	"github.com/labcare/pmc-service/internal/model"
)

type AssetRepository struct {
	DB sqlx.ExtContext
}

func NewAssetRepository(db sqlx.ExtContext) *AssetRepository {
	return &AssetRepository{DB: db}
}

// FindStatusesByName returns whichever of names exist; priority is applied by
// maintenance.ResolveStatus, not here.
func (r *AssetRepository) FindStatusesByName(ctx context.Context, names []string) ([]model.AssetStatus, error) {
	if len(names) == 0 {
		return []model.AssetStatus{}, nil
	}

	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(strings.TrimSpace(n))
	}

	query, args, err := sqlx.In(`SELECT id, name FROM asset_statuses WHERE lower(name) IN (?)`, lowered)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	statuses := []model.AssetStatus{}
	if err := sqlx.SelectContext(ctx, r.DB, &statuses, query, args...); err != nil {
		return nil, err
	}
	return statuses, nil
}

type assetRow struct {
	ID            int64      `db:"id"`
	LaboratoryID  *int64     `db:"laboratory_id"`
	WorkstationID *int64     `db:"workstation_id"`
	UnitID        *int64     `db:"unit_id"`
	AddedBy       *string    `db:"added_by"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DetailID      int64      `db:"detail_id"`
	Description   string     `db:"description"`
	SerialNumber  *string    `db:"serial_number"`
	PropertyTag   *string    `db:"property_tag"`
	PurchaseDate  *time.Time `db:"purchase_date"`
	Remarks       string     `db:"remarks"`
	StatusID      *int64     `db:"status_id"`
	StatusName    *string    `db:"status_name"`
}

func (row *assetRow) toModel() *model.InventoryAsset {
	return &model.InventoryAsset{
		ID:            row.ID,
		LaboratoryID:  row.LaboratoryID,
		WorkstationID: row.WorkstationID,
		UnitID:        row.UnitID,
		AddedBy:       row.AddedBy,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
		Detail: &model.AssetDetail{
			ID:           row.DetailID,
			AssetID:      row.ID,
			Description:  row.Description,
			SerialNumber: row.SerialNumber,
			PropertyTag:  row.PropertyTag,
			PurchaseDate: row.PurchaseDate,
			Remarks:      row.Remarks,
			StatusID:     row.StatusID,
			StatusName:   row.StatusName,
		},
	}
}

// FindAsset loads the asset with its detail and locks both rows for the
// rest of the transaction.
func (r *AssetRepository) FindAsset(ctx context.Context, assetID int64) (*model.InventoryAsset, error) {
	query := `
        SELECT a.id, a.laboratory_id, a.workstation_id, a.unit_id, a.added_by, a.created_at, a.updated_at,
               d.id AS detail_id, d.description, d.serial_number, d.property_tag, d.purchase_date,
               d.remarks, d.status_id, s.name AS status_name
        FROM inventory_assets a
        JOIN asset_details d ON d.asset_id = a.id
        LEFT JOIN asset_statuses s ON s.id = d.status_id
        WHERE a.id = $1
        FOR UPDATE OF a, d
    `
	var row assetRow
	if err := sqlx.GetContext(ctx, r.DB, &row, query, assetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toModel(), nil
}

// DetachFromWorkstation clears the workstation link and keeps the lab link,
// so the asset shows up as unassigned inventory.
func (r *AssetRepository) DetachFromWorkstation(ctx context.Context, assetID int64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE inventory_assets SET workstation_id = NULL, updated_at = NOW() WHERE id = $1`, assetID)
	if err != nil {
		return fmt.Errorf("failed to detach asset %d: %w", assetID, err)
	}
	return expectOneRow(res, maintenance.ErrAssetNotFound)
}

func (r *AssetRepository) SetStatusAndRemark(ctx context.Context, detailID int64, statusID *int64, remark string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE asset_details SET status_id = $2, remarks = $3 WHERE id = $1`, detailID, statusID, remark)
	if err != nil {
		return fmt.Errorf("failed to update asset detail %d: %w", detailID, err)
	}
	return expectOneRow(res, maintenance.ErrAssetNotFound)
}

// CreateReplacement inserts the asset and its detail and returns the new asset id.
func (r *AssetRepository) CreateReplacement(ctx context.Context, in *dto.NewAsset) (int64, error) {
	var assetID int64
	err := sqlx.GetContext(ctx, r.DB, &assetID, `
        INSERT INTO inventory_assets (laboratory_id, workstation_id, unit_id, added_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        RETURNING id
    `, in.LaboratoryID, in.WorkstationID, in.UnitID, in.AddedBy)
	if err != nil {
		return 0, fmt.Errorf("failed to create replacement asset: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
        INSERT INTO asset_details (asset_id, description, serial_number, property_tag, remarks, status_id)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, assetID, in.Description, nullIfEmpty(in.SerialNumber), nullIfEmpty(in.PropertyTag), in.Remarks, in.StatusID)
	if err != nil {
		return 0, fmt.Errorf("failed to create replacement asset detail: %w", err)
	}

	return assetID, nil
}

func (r *AssetRepository) SetWorkstationStatus(ctx context.Context, workstationID int64, status string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE workstations SET status = $2 WHERE id = $1`, workstationID, status)
	if err != nil {
		return fmt.Errorf("failed to update workstation %d status: %w", workstationID, err)
	}
	return expectOneRow(res, maintenance.ErrWorkstationNotFound)
}

func expectOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
