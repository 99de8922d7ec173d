package model

import "time"

type AssetStatus struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type InventoryAsset struct {
	ID            int64        `db:"id" json:"id"`
	LaboratoryID  *int64       `db:"laboratory_id" json:"laboratory_id"`
	WorkstationID *int64       `db:"workstation_id" json:"workstation_id"` // Null once detached
	UnitID        *int64       `db:"unit_id" json:"unit_id"`
	AddedBy       *string      `db:"added_by" json:"added_by"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
	Detail        *AssetDetail `db:"-" json:"detail"`
}

type AssetDetail struct {
	ID           int64      `db:"id" json:"id"`
	AssetID      int64      `db:"asset_id" json:"asset_id"`
	Description  string     `db:"description" json:"description"`
	SerialNumber *string    `db:"serial_number" json:"serial_number"`
	PropertyTag  *string    `db:"property_tag" json:"property_tag"`
	PurchaseDate *time.Time `db:"purchase_date" json:"purchase_date"`
	Remarks      string     `db:"remarks" json:"remarks"`
	StatusID     *int64     `db:"status_id" json:"status_id"`
	StatusName   *string    `db:"status_name" json:"status_name"` // Joined from asset_statuses
}

// CurrentStatus returns the joined status, or nil when the detail has none.
func (d *AssetDetail) CurrentStatus() *AssetStatus {
	if d == nil || d.StatusID == nil {
		return nil
	}
	s := &AssetStatus{ID: *d.StatusID}
	if d.StatusName != nil {
		s.Name = *d.StatusName
	}
	return s
}
