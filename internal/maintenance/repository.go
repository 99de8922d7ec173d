package maintenance

import (
	"context"
	"time"

	"github.com/labcare/pmc-service/internal/maintenance/dto"
	"github.com/labcare/pmc-service/internal/model"
)

// ReportStore owns the one current report per (workstation, quarter).
type ReportStore interface {
	FindCurrent(ctx context.Context, key model.ReportKey) (*model.MaintenanceReport, error)
	// Upsert creates the report for its key or overwrites the condition
	// fields of the existing one and bumps service_count. statusBefore is the
	// prior workstation status, or StatusNotPreviouslyServiced on create.
	Upsert(ctx context.Context, r *model.MaintenanceReport) (report *model.MaintenanceReport, statusBefore string, err error)
	ReplaceProcedureLinks(ctx context.Context, reportID string, procedureIDs []int64) ([]model.ProcedureCheck, error)
	ApplyRepair(ctx context.Context, reportID string, statusAfter string, serviceDate, now time.Time) (*model.MaintenanceReport, error)
	GetProcedures(ctx context.Context, reportID string) ([]model.ProcedureCheck, error)
}

// AssetRegistry is the lifecycle slice of the physical inventory.
type AssetRegistry interface {
	FindStatusesByName(ctx context.Context, names []string) ([]model.AssetStatus, error)
	FindAsset(ctx context.Context, assetID int64) (*model.InventoryAsset, error)
	DetachFromWorkstation(ctx context.Context, assetID int64) error
	SetStatusAndRemark(ctx context.Context, detailID int64, statusID *int64, remark string) error
	CreateReplacement(ctx context.Context, in *dto.NewAsset) (int64, error)
	SetWorkstationStatus(ctx context.Context, workstationID int64, status string) error
}

// ServiceLogRecorder is append-only: entries are never updated or deleted.
type ServiceLogRecorder interface {
	Append(ctx context.Context, entry *model.ServiceLogEntry) error
	ListByWorkstation(ctx context.Context, filters *dto.HistoryFilters) ([]model.ServiceLogEntry, error)
	ListByReport(ctx context.Context, reportID string) ([]model.ServiceLogEntry, error)
}

// Stores are the three collaborators bound to one transaction.
type Stores struct {
	Reports ReportStore
	Assets  AssetRegistry
	Log     ServiceLogRecorder
}

// UnitOfWork runs fn atomically. If fn returns an error nothing it did is
// kept. Stores passed to fn must not escape it.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
	// Reader returns stores bound to no transaction, for read-only calls.
	Reader() Stores
}
