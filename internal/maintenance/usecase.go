package maintenance

import (
	"context"

	"github.com/labcare/pmc-service/internal/maintenance/dto"
	"github.com/labcare/pmc-service/internal/model"
)

type UseCase interface {
	RecordRoutineService(ctx context.Context, input *dto.RoutineServiceInput) (*dto.RoutineServiceResult, error)
	RecordRepairEvent(ctx context.Context, input *dto.RepairEventInput) (*model.ServiceLogEntry, error)
	ListServiceHistory(ctx context.Context, filters *dto.HistoryFilters) ([]model.ServiceLogEntry, error)
	GetReportDetail(ctx context.Context, key model.ReportKey) (*dto.ReportDetail, error)
}
