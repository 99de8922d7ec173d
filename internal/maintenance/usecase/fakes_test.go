package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labcare/pmc-service/internal/cache"
	"github.com/labcare/pmc-service/internal/maintenance"
	"github.com/labcare/pmc-service/internal/maintenance/dto"
	"github.com/labcare/pmc-service/internal/model"
)

// memDB is an in-memory store. memUnitOfWork serializes Do calls and
// restores a snapshot when fn fails, standing in for a SERIALIZABLE tx.
type memDB struct {
	reports      map[model.ReportKey]*model.MaintenanceReport
	links        map[string][]model.ProcedureCheck
	entries      []model.ServiceLogEntry
	assets       map[int64]*model.InventoryAsset
	statuses     []model.AssetStatus
	procedures   map[int64]string
	workstations map[int64]string
	nextAssetID  int64

	failAppend error
}

func newMemDB() *memDB {
	return &memDB{
		reports:      map[model.ReportKey]*model.MaintenanceReport{},
		links:        map[string][]model.ProcedureCheck{},
		assets:       map[int64]*model.InventoryAsset{},
		procedures:   map[int64]string{1: "Dust removal", 2: "Cable check", 3: "OS update"},
		workstations: map[int64]string{5: "", 6: ""},
		nextAssetID:  100,
		statuses: []model.AssetStatus{
			{ID: 1, Name: "Functional"},
			{ID: 2, Name: "Defective"},
			{ID: 3, Name: "Decommissioned"},
		},
	}
}

func (db *memDB) addAsset(id int64, workstationID int64, statusID int64, tag string) {
	lab, unit := int64(2), int64(4)
	ws := workstationID
	detail := &model.AssetDetail{ID: id + 1000, AssetID: id, Description: "asset", Remarks: "", StatusID: &statusID}
	for _, s := range db.statuses {
		if s.ID == statusID {
			name := s.Name
			detail.StatusName = &name
		}
	}
	if tag != "" {
		detail.PropertyTag = &tag
	}
	db.assets[id] = &model.InventoryAsset{ID: id, LaboratoryID: &lab, WorkstationID: &ws, UnitID: &unit, Detail: detail}
}

func (db *memDB) clone() *memDB {
	c := *db
	c.reports = make(map[model.ReportKey]*model.MaintenanceReport, len(db.reports))
	for k, r := range db.reports {
		cp := *r
		c.reports[k] = &cp
	}
	c.links = make(map[string][]model.ProcedureCheck, len(db.links))
	for k, v := range db.links {
		c.links[k] = append([]model.ProcedureCheck(nil), v...)
	}
	c.entries = append([]model.ServiceLogEntry(nil), db.entries...)
	c.assets = make(map[int64]*model.InventoryAsset, len(db.assets))
	for k, a := range db.assets {
		cp := *a
		if a.Detail != nil {
			d := *a.Detail
			cp.Detail = &d
		}
		c.assets[k] = &cp
	}
	c.workstations = make(map[int64]string, len(db.workstations))
	for k, v := range db.workstations {
		c.workstations[k] = v
	}
	return &c
}

func (db *memDB) reportByID(id string) *model.MaintenanceReport {
	for _, r := range db.reports {
		if r.ID == id {
			return r
		}
	}
	return nil
}

type memUnitOfWork struct {
	mu sync.Mutex
	db *memDB
}

func (u *memUnitOfWork) stores() maintenance.Stores {
	return maintenance.Stores{
		Reports: &memReports{u: u},
		Assets:  &memAssets{u: u},
		Log:     &memLog{u: u},
	}
}

func (u *memUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, s maintenance.Stores) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	snapshot := u.db.clone()
	if err := fn(ctx, u.stores()); err != nil {
		u.db = snapshot
		return err
	}
	return nil
}

func (u *memUnitOfWork) Reader() maintenance.Stores { return u.stores() }

type memReports struct{ u *memUnitOfWork }

func (m *memReports) FindCurrent(_ context.Context, key model.ReportKey) (*model.MaintenanceReport, error) {
	r, ok := m.u.db.reports[key]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memReports) Upsert(_ context.Context, in *model.MaintenanceReport) (*model.MaintenanceReport, string, error) {
	key := model.ReportKey{WorkstationID: in.WorkstationID, Quarter: in.Quarter}
	if existing, ok := m.u.db.reports[key]; ok {
		before := existing.WorkstationStatus
		existing.LaboratoryID = in.LaboratoryID
		existing.ReportDate = in.ReportDate
		existing.WorkstationStatus = in.WorkstationStatus
		existing.SoftwareStatus = in.SoftwareStatus
		existing.ConnectivityStatus = in.ConnectivityStatus
		existing.Remarks = in.Remarks
		existing.ServiceCount++
		existing.UpdatedAt = in.UpdatedAt
		cp := *existing
		return &cp, before, nil
	}
	created := *in
	created.ServiceCount = 1
	m.u.db.reports[key] = &created
	cp := created
	return &cp, string(maintenance.StatusNotPreviouslyServiced), nil
}

func (m *memReports) ReplaceProcedureLinks(_ context.Context, reportID string, procedureIDs []int64) ([]model.ProcedureCheck, error) {
	seen := map[int64]bool{}
	checks := []model.ProcedureCheck{}
	for _, pid := range procedureIDs {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		name := m.u.db.procedures[pid]
		checks = append(checks, model.ProcedureCheck{ID: reportID + "-p", ParentID: reportID, ProcedureID: pid, ProcedureName: &name, IsChecked: true})
	}
	m.u.db.links[reportID] = checks
	return append([]model.ProcedureCheck(nil), checks...), nil
}

func (m *memReports) ApplyRepair(_ context.Context, reportID string, statusAfter string, serviceDate, now time.Time) (*model.MaintenanceReport, error) {
	r := m.u.db.reportByID(reportID)
	if r == nil {
		return nil, maintenance.ErrReportNotFound
	}
	r.ServiceCount++
	r.WorkstationStatus = statusAfter
	r.ReportDate = serviceDate
	r.UpdatedAt = now
	cp := *r
	return &cp, nil
}

func (m *memReports) GetProcedures(_ context.Context, reportID string) ([]model.ProcedureCheck, error) {
	return append([]model.ProcedureCheck{}, m.u.db.links[reportID]...), nil
}

type memAssets struct{ u *memUnitOfWork }

func (m *memAssets) FindStatusesByName(_ context.Context, names []string) ([]model.AssetStatus, error) {
	var out []model.AssetStatus
	for _, s := range m.u.db.statuses {
		for _, n := range names {
			if strings.EqualFold(s.Name, n) {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *memAssets) FindAsset(_ context.Context, assetID int64) (*model.InventoryAsset, error) {
	a, ok := m.u.db.assets[assetID]
	if !ok {
		return nil, nil
	}
	cp := *a
	d := *a.Detail
	cp.Detail = &d
	return &cp, nil
}

func (m *memAssets) DetachFromWorkstation(_ context.Context, assetID int64) error {
	a, ok := m.u.db.assets[assetID]
	if !ok {
		return maintenance.ErrAssetNotFound
	}
	a.WorkstationID = nil
	return nil
}

func (m *memAssets) SetStatusAndRemark(_ context.Context, detailID int64, statusID *int64, remark string) error {
	for _, a := range m.u.db.assets {
		if a.Detail.ID == detailID {
			a.Detail.StatusID = statusID
			a.Detail.StatusName = nil
			if statusID != nil {
				for _, s := range m.u.db.statuses {
					if s.ID == *statusID {
						name := s.Name
						a.Detail.StatusName = &name
					}
				}
			}
			a.Detail.Remarks = remark
			return nil
		}
	}
	return maintenance.ErrAssetNotFound
}

func (m *memAssets) CreateReplacement(_ context.Context, in *dto.NewAsset) (int64, error) {
	m.u.db.nextAssetID++
	id := m.u.db.nextAssetID
	ws := in.WorkstationID
	tag := in.PropertyTag
	detail := &model.AssetDetail{ID: id + 1000, AssetID: id, Description: in.Description, PropertyTag: &tag, Remarks: in.Remarks, StatusID: in.StatusID}
	if in.StatusID != nil {
		for _, s := range m.u.db.statuses {
			if s.ID == *in.StatusID {
				name := s.Name
				detail.StatusName = &name
			}
		}
	}
	addedBy := in.AddedBy
	m.u.db.assets[id] = &model.InventoryAsset{
		ID: id, LaboratoryID: in.LaboratoryID, WorkstationID: &ws, UnitID: in.UnitID, AddedBy: &addedBy, Detail: detail,
	}
	return id, nil
}

func (m *memAssets) SetWorkstationStatus(_ context.Context, workstationID int64, status string) error {
	if _, ok := m.u.db.workstations[workstationID]; !ok {
		return maintenance.ErrWorkstationNotFound
	}
	m.u.db.workstations[workstationID] = status
	return nil
}

type memLog struct{ u *memUnitOfWork }

func (m *memLog) Append(_ context.Context, entry *model.ServiceLogEntry) error {
	if m.u.db.failAppend != nil {
		return m.u.db.failAppend
	}
	m.u.db.entries = append(m.u.db.entries, *entry)
	return nil
}

func (m *memLog) list(match func(r *model.MaintenanceReport) bool) []model.ServiceLogEntry {
	type indexed struct {
		i int
		e model.ServiceLogEntry
	}
	var found []indexed
	for i, e := range m.u.db.entries {
		if r := m.u.db.reportByID(e.ReportID); r != nil && match(r) {
			found = append(found, indexed{i, e})
		}
	}
	// Insert order, newest first, like the seq column.
	sort.SliceStable(found, func(a, b int) bool { return found[a].i > found[b].i })
	out := make([]model.ServiceLogEntry, len(found))
	for i, f := range found {
		out[i] = f.e
	}
	return out
}

func (m *memLog) ListByWorkstation(_ context.Context, f *dto.HistoryFilters) ([]model.ServiceLogEntry, error) {
	return m.list(func(r *model.MaintenanceReport) bool {
		return r.WorkstationID == f.WorkstationID && (f.Quarter == nil || r.Quarter == *f.Quarter)
	}), nil
}

func (m *memLog) ListByReport(_ context.Context, reportID string) ([]model.ServiceLogEntry, error) {
	return m.list(func(r *model.MaintenanceReport) bool { return r.ID == reportID }), nil
}

// memCache round-trips values through JSON like the Redis cache does.
type memCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	reads int
	hits  int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	c.hits++
	return json.Unmarshal(raw, dest)
}

func (c *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type memPublisher struct {
	mu       sync.Mutex
	messages [][]byte
	keys     []string
	err      error
}

func (p *memPublisher) Publish(_ context.Context, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, key)
	p.messages = append(p.messages, payload)
	return nil
}

var errInjected = errors.New("injected failure")
