package maintenance

import (
	"fmt"
	"strings"
	"time"

	"github.com/labcare/pmc-service/internal/model"
)

// WorkstationStatus is the closed set of states a workstation or report may carry.
type WorkstationStatus string

const (
	StatusNotPreviouslyServiced WorkstationStatus = "Not Previously Serviced"
	StatusFunctional            WorkstationStatus = "Functional"
	StatusNeedsRepair           WorkstationStatus = "Needs Repair"
	StatusNonFunctional         WorkstationStatus = "Non-Functional"
	StatusUpgraded              WorkstationStatus = "Upgraded"
)

// reportable are the statuses a technician may submit. NotPreviouslyServiced
// only ever appears as a before-snapshot.
var reportable = []WorkstationStatus{
	StatusFunctional,
	StatusNeedsRepair,
	StatusNonFunctional,
	StatusUpgraded,
}

// ParseWorkstationStatus matches case-insensitively and ignores surrounding
// whitespace, so "needs repair" resolves to StatusNeedsRepair.
func ParseWorkstationStatus(s string) (WorkstationStatus, error) {
	norm := strings.Join(strings.Fields(s), " ")
	for _, st := range reportable {
		if strings.EqualFold(norm, string(st)) {
			return st, nil
		}
	}
	return "", NewValidationError("unknown workstation status %q", s)
}

func (s WorkstationStatus) String() string { return string(s) }

type ActionKind string

const (
	ActionChecked  ActionKind = "CHECKED"
	ActionRepaired ActionKind = "REPAIRED"
	ActionUpgraded ActionKind = "UPGRADED"
	ActionReplaced ActionKind = "REPLACED"
)

// ParseActionKind normalizes a caller-supplied kind. Anything unrecognized
// becomes CHECKED with known=false: recorded, never applied to inventory.
func ParseActionKind(s string) (kind ActionKind, known bool) {
	switch ActionKind(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionChecked:
		return ActionChecked, true
	case ActionRepaired:
		return ActionRepaired, true
	case ActionUpgraded:
		return ActionUpgraded, true
	case ActionReplaced:
		return ActionReplaced, true
	default:
		return ActionChecked, false
	}
}

const (
	ServiceTypeRoutine = "ROUTINE"
	ServiceTypeRepair  = "REPAIR"
)

// NormalizeServiceType upper-cases the value, or returns fallback when blank.
func NormalizeServiceType(s, fallback string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	return s
}

// DeriveStatusAfter is the workstation transition for a repair event.
// REPLACED outranks REPAIRED; everything else leaves the workstation Functional.
func DeriveStatusAfter(kinds []ActionKind) WorkstationStatus {
	for _, k := range kinds {
		if k == ActionReplaced {
			return StatusUpgraded
		}
	}
	return StatusFunctional
}

// Asset status names looked up in reference data. Which end-of-life name a
// deployment carries varies, so it is resolved in priority order.
var (
	EndOfLifeStatusPriority  = []string{"Decommissioned", "Disposed", "Replaced"}
	FunctionalStatusPriority = []string{"Functional"}
)

// ResolveStatus returns the first name in priority that exists in available,
// compared case-insensitively, or nil when none does.
func ResolveStatus(priority []string, available []model.AssetStatus) *model.AssetStatus {
	for _, name := range priority {
		for i := range available {
			if strings.EqualFold(strings.TrimSpace(available[i].Name), name) {
				s := available[i]
				return &s
			}
		}
	}
	return nil
}

// ComposeRemark appends a dated line "[YYYY-MM-DD] KIND: detail" to existing.
func ComposeRemark(existing string, date time.Time, kind ActionKind, detail string) string {
	line := fmt.Sprintf("[%s] %s", date.Format("2006-01-02"), kind)
	if d := strings.TrimSpace(detail); d != "" {
		line += ": " + d
	}
	existing = strings.TrimRight(existing, "\n ")
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
