package model

// Laboratory and Workstation are reference data maintained elsewhere; this
// service only reads them and writes Workstation.Status.
type Laboratory struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Workstation struct {
	ID           int64  `db:"id" json:"id"`
	LaboratoryID int64  `db:"laboratory_id" json:"laboratory_id"`
	Name         string `db:"name" json:"name"`
	Status       string `db:"status" json:"status"`
}
