package employee

import "time"

// Employee is owned by the employee-directory collaborator; this service only
// reads it to scope and label attendance views. Seq is the insertion sequence
// used as the deterministic ordering key in aggregations.
type Employee struct {
	ID             string
	CompanyID      string
	DepartmentID   string
	DepartmentName string
	FullName       string
	Position       *string
	Seq            int64
	HireDate       *time.Time
}

type Filter struct {
	DepartmentID *string
}
