package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateTableRequest struct {
	Number   int     `json:"number"   validate:"required,min=1"`
	Capacity int     `json:"capacity" validate:"min=0"`
	Kind     string  `json:"kind"     validate:"omitempty,oneof=indoor outdoor counter virtual"`
	Name     *string `json:"name"     validate:"omitempty,max=80"`
}

type OpenTableRequest struct {
	EmployeeID      string `json:"employee_id"      validate:"omitempty,uuid"`
	ResponsibleName string `json:"responsible_name" validate:"max=120"`
	ClientsCount    int    `json:"clients_count"    validate:"min=0"`
}

// UpdateTableRequest only touches the fields that are present.
type UpdateTableRequest struct {
	Status   *string `json:"status"   validate:"omitempty,oneof=free occupied reserved maintenance"`
	Capacity *int    `json:"capacity" validate:"omitempty,min=0"`
	Name     *string `json:"name"     validate:"omitempty,max=80"`
	Notes    *string `json:"notes"    validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TableResponse struct {
	ID              string  `json:"id"`
	Number          int     `json:"number"`
	Name            *string `json:"name"`
	Kind            string  `json:"kind"`
	Status          string  `json:"status"`
	Capacity        int     `json:"capacity"`
	CurrentOrderID  *string `json:"current_order_id"`
	ResponsibleID   *string `json:"responsible_employee_id"`
	ResponsibleName *string `json:"responsible_name"`
	ClientsCount    int     `json:"clients_count"`
	OpenedAt        *string `json:"opened_at"`
	Notes           *string `json:"notes"`
}

// TableSummaryResponse counts tables per status.
type TableSummaryResponse struct {
	Free        int64 `json:"free"`
	Occupied    int64 `json:"occupied"`
	Reserved    int64 `json:"reserved"`
	Maintenance int64 `json:"maintenance"`
	Total       int64 `json:"total"`
}
