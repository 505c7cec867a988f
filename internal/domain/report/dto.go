// internal/domain/report/dto.go
package report

import "time"

type ExportRequest struct {
	Type   Type       `form:"type" binding:"required"`
	From   *time.Time `form:"from" time_format:"2006-01-02" time_utc:"1"`
	To     *time.Time `form:"to" time_format:"2006-01-02" time_utc:"1"`
	Format string     `form:"format" binding:"omitempty,oneof=json csv"`
}

// Export is the result of an export. Rows holds one of the row slices.
type Export struct {
	Type  Type        `json:"type"`
	Count int         `json:"count"`
	Rows  interface{} `json:"rows"`
}
