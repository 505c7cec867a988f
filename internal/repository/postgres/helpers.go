package postgres

import (
	"fmt"
	"strings"

	"billing-service/internal/pkg/pagination"

	"github.com/lib/pq"
)

// where accumulates numbered conditions for a dynamic WHERE clause.
type where struct {
	conditions []string
	args       []interface{}
}

func (w *where) add(format string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

// search matches one argument against several columns.
func (w *where) search(term string, columns ...string) {
	w.args = append(w.args, "%"+term+"%")
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		parts = append(parts, fmt.Sprintf("%s ILIKE $%d", c, len(w.args)))
	}
	w.conditions = append(w.conditions, "("+strings.Join(parts, " OR ")+")")
}

func (w *where) clause() string {
	if len(w.conditions) == 0 {
		return "TRUE"
	}
	return strings.Join(w.conditions, " AND ")
}

// page appends LIMIT and OFFSET arguments and returns their placeholders.
func (w *where) page(pageNum, pageSize int) (string, []interface{}) {
	pageNum, pageSize = pagination.Normalize(pageNum, pageSize)
	args := append(append([]interface{}{}, w.args...), pageSize, pagination.Offset(pageNum, pageSize))
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func textArray(v pq.StringArray) pq.StringArray {
	if v == nil {
		return pq.StringArray{}
	}
	return v
}
