package postgres

import (
	"time"

	"gorm.io/gorm"

	"github.com/doannc02/exam-process-service/internal/repositories"
)

// applySort translates the recognized sort keys to an ORDER BY over the
// whitelisted column for the entity. Unknown or empty keys fall back to the
// stable default ordering by primary id ascending.
func applySort(query *gorm.DB, sort string, columns map[string]string) *gorm.DB {
	switch sort {
	case repositories.SortName, repositories.SortCode, repositories.SortCredit:
		if col, ok := columns[sort]; ok {
			return query.Order(col + " ASC")
		}
	case repositories.SortNameDesc, repositories.SortCodeDesc, repositories.SortCreditDesc:
		base := sort[:len(sort)-len("_desc")]
		if col, ok := columns[base]; ok {
			return query.Order(col + " DESC")
		}
	}
	return query.Order(columns["id"] + " ASC")
}

// applyPagination converts the 1-indexed page/size pair to offset/limit.
func applyPagination(query *gorm.DB, page, size int) *gorm.DB {
	page, size = repositories.NormalizePage(page, size)
	return query.Offset((page - 1) * size).Limit(size)
}

// monthRange returns the [start, end) bounds of the month containing t.
func monthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// dayStart truncates t to midnight in its location.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
