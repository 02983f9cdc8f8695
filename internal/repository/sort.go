package repository

import (
	"sort"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

// SortNewestFirst orders records by timestamp descending, id descending on
// ties, for backends that cannot sort server side.
func SortNewestFirst(records []domain.DetectionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Timestamp.Equal(records[j].Timestamp) {
			return records[i].Timestamp.After(records[j].Timestamp)
		}
		return records[i].ID > records[j].ID
	})
}

// Limit truncates records to limit entries; limit <= 0 means no limit.
func Limit(records []domain.DetectionRecord, limit int) []domain.DetectionRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
