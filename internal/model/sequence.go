package model

// SequenceCounter backs human-readable number generation. One row per
// (kind, year); incremented atomically, never scanned-and-parsed.
type SequenceCounter struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Kind  string `json:"kind" gorm:"type:varchar(10);uniqueIndex:idx_seq_kind_year"`
	Year  int    `json:"year" gorm:"uniqueIndex:idx_seq_kind_year"`
	Value int64  `json:"value"`
}
