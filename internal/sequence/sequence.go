// Package sequence issues human-readable record numbers from a counter
// table. The counter row is incremented atomically inside a transaction,
// so concurrent creates never observe the same value.
package sequence

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hoarding-service/internal/model"
)

// Counter kinds. The kind doubles as the number prefix.
const (
	KindHoarding = "H"
	KindContract = "CON"
	KindInvoice  = "INV"
)

// Next increments the (kind, year) counter and returns the formatted
// number, e.g. "INV-2026-0001".
func Next(db *gorm.DB, kind string, year int) (string, error) {
	var value int64

	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.SequenceCounter{}).
			Where("kind = ? AND year = ?", kind, year).
			UpdateColumn("value", gorm.Expr("value + 1"))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			// First number of this kind/year. The upsert covers the case
			// where a concurrent create inserted the row in between.
			ctr := model.SequenceCounter{Kind: kind, Year: year, Value: 1}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "kind"}, {Name: "year"}},
				DoUpdates: clause.Assignments(map[string]interface{}{"value": gorm.Expr("sequence_counters.value + 1")}),
			}).Create(&ctr).Error; err != nil {
				return err
			}
		}

		var ctr model.SequenceCounter
		if err := tx.Where("kind = ? AND year = ?", kind, year).First(&ctr).Error; err != nil {
			return err
		}
		value = ctr.Value
		return nil
	})
	if err != nil {
		return "", err
	}

	return Format(kind, year, value), nil
}

// Format renders a record number from its parts.
func Format(kind string, year int, value int64) string {
	return fmt.Sprintf("%s-%d-%04d", kind, year, value)
}
