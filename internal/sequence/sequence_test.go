package sequence

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"hoarding-service/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.SequenceCounter{}))
	return db
}

func TestNextStartsAtOne(t *testing.T) {
	db := openTestDB(t)

	number, err := Next(db, KindInvoice, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", number)
}

func TestNextIncrements(t *testing.T) {
	db := openTestDB(t)

	seen := map[string]bool{}
	for i := 1; i <= 12; i++ {
		number, err := Next(db, KindHoarding, 2026)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("H-2026-%04d", i), number)
		assert.False(t, seen[number], "numbers must never repeat")
		seen[number] = true
	}
}

func TestKindsAndYearsAreIndependent(t *testing.T) {
	db := openTestDB(t)

	a, err := Next(db, KindContract, 2026)
	require.NoError(t, err)
	b, err := Next(db, KindInvoice, 2026)
	require.NoError(t, err)
	c, err := Next(db, KindContract, 2027)
	require.NoError(t, err)

	assert.Equal(t, "CON-2026-0001", a)
	assert.Equal(t, "INV-2026-0001", b)
	assert.Equal(t, "CON-2027-0001", c)
}

func TestFormatPadding(t *testing.T) {
	assert.Equal(t, "INV-2026-0007", Format(KindInvoice, 2026, 7))
	assert.Equal(t, "INV-2026-12345", Format(KindInvoice, 2026, 12345))
}
