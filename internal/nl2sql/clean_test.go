package nl2sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSQLStripsFenceAndTruncatesToFirstStatement(t *testing.T) {
	got := CleanSQL(" ```sql\nSELECT 1;\nSELECT 2;\n``` ")
	assert.Equal(t, "SELECT 1;", got)
}

func TestCleanSQLStripsSurroundingBackticks(t *testing.T) {
	assert.Equal(t, "SELECT * FROM sales", CleanSQL("`SELECT * FROM sales`"))
}

func TestCleanSQLPassesPlainStatementThrough(t *testing.T) {
	assert.Equal(t, "SELECT COUNT(*) FROM sales", CleanSQL("  SELECT COUNT(*) FROM sales  "))
}

func TestCleanSQLLowercaseFenceMarker(t *testing.T) {
	assert.Equal(t, "SELECT 1;", CleanSQL("```SQL\nSELECT 1;\n```"))
}
