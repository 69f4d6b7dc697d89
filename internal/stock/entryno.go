package stock

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"erp-backend/internal/models"

	"gorm.io/gorm"
)

var entryNoPrefixes = map[models.StockEntryType]string{
	models.EntryTypeMaterialReceipt:  "MR",
	models.EntryTypeMaterialIssue:    "MI",
	models.EntryTypeMaterialTransfer: "MT",
	models.EntryTypeMaterialReturn:   "MRN",
	models.EntryTypeRepack:           "RPK",
	models.EntryTypeScrap:            "SCR",
}

// GenerateEntryNo produces the next <prefix>-YYYYMM-NNNNNN entry number for
// the given type, called inside the creating transaction.
func GenerateEntryNo(tx *gorm.DB, entryType models.StockEntryType) (string, error) {
	p, ok := entryNoPrefixes[entryType]
	if !ok {
		return "", fmt.Errorf("unknown entry type %q", entryType)
	}
	prefix := fmt.Sprintf("%s-%s", p, time.Now().Format("200601"))

	var last models.StockEntry
	err := tx.Where("entry_no LIKE ?", prefix+"-%").
		Order("entry_no DESC").
		First(&last).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return "", err
	}

	next := 1
	if err == nil {
		parts := strings.Split(last.EntryNo, "-")
		if n, convErr := strconv.Atoi(parts[len(parts)-1]); convErr == nil {
			next = n + 1
		}
	}

	return fmt.Sprintf("%s-%06d", prefix, next), nil
}
