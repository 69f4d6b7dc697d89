package grn

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"erp-backend/internal/models"

	"gorm.io/gorm"
)

// GenerateGRNNo produces the next GRN-YYYYMM-NNNNNN business key, called
// inside the creating transaction.
func GenerateGRNNo(tx *gorm.DB) (string, error) {
	prefix := fmt.Sprintf("GRN-%s", time.Now().Format("200601"))

	var last models.GRNRequest
	err := tx.Where("grn_no LIKE ?", prefix+"-%").
		Order("grn_no DESC").
		First(&last).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return "", err
	}

	next := 1
	if err == nil {
		parts := strings.Split(last.GRNNo, "-")
		if n, convErr := strconv.Atoi(parts[len(parts)-1]); convErr == nil {
			next = n + 1
		}
	}

	return fmt.Sprintf("%s-%06d", prefix, next), nil
}
