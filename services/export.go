package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/KrampusTON/indyback/models"
	"github.com/KrampusTON/indyback/utils"

	"gorm.io/gorm"
)

// ExportService produces admin reports and pushes them to object
// storage.
type ExportService struct {
	DB *gorm.DB
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{DB: db}
}

// ExportCommissions writes every commission row to a CSV object in R2
// and returns the object key.
func (s *ExportService) ExportCommissions(ctx context.Context) (string, error) {
	var commissions []models.ReferralCommission
	if err := s.DB.Order("created_at ASC").Find(&commissions).Error; err != nil {
		return "", fmt.Errorf("failed to load commissions: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "transaction_id", "referrer_address", "level", "percentage", "commission_indy", "created_at"})
	for _, c := range commissions {
		_ = w.Write([]string{
			c.ID,
			c.TransactionID,
			c.ReferrerAddress,
			strconv.Itoa(c.Level),
			strconv.FormatFloat(c.CommissionPercentage, 'f', -1, 64),
			strconv.FormatFloat(c.CommissionIndy, 'f', -1, 64),
			c.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to build CSV: %w", err)
	}

	key := fmt.Sprintf("exports/commissions-%s.csv", time.Now().UTC().Format("20060102-150405"))
	if err := utils.UploadToR2(ctx, key, buf.Bytes(), "text/csv"); err != nil {
		return "", err
	}
	return key, nil
}
