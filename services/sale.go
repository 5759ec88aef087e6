package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KrampusTON/indyback/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleService serves the token-sale figures. Reads come from the
// cached snapshot kept fresh by the sale sync worker; when no snapshot
// exists yet the figures are fetched live.
type SaleService struct {
	DB    *gorm.DB
	Chain *BlockchainService
}

func NewSaleService(db *gorm.DB, chain *BlockchainService) *SaleService {
	return &SaleService{DB: db, Chain: chain}
}

// SaleData is the public sale-page payload.
type SaleData struct {
	TokenPrice      float64   `json:"token_price"`
	TokensAvailable float64   `json:"tokens_available"`
	TotalBought     float64   `json:"total_bought"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// RefreshSnapshot pulls the three figures from the chain and upserts
// the cached row.
func (s *SaleService) RefreshSnapshot(ctx context.Context) (*models.SaleSnapshot, error) {
	price, err := s.Chain.GetTokenPrice(ctx)
	if err != nil {
		return nil, err
	}
	available, err := s.Chain.GetTokensAvailable(ctx)
	if err != nil {
		return nil, err
	}
	bought, err := s.Chain.GetTotalBought(ctx)
	if err != nil {
		return nil, err
	}

	snap := models.SaleSnapshot{
		TokenPrice:      price,
		TokensAvailable: available,
		TotalBought:     bought,
		FetchedAt:       time.Now().UTC(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.SaleSnapshot
		if err := tx.First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				snap.ID = uuid.NewString()
				return tx.Create(&snap).Error
			}
			return err
		}
		snap.ID = existing.ID
		return tx.Save(&snap).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store sale snapshot: %w", err)
	}
	return &snap, nil
}

// GetSaleData returns the cached snapshot, fetching live when the
// cache is empty.
func (s *SaleService) GetSaleData(ctx context.Context) (*SaleData, error) {
	var snap models.SaleSnapshot
	err := s.DB.First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fresh, rerr := s.RefreshSnapshot(ctx)
		if rerr != nil {
			return nil, rerr
		}
		snap = *fresh
	} else if err != nil {
		return nil, err
	}

	return &SaleData{
		TokenPrice:      snap.TokenPrice,
		TokensAvailable: snap.TokensAvailable,
		TotalBought:     snap.TotalBought,
		FetchedAt:       snap.FetchedAt,
	}, nil
}
