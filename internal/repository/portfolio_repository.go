package repository

import (
	"fmt"

	"gorm.io/gorm"

	"finadvisor/internal/model"
)

type PortfolioRepository struct {
	db *gorm.DB
}

func NewPortfolioRepository(db *gorm.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// ReplaceHoldings swaps a portfolio's holdings for the given set in one
// transaction, so re-uploading a portfolio CSV replaces rather than appends.
func (r *PortfolioRepository) ReplaceHoldings(portfolio string, holdings []model.PortfolioHolding) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("portfolio = ?", portfolio).Delete(&model.PortfolioHolding{}).Error; err != nil {
			return err
		}
		if len(holdings) == 0 {
			return nil
		}
		return tx.Create(&holdings).Error
	})
	if err != nil {
		return fmt.Errorf("replace holdings for %s failed: %w", portfolio, err)
	}
	return nil
}

func (r *PortfolioRepository) ListByPortfolio(portfolio string) ([]model.PortfolioHolding, error) {
	var holdings []model.PortfolioHolding
	if err := r.db.Where("portfolio = ?", portfolio).Order("value DESC").Find(&holdings).Error; err != nil {
		return nil, fmt.Errorf("list holdings for %s failed: %w", portfolio, err)
	}
	return holdings, nil
}

func (r *PortfolioRepository) ListPortfolios() ([]string, error) {
	var names []string
	err := r.db.Model(&model.PortfolioHolding{}).
		Distinct("portfolio").
		Order("portfolio").
		Pluck("portfolio", &names).Error
	if err != nil {
		return nil, fmt.Errorf("list portfolios failed: %w", err)
	}
	return names, nil
}

func (r *PortfolioRepository) DeleteByPortfolio(portfolio string) error {
	if err := r.db.Where("portfolio = ?", portfolio).Delete(&model.PortfolioHolding{}).Error; err != nil {
		return fmt.Errorf("delete portfolio %s failed: %w", portfolio, err)
	}
	return nil
}
