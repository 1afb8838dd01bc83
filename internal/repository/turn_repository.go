package repository

import (
	"fmt"

	"gorm.io/gorm"

	"datacopilot/internal/model"
)

type TurnRepository struct {
	db *gorm.DB
}

func NewTurnRepository(db *gorm.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

func (r *TurnRepository) Create(turn *model.ChatTurn) error {
	if err := r.db.Create(turn).Error; err != nil {
		return fmt.Errorf("create chat turn failed: %w", err)
	}
	return nil
}

func (r *TurnRepository) ListRecent(limit int) ([]model.ChatTurn, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var turns []model.ChatTurn
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("list chat turns failed: %w", err)
	}
	return turns, nil
}
