package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yoockh/callassist/internal/models"
	"github.com/yoockh/callassist/internal/utils"
)

type LexiconRepository interface {
	Latest(ctx context.Context) (*models.LexiconSnapshot, error)
	Create(ctx context.Context, s *models.LexiconSnapshot) error
}

type lexiconRepo struct {
	db *gorm.DB
}

func NewLexiconRepo(db *gorm.DB) LexiconRepository {
	return &lexiconRepo{db: db}
}

func (r *lexiconRepo) Latest(ctx context.Context) (*models.LexiconSnapshot, error) {
	var s models.LexiconSnapshot
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *lexiconRepo) Create(ctx context.Context, s *models.LexiconSnapshot) error {
	return r.db.WithContext(ctx).Create(s).Error
}
