package repository

import (
	"context"

	"boothpos/internal/domain/model"
	repo "boothpos/internal/repository"

	"gorm.io/gorm"
)

type BoothGormRepository struct {
	db *gorm.DB
}

func NewBoothGormRepository(db *gorm.DB) *BoothGormRepository {
	return &BoothGormRepository{db: db}
}

func (r *BoothGormRepository) FindByID(ctx context.Context, boothID int64) (model.Booth, error) {
	var b model.Booth
	err := r.db.WithContext(ctx).Where("id = ?", boothID).First(&b).Error
	if isNotFound(err) {
		return model.Booth{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Booth{}, err
	}
	return b, nil
}

func (r *BoothGormRepository) FindByIDForUpdate(ctx context.Context, boothID int64) (model.Booth, error) {
	var b model.Booth
	err := forUpdate(r.db.WithContext(ctx)).Where("id = ?", boothID).First(&b).Error
	if isNotFound(err) {
		return model.Booth{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Booth{}, err
	}
	return b, nil
}

// 加算後が0未満なら0で止める
func (r *BoothGormRepository) AddRevenue(ctx context.Context, boothID int64, delta int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Booth{}).
		Where("id = ?", boothID).
		Update("total_revenue", gorm.Expr(
			"CASE WHEN total_revenue + ? < 0 THEN 0 ELSE total_revenue + ? END", delta, delta,
		))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, repo.ErrNotFound
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Booth{}).
		Where("id = ?", boothID).
		Pluck("total_revenue", &total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *BoothGormRepository) SetRevenue(ctx context.Context, boothID int64, total int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Booth{}).
		Where("id = ?", boothID).
		Update("total_revenue", total)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *BoothGormRepository) NextEventSeq(ctx context.Context, boothID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Booth{}).
		Where("id = ?", boothID).
		Update("event_seq", gorm.Expr("event_seq + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, repo.ErrNotFound
	}

	var seq int64
	if err := r.db.WithContext(ctx).
		Model(&model.Booth{}).
		Where("id = ?", boothID).
		Pluck("event_seq", &seq).Error; err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *BoothGormRepository) EventSeqs(ctx context.Context) (map[int64]int64, error) {
	var rows []struct {
		ID       int64
		EventSeq int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Booth{}).
		Select("id", "event_seq").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		out[row.ID] = row.EventSeq
	}
	return out, nil
}
