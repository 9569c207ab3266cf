package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/talkincode/sweetshop/internal/domain"
	"gorm.io/gorm"
)

// GormSweetRepository is the GORM implementation of Store
type GormSweetRepository struct {
	db *gorm.DB
}

// NewGormSweetRepository creates a new GORM-based repository
func NewGormSweetRepository(db *gorm.DB) *GormSweetRepository {
	return &GormSweetRepository{db: db}
}

func (r *GormSweetRepository) Get(ctx context.Context, id int64) (*domain.Sweet, error) {
	return r.get(r.db.WithContext(ctx), id)
}

func (r *GormSweetRepository) get(tx *gorm.DB, id int64) (*domain.Sweet, error) {
	var sweet domain.Sweet
	err := tx.Where("id = ?", id).First(&sweet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.NotFoundf(id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query sweet %d", id)
	}
	return &sweet, nil
}

func (r *GormSweetRepository) Insert(ctx context.Context, sweet *domain.Sweet) (int64, error) {
	if err := prepareInsert(sweet); err != nil {
		return 0, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Sweet{}).Where("id = ?", sweet.ID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "check sweet id")
		}
		if count > 0 {
			return domain.NewValidationError("id", "sweet id already exists")
		}
		return errors.Wrap(tx.Create(sweet).Error, "create sweet")
	})
	if err != nil {
		return 0, err
	}
	return sweet.ID, nil
}

func (r *GormSweetRepository) Update(ctx context.Context, id int64, fields domain.SweetFields) (*domain.Sweet, error) {
	var result *domain.Sweet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.get(tx, id)
		if err != nil {
			return err
		}
		if fields.Empty() {
			result = current
			return nil
		}
		merged, err := merge(*current, fields)
		if err != nil {
			return err
		}
		merged.UpdatedAt = time.Now()
		updates := fields.Columns()
		if fields.Price != nil {
			updates["price"] = merged.Price
		}
		updates["updated_at"] = merged.UpdatedAt
		if err := tx.Model(&domain.Sweet{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return errors.Wrapf(err, "update sweet %d", id)
		}
		result = &merged
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *GormSweetRepository) Remove(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Sweet{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete sweet %d", id)
	}
	if res.RowsAffected == 0 {
		return domain.NotFoundf(id)
	}
	return nil
}

func (r *GormSweetRepository) All(ctx context.Context) ([]domain.Sweet, error) {
	var rows []domain.Sweet
	if err := r.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query sweets")
	}
	return rows, nil
}

// AdjustQuantity runs a single conditional UPDATE so the compare and the
// write are one statement for the database.
func (r *GormSweetRepository) AdjustQuantity(ctx context.Context, id int64, delta int) (*domain.Sweet, error) {
	var result *domain.Sweet
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Sweet{}).
			Where("id = ? AND quantity + ? >= 0", id, delta).
			Updates(map[string]interface{}{
				"quantity":   gorm.Expr("quantity + ?", delta),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "adjust sweet %d", id)
		}
		current, err := r.get(tx, id)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return insufficient(current, delta)
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
