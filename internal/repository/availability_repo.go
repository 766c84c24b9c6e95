package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"homesync/internal/model"
)

// AvailabilityRepository 不可用时间块数据访问接口
//
// 时间块只按字面 [start_time, end_time) 与查询区间比较，recurring_day 不参与匹配。
type AvailabilityRepository interface {
	Create(ctx context.Context, block *model.AvailabilityBlock) error
	GetByID(ctx context.Context, id int64) (*model.AvailabilityBlock, error)
	Update(ctx context.Context, block *model.AvailabilityBlock) error
	Delete(ctx context.Context, id int64) error
	ListByMember(ctx context.Context, memberID, householdID, start, end int64) ([]model.AvailabilityBlock, error)
	// ListByHousehold 联表成员目录，附带成员显示名
	ListByHousehold(ctx context.Context, householdID, start, end int64) ([]model.MemberAvailabilityRow, error)
	// HasOverlap 成员在 [start, end) 内是否存在不可用时间块
	HasOverlap(ctx context.Context, memberID, householdID, start, end int64) (bool, error)
}

type availabilityRepo struct {
	db *gorm.DB
}

// NewAvailabilityRepo 创建 AvailabilityRepository 实例
func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) Create(ctx context.Context, block *model.AvailabilityBlock) error {
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *availabilityRepo) GetByID(ctx context.Context, id int64) (*model.AvailabilityBlock, error) {
	var block model.AvailabilityBlock
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&block).Error
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (r *availabilityRepo) Update(ctx context.Context, block *model.AvailabilityBlock) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.AvailabilityBlock{}).
		Where("id = ?", block.ID).
		Updates(map[string]interface{}{
			"start_time":    block.StartTime,
			"end_time":      block.EndTime,
			"reason":        block.Reason,
			"recurring_day": block.RecurringDay,
			"updated_at":    now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	block.UpdatedAt = now
	return nil
}

func (r *availabilityRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.AvailabilityBlock{}).Error
}

func (r *availabilityRepo) ListByMember(ctx context.Context, memberID, householdID, start, end int64) ([]model.AvailabilityBlock, error) {
	var blocks []model.AvailabilityBlock
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND household_id = ? AND start_time < ? AND end_time > ?", memberID, householdID, end, start).
		Order("start_time ASC, id ASC").
		Find(&blocks).Error
	return blocks, err
}

func (r *availabilityRepo) ListByHousehold(ctx context.Context, householdID, start, end int64) ([]model.MemberAvailabilityRow, error) {
	var rows []model.MemberAvailabilityRow
	err := r.db.WithContext(ctx).
		Table("availability_blocks AS b").
		Select("b.*, m.display_name").
		Joins("JOIN household_members AS m ON m.id = b.member_id").
		Where("b.household_id = ? AND b.start_time < ? AND b.end_time > ?", householdID, end, start).
		Order("b.start_time ASC, b.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *availabilityRepo) HasOverlap(ctx context.Context, memberID, householdID, start, end int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.AvailabilityBlock{}).
		Where("member_id = ? AND household_id = ? AND start_time < ? AND end_time > ?", memberID, householdID, end, start).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
