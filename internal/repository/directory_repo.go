package repository

import (
	"context"

	"gorm.io/gorm"

	"homesync/internal/model"
)

//go:generate mockgen -source=directory_repo.go -destination=mocks/mock_directory_repo.go -package=mocks

// DirectoryRepository 成员目录只读接口（家庭与成员归属由目录服务维护）
type DirectoryRepository interface {
	HouseholdExists(ctx context.Context, householdID int64) (bool, error)
	IsMember(ctx context.Context, householdID, memberID int64) (bool, error)
	DisplayName(ctx context.Context, memberID int64) (string, error)
	ListMembers(ctx context.Context, householdID int64) ([]model.HouseholdMember, error)
}

type directoryRepo struct {
	db *gorm.DB
}

// NewDirectoryRepo 创建 DirectoryRepository 实例
func NewDirectoryRepo(db *gorm.DB) DirectoryRepository {
	return &directoryRepo{db: db}
}

func (r *directoryRepo) HouseholdExists(ctx context.Context, householdID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Household{}).
		Where("id = ?", householdID).
		Count(&count).Error
	return count > 0, err
}

func (r *directoryRepo) IsMember(ctx context.Context, householdID, memberID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.HouseholdMember{}).
		Where("id = ? AND household_id = ?", memberID, householdID).
		Count(&count).Error
	return count > 0, err
}

// DisplayName 成员不存在时返回 gorm.ErrRecordNotFound
func (r *directoryRepo) DisplayName(ctx context.Context, memberID int64) (string, error) {
	var member model.HouseholdMember
	err := r.db.WithContext(ctx).
		Select("id", "display_name").
		Where("id = ?", memberID).
		First(&member).Error
	if err != nil {
		return "", err
	}
	return member.DisplayName, nil
}

func (r *directoryRepo) ListMembers(ctx context.Context, householdID int64) ([]model.HouseholdMember, error) {
	var members []model.HouseholdMember
	err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("id ASC").
		Find(&members).Error
	return members, err
}
