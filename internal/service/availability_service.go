package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"homesync/internal/dto"
	"homesync/internal/model"
	"homesync/internal/repository"
	pkgerrors "homesync/pkg/errors"
)

// ── 不可用时间模块业务错误 ──

var (
	ErrAvailabilityNotFound = errors.New("不可用时间记录不存在")
	ErrInvalidRecurringDay  = errors.New("recurring_day 必须在 0-6 之间")
)

// AvailabilityService 不可用时间业务接口
//
// recurring_day 只作为标签保存，不会展开为每周重复的实例。
type AvailabilityService interface {
	Create(ctx context.Context, householdID, callerID int64, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error)
	GetByID(ctx context.Context, householdID, id int64) (*dto.AvailabilityResponse, error)
	Update(ctx context.Context, householdID, id int64, req *dto.UpdateAvailabilityRequest) (*dto.AvailabilityResponse, error)
	Delete(ctx context.Context, householdID, id int64) error
	ListForMember(ctx context.Context, householdID, memberID, start, end int64) ([]dto.AvailabilityResponse, error)
	// ListForHousehold 按成员分组，组内保持开始时间升序
	ListForHousehold(ctx context.Context, householdID, start, end int64) (map[int64]*dto.MemberAvailability, error)
	// ImportICS 将外部日历中的忙碌时段导入为时间块
	ImportICS(ctx context.Context, householdID, callerID int64, req *dto.ImportICSRequest, content io.Reader) (*dto.ImportICSResponse, error)
}

type availabilityService struct {
	repo     *repository.Repository
	location *time.Location
	logger   *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例；location 用于解释 ICS 中的浮动时间
func NewAvailabilityService(repo *repository.Repository, location *time.Location, logger *zap.Logger) AvailabilityService {
	return &availabilityService{repo: repo, location: location, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *availabilityService) Create(ctx context.Context, householdID, callerID int64, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	memberID := callerID
	if req.MemberID != nil {
		memberID = *req.MemberID
	}

	block := &model.AvailabilityBlock{
		MemberID:     memberID,
		HouseholdID:  householdID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Reason:       req.Reason,
		RecurringDay: req.RecurringDay,
	}
	if err := validateBlock(block); err != nil {
		return nil, err
	}

	ok, err := s.repo.Directory.IsMember(ctx, householdID, memberID)
	if err != nil {
		s.logger.Error("查询成员归属失败", zap.Int64("member_id", memberID), zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.NewFieldError("member_id", ErrMemberNotInHousehold)
	}

	if err := s.repo.Availability.Create(ctx, block); err != nil {
		s.logger.Error("创建不可用时间失败", zap.Int64("member_id", memberID), zap.Error(err))
		return nil, err
	}

	return toAvailabilityResponse(block), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *availabilityService) GetByID(ctx context.Context, householdID, id int64) (*dto.AvailabilityResponse, error) {
	block, err := s.getBlock(ctx, householdID, id)
	if err != nil {
		return nil, err
	}
	return toAvailabilityResponse(block), nil
}

// ────────────────────── Update ──────────────────────

func (s *availabilityService) Update(ctx context.Context, householdID, id int64, req *dto.UpdateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	block, err := s.getBlock(ctx, householdID, id)
	if err != nil {
		return nil, err
	}

	if req.StartTime != nil {
		block.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		block.EndTime = *req.EndTime
	}
	if req.ClearReason {
		block.Reason = nil
	} else if req.Reason != nil {
		block.Reason = req.Reason
	}
	if req.ClearRecurringDay {
		block.RecurringDay = nil
	} else if req.RecurringDay != nil {
		block.RecurringDay = req.RecurringDay
	}
	if err := validateBlock(block); err != nil {
		return nil, err
	}

	if err := s.repo.Availability.Update(ctx, block); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAvailabilityNotFound
		}
		s.logger.Error("更新不可用时间失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	return toAvailabilityResponse(block), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 幂等：记录不存在（或不属于该家庭）时直接返回
func (s *availabilityService) Delete(ctx context.Context, householdID, id int64) error {
	block, err := s.repo.Availability.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询不可用时间失败", zap.Int64("id", id), zap.Error(err))
		return err
	}
	if block.HouseholdID != householdID {
		return nil
	}

	if err := s.repo.Availability.Delete(ctx, id); err != nil {
		s.logger.Error("删除不可用时间失败", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── List ──────────────────────

func (s *availabilityService) ListForMember(ctx context.Context, householdID, memberID, start, end int64) ([]dto.AvailabilityResponse, error) {
	if start >= end {
		return nil, pkgerrors.NewFieldError("end", ErrInvalidRange)
	}

	blocks, err := s.repo.Availability.ListByMember(ctx, memberID, householdID, start, end)
	if err != nil {
		s.logger.Error("查询成员不可用时间失败", zap.Int64("member_id", memberID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.AvailabilityResponse, 0, len(blocks))
	for i := range blocks {
		result = append(result, *toAvailabilityResponse(&blocks[i]))
	}
	return result, nil
}

func (s *availabilityService) ListForHousehold(ctx context.Context, householdID, start, end int64) (map[int64]*dto.MemberAvailability, error) {
	if start >= end {
		return nil, pkgerrors.NewFieldError("end", ErrInvalidRange)
	}

	rows, err := s.repo.Availability.ListByHousehold(ctx, householdID, start, end)
	if err != nil {
		s.logger.Error("查询家庭不可用时间失败", zap.Int64("household_id", householdID), zap.Error(err))
		return nil, err
	}

	// 查询结果已按开始时间升序，逐行追加即可保持组内顺序
	grouped := make(map[int64]*dto.MemberAvailability)
	for i := range rows {
		row := &rows[i]
		group, ok := grouped[row.MemberID]
		if !ok {
			group = &dto.MemberAvailability{
				MemberID:    row.MemberID,
				DisplayName: row.DisplayName,
				Blocks:      []dto.AvailabilityResponse{},
			}
			grouped[row.MemberID] = group
		}
		group.Blocks = append(group.Blocks, *toAvailabilityResponse(&row.AvailabilityBlock))
	}
	return grouped, nil
}

// ── 内部辅助方法 ──

func (s *availabilityService) getBlock(ctx context.Context, householdID, id int64) (*model.AvailabilityBlock, error) {
	block, err := s.repo.Availability.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAvailabilityNotFound
		}
		s.logger.Error("查询不可用时间失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	if block.HouseholdID != householdID {
		return nil, ErrAvailabilityNotFound
	}
	return block, nil
}

func validateBlock(block *model.AvailabilityBlock) error {
	if block.StartTime >= block.EndTime {
		return pkgerrors.NewFieldError("end_time", ErrInvalidRange)
	}
	if block.RecurringDay != nil && (*block.RecurringDay < 0 || *block.RecurringDay > 6) {
		return pkgerrors.NewFieldError("recurring_day", ErrInvalidRecurringDay)
	}
	return nil
}

func toAvailabilityResponse(b *model.AvailabilityBlock) *dto.AvailabilityResponse {
	return &dto.AvailabilityResponse{
		ID:           b.ID,
		MemberID:     b.MemberID,
		HouseholdID:  b.HouseholdID,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Reason:       b.Reason,
		RecurringDay: b.RecurringDay,
		CreatedAt:    b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    b.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
