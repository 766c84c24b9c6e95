package service

import (
	"context"

	"go.uber.org/zap"

	"homesync/internal/dto"
	"homesync/internal/repository"
	pkgerrors "homesync/pkg/errors"
)

// ConflictService 冲突检测业务接口
//
// 纯读操作：不修改任何数据，可在提交编辑前随意调用。
type ConflictService interface {
	// DetectConflicts 汇总与候选区间重叠的事件、不可用成员以及“无人负责”标记
	DetectConflicts(ctx context.Context, householdID int64, req *dto.CheckConflictRequest) (*dto.ConflictReport, error)
	// IsUserAvailable 成员在 [start, end) 内没有任何不可用时间块时返回 true
	IsUserAvailable(ctx context.Context, memberID, householdID, start, end int64) (bool, error)
}

type conflictService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(repo *repository.Repository, logger *zap.Logger) ConflictService {
	return &conflictService{repo: repo, logger: logger}
}

// ────────────────────── DetectConflicts ──────────────────────

func (s *conflictService) DetectConflicts(ctx context.Context, householdID int64, req *dto.CheckConflictRequest) (*dto.ConflictReport, error) {
	if req.StartTime >= req.EndTime {
		return nil, pkgerrors.NewFieldError("end_time", ErrInvalidRange)
	}

	// 1. 重叠事件（可排除正在编辑的事件自身）
	events, err := s.repo.Event.ListOverlapping(ctx, householdID, req.StartTime, req.EndTime, req.ExcludeEventID)
	if err != nil {
		s.logger.Error("查询重叠事件失败", zap.Int64("household_id", householdID), zap.Error(err))
		return nil, err
	}

	// 2. 不可用成员
	rows, err := s.repo.Availability.ListByHousehold(ctx, householdID, req.StartTime, req.EndTime)
	if err != nil {
		s.logger.Error("查询不可用时间失败", zap.Int64("household_id", householdID), zap.Error(err))
		return nil, err
	}

	report := &dto.ConflictReport{
		OverlappingEvents:  toEventResponses(events),
		UnavailableMembers: make([]dto.UnavailableMember, 0, len(rows)),
	}

	// 3. 任一重叠事件未指派负责人
	for _, e := range events {
		if e.ResponsibleMemberID == nil {
			report.NoResponsiblePerson = true
			break
		}
	}

	for _, row := range rows {
		report.UnavailableMembers = append(report.UnavailableMembers, dto.UnavailableMember{
			MemberID:    row.MemberID,
			DisplayName: row.DisplayName,
			BlockID:     row.ID,
			StartTime:   row.StartTime,
			EndTime:     row.EndTime,
			Reason:      row.Reason,
		})
	}

	return report, nil
}

// ────────────────────── IsUserAvailable ──────────────────────

func (s *conflictService) IsUserAvailable(ctx context.Context, memberID, householdID, start, end int64) (bool, error) {
	if start >= end {
		return false, pkgerrors.NewFieldError("end", ErrInvalidRange)
	}

	busy, err := s.repo.Availability.HasOverlap(ctx, memberID, householdID, start, end)
	if err != nil {
		s.logger.Error("查询成员可用性失败", zap.Int64("member_id", memberID), zap.Error(err))
		return false, err
	}
	return !busy, nil
}
