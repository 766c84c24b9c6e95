package service

import (
	"go.uber.org/zap"

	"homesync/config"
	"homesync/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Calendar     CalendarService
	Availability AvailabilityService
	Conflict     ConflictService
	Export       ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	conflict := NewConflictService(repo, logger)
	return &Service{
		Calendar:     NewCalendarService(repo, conflict, logger),
		Availability: NewAvailabilityService(repo, cfg.Calendar.Location(), logger),
		Conflict:     conflict,
		Export:       NewExportService(&cfg.Calendar, repo, logger),
	}
}
