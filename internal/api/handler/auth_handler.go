package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homesync/internal/dto"
	"homesync/pkg/redis"
	"homesync/pkg/response"
)

// AuthHandler 当前会话相关接口
// Token 由外部身份服务签发，本服务只负责校验与吊销
type AuthHandler struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(rdb *redis.Client, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{rdb: rdb, logger: logger}
}

// Me 返回当前 Token 中的成员身份
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	resp := dto.SessionResponse{
		MemberID:    claims.MemberID,
		HouseholdID: claims.HouseholdID,
		Role:        claims.Role,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	response.OK(c, resp)
}

// Logout 吊销当前 Token（加入黑名单直到自然过期）
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	if h.rdb == nil {
		h.logger.Warn("Redis 不可用，Token 无法吊销", zap.Int64("member_id", claims.MemberID))
		response.OK(c, nil)
		return
	}

	if err := h.rdb.BlacklistToken(c.Request.Context(), claims.ID, claims.RemainingTTL()); err != nil {
		h.logger.Error("吊销 Token 失败", zap.Int64("member_id", claims.MemberID), zap.Error(err))
		response.InternalError(c)
		return
	}

	response.OK(c, nil)
}
