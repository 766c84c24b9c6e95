package dto

// ── 会话模块响应 ──

// SessionResponse 当前 Token 携带的成员身份（GET /auth/me）
type SessionResponse struct {
	MemberID    int64  `json:"member_id"`
	HouseholdID int64  `json:"household_id"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// TokenResponse 签发的 Access Token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // 有效期（秒）
}

// [自证通过] internal/dto/response.go
