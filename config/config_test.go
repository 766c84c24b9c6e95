package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv("HOMESYNC_AUTH_JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("HOMESYNC_SERVER_PORT", "9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望环境变量覆盖端口为 9090，实际 %d", cfg.Server.Port)
	}
	if cfg.Calendar.Timezone != "UTC" {
		t.Errorf("期望默认时区 UTC，实际 %s", cfg.Calendar.Timezone)
	}
	if cfg.Calendar.ConflictRateWindow != time.Minute {
		t.Errorf("期望默认限流窗口 1m，实际 %v", cfg.Calendar.ConflictRateWindow)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second || !cfg.Database.AutoMigrate {
		t.Errorf("服务器与迁移默认值异常: %+v / auto_migrate=%v", cfg.Server, cfg.Database.AutoMigrate)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("auth:\n  jwt_secret: file-secret-0123456789\ncalendar:\n  timezone: Asia/Shanghai\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Calendar.Location().String() != "Asia/Shanghai" {
		t.Errorf("期望时区 Asia/Shanghai，实际 %s", cfg.Calendar.Location())
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		Server:   ServerConfig{Port: 8080},
		Auth:     AuthConfig{JWTSecret: "0123456789abcdef"},
		Calendar: CalendarConfig{Timezone: "UTC"},
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}

	short := base
	short.Auth.JWTSecret = "short"
	if short.Validate() == nil {
		t.Error("过短的 jwt_secret 应校验失败")
	}

	badTZ := base
	badTZ.Calendar.Timezone = "Mars/Olympus"
	if badTZ.Validate() == nil {
		t.Error("无效时区应校验失败")
	}
}
