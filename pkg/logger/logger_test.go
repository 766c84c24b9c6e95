package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"go.uber.org/zap/zapcore"

	"homesync/config"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format, Service: "homesync"})
		if err != nil {
			t.Fatalf("format=%s 初始化失败: %v", format, err)
		}
		if !l.Core().Enabled(zapcore.DebugLevel) {
			t.Errorf("format=%s 应启用 debug 级别", format)
		}
	}
}

func TestNewLogger_Invalid(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "verbose"}); err == nil {
		t.Error("无效级别应返回错误")
	}
	if _, err := NewLogger(&config.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("无效格式应返回错误")
	}
}

func TestNewLogger_SplitsByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	l, err := newLogger(&config.LogConfig{Level: "info", Format: "json", Service: "homesync"}, &out, &errOut)
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}

	l.Debug("丢弃")
	l.Info("普通")
	l.Warn("告警")
	l.Sync()

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &entry); err != nil {
		t.Fatalf("stdout 应只有一条 info 日志: %v (%q)", err, out.String())
	}
	if entry["msg"] != "普通" || entry["service"] != "homesync" {
		t.Errorf("stdout 日志内容异常: %v", entry)
	}
	if !bytes.Contains(errOut.Bytes(), []byte("告警")) || bytes.Contains(errOut.Bytes(), []byte("普通")) {
		t.Errorf("warn 应写入 stderr 且仅 warn: %q", errOut.String())
	}
}
