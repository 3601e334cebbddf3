package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLogger_SameInstance 测试同一子系统返回同一实例
func TestLogger_SameInstance(t *testing.T) {
	l1 := Logger("test-subsystem")
	l2 := Logger("test-subsystem")

	require.NotNil(t, l1)
	assert.Same(t, l1, l2)
}

// TestLogger_SetLevel 测试动态调整级别
func TestLogger_SetLevel(t *testing.T) {
	l := Logger("test-level")
	require.NotNil(t, l)

	SetLevel("test-level", slog.LevelError)
	assert.False(t, l.Enabled(context.Background(), slog.LevelInfo))

	SetLevel("test-level", slog.LevelDebug)
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))
}

// TestParseLevelConfig 测试级别配置解析
func TestParseLevelConfig(t *testing.T) {
	cfg := &Config{
		DefaultLevel:    slog.LevelInfo,
		SubsystemLevels: make(map[string]slog.Level),
	}

	parseLevelConfig(cfg, "statemachine=debug,worker=warn,error")

	assert.Equal(t, slog.LevelDebug, cfg.LevelForSubsystem("statemachine"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelForSubsystem("worker"))
	// 未配置的子系统使用默认级别
	assert.Equal(t, slog.LevelError, cfg.LevelForSubsystem("other"))
}

// TestDiscard 测试丢弃 Logger
func TestDiscard(t *testing.T) {
	l := Discard()
	require.NotNil(t, l)
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
