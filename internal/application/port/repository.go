package port

import (
	"context"
	"errors"

	"arbwatch/internal/domain/model"
)

// ErrSettingsNotFound nothing has been saved yet
var ErrSettingsNotFound = errors.New("settings not found")

// SettingsRepository 持久化运行时可修改的设置（仅保存最新值）
type SettingsRepository interface {
	Load(ctx context.Context) (model.RuntimeSettings, error)
	Save(ctx context.Context, s model.RuntimeSettings) error
	Close() error
}
