package messaging

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"p2p-ramp.backend/pkg/logger"
	"p2p-ramp.backend/pkg/redis"
)

// SettingsChannel is the pub/sub channel announcing new settings versions.
const SettingsChannel = "settings:updated"

type settingsChange struct {
	Version int64  `json:"version"`
	Origin  string `json:"origin"`
}

type settingsReloader interface {
	Reload(ctx context.Context) error
}

// RedisSettingsNotifier fans settings changes out to every instance over
// Redis pub/sub. Messages this instance sent are ignored on receipt.
type RedisSettingsNotifier struct {
	origin string
}

func NewRedisSettingsNotifier() *RedisSettingsNotifier {
	return &RedisSettingsNotifier{origin: uuid.NewString()}
}

func (n *RedisSettingsNotifier) NotifySettingsChanged(ctx context.Context, version int64) error {
	payload, err := json.Marshal(settingsChange{Version: version, Origin: n.origin})
	if err != nil {
		return err
	}
	return redis.Publish(ctx, SettingsChannel, payload)
}

// Listen reloads store whenever another instance announces a change. It
// returns once the subscription is confirmed; delivery stops with ctx.
func (n *RedisSettingsNotifier) Listen(ctx context.Context, store settingsReloader) error {
	return redis.Subscribe(ctx, SettingsChannel, func(payload string) {
		var change settingsChange
		if err := json.Unmarshal([]byte(payload), &change); err != nil {
			logger.Warn(ctx, "Malformed settings notification", zap.String("payload", payload), zap.Error(err))
			return
		}
		if change.Origin == n.origin {
			return
		}
		if err := store.Reload(ctx); err != nil {
			logger.Error(ctx, "Failed to reload settings", zap.Int64("version", change.Version), zap.Error(err))
			return
		}
		logger.Info(ctx, "Settings reloaded", zap.Int64("version", change.Version))
	})
}
