package plugins

import (
	"log/slog"

	"github.com/joshp123/findmy/internal/config"
	"github.com/joshp123/findmy/internal/core"
	"github.com/joshp123/findmy/plugins/findmy"
)

func init() {
	Register(func(cfg *config.Config, logger *slog.Logger) (core.Plugin, bool) {
		return findmy.NewPlugin(cfg.FindMy, logger)
	})
}
