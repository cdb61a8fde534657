package main

import (
	"github.com/sharemig/sharemig/pkg/sharemig/config"
	"github.com/sharemig/sharemig/pkg/sharemig/logging"
	"github.com/sharemig/sharemig/pkg/sharemig/types"
)

// parseRotationConfig converts the string-based config representation into
// the byte-count representation the logging package wants. Invalid or empty
// sizes fall back to the rotation defaults.
func parseRotationConfig(cfg config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Daily:      cfg.Daily,
	}

	if cfg.MaxSize != "" {
		if size, err := types.ParseSize(cfg.MaxSize); err == nil {
			out.MaxSize = size
		}
	}
	if out.MaxSize == 0 {
		out.MaxSize = logging.DefaultRotationConfig().MaxSize
	}

	return out
}
