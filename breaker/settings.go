package breaker

import (
	"strings"

	"github.com/stellarcargo/peercall/config"
	"github.com/stellarcargo/peercall/xerrors"
)

type resolvedConfig struct {
	defaults  Settings
	overrides map[string]Settings
}

// settingsFor 返回依赖的生效参数
func (c *resolvedConfig) settingsFor(dependency string) Settings {
	if s, ok := c.overrides[strings.ToLower(dependency)]; ok {
		return s
	}
	return c.defaults
}

// resolveConfig 合并覆盖项并逐一校验
func resolveConfig(cfg *Config) (*resolvedConfig, error) {
	var errs xerrors.Collector

	if err := config.ValidateStruct(&cfg.Default); err != nil {
		errs.Collect(xerrors.Wrap(err, "breaker: default settings"))
	}

	overrides := make(map[string]Settings, len(cfg.Dependencies))
	for name, override := range cfg.Dependencies {
		if strings.TrimSpace(name) == "" {
			errs.Collect(xerrors.Wrap(xerrors.ErrInvalidConfig, "breaker: empty dependency name in overrides"))
			continue
		}
		merged := merge(cfg.Default, override)
		if err := config.ValidateStruct(&merged); err != nil {
			errs.Collect(xerrors.Wrapf(err, "breaker: settings for %s", name))
			continue
		}
		overrides[strings.ToLower(name)] = merged
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return &resolvedConfig{defaults: cfg.Default, overrides: overrides}, nil
}

// merge 用 override 的非零字段覆盖 base
func merge(base, override Settings) Settings {
	out := base
	if override.FailureRateThreshold != 0 {
		out.FailureRateThreshold = override.FailureRateThreshold
	}
	if override.SlidingWindowSize != 0 {
		out.SlidingWindowSize = override.SlidingWindowSize
	}
	if override.MinimumNumberOfCalls != 0 {
		out.MinimumNumberOfCalls = override.MinimumNumberOfCalls
	}
	if override.WaitDurationInOpenState != 0 {
		out.WaitDurationInOpenState = override.WaitDurationInOpenState
	}
	if override.PermittedCallsInHalfOpenState != 0 {
		out.PermittedCallsInHalfOpenState = override.PermittedCallsInHalfOpenState
	}
	if override.AutomaticTransitionFromOpenToHalfOpen {
		out.AutomaticTransitionFromOpenToHalfOpen = true
	}
	return out
}
