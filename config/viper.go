package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/xerrors"
)

type loader struct {
	v      *viper.Viper
	cfg    *Config
	logger clog.Logger
}

func newLoader(cfg *Config, o *options) *loader {
	v := viper.New()
	for k, val := range o.defaults {
		v.SetDefault(k, val)
	}
	logger := o.logger
	if logger == nil {
		logger = clog.Discard()
	}
	return &loader{v: v, cfg: cfg, logger: logger}
}

// Load 依次处理环境变量、.env、基础配置文件与环境特定配置文件
func (l *loader) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.v.SetConfigName(l.cfg.Name)
	l.v.SetConfigType(l.cfg.FileType)
	for _, path := range l.cfg.Paths {
		l.v.AddConfigPath(path)
	}

	l.v.SetEnvPrefix(l.cfg.EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	l.loadDotEnv()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return xerrors.Wrapf(err, "read config file %s", l.cfg.Name)
		}
		l.logger.Info("no config file found, using defaults and environment",
			clog.String("name", l.cfg.Name), clog.Any("paths", l.cfg.Paths))
	} else {
		l.logger.Info("config file loaded", clog.String("file", l.v.ConfigFileUsed()))
	}

	return l.mergeEnvironmentConfig()
}

// loadDotEnv 加载工作目录与搜索路径下的 .env，已存在的环境变量不会被覆盖
func (l *loader) loadDotEnv() {
	candidates := []string{".env"}
	for _, path := range l.cfg.Paths {
		candidates = append(candidates, filepath.Join(path, ".env"))
	}
	for _, file := range candidates {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			l.logger.Warn("failed to load .env file", clog.String("file", file), clog.Error(err))
			continue
		}
		l.logger.Debug(".env file loaded", clog.String("file", file))
	}
}

// mergeEnvironmentConfig 合并 <name>.<env> 配置，env 来自 <PREFIX>_ENV
func (l *loader) mergeEnvironmentConfig() error {
	env := os.Getenv(l.cfg.EnvPrefix + "_ENV")
	if env == "" {
		return nil
	}

	name := fmt.Sprintf("%s.%s", l.cfg.Name, env)
	l.v.SetConfigName(name)
	defer l.v.SetConfigName(l.cfg.Name)

	if err := l.v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return xerrors.Wrapf(err, "merge environment config %s", name)
		}
		l.logger.Info("no environment config file", clog.String("env", env))
		return nil
	}
	l.logger.Info("environment config merged", clog.String("env", env))
	return nil
}

func (l *loader) Get(key string) any {
	return l.v.Get(key)
}

func (l *loader) Unmarshal(v any) error {
	return l.v.Unmarshal(v)
}

func (l *loader) UnmarshalKey(key string, v any) error {
	return l.v.UnmarshalKey(key, v)
}

func (l *loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}
