package clog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// clogHandler 封装 slog.Handler，提供动态级别与 Flush
type clogHandler struct {
	slog.Handler
	levelVar *slog.LevelVar
	file     *os.File
}

func newHandler(config *Config, o *options) (*clogHandler, error) {
	h := &clogHandler{levelVar: new(slog.LevelVar)}

	w, err := h.resolveWriter(config, o)
	if err != nil {
		return nil, err
	}

	level, _ := ParseLevel(config.Level)
	h.levelVar.Set(level.slogLevel())

	opts := &slog.HandlerOptions{
		AddSource:   config.AddSource,
		Level:       h.levelVar,
		ReplaceAttr: newReplaceAttr(config.SourceRoot),
	}
	if strings.EqualFold(config.Format, "json") {
		h.Handler = slog.NewJSONHandler(w, opts)
	} else {
		h.Handler = slog.NewTextHandler(w, opts)
	}
	return h, nil
}

func (h *clogHandler) resolveWriter(config *Config, o *options) (io.Writer, error) {
	if o.writer != nil {
		return o.writer, nil
	}
	switch strings.ToLower(config.Output) {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log output %q: %w", config.Output, err)
		}
		h.file = f
		return f, nil
	}
}

func (h *clogHandler) flush() {
	if h.file != nil {
		_ = h.file.Sync()
	}
}

// newReplaceAttr 统一 Level/Time/Source 的输出格式
func newReplaceAttr(sourceRoot string) func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 {
			return a
		}
		switch a.Key {
		case slog.LevelKey:
			level, ok := a.Value.Any().(slog.Level)
			if !ok {
				return a
			}
			a.Value = slog.StringValue(levelName(level))
		case slog.TimeKey:
			if a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().Format(timeFormat))
			}
		case slog.SourceKey:
			if source, ok := a.Value.Any().(*slog.Source); ok {
				return slog.String("caller", fmt.Sprintf("%s:%d", trimSourcePath(source.File, sourceRoot), source.Line))
			}
		}
		return a
	}
}

func levelName(level slog.Level) string {
	switch {
	case level <= slog.LevelDebug:
		return "DEBUG"
	case level <= slog.LevelInfo:
		return "INFO"
	case level <= slog.LevelWarn:
		return "WARN"
	case level <= slog.LevelError:
		return "ERROR"
	default:
		return "FATAL"
	}
}

// trimSourcePath 优先按 sourceRoot 裁剪，否则保留 "目录/文件名"
func trimSourcePath(file, sourceRoot string) string {
	if sourceRoot != "" {
		if rel, err := filepath.Rel(sourceRoot, file); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	dir, name := filepath.Split(file)
	return filepath.Join(filepath.Base(dir), name)
}
