// Copyright (c) 2023, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logx configures leveled [slog] logging with a
// terminal-colored handler.
package logx

import (
	"io"
	"log/slog"
	"os"

	"cogentcore.org/cortex/settings"
	"github.com/muesli/termenv"
)

// UserLevel is the verbosity level that the user has selected for
// what logging messages should be shown. Messages at levels at or
// above this level will be shown. The default depends on the debug
// and release build tags.
var UserLevel = &slog.LevelVar{}

func init() {
	UserLevel.Set(defaultUserLevel)
}

// SetLevel sets [UserLevel] from a level name such as "debug" or "WARN".
func SetLevel(name string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return err
	}
	UserLevel.Set(l)
	return nil
}

// levelColors are ANSI color codes.
var levelColors = map[slog.Level]string{
	slog.LevelDebug: "12",
	slog.LevelInfo:  "10",
	slog.LevelWarn:  "11",
	slog.LevelError: "9",
}

// NewHandler returns a text [slog.Handler] writing to w at [UserLevel].
// Level names are colored when w is a color terminal.
func NewHandler(w io.Writer) slog.Handler {
	out := termenv.NewOutput(w)
	colored := out.ColorProfile() != termenv.Ascii
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: UserLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if !colored || len(groups) > 0 || a.Key != slog.LevelKey {
				return a
			}
			l, ok := a.Value.Any().(slog.Level)
			if !ok {
				return a
			}
			c, ok := levelColors[l]
			if !ok {
				return a
			}
			return slog.String(a.Key, out.String(l.String()).Foreground(out.Color(c)).String())
		},
	})
}

// Init installs [NewHandler] on standard error as the default logger,
// at the level given in the settings.
func Init() {
	if err := SetLevel(settings.Get().Log.Level); err != nil {
		slog.Warn("logx: invalid log level in settings", "err", err)
	}
	slog.SetDefault(slog.New(NewHandler(os.Stderr)))
}
