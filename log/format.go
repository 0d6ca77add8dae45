// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	termTimeFormat = "01-02|15:04:05.000"
	termMsgJust    = 40
)

func levelColor(l slog.Level) int {
	switch l {
	case LevelCrit:
		return 35
	case slog.LevelError:
		return 31
	case slog.LevelWarn:
		return 33
	case slog.LevelInfo:
		return 32
	case slog.LevelDebug:
		return 36
	case LevelTrace:
		return 34
	}
	return 0
}

func (h *TerminalHandler) format(buf []byte, r slog.Record) []byte {
	lvl := LevelAlignedString(r.Level)
	if h.useColor {
		lvl = fmt.Sprintf("\x1b[%dm%s\x1b[0m", levelColor(r.Level), lvl)
	}
	buf = append(buf, lvl...)
	buf = append(buf, '[')
	buf = append(buf, r.Time.Format(termTimeFormat)...)
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)

	// pad the message so that attributes line up
	if r.NumAttrs()+len(h.attrs) > 0 && len(r.Message) < termMsgJust {
		buf = append(buf, strings.Repeat(" ", termMsgJust-len(r.Message))...)
	}

	for _, attr := range h.attrs {
		buf = appendAttr(buf, attr, h.useColor)
	}
	r.Attrs(func(attr slog.Attr) bool {
		buf = appendAttr(buf, attr, h.useColor)
		return true
	})
	return append(buf, '\n')
}

func appendAttr(buf []byte, attr slog.Attr, color bool) []byte {
	buf = append(buf, ' ')
	if color {
		buf = append(buf, "\x1b[2m"...)
	}
	buf = append(buf, attr.Key...)
	if color {
		buf = append(buf, "\x1b[0m"...)
	}
	buf = append(buf, '=')
	return append(buf, escape(valueString(attr.Value))...)
}

func valueString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(timeFormat)
	}
	val := v.Any()
	if err, ok := val.(error); ok {
		return err.Error()
	}
	if t, ok := val.(time.Time); ok {
		return t.Format(timeFormat)
	}
	if s, ok := formatValue(val); ok {
		return s
	}
	if val == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%+v", val)
}

func escape(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " =\"\t\r\n") {
		return strconv.Quote(s)
	}
	return s
}
