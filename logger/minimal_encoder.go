package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset  = "\x1b[0m"
	colorBold   = "\x1b[1m"
	colorTime   = "\x1b[38;5;107m"
	colorName   = "\x1b[38;5;208m"
	colorWarn   = "\x1b[38;5;179m"
	colorError  = "\x1b[38;5;167m"
	colorFields = "\x1b[38;5;109m"
)

var bufferPool = buffer.NewPool()

// minimalEncoder renders one calm line per entry:
//
//	15:04:05  WARN  t.resolver  homonym rejected  name=Aus bus node_id=12
//
// Context fields from With() are kept in the embedded map encoder and
// merged with per-entry fields, sorted by key.
type minimalEncoder struct {
	*zapcore.MapObjectEncoder
	color bool
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder(), color: true}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &minimalEncoder{MapObjectEncoder: clone, color: enc.color}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	all := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		all.Fields[k] = v
	}
	for _, f := range fields {
		f.AddTo(all)
	}

	line := bufferPool.Get()
	line.AppendString(enc.paint(colorTime, ent.Time.Format("15:04:05")))

	if ent.Level != zapcore.InfoLevel {
		line.AppendString("  ")
		line.AppendString(enc.levelString(ent.Level))
	}

	if ent.LoggerName != "" {
		line.AppendString("  ")
		line.AppendString(enc.paint(colorName, abbreviateName(ent.LoggerName)))
	}

	line.AppendString("  ")
	line.AppendString(ent.Message)

	if len(all.Fields) > 0 {
		line.AppendString("  ")
		line.AppendString(enc.paint(colorFields, renderFields(all.Fields)))
	}

	line.AppendString("\n")
	return line, nil
}

func (enc *minimalEncoder) paint(color, s string) string {
	if !enc.color {
		return s
	}
	return color + s + colorReset
}

func (enc *minimalEncoder) levelString(level zapcore.Level) string {
	switch {
	case level == zapcore.DebugLevel:
		return level.CapitalString()
	case level == zapcore.WarnLevel:
		return enc.paint(colorWarn, level.CapitalString())
	case level >= zapcore.ErrorLevel:
		return enc.paint(colorBold+colorError, level.CapitalString())
	default:
		return level.CapitalString()
	}
}

// abbreviateName shortens component names: taxon.resolver -> t.resolver
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}

func renderFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return strings.Join(parts, " ")
}
