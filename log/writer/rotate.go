package writer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateMode selects the log rotation strategy.
type RotateMode int

const (
	// RotateModeTime rotates on a fixed time interval.
	RotateModeTime RotateMode = iota
	// RotateModeSize rotates when the file exceeds a size limit.
	RotateModeSize
)

// String returns the string representation of the rotate mode.
func (m RotateMode) String() string {
	switch m {
	case RotateModeTime:
		return "time"
	case RotateModeSize:
		return "size"
	default:
		return "unknown"
	}
}

// RotateConfig configures file output rotation.
type RotateConfig struct {
	Mode             RotateMode
	Filepath         string
	Filename         string
	FileExt          string
	TimeRotateConfig TimeRotateConfig
	SizeRotateConfig SizeRotateConfig
}

// TimeRotateConfig configures time-based rotation.
type TimeRotateConfig struct {
	MaxAge       int // retention in hours
	RotationTime int // rotation interval in hours
}

// SizeRotateConfig configures size-based rotation.
type SizeRotateConfig struct {
	MaxSize    int  // max file size in MB
	MaxBackups int  // number of old files to keep
	MaxAge     int  // retention in days
	Compress   bool // compress rotated files
}

// File creates a file output writer according to the rotate mode.
func File(config RotateConfig) (io.Writer, error) {
	switch config.Mode {
	case RotateModeTime:
		return timeRotateWriter(config)
	case RotateModeSize:
		return sizeRotateWriter(config)
	default:
		return nil, fmt.Errorf("unsupported rotate mode: %v", config.Mode)
	}
}

// timeRotateWriter builds a time-based rotating writer.
func timeRotateWriter(config RotateConfig) (io.Writer, error) {
	writer, err := rotatelogs.New(
		config.fileFullPathWithFormat("%Y%m%d%H%M"),
		rotatelogs.WithLinkName(config.fileFullPath()),
		rotatelogs.WithMaxAge(time.Duration(config.TimeRotateConfig.MaxAge)*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(config.TimeRotateConfig.RotationTime)*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create time rotate writer: %w", err)
	}
	return writer, nil
}

// sizeRotateWriter builds a size-based rotating writer.
func sizeRotateWriter(config RotateConfig) (io.Writer, error) {
	return &lumberjack.Logger{
		Filename:   config.fileFullPath(),
		MaxSize:    config.SizeRotateConfig.MaxSize,
		MaxBackups: config.SizeRotateConfig.MaxBackups,
		MaxAge:     config.SizeRotateConfig.MaxAge,
		Compress:   config.SizeRotateConfig.Compress,
	}, nil
}

// fileFullPath returns the full log file path.
func (c *RotateConfig) fileFullPath() string {
	return c.fileFullPathWithFormat("")
}

// fileFullPathWithFormat returns the full log file path with a format segment.
func (c *RotateConfig) fileFullPathWithFormat(format string) string {
	var builder strings.Builder

	builder.WriteString(c.Filename)
	if format != "" {
		builder.WriteByte('.')
		builder.WriteString(format)
	}
	builder.WriteByte('.')
	builder.WriteString(c.FileExt)

	return filepath.Join(c.Filepath, builder.String())
}
