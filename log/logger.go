package log

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/kochabx/authguard/log/writer"
)

// Logger wraps zerolog with writer lifecycle management.
type Logger struct {
	zerolog.Logger
	writer io.Writer
	closer io.Closer
}

func init() {
	zerolog.TimeFieldFormat = time.DateTime
}

// Close releases writer resources held by the logger.
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// newLogger builds a Logger on top of the given writer.
func newLogger(w io.Writer) *Logger {
	return &Logger{
		writer: w,
		Logger: zerolog.New(w).With().Timestamp().Logger(),
	}
}

// New creates a Logger writing to the console.
func New() *Logger {
	return newLogger(writer.Console())
}

// FileConfig configures file log output.
type FileConfig struct {
	Filepath         string `json:"filepath"`
	Filename         string `json:"filename"`
	FileExt          string `json:"fileExt"`
	RotateMode       writer.RotateMode
	RotatelogsConfig writer.TimeRotateConfig
	LumberjackConfig writer.SizeRotateConfig
}

// toWriterConfig converts the file config to a writer.RotateConfig.
func (c *FileConfig) toWriterConfig() writer.RotateConfig {
	if c.Filepath == "" {
		c.Filepath = "log"
	}
	if c.Filename == "" {
		c.Filename = "authguard"
	}
	if c.FileExt == "" {
		c.FileExt = "log"
	}
	return writer.RotateConfig{
		Filepath:         c.Filepath,
		Filename:         c.Filename,
		FileExt:          c.FileExt,
		Mode:             c.RotateMode,
		TimeRotateConfig: c.RotatelogsConfig,
		SizeRotateConfig: c.LumberjackConfig,
	}
}

// NewFile creates a Logger writing to a rotating file.
func NewFile(c FileConfig) (*Logger, error) {
	w, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	logger := newLogger(w)
	if closer, ok := w.(io.Closer); ok {
		logger.closer = closer
	}

	return logger, nil
}

// NewMulti creates a Logger writing to both a rotating file and the console.
func NewMulti(c FileConfig) (*Logger, error) {
	fw, err := writer.File(c.toWriterConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	multi := zerolog.MultiLevelWriter(fw, writer.Console())
	logger := newLogger(multi)
	if closer, ok := fw.(io.Closer); ok {
		logger.closer = closer
	}

	return logger, nil
}
