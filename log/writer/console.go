package writer

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Console creates a console output writer.
func Console() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         os.Stdout,
		TimeFormat:  time.DateTime,
		FormatLevel: formatLevel,
	}
}

// formatLevel formats the level column.
func formatLevel(i any) string {
	return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
}
