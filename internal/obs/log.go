// Package obs bootstraps the process-wide zerolog logger.
package obs

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init wires zerolog's global logger to a console writer and sets the level
// based on the gin-style mode string ("release" vs anything else).
func Init(ginMode string) {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	if ginMode == "release" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// Room returns a child logger pre-tagged with the room's code so every line
// it emits is scoped without passing the code around separately.
func Room(code string) zerolog.Logger {
	return log.With().Str("room", code).Logger()
}
