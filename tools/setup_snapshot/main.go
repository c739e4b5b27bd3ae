package main

import (
	"flag"
	"os"
	"time"

	"github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"

	"github.com/vela-protocol/velazk"
)

func main() {
	paramsDir := flag.String("params", "params", "parameters directory to write")
	assetsDir := flag.String("assets", "assets", "assets directory to write")
	maxSteps := flag.Uint("max-steps", 1024, "step capacity of the transition circuit")
	capacity := flag.Uint("capacity", 8, "chunk capacity of the aggregation circuit")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
	logger.Set(log)

	start := time.Now()
	err := velazk.Setup(*paramsDir, *assetsDir, velazk.CircuitParams{
		MaxSteps: uint32(*maxSteps),
		Capacity: uint32(*capacity),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("setup failed")
	}
	log.Info().
		Dur("took", time.Since(start)).
		Str("params", *paramsDir).
		Str("assets", *assetsDir).
		Msg("snapshot written")
}
