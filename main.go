// main.go
//
// Lexica server entrypoint.
// Responsibilities:
//   - Load .env configuration and set the global log level.
//   - Load the vocabulary and definition corpus.
//   - Build the similarity oracle (optional; definition and hangman games
//     still run without it).
//   - Open the SQLite store (falls back to memory), restore persisted
//     rooms, and start the idle-room sweeper.
//   - Wire the room manager, broadcast hub and HTTP server.
//
// Environment:
//   PORT              listen port              (default 5175)
//   DB_PATH           sqlite file path         (default ./data/lexica.db)
//   DAILY_SALT        daily-word seed salt     (default dev value)
//   LOG_LEVEL         zerolog level            (default info)
//   CLIENT_ORIGIN     allowed CORS origin      (default http://localhost:5173)
//   ROOM_TTL_MINUTES  idle room eviction TTL   (default 120)
//   WORDS_VOCAB_FILE  vocabulary override file (default embedded list)

package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbriand/lexica/internal/game"
	"github.com/mbriand/lexica/internal/httpserver"
	"github.com/mbriand/lexica/internal/hub"
	"github.com/mbriand/lexica/internal/oracle"
	"github.com/mbriand/lexica/internal/room"
	"github.com/mbriand/lexica/internal/store"
	"github.com/mbriand/lexica/internal/words"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("load word corpus")
	}
	vocabCount, defCount := words.Stats()
	log.Info().Int("vocab", vocabCount).Int("definitions", defCount).Msg("word corpus loaded")

	// A missing oracle disables the similarity-based variants only.
	var orc oracle.Oracle
	if o, err := oracle.NewVectorOracle(words.Vocabulary()); err != nil {
		log.Warn().Err(err).Msg("similarity oracle unavailable, semantic and intruder games disabled")
	} else {
		orc = o
	}

	deps := game.Deps{
		Oracle:      orc,
		Definitions: game.NewStaticDefinitions(),
		DailySalt:   getEnv("DAILY_SALT", "lexica-dev-salt"),
	}

	st, err := store.OpenSQLite(getEnv("DB_PATH", "./data/lexica.db"))
	if err != nil {
		log.Warn().Err(err).Msg("sqlite unavailable, rooms will not survive restarts")
		st = store.NewMemoryStore()
	}
	defer st.Close()

	ttlMinutes, err := strconv.Atoi(getEnv("ROOM_TTL_MINUTES", "120"))
	if err != nil || ttlMinutes <= 0 {
		ttlMinutes = 120
	}

	rooms := room.NewManager(deps, st, time.Duration(ttlMinutes)*time.Minute)
	if err := rooms.LoadPersisted(context.Background()); err != nil {
		log.Warn().Err(err).Msg("restore persisted rooms")
	}
	rooms.StartSweep(time.Minute)
	defer rooms.Close()

	srv := httpserver.New(rooms, hub.New(), orc != nil)

	addr := ":" + getEnv("PORT", "5175")
	log.Info().Str("addr", addr).Int("rooms", rooms.Count()).Msg("lexica server listening")
	if err := srv.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// getEnv returns the environment value for key or def when unset.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
