package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/reportmate/comment-engine/internal/common"
	"github.com/reportmate/comment-engine/internal/store"
)

func main() {
	cfg := common.LoadConfig()
	dbPath := cfg.Store.Path
	if len(os.Args) >= 2 {
		dbPath = os.Args[1]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := store.OpenSQLite(ctx, dbPath, logger)
	if err != nil {
		log.Fatalf("opening state DB %s: %v", dbPath, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: closing state DB: %v", err)
		}
	}()

	if err := db.Ping(ctx); err != nil {
		log.Fatalf("state DB health: FAIL (%v)", err)
	}
	log.Println("state DB health: OK")

	st := store.NewStore(logger)
	if err := db.Load(ctx, st); err != nil {
		log.Fatalf("loading student results: %v", err)
	}

	log.Printf("student results count: %d", st.Len())
	for _, s := range st.List() {
		status := "no comment"
		if s.HasOutputText() {
			status = "comment present"
		} else if s.Output != nil && s.Output.ErrorMessage != "" {
			status = "last attempt failed"
		}
		log.Printf("- [%s] %s (%s): %s", s.Period, s.Label(), s.ID, status)
	}
}
