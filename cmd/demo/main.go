package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/shop-ledger/internal/config"
	"github.com/dvloznov/shop-ledger/internal/infra/memory"
	infraMongo "github.com/dvloznov/shop-ledger/internal/infra/mongo"
	"github.com/dvloznov/shop-ledger/internal/ledger"
	"github.com/dvloznov/shop-ledger/internal/logger"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	uri := fs.String("uri", "", "MongoDB connection string (default: $SHOPLEDGER_URI or the local replica set)")
	dbName := fs.String("db", "", "database name (default: $SHOPLEDGER_DB or \"shopledger\")")
	useMemory := fs.Bool("memory", false, "run against the in-memory store instead of MongoDB")
	reset := fs.Bool("reset", false, "delete all documents from both collections before running")
	noPause := fs.Bool("no-pause", false, "skip the final wait for Enter")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Parse(os.Args[1:])

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := logger.NewWithLevel(level)

	cfg := config.FromEnv()
	if *uri != "" {
		cfg.URI = *uri
	}
	if *dbName != "" {
		cfg.Database = *dbName
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	ctx := logger.WithContext(context.Background(), log)

	var store ledger.Store
	if *useMemory {
		log.Info().Msg("using in-memory store")
		store = memory.NewStore()
	} else {
		ms, err := infraMongo.Connect(ctx, cfg)
		if err != nil {
			log.Error().Err(err).Str("uri", cfg.URI).Msg("cannot reach the replica set")
			return 1
		}
		defer func() {
			if err := ms.Close(ctx); err != nil {
				log.Warn().Err(err).Msg("disconnect failed")
			}
		}()
		log.Info().Str("db", cfg.Database).Msg("connected")
		store = ms
	}

	if *reset {
		if err := resetCollections(ctx, store); err != nil {
			log.Error().Err(err).Msg("reset failed")
			return 1
		}
		log.Info().Msg("collections cleared")
	}

	runner := ledger.NewRunner(store, log, os.Stdout)
	verifier := ledger.NewVerifier(store, os.Stdout)

	code := 0

	fmt.Println("== success path: reconcile account and purchases in one transaction ==")
	if _, err := runner.RunSuccessScenario(ctx); err != nil {
		reportFailure(log, err)
		code = 1
	}
	if err := verifier.Report(ctx); err != nil {
		reportFailure(log, err)
		code = 1
	}

	fmt.Println("== failure path: business rule forces a rollback ==")
	if err := runner.RunFailureScenario(ctx); err != nil {
		reportFailure(log, err)
		code = 1
	}
	if err := verifier.Report(ctx); err != nil {
		reportFailure(log, err)
		code = 1
	}

	if !*noPause {
		fmt.Print("Press Enter to exit... ")
		bufio.NewReader(os.Stdin).ReadString('\n')
	}
	return code
}

func resetCollections(ctx context.Context, store ledger.Store) error {
	if err := store.Accounts().DeleteAll(ctx); err != nil {
		return err
	}
	return store.Purchases().DeleteAll(ctx)
}

// reportFailure logs the primary message with its wrapped cause and
// classifies the error so the operator knows what a production caller would
// do next. The process still reaches the normal exit path.
func reportFailure(log zerolog.Logger, err error) {
	ev := log.Error().Err(err)
	switch {
	case errors.Is(err, ledger.ErrSessionUnavailable):
		ev.Msg("no healthy member reachable; run terminated")
	case errors.Is(err, ledger.ErrCommitFailed):
		ev.Bool("transient", infraMongo.IsTransient(err)).
			Msg("commit rejected; a production caller would retry the whole transaction body")
	default:
		ev.Msg("store operation failed")
	}
}
