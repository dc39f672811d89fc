package main

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/alecthomas/kong"

	"github.com/dukerupert/platescore/internal/catalog"
	"github.com/dukerupert/platescore/internal/cli"
	"github.com/dukerupert/platescore/internal/config"
	"github.com/dukerupert/platescore/internal/curation"
	"github.com/dukerupert/platescore/internal/database"
	"github.com/dukerupert/platescore/internal/food"
	"github.com/dukerupert/platescore/internal/logging"
	"github.com/dukerupert/platescore/internal/scoring"
	"github.com/dukerupert/platescore/internal/store"
)

var CLI struct {
	Version  kong.VersionFlag
	DB       string `help:"SQLite database path. Defaults to PLATESCORE_DB_PATH." type:"path"`
	Policy   string `help:"Scoring policy JSON file. Defaults to PLATESCORE_SCORING_POLICY." type:"existingfile"`
	Curation string `help:"Curation JSON file. Defaults to PLATESCORE_CURATION_FILE." type:"existingfile"`
	JSON     bool   `help:"Print JSON instead of text."`
	LogLevel string `help:"Log level." default:"warn" enum:"debug,info,warn,error"`

	Score      cli.ScoreCmd      `cmd:"" help:"Score a product read from a JSON file or stdin."`
	Search     cli.SearchCmd     `cmd:"" help:"Search the food catalog."`
	Lookup     cli.LookupCmd     `cmd:"" help:"Look a product up by barcode."`
	Categories cli.CategoriesCmd `cmd:"" help:"List curated categories."`
	Popular    cli.PopularCmd    `cmd:"" help:"List curated popular products."`
	Track      cli.TrackCmd      `cmd:"" help:"Log a consumption entry."`
	History    cli.HistoryCmd    `cmd:"" help:"Show a user's entries, newest first."`
	Untrack    cli.UntrackCmd    `cmd:"" help:"Delete a tracking entry."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("platectl"),
		kong.Description("Score foods and manage tracking entries from the command line."),
		kong.UsageOnError(),
		kong.Vars{"version": "v0.1.0"},
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if CLI.DB != "" {
		cfg.DBPath = CLI.DB
	}
	if CLI.Policy != "" {
		cfg.ScoringPolicy = CLI.Policy
	}
	if CLI.Curation != "" {
		cfg.CurationFile = CLI.Curation
	}
	logger := logging.Setup(CLI.LogLevel, "text")

	var db *sql.DB
	openStore := sync.OnceValues(func() (*store.TrackingStore, error) {
		var err error
		db, err = database.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return store.NewTrackingStore(db), nil
	})
	newService := sync.OnceValues(func() (*food.Service, error) {
		policy := scoring.DefaultPolicy()
		if cfg.ScoringPolicy != "" {
			var err error
			if policy, err = scoring.LoadPolicy(cfg.ScoringPolicy); err != nil {
				return nil, err
			}
		}
		scorer, err := scoring.New(policy)
		if err != nil {
			return nil, err
		}
		curated, err := curation.Load(cfg.CurationFile)
		if err != nil {
			return nil, err
		}
		catalogCfg := cfg.Catalog
		catalogCfg.RegionalCountry = curated.Region
		off := catalog.NewOpenFoodFacts(catalogCfg, logger.With("component", "catalog"))
		return food.NewService(off, scorer, curated, logger.With("component", "food")), nil
	})

	appCtx := &cli.Context{
		Out:     os.Stdout,
		In:      os.Stdin,
		JSON:    CLI.JSON,
		Service: newService,
		Store:   openStore,
	}

	err = kctx.Run(appCtx)
	if db != nil {
		db.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
