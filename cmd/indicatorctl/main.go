// Package main provides indicatorctl, the operator CLI for the ingestion pipeline
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/opendata-pt/indicator-hub/config"
	"github.com/opendata-pt/indicator-hub/extract"
	"github.com/opendata-pt/indicator-hub/models"
	"github.com/opendata-pt/indicator-hub/pipeline"
	"github.com/opendata-pt/indicator-hub/refdata"
	"github.com/opendata-pt/indicator-hub/repository"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "indicatorctl",
		Short: "Operate the Portuguese open indicators ingestion pipeline",
		Long: `indicatorctl drives the ingestion pipeline: it merges raw source files,
resolves geography, stages rows and promotes them into the warehouse
star schema. The API server only reads what this tool loads.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newPromoteCmd(),
		newFetchCmd(),
		newTruncateStagingCmd(),
		newTruncateAllCmd(),
		newMigrateCmd(),
	)
	return rootCmd
}

// newRunCmd runs the full pipeline for every source, or one source by code.
func newRunCmd() *cobra.Command {
	var sourceCode string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ingestion pipeline",
		Long: `Run merge, format, stage and promote for every configured source.
Sources are isolated failure domains: one failing source does not stop
the others.`,
		Example: `  # Run every source
  indicatorctl run

  # Run one source
  indicatorctl run --source eredes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			runner, err := env.newRunner()
			if err != nil {
				return err
			}
			if sourceCode != "" {
				return runner.RunSource(cmd.Context(), sourceCode)
			}
			return runner.RunAll(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&sourceCode, "source", "s", "", "Run a single source by code")
	return cmd
}

// newPromoteCmd promotes already-staged rows without re-reading files.
func newPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote",
		Short: "Promote staged rows into the warehouse",
		Long: `Promote every staged row into the dimension and fact tables.
Duplicate observations are skipped, so promote is safe to re-run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			stats, err := env.newPromoter().Promote(cmd.Context())
			if err != nil {
				return err
			}
			log.Printf("promoted %d rows: %d facts, %d duplicates skipped, %d bad values",
				stats.Rows, stats.Facts, stats.Duplicates, stats.BadValues)
			return nil
		},
	}
}

// newFetchCmd downloads raw files for a source into its raw directory.
func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <source> <url>...",
		Short: "Download raw files for a source",
		Long: `Download the given URLs into the source's raw directory using a
bounded worker pool with fixed retries. Failed URLs are reported but do
not abort the batch.`,
		Example: `  indicatorctl fetch eredes https://example.org/consumption.csv`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupConfigOnly()
			if err != nil {
				return err
			}

			downloads := make([]extract.Download, 0, len(args)-1)
			for _, url := range args[1:] {
				downloads = append(downloads, extract.Download{
					URL:      url,
					Filename: filepath.Base(url),
				})
			}

			downloader := extract.NewDownloader(
				extract.WithWorkers(env.cfg.Pipeline.DownloadWorkers),
				extract.WithRetries(env.cfg.Pipeline.DownloadRetries, env.cfg.Pipeline.RetryDelay),
			)
			rawDir := filepath.Join(env.cfg.Pipeline.DataDir, args[0], "raw")
			results, err := downloader.FetchAll(cmd.Context(), rawDir, downloads)
			if err != nil {
				return err
			}

			var failed int
			for _, res := range results {
				if res.Err != nil {
					failed++
				}
			}
			log.Printf("fetched %d/%d files into %s", len(results)-failed, len(results), rawDir)
			if failed > 0 {
				return fmt.Errorf("%d of %d downloads failed", failed, len(results))
			}
			return nil
		},
	}
}

// newTruncateStagingCmd empties the staging table.
func newTruncateStagingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "truncate-staging",
		Short: "Empty the staging table",
		Long: `Delete every staged row. Checkpoints are kept, so the next run
stages only rows newer than the per-file checkpoint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			staging := repository.NewStagingRepository(env.db)
			if err := staging.Truncate(cmd.Context()); err != nil {
				return err
			}
			log.Println("staging table truncated")
			return nil
		},
	}
}

// newTruncateAllCmd empties the warehouse, staging and checkpoint tables.
func newTruncateAllCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "truncate-all",
		Short: "Empty the warehouse, staging and checkpoint tables",
		Long: `Delete every warehouse, staging and checkpoint row. API user
accounts are kept. Requires --yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to truncate without --yes")
			}
			env, err := setup()
			if err != nil {
				return err
			}

			// Link tables before the rows they reference.
			tables := []string{
				"value_attributes",
				"data_values",
				"indicator_tags",
				"attributes",
				"tags",
				"indicators",
				"geodata",
				"geolevels",
				"nuts",
				"stg_records",
				"checkpoints",
			}
			return env.db.Transaction(func(tx *gorm.DB) error {
				for _, table := range tables {
					if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
						return fmt.Errorf("failed to truncate %s: %w", table, err)
					}
				}
				log.Println("warehouse truncated")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the truncation")
	return cmd
}

// newMigrateCmd creates or updates the database schema.
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			env, err := setup()
			if err != nil {
				return err
			}
			if err := env.db.AutoMigrate(
				&models.Nuts{},
				&models.GeoLevel{},
				&models.GeoData{},
				&models.Indicator{},
				&models.Tag{},
				&models.IndicatorTag{},
				&models.Attribute{},
				&models.DataValue{},
				&models.ValueAttribute{},
				&models.StagingRecord{},
				&models.Checkpoint{},
				&models.User{},
			); err != nil {
				return err
			}
			log.Println("schema migrated")
			return nil
		},
	}
}

// env carries everything a command needs after setup.
type env struct {
	cfg *config.Config
	db  *gorm.DB
}

func setupConfigOnly() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &env{cfg: cfg}, nil
}

func setup() (*env, error) {
	e, err := setupConfigOnly()
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch e.cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(e.cfg.Database.Path)
	default:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			e.cfg.Database.Host, e.cfg.Database.Port, e.cfg.Database.User,
			e.cfg.Database.Password, e.cfg.Database.Name, e.cfg.Database.SSLMode)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	e.db = db
	return e, nil
}

func (e *env) newPromoter() *pipeline.Promoter {
	return pipeline.NewPromoter(
		e.db,
		repository.NewStagingRepository(e.db),
		repository.NewNutsRepository(e.db),
		repository.NewGeoLevelRepository(e.db),
		repository.NewGeoDataRepository(e.db),
		repository.NewIndicatorRepository(e.db),
		repository.NewAttributeRepository(e.db),
		repository.NewTagRepository(e.db),
		repository.NewDataValueRepository(e.db),
	)
}

func (e *env) newRunner() (*pipeline.Runner, error) {
	dicofre, err := refdata.LoadDicofre(e.cfg.RefData.DicofrePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load dicofre table: %w", err)
	}
	zipcodes, err := refdata.LoadZipcodes(e.cfg.RefData.ZipcodesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load zipcode table: %w", err)
	}
	nutsTree, err := refdata.LoadNuts(e.cfg.RefData.NutsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load nuts tree: %w", err)
	}

	configs, err := pipeline.LoadSourceConfigs(e.cfg.Pipeline.SourceConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load source configs: %w", err)
	}

	return pipeline.NewRunner(
		e.db,
		pipeline.NewGeoResolver(dicofre, zipcodes, nutsTree),
		repository.NewStagingRepository(e.db),
		repository.NewCheckpointRepository(e.db),
		e.newPromoter(),
		configs,
		e.cfg.Pipeline.DataDir,
	), nil
}
