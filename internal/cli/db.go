package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/swiftbase/swiftbase/internal/collections"
	"github.com/swiftbase/swiftbase/internal/database"
	"github.com/swiftbase/swiftbase/internal/query"
	"github.com/swiftbase/swiftbase/internal/realtime"
)

var dbFormat string

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Seed the database from a JSON or YAML file",
	Long: `Seed the database with documents from a JSON or YAML file.

The file should contain a map of collection names to arrays of
documents. Collections that don't already exist are created with an
empty schema.

Example JSON:
  {
    "products": [
      {"name": "Widget", "price": 9.99}
    ]
  }`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Dump all collections to a JSON or YAML file",
	Long:  `Export every collection's documents to a JSON or YAML file. Use --format to choose the output format (default json).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dbFormat, "format", "f", "json", "output format (json, yaml)")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(dumpCmd)
}

func openSeedServices() (*database.DB, *collections.Service, *query.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}

	hub := realtime.NewHub(nil)
	qsvc := query.NewService(db, hub, nil)
	csvc := collections.NewService(db, qsvc)

	return db, csvc, qsvc, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	seedFile := args[0]

	data, err := os.ReadFile(seedFile)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}

	seedData, err := parseSeedData(seedFile, data)
	if err != nil {
		return err
	}

	db, csvc, qsvc, err := openSeedServices()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	totalInserted := 0

	for collectionName, documents := range seedData {
		if _, err := csvc.Get(ctx, collectionName); err != nil {
			if _, createErr := csvc.Create(ctx, collections.CreateInput{Name: collectionName}); createErr != nil {
				return fmt.Errorf("creating collection %s: %w", collectionName, createErr)
			}
			log.Info().Str("collection", collectionName).Msg("created collection")
		}

		for _, doc := range documents {
			if _, err := qsvc.Execute(ctx, query.Request{
				Action:     query.ActionCreate,
				Collection: collectionName,
				Data:       doc,
			}); err != nil {
				return fmt.Errorf("inserting document into %s: %w", collectionName, err)
			}
			totalInserted++
		}

		log.Info().Str("collection", collectionName).Int("count", len(documents)).Msg("seeded collection")
	}

	fmt.Printf("✓ Seeded %d documents across %d collections\n", totalInserted, len(seedData))
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	outputFile := args[0]

	db, csvc, _, err := openSeedServices()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	cols, err := csvc.List(ctx, "")
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}

	dump := make(map[string][]database.Row)
	totalDocuments := 0

	for _, col := range cols {
		rows, queryErr := db.Query(`
			SELECT d.id, d.data, d.version, d.created_at, d.updated_at
			FROM _sb_documents d
			WHERE d.collection_id = ?
		`, col.ID)
		if queryErr != nil {
			log.Warn().Err(queryErr).Str("collection", col.Name).Msg("error querying collection")
			continue
		}

		documents, scanErr := database.ScanRows(rows)
		rows.Close()
		if scanErr != nil {
			return fmt.Errorf("scanning %s: %w", col.Name, scanErr)
		}

		if len(documents) > 0 {
			dump[col.Name] = documents
			totalDocuments += len(documents)
		}
	}

	var output []byte
	if dbFormat == "yaml" {
		output, err = yaml.Marshal(dump)
	} else {
		output, err = json.MarshalIndent(dump, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}

	if err := os.WriteFile(outputFile, output, 0o600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	fmt.Printf("✓ Dumped %d documents from %d collections to %s\n", totalDocuments, len(dump), outputFile)
	return nil
}

func parseSeedData(filename string, data []byte) (map[string][]map[string]any, error) {
	var seedData map[string][]map[string]any
	if isYAML(filename) {
		if err := yaml.Unmarshal(data, &seedData); err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &seedData); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	}
	return seedData, nil
}

func isYAML(filename string) bool {
	return hasSuffix(filename, ".yaml") || hasSuffix(filename, ".yml")
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
