package main

import (
	"fmt"
	"os"

	"github.com/Baryonic/aida/pkg/database"
	"github.com/Baryonic/aida/pkg/models"

	"github.com/spf13/cobra"
)

type SeedOptions struct {
	*RootOptions
	File string
}

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the catalog with the sample books",
		Long: `Replace the catalog with a seed set, in one transaction.

Without --file the built-in set of six books is used. Existing cart rows
disappear with the books they point at.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "YAML file with the books to load")

	return cmd
}

func runSeed(cmd *cobra.Command, opts *SeedOptions) error {
	books, err := loadSeedBooks(opts.File)
	if err != nil {
		return err
	}

	db, err := database.Open(opts.Config, opts.Log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := database.Seed(db, books); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d books\n", len(books))
	return nil
}

func loadSeedBooks(path string) ([]models.Book, error) {
	if path == "" {
		return database.DefaultSeed()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return database.LoadSeed(f)
}
