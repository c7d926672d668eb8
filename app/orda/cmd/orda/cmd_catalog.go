package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iWorld-y/orda/app/orda/internal/biz"
	"github.com/iWorld-y/orda/app/orda/internal/data"
	"github.com/iWorld-y/orda/app/orda/internal/server"
	"github.com/iWorld-y/orda/app/orda/pkg/cache"
	"github.com/iWorld-y/orda/app/orda/pkg/engine"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the industry and past issue catalogs",
}

var (
	importIndustries string
	importPastIssues string
)

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Load catalog CSV files into PostgreSQL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bc, closeConf, err := loadBootstrap()
		if err != nil {
			return err
		}
		defer closeConf()

		logger := newLogger()
		d, cleanup, err := data.NewData(bc.Data, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		paths := server.NewImportPaths(bc.Pipeline)
		if importIndustries != "" {
			paths.Industries = importIndustries
		}
		if importPastIssues != "" {
			paths.PastIssues = importPastIssues
		}

		uc := biz.NewCatalogUseCase(data.NewCatalogRepo(d, logger), logger)
		res, err := uc.ImportFiles(cmd.Context(), paths.Industries, paths.PastIssues)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d industries, %d past issues\n", res.Industries, res.PastIssues)
		return nil
	},
}

var catalogIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the catalogs and upsert them into the vector index",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bc, closeConf, err := loadBootstrap()
		if err != nil {
			return err
		}
		defer closeConf()

		logger := newLogger()
		d, cleanup, err := data.NewData(bc.Data, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		comps, cleanupPipeline, err := server.NewPipeline(bc.Pipeline, d, cache.NewMemory(0), nil, nil, logger)
		if err != nil {
			return err
		}
		defer cleanupPipeline()

		n, err := engine.IndexCatalogs(cmd.Context(), comps.Index, comps.Industries, comps.PastIssues)
		if err != nil {
			return err
		}
		st, err := comps.Index.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents (total %d, dimension %d)\n", n, st.Total, st.Dimension)
		return nil
	},
}

func init() {
	catalogImportCmd.Flags().StringVar(&importIndustries, "industries", "", "industries CSV (defaults to pipeline.catalog.industries_csv)")
	catalogImportCmd.Flags().StringVar(&importPastIssues, "past-issues", "", "past issues CSV (defaults to pipeline.catalog.past_issues_csv)")
	catalogCmd.AddCommand(catalogImportCmd, catalogIndexCmd)
}
