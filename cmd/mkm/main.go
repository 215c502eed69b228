package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/marwy1000/mkmsearch/pkg/config"
	"github.com/marwy1000/mkmsearch/pkg/delay"
	"github.com/marwy1000/mkmsearch/pkg/query"
	"github.com/marwy1000/mkmsearch/pkg/reports"
	"github.com/marwy1000/mkmsearch/pkg/session"
)

var (
	cfgFile     string
	debug       bool
	searchFlags searchOptions
	logger      *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mkm",
	Short: "Download and search Cardmarket purchase reports",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := log.InfoLevel
		if debug {
			level = log.DebugLevel
		}
		logger = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "mkm",
			Level:           level,
		})
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download generated reports, skipping files already on disk",
	Long: "Downloads all reports that have been generated, skipping files already " +
		"present locally. Specify year and month to re-download a single report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		year, _ := cmd.Flags().GetInt("year")
		month, _ := cmd.Flags().GetInt("month")
		if (year == 0) != (month == 0) {
			return reports.ErrInput
		}

		orch, err := loginOrchestrator(cmd, cfg)
		if err != nil {
			return err
		}
		return orch.Download(cmd.Context(), year, month)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the downloaded purchase reports",
	Long: "Search and format the order details with optional filtering, sorting " +
		"and column selection.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		req := searchFlags.toRequest()
		if debug {
			logger.Debug("search request", "request", pp.Sprint(req))
		}

		engine := query.NewEngine(cfg.CSVDir, logger)
		result, err := engine.Run(req)
		if err != nil {
			return err
		}
		renderResult(os.Stdout, result)
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate-reports",
	Short: "Request report generation on the site for the selected months",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		var sel reports.Selection
		sel.All, _ = cmd.Flags().GetBool("all")
		sel.Year, _ = cmd.Flags().GetInt("year")
		sel.Month, _ = cmd.Flags().GetInt("month")
		sel.CurrentMonth, _ = cmd.Flags().GetBool("current-month")
		sel.PreviousMonth, _ = cmd.Flags().GetBool("previous-month")

		orch, err := loginOrchestrator(cmd, cfg)
		if err != nil {
			return err
		}
		return orch.Generate(cmd.Context(), sel)
	},
}

// loginOrchestrator builds the session, authenticates it and wires the
// orchestrator. A failed login aborts the run.
func loginOrchestrator(cmd *cobra.Command, cfg *config.Config) (*reports.Orchestrator, error) {
	policy := delay.New(cfg.DelayMin, cfg.DelayMax)

	sess, err := session.New(session.Options{
		BaseURL:      cfg.BaseURL,
		CookieFile:   cfg.CookieFile,
		Credentials:  &config.CredentialStore{Path: cfg.CredentialsFile},
		Delay:        policy,
		StartupDelay: time.Duration(cfg.StartupDelay * float64(time.Second)),
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	if err := sess.Login(cmd.Context()); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return reports.New(sess, policy, cfg.CSVDir, logger), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is mkmsearch.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	downloadCmd.Flags().IntP("year", "y", 0, "The year of the report to download")
	downloadCmd.Flags().IntP("month", "m", 0, "The month of the report to download")

	searchCmd.Flags().StringVarP(&searchFlags.productName, "product-name", "p", "", "The name of the product to search for")
	searchCmd.Flags().StringVarP(&searchFlags.setName, "set-name", "s", "", "The name of the set to filter for")
	searchCmd.Flags().StringVarP(&searchFlags.userName, "user-name", "u", "", "The user name of the seller")
	searchCmd.Flags().StringVarP(&searchFlags.dateOfPurchase, "date-of-purchase", "d", "",
		`The date of purchase as "YYYY-MM-DD". Prefix with ">" or "<" or type "YYYY-MM-DD to YYYY-MM-DD"`)
	searchCmd.Flags().BoolVarP(&searchFlags.foil, "foil", "f", false, "Show only foils")
	searchCmd.Flags().StringVar(&searchFlags.sortBy, "sort-by", query.DefaultSortColumn, "Column name to sort by (e.g. 'Product Name', 'Price')")
	searchCmd.Flags().BoolVar(&searchFlags.ascending, "ascending", false, "Sort in ascending order")
	searchCmd.Flags().StringVar(&searchFlags.displayColumns, "display-columns", query.DefaultDisplayColumns,
		"Presets: Limited, Standard, Extended, Modern or Legacy, or a comma-separated column list")
	searchCmd.Flags().IntVarP(&searchFlags.limit, "limit", "l", 100, "Limit the number of rows displayed")

	generateCmd.Flags().BoolP("all", "a", false, "Generate all reports")
	generateCmd.Flags().IntP("year", "y", 0, "Generate reports for this year")
	generateCmd.Flags().IntP("month", "m", 0, "In combination with year, limits report generation to this month")
	generateCmd.Flags().BoolP("current-month", "c", false, "Generate the report for the current month")
	generateCmd.Flags().BoolP("previous-month", "p", false, "Generate the report for the previous month")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	_ = gotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
