package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/jobatlas/jobatlas/internal/jobs"
	"github.com/jobatlas/jobatlas/internal/logger"
	"github.com/jobatlas/jobatlas/internal/matcher"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptExit           = "Exit"
	PromptReportBySource = "Report by source"
	PromptPostingsToFile = "Dump postings to file"
	PromptShowMatches    = "Show match breakdown"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptReportBySource, PromptPostingsToFile, PromptShowMatches, PromptExit},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the enabled job boards and print one merged, ranked list",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		search(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("location", "l", "", "location filter, e.g. 'berlin' or 'remote'")
	searchCmd.Flags().IntP("limit", "n", 0, "maximum postings to return (default 20, capped at 50)")
	searchCmd.Flags().StringSlice("sources", nil, "sources to query (default: all supported)")
	searchCmd.Flags().Bool("sequential", false, "query sources one by one instead of in parallel")
	searchCmd.Flags().Bool("fallback", false, "serve placeholder postings when every source comes up empty")
	searchCmd.Flags().Bool("all", false, "ignore the configured source list and query every supported board")
	searchCmd.Flags().StringP("profile", "p", "", "user profile file for the personalized match pass")
	searchCmd.Flags().BoolP("yes", "y", false, "print the results and exit without the action prompt")
	searchCmd.Flags().Int("min-salary", 0, "drop postings whose stated salary is below this")
	searchCmd.Flags().Bool("remote-only", false, "keep only postings marked remote")

	viper.BindPFlag("search.sources", searchCmd.Flags().Lookup("sources"))
	viper.BindPFlag("search.sequential", searchCmd.Flags().Lookup("sequential"))
	viper.BindPFlag("search.allow-fallback", searchCmd.Flags().Lookup("fallback"))
	viper.BindPFlag("matcher.profile-file", searchCmd.Flags().Lookup("profile"))
}

// search is the one-shot CLI search command.
func search(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting jobatlas", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	orch, err := buildOrchestrator(config, logger)
	if err != nil {
		logger.Fatal("building the orchestrator", zap.Error(err))
	}
	defer orch.Close()

	req := buildRequest(cmd, args, config)

	logger.Info("starting the search",
		zap.String("query", req.Query),
		zap.Strings("sources", req.Sources),
	)

	var result *jobs.SearchResult
	if cmd.Flag("all").Value.String() == "true" {
		result, err = orch.SearchAll(ctx, req)
	} else {
		result, err = orch.Search(ctx, req)
	}
	if err != nil {
		logger.Fatal("search failed", zap.Error(err))
	}

	for _, srcErr := range result.Errors {
		logger.Warn("source failed", zap.String("source", srcErr.Source), zap.String("error", srcErr.Message))
	}

	postings := &jobs.Postings{Items: result.CopyPostings()}

	profile, err := loadProfile(config)
	if err != nil {
		logger.Fatal("loading the user profile", zap.Error(err))
	}

	if profile != nil {
		m := buildMatcher(config, logger)
		postings.Items = m.Rescore(postings.Items, profile)
		logger.Info("personalized pass", zap.Int("kept", postings.Len()))
	}

	if postings.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no postings found"))
		return
	}

	printPostings(postings, profile != nil)

	if cmd.Flag("yes").Value.String() == "true" {
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, logger, postings); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// buildRequest merges positional args, flags and the config into one request.
// The orchestrator normalizes and validates it.
func buildRequest(cmd *cobra.Command, args []string, config *Config) *jobs.SearchRequest {
	req := &jobs.SearchRequest{
		Query:    strings.Join(args, " "),
		Location: cmd.Flag("location").Value.String(),
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit == 0 && config.Search != nil {
		limit = config.Search.Limit
	}
	req.Limit = limit

	if config.Search != nil {
		req.Sources = config.Search.Sources
		req.AllowFallback = config.Search.AllowFallback
	}
	if flagged, _ := cmd.Flags().GetStringSlice("sources"); len(flagged) > 0 {
		req.Sources = flagged
	}
	if fallback, _ := cmd.Flags().GetBool("fallback"); fallback {
		req.AllowFallback = true
	}

	minSalary, _ := cmd.Flags().GetInt("min-salary")
	remoteOnly, _ := cmd.Flags().GetBool("remote-only")
	req.Filters = jobs.Filters{
		MinSalary:  minSalary,
		RemoteOnly: remoteOnly,
	}

	return req
}

func loadProfile(config *Config) (*matcher.UserProfile, error) {
	path := viper.GetString("matcher.profile-file")
	if path == "" && config.Matcher != nil {
		path = config.Matcher.ProfileFile
	}
	if path == "" {
		return nil, nil
	}

	return matcher.LoadProfile(path)
}

func handleAction(action string, logger *zap.Logger, postings *jobs.Postings) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptReportBySource:
		pretty, _ := json.MarshalIndent(postings.ReportBySource(), "", "  ")
		logger.Info(string(pretty), zap.Int("postings count", postings.Len()))
		return nil
	case PromptPostingsToFile:
		filename, err := postings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptShowMatches:
		printMatches(postings)
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printPostings(postings *jobs.Postings, personalized bool) {
	for i, p := range postings.Items {
		score := p.Score
		if personalized && p.Match != nil {
			score = p.Match.Score
		}

		fmt.Printf("%2d. [%5.1f] %s / %s / %s (%s)\n",
			i+1, score, p.Title, p.Company, p.Location, p.Source,
		)
		if p.HasSalary() {
			fmt.Printf("    salary: %s\n", p.SalaryLabel())
		}
		fmt.Printf("    %s\n", p.SourceURL)
	}
}

func printMatches(postings *jobs.Postings) {
	for _, p := range postings.Items {
		if p.Match == nil {
			continue
		}

		fmt.Printf("%s / %s: %.1f\n", p.Title, p.Company, p.Match.Score)
		for _, reason := range p.Match.Reasons {
			fmt.Printf("  + %s\n", reason)
		}
		for _, hint := range p.Match.Improvements {
			fmt.Printf("  - %s\n", hint)
		}
	}
}
