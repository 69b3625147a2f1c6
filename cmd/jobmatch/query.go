package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/jobmatch/internal/domain/job"
	"github.com/kailas-cloud/jobmatch/internal/domain/match/request"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Run a semantic job search and print JSON results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <userID>",
	Short: "Compute recommendations for a user and print JSON results",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecommend,
}

func init() {
	rootCmd.AddCommand(searchCmd, recommendCmd)
	addSearchFlags(searchCmd)

	rf := recommendCmd.Flags()
	rf.String("region", "", "region to recommend in (required)")
	rf.Int("limit", 0, "maximum results (0 = configured default)")
	_ = recommendCmd.MarkFlagRequired("region")
}

func addSearchFlags(c *cobra.Command) {
	f := c.Flags()
	f.String("region", "", "region to search in (required)")
	f.Int("limit", 0, "maximum results (0 = configured default)")
	f.Float64("threshold", 0, "minimum semantic similarity (omit for configured default)")
	f.String("job-type", "", "exact job type")
	f.String("experience-level", "", "exact experience level")
	f.Int("salary-min", 0, "postings must offer at least this minimum salary")
	f.Int("salary-max", 0, "postings must cap at or below this maximum salary")
	f.Bool("remote", false, "only remote (or with =false only on-site) postings")
	f.String("location", "", "case-insensitive location substring")
	_ = c.MarkFlagRequired("region")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, logger, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	req, err := searchRequestFromFlags(cmd, strings.Join(args, " "), searchLimits(cfg))
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.search.SearchJobs(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), results)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, logger, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	region, _ := cmd.Flags().GetString("region")
	limit, _ := cmd.Flags().GetInt("limit")
	req, err := request.NewRecommendation(args[0], region, limit, recommendationLimits(cfg))
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := a.recommend.GetJobRecommendations(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), recs)
}

// searchRequestFromFlags builds a search request. Only flags given on the
// command line become filter predicates or override the threshold.
func searchRequestFromFlags(cmd *cobra.Command, query string, lim request.SearchLimits) (request.Search, error) {
	flags := cmd.Flags()

	region, _ := flags.GetString("region")
	limit, _ := flags.GetInt("limit")

	var threshold *float64
	if flags.Changed("threshold") {
		v, _ := flags.GetFloat64("threshold")
		threshold = &v
	}

	var f job.Filter
	if flags.Changed("job-type") {
		v, _ := flags.GetString("job-type")
		f.JobType = &v
	}
	if flags.Changed("experience-level") {
		v, _ := flags.GetString("experience-level")
		f.ExperienceLevel = &v
	}
	if flags.Changed("salary-min") {
		v, _ := flags.GetInt("salary-min")
		f.SalaryMin = &v
	}
	if flags.Changed("salary-max") {
		v, _ := flags.GetInt("salary-max")
		f.SalaryMax = &v
	}
	if flags.Changed("remote") {
		v, _ := flags.GetBool("remote")
		f.Remote = &v
	}
	f.LocationContains, _ = flags.GetString("location")

	return request.NewSearch(query, region, f, limit, threshold, lim)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
