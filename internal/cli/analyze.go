package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wikilens/wikilens/internal/extract"
	"github.com/wikilens/wikilens/internal/llm"
	"github.com/wikilens/wikilens/internal/model"
	"github.com/wikilens/wikilens/internal/pipeline"
)

var (
	paragraphIdx int
	outJSON      string
	outMD        string
	runTimeout   time.Duration
	wikiBase     string
	llmProvider  string
	llmModel     string
	llmBaseURL   string
	noRobots     bool
	noFooter     bool
	insecureTLS  bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <article-title>",
	Short: "Analyze one paragraph of a Wikipedia article",
	Long: `Analyze fetches a Wikipedia article, takes one paragraph, and runs
the full factuality and bias analysis over it:
- Split the paragraph into claims and map citation markers to them
- Fetch every cited source, with per-domain rate limiting and retries
- Score source quality and cluster non-independent sources
- Verify each claim against its sources with a language model
- Scan the prose for biased spans
- Aggregate factuality, bias, and political-alignment scores

Example:
  wikilens analyze "Suez Crisis" --paragraph 2
  wikilens analyze Laksa --json report.json --md report.md
  wikilens analyze Laksa --llm-provider ollama --llm-model llama3.1:8b`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().IntVarP(&paragraphIdx, "paragraph", "p", 0, "zero-based paragraph index")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	analyzeCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "overall run timeout")
	analyzeCmd.Flags().StringVar(&wikiBase, "wiki", "https://en.wikipedia.org", "wiki base URL")
	analyzeCmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, ollama, lmstudio)")
	analyzeCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	analyzeCmd.Flags().StringVar(&llmBaseURL, "llm-base-url", "", "OpenAI-compatible endpoint override")
	analyzeCmd.Flags().BoolVar(&noRobots, "no-robots", false, "ignore robots.txt when fetching sources")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	analyzeCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	title := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyAnalyzeFlags(cfg)

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if verbose {
		fmt.Fprintf(os.Stderr, "Fetching %q from %s\n", title, wikiBase)
	}

	wiki := extract.NewWikiClient(wikiBase, cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	page, err := wiki.Page(ctx, title)
	if err != nil {
		return fmt.Errorf("fetch article: %w", err)
	}
	if paragraphIdx < 0 || paragraphIdx >= len(page.Paragraphs) {
		return fmt.Errorf("paragraph %d out of range: article has %d paragraphs", paragraphIdx, len(page.Paragraphs))
	}
	paragraph := page.Paragraphs[paragraphIdx]
	paragraph.PageURL = page.URL

	report, err := pipeline.New(cfg, provider, log).Analyze(ctx, &paragraph)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)

	if outJSON != "" {
		data, err := renderer.JSON(report)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outJSON, data, 0644); err != nil {
			return fmt.Errorf("write JSON report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", outJSON)
	}
	if outMD != "" {
		if err := os.WriteFile(outMD, []byte(renderer.Markdown(report)), 0644); err != nil {
			return fmt.Errorf("write Markdown report: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", outMD)
	}

	fmt.Print(renderer.Summary(report))
	return nil
}

// loadConfig layers the config file and environment over the defaults.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// applyAnalyzeFlags lets flags win over file and environment.
func applyAnalyzeFlags(cfg *model.Config) {
	cfg.HTTP.InsecureTLS = cfg.HTTP.InsecureTLS || insecureTLS
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
	if noRobots {
		cfg.Fetch.RespectRobots = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if llmBaseURL != "" {
		cfg.LLM.BaseURL = llmBaseURL
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}
