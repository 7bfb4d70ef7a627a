package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/preston-fay/televantage-copilot/churn"
	"github.com/preston-fay/televantage-copilot/copilot"
	"github.com/preston-fay/televantage-copilot/corpus"
	"github.com/preston-fay/televantage-copilot/planner"
	"github.com/preston-fay/televantage-copilot/retriever"
	"github.com/preston-fay/televantage-copilot/tools"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full answer as JSON")
	rootCmd.AddCommand(askCmd)
}

// newCopilot wires the full answering stack from the configuration.
func newCopilot(cmd *cobra.Command) (*copilot.Service, error) {
	ctx := cmd.Context()

	var searcher tools.Searcher
	if embedder, err := newEmbedder(ctx, cfg); err == nil {
		r := retriever.New(corpus.NewStore(cfg.Retrieval.CorpusPath), embedder)
		searcher = &boundedSearcher{r: r, topK: cfg.Retrieval.TopK, minScore: cfg.Retrieval.MinScore}
	}

	client, err := newLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	dataset := churn.DefaultDataset()
	registry := tools.DefaultRegistry(dataset, searcher)
	opts := []copilot.Option{}
	if client != nil {
		opts = append(opts,
			copilot.WithLLM(client),
			copilot.WithPlanner(planner.New(client, planner.WithTimeout(cfg.PlannerTimeout()))),
		)
	}
	return copilot.New(registry, dataset, opts...), nil
}

// boundedSearcher applies the configured retrieval defaults to every
// search the tools issue.
type boundedSearcher struct {
	r        *retriever.Retriever
	topK     int
	minScore float64
}

func (b *boundedSearcher) Retrieve(ctx context.Context, query string, opts retriever.Options) ([]retriever.Result, error) {
	if opts.TopK == 0 {
		opts.TopK = b.topK
	}
	if opts.MinScore == 0 {
		opts.MinScore = b.minScore
	}
	return b.r.Retrieve(ctx, query, opts)
}

func runAsk(cmd *cobra.Command, args []string) error {
	service, err := newCopilot(cmd)
	if err != nil {
		return err
	}
	answer := service.Ask(cmd.Context(), strings.Join(args, " "))

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	printAnswer(cmd, answer)
	return nil
}

func printAnswer(cmd *cobra.Command, a copilot.Answer) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, a.Text)
	if a.Chart != nil {
		fmt.Fprintf(out, "\n[%s chart] %s (%d points)\n", a.Chart.Kind, a.Chart.Title, len(a.Chart.Series[0].Data))
	}
	fmt.Fprintln(out, "\nSources:")
	for _, c := range a.Citations {
		fmt.Fprintf(out, "  - %s (%s)\n", c.Ref, c.Source)
	}
	fmt.Fprintln(out, "\nYou could also ask:")
	for _, f := range a.FollowUps {
		fmt.Fprintf(out, "  - %s\n", f)
	}
}
