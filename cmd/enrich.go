package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm/internal/enrich"
	"github.com/sells-group/crm/internal/store"
)

var (
	enrichOwner    string
	enrichID       string
	enrichIDs      []string
	enrichProvider string
	enrichQuiet    bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich people and companies through an LLM provider",
}

var enrichPersonCmd = &cobra.Command{
	Use:   "person",
	Short: "Enrich one person",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnricher(cmd, false, func(ctx context.Context, svc *enrich.Service, events chan<- enrich.Event) error {
			_, _, err := svc.EnrichPerson(ctx, enrichOwner, enrichID, enrich.Kind(enrichProvider), events)
			return err
		})
	},
}

var enrichCompanyCmd = &cobra.Command{
	Use:   "company",
	Short: "Enrich one company",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnricher(cmd, false, func(ctx context.Context, svc *enrich.Service, events chan<- enrich.Event) error {
			_, _, err := svc.EnrichCompany(ctx, enrichOwner, enrichID, enrich.Kind(enrichProvider), events)
			return err
		})
	},
}

var enrichBulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Enrich many companies in batches",
	Long:  "Enriches the given --ids, or every company the owner has when none are given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withEnricher(cmd, true, func(ctx context.Context, svc *enrich.Service, events chan<- enrich.Event) error {
			sum, err := svc.BulkEnrich(ctx, enrichOwner, enrichIDs, enrich.Kind(enrichProvider), events)
			if err != nil {
				return err
			}
			zap.L().Info("bulk enrichment complete",
				zap.Int("succeeded", sum.Succeeded),
				zap.Int("failed", sum.Failed),
			)
			return nil
		})
	},
}

// withEnricher opens the store and runs fn while printing its events. With
// allIfEmpty and no --ids, every company of the owner is selected.
func withEnricher(cmd *cobra.Command, allIfEmpty bool, fn func(ctx context.Context, svc *enrich.Service, events chan<- enrich.Event) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := initStore(ctx, "enrich")
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if allIfEmpty && len(enrichIDs) == 0 {
		enrichIDs, err = allCompanyIDs(ctx, st, enrichOwner)
		if err != nil {
			return err
		}
		if len(enrichIDs) == 0 {
			return eris.Errorf("no companies found for owner %s", enrichOwner)
		}
	}

	svc := enrich.NewService(st, enrich.NewFactory(cfg), enrich.WithBatchSize(cfg.Enrich.BatchSize))
	return relayEvents(ctx, cmd.OutOrStdout(), !enrichQuiet, func(ctx context.Context, events chan<- enrich.Event) error {
		return fn(ctx, svc, events)
	})
}

// relayEvents runs fn and prints each event it sends until fn returns.
func relayEvents(ctx context.Context, out io.Writer, showReasoning bool, fn func(ctx context.Context, events chan<- enrich.Event) error) error {
	events := make(chan enrich.Event, 64)
	errc := make(chan error, 1)
	go func() {
		defer close(events)
		errc <- fn(ctx, events)
	}()
	for ev := range events {
		printEvent(out, ev, showReasoning)
	}
	return <-errc
}

func printEvent(out io.Writer, ev enrich.Event, showReasoning bool) {
	switch ev.Type {
	case enrich.EventReasoning:
		if showReasoning {
			fmt.Fprint(out, ev.Text)
		}
	case enrich.EventResult:
		data, _ := json.MarshalIndent(ev.Enriched, "", "  ")
		fmt.Fprintf(out, "\n%s\n", data)
	case enrich.EventBatchItem:
		status := "ok"
		if !ev.Success {
			status = "failed"
		}
		fmt.Fprintf(out, "\n%s %s\n", ev.ID, status)
	case enrich.EventDone:
		fmt.Fprintf(out, "\nsucceeded %d, failed %d\n", ev.Succeeded, ev.Failed)
	case enrich.EventError:
		fmt.Fprintf(out, "\nerror: %s\n", ev.Message)
	}
}

func allCompanyIDs(ctx context.Context, st store.Store, owner string) ([]string, error) {
	const page = 500
	var ids []string
	for offset := 0; ; offset += page {
		companies, err := st.ListCompanies(ctx, owner, store.ListFilter{Limit: page, Offset: offset})
		if err != nil {
			return nil, eris.Wrap(err, "list companies")
		}
		for _, c := range companies {
			ids = append(ids, c.ID)
		}
		if len(companies) < page {
			return ids, nil
		}
	}
}

func init() {
	for _, c := range []*cobra.Command{enrichPersonCmd, enrichCompanyCmd, enrichBulkCmd} {
		c.Flags().StringVar(&enrichOwner, "owner", "", "owner id (required)")
		c.Flags().StringVar(&enrichProvider, "provider", "", "openai, anthropic, perplexity or exa (default from config)")
		c.Flags().BoolVar(&enrichQuiet, "quiet", false, "hide streamed reasoning")
		_ = c.MarkFlagRequired("owner")
	}
	for _, c := range []*cobra.Command{enrichPersonCmd, enrichCompanyCmd} {
		c.Flags().StringVar(&enrichID, "id", "", "record id (required)")
		_ = c.MarkFlagRequired("id")
	}
	enrichBulkCmd.Flags().StringSliceVar(&enrichIDs, "ids", nil, "company ids, comma separated (default all)")

	enrichCmd.AddCommand(enrichPersonCmd, enrichCompanyCmd, enrichBulkCmd)
	rootCmd.AddCommand(enrichCmd)
}
