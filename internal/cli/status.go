package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/provenly/resilience/internal/core/config"
	"github.com/provenly/resilience/internal/core/domain"
	"github.com/provenly/resilience/internal/resilience/manager"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show failed-operation counts and circuit breaker states",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	url := fmt.Sprintf("http://localhost:%d/stats", cfg.Server.Port)
	resp, err := client.Get(url)
	if err != nil {
		slog.Error("Failed to reach admin API", "url", url, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var stats manager.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		slog.Error("Failed to decode stats", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Dead-lettered operations: %d\n\n", stats.TotalFailed)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "OPERATION\tBREAKER")

	names := make([]string, 0, len(stats.CircuitBreakerStates))
	for name := range stats.CircuitBreakerStates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", name, stats.CircuitBreakerStates[name])
	}
	_ = w.Flush()

	if len(stats.ByType) > 0 {
		fmt.Println()
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
		_, _ = fmt.Fprintln(tw, "KIND\tFAILED")
		kinds := make([]string, 0, len(stats.ByType))
		for kind := range stats.ByType {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			_, _ = fmt.Fprintf(tw, "%s\t%d\n", kind, stats.ByType[domain.OperationKind(kind)])
		}
		_ = tw.Flush()
	}
}
