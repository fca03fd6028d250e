package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hebrew-tools/nakdan/internal/service"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running server",
	Long: `Fetch /api/status from a running nakdan server and print it.

Examples:
  nakdan status
  nakdan status --addr http://10.0.0.5:8080`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var (
	statusAddr string
	statusJSON bool
)

func init() {
	statusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:8080", "server base URL")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the raw JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	view, err := fetchStatus(ctx, http.DefaultClient, statusAddr)
	if err != nil {
		return err
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "State:\t%s\n", view.State)
	fmt.Fprintf(w, "Requests:\t%d (%d failed)\n", view.TotalRequests, view.FailedRequests)
	fmt.Fprintf(w, "Success rate:\t%s\n", view.SuccessRate)
	fmt.Fprintf(w, "Last update:\t%s\n", view.LastUpdate)
	fmt.Fprintf(w, "Last text:\t%s\n", view.LastText)
	fmt.Fprintf(w, "Last result:\t%s\n", view.LastResult)
	if view.LastError != "" {
		fmt.Fprintf(w, "Last error:\t%s\n", view.LastError)
	}
	fmt.Fprintf(w, "Cache:\t%d entries (%d valid, %d expired)\n",
		view.CacheTotalEntries, view.CacheValidEntries, view.CacheExpiredEntries)
	fmt.Fprintf(w, "Max size:\t%s\n", view.MaxCacheSize)
	fmt.Fprintf(w, "Expiry:\t%s (enabled: %v)\n", view.CacheDuration, view.EnableCacheTimeout)
	return w.Flush()
}

func fetchStatus(ctx context.Context, hc *http.Client, addr string) (*service.StatusView, error) {
	url := strings.TrimSuffix(addr, "/") + "/api/status"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching status: unexpected status %d", resp.StatusCode)
	}

	var view service.StatusView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &view, nil
}
