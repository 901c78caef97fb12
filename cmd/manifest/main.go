// Command manifest builds and inspects the object manifest served to the feed.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/artdiscover/artdiscover-server/internal/config"
	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/logger"
	"github.com/artdiscover/artdiscover-server/internal/manifest"
	"github.com/artdiscover/artdiscover-server/internal/metmuseum"
	"github.com/artdiscover/artdiscover-server/internal/universe"
)

var logLevel string

func main() {
	rootCmd := &cobra.Command{
		Use:           "manifest",
		Short:         "Build and inspect the artwork manifest",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(filterCmd())
	rootCmd.AddCommand(statsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	return logger.New(logger.Config{Level: logger.ParseLevel(logLevel), Writer: os.Stderr}).Logger
}

func readManifest(ctx context.Context, path string) ([]domain.UniverseRecord, error) {
	data, err := universe.FileSource(path).Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return universe.Parse(data)
}

func filterCmd() *cobra.Command {
	var (
		in, out, checkpoint string
		baseURL             string
		workers, chunk      int
		rps                 float64
		timeout             time.Duration
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Keep only objects that have a primary image",
		Long: "Looks every object of --in up in the collection API and writes the ones\n" +
			"with a primary image to --out. Progress is saved after every chunk;\n" +
			"rerunning the same command resumes where it stopped.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := newLogger()

			records, err := readManifest(ctx, in)
			if err != nil {
				return err
			}

			client, err := metmuseum.New(metmuseum.Options{
				BaseURL:  baseURL,
				Timeout:  timeout,
				RPS:      rps,
				Burst:    workers,
				CacheTTL: -1,
			}, log)
			if err != nil {
				return err
			}
			defer client.Close()

			if checkpoint == "" {
				checkpoint = out + ".checkpoint"
			}

			start := time.Now()
			kept, err := manifest.Filter(ctx, records, client, manifest.Options{
				Workers:    workers,
				ChunkSize:  chunk,
				Checkpoint: checkpoint,
				Logger:     log,
				Progress: func(done, total, kept int) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Processed %d/%d, kept %d\n", done, total, kept)
				},
			})
			if err != nil {
				return err
			}

			if err := manifest.WriteRecords(out, kept); err != nil {
				return err
			}
			if err := os.Remove(checkpoint); err != nil && !os.IsNotExist(err) {
				log.Warn("failed to remove checkpoint", "path", checkpoint, "error", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Total artworks processed: %d\n", len(records))
			fmt.Fprintf(cmd.OutOrStdout(), "Total artworks with images saved: %d\n", len(kept))
			fmt.Fprintf(cmd.OutOrStdout(), "Took %s\n", time.Since(start).Round(time.Second))
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", "all_objects.json", "raw manifest to filter")
	cmd.Flags().StringVar(&out, "out", config.DefaultManifestFile, "filtered manifest to write")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "resume file (default: <out>.checkpoint)")
	cmd.Flags().StringVar(&baseURL, "collection-url", metmuseum.DefaultBaseURL, "collection API base URL")
	cmd.Flags().IntVar(&workers, "workers", 30, "concurrent lookups")
	cmd.Flags().IntVar(&chunk, "chunk", 50000, "records per checkpointed chunk")
	cmd.Flags().Float64Var(&rps, "rps", 80, "lookups per second")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "per-lookup timeout")

	return cmd
}

func statsCmd() *cobra.Command {
	var in string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize a manifest per department",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := readManifest(cmd.Context(), in)
			if err != nil {
				return err
			}

			st := manifest.Summarize(records)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Records:  %d\n", st.Total)
			fmt.Fprintf(w, "Distinct: %d\n", st.Distinct)
			fmt.Fprintln(w)
			for _, d := range st.Departments {
				fmt.Fprintf(w, "  %3d  %-22s %8d\n", d.ID, d.Name, d.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in, "in", config.DefaultManifestFile, "manifest to summarize")

	return cmd
}
