package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/pemrank"
	apiv1 "github.com/kailas-cloud/pemrank/pkg/api/v1"
)

type rankOptions struct {
	server      string
	apiKey      string
	calibration string
	concurrency int
	timeout     time.Duration
	pretty      bool
}

// rankFunc ranks one raw request body.
type rankFunc func(ctx context.Context, body []byte) (*apiv1.RankResponse, error)

func newRankCmd() *cobra.Command {
	opts := &rankOptions{}
	cmd := &cobra.Command{
		Use:   "rank FILE...",
		Short: "Rank request files (use - for stdin)",
		Long: "Ranks each RankRequest JSON file and prints one JSON response per file, in argument order. " +
			"Without --server the engine runs in process.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRank(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.server, "server", "s", "", "pemrank server URL; empty ranks in process")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "Bearer token for --server (default $PEMRANK_API_KEY)")
	cmd.Flags().StringVarP(&opts.calibration, "calibration", "c", "", "calibration YAML for in-process ranking")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", runtime.NumCPU(), "files ranked in parallel")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-request timeout for --server")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	return cmd
}

func runRank(ctx context.Context, stdin io.Reader, out io.Writer, opts *rankOptions, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.concurrency < 1 {
		return fmt.Errorf("--concurrency must be >= 1, got %d", opts.concurrency)
	}

	rank, closeFn, err := newRankFunc(opts)
	if err != nil {
		return err
	}
	defer closeFn()

	bodies := make([][]byte, len(files))
	for i, f := range files {
		b, err := readInput(stdin, f)
		if err != nil {
			return err
		}
		bodies[i] = b
	}

	results := make([]*apiv1.RankResponse, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i := range bodies {
		i := i
		g.Go(func() error {
			resp, err := rank(gCtx, bodies[i])
			if err != nil {
				return fmt.Errorf("%s: %w", files[i], err)
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

func newRankFunc(opts *rankOptions) (rankFunc, func(), error) {
	if opts.server != "" {
		if opts.calibration != "" {
			return nil, nil, fmt.Errorf("--calibration applies to in-process ranking only; the server uses its own")
		}
		rc := newRemoteClient(opts.server, opts.apiKey, opts.timeout)
		return rc.Rank, func() {}, nil
	}

	client, err := pemrank.New(pemrank.WithCalibrationFile(opts.calibration))
	if err != nil {
		return nil, nil, err
	}
	local := func(ctx context.Context, body []byte) (*apiv1.RankResponse, error) {
		req, err := client.DecodeRequest(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		return client.Rank(ctx, req)
	}
	return local, client.Close, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}
