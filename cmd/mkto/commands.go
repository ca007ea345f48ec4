package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/natserract/mkto/pkg/config"
	"github.com/natserract/mkto/pkg/marketo"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errConfigLoad = errors.New("failed to load config")

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func newRootCmd(logger *zap.Logger, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "mkto",
		Short:         "Talk to the Marketo REST API with rate limiting and retries",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(out)
	root.AddCommand(newTokenCmd(logger), newGetCmd(logger))
	return root
}

func newClient(logger *zap.Logger) (*marketo.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", errConfigLoad, err)
	}
	return marketo.New(cfg, marketo.WithLogger(logger))
}

func newTokenCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Fetch an access token to verify the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient(logger)
			if err != nil {
				return err
			}
			resp, err := client.Authenticate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token_type=%s expires_in=%d access_token=%s\n",
				resp.TokenType, resp.ExpiresIn, mask(resp.AccessToken))
			return nil
		},
	}
}

type getResult struct {
	Path          string          `json:"path"`
	RequestID     string          `json:"requestId,omitempty"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
}

func newGetCmd(logger *zap.Logger) *cobra.Command {
	var (
		rawParams []string
		workers   int
	)

	cmd := &cobra.Command{
		Use:   "get PATH...",
		Short: "Issue GET requests through one shared client and print each result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			params, err := parseParams(rawParams)
			if err != nil {
				return err
			}
			if workers < 1 {
				return &usageError{msg: "--workers must be at least 1"}
			}

			client, err := newClient(logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			results := make([]getResult, len(paths))
			p := pool.New().WithMaxGoroutines(workers).WithErrors()
			for i, path := range paths {
				i, path := i, path // capture loop variables
				p.Go(func() error {
					resp, err := marketo.Get(ctx, client, path, nil, params, marketo.EnvelopeReader[json.RawMessage]{})
					if err != nil {
						logger.Error("GET failed", zap.String("path", path), zap.Error(err))
						return err
					}
					results[i] = getResult{
						Path:          path,
						RequestID:     resp.RequestID,
						NextPageToken: resp.NextPageToken,
						Result:        resp.Result,
					}
					return nil
				})
			}
			waitErr := p.Wait()

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range results {
				if r.Path == "" {
					continue
				}
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			if waitErr != nil {
				return configFirst(waitErr)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&rawParams, "param", nil, "query parameter as key=value (repeatable, order kept)")
	cmd.Flags().IntVar(&workers, "workers", 1, "number of concurrent requests")
	return cmd
}

// configFirst surfaces a configuration error ahead of data errors when a
// pool returned several.
func configFirst(err error) error {
	var authErr *marketo.AuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	return err
}

func parseParams(raw []string) (marketo.Params, error) {
	var params marketo.Params
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, &usageError{msg: fmt.Sprintf("invalid --param %q, want key=value", kv)}
		}
		params = params.Add(key, value)
	}
	return params, nil
}

func mask(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
