package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"viewership/internal/app"
	apperrors "viewership/internal/errors"
	"viewership/internal/services"
	"viewership/internal/validation"
	"viewership/pkg/contracts"
)

type uploadOutcome struct {
	File    string `json:"file"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.xlsx>...",
		Short: "Validate exports and copy them into the exports folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx := ctx.runContext(cmd)
			svc, err := ctx.corpusService()
			if err != nil {
				return err
			}
			files := validation.NewFileValidator(ctx.logger)

			outcomes := make([]uploadOutcome, 0, len(args))
			failed := 0
			for _, path := range args {
				outcome := uploadOne(runCtx, svc, files, path)
				if outcome.Status != "uploaded" {
					failed++
				}
				outcomes = append(outcomes, outcome)
			}

			if ctx.wantJSON(cmd) {
				if err := writeJSON(cmd, outcomes); err != nil {
					return err
				}
			} else {
				for _, o := range outcomes {
					fmt.Fprintln(cmd.OutOrStdout(), o.Message)
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d uploads failed", failed, len(args))
			}
			return nil
		},
	}
}

func uploadOne(ctx context.Context, svc *services.CorpusService, files *validation.FileValidator, path string) uploadOutcome {
	name := filepath.Base(path)
	if err := files.ValidateExcelFile(path); err != nil {
		return uploadOutcome{File: name, Status: "rejected", Message: err.Error()}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return uploadOutcome{File: name, Status: "failed", Message: err.Error()}
	}

	result, err := svc.Upload(ctx, name, data)
	switch {
	case err == nil:
		return uploadOutcome{File: name, Status: "uploaded", Message: result.Message}
	case apperrors.IsType(err, apperrors.ErrTypeConflict):
		return uploadOutcome{File: name, Status: "exists", Message: validation.Message(err)}
	case apperrors.IsType(err, apperrors.ErrTypeValidation):
		return uploadOutcome{File: name, Status: "rejected", Message: validation.Message(err)}
	default:
		return uploadOutcome{File: name, Status: "failed", Message: err.Error()}
	}
}

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and live updates over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if host != "" {
				cfg.Server.Host = host
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			slog.SetDefault(ctx.logger)
			runCtx := ctx.runContext(cmd)

			application, err := app.NewApplication(cfg, ctx.logger)
			if err != nil {
				return fmt.Errorf("initialize application: %w", err)
			}
			return application.Run(runCtx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return writeJSON(cmd, contracts.GetVersionInfo())
			}
			fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
			return nil
		},
	}
}
