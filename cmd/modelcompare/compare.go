package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sipeed/modelcompare/pkg/config"
	"github.com/sipeed/modelcompare/pkg/logging"
	"github.com/sipeed/modelcompare/pkg/modelcaller/openaicompat"
	"github.com/sipeed/modelcompare/pkg/modelcompare"
)

func newCompareCommand() *cobra.Command {
	var question string
	var files []string

	cmd := &cobra.Command{
		Use:   "compare [workspace]",
		Short: "Run a single comparison across the configured candidate models",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := args[0]
			if question == "" {
				return fmt.Errorf("--question is required")
			}
			out := runCompare(cmd.Context(), workspace, question, files)
			return json.NewEncoder(os.Stdout).Encode(out)
		},
	}
	cmd.Flags().StringVar(&question, "question", "", "question to dispatch to every candidate")
	cmd.Flags().StringSliceVar(&files, "file", nil, "explicit workspace-relative file to include in the context pack")
	return cmd
}

// runCompare builds a single CompareRequest from on-disk configuration and
// the process environment and runs it to completion. Every invocation gets
// its own correlation id (google/uuid) for log correlation; the core itself
// carries no state across runs.
func runCompare(ctx context.Context, workspace, question string, files []string) modelcompare.CompareRuntimeOutput {
	runID := uuid.NewString()
	logging.Info("compare run starting", "run_id", runID, "workspace", workspace)

	fileCfg, err := config.Load(configPath)
	if err != nil {
		logging.Warn("falling back to defaults: config load failed", "run_id", runID, "error", err.Error())
	}

	rawCandidates := make([]modelcompare.RawCandidate, 0, len(fileCfg.MultiModel.Candidates))
	for _, c := range fileCfg.MultiModel.Candidates {
		rawCandidates = append(rawCandidates, modelcompare.RawCandidate{
			ID: c.ID, Provider: c.Provider, Model: c.Model,
			BaseURL: c.BaseURL, Enabled: c.Enabled, APIKeyEnv: c.APIKeyEnv,
		})
	}

	caller := openaicompat.NewCaller(0)
	defaultCaller := &openaicompat.DefaultCaller{APIKey: os.Getenv("ANTHROPIC_API_KEY")}

	var defaultCandidate *modelcompare.Candidate
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		defaultCandidate = &modelcompare.Candidate{
			ID: "session-default", Provider: "anthropic", Model: "claude-opus-4", APIKey: os.Getenv("ANTHROPIC_API_KEY"),
		}
	}

	out := modelcompare.Compare(ctx, modelcompare.CompareRequest{
		RawConfig:        fileCfg.RawMultiModel(),
		RawCandidates:    rawCandidates,
		DefaultCandidate: defaultCandidate,
		Env:              config.Environ(),
		Question:         question,
		Workspace:        workspace,
		ExplicitFiles:    files,
		Caller:           dispatchByProvider(caller, defaultCaller),
	})

	logging.Info("compare run finished", "run_id", runID, "mode", out.Mode, "results", len(out.Results))
	return out
}

func dispatchByProvider(external *openaicompat.Caller, def *openaicompat.DefaultCaller) modelcompare.ModelCaller {
	return func(ctx context.Context, c modelcompare.Candidate, p modelcompare.Payload, timeoutSec int) (any, error) {
		if c.IsDefault {
			return def.Call(ctx, c, p, timeoutSec)
		}
		return external.Call(ctx, c, p, timeoutSec)
	}
}
