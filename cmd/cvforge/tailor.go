package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cvforge-ai/cvforge/pkg/config"
	"github.com/cvforge-ai/cvforge/pkg/logging"
	"github.com/cvforge-ai/cvforge/pkg/models"
)

func newTailorCmd() *cobra.Command {
	var (
		configPath    string
		jobPath       string
		artifactsPath string
		userID        string
		tier          string
		docType       string
		outPath       string
		jsonOut       bool
		debug         bool
	)

	cmd := &cobra.Command{
		Use:   "tailor",
		Short: "Tailor a CV or cover letter against a job posting",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if tier == "" {
				tier = cfg.Budget.DefaultTier
			}

			logger, err := logging.New(jsonOut, debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			jobText, err := os.ReadFile(jobPath)
			if err != nil {
				return fmt.Errorf("read job posting: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			providers, err := buildProviders(ctx, cfg, logger)
			if err != nil {
				return err
			}

			pipe, err := a.newPipeline(providers, &fileStore{
				artifactsPath: artifactsPath,
				outPath:       outPath,
			})
			if err != nil {
				return err
			}

			result, err := pipe.Run(ctx, models.GenerationRequest{
				UserID:  userID,
				Tier:    tier,
				Type:    models.DocumentType(docType),
				JobText: string(jobText),
			})
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			return printResult(result)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "cvforge.yaml", "path to config file")
	cmd.Flags().StringVar(&jobPath, "job", "", "path to the job posting text file")
	cmd.Flags().StringVar(&artifactsPath, "artifacts", "", "path to a JSON file with the user's artifacts")
	cmd.Flags().StringVar(&userID, "user", "", "user the request is billed to")
	cmd.Flags().StringVar(&tier, "tier", "", "subscription tier (defaults to budget.default_tier)")
	cmd.Flags().StringVar(&docType, "type", string(models.DocumentCV), "document type: cv or cover_letter")
	cmd.Flags().StringVar(&outPath, "out", "", "write the full result JSON to this path")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// fileStore adapts the CLI to the pipeline's persistence: artifacts come
// from a JSON file and the terminal result is written to --out when set.
type fileStore struct {
	artifactsPath string
	outPath       string
}

func (s *fileStore) LoadArtifacts(ctx context.Context, userID string) ([]models.Artifact, error) {
	if s.artifactsPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.artifactsPath)
	if err != nil {
		return nil, fmt.Errorf("read artifacts: %w", err)
	}
	var artifacts []models.Artifact
	if err := json.Unmarshal(data, &artifacts); err != nil {
		return nil, fmt.Errorf("parse artifacts: %w", err)
	}
	return artifacts, nil
}

func (s *fileStore) SaveResult(ctx context.Context, result *models.GenerationResult) error {
	if s.outPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.outPath, append(data, '\n'), 0o644)
}

func printResult(res *models.GenerationResult) error {
	if res.Status != models.StatusCompleted {
		fmt.Printf("Request %s failed: %s (%s)\n", res.RequestID, res.Error, res.FailureKind)
		if res.CostUSD > 0 {
			fmt.Printf("Billed before failing: $%.4f\n", res.CostUSD)
		}
		return fmt.Errorf("tailoring failed: %s", res.FailureKind)
	}

	fmt.Printf("Request:     %s\n", res.RequestID)
	fmt.Printf("Model:       %s\n", res.Model)
	fmt.Printf("Skill score: %d/10\n", res.SkillScore)
	if len(res.MissingSkills) > 0 {
		fmt.Printf("Missing:     %s\n", strings.Join(res.MissingSkills, ", "))
	}
	fmt.Printf("Cost:        $%.4f\n", res.CostUSD)

	if len(res.RankedArtifacts) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tARTIFACT\tTITLE\tSCORE")
		for i, r := range res.RankedArtifacts {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.3f\n", i+1, r.ArtifactID, r.Title, r.Score)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if res.Content != nil {
		fmt.Println()
		fmt.Println(res.Content.Summary)
		for _, sec := range res.Content.Sections {
			fmt.Printf("\n%s\n%s\n", sec.Heading, sec.Body)
		}
	}
	return nil
}
