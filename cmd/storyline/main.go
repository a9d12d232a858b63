package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"dealerops.dev/storyline/common/id"
	"dealerops.dev/storyline/common/llm"
	"dealerops.dev/storyline/core/config"
	"dealerops.dev/storyline/internal/generate"
	"dealerops.dev/storyline/internal/model"
	"dealerops.dev/storyline/internal/prompt"
	"dealerops.dev/storyline/internal/story"
	"dealerops.dev/storyline/internal/vehicle"
)

// One-shot generator: reads a repair-order JSON from a file argument
// (or stdin when absent / "-") and prints the story to stdout. Logs go
// to stderr so the output stays pipe-friendly.
func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := id.Init(1); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize id generator: %v\n", err)
		os.Exit(1)
	}

	ro, err := readOrder(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	client, err := llm.New(llm.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create llm client: %v\n", err)
		os.Exit(1)
	}

	prompts, err := prompt.NewStore(cfg.Story.PromptsDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load prompt templates: %v\n", err)
		os.Exit(1)
	}

	claims, err := story.NewClaimFilterFromFile(cfg.Story.ClaimRulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load claim rules: %v\n", err)
		os.Exit(1)
	}

	resolver := vehicle.NewResolver(vehicle.NewVPICDecoder(cfg.Vehicle.BaseURL), vehicle.NewCache())

	generator := generate.New(client, resolver, prompt.NewBuilder(prompts), story.NewFormatter(claims), nil, generate.Config{
		MaxAttempts:      cfg.Story.MaxAttempts,
		MaxTokens:        cfg.Story.MaxTokens,
		StructuredOutput: cfg.Story.StructuredOutput,
	})

	text, err := generator.Generate(ctx, ro)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(text)
}

func readOrder(args []string) (model.RepairOrder, error) {
	var data []byte
	var err error
	if len(args) > 0 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return model.RepairOrder{}, fmt.Errorf("reading repair order: %w", err)
	}

	var ro model.RepairOrder
	if err := json.Unmarshal(data, &ro); err != nil {
		return model.RepairOrder{}, fmt.Errorf("parsing repair order JSON: %w", err)
	}
	return ro, nil
}
