package main

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/supportdesk/backend/internal/models"
	"github.com/supportdesk/backend/internal/service"
)

// One-shot runner: load a dataset file, schedule every ticket, write the
// result JSON. No database involved.
func main() {
	datasetPath := flag.String("dataset", "dataset.json", "path to the input dataset JSON")
	outPath := flag.String("out", "output_result.json", "path for the result JSON")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.With().Str("service", "supportdesk-assign").Logger()

	data, err := os.ReadFile(*datasetPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *datasetPath).Msg("failed to read dataset")
	}
	var dataset models.Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		logger.Fatal().Err(err).Msg("invalid dataset JSON")
	}
	if err := validator.New().Struct(dataset); err != nil {
		logger.Fatal().Err(err).Msg("dataset failed validation")
	}
	if dups := dataset.DuplicateIDs(); len(dups) > 0 {
		logger.Fatal().Strs("errors", dups).Msg("dataset contains duplicate ids")
	}

	scheduled, err := service.Schedule(dataset.Agents, dataset.Tickets, time.Now())
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduling failed")
	}
	result := service.BuildResult(dataset.Agents, dataset.Tickets, scheduled)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode result")
	}
	if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		logger.Fatal().Err(err).Str("path", *outPath).Msg("failed to write result")
	}

	logger.Info().
		Int("tickets", len(dataset.Tickets)).
		Int("agents", len(dataset.Agents)).
		Str("output", *outPath).
		Msg("assignment completed")

	distribution := service.Distribution(dataset.Agents, scheduled)
	for _, a := range dataset.Agents {
		logger.Info().
			Str("agent_id", a.ID).
			Str("name", a.Name).
			Int("tickets", distribution[a.ID]).
			Msg("assignment distribution")
	}
}
