package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader reads seed files from the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a Loader backed by local gzipped files.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "seed-file-loader").Logger(),
	}
}

// Load reads a gzipped NDJSON file. A missing file is reported with an error
// wrapping os.ErrNotExist.
func (l *fileLoader) Load(ctx context.Context, filePath string) ([]json.RawMessage, error) {
	l.logger.Info().Str("file", filePath).Msg("loading seed file")

	// Open file
	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open seed file")
		return nil, fmt.Errorf("failed to open seed file %s: %w", filePath, err)
	}
	defer file.Close()

	// Decompress and decode the records
	records, err := readRecords(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read seed file")
		return nil, fmt.Errorf("failed to read seed file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("records", len(records)).
		Msg("seed file loaded")

	return records, nil
}
