package commands

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luchenqun/lucky-dog/internal/logger"
	"github.com/luchenqun/lucky-dog/pkg/config"
	"github.com/luchenqun/lucky-dog/pkg/store"
)

// importChunkSize bounds memory while streaming large candidate lists.
const importChunkSize = 100_000

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import candidate passphrases into the store",
	Long: `Import newline-delimited candidate passphrases into the configured
candidate store, creating the store file if needed. Duplicates and empty
lines are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open candidate file: %w", err)
	}
	defer func() { _ = f.Close() }()

	st, err := store.New(&store.Config{Path: cfg.Database.Path()})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	var (
		read     int64
		inserted int64
		chunk    = make([]string, 0, importChunkSize)
	)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		n, err := st.Insert(cmd.Context(), chunk)
		if err != nil {
			return fmt.Errorf("failed to insert candidates: %w", err)
		}
		inserted += n
		chunk = chunk[:0]
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		read++
		chunk = append(chunk, line)
		if len(chunk) == importChunkSize {
			if err := flush(); err != nil {
				return err
			}
			logger.Info("Import progress", "read", read, "inserted", inserted)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read candidate file: %w", err)
	}
	if err := flush(); err != nil {
		return err
	}

	total, err := st.Count(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("Import completed",
		"read", read,
		"inserted", inserted,
		"skipped", read-inserted,
		"total", total,
	)
	cmd.Printf("Imported %d of %d candidates (store now holds %d)\n", inserted, read, total)
	return nil
}
