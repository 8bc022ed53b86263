package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NaviAgent/aisuckhoe-webchat/internal/core/importer"
)

var importProfile string

var importCmd = &cobra.Command{
	Use:   "import [path]",
	Short: "Import JSONL transcript exports",
	Long: `Import sessions from a .jsonl file or every .jsonl file under a directory
(default: the inbox directory from config.toml).

Files already imported are skipped by content hash, so re-running is safe.
Files that name a profile you own keep it; everything else goes to --profile.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importProfile, "profile", "p", "", "Profile for files that do not name one")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sourcePath := cfg.InboxDir
	if len(args) > 0 {
		sourcePath = args[0]
	}

	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", sourcePath, err)
	}

	database, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	profileID, err := resolveProfile(cmd, database, importProfile)
	if err != nil {
		return err
	}
	imp := importer.New(database, cfg.OwnerID, profileID)

	if !info.IsDir() {
		parsed, imported, err := imp.ImportFile(ctx, sourcePath)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		if !imported {
			fmt.Println("Already imported, skipped")
			return nil
		}
		fmt.Printf("Imported %s (%d messages)\n", parsed.SessionID, len(parsed.Messages))
		return nil
	}

	fmt.Printf("Importing sessions from: %s\n", sourcePath)
	fmt.Printf("Database: %s\n\n", dbPath)

	// Count total files for progress
	files, err := importer.FindFiles(sourcePath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No transcript files found")
		return nil
	}

	progress := importer.NewProgressReporter(os.Stdout, len(files))
	res, err := imp.ImportDirectory(ctx, sourcePath, progress)
	progress.Finish()
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported: %d  Skipped: %d  Failed: %d\n", res.Imported, res.Skipped, res.Failed)
	return nil
}
