package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/codenames-server/game/dictionary"
	"github.com/wricardo/codenames-server/game/engine"
)

// CheckResult captures the outcome of checking a single dictionary file.
// If Valid is true, Notes contains informational messages; otherwise it
// also holds the problems that were found.
type CheckResult struct {
	File  string
	Valid bool
	Notes []string
}

// checkDictionary parses one dictionary file and checks it can fill a board
// of boardSize cards
func checkDictionary(path string, boardSize int) CheckResult {
	result := CheckResult{
		File:  filepath.Base(path),
		Valid: true,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Notes = append(result.Notes, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	dict, err := dictionary.Parse(data, result.File)
	if err != nil {
		result.Valid = false
		result.Notes = append(result.Notes, err.Error())
		return result
	}

	result.Notes = append(result.Notes, fmt.Sprintf("Name: %s", dict.Name))
	result.Notes = append(result.Notes, fmt.Sprintf("Unique words: %d", len(dict.Words)))
	if dict.Duplicates > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("Duplicates removed: %d", dict.Duplicates))
	}
	if dict.Warning {
		result.Notes = append(result.Notes, "Flagged with a content warning")
	}

	if len(dict.Words) < boardSize {
		result.Valid = false
		result.Notes = append(result.Notes, fmt.Sprintf("Not enough words for a %d card board", boardSize))
	}

	return result
}

// checkDictionaries checks every *.yaml / *.yml file of dir in lexical order
func checkDictionaries(dir string, boardSize int) ([]CheckResult, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	results := make([]CheckResult, 0, len(files))
	for _, file := range files {
		results = append(results, checkDictionary(file, boardSize))
	}
	return results, nil
}

// printReport writes a short report and reports whether every file passed
func printReport(w io.Writer, results []CheckResult) bool {
	allValid := true
	for _, result := range results {
		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "VALID")
		} else {
			fmt.Fprintln(w, "INVALID")
			allValid = false
		}
		for _, note := range result.Notes {
			fmt.Fprintln(w, "  "+note)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(results) == 0:
		fmt.Fprintln(w, "No dictionaries found, the embedded default will be used")
	case allValid:
		fmt.Fprintln(w, "All dictionaries are valid!")
	default:
		fmt.Fprintln(w, "Some dictionaries have errors")
	}
	return allValid
}

func runDictCheckCommand(ctx context.Context, cmd *cli.Command) error {
	results, err := checkDictionaries(cmd.String("dict-dir"), engine.DefaultBoardSize)
	if err != nil {
		return fmt.Errorf("failed to list dictionaries: %w", err)
	}

	if !printReport(os.Stdout, results) {
		return cli.Exit("", 1)
	}
	return nil
}
