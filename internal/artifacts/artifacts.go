// Package artifacts manages the exported workbook files on disk: the
// run-stamped output path, cleanup of prior runs, and discovery of the most
// recent export for the dispatch CLI.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const filePrefix = "coingecko_all_data_"

// Path derives the artifact path for a run starting at the given time. The
// caller threads the result through the whole run; it is never recomputed.
func Path(outputDir string, start time.Time) string {
	name := fmt.Sprintf("%s%s.xlsx", filePrefix, start.Format("20060102_150405"))
	return filepath.Join(outputDir, name)
}

// CleanOutputDir deletes leftover xlsx files from previous runs. Files that
// cannot be removed (typically still open in a spreadsheet application) are
// skipped with a warning; a missing directory is created. Returns how many
// files were deleted and how many were skipped.
func CleanOutputDir(outputDir string) (deleted, skipped int) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Warn().Err(err).Str("dir", outputDir).Msg("Failed to create output directory")
		return 0, 0
	}

	matches, err := filepath.Glob(filepath.Join(outputDir, "*.xlsx"))
	if err != nil {
		log.Warn().Err(err).Str("dir", outputDir).Msg("Failed to list old artifacts")
		return 0, 0
	}

	for _, path := range matches {
		// Spreadsheet applications keep ~$-prefixed lock files next to an
		// open workbook; leave those alone.
		if strings.HasPrefix(filepath.Base(path), "~$") {
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Cannot delete old artifact, may be open elsewhere")
			skipped++
			continue
		}
		log.Debug().Str("file", path).Msg("Deleted old artifact")
		deleted++
	}

	if deleted > 0 || skipped > 0 {
		log.Info().
			Int("deleted", deleted).
			Int("skipped", skipped).
			Msg("Cleaned output directory")
	}
	return deleted, skipped
}

// Candidate is one workbook found during discovery.
type Candidate struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// SizeMB reports the candidate's size in megabytes.
func (c Candidate) SizeMB() float64 {
	return float64(c.Size) / (1024 * 1024)
}

// DefaultSearchDirs are the locations the dispatch CLI looks in when no
// explicit path is given, in search order.
func DefaultSearchDirs() []string {
	return []string{".", "output", filepath.Join("..", "output"), ".."}
}

// ListCandidates finds xlsx files across the given directories, newest
// first, excluding spreadsheet lock files and duplicate paths. Directories
// that do not exist are silently skipped.
func ListCandidates(dirs []string) []Candidate {
	seen := make(map[string]bool)
	var found []Candidate

	for _, dir := range dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if strings.HasPrefix(filepath.Base(path), "~") {
				continue
			}
			abs, err := filepath.Abs(path)
			if err != nil || seen[abs] {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			seen[abs] = true
			found = append(found, Candidate{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		}
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].ModTime.After(found[j].ModTime)
	})
	return found
}
