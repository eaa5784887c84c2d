package sweep

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/tlbeval/internal/fsutil"
	"github.com/banshee-data/tlbeval/internal/monitoring"
)

// Collect reads every results.json below evalDir whose run directory also
// holds a finish marker. Unfinished runs are skipped.
func Collect(fs fsutil.FileSystem, evalDir string) ([]Row, error) {
	paths, err := fs.FindFiles(evalDir, ResultsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", evalDir, err)
	}

	var rows []Row
	skipped := 0
	for _, p := range paths {
		dir := filepath.Dir(p)
		if !fs.Exists(filepath.Join(dir, FinishFile)) {
			skipped++
			continue
		}
		data, err := fs.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		o, err := UnmarshalOutcome(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		rows = append(rows, o.Row())
	}
	if skipped > 0 {
		monitoring.Logf("collect: skipped %d unfinished runs under %s", skipped, evalDir)
	}
	return rows, nil
}
