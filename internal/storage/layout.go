package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	SixDayAvgPeriod = "6-day-avg"
	weeklyAvgDir    = "data/weekly-avg"
	monthlyAvgDir   = "data/monthly-avg"
	votionRemoteDir = "votion"
)

// Layout resolves the on-disk location of every snapshot and rollup file.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	if root == "" {
		root = "."
	}
	return Layout{Root: root}
}

// SlotPath is the daily snapshot file for a weekday slot (1..7).
func (l Layout) SlotPath(day int) string {
	return filepath.Join(l.Root, fmt.Sprintf("day-%d.csv", day))
}

func (l Layout) SixDayAvgPath() string {
	return filepath.Join(l.Root, SixDayAvgPeriod+".csv")
}

func (l Layout) WeeklyDir() string {
	return filepath.Join(l.Root, filepath.FromSlash(weeklyAvgDir))
}

func (l Layout) MonthlyDir() string {
	return filepath.Join(l.Root, filepath.FromSlash(monthlyAvgDir))
}

func (l Layout) WeeklyPath(label string) string {
	return filepath.Join(l.WeeklyDir(), label+".csv")
}

func (l Layout) MonthlyPath(label string) string {
	return filepath.Join(l.MonthlyDir(), label+".csv")
}

func (l Layout) YearlyPath(year int) string {
	return filepath.Join(l.Root, fmt.Sprintf("%04d-yearly.csv", year))
}

// VotionLocalPath is where a vote snapshot lands when it is not published.
func (l Layout) VotionLocalPath(period string) string {
	return filepath.Join(l.Root, fmt.Sprintf("votion-epoch-%s.json", period))
}

// VotionRemotePath is the repository path of a published vote snapshot.
func VotionRemotePath(period int) string {
	return fmt.Sprintf("%s/votion-epoch-%d.json", votionRemoteDir, period)
}

// EnsureDirs creates the rollup collections if they are missing.
func (l Layout) EnsureDirs(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, dir := range []string{l.WeeklyDir(), l.MonthlyDir()} {
		entries, err := os.ReadDir(dir)
		if err == nil {
			logger.Info("directory exists", zap.String("dir", dir), zap.Int("files", len(entries)))
			continue
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("read dir %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
		logger.Info("created directory", zap.String("dir", dir))
	}
	return nil
}
