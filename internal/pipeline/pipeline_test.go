package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolSnapshot/internal/model"
	"poolSnapshot/internal/storage"
)

type fakePools struct {
	records []model.PoolRecord
	err     error
	calls   int
}

func (f *fakePools) FetchPools(ctx context.Context, now time.Time) ([]model.PoolRecord, error) {
	f.calls++
	return f.records, f.err
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestRunner(t *testing.T, now time.Time, fetcher PoolFetcher) (*Runner, storage.Layout) {
	t.Helper()
	layout := storage.NewLayout(t.TempDir())
	require.NoError(t, layout.EnsureDirs(nil))
	return NewRunner(Options{
		Layout:   layout,
		Fetcher:  fetcher,
		Location: time.UTC,
		Now:      fixedNow(now),
	}), layout
}

func writeSlot(t *testing.T, layout storage.Layout, day int, tvl float64) {
	t.Helper()
	require.NoError(t, storage.WritePoolRecords(layout.SlotPath(day), []model.PoolRecord{{
		Date:         "2025-01-06",
		Time:         "00:05:00",
		PoolID:       "P1",
		PoolAddress:  "terra1p1",
		TVLUSD:       tvl,
		Volume24hUSD: 10,
		APR7d:        0.1,
		Reserve0:     "1000",
		Reserve1:     "2000",
		TotalShare:   "300",
	}}))
}

func writeRollupFile(t *testing.T, path, label, tvl string, count int64) {
	t.Helper()
	require.NoError(t, storage.WriteAggregateRecords(path, []model.AggregateRecord{{
		Period:         label,
		PoolID:         "P1",
		PoolAddress:    "terra1p1",
		AvgTVLUSD:      tvl,
		TotalVolumeUSD: "70.00",
		AvgAPR7d:       "0.1000",
		AvgReserve0:    "1000",
		AvgReserve1:    "2000",
		AvgTotalShare:  "300",
		SnapshotCount:  count,
	}}))
}

func readSingleRow(t *testing.T, path string) model.Row {
	t.Helper()
	rows, err := storage.ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return rows[0]
}

func TestSixDayAverageIgnoresSlotSeven(t *testing.T) {
	runner, layout := newTestRunner(t, time.Date(2025, 1, 8, 0, 5, 0, 0, time.UTC), nil)
	for day := 1; day <= 6; day++ {
		writeSlot(t, layout, day, float64(day*100))
	}
	writeSlot(t, layout, 7, 99999)

	res, err := runner.SixDayAverage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pools)

	row := readSingleRow(t, layout.SixDayAvgPath())
	assert.Equal(t, "6-day-avg", row["period"])
	assert.Equal(t, "350.00", row["avg_tvl_usd"])
	assert.Equal(t, "60.00", row["total_volume_usd"])
	assert.Equal(t, "6", row["snapshot_count"])
}

func TestSixDayAverageCountsShortRows(t *testing.T) {
	runner, layout := newTestRunner(t, time.Date(2025, 1, 8, 0, 5, 0, 0, time.UTC), nil)
	writeSlot(t, layout, 1, 100)
	short := "date,time,pool_id,pool_address,tvl_usd,volume_24h_usd,volume_7d_usd,apr_7d,reserve_0,reserve_1,total_share\n" +
		"2025-01-07,00:05:00,\"P1\",terra1p1,300.00,30.00,210.00,0.3000,3000,4000\n"
	require.NoError(t, os.WriteFile(layout.SlotPath(2), []byte(short), 0o644))

	_, err := runner.SixDayAverage(context.Background())
	require.NoError(t, err)

	row := readSingleRow(t, layout.SixDayAvgPath())
	assert.Equal(t, "200.00", row["avg_tvl_usd"])
	assert.Equal(t, "40.00", row["total_volume_usd"])
	assert.Equal(t, "0.2000", row["avg_apr_7d"])
	assert.Equal(t, "2000", row["avg_reserve_0"])
	assert.Equal(t, "300", row["avg_total_share"], "missing share is not an observation")
	assert.Equal(t, "2", row["snapshot_count"])
}

func TestSixDayAverageWithoutSlotsIsNoop(t *testing.T) {
	runner, layout := newTestRunner(t, time.Now(), nil)
	writeSlot(t, layout, 7, 100)

	res, err := runner.SixDayAverage(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Pools)
	assert.False(t, storage.Exists(layout.SixDayAvgPath()))
}

func TestDailyOverwritesTodaysSlot(t *testing.T) {
	fetcher := &fakePools{records: []model.PoolRecord{
		{Date: "2025-01-08", Time: "00:05:00", PoolID: "P1", PoolAddress: "terra1p1", TVLUSD: 500},
		{Date: "2025-01-08", Time: "00:05:00", PoolID: "P2", PoolAddress: "terra1p2", TVLUSD: 50},
	}}
	// Wednesday
	runner, layout := newTestRunner(t, time.Date(2025, 1, 8, 0, 5, 0, 0, time.UTC), fetcher)
	writeSlot(t, layout, 3, 1)

	res, err := runner.Daily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Mode: ModeDaily, Pools: 2, File: "day-3.csv"}, res)
	assert.Equal(t, "daily snapshot: day-3.csv", res.CommitMessage())

	rows, err := storage.ReadRows(layout.SlotPath(3))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "500.00", rows[0]["tvl_usd"])

	avg, err := storage.ReadRows(layout.SixDayAvgPath())
	require.NoError(t, err)
	assert.Len(t, avg, 2)
}

func TestDailyFetchFailureWritesNothing(t *testing.T) {
	fetcher := &fakePools{err: errors.New("connection refused")}
	runner, layout := newTestRunner(t, time.Date(2025, 1, 8, 0, 5, 0, 0, time.UTC), fetcher)

	_, err := runner.Daily(context.Background())
	require.Error(t, err)
	assert.False(t, storage.Exists(layout.SlotPath(3)))
	assert.False(t, storage.Exists(layout.SixDayAvgPath()))
}

func TestWeeklyUsesAllSevenSlots(t *testing.T) {
	runner, layout := newTestRunner(t, time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC), nil)
	for day := 1; day <= 7; day++ {
		writeSlot(t, layout, day, float64(day*100))
	}

	res, err := runner.Weekly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-epoch-115.csv", res.File)

	row := readSingleRow(t, layout.WeeklyPath("2025-epoch-115"))
	assert.Equal(t, "2025-epoch-115", row["period"])
	assert.Equal(t, "400.00", row["avg_tvl_usd"])
	assert.Equal(t, "7", row["snapshot_count"])
}

func TestMonthlySelectsEpochRangeAndSumsCounts(t *testing.T) {
	// January 2025 spans epochs 114 to 118.
	runner, layout := newTestRunner(t, time.Date(2025, 2, 10, 0, 30, 0, 0, time.UTC), nil)
	files := map[string]string{
		"2025-epoch-113": "1000.00",
		"2025-epoch-114": "100.00",
		"2025-epoch-118": "300.00",
		"2025-epoch-119": "1000.00",
		"2025-W03":       "200.00",
		"2025-W05":       "1000.00",
		"2024-epoch-115": "1000.00",
	}
	for label, tvl := range files {
		writeRollupFile(t, layout.WeeklyPath(label), label, tvl, 7)
	}

	res, err := runner.Monthly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Mode: ModeMonthly, Pools: 1, File: "2025-01.csv"}, res)

	row := readSingleRow(t, layout.MonthlyPath("2025-01"))
	assert.Equal(t, "2025-01", row["period"])
	assert.Equal(t, "200.00", row["avg_tvl_usd"])
	assert.Equal(t, "210.00", row["total_volume_usd"])
	assert.Equal(t, "21", row["snapshot_count"], "sum of upstream counts")
}

func TestSelectWeeklyFiles(t *testing.T) {
	names := []string{"2025-W03.csv", "2025-W05.csv", "2025-epoch-113.csv", "2025-epoch-114.csv", "2025-epoch-118.csv", "2025-epoch-119.csv", "notes.csv"}
	got := SelectWeeklyFiles(names, time.January, 114, 118)
	assert.Equal(t, []string{"2025-W03.csv", "2025-epoch-114.csv", "2025-epoch-118.csv"}, got)
}

func TestYearlyFoldsPreviousYearsMonths(t *testing.T) {
	runner, layout := newTestRunner(t, time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC), nil)
	writeRollupFile(t, layout.MonthlyPath("2024-01"), "2024-01", "100.00", 30)
	writeRollupFile(t, layout.MonthlyPath("2024-02"), "2024-02", "300.00", 28)
	writeRollupFile(t, layout.MonthlyPath("2023-12"), "2023-12", "9999.00", 31)

	res, err := runner.Yearly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-yearly.csv", res.File)

	row := readSingleRow(t, layout.YearlyPath(2024))
	assert.Equal(t, "2024", row["period"])
	assert.Equal(t, "200.00", row["avg_tvl_usd"])
	assert.Equal(t, "58", row["snapshot_count"])
}

type recordingSink struct {
	granularities []string
	votes         int
	err           error
}

func (s *recordingSink) PutAggregates(ctx context.Context, granularity string, records []model.AggregateRecord) error {
	s.granularities = append(s.granularities, granularity)
	return s.err
}

func (s *recordingSink) PutVoteSnapshot(ctx context.Context, snap *model.VoteSnapshot) error {
	s.votes++
	return s.err
}

func TestSinkFailureIsNotFatal(t *testing.T) {
	sink := &recordingSink{err: errors.New("db down")}
	layout := storage.NewLayout(t.TempDir())
	require.NoError(t, layout.EnsureDirs(nil))
	var out bytes.Buffer
	runner := NewRunner(Options{Layout: layout, Sink: sink, Location: time.UTC, Now: fixedNow(time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)), Out: &out})
	writeSlot(t, layout, 1, 100)

	_, err := runner.Weekly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"weekly"}, sink.granularities)
	assert.Contains(t, out.String(), "Saved: "+filepath.Join(layout.WeeklyDir(), "2025-epoch-115.csv"))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeDaily, m)

	m, err = ParseMode("monthly")
	require.NoError(t, err)
	assert.Equal(t, ModeMonthly, m)

	_, err = ParseMode("hourly")
	assert.EqualError(t, err, "unknown mode: hourly")
}

func TestRunUnknownMode(t *testing.T) {
	runner, _ := newTestRunner(t, time.Now(), nil)
	_, err := runner.Run(context.Background(), ModeVotion)
	assert.EqualError(t, err, "unknown mode: votion")
}
