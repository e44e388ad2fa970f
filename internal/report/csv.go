package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"backsim/types"
)

// CSVSaver writes a batch summary plus per-run operation files into a
// directory. File names carry a fresh uuid so repeated batches never clobber
// each other.
type CSVSaver struct {
	dir string
}

func NewCSVSaver(dir string) *CSVSaver {
	return &CSVSaver{dir: dir}
}

func (s *CSVSaver) Save(results []types.BackTestResult) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	batchID := uuid.NewString()

	path := filepath.Join(s.dir, fmt.Sprintf("backtest-%s.csv", batchID))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()
	if err := writeSummaryCSV(f, results); err != nil {
		return err
	}

	for i, res := range results {
		if len(res.Operations) == 0 {
			continue
		}
		opsPath := filepath.Join(s.dir, fmt.Sprintf("operations-%s-%d.csv", batchID, i))
		if err := writeOperationsFile(opsPath, res.Operations); err != nil {
			return err
		}
	}
	return nil
}

func writeSummaryCSV(w io.Writer, results []types.BackTestResult) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"rank",
		"figi",
		"strategy",
		"candle_interval",
		"final_total_savings",
		"final_cash",
		"total_investment",
		"absolute_profit",
		"relative_profit",
		"annualized_profit",
		"operations",
		"error",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, res := range results {
		record := []string{
			strconv.Itoa(i + 1),
			res.Config.Figi,
			res.Config.StrategyType,
			string(res.Config.CandleInterval),
			res.Balances.FinalTotalSavings.String(),
			res.Balances.FinalCash.String(),
			res.Balances.TotalInvestment.String(),
			res.Profits.Absolute.String(),
			res.Profits.Relative.String(),
			res.Profits.Annualized.String(),
			strconv.Itoa(len(res.Operations)),
			res.Error,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	return cw.Error()
}

func writeOperationsFile(path string, ops []types.Operation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create operations file: %w", err)
	}
	defer f.Close()
	return WriteOperationsCSV(f, ops)
}

// WriteOperationsCSV writes operations to any io.Writer as CSV. You can pass
// os.Stdout for debugging, or a file.
func WriteOperationsCSV(w io.Writer, ops []types.Operation) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"time", // RFC3339
		"figi",
		"direction",
		"lots",
		"price",
		"payment",
		"commission",
		"currency",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, op := range ops {
		record := []string{
			op.Time.Format(time.RFC3339),
			op.Figi,
			string(op.Direction),
			strconv.FormatInt(op.Lots, 10),
			op.Price.String(),
			op.Payment.String(),
			op.Commission.String(),
			op.Currency,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	return cw.Error()
}
