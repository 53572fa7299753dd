package report

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteLedger(f, ledger)
}

func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"index",
		"step_start",
		"step_end",
		"plot",
		"net_load_kw",
		"price",
		"tier",
		"action",
		"grid_import_kw",
		"grid_export_kw",
		"charge_kw",
		"discharge_kw",
		"stored_kwh",
		"soc",
		"baseline_kw",
		"cost",
		"baseline_cost",
		"cum_savings",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.StepStart),
			fmtTime(r.StepEnd),
			r.Plot,
			fmtFloat(r.NetLoadKW),
			fmtFloat(r.Price),
			r.Tier,
			string(r.Action),
			fmtFloat(r.GridImportKW),
			fmtFloat(r.GridExportKW),
			fmtFloat(r.ChargeKW),
			fmtFloat(r.DischargeKW),
			fmtFloat(r.StoredKWh),
			fmtFloat(r.SOC),
			fmtFloat(r.BaselineKW),
			fmtFloat(r.Cost),
			fmtFloat(r.BaselineCost),
			fmtFloat(r.CumSavings),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
