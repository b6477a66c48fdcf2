package simulation

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

var ledgerHeader = []string{
	"index",
	"start",
	"end",
	"purchase_ct",
	"feed_in_ct",
	"clearing_price_ct",
	"production_kwh",
	"consumption_kwh",
	"self_consumption_kwh",
	"action",
	"charge_kwh",
	"discharge_kwh",
	"soc_kwh",
	"offered_kwh",
	"requested_kwh",
	"traded_kwh",
	"grid_import_kwh",
	"grid_export_kwh",
	"cum_cost",
}

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeLedgerCSV(f, ledger)
}

// EncodeLedgerCSV writes the ledger with a header row to w.
func EncodeLedgerCSV(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(ledgerHeader); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Start),
			fmtTime(r.End),
			fmtFloat(r.PurchaseCt),
			fmtFloat(r.FeedInCt),
			fmtFloat(r.ClearingPrice),
			fmtFloat(r.Production),
			fmtFloat(r.Consumption),
			fmtFloat(r.SelfConsumption),
			string(r.Action),
			fmtFloat(r.Charge),
			fmtFloat(r.Discharge),
			fmtFloat(r.SOC),
			fmtFloat(r.Offered),
			fmtFloat(r.Requested),
			fmtFloat(r.Traded),
			fmtFloat(r.GridImport),
			fmtFloat(r.GridExport),
			fmtFloat(r.CumCost),
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
