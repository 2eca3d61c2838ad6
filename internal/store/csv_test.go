package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/voxlead/voxlead/bridge"
	"github.com/voxlead/voxlead/lead"
)

func TestCSVSinkAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	sink, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}

	err = sink.Append(context.Background(), bridge.CallResult{
		CallSID: "CA1",
		Caller:  "+16055550001",
		Outcome: bridge.OutcomeCaptured,
		Record: lead.Record{
			Name: "Jane Doe", Phone: "605-555-1212",
			VehicleYear: "2019", VehicleMake: "Toyota", VehicleModel: "Camry",
			ServiceType: "Lockout", PostalCode: "57106",
			RawLine: "LEAD: Name=Jane Doe; Phone=605-555-1212; YMM=2019 Toyota Camry; Service=Lockout; ZIP=57106",
		},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rows := readCSV(t, path)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	row := rows[1]
	if row[1] != "CA1" || row[4] != "Jane Doe" || row[6] != "2019" {
		t.Errorf("unexpected row: %v", row)
	}
}

func TestCSVSinkDegenerateRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	sink, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}

	err = sink.Append(context.Background(), bridge.CallResult{
		CallSID: "CA2",
		Caller:  "+16055550002",
		Outcome: bridge.OutcomeAIUnavailable,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	sink.Close()

	rows := readCSV(t, path)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[1][3] != "ai_unavailable" {
		t.Errorf("outcome column = %q", rows[1][3])
	}
}

func TestCSVSinkConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	sink, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}

	const calls = 20
	var wg sync.WaitGroup
	wg.Add(calls)
	for i := 0; i < calls; i++ {
		go func(i int) {
			defer wg.Done()
			_ = sink.Append(context.Background(), bridge.CallResult{
				CallSID: "CA" + strconv.Itoa(i),
				Outcome: bridge.OutcomeNoLead,
			})
		}(i)
	}
	wg.Wait()
	sink.Close()

	// Every row must be intact: same column count, parsable, no
	// interleaving.
	rows := readCSV(t, path)
	if len(rows) != calls+1 {
		t.Fatalf("rows = %d, want %d", len(rows), calls+1)
	}
	for i, row := range rows {
		if len(row) != len(csvHeader) {
			t.Errorf("row %d has %d columns, want %d", i, len(row), len(csvHeader))
		}
	}
}

func TestCSVSinkReopenDoesNotDuplicateHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")

	sink, err := OpenCSV(path)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	_ = sink.Append(context.Background(), bridge.CallResult{CallSID: "CA1", Outcome: bridge.OutcomeNoLead})
	sink.Close()

	sink, err = OpenCSV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = sink.Append(context.Background(), bridge.CallResult{CallSID: "CA2", Outcome: bridge.OutcomeNoLead})
	sink.Close()

	rows := readCSV(t, path)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "time" || rows[1][0] == "time" {
		t.Error("header written more than once")
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}
