// Command voxlead-admin manages tenant and phone-number records and lists
// captured leads.
//
// Usage:
//
//	voxlead-admin tenant-add -name "Ace Towing" -persona "You answer for Ace Towing in Sioux Falls."
//	voxlead-admin tenant-list
//	voxlead-admin number-add -number +16055550100 -tenant <id>
//	voxlead-admin leads -limit 20
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/voxlead/voxlead/internal/store"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("VOXLEAD_DB_DSN")
	if dsn == "" {
		dsn = "voxlead.db"
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	db, err := store.Open(dsn)
	if err != nil {
		fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	switch os.Args[1] {
	case "tenant-add":
		fs := flag.NewFlagSet("tenant-add", flag.ExitOnError)
		name := fs.String("name", "", "tenant name (required)")
		persona := fs.String("persona", "", "agent persona for this tenant")
		fs.Parse(os.Args[2:])
		if *name == "" {
			fatalf("tenant-add: -name is required")
		}
		t, err := db.CreateTenant(ctx, *name, *persona)
		if err != nil {
			fatalf("tenant-add: %v", err)
		}
		fmt.Println(t.ID)

	case "tenant-list":
		tenants, err := db.ListTenants(ctx)
		if err != nil {
			fatalf("tenant-list: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED")
		for _, t := range tenants {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, t.CreatedAt.Format("2006-01-02"))
		}
		w.Flush()

	case "number-add":
		fs := flag.NewFlagSet("number-add", flag.ExitOnError)
		number := fs.String("number", "", "phone number in E.164 form (required)")
		tenant := fs.String("tenant", "", "tenant id (required)")
		fs.Parse(os.Args[2:])
		if *number == "" || *tenant == "" {
			fatalf("number-add: -number and -tenant are required")
		}
		if err := db.AddNumber(ctx, *number, *tenant); err != nil {
			fatalf("number-add: %v", err)
		}

	case "leads":
		fs := flag.NewFlagSet("leads", flag.ExitOnError)
		limit := fs.Int("limit", 50, "maximum rows")
		fs.Parse(os.Args[2:])
		leads, err := db.ListLeads(ctx, *limit)
		if err != nil {
			fatalf("leads: %v", err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED\tCALL\tOUTCOME\tNAME\tPHONE\tVEHICLE\tSERVICE\tZIP")
		for _, l := range leads {
			vehicle := l.VehicleYear + " " + l.VehicleMake + " " + l.VehicleModel
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				l.CreatedAt.Format("2006-01-02 15:04"), l.CallSID, l.Outcome,
				l.Name, l.Phone, vehicle, l.ServiceType, l.PostalCode)
		}
		w.Flush()

	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: voxlead-admin <tenant-add|tenant-list|number-add|leads> [flags]")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
