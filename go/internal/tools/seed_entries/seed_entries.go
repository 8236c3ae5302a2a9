package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/regatta/go/internal/dbconfig"
)

// Entry mirrors the JSON snapshot structure
type Entry struct {
	ID         string `json:"id"`
	RegattaID  string `json:"regatta_id"`
	SailNumber string `json:"sail_number"`
	BoatName   string `json:"boat_name"`
	ClassName  string `json:"class_name"`
	Eligible   bool   `json:"eligible"`
}

func main() {
	// 1) Load the JSON snapshot
	data, err := os.ReadFile("go/internal/assets/entries.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert and count
	var (
		total    = len(entries)
		inserted int
		skipped  int
		errs     int
	)

	for _, e := range entries {
		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO entries (
              id, regatta_id, sail_number, boat_name, class_name, eligible
            ) VALUES (
              $1,$2,$3,$4,$5,$6
            )
            ON CONFLICT (regatta_id, sail_number) DO NOTHING
        `,
			e.ID, e.RegattaID, e.SailNumber, e.BoatName, e.ClassName, e.Eligible,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting entry %s: %v\n", e.ID, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Entries seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
