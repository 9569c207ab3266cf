package app

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/inventory"
	"go.uber.org/zap"
)

// ImportFailure describes a rejected csv row
type ImportFailure struct {
	Row   int    `json:"row"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ImportReport summarises a catalog import
type ImportReport struct {
	Total    int             `json:"total"`
	Created  int             `json:"created"`
	Failures []ImportFailure `json:"failures"`
}

// ImportCatalog creates one sweet per csv row through the inventory
// facade. Rows are validated independently, a bad row is reported and
// does not stop the import.
func (a *Application) ImportCatalog(ctx context.Context, r io.Reader) (*ImportReport, error) {
	var records []*inventory.CatalogRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, errors.Wrap(err, "parse catalog csv")
	}

	pool, err := ants.NewPool(a.appConfig.Jobs.ImportWorkers)
	if err != nil {
		return nil, errors.Wrap(err, "create import pool")
	}
	defer pool.Release()

	report := &ImportReport{Total: len(records), Failures: []ImportFailure{}}
	var mu sync.Mutex
	var wg sync.WaitGroup
	fail := func(row int, name string, err error) {
		mu.Lock()
		report.Failures = append(report.Failures, ImportFailure{Row: row, Name: name, Error: domain.Message(err)})
		mu.Unlock()
	}
	for i, rec := range records {
		row := i + 2 // header is row 1
		rec := rec
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if _, err := a.inventory.Create(ctx, rec.CreateInput()); err != nil {
				fail(row, rec.Name, err)
				return
			}
			mu.Lock()
			report.Created++
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			fail(row, rec.Name, err)
		}
	}
	wg.Wait()

	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].Row < report.Failures[j].Row })
	zap.L().Info("catalog import finished",
		zap.Int("total", report.Total),
		zap.Int("created", report.Created),
		zap.Int("failed", len(report.Failures)))
	return report, nil
}
