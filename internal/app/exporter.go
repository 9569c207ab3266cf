package app

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/talkincode/sweetshop/internal/domain"
	"github.com/talkincode/sweetshop/internal/inventory"
	"github.com/talkincode/sweetshop/internal/query"
)

const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

var exportHeader = []interface{}{
	"id", "name", "category", "price", "quantity", "description", "image_url", "stock_status", "updated_at",
}

// ExportCatalog writes the sweets matching f in the given format. Paging
// fields of f are ignored, every match is exported.
func (a *Application) ExportCatalog(ctx context.Context, w io.Writer, format string, f query.Filter) error {
	f.Offset, f.Limit = 0, 0
	page, err := query.NewEngine(a.store).Search(ctx, f)
	if err != nil {
		return err
	}
	records := make([]inventory.CatalogRecord, 0, len(page.Items))
	for _, s := range page.Items {
		records = append(records, a.inventory.Record(s))
	}
	switch strings.ToLower(format) {
	case ExportCSV, "":
		return errors.Wrap(gocsv.Marshal(records, w), "write csv")
	case ExportXLSX:
		return writeXLSX(w, records)
	default:
		return domain.InvalidArgumentf("unsupported export format %q", format)
	}
}

func writeXLSX(w io.Writer, records []inventory.CatalogRecord) error {
	const sheet = "Sheet1"
	xlsx := excelize.NewFile()
	xlsx.SetSheetRow(sheet, "A1", &exportHeader)
	for i, r := range records {
		row := []interface{}{
			r.ID, r.Name, r.Category, r.Price, r.Quantity, r.Description, r.ImageURL, r.StockStatus, r.UpdatedAt,
		}
		xlsx.SetSheetRow(sheet, "A"+strconv.Itoa(i+2), &row)
	}
	xlsx.SetColWidth(sheet, "A", "A", 22)
	xlsx.SetColWidth(sheet, "B", "B", 28)
	return errors.Wrap(xlsx.Write(w), "write xlsx")
}
