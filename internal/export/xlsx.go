package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/parcel-cli/internal/parcel"
)

// WriteXLSX writes a record set to an XLSX workbook at path. Columns are
// the canonical attribute names followed by the geometry's x and y in
// projected meters. Non-point geometries use the center of their
// bounding box.
func WriteXLSX(path string, rs parcel.RecordSet) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("parcels")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range parcel.CanonicalColumns {
		header.AddCell().SetValue(col)
	}
	header.AddCell().SetValue("x")
	header.AddCell().SetValue("y")

	for _, rec := range rs {
		row := sheet.AddRow()
		for _, col := range parcel.CanonicalColumns {
			row.AddCell().SetValue(rec.Props[col])
		}
		x, y := geomXY(rec.Geom)
		row.AddCell().SetFloat(x)
		row.AddCell().SetFloat(y)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

func geomXY(g geom.T) (float64, float64) {
	if g == nil {
		return 0, 0
	}
	if pt, ok := g.(*geom.Point); ok {
		return pt.X(), pt.Y()
	}
	b := parcel.BoundsOf(g)
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2
}
