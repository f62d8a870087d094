package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"carprice/domain/car"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSheetFromRows(t *testing.T) {
	rows := [][]string{
		{"\ufeffCarName", " price ", "fueltype"},
		{"audi 100ls", "13950", "gas"},
		{"", "", ""},
		{"bmw 320i", "16430"},
	}

	sheet := SheetFromRows("cars.csv", rows)
	require.NotNil(t, sheet)

	assert.Equal(t, []string{"CarName", "price", "fueltype"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, car.RawRow{"CarName": "audi 100ls", "price": "13950", "fueltype": "gas"}, sheet.Rows[0])
	assert.Equal(t, "", sheet.Rows[1]["fueltype"])

	assert.Nil(t, SheetFromRows("empty.csv", nil))
}

func TestReadCSV_RaggedRows(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("a,b,c\n1,2\n3,4,5\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "2"}, {"3", "4", "5"}}, rows)
}

func TestDataReader_ReadSheet_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cars.csv")
	content := "CarName,fueltype,price\nalfa-romero giulia,gas,13495\nvolvo 145e (sw),diesel,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reader := NewDataReader(path)
	assert.Equal(t, path, reader.Path())

	sheet, err := reader.ReadSheet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, sheet.Source)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "volvo 145e (sw)", sheet.Rows[1]["CarName"])
	assert.Equal(t, "", sheet.Rows[1]["price"])
}

func TestDataReader_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "nope.xlsx")).ReadSheet(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "XLSX file not found")
}

func TestDataReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDataReader("cars.csv").ReadSheet(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteRecords_RoundTrip(t *testing.T) {
	records := []car.Record{
		car.NewRecord(0,
			map[car.Field]string{car.FieldManufacturer: "audi", car.FieldFuelType: "petrol"},
			map[car.Field]car.Number{car.FieldPrice: car.Defined(13950), car.FieldHorsepower: car.Defined(102)}),
		car.NewRecord(1,
			map[car.Field]string{car.FieldManufacturer: "volvo", car.FieldFuelType: "diesel"},
			map[car.Field]car.Number{car.FieldPrice: car.Defined(22470)}),
	}
	fields := []car.Field{car.FieldManufacturer, car.FieldFuelType, car.FieldPrice, car.FieldHorsepower}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, records, fields))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ExportSheet}, f.GetSheetList())
	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"manufacturer", "fueltype", "price", "horsepower"}, rows[0])
	assert.Equal(t, []string{"audi", "petrol", "13950", "102"}, rows[1])
	assert.Equal(t, []string{"volvo", "diesel", "22470"}, trimTrailing(rows[2]))

	// the exported workbook reads back as a sheet
	sheet := SheetFromRows("export.xlsx", rows)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "", sheet.Rows[1]["horsepower"])
}

func TestWriteRecords_WideExport(t *testing.T) {
	fields := ExportFields()
	require.Greater(t, len(fields), 26, "export must span past column Z")

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, nil, fields))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	last, err := excelize.CoordinatesToCellName(len(fields), 1)
	require.NoError(t, err)
	got, err := f.GetCellValue(ExportSheet, last)
	require.NoError(t, err)
	assert.Equal(t, string(fields[len(fields)-1]), got)

	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "an empty export holds only the header")
}

func TestExportFields_CoversCatalog(t *testing.T) {
	fields := ExportFields()
	assert.Len(t, fields, len(car.Columns))
	assert.Equal(t, car.FieldManufacturer, fields[0])
	assert.Contains(t, fields, car.FieldSymbolingBinned)
}

func trimTrailing(row []string) []string {
	for len(row) > 0 && row[len(row)-1] == "" {
		row = row[:len(row)-1]
	}
	return row
}
