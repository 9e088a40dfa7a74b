package service

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportDocument_RentRoll(t *testing.T) {
	doc := &models.Document{
		ID:           42,
		DocumentType: models.DocTypeRentRoll,
		ExtractedData: []byte(`{
			"property_name": "Main St Plaza",
			"as_of_date": "2026-06-30",
			"units": [
				{"unit": "101", "tenant": "Coffee Co", "monthly_rent": 2400},
				{"unit": "102", "tenant": "", "monthly_rent": 0}
			],
			"totals": {"occupied_units": 1, "vacant_units": 1}
		}`),
	}

	svc := NewExportService()
	content, fileName, err := svc.ExportDocument(doc)
	require.NoError(t, err)
	assert.Equal(t, "rent_roll_42.xlsx", fileName)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, "Summary")
	assert.Contains(t, sheets, "Units")

	rows, err := f.GetRows("Summary")
	require.NoError(t, err)

	// Skaler ve düzleştirilmiş alanlar Summary'de
	flat := map[string]string{}
	for _, row := range rows[1:] {
		if len(row) >= 2 {
			flat[row[0]] = row[1]
		}
	}
	assert.Equal(t, "Main St Plaza", flat["property_name"])
	assert.Equal(t, "1", flat["totals.occupied_units"])

	unitRows, err := f.GetRows("Units")
	require.NoError(t, err)
	require.Len(t, unitRows, 3)
	// Başlıklar alfabetik sırada
	assert.Equal(t, []string{"monthly_rent", "tenant", "unit"}, unitRows[0])
	assert.Equal(t, "Coffee Co", unitRows[1][1])
}

func TestExportDocument_ScalarArray(t *testing.T) {
	doc := &models.Document{
		ID:           7,
		DocumentType: models.DocTypeOfferingMemo,
		ExtractedData: []byte(`{
			"property_name": "Oak Tower",
			"highlights": ["corner lot", "new roof"]
		}`),
	}

	svc := NewExportService()
	content, _, err := svc.ExportDocument(doc)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Highlights")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "corner lot", rows[1][0])
}

func TestExportDocument_InvalidJSON(t *testing.T) {
	doc := &models.Document{ID: 1, DocumentType: models.DocTypeRentRoll, ExtractedData: []byte("not json")}

	_, _, err := NewExportService().ExportDocument(doc)
	assert.Error(t, err)
}

func TestSheetName_CapitalizesAndCapsAtRuneBoundary(t *testing.T) {
	assert.Equal(t, "Rent Roll", sheetName("rent_roll"))
	assert.Equal(t, "Operating Statement", sheetName("operating_statement"))

	// 31 karakter sınırı rune sınırından kesilir, geçersiz UTF-8 oluşmaz
	long := sheetName(strings.Repeat("ü", 40))
	assert.Equal(t, 31, len([]rune(long)))
	assert.True(t, utf8.ValidString(long))
}
