package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/sefazor/proparse-backend/internal/models"
	"github.com/xuri/excelize/v2"
)

// ExportService, çıkarılan JSON veriyi indirilebilir bir Excel dosyasına çevirir
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportDocument, dokümanın çıkarılan verisini xlsx olarak üretir.
// Skaler alanlar Summary sayfasına, dizi alanlar kendi sayfalarına yazılır.
func (s *ExportService) ExportDocument(doc *models.Document) ([]byte, string, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(doc.ExtractedData, &data); err != nil {
		return nil, "", fmt.Errorf("failed to parse extracted data: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Summary")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", err
	}

	// Deterministik sıra için alanları sırala
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := 1
	f.SetCellValue("Summary", fmt.Sprintf("A%d", row), "Field")
	f.SetCellValue("Summary", fmt.Sprintf("B%d", row), "Value")
	f.SetCellStyle("Summary", fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	row++

	for _, key := range keys {
		value := data[key]
		switch v := value.(type) {
		case []interface{}:
			// Dizi alanlar kendi sayfalarına
			if err := s.writeArraySheet(f, headerStyle, key, v); err != nil {
				return nil, "", err
			}
		case map[string]interface{}:
			// İç içe objeler düzleştirilerek Summary'e yazılır
			nestedKeys := make([]string, 0, len(v))
			for nk := range v {
				nestedKeys = append(nestedKeys, nk)
			}
			sort.Strings(nestedKeys)
			for _, nk := range nestedKeys {
				f.SetCellValue("Summary", fmt.Sprintf("A%d", row), key+"."+nk)
				f.SetCellValue("Summary", fmt.Sprintf("B%d", row), cellValue(v[nk]))
				row++
			}
		default:
			f.SetCellValue("Summary", fmt.Sprintf("A%d", row), key)
			f.SetCellValue("Summary", fmt.Sprintf("B%d", row), cellValue(value))
			row++
		}
	}

	f.SetColWidth("Summary", "A", "A", 28)
	f.SetColWidth("Summary", "B", "B", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to write Excel file: %w", err)
	}

	fileName := fmt.Sprintf("%s_%d.xlsx", doc.DocumentType, doc.ID)
	return buf.Bytes(), fileName, nil
}

// writeArraySheet, obje dizilerini başlık satırlı tablo halinde yazar
func (s *ExportService) writeArraySheet(f *excelize.File, headerStyle int, name string, items []interface{}) error {
	sheet := sheetName(name)
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	// Başlıkları tüm satırlardaki alanların birleşiminden çıkar
	headerSet := map[string]bool{}
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			for k := range obj {
				headerSet[k] = true
			}
		}
	}

	headers := make([]string, 0, len(headerSet))
	for k := range headerSet {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	if len(headers) == 0 {
		// Skaler dizi: tek kolon
		f.SetCellValue(sheet, "A1", name)
		f.SetCellStyle(sheet, "A1", "A1", headerStyle)
		for i, item := range items {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", i+2), cellValue(item))
		}
		return nil
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for rowIdx, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		for col, header := range headers {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return err
			}
			f.SetCellValue(sheet, cell, cellValue(obj[header]))
		}
	}

	return nil
}

// cellValue, JSON değerlerini hücreye yazılabilir hale getirir
func cellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case map[string]interface{}, []interface{}:
		b, _ := json.Marshal(val)
		return string(b)
	default:
		return val
	}
}

// sheetName, alan adını Excel sayfa adı kurallarına uydurur (31 karakter)
func sheetName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			r[0] = unicode.ToUpper(r[0])
			words[i] = string(r)
		}
	}

	runes := []rune(strings.Join(words, " "))
	if len(runes) > 31 {
		runes = runes[:31]
	}
	return string(runes)
}
