package pdf

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
)

var (
	// /Pages düğümlerini değil sadece /Page objelerini yakala
	pageObjectRe = regexp.MustCompile(`/Type\s*/Page\b`)
	countRe      = regexp.MustCompile(`/Type\s*/Pages[^>]*?/Count\s+(\d+)`)
)

// CountPages, PDF içeriğindeki sayfa sayısını döner. Sayfa sayısı kredi
// maliyetine eşit olduğu için sıfır sayfalık bir sonuç hata kabul edilir.
func CountPages(data []byte) (int, error) {
	if !IsPDF(data) {
		return 0, errors.New("file is not a valid PDF")
	}

	// Önce page tree kökündeki /Count değerini dene
	if m := countRe.FindSubmatch(data); m != nil {
		if n, err := strconv.Atoi(string(m[1])); err == nil && n > 0 {
			return n, nil
		}
	}

	// Fallback: tek tek /Page objelerini say
	n := len(pageObjectRe.FindAll(data, -1))
	if n == 0 {
		return 0, errors.New("could not determine page count")
	}

	return n, nil
}

func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}
