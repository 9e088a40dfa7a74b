package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalPDF(pages int) []byte {
	body := []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	body = append(body, []byte("2 0 obj\n<< /Type /Pages /Kids [] /Count "+itoa(pages)+" >>\nendobj\n")...)
	for i := 0; i < pages; i++ {
		body = append(body, []byte("3 0 obj\n<< /Type /Page /Parent 2 0 R >>\nendobj\n")...)
	}
	body = append(body, []byte("%%EOF\n")...)
	return body
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func TestCountPagesFromCount(t *testing.T) {
	n, err := CountPages(minimalPDF(3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCountPagesFallbackToPageObjects(t *testing.T) {
	// /Count olmadan sadece /Page objeleri
	data := []byte("%PDF-1.4\n<< /Type /Page >>\n<< /Type /Page >>\n")
	n, err := CountPages(data)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCountPagesDoesNotCountPagesNode(t *testing.T) {
	// /Pages düğümü tek başına sayfa değildir
	data := []byte("%PDF-1.4\n<< /Type /Pages /Kids [] >>\n<< /Type /Page >>\n")
	n, err := CountPages(data)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCountPagesRejectsNonPDF(t *testing.T) {
	_, err := CountPages([]byte("hello world"))
	assert.Error(t, err)
}

func TestCountPagesRejectsEmptyPDF(t *testing.T) {
	_, err := CountPages([]byte("%PDF-1.4\n%%EOF"))
	assert.Error(t, err)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n")))
	assert.False(t, IsPDF([]byte("PK\x03\x04")))
}
