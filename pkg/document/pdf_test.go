package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestPDF 生成每页一行文本的最小 PDF
func writeTestPDF(t *testing.T, path string, pages []string) {
	t.Helper()

	n := len(pages)
	fontID := 3 + 2*n
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, 0, n)
	for i := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+2*i))
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))

	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 20 100 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 300 200] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>", 4+2*i, fontID),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestPageCount(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "a.pdf")
	writeTestPDF(t, pdf, []string{"one", "two", "three"})

	n, err := PageCount(pdf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	md := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(md, []byte("# b"), 0o644))
	n, err = PageCount(md)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = PageCount(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}

func TestDefaultStrategy(t *testing.T) {
	dir := t.TempDir()
	writeTestPDF(t, filepath.Join(dir, "doc.pdf"), []string{"Hello first page", "Hello second page"})

	var progress [][2]int
	res := NewDefaultStrategy().Process(t.Context(), Request{
		FileName: "doc.pdf",
		FilesDir: dir,
		OnProgress: func(current, total int) {
			progress = append(progress, [2]int{current, total})
		},
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "doc.md", res.Data.MarkdownName)
	assert.Equal(t, 2, res.Data.Pages)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}}, progress)

	raw, err := os.ReadFile(filepath.Join(dir, "doc.md"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Hello first page")
	assert.Contains(t, string(raw), "Hello second page")
}

func TestDefaultStrategyMissingFile(t *testing.T) {
	res := NewDefaultStrategy().Process(t.Context(), Request{FileName: "nope.pdf", FilesDir: t.TempDir()})
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Error(t, res.Err())
}
