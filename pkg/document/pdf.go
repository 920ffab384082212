package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/samber/lo"
)

const renderDPI = 150

// PageCount 探测 PDF 页数，非 PDF 文件按 1 页计
func PageCount(path string) (int, error) {
	if !IsPDF(path) {
		if _, err := os.Stat(path); err != nil {
			return 0, err
		}
		return 1, nil
	}
	doc, err := fitz.New(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// extractPDFMarkdown 逐页提取文本，并用 PDF 书签还原标题层级
func extractPDFMarkdown(path string, onPage func(current, total int)) (string, int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	// 没有书签的 PDF 直接输出纯文本
	outline, _ := doc.ToC()
	headings := lo.GroupBy(outline, func(o fitz.Outline) int {
		return o.Page
	})

	total := doc.NumPage()
	pages := make([]string, 0, total)
	for i := 0; i < total; i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", 0, fmt.Errorf("extract page %d: %w", i+1, err)
		}
		pages = append(pages, markHeadings(text, headings[i]))
		if onPage != nil {
			onPage(i+1, total)
		}
	}
	return strings.Join(pages, "\n\n"), total, nil
}

func markHeadings(text string, outlines []fitz.Outline) string {
	if len(outlines) == 0 {
		return strings.TrimSpace(text)
	}
	lines := strings.Split(text, "\n")
	var prefix []string
	for _, o := range outlines {
		title := normalizeSpace(o.Title)
		if title == "" {
			continue
		}
		heading := strings.Repeat("#", lo.Clamp(o.Level, 1, 6)) + " " + title
		idx := lo.IndexOf(lo.Map(lines, func(l string, _ int) string {
			return strings.ToLower(normalizeSpace(l))
		}), strings.ToLower(title))
		if idx >= 0 {
			lines[idx] = heading
			continue
		}
		prefix = append(prefix, heading)
	}
	return strings.TrimSpace(strings.Join(append(prefix, lines...), "\n"))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// renderPages 将每一页渲染为 PNG 写入 dir，返回按页序排列的文件路径
func renderPages(path, dir string) ([]string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	files := make([]string, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImagePNG(i, renderDPI)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		name := filepath.Join(dir, fmt.Sprintf("page_%04d.png", i+1))
		if err = os.WriteFile(name, img, 0o644); err != nil {
			return nil, err
		}
		files = append(files, name)
	}
	return files, nil
}

func writeMarkdown(dir, name, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}
	return target, nil
}
