package document

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
)

const TEXT_STRATEGY = "text"

// TextStrategy 非 PDF 文件直接读取，html/docx 先转换为 Markdown
type TextStrategy struct{}

func NewTextStrategy() *TextStrategy {
	return &TextStrategy{}
}

func (s *TextStrategy) Name() string {
	return TEXT_STRATEGY
}

func (s *TextStrategy) Process(ctx context.Context, req Request) Result {
	if err := ctx.Err(); err != nil {
		return Failed(err)
	}
	src := req.SourcePath()
	name := MarkdownName(req.FileName)

	if strings.EqualFold(filepath.Ext(req.FileName), ".md") {
		if _, err := os.Stat(src); err != nil {
			return Failed(err)
		}
		req.progress(1, 1)
		return Succeeded(&Output{MarkdownName: req.FileName, MarkdownPath: src, Pages: 1})
	}

	content, err := ConvertToMarkdown(src)
	if err != nil {
		return Failed(err)
	}
	path, err := writeMarkdown(req.FilesDir, name, content)
	if err != nil {
		return Failed(err)
	}
	req.progress(1, 1)
	return Succeeded(&Output{MarkdownName: name, MarkdownPath: path, Pages: 1})
}

// ForFile PDF 使用任务指定的策略，其它格式统一直接读取
func ForFile(pdf Strategy, fileName string) Strategy {
	if IsPDF(fileName) && pdf != nil {
		return pdf
	}
	return NewTextStrategy()
}

func ConvertToMarkdown(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	case ".html", ".htm":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		converter := md.NewConverter("", true, nil)
		return converter.ConvertString(string(raw))
	case ".docx":
		return docxToMarkdown(path)
	default:
		return "", errors.Parameter("unsupported file type %s", filepath.Ext(path))
	}
}

func docxToMarkdown(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		return wordXMLToMarkdown(rc)
	}
	return "", fmt.Errorf("docx without word/document.xml")
}

// wordXMLToMarkdown 只保留段落文本与标题层级
func wordXMLToMarkdown(r io.Reader) (string, error) {
	var (
		dec       = xml.NewDecoder(r)
		out       []string
		paragraph strings.Builder
		level     int
		inText    bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				paragraph.Reset()
				level = 0
			case "pStyle":
				level = headingLevel(attr(t, "val"))
			case "t":
				inText = true
			case "tab":
				paragraph.WriteString("\t")
			case "br":
				paragraph.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := strings.TrimSpace(paragraph.String())
				if text == "" {
					continue
				}
				if level > 0 {
					text = strings.Repeat("#", level) + " " + text
				}
				out = append(out, text)
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}
	return strings.Join(out, "\n\n"), nil
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// headingLevel 识别 Heading1 / heading 2 / Title 等样式
func headingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return 1
	}
	if !strings.HasPrefix(s, "heading") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "heading"))
	if err != nil || n < 1 {
		return 0
	}
	return min(n, 6)
}
