package splitter

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/easy-dataset/easy-dataset/pkg/types"
)

type Options struct {
	MinLength int
	MaxLength int
	// Overlap 仅用于超长段落的二次切分
	Overlap int
}

func OptionsFromSettings(cfg types.TaskConfig) Options {
	return Options{
		MinLength: cfg.TextSplitMinLength,
		MaxLength: cfg.TextSplitMaxLength,
		Overlap:   0,
	}
}

func (o Options) normalize() Options {
	d := types.DefaultTaskConfig()
	if o.MinLength <= 0 {
		o.MinLength = d.TextSplitMinLength
	}
	if o.MaxLength <= 0 {
		o.MaxLength = d.TextSplitMaxLength
	}
	if o.MaxLength < o.MinLength {
		o.MaxLength = o.MinLength
	}
	if o.Overlap < 0 || o.Overlap >= o.MaxLength {
		o.Overlap = 0
	}
	return o
}

type Chunk struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Summary string `json:"summary"`
	Size    int    `json:"size"`
}

type Result struct {
	TOC         string  `json:"toc"`
	Chunks      []Chunk `json:"chunks"`
	TotalChunks int     `json:"totalChunks"`
}

type piece struct {
	content  string
	sections []string
}

func (p piece) size() int {
	return utf8.RuneCountInString(p.content)
}

// Split 按标题切分 Markdown，再合并/拆分到 [MinLength, MaxLength] 区间。相同输入得到相同输出
func Split(fileName, content string, opts Options) (*Result, error) {
	opts = opts.normalize()
	doc := parseMarkdown(content)

	var pieces []piece
	if doc.Preamble != "" {
		pieces = append(pieces, piece{content: doc.Preamble, sections: []string{lo.CoalesceOrEmpty(doc.Title, fileName)}})
	}
	for _, s := range doc.Sections {
		pieces = append(pieces, piece{content: s.text(), sections: []string{s.Path}})
	}

	merged, err := mergePieces(pieces, opts)
	if err != nil {
		return nil, err
	}

	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	chunks := make([]Chunk, 0, len(merged))
	for i, p := range merged {
		chunks = append(chunks, Chunk{
			Name:    fmt.Sprintf("%s-part-%d", stem, i+1),
			Content: p.content,
			Summary: strings.Join(p.sections, ", "),
			Size:    p.size(),
		})
	}

	return &Result{
		TOC:         BuildTOC(doc),
		Chunks:      chunks,
		TotalChunks: len(chunks),
	}, nil
}

func mergePieces(pieces []piece, opts Options) ([]piece, error) {
	var (
		out []piece
		cur *piece
	)
	flush := func() {
		if cur != nil && strings.TrimSpace(cur.content) != "" {
			out = append(out, *cur)
		}
		cur = nil
	}

	for _, p := range pieces {
		if p.size() > opts.MaxLength {
			flush()
			parts, err := splitLarge(p.content, opts)
			if err != nil {
				return nil, err
			}
			for _, part := range parts {
				out = append(out, piece{content: part, sections: p.sections})
			}
			continue
		}
		if cur != nil && cur.size()+2+p.size() > opts.MaxLength {
			flush()
		}
		if cur == nil {
			c := p
			cur = &c
		} else {
			cur.content += "\n\n" + p.content
			cur.sections = lo.Uniq(append(cur.sections, p.sections...))
		}
		if cur.size() >= opts.MinLength {
			flush()
		}
	}
	flush()

	// 末尾过短的分块并入前一块
	if n := len(out); n > 1 && out[n-1].size() < opts.MinLength && out[n-2].size()+2+out[n-1].size() <= opts.MaxLength {
		out[n-2].content += "\n\n" + out[n-1].content
		out[n-2].sections = lo.Uniq(append(out[n-2].sections, out[n-1].sections...))
		out = out[:n-1]
	}
	return out, nil
}

func splitLarge(content string, opts Options) ([]string, error) {
	s := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(opts.MaxLength),
		textsplitter.WithChunkOverlap(opts.Overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", "。", ". ", "！", "？", " ", ""}),
	)
	parts, err := s.SplitText(content)
	if err != nil {
		return nil, fmt.Errorf("split oversized section: %w", err)
	}
	return lo.Filter(parts, func(p string, _ int) bool {
		return strings.TrimSpace(p) != ""
	}), nil
}

// BuildTOC 以缩进列表输出标题目录
func BuildTOC(doc document) string {
	lines := lo.Map(doc.Sections, func(s section, _ int) string {
		return strings.Repeat("  ", s.Level-1) + "- " + s.Heading
	})
	return strings.Join(lines, "\n")
}

// TOC returns the heading outline of a markdown document.
func TOC(content string) string {
	return BuildTOC(parseMarkdown(content))
}
