package splitter

import (
	"bufio"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var headingRegexp = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)

type document struct {
	Title    string
	Preamble string
	Sections []section
}

// section 一个标题及其下属正文
type section struct {
	Level   int
	Heading string
	Path    string
	Content string
}

func (s section) text() string {
	head := strings.Repeat("#", s.Level) + " " + s.Heading
	if s.Content == "" {
		return head
	}
	return head + "\n\n" + s.Content
}

// parseMarkdown 按标题切分，跳过 frontmatter 与代码块中的 # 行
func parseMarkdown(content string) document {
	var (
		doc       document
		remaining = strings.ReplaceAll(content, "\r\n", "\n")
	)

	if strings.HasPrefix(remaining, "---\n") {
		if end := strings.Index(remaining[4:], "\n---"); end > 0 {
			fm := map[string]any{}
			if err := yaml.Unmarshal([]byte(remaining[4:4+end]), &fm); err == nil {
				if title, ok := fm["title"].(string); ok {
					doc.Title = title
				}
			}
			remaining = strings.TrimPrefix(remaining[4+end+4:], "\n")
		}
	}

	var (
		paths   []string
		levels  []int
		current *section
		body    strings.Builder
		inFence bool
	)
	flush := func() {
		text := strings.TrimSpace(body.String())
		body.Reset()
		if current == nil {
			doc.Preamble = text
			return
		}
		current.Content = text
		doc.Sections = append(doc.Sections, *current)
	}

	scanner := bufio.NewScanner(strings.NewReader(remaining))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
		}
		m := headingRegexp.FindStringSubmatch(line)
		if inFence || m == nil {
			body.WriteString(line)
			body.WriteString("\n")
			continue
		}

		flush()
		level := len(m[1])
		heading := strings.TrimSpace(m[2])
		for len(levels) > 0 && levels[len(levels)-1] >= level {
			paths = paths[:len(paths)-1]
			levels = levels[:len(levels)-1]
		}
		paths = append(paths, heading)
		levels = append(levels, level)
		current = &section{
			Level:   level,
			Heading: heading,
			Path:    strings.Join(paths, " > "),
		}
		if doc.Title == "" && level == 1 {
			doc.Title = heading
		}
	}
	flush()
	return doc
}
