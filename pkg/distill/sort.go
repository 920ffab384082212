package distill

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var labelNumberRegexp = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s+`)

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Chinese, collate.Loose)
)

// labelNumber 解析 "1.10 标签" 的序号部分，没有序号返回 nil
func labelNumber(label string) ([]int, string) {
	m := labelNumberRegexp.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return nil, strings.TrimSpace(label)
	}
	parts := strings.Split(m[1], ".")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, strings.TrimSpace(label)
		}
		nums = append(nums, n)
	}
	return nums, strings.TrimSpace(label[len(m[0]):])
}

// CompareLabels orders sibling labels: numbered labels first, compared segment
// by segment, then the rest by locale collation.
func CompareLabels(a, b string) int {
	na, ra := labelNumber(a)
	nb, rb := labelNumber(b)

	switch {
	case na != nil && nb == nil:
		return -1
	case na == nil && nb != nil:
		return 1
	case na != nil && nb != nil:
		if c := slices.Compare(na, nb); c != 0 {
			return c
		}
		return localeCompare(ra, rb)
	default:
		return localeCompare(a, b)
	}
}

func localeCompare(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	return collator.CompareString(a, b)
}

func SortLabels(labels []string) {
	slices.SortStableFunc(labels, CompareLabels)
}
