package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/holdno/snowFlakeByGo"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/i18n"
)

var (
	// IdWorker 全局唯一id生成器实例
	idWorker *snowFlakeByGo.Worker
)

func init() {
	SetupIDWorker(1)
}

func SetupIDWorker(clusterID int64) {
	idWorker, _ = snowFlakeByGo.NewWorker(clusterID)
}

func GenUniqID() int64 {
	return idWorker.GetId()
}

func GenUniqIDStr() string {
	return strconv.FormatInt(GenUniqID(), 10)
}

func GenRandomID() string {
	return RandomStr(32)
}

// RandomStr 随机字符串
func RandomStr(l int) string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	seed := "1234567890qwertyuiopasdfghjklzxcvbnmQWERTYUIOPASDFGHJKLZXCVBNM"
	buf := make([]byte, l)
	for i := range buf {
		buf[i] = seed[r.Intn(len(seed))]
	}
	return string(buf)
}

// Random 生成 [min, max] 区间内的随机数
func Random(min, max int) int {
	if min >= max {
		return max
	}
	return min + rand.Intn(max-min+1)
}

func MD5(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func MD5Reader(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func BindArgsWithGin(c *gin.Context, req interface{}) error {
	err := c.ShouldBindWith(req, binding.Default(c.Request.Method, c.ContentType()))
	if err != nil {
		return errors.New(fmt.Sprintf("Gin.ShouldBindWith.%s.%s", c.Request.Method, c.Request.URL.Path), i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}
	return nil
}

// Language represents a language and its weight (priority)
type Language struct {
	Tag    string
	Weight float64
}

var acceptLanguageRe = regexp.MustCompile(`([a-zA-Z\-]+)(?:;q=([0-9\.]+))?`)

// ParseAcceptLanguage parses the Accept-Language header and returns a sorted list of languages by weight.
func ParseAcceptLanguage(header string) []Language {
	if header == "" {
		return []Language{}
	}

	var languages []Language
	for _, match := range acceptLanguageRe.FindAllStringSubmatch(header, -1) {
		weight := 1.0
		if match[2] != "" {
			if parsed, err := strconv.ParseFloat(match[2], 64); err == nil {
				weight = parsed
			}
		}
		languages = append(languages, Language{Tag: match[1], Weight: weight})
	}

	sort.SliceStable(languages, func(i, j int) bool {
		return languages[i].Weight > languages[j].Weight
	})

	return languages
}
