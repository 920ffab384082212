package document

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

const (
	DEFAULT_MINERU_ENDPOINT = "https://mineru.net"

	mineruStateDone   = "done"
	mineruStateFailed = "failed"
)

type MinerUOptions struct {
	Endpoint     string
	HTTPClient   *http.Client
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// MinerUStrategy 调用 MinerU 云端解析：申请上传地址 -> 上传 -> 轮询结果 -> 下载 zip 取 full.md
type MinerUStrategy struct {
	opts MinerUOptions
}

func NewMinerUStrategy(opts MinerUOptions) *MinerUStrategy {
	if opts.Endpoint == "" {
		opts.Endpoint = DEFAULT_MINERU_ENDPOINT
	}
	opts.Endpoint = strings.TrimSuffix(opts.Endpoint, "/")
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Minute
	}
	return &MinerUStrategy{opts: opts}
}

func (s *MinerUStrategy) Name() string {
	return types.PDF_STRATEGY_MINERU
}

type mineruResponse[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data"`
}

type mineruBatch struct {
	BatchID  string   `json:"batch_id"`
	FileURLs []string `json:"file_urls"`
}

type mineruExtractResult struct {
	FileName   string `json:"file_name"`
	State      string `json:"state"`
	ErrMsg     string `json:"err_msg"`
	FullZipURL string `json:"full_zip_url"`
	Progress   struct {
		ExtractedPages int `json:"extracted_pages"`
		TotalPages     int `json:"total_pages"`
	} `json:"extract_progress"`
}

type mineruBatchResult struct {
	BatchID       string                `json:"batch_id"`
	ExtractResult []mineruExtractResult `json:"extract_result"`
}

func (s *MinerUStrategy) Process(ctx context.Context, req Request) Result {
	token := req.Settings.MinerUToken
	if token == "" {
		return Failed(errors.Configuration("mineru token is not configured"))
	}

	raw, err := os.ReadFile(req.SourcePath())
	if err != nil {
		return Failed(err)
	}

	batch, err := s.requestUpload(ctx, token, req)
	if err != nil {
		return Failed(err)
	}
	if err = s.upload(ctx, batch.FileURLs[0], raw); err != nil {
		return Failed(err)
	}

	result, err := s.waitResult(ctx, token, batch.BatchID, req)
	if err != nil {
		return Failed(err)
	}

	content, err := s.downloadMarkdown(ctx, result.FullZipURL)
	if err != nil {
		return Failed(err)
	}

	name := MarkdownName(req.FileName)
	target, err := writeMarkdown(req.FilesDir, name, content)
	if err != nil {
		return Failed(err)
	}
	return Succeeded(&Output{MarkdownName: name, MarkdownPath: target, Pages: result.Progress.TotalPages})
}

func (s *MinerUStrategy) requestUpload(ctx context.Context, token string, req Request) (*mineruBatch, error) {
	body, _ := json.Marshal(map[string]any{
		"enable_formula": true,
		"enable_table":   true,
		"language":       lo.Ternary(types.IsEnglish(req.Language), "en", "ch"),
		"files": []map[string]any{{
			"name":    req.FileName,
			"is_ocr":  true,
			"data_id": uuid.NewString(),
		}},
	})

	var resp mineruResponse[mineruBatch]
	if err := s.doJSON(ctx, http.MethodPost, s.opts.Endpoint+"/api/v4/file-urls/batch", token, body, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 0 || len(resp.Data.FileURLs) == 0 {
		return nil, errors.External(nil, "mineru apply upload url failed: %s", resp.Msg)
	}
	return &resp.Data, nil
}

// upload 与 downloadMarkdown 只对预签名地址的传输做有限重试，解析任务本身失败即返回
func (s *MinerUStrategy) upload(ctx context.Context, url string, raw []byte) error {
	return retry.Do(func() error {
		r, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(raw))
		if err != nil {
			return retry.Unrecoverable(err)
		}
		resp, err := s.opts.HTTPClient.Do(r)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("upload status %d", resp.StatusCode)
		}
		return nil
	}, retry.Context(ctx), retry.Attempts(3), retry.Delay(time.Second), retry.LastErrorOnly(true))
}

// waitResult 指数退避轮询解析状态
func (s *MinerUStrategy) waitResult(ctx context.Context, token, batchID string, req Request) (*mineruExtractResult, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.opts.PollInterval
	policy.MaxInterval = 4 * s.opts.PollInterval
	policy.MaxElapsedTime = s.opts.PollTimeout

	var found *mineruExtractResult
	op := func() error {
		var resp mineruResponse[mineruBatchResult]
		if err := s.doJSON(ctx, http.MethodGet, s.opts.Endpoint+"/api/v4/extract-results/batch/"+batchID, token, nil, &resp); err != nil {
			return err
		}
		if resp.Code != 0 {
			return backoff.Permanent(errors.External(nil, "mineru query failed: %s", resp.Msg))
		}
		for i := range resp.Data.ExtractResult {
			item := resp.Data.ExtractResult[i]
			if item.FileName != req.FileName && len(resp.Data.ExtractResult) > 1 {
				continue
			}
			switch item.State {
			case mineruStateDone:
				found = &item
				return nil
			case mineruStateFailed:
				return backoff.Permanent(errors.External(nil, "mineru extract failed: %s", item.ErrMsg))
			default:
				if item.Progress.TotalPages > 0 {
					req.progress(item.Progress.ExtractedPages, item.Progress.TotalPages)
				}
				return fmt.Errorf("mineru state %s", item.State)
			}
		}
		return fmt.Errorf("mineru result not ready")
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, errors.External(err, "mineru extract")
	}
	return found, nil
}

func (s *MinerUStrategy) downloadMarkdown(ctx context.Context, url string) (string, error) {
	var raw []byte
	err := retry.Do(func() error {
		r, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		resp, err := s.opts.HTTPClient.Do(r)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("download status %d", resp.StatusCode)
		}
		raw, err = io.ReadAll(resp.Body)
		return err
	}, retry.Context(ctx), retry.Attempts(3), retry.Delay(time.Second), retry.LastErrorOnly(true))
	if err != nil {
		return "", errors.External(err, "mineru download result")
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open mineru zip: %w", err)
	}
	for _, f := range zr.File {
		if path.Base(f.Name) != "full.md" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		return string(content), err
	}
	return "", fmt.Errorf("full.md not found in mineru result")
}

func (s *MinerUStrategy) doJSON(ctx context.Context, method, url, token string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	r, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return backoff.Permanent(err)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	r.Header.Set("Content-Type", "application/json")

	resp, err := s.opts.HTTPClient.Do(r)
	if err != nil {
		return errors.External(err, "mineru request")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return backoff.Permanent(errors.Configuration("mineru token rejected"))
	}
	if resp.StatusCode >= 300 {
		return errors.External(nil, "mineru status %d", resp.StatusCode)
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Error("decode mineru response", slog.String("url", url), slog.String("error", err.Error()))
		return errors.Parse(err, "decode mineru response")
	}
	return nil
}
