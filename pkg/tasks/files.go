package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/document"
	"github.com/easy-dataset/easy-dataset/pkg/domaintree"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/eventbus"
	"github.com/easy-dataset/easy-dataset/pkg/splitter"
	"github.com/easy-dataset/easy-dataset/pkg/types"
)

const (
	FILE_STAGE_PROBING     = "probing"
	FILE_STAGE_PROCESSING  = "processing"
	FILE_STAGE_DOMAIN_TREE = "domain-tree"
	FILE_STAGE_COMPLETED   = "completed"
)

// fileJob 一次 pdf-processing / text-processing 任务的运行状态
type fileJob struct {
	task     types.Task
	note     types.FileProcessingNote
	settings types.TaskConfig
	filesDir string
	pdf      document.Strategy
	llm      ai.LLM
	vision   *types.ModelConfig
	pages    map[string]int
	detail   *types.PdfTaskProgress
}

func (r *Runner) processFiles(ctx context.Context, rep *Reporter) (types.TaskDetail, error) {
	job, err := r.prepareFiles(ctx, rep.Task())
	if err != nil {
		return job.detail, err
	}
	detail := job.detail

	total := r.probePages(job)
	rep.SetTotal(int64(total))
	detail.TotalPages = total
	if err = rep.Progress(ctx, 0, detail); err != nil {
		return detail, err
	}

	var (
		completed int
		tocs      []string
	)
	detail.Stage = FILE_STAGE_PROCESSING
	for _, file := range job.note.FileList {
		if err = rep.Alive(ctx); err != nil {
			return detail, err
		}
		detail.CurrentFile = file.FileName

		toc, err := r.processFile(ctx, rep, job, file, completed)
		if aborted(ctx, err) {
			return detail, ErrAborted
		}
		detail.ProcessedFiles++
		if err != nil {
			slog.Error("failed to process file",
				slog.String("task_id", job.task.ID),
				slog.String("file", file.FileName),
				slog.String("error", err.Error()))
			detail.Errors = append(detail.Errors, err.Error())
		} else {
			tocs = append(tocs, toc)
			completed += job.pages[file.FileID]
			detail.Finished = append(detail.Finished, file.FileName)
		}
		detail.ProcessedPages = completed
		if err = rep.Progress(ctx, int64(completed), detail); err != nil {
			return detail, err
		}
	}

	detail.CurrentFile = ""
	// 没有任何文件成功时不触碰标签树
	if len(tocs) == 0 {
		return detail, NoFileProcessedError(detail.Errors)
	}

	detail.Stage = FILE_STAGE_DOMAIN_TREE
	action := job.note.DomainTreeAction
	tags, err := r.deps.DomainTree.Handle(ctx, domaintree.Request{
		ProjectID: job.task.ProjectID,
		TOC:       strings.Join(tocs, "\n\n"),
		Action:    action,
		Language:  job.task.Language,
		LLM:       job.llm,
	})
	if aborted(ctx, err) {
		return detail, ErrAborted
	}
	if action != types.DOMAIN_TREE_KEEP && (err != nil || tags == nil) {
		return detail, DomainTreeError(err)
	}

	detail.Stage = FILE_STAGE_COMPLETED
	detail.Summary = fmt.Sprintf("processed %d files, %d succeeded, %d failed",
		len(job.note.FileList), len(detail.Finished), len(detail.Errors))
	return detail, nil
}

// prepareFiles 校验参数与配置，任何副作用发生前失败
func (r *Runner) prepareFiles(ctx context.Context, task types.Task) (*fileJob, error) {
	job := &fileJob{
		task:   task,
		detail: &types.PdfTaskProgress{Stage: FILE_STAGE_PROBING, Finished: []string{}, Errors: []string{}},
	}
	note, err := decodeNote[types.FileProcessingNote](task)
	if err != nil {
		return job, err
	}
	if task.ProjectID == "" || len(note.FileList) == 0 {
		return job, errors.Parameter("projectId and fileList are required")
	}
	if note.DomainTreeAction == "" {
		note.DomainTreeAction = types.DOMAIN_TREE_REBUILD
	}
	switch note.DomainTreeAction {
	case types.DOMAIN_TREE_REBUILD, types.DOMAIN_TREE_APPEND, types.DOMAIN_TREE_KEEP:
	default:
		return job, errors.Parameter("unsupported domain tree action %q", note.DomainTreeAction)
	}
	job.note = note
	job.detail.TotalFiles = len(note.FileList)

	if job.settings, err = r.settings(ctx, task.ProjectID); err != nil {
		return job, err
	}
	job.filesDir = r.deps.FilesDir(task.ProjectID)

	// keep 不需要文本模型
	if note.DomainTreeAction != types.DOMAIN_TREE_KEEP {
		if job.llm, _, err = r.taskLLM(task); err != nil {
			return job, err
		}
	}

	if task.TaskType == types.TASK_TYPE_PDF_PROCESSING {
		if job.pdf, err = r.deps.NewStrategy(note.Strategy, r.deps.Documents); err != nil {
			return job, err
		}
		switch note.Strategy {
		case types.PDF_STRATEGY_VISION:
			if job.vision, err = task.Model(); err != nil {
				return job, errors.Configuration("invalid model info: %s", err)
			}
			if note.VisionModelID != "" {
				if job.vision, err = r.deps.Models.Get(ctx, task.ProjectID, note.VisionModelID); err != nil {
					return job, errors.Kind(errors.ErrConfiguration, err, "vision model %s", note.VisionModelID)
				}
			}
			if err = document.ValidateVisionModel(job.vision); err != nil {
				return job, err
			}
		case types.PDF_STRATEGY_MINERU:
			if job.settings.MinerUToken == "" {
				return job, errors.Configuration("mineru token is not configured")
			}
		}
	}
	return job, nil
}

// probePages 统计总页数，探测失败的文件不计入总数
func (r *Runner) probePages(job *fileJob) int {
	job.pages = make(map[string]int, len(job.note.FileList))
	total := 0
	for _, file := range job.note.FileList {
		n := 1
		if document.IsPDF(file.FileName) {
			var err error
			n, err = r.deps.PageCount(filepath.Join(job.filesDir, file.FileName))
			if err != nil {
				slog.Warn("failed to probe page count",
					slog.String("task_id", job.task.ID),
					slog.String("error", PageCountProbeError(file.FileName, err).Error()))
				continue
			}
		}
		job.pages[file.FileID] = n
		total += n
	}
	return total
}

// processFile 转换并切分单个文件，返回该文件的目录
func (r *Runner) processFile(ctx context.Context, rep *Reporter, job *fileJob, file types.TaskFile, completed int) (string, error) {
	strategy := document.ForFile(job.pdf, file.FileName)
	result := strategy.Process(ctx, document.Request{
		TaskID:    job.task.ID,
		ProjectID: job.task.ProjectID,
		FileName:  file.FileName,
		FilesDir:  job.filesDir,
		Language:  job.task.Language,
		Model:     job.vision,
		Settings:  job.settings,
		OnProgress: func(current, total int) {
			// 只有探测到页数的文件才按页推进
			if job.pages[file.FileID] != total {
				return
			}
			job.detail.ProcessedPages = completed + current
			_ = rep.Progress(ctx, int64(completed+current), job.detail)
		},
	})
	if err := context.Cause(ctx); err != nil {
		return "", err
	}
	if !result.Success {
		return "", StrategyProcessingError(file.FileName, result.Err())
	}

	split, err := r.deps.Splitter.SplitProjectFile(ctx, job.task.ProjectID, file, result.Data.MarkdownPath, splitter.OptionsFromSettings(job.settings))
	if err != nil {
		return "", SplitError(file.FileName, err)
	}

	eventbus.PublishPayload(ctx, r.deps.Bus, eventbus.KindFileReady, job.task.ProjectID, job.task.ID, eventbus.FileReady{
		FileID:   file.FileID,
		FileName: file.FileName,
		Chunks:   split.TotalChunks,
	})
	slog.Info("file processed",
		slog.String("task_id", job.task.ID),
		slog.String("file", file.FileName),
		slog.String("strategy", strategy.Name()),
		slog.Int("chunks", split.TotalChunks))
	return split.TOC, nil
}
