package domaintree

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/easy-dataset/easy-dataset/pkg/ai"
	"github.com/easy-dataset/easy-dataset/pkg/distill"
	"github.com/easy-dataset/easy-dataset/pkg/errors"
	"github.com/easy-dataset/easy-dataset/pkg/types"
	"github.com/easy-dataset/easy-dataset/pkg/utils"
)

type TagStore interface {
	List(ctx context.Context, projectID string) ([]types.Tag, error)
	DeleteAll(ctx context.Context, projectID string) error
	BatchCreate(ctx context.Context, data []types.Tag) error
}

// Transactor 替换标签树时保证删除与写入在同一事务
type Transactor interface {
	Transaction(ctx context.Context, next func(ctx context.Context) error) error
}

type Request struct {
	ProjectID string
	TOC       string
	Action    string
	Language  string
	LLM       ai.LLM
}

type Builder struct {
	tags    TagStore
	tx      Transactor
	prompts *ai.PromptManager
}

func NewBuilder(tags TagStore, tx Transactor, prompts *ai.PromptManager) *Builder {
	return &Builder{
		tags:    tags,
		tx:      tx,
		prompts: lo.Ternary(prompts != nil, prompts, ai.NewPromptManager()),
	}
}

// Handle applies action to the project's domain tree. keep returns nil without
// error. For rebuild and append, a failed model call or unparsable reply is
// returned as an error and an empty tree as nil, nil; the stored tree is left
// untouched in both cases.
func (b *Builder) Handle(ctx context.Context, req Request) ([]*types.TagNode, error) {
	switch req.Action {
	case types.DOMAIN_TREE_KEEP:
		return nil, nil
	case "", types.DOMAIN_TREE_REBUILD, types.DOMAIN_TREE_APPEND:
	default:
		return nil, errors.Parameter("unknown domain tree action %q", req.Action)
	}
	if req.ProjectID == "" {
		return nil, errors.Parameter("projectId is required")
	}
	if req.LLM == nil {
		return nil, errors.Configuration("no model for domain tree")
	}

	lang := req.Language
	if lang == "" {
		lang = utils.DetectPromptLanguage(req.TOC)
	}

	var tpl *ai.PromptTemplate
	if req.Action == types.DOMAIN_TREE_APPEND {
		existing, err := b.tags.List(ctx, req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("list tags: %w", err)
		}
		raw, _ := json.Marshal(stripIDs(distill.NewTree(existing).Nested()))
		tpl = b.prompts.Template(ai.SCENE_DOMAIN_TREE_APPEND, lang).
			SetVar(ai.PROMPT_VAR_EXISTING_TAGS, string(raw))
	} else {
		tpl = b.prompts.Template(ai.SCENE_DOMAIN_TREE, lang)
	}
	tpl.SetVar(ai.PROMPT_VAR_TOC, req.TOC)

	answer, err := ai.GetResponse(ctx, req.LLM, tpl.Build())
	if err != nil {
		slog.Error("domain tree generation failed", slog.String("project_id", req.ProjectID), slog.String("error", err.Error()))
		return nil, errors.External(err, "generate domain tree")
	}
	nodes, err := ai.ParseJSON[[]*types.TagNode](answer)
	if err != nil {
		slog.Error("domain tree response is not valid json", slog.String("project_id", req.ProjectID), slog.String("error", err.Error()))
		return nil, errors.Parse(err, "parse domain tree")
	}
	nodes = cleanNodes(nodes)
	if len(nodes) == 0 {
		return nil, nil
	}

	tags := Flatten(req.ProjectID, nodes)
	err = b.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := b.tags.DeleteAll(ctx, req.ProjectID); err != nil {
			return err
		}
		return b.tags.BatchCreate(ctx, tags)
	})
	if err != nil {
		return nil, fmt.Errorf("save domain tree: %w", err)
	}
	return distill.NewTree(tags).Nested(), nil
}

func stripIDs(nodes []*types.TagNode) []*types.TagNode {
	return lo.Map(nodes, func(n *types.TagNode, _ int) *types.TagNode {
		return &types.TagNode{Label: n.Label, Child: stripIDs(n.Child)}
	})
}

// cleanNodes 去掉空标签，同级重复标签只保留第一个
func cleanNodes(nodes []*types.TagNode) []*types.TagNode {
	seen := map[string]bool{}
	var out []*types.TagNode
	for _, n := range nodes {
		if n == nil {
			continue
		}
		label := strings.TrimSpace(n.Label)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, &types.TagNode{Label: label, Child: cleanNodes(n.Child)})
	}
	return out
}

// Flatten assigns ids depth first and links children to their parents.
func Flatten(projectID string, nodes []*types.TagNode) []types.Tag {
	now := time.Now().Unix()
	var out []types.Tag
	var walk func(parentID string, list []*types.TagNode)
	walk = func(parentID string, list []*types.TagNode) {
		for _, n := range list {
			t := types.Tag{
				ID:        utils.GenUniqIDStr(),
				ProjectID: projectID,
				ParentID:  types.NewParentID(parentID),
				Label:     n.Label,
				CreatedAt: now,
			}
			out = append(out, t)
			walk(t.ID, n.Child)
		}
	}
	walk("", nodes)
	return out
}
