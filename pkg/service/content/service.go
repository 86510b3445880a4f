/*
 * @Description: 内容表单服务：校验、组装 multipart 并提交到内容后端
 * @Author: 安知鱼
 * @Date: 2026-10-18 17:26:44
 * @LastEditTime: 2026-10-19 11:05:18
 * @LastEditors: 安知鱼
 */
package content

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/infra/backend"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/parser"
	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/strutil"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/repository"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/idgen"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/draft"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/intake"

	"golang.org/x/sync/errgroup"
)

// 并发读取暂存文件的上限
const fetchConcurrency = 4

// 预览摘要长度
const excerptLength = 120

// Submitter 是内容后端的提交接口
type Submitter interface {
	Submit(ctx context.Context, method, path string, form *backend.Form) (*backend.Result, error)
}

// Preview 是草稿的渲染预览
type Preview struct {
	Kind    Kind           `json:"kind"`
	Title   string         `json:"title"`
	HTML    string         `json:"html"`
	Excerpt string         `json:"excerpt"`
	Images  map[string]int `json:"images"`
}

// Service 定义了内容表单服务的接口
type Service interface {
	Forms() ([]FormView, error)
	CreateDraft(ctx context.Context, kind, recordID string) (*model.Draft, error)
	SetFields(ctx context.Context, draftID string, fields map[string]string) (*model.Draft, error)
	BuildForm(ctx context.Context, d *model.Draft) (*backend.Form, error)
	Preview(ctx context.Context, draftID string) (*Preview, error)
	Submit(ctx context.Context, draftID string) (*model.Submission, error)
	ListSubmissions(ctx context.Context, opts model.ListSubmissionsOptions) ([]*model.Submission, int64, error)
	GetSubmission(ctx context.Context, publicID string) (*model.Submission, error)
}

type contentService struct {
	registry  *Registry
	drafts    draft.Service
	submitter Submitter
	repo      repository.SubmissionRepository
	bus       *event.EventBus
}

// NewService 创建内容表单服务
func NewService(registry *Registry, drafts draft.Service, submitter Submitter, repo repository.SubmissionRepository, bus *event.EventBus) Service {
	return &contentService{
		registry:  registry,
		drafts:    drafts,
		submitter: submitter,
		repo:      repo,
		bus:       bus,
	}
}

func (s *contentService) Forms() ([]FormView, error) {
	return s.registry.Views()
}

func (s *contentService) CreateDraft(ctx context.Context, kind, recordID string) (*model.Draft, error) {
	f, err := s.registry.Form(kind)
	if err != nil {
		return nil, err
	}
	if recordID != "" && !f.Editable {
		return nil, fmt.Errorf("%w: %s 表单不支持编辑", constant.ErrBadRequest, f.Title)
	}
	return s.drafts.Create(ctx, kind, recordID)
}

func (s *contentService) SetFields(ctx context.Context, draftID string, fields map[string]string) (*model.Draft, error) {
	for name := range fields {
		if err := ValidateFieldName(name); err != nil {
			return nil, err
		}
	}
	return s.drafts.SetFields(ctx, draftID, fields)
}

// fileEntry 是一个待读取的暂存文件
type fileEntry struct {
	key    string
	record model.AcceptedImageRecord
	data   []byte
}

// planFiles 按分组规则决定要提交的图片：
// 单图分组每个比例只取第一张，多图分组取该比例全部，展开分组按列表顺序全部提交
func (s *contentService) planFiles(f *Form, d *model.Draft) ([]*fileEntry, error) {
	var entries []*fileEntry
	for _, g := range f.Groups {
		state, ok := d.Group(g.Name)
		if !ok || state == nil || len(state.Images) == 0 {
			continue
		}
		w, err := s.registry.Widget(d.Kind, g.Name)
		if err != nil {
			return nil, err
		}
		sets := w.ComputeDisplaySets(*state)

		if g.FlattenAs != "" {
			for _, img := range sets.EligibleForContinue {
				entries = append(entries, &fileEntry{key: f.ListFieldName(g.FlattenAs), record: img})
			}
			continue
		}

		for _, r := range sets.DisplayedRatios {
			key := intake.FieldKey(g.Name, r.Label)
			for _, img := range sets.EligibleForContinue {
				if img.ResolvedLabel != r.Label {
					continue
				}
				if g.Multiple {
					entries = append(entries, &fileEntry{key: f.ListFieldName(key), record: img})
					continue
				}
				entries = append(entries, &fileEntry{key: f.FieldName(key), record: img})
				break
			}
		}
	}
	return entries, nil
}

func (s *contentService) BuildForm(ctx context.Context, d *model.Draft) (*backend.Form, error) {
	f, err := s.registry.Form(d.Kind)
	if err != nil {
		return nil, err
	}
	entries, err := s.planFiles(f, d)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			data, err := s.drafts.ReadStaged(gctx, entry.record)
			if err != nil {
				return fmt.Errorf("读取图片 %s 失败: %w", entry.record.DisplayName, err)
			}
			entry.data = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	form := &backend.Form{}
	for _, kv := range f.textFields(d.Fields, parser.SanitizeUGC) {
		form.Add(kv[0], kv[1])
	}
	for _, entry := range entries {
		form.AddFile(entry.key, entry.record.File.Name, entry.record.File.MimeType, entry.data)
	}
	return form, nil
}

func (s *contentService) Preview(ctx context.Context, draftID string) (*Preview, error) {
	d, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	f, err := s.registry.Form(d.Kind)
	if err != nil {
		return nil, err
	}

	html, err := parser.MarkdownToHTML(d.Fields[f.BodyField])
	if err != nil {
		return nil, fmt.Errorf("渲染预览失败: %w", err)
	}
	p := &Preview{
		Kind:    f.Kind,
		Title:   d.Fields[f.TitleField],
		HTML:    html,
		Excerpt: strutil.Truncate(strings.TrimSpace(parser.StripHTML(html)), excerptLength),
		Images:  map[string]int{},
	}
	for name, state := range d.Groups {
		if state != nil {
			p.Images[name] = len(state.Images)
		}
	}
	return p, nil
}

// Submit 校验并提交草稿。成功后删除草稿；失败时保留草稿以便重试，错误链中带有 *backend.UpstreamError。
func (s *contentService) Submit(ctx context.Context, draftID string) (*model.Submission, error) {
	d, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	f, err := s.registry.Form(d.Kind)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(d.Fields); err != nil {
		return nil, err
	}

	form, err := s.BuildForm(ctx, d)
	if err != nil {
		return nil, err
	}

	method, path := f.Endpoint(d.RecordID)
	sub := &model.Submission{DraftID: d.ID, RecordID: d.RecordID, Kind: d.Kind, Method: method, Endpoint: path}
	if s.repo != nil {
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, err
		}
	}

	res, submitErr := s.submitter.Submit(ctx, method, path, form)

	// 提交结果必须落库，即使请求已经被取消
	settleCtx := context.WithoutCancel(ctx)
	if submitErr != nil {
		sub.Status = model.SubmissionFailed
		sub.Message = FailureMessage(submitErr)
		if upstream, ok := backend.AsUpstreamError(submitErr); ok {
			sub.HTTPStatus = upstream.Status
		}
		log.Printf("[Content] ⚠️ 草稿 %s 提交失败: %v", d.ID, submitErr)
	} else {
		sub.Status = model.SubmissionSucceeded
		sub.HTTPStatus = res.Status
		if sub.RecordID == "" {
			sub.RecordID = res.ID()
		}
	}
	if s.repo != nil && sub.ID != 0 {
		if err := s.repo.UpdateResult(settleCtx, sub.ID, sub.Status, sub.HTTPStatus, sub.Message); err != nil {
			log.Printf("[Content] ⚠️ 更新提交记录 %s 失败: %v", sub.PublicID, err)
		}
	}
	if s.bus != nil {
		s.bus.Publish(event.SubmissionSettled, *sub)
	}

	if submitErr != nil {
		return sub, submitErr
	}

	if err := s.drafts.Delete(settleCtx, d.ID); err != nil {
		log.Printf("[Content] ⚠️ 清理已提交草稿 %s 失败: %v", d.ID, err)
	}
	log.Printf("[Content] ✅ 草稿 %s 已提交到 %s %s", d.ID, method, path)
	return sub, nil
}

func (s *contentService) ListSubmissions(ctx context.Context, opts model.ListSubmissionsOptions) ([]*model.Submission, int64, error) {
	if s.repo == nil {
		return []*model.Submission{}, 0, nil
	}
	return s.repo.List(ctx, opts)
}

func (s *contentService) GetSubmission(ctx context.Context, publicID string) (*model.Submission, error) {
	if s.repo == nil {
		return nil, constant.ErrNotFound
	}
	id, err := idgen.DecodePublicID(publicID, idgen.EntityTypeSubmission)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// FailureMessage 返回提交失败时展示给用户的消息
func FailureMessage(err error) string {
	if upstream, ok := backend.AsUpstreamError(err); ok {
		if upstream.Message != "" {
			return "Error: " + upstream.Message
		}
		return "Submission failed"
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Submission failed"
	}
	return "Failed to submit the form. Please try again."
}
