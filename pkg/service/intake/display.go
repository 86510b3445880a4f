/*
 * @Description: 按比例槽位统计已接受的图片
 * @Author: 安知鱼
 * @Date: 2026-10-13 09:20:14
 * @LastEditTime: 2026-10-15 17:02:38
 * @LastEditors: 安知鱼
 */
package intake

import (
	"fmt"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/constant"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
)

// SlotView 是比例网格中的一个槽位
type SlotView struct {
	Ratio     model.TargetRatio `json:"ratio"`
	Satisfied bool              `json:"satisfied"`
}

// DisplaySets 是由图片列表推导出的展示数据，每次列表变化后重新计算，不单独保存
type DisplaySets struct {
	Label               string                      `json:"label"`
	Description         string                      `json:"description"`
	Accept              string                      `json:"accept"`
	DisplayedRatios     []model.TargetRatio         `json:"displayedRatios"`
	DisplayedImages     []model.AcceptedImageRecord `json:"displayedImages"`
	SatisfiedLabels     []string                    `json:"satisfiedLabels"`
	MissingLabels       []string                    `json:"missingLabels"`
	EligibleForContinue []model.AcceptedImageRecord `json:"eligibleForContinue"`
	ContinueCount       int                         `json:"continueCount"`
	ContinueLabel       string                      `json:"continueLabel"`
	// AllRatiosUploaded 仅在设置了过滤条件且每个过滤比例都有合格图片时为 true
	AllRatiosUploaded bool       `json:"allRatiosUploaded"`
	Slots             []SlotView `json:"slots"`
	OpenSlot          string     `json:"openSlot,omitempty"`
}

// ContinueResult 是 Continue 的输出，Close 表示弹窗模式下应关闭
type ContinueResult struct {
	Images []model.AcceptedImageRecord `json:"images"`
	Close  bool                        `json:"close"`
}

// displayedRatios 按过滤条件筛选比例，过滤条件为空时返回全部
func (w *Widget) displayedRatios() []model.TargetRatio {
	if len(w.cfg.RatioFilter) == 0 {
		return w.cfg.Ratios
	}
	filter := toSet(w.cfg.RatioFilter)
	ratios := make([]model.TargetRatio, 0, len(w.cfg.Ratios))
	for _, r := range w.cfg.Ratios {
		if _, ok := filter[r.Label]; ok {
			ratios = append(ratios, r)
		}
	}
	return ratios
}

// ComputeDisplaySets 计算展示集合，是纯函数
func (w *Widget) ComputeDisplaySets(state model.IntakeState) DisplaySets {
	hasFilter := len(w.cfg.RatioFilter) > 0
	filter := toSet(w.cfg.RatioFilter)

	sets := DisplaySets{
		Label:               w.cfg.Label,
		Description:         w.cfg.Description,
		Accept:              w.AcceptFilter(),
		DisplayedRatios:     w.displayedRatios(),
		DisplayedImages:     []model.AcceptedImageRecord{},
		SatisfiedLabels:     []string{},
		MissingLabels:       []string{},
		EligibleForContinue: []model.AcceptedImageRecord{},
		OpenSlot:            state.OpenSlot,
	}

	satisfied := make(map[string]struct{})
	for _, img := range state.Images {
		_, inFilter := filter[img.ResolvedLabel]
		if !hasFilter || inFilter {
			sets.DisplayedImages = append(sets.DisplayedImages, img)
		}
		if img.IsValid {
			if _, seen := satisfied[img.ResolvedLabel]; !seen {
				satisfied[img.ResolvedLabel] = struct{}{}
				sets.SatisfiedLabels = append(sets.SatisfiedLabels, img.ResolvedLabel)
			}
		}

		switch {
		case hasFilter:
			if inFilter && img.IsValid {
				sets.EligibleForContinue = append(sets.EligibleForContinue, img)
			}
		case w.cfg.IncludeInvalidRatios || img.IsValid:
			sets.EligibleForContinue = append(sets.EligibleForContinue, img)
		}
	}

	for _, label := range w.cfg.RatioFilter {
		if _, ok := satisfied[label]; !ok {
			sets.MissingLabels = append(sets.MissingLabels, label)
		}
	}

	for _, r := range sets.DisplayedRatios {
		_, ok := satisfied[r.Label]
		sets.Slots = append(sets.Slots, SlotView{Ratio: r, Satisfied: ok})
	}

	sets.AllRatiosUploaded = hasFilter && len(sets.MissingLabels) == 0
	sets.ContinueCount = len(sets.EligibleForContinue)
	sets.ContinueLabel = ContinueLabel(sets.ContinueCount)
	return sets
}

// Continue 返回可继续提交的图片，不清空列表。
// 没有可提交图片时提示并返回 ErrNoEligibleImages。
func (w *Widget) Continue(state model.IntakeState) (ContinueResult, error) {
	sets := w.ComputeDisplaySets(state)
	if sets.ContinueCount == 0 {
		w.notify(NoticeWarning, w.cfg.EmptyContinueMessage)
		return ContinueResult{}, fmt.Errorf("%w: %s", constant.ErrNoEligibleImages, w.cfg.EmptyContinueMessage)
	}
	return ContinueResult{Images: sets.EligibleForContinue, Close: w.cfg.ShowAsModal}, nil
}

func toSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[l] = struct{}{}
	}
	return set
}
