/*
 * @Description: 图片采集组件的数据模型
 * @Author: 安知鱼
 * @Date: 2026-10-12 11:40:18
 * @LastEditTime: 2026-10-14 09:12:55
 * @LastEditors: 安知鱼
 */
package model

import "time"

// TargetRatio 是一个可被选择的目标宽高比。
// Width/Height 只用于前端网格展示，不参与校验。
type TargetRatio struct {
	Label  string  `json:"label"`
	Ratio  float64 `json:"ratio"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// FileRef 指向原始（或裁剪后）的图片数据。
// 在草稿服务中 Source 是暂存对象的 key；库模式下可以为空，由调用方自己持有数据。
type FileRef struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Source   string `json:"source,omitempty"`
}

// 媒体类型
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// AcceptedImageRecord 是已接受的图片记录，一旦加入列表就不再修改。
type AcceptedImageRecord struct {
	ID             string    `json:"id"`
	DisplayName    string    `json:"name"`
	File           FileRef   `json:"file"`
	FileSizeMB     float64   `json:"size"`
	ResolvedLabel  string    `json:"ratio"`
	IsValid        bool      `json:"isValidRatio"`
	AcceptedAt     time.Time `json:"uploadTime"`
	PreviewDataURL string    `json:"preview"`
	Width          int       `json:"width,omitempty"`
	Height         int       `json:"height,omitempty"`
	MeasuredRatio  float64   `json:"measuredRatio,omitempty"`
	MediaType      string    `json:"mediaType"`
	PrimaryColor   string    `json:"primaryColor,omitempty"`
}

// Phase 描述一次选图交互所处的阶段
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseFileSelected   Phase = "file_selected"
	PhaseCroppingActive Phase = "cropping_active"
	PhaseCropCommitted  Phase = "crop_committed"
	PhaseCropCancelled  Phase = "crop_cancelled"
	PhaseDecoding       Phase = "decoding"
	PhaseValidated      Phase = "validated"
)

// IntakeState 是由调用方持有的组件状态。
// 组件操作按值接收并返回新的快照，不会修改传入的 Images 切片。
type IntakeState struct {
	Images   []AcceptedImageRecord `json:"images"`
	OpenSlot string                `json:"openSlot,omitempty"`
	Phase    Phase                 `json:"phase"`
}

// NewIntakeState 创建一个空闲状态，可选传入初始图片
func NewIntakeState(initial ...AcceptedImageRecord) IntakeState {
	images := make([]AcceptedImageRecord, len(initial))
	copy(images, initial)
	return IntakeState{Images: images, Phase: PhaseIdle}
}

// CloneImages 返回图片列表的副本
func (s IntakeState) CloneImages() []AcceptedImageRecord {
	images := make([]AcceptedImageRecord, len(s.Images))
	copy(images, s.Images)
	return images
}

// FindImage 按 ID 查找图片
func (s IntakeState) FindImage(id string) (AcceptedImageRecord, bool) {
	for _, img := range s.Images {
		if img.ID == id {
			return img, true
		}
	}
	return AcceptedImageRecord{}, false
}
