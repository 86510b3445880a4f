package listener

import (
	"testing"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/event"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/service/draft"
	"github.com/stretchr/testify/assert"
)

func TestIntakeActivityListener(t *testing.T) {
	bus := event.NewEventBusWithSize(1, 16)
	l := NewIntakeActivityListener(bus)

	valid := model.AcceptedImageRecord{ID: "a", DisplayName: "cover.png", IsValid: true}
	invalid := model.AcceptedImageRecord{ID: "b", DisplayName: "square.png", IsValid: false}

	bus.Publish(event.IntakeAppended, draft.IntakeEvent{DraftID: "d1", Group: "cover_image", Record: valid, Images: []model.AcceptedImageRecord{valid}})
	bus.Publish(event.IntakeAppended, draft.IntakeEvent{DraftID: "d1", Group: "cover_image", Record: invalid, Images: []model.AcceptedImageRecord{valid, invalid}})
	bus.Publish(event.IntakeRemoved, draft.IntakeEvent{DraftID: "d1", Group: "cover_image", Record: invalid, Images: []model.AcceptedImageRecord{valid}})
	bus.Publish(event.DraftPurged, "d1")
	bus.Publish(event.SubmissionSettled, model.Submission{DraftID: "d1", Status: model.SubmissionSucceeded})
	bus.Publish(event.SubmissionSettled, model.Submission{DraftID: "d2", Status: model.SubmissionFailed, Message: "Submission failed"})
	// 类型不对的负载只记录日志
	bus.Publish(event.IntakeAppended, "oops")
	bus.Publish(event.DraftPurged, 42)
	bus.Shutdown()

	assert.Equal(t, ActivityStats{
		Appended:  2,
		Removed:   1,
		Invalid:   1,
		Purged:    1,
		Succeeded: 1,
		Failed:    1,
	}, l.Stats())
}
