package services

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Registrant lifecycle states. persisted is the durable success state of the
// write path; the rest is the best-effort confirmation tail.
const (
	StateValidating   = "validating"
	StateQuotaChecked = "quota-checked"
	StateIDAssigned   = "id-assigned"
	StatePersisted    = "persisted"
	StateRendering    = "rendering"
	StateUploading    = "uploading"
	StateRelinked     = "relinked"
	StateNotified     = "notified"
	StateFailed       = "failed"
)

const (
	EventCheckQuota = "check_quota"
	EventAssignID   = "assign_id"
	EventPersist    = "persist"
	EventRender     = "render"
	EventUpload     = "upload"
	EventRelink     = "relink"
	EventNotify     = "notify"
	EventFail       = "fail"
)

// lifecycle tracks one registrant through the write path or the
// confirmation tail and logs every transition.
type lifecycle struct {
	fsm      *fsm.FSM
	failedAt string
}

func newLifecycle(initial string, log *zap.SugaredLogger) *lifecycle {
	l := &lifecycle{}
	l.fsm = fsm.NewFSM(
		initial,
		fsm.Events{
			{Name: EventCheckQuota, Src: []string{StateValidating}, Dst: StateQuotaChecked},
			{Name: EventAssignID, Src: []string{StateQuotaChecked}, Dst: StateIDAssigned},
			// updates skip quota and id assignment
			{Name: EventPersist, Src: []string{StateIDAssigned, StateValidating}, Dst: StatePersisted},
			{Name: EventRender, Src: []string{StatePersisted}, Dst: StateRendering},
			{Name: EventUpload, Src: []string{StateRendering}, Dst: StateUploading},
			{Name: EventRelink, Src: []string{StateUploading}, Dst: StateRelinked},
			{Name: EventNotify, Src: []string{StateRelinked}, Dst: StateNotified},
			{Name: EventFail, Src: []string{
				StateValidating, StateQuotaChecked, StateIDAssigned,
				StatePersisted, StateRendering, StateUploading, StateRelinked,
			}, Dst: StateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				log.Debugw("lifecycle transition", "event", e.Event, "from", e.Src, "to", e.Dst)
			},
			"before_" + EventFail: func(_ context.Context, e *fsm.Event) {
				l.failedAt = e.Src
			},
		},
	)
	return l
}

func (l *lifecycle) advance(ctx context.Context, event string) error {
	err := l.fsm.Event(ctx, event)
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}

// fail moves to failed and returns the state the failure happened in.
func (l *lifecycle) fail(ctx context.Context) string {
	if l.fsm.Current() == StateFailed {
		return l.failedAt
	}
	_ = l.fsm.Event(ctx, EventFail)
	return l.failedAt
}

func (l *lifecycle) current() string {
	return l.fsm.Current()
}
