package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppmimesir/wisuda/internal/document"
	"github.com/ppmimesir/wisuda/internal/events"
	"github.com/ppmimesir/wisuda/internal/metrics"
	"github.com/ppmimesir/wisuda/internal/models"
)

//go:generate mockgen -source=confirmations.go -destination=mocks/mocks.go -package=mocks Renderer,Notifier

// MaxConfirmationAttempts is how many render attempts a registrant gets
// before the sweeper stops re-queueing it. Admin regeneration still works.
const MaxConfirmationAttempts = 12

// Renderer produces the confirmation PDF.
type Renderer interface {
	Render(ctx context.Context, in document.Input) ([]byte, error)
}

// Notifier delivers messages to a registrant's WhatsApp handle.
type Notifier interface {
	SendMessage(ctx context.Context, handle, text string) error
	SendFile(ctx context.Context, handle, filename string, file []byte, caption string) error
}

// Caption is the message sent with the confirmation document.
func Caption(r *models.Registrant) string {
	return fmt.Sprintf("Assalamu'alaikum %s. Pendaftaran wisuda Anda telah kami terima.\nNomor registrasi: %s",
		r.Name, r.DisplayRegID())
}

// Confirmations runs the render, upload, relink and notify tail for one job.
type Confirmations struct {
	store    *Store
	media    *MediaService
	renderer Renderer
	notifier Notifier
	metrics  *metrics.Metrics
	log      *zap.SugaredLogger
}

func NewConfirmations(store *Store, media *MediaService, renderer Renderer, notifier Notifier, m *metrics.Metrics, log *zap.SugaredLogger) *Confirmations {
	return &Confirmations{store: store, media: media, renderer: renderer, notifier: notifier, metrics: m, log: log}
}

// Process handles one confirmation job. A returned error means the job may be
// retried; a failed notification is logged and not returned since the
// document is already linked.
func (c *Confirmations) Process(ctx context.Context, job events.Confirmation) error {
	reg, err := c.store.FindByID(ctx, job.RegistrantID)
	if errors.Is(err, ErrNotFound) {
		c.log.Infow("confirmation skipped, registrant gone", "registrant_id", job.RegistrantID)
		return nil
	}
	if err != nil {
		return err
	}

	log := c.log.With("registrant_id", reg.ID, "reg_id", reg.DisplayRegID(), "reason", job.Reason)
	if job.Reason.FirstIssue() && reg.ConfirmationPDFID != nil {
		log.Infow("confirmation already linked, job dropped")
		return nil
	}
	if err := c.store.RecordAttempt(ctx, reg.ID, time.Now()); err != nil {
		log.Warnw("attempt not recorded", "err", err)
	}
	lc := newLifecycle(StatePersisted, log)
	failed := func(err error) error {
		stage := lc.fail(ctx)
		c.metrics.Failed(stage)
		log.Errorw("confirmation failed", "stage", stage, "attempt", job.Attempt, "err", err)
		return err
	}

	if err := lc.advance(ctx, EventRender); err != nil {
		return err
	}
	in := document.Input{Registrant: reg}
	if reg.SyahadahPhotoID != nil {
		b, _, err := c.media.Bytes(ctx, *reg.SyahadahPhotoID)
		if err != nil {
			log.Warnw("certificate photo unavailable, rendering without it", "media_id", *reg.SyahadahPhotoID, "err", err)
		} else {
			in.Certificate = b
		}
	}
	start := time.Now()
	pdf, err := c.renderer.Render(ctx, in)
	c.metrics.ObserveRender(start)
	if err != nil {
		return failed(err)
	}

	if err := lc.advance(ctx, EventUpload); err != nil {
		return err
	}
	filename := "konfirmasi-" + reg.DisplayRegID() + ".pdf"
	asset, err := c.media.Upload(ctx, models.MediaConfirmation, filename, pdf)
	if err != nil {
		return failed(err)
	}

	if err := lc.advance(ctx, EventRelink); err != nil {
		return err
	}
	prev, err := c.store.LinkConfirmation(ctx, reg.ID, reg.RegID, asset.ID)
	if err != nil {
		if derr := c.media.Delete(ctx, asset.ID); derr != nil {
			log.Warnw("orphaned confirmation asset", "media_id", asset.ID, "err", derr)
		}
		return failed(err)
	}
	if prev != nil && *prev != asset.ID {
		if err := c.media.Delete(ctx, *prev); err != nil && !errors.Is(err, ErrNotFound) {
			log.Warnw("old confirmation not removed", "media_id", *prev, "err", err)
		}
	}
	c.metrics.ConfirmationsDone.Inc()
	log.Infow("confirmation linked", "media_id", asset.ID)

	if !job.Notify {
		return nil
	}
	if err := c.notifier.SendFile(ctx, reg.WhatsApp, asset.Filename, pdf, Caption(reg)); err != nil {
		lc.fail(ctx)
		c.metrics.Notified(false)
		c.metrics.Failed("notify")
		log.Warnw("whatsapp delivery failed", "stage", "notify", "err", err)
		return nil
	}
	if err := lc.advance(ctx, EventNotify); err != nil {
		return err
	}
	c.metrics.Notified(true)
	log.Infow("confirmation sent", "state", lc.current())
	return nil
}
