package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ppmimesir/wisuda/internal/models"
)

const (
	certificatePage = 3
	certificateFrac = 0.7
	qrPage          = 1
	maxFetchBytes   = 20 << 20
)

// Field names on the confirmation template.
const (
	FieldRegID          = "reg_id"
	FieldType           = "registrant_type"
	FieldName           = "name"
	FieldNameArabic     = "name_arabic"
	FieldGender         = "gender"
	FieldEmail          = "email"
	FieldKekeluargaan   = "kekeluargaan"
	FieldPassport       = "passport_number"
	FieldUniversity     = "university"
	FieldEducationLevel = "education_level"
	FieldFaculty        = "faculty"
	FieldMajor          = "major"
	FieldWhatsApp       = "whatsapp"
	FieldPhone          = "phone"
)

// Input is one render request. Certificate holds the syahadah photo bytes, if any.
type Input struct {
	Registrant  *models.Registrant
	Certificate []byte
}

// Options configures a Renderer.
type Options struct {
	TemplateURL string
	FontURL     string
	FontDir     string
	HTTPClient  *http.Client
}

// Renderer produces confirmation PDFs.
type Renderer struct {
	engine Engine
	opts   Options
	httpc  *http.Client
	log    *zap.SugaredLogger

	fontOnce sync.Once
	fontOK   bool
}

func NewRenderer(engine Engine, opts Options, log *zap.SugaredLogger) *Renderer {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Renderer{engine: engine, opts: opts, httpc: httpc, log: log}
}

// FieldValues maps template field names to the registrant's values.
func FieldValues(r *models.Registrant) map[string]string {
	return map[string]string{
		FieldRegID:          r.DisplayRegID(),
		FieldType:           string(r.RegistrantType),
		FieldName:           r.Name,
		FieldNameArabic:     r.NameArabic,
		FieldGender:         r.GenderLabel(),
		FieldEmail:          r.Email,
		FieldKekeluargaan:   r.Kekeluargaan,
		FieldPassport:       r.PassportNumber,
		FieldUniversity:     r.University,
		FieldEducationLevel: r.EducationLevel,
		FieldFaculty:        r.Faculty,
		FieldMajor:          r.Major,
		FieldWhatsApp:       r.WhatsApp,
		FieldPhone:          r.Phone,
	}
}

// Render fills the template and returns the finished document. Only a
// template fetch or PDF processing error fails the render; a missing font,
// missing template fields and an unusable certificate image are logged and
// skipped.
func (r *Renderer) Render(ctx context.Context, in Input) ([]byte, error) {
	reg := in.Registrant
	log := r.log.With("registrant_id", reg.ID, "reg_id", reg.DisplayRegID())

	tpl, err := r.fetch(ctx, r.opts.TemplateURL)
	if err != nil {
		return nil, fmt.Errorf("fetch template: %w", err)
	}
	fontOK := r.ensureFont(ctx)

	names, err := r.engine.FieldNames(tpl)
	if err != nil {
		return nil, fmt.Errorf("read template fields: %w", err)
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	values := map[string]string{}
	for k, v := range FieldValues(reg) {
		if !present[k] {
			log.Infow("template field missing, skipped", "field", k)
			continue
		}
		values[k] = v
	}

	doc, err := r.engine.FillForm(tpl, values)
	if err != nil {
		// The engine cannot store a value it has no glyphs for, so the arabic
		// fields keep their template value on the retry.
		latin, dropped := withoutArabic(values)
		if len(dropped) == 0 {
			return nil, fmt.Errorf("fill form: %w", err)
		}
		log.Warnw("form fill failed with arabic text, retrying without it",
			"fields", dropped, "font_installed", fontOK, "err", err)
		if doc, err = r.engine.FillForm(tpl, latin); err != nil {
			return nil, fmt.Errorf("fill form: %w", err)
		}
	}

	if doc, err = r.engine.Lock(doc); err != nil {
		return nil, err
	}

	qr, err := QRCode(reg.DisplayRegID())
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	if doc, err = r.engine.Stamp(doc, Stamp{
		Page:    qrPage,
		Image:   qr,
		Anchor:  AnchorBottomRight,
		OffsetX: -40,
		OffsetY: 40,
		Scale:   0.4,
	}); err != nil {
		return nil, err
	}

	if len(in.Certificate) > 0 {
		doc, err = r.addCertificate(doc, in.Certificate, log)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (r *Renderer) addCertificate(doc, img []byte, log *zap.SugaredLogger) ([]byte, error) {
	mime, err := DetectImage(img)
	if err != nil {
		log.Warnw("certificate image skipped", "mime", mime, "err", err)
		return doc, nil
	}
	norm, w, h, err := normalizeImage(img, mime)
	if err != nil {
		log.Warnw("certificate image skipped", "mime", mime, "err", err)
		return doc, nil
	}

	pages, err := r.engine.PageCount(doc)
	if err != nil {
		return nil, err
	}
	if pages < certificatePage {
		if doc, err = r.engine.AppendPages(doc, certificatePage-pages); err != nil {
			return nil, err
		}
	}
	pw, ph, err := r.engine.PageSize(doc, certificatePage)
	if err != nil {
		return nil, err
	}
	return r.engine.Stamp(doc, Stamp{
		Page:    certificatePage,
		Image:   norm,
		Anchor:  AnchorTopCenter,
		OffsetY: -60,
		Scale:   fitScale(w, h, pw, ph, certificateFrac),
	})
}

func withoutArabic(values map[string]string) (map[string]string, []string) {
	out := make(map[string]string, len(values))
	var dropped []string
	for k, v := range values {
		if hasArabic(v) {
			dropped = append(dropped, k)
			continue
		}
		out[k] = v
	}
	return out, dropped
}

func hasArabic(s string) bool {
	for _, r := range s {
		if (r >= 0x0600 && r <= 0x06FF) || (r >= 0xFB50 && r <= 0xFDFF) || (r >= 0xFE70 && r <= 0xFEFF) {
			return true
		}
	}
	return false
}

// ensureFont installs the Unicode font once per process. Failure leaves the
// engine on its built-in Latin fonts.
func (r *Renderer) ensureFont(ctx context.Context) bool {
	r.fontOnce.Do(func() {
		if r.opts.FontURL == "" {
			r.log.Warnw("no unicode font configured, arabic text may not render")
			return
		}
		b, err := r.fetch(ctx, r.opts.FontURL)
		if err != nil {
			r.log.Warnw("font fetch failed, using built-in fonts", "err", err)
			return
		}
		dir := r.opts.FontDir
		if dir == "" {
			dir = os.TempDir()
		}
		name := filepath.Base(r.opts.FontURL)
		if !strings.HasSuffix(strings.ToLower(name), ".ttf") {
			name = "unicode-font.ttf"
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, b, 0o644); err != nil {
			r.log.Warnw("font write failed, using built-in fonts", "err", err)
			return
		}
		if err := r.engine.InstallFont(path); err != nil {
			r.log.Warnw("font install failed, using built-in fonts", "err", err)
			return
		}
		r.fontOK = true
	})
	return r.fontOK
}

// fetch reads an http(s) URL or a local path.
func (r *Renderer) fetch(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, errors.New("empty source")
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.ReadFile(strings.TrimPrefix(src, "file://"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", src, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
}
