package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFCPU implements Engine with pdfcpu.
type PDFCPU struct{}

func NewPDFCPU() *PDFCPU { return &PDFCPU{} }

func conf() *model.Configuration {
	c := model.NewDefaultConfiguration()
	c.ValidationMode = model.ValidationRelaxed
	return c
}

type textField struct {
	Pages  []int  `json:"pages,omitempty"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	Locked bool   `json:"locked,omitempty"`
}

type formGroup struct {
	TextFields []textField `json:"textfield,omitempty"`
}

type formJSON struct {
	Forms []formGroup `json:"forms"`
}

func (PDFCPU) export(pdf []byte) (formJSON, error) {
	var out bytes.Buffer
	var f formJSON
	if err := api.ExportFormJSON(bytes.NewReader(pdf), &out, "template.pdf", conf()); err != nil {
		return f, fmt.Errorf("export form: %w", err)
	}
	if err := json.Unmarshal(out.Bytes(), &f); err != nil {
		return f, fmt.Errorf("decode form: %w", err)
	}
	return f, nil
}

func (p PDFCPU) FieldNames(pdf []byte) ([]string, error) {
	f, err := p.export(pdf)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, g := range f.Forms {
		for _, tf := range g.TextFields {
			names = append(names, tf.Name)
		}
	}
	return names, nil
}

func (p PDFCPU) FillForm(pdf []byte, values map[string]string) ([]byte, error) {
	f, err := p.export(pdf)
	if err != nil {
		return nil, err
	}
	var fill formJSON
	for _, g := range f.Forms {
		var set formGroup
		for _, tf := range g.TextFields {
			v, ok := values[tf.Name]
			if !ok {
				continue
			}
			tf.Value = v
			set.TextFields = append(set.TextFields, tf)
		}
		if len(set.TextFields) > 0 {
			fill.Forms = append(fill.Forms, set)
		}
	}
	if len(fill.Forms) == 0 {
		return pdf, nil
	}
	js, err := json.Marshal(fill)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(pdf), bytes.NewReader(js), &out, conf()); err != nil {
		return nil, fmt.Errorf("fill form: %w", err)
	}
	return out.Bytes(), nil
}

func (PDFCPU) Lock(pdf []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := api.LockFormFields(bytes.NewReader(pdf), &out, nil, conf()); err != nil {
		return nil, fmt.Errorf("lock form: %w", err)
	}
	return out.Bytes(), nil
}

func (PDFCPU) PageCount(pdf []byte) (int, error) {
	return api.PageCount(bytes.NewReader(pdf), conf())
}

func (PDFCPU) PageSize(pdf []byte, page int) (float64, float64, error) {
	dims, err := api.PageDims(bytes.NewReader(pdf), conf())
	if err != nil {
		return 0, 0, err
	}
	if page < 1 || page > len(dims) {
		return 0, 0, fmt.Errorf("page %d out of range (%d pages)", page, len(dims))
	}
	d := dims[page-1]
	return d.Width, d.Height, nil
}

func (p PDFCPU) AppendPages(pdf []byte, n int) ([]byte, error) {
	for i := 0; i < n; i++ {
		count, err := p.PageCount(pdf)
		if err != nil {
			return nil, err
		}
		var out bytes.Buffer
		err = api.InsertPages(bytes.NewReader(pdf), &out, []string{strconv.Itoa(count)}, false, pdfcpu.DefaultPageConfiguration(), conf())
		if err != nil {
			return nil, fmt.Errorf("insert page: %w", err)
		}
		pdf = out.Bytes()
	}
	return pdf, nil
}

func (PDFCPU) Stamp(pdf []byte, s Stamp) ([]byte, error) {
	desc := fmt.Sprintf("position:%s, offset:%g %g, scalefactor:%g abs, rotation:0, opacity:1",
		s.Anchor, s.OffsetX, s.OffsetY, s.Scale)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(s.Image), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("stamp: %w", err)
	}
	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(pdf), &out, []string{strconv.Itoa(s.Page)}, wm, conf()); err != nil {
		return nil, fmt.Errorf("stamp page %d: %w", s.Page, err)
	}
	return out.Bytes(), nil
}

func (PDFCPU) InstallFont(path string) error {
	return api.InstallFonts([]string{path})
}
