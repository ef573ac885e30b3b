package document

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const formLayout = `{
	"paper": "A4P",
	"origin": "LowerLeft",
	"fonts": {
		"input": {"name": "Helvetica", "size": 12}
	},
	"pages": {
		"1": {
			"content": {
				"textfield": [
					{"id": "reg_id", "value": "", "pos": [100, 700], "width": 300},
					{"id": "name", "value": "", "pos": [100, 670], "width": 300},
					{"id": "name_arabic", "value": "", "pos": [100, 640], "width": 300}
				]
			}
		}
	}
}`

// formTemplate builds a one-page AcroForm with the fields a confirmation uses.
func formTemplate(t *testing.T) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, api.Create(nil, strings.NewReader(formLayout), &out, model.NewDefaultConfiguration()))
	p := filepath.Join(t.TempDir(), "template.pdf")
	require.NoError(t, os.WriteFile(p, out.Bytes(), 0o644))
	return p
}

func fieldsByName(t *testing.T, pdf []byte) map[string]textField {
	t.Helper()
	f, err := PDFCPU{}.export(pdf)
	require.NoError(t, err)
	out := map[string]textField{}
	for _, g := range f.Forms {
		for _, tf := range g.TextFields {
			out[tf.Name] = tf
		}
	}
	return out
}

func TestPDFCPU_FieldNames(t *testing.T) {
	tpl, err := os.ReadFile(formTemplate(t))
	require.NoError(t, err)

	names, err := NewPDFCPU().FieldNames(tpl)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{FieldRegID, FieldName, FieldNameArabic}, names)
}

func TestPDFCPU_RenderFillsLocksAndAddsCertificatePage(t *testing.T) {
	eng := NewPDFCPU()
	r := NewRenderer(eng, Options{TemplateURL: formTemplate(t)}, zap.NewNop().Sugar())

	reg := sampleRegistrant()
	reg.NameArabic = ""
	out, err := r.Render(context.Background(), Input{Registrant: reg, Certificate: jpegBytes(t, 400, 300)})
	require.NoError(t, err)

	pages, err := eng.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, certificatePage, pages)

	fields := fieldsByName(t, out)
	require.Contains(t, fields, FieldRegID)
	require.Contains(t, fields, FieldName)
	require.Contains(t, fields, FieldNameArabic)
	assert.Equal(t, "1-SHOFI-AHMAD_FAUZI_RAHMAN", fields[FieldRegID].Value)
	assert.Equal(t, "Ahmad Fauzi Rahman", fields[FieldName].Value)
	for name, f := range fields {
		assert.True(t, f.Locked, "%s not locked", name)
	}
}

func TestPDFCPU_NoCertificateKeepsSinglePage(t *testing.T) {
	eng := NewPDFCPU()
	r := NewRenderer(eng, Options{TemplateURL: formTemplate(t)}, zap.NewNop().Sugar())

	reg := sampleRegistrant()
	reg.NameArabic = ""
	out, err := r.Render(context.Background(), Input{Registrant: reg})
	require.NoError(t, err)

	pages, err := eng.PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)
}
