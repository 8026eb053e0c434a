package inspect

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePDF(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Helvetica", "", 14)
	doc.Text(20, 20, "Hello inspect")
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader("dot", opts, &pngBuf)
	doc.ImageOptions("dot", 20, 30, 40, 20, false, opts, 0, "")
	doc.AddPage()
	doc.Text(20, 20, "Second page")

	var out bytes.Buffer
	require.NoError(t, doc.Output(&out))
	return out.Bytes()
}

func TestPDF(t *testing.T) {
	data := samplePDF(t)
	sum, err := PDF(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	require.Len(t, sum.Pages, 2)
	assert.InDelta(t, 210, sum.Pages[0].WidthMM, 0.1)
	assert.InDelta(t, 297, sum.Pages[0].HeightMM, 0.1)
	assert.Equal(t, 1, sum.Pages[0].Images)
	assert.Zero(t, sum.Pages[1].Images)
	assert.Equal(t, 1, sum.Images())
	assert.Contains(t, sum.Pages[0].Text, "Hello inspect")
	assert.Contains(t, sum.Text(), "Second page")
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, samplePDF(t), 0o600))

	sum, err := File(path)
	require.NoError(t, err)
	assert.Len(t, sum.Pages, 2)
}

func TestPDF_NotAPDF(t *testing.T) {
	data := []byte("plain text, not a document")
	_, err := PDF(bytes.NewReader(data), int64(len(data)))
	assert.Error(t, err)
}
