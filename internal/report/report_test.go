package report

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldNotesLines(t *testing.T) {
	tests := []struct {
		name  string
		notes FieldNotes
		want  [2]string
	}{
		{
			name: "blank",
			want: [2]string{"The _____ beast waits _____", "_____ to show its _____."},
		},
		{
			name: "filled",
			notes: FieldNotes{
				Adjective:   "happy",
				Noun:        `happ<span style="color:#fff">i</span><span>ness</span>`,
				Adverb:      "quietly",
				Preposition: "Under the bed",
			},
			want: [2]string{"The happy beast waits quietly", "Under the bed to show its happiness."},
		},
		{
			name:  "whitespace",
			notes: FieldNotes{Adjective: "  ", Adverb: "slowly"},
			want:  [2]string{"The _____ beast waits slowly", "_____ to show its _____."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.notes.Lines())
		})
	}
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "darkness", StripTags("dark<b>ness</b>"))
	assert.Equal(t, "plain", StripTags("plain"))
	assert.Equal(t, "cut", StripTags("cut<span"))
}

func TestComposite(t *testing.T) {
	drawing := image.NewRGBA(image.Rect(0, 0, 600, 500))
	red := color.RGBA{R: 0xff, A: 0xff}
	for y := 0; y < 500; y++ {
		for x := 0; x < 600; x++ {
			drawing.Set(x, y, red)
		}
	}

	page := Composite(drawing, FieldNotes{Adjective: "happy"})
	require.Equal(t, image.Rect(0, 0, PageWidth, PageHeight), page.Bounds())
	assert.Equal(t, red, page.RGBAAt(300, 250))
	assert.Equal(t, FooterColor, page.RGBAAt(590, 640))

	heading, body := 0, 0
	for y := FooterTop; y < PageHeight; y++ {
		for x := 0; x < PageWidth; x++ {
			switch page.RGBAAt(x, y) {
			case HeadingColor:
				heading++
			case TextColor:
				body++
			}
		}
	}
	assert.Positive(t, heading)
	assert.Positive(t, body)

	blank := Composite(nil, FieldNotes{})
	assert.Equal(t, PageColor, blank.RGBAAt(300, 250))
}

func TestExporter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	exp := NewExporter(dir, WithClock(func() time.Time { return at }))
	img := Composite(nil, FieldNotes{})

	first, err := exp.Export(img)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultFileName), first)

	second, err := exp.Export(img)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "monster-notes-20260304-050607.png"), second)

	f, err := os.Open(second)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())

	_, err = exp.Export(nil)
	assert.Error(t, err)
}

func TestExporterSameSecondKeepsEveryFile(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	exp := NewExporter(dir, WithFileName("shot.png"), WithClock(func() time.Time { return at }))

	var paths []string
	for i := 0; i < 4; i++ {
		p, err := exp.Export(image.NewRGBA(image.Rect(0, 0, i+1, 1)))
		require.NoError(t, err)
		paths = append(paths, p)
	}

	assert.Equal(t, []string{
		filepath.Join(dir, "shot.png"),
		filepath.Join(dir, "shot-20260304-050607.png"),
		filepath.Join(dir, "shot-20260304-050607-2.png"),
		filepath.Join(dir, "shot-20260304-050607-3.png"),
	}, paths)

	// Each file still holds the image written to it.
	for i, p := range paths {
		f, err := os.Open(p)
		require.NoError(t, err)
		decoded, err := png.Decode(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, i+1, decoded.Bounds().Dx(), p)
	}
}
