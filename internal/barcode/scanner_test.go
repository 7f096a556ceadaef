package barcode

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/MeKo-Tech/isbnx/internal/imageio"
	"github.com/MeKo-Tech/isbnx/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	isbnCPL     = "9780131103627"
	isbnGopl    = "9780134190440"
	isbnCLRS    = "9780262033848"
	upcA        = "036000291452"
	nonBookland = "4006381333931"
)

type fakeBackend struct {
	results []Result
	err     error
	calls   int
	opts    Options
}

func (f *fakeBackend) Decode(_ context.Context, _ Plane, opts Options) ([]Result, error) {
	f.calls++
	f.opts = opts
	return f.results, f.err
}

func grayBuffer(img *image.Gray) *imageio.Buffer {
	b := img.Bounds()
	pix := make([]byte, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		copy(pix[y*b.Dx():], img.Pix[y*img.Stride:y*img.Stride+b.Dx()])
	}
	return &imageio.Buffer{Width: b.Dx(), Height: b.Dy(), Pix: pix}
}

func newDefaultScanner(t *testing.T, opts ...ScannerOption) *Scanner {
	t.Helper()
	s, err := NewScanner(DefaultConfig(), opts...)
	require.NoError(t, err)
	return s
}

func TestNewScanner_Validation(t *testing.T) {
	_, err := NewScanner(Config{})
	require.Error(t, err)

	_, err = NewScanner(Config{Symbologies: []Format{FormatUnknown}})
	require.Error(t, err)

	_, err = NewScanner(Config{Symbologies: []Format{Format(99)}})
	require.Error(t, err)

	s, err := NewScanner(DefaultConfig())
	require.NoError(t, err)
	assert.True(t, s.Enabled(FormatISBN13))
	assert.False(t, s.Enabled(FormatEAN13))
}

func TestScan_FiltersToISBN13(t *testing.T) {
	fb := &fakeBackend{results: []Result{
		{Type: FormatEAN13, Value: isbnCPL},
		{Type: FormatCode128, Value: "HELLO"},
		{Type: FormatEAN13, Value: nonBookland},
		{Type: FormatEAN13, Value: isbnGopl},
	}}
	s := newDefaultScanner(t, WithBackend(fb))

	res, err := s.Scan(context.Background(), grayBuffer(testutil.BlankImage(4, 4)))
	require.NoError(t, err)
	assert.Equal(t, []string{isbnCPL, isbnGopl}, res.ISBNs())
	for _, sym := range res.Symbols {
		assert.Equal(t, FormatISBN13, sym.Type)
	}
	assert.Equal(t, []Format{FormatISBN13}, fb.opts.Formats)
	assert.True(t, fb.opts.TryHarder)
}

func TestScan_EAN13EnabledKeepsBoth(t *testing.T) {
	fb := &fakeBackend{results: []Result{
		{Type: FormatEAN13, Value: nonBookland},
		{Type: FormatEAN13, Value: isbnCPL},
	}}
	s, err := NewScanner(Config{Symbologies: []Format{FormatISBN13, FormatEAN13}}, WithBackend(fb))
	require.NoError(t, err)

	res, err := s.Scan(context.Background(), grayBuffer(testutil.BlankImage(4, 4)))
	require.NoError(t, err)
	require.Len(t, res.Symbols, 2)
	assert.Equal(t, FormatEAN13, res.Symbols[0].Type)
	assert.Equal(t, FormatISBN13, res.Symbols[1].Type)
}

func TestScan_BackendFailureDropsPartialResults(t *testing.T) {
	fb := &fakeBackend{
		results: []Result{{Type: FormatEAN13, Value: isbnCPL}},
		err:     errors.New("decoder exploded"),
	}
	s := newDefaultScanner(t, WithBackend(fb))

	res, err := s.Scan(context.Background(), grayBuffer(testutil.BlankImage(4, 4)))
	require.Error(t, err)
	assert.Empty(t, res.Symbols)

	var se *ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StatusInternal, se.Status)
	assert.Less(t, se.Status, 0)
	assert.Equal(t, "barcode scan error(-1): decoder exploded", se.Error())
}

func TestScan_InvalidBuffer(t *testing.T) {
	fb := &fakeBackend{}
	s := newDefaultScanner(t, WithBackend(fb))

	_, err := s.Scan(context.Background(), &imageio.Buffer{Width: 3, Height: 3, Pix: make([]byte, 8)})
	var se *ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StatusInvalid, se.Status)
	assert.Zero(t, fb.calls)
}

func TestScan_Canceled(t *testing.T) {
	fb := &fakeBackend{}
	s := newDefaultScanner(t, WithBackend(fb))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx, grayBuffer(testutil.BlankImage(4, 4)))
	var se *ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StatusCanceled, se.Status)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fb.calls)
}

func TestScan_ZXing_SingleISBN(t *testing.T) {
	s := newDefaultScanner(t)

	res, err := s.Scan(context.Background(), grayBuffer(testutil.EAN13Image(t, isbnCPL)))
	require.NoError(t, err)
	// Rescanning the regions around the symbol must not report it twice.
	assert.Equal(t, []string{isbnCPL}, res.ISBNs())
	require.NotEmpty(t, res.Symbols[0].Points)
}

func TestScan_ZXing_MultipleISBNs(t *testing.T) {
	s := newDefaultScanner(t)
	img := testutil.StackImages(80, testutil.EAN13Image(t, isbnCPL), testutil.EAN13Image(t, isbnGopl))

	res, err := s.Scan(context.Background(), grayBuffer(img))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{isbnCPL, isbnGopl}, res.ISBNs())
}

func TestScan_ZXing_ISBNsSideBySide(t *testing.T) {
	s := newDefaultScanner(t)
	img := testutil.RowImages(40,
		testutil.EAN13Image(t, isbnCPL),
		testutil.EAN13Image(t, isbnGopl),
		testutil.EAN13Image(t, isbnCLRS))

	res, err := s.Scan(context.Background(), grayBuffer(img))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{isbnCPL, isbnGopl, isbnCLRS}, res.ISBNs())
}

func TestScan_ZXing_PointsInFrameCoordinates(t *testing.T) {
	s := newDefaultScanner(t)
	top := testutil.EAN13Image(t, isbnCPL)
	img := testutil.StackImages(80, top, testutil.EAN13Image(t, isbnGopl))
	lowerStart := top.Bounds().Dy() + 80

	res, err := s.Scan(context.Background(), grayBuffer(img))
	require.NoError(t, err)
	require.Len(t, res.Symbols, 2)

	for _, sym := range res.Symbols {
		require.NotEmpty(t, sym.Points, sym.Value)
		for _, p := range sym.Points {
			if sym.Value == isbnGopl {
				assert.GreaterOrEqual(t, p.Y, lowerStart, "point %v of %s", p, sym.Value)
			} else {
				assert.Less(t, p.Y, top.Bounds().Dy(), "point %v of %s", p, sym.Value)
			}
			assert.Less(t, p.X, img.Bounds().Dx())
		}
	}
}

func TestScan_ZXing_UPCAWithISBN13(t *testing.T) {
	s, err := NewScanner(Config{Symbologies: []Format{FormatISBN13, FormatUPCA}, TryHarder: true})
	require.NoError(t, err)

	res, err := s.Scan(context.Background(), grayBuffer(testutil.UPCAImage(t, upcA)))
	require.NoError(t, err)
	require.Len(t, res.Symbols, 1)
	assert.Equal(t, FormatUPCA, res.Symbols[0].Type)
	assert.Equal(t, upcA, res.Symbols[0].Value)

	// Bookland symbols are still ISBN-13 with UPC-A enabled.
	res, err = s.Scan(context.Background(), grayBuffer(testutil.EAN13Image(t, isbnCPL)))
	require.NoError(t, err)
	require.Len(t, res.Symbols, 1)
	assert.Equal(t, FormatISBN13, res.Symbols[0].Type)
}

func TestScan_ZXing_UPCAOnlyEAN13Enabled(t *testing.T) {
	s, err := NewScanner(Config{Symbologies: []Format{FormatEAN13}, TryHarder: true})
	require.NoError(t, err)

	res, err := s.Scan(context.Background(), grayBuffer(testutil.UPCAImage(t, upcA)))
	require.NoError(t, err)
	require.Len(t, res.Symbols, 1)
	assert.Equal(t, FormatEAN13, res.Symbols[0].Type)
	assert.Equal(t, "0"+upcA, res.Symbols[0].Value)
}

func TestScan_ZXing_NoBarcode(t *testing.T) {
	s := newDefaultScanner(t)

	res, err := s.Scan(context.Background(), grayBuffer(testutil.BlankImage(320, 200)))
	require.NoError(t, err)
	assert.Empty(t, res.ISBNs())
}

func TestScan_ZXing_NonISBNSymbolsDiscarded(t *testing.T) {
	s := newDefaultScanner(t)

	for name, img := range map[string]*image.Gray{
		"non-bookland ean13": testutil.EAN13Image(t, nonBookland),
		"code128":            testutil.Code128Image(t, "ISBNX-128"),
	} {
		t.Run(name, func(t *testing.T) {
			res, err := s.Scan(context.Background(), grayBuffer(img))
			require.NoError(t, err)
			assert.Empty(t, res.ISBNs())
		})
	}
}

func TestScan_ZXing_ExtraSymbologies(t *testing.T) {
	s, err := NewScanner(Config{Symbologies: []Format{FormatISBN13, FormatCode128}, TryHarder: true})
	require.NoError(t, err)

	res, err := s.Scan(context.Background(), grayBuffer(testutil.Code128Image(t, "ISBNX-128")))
	require.NoError(t, err)
	require.Len(t, res.Symbols, 1)
	assert.Equal(t, FormatCode128, res.Symbols[0].Type)
	assert.Equal(t, "ISBNX-128", res.Symbols[0].Value)
}

func TestScan_Idempotent(t *testing.T) {
	s := newDefaultScanner(t)
	buf := grayBuffer(testutil.EAN13Image(t, isbnCPL))

	first, err := s.Scan(context.Background(), buf)
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, first.ISBNs(), second.ISBNs())
}

func TestIsBookland(t *testing.T) {
	assert.True(t, IsBookland(isbnCPL))
	assert.True(t, IsBookland("9791032305690"))
	assert.False(t, IsBookland(nonBookland))
	assert.False(t, IsBookland("978013110362"))
	assert.False(t, IsBookland("97801311036X7"))
}
