package ops

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/snapper/internal/config"
	"github.com/hpungsan/snapper/internal/db"
	"github.com/hpungsan/snapper/internal/driver/drivertest"
)

const testHTML = "<html><body>checkout</body></html>"

func setupTest(t *testing.T) (*sql.DB, *config.Config) {
	t.Helper()
	base := t.TempDir()
	database, err := db.Init(filepath.Join(base, "ledger"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.Dir = filepath.Join(base, "shots")
	return database, cfg
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestDriver(t *testing.T) *drivertest.Driver {
	t.Helper()
	d := drivertest.New()
	d.HTML = testHTML
	d.URL = "http://shop.test/cart?step=2"
	d.Shots = [][]byte{testPNG(t, 4, 3)}
	return d
}

type recordingNavigator struct {
	urls []string
	err  error
}

func (n *recordingNavigator) Navigate(_ context.Context, url string) error {
	n.urls = append(n.urls, url)
	return n.err
}

func stringPtr(s string) *string {
	return &s
}
