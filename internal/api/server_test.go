package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/epsio/pkg/eps"
	"github.com/samcharles93/epsio/pkg/eps/epstest"
	"github.com/samcharles93/epsio/pkg/eps/l1c"
)

// pcsBuilder assembles a scores product whose two measurement records
// are both gaps: one undersized, one with an unknown subclass version.
func pcsBuilder() *epstest.Builder {
	giadr := epstest.NewPayload()
	for _, n := range []uint16{2, 1, 1, 1, 1, 0, 1, 0, 0} {
		giadr.U16(n)
	}
	giadr.U16(1).U16(2001).U16(5001)
	giadr.U16(2000).U16(3000).U16(3461)
	giadr.U16(50).U16(100).U16(150)
	giadr.U16(100).U16(200).U16(300)

	return epstest.NewBuilder("PCS").
		WithIPR().
		AddHeaderRecord(eps.ClassGIADR, 0, 1, giadr.Bytes()).
		AddMDRAt(0, 1, epstest.NewPayload().Pad(16).Bytes(), 7300, 0).
		AddMDRAt(0, 9, epstest.NewPayload().Pad(16).Bytes(), 7300, 60_000)
}

// pcrBuilder assembles a residual product with one full measurement
// record.
func pcrBuilder() *epstest.Builder {
	giadr := epstest.NewPayload()
	for _, n := range []uint16{2, 1, 1, 1, 1, 0, 1, 0, 0} {
		giadr.U16(n)
	}
	giadr.U16(1).U16(2001).U16(5001)
	giadr.U16(2000).U16(3000).U16(3461)
	giadr.U16(50).U16(100).U16(150)
	giadr.U16(100).U16(200).U16(300)

	mdr := epstest.NewPayload().
		Bool(false).
		Bool(false).
		RepeatI8(-5, l1c.SNOT*l1c.PN*l1c.S)

	return epstest.NewBuilder("PCR").
		WithIPR().
		AddHeaderRecord(eps.ClassGIADR, 0, 1, giadr.Bytes()).
		AddMDR(0, 1, mdr.Bytes())
}

func writeProduct(t *testing.T, dir, name string, b *epstest.Builder) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), b.Build(), 0o644); err != nil {
		t.Fatalf("write synthetic product: %v", err)
	}
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	dir := t.TempDir()
	writeProduct(t, dir, "scores.nat", pcsBuilder())
	writeProduct(t, dir, "residual.nat", pcrBuilder())
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a product"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	store := NewProductStore(dir)
	t.Cleanup(func() { _ = store.Close() })
	server := NewServer(store, nil)
	e := echo.New()
	server.Register(e)
	return e
}

func doGet(t *testing.T, e *echo.Echo, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doGet(t, e, "/v1/products")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a request id header")
	}

	var listing struct {
		Data []ProductInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Data) != 2 {
		t.Fatalf("expected 2 products, got %d", len(listing.Data))
	}
	if listing.Data[0].Name != "residual.nat" || listing.Data[0].ProductType != "PCR" {
		t.Fatalf("unexpected first product: %+v", listing.Data[0])
	}
	if listing.Data[1].Name != "scores.nat" || listing.Data[1].ProductType != "PCS" {
		t.Fatalf("unexpected second product: %+v", listing.Data[1])
	}
	if listing.Data[1].MDRCount != 2 {
		t.Fatalf("scores product MDR count: got %d", listing.Data[1].MDRCount)
	}
}

func TestGetProductDetail(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doGet(t, e, "/v1/products/scores.nat")
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var detail ProductDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.ProductType != "PCS" {
		t.Fatalf("product type: got %q", detail.ProductType)
	}
	if detail.TotalRecords <= 0 {
		t.Fatalf("total records: got %d", detail.TotalRecords)
	}
	classes := make([]string, 0, len(detail.Headers))
	for _, h := range detail.Headers {
		classes = append(classes, h.Class)
	}
	joined := strings.Join(classes, ",")
	if !strings.Contains(joined, "MPHR") || !strings.Contains(joined, "GIADR") || !strings.Contains(joined, "IPR") {
		t.Fatalf("header classes missing: %s", joined)
	}

	if missing := doGet(t, e, "/v1/products/nope.nat"); missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", missing.Code)
	}
}

func TestListRecordsFlagsBadMDRs(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doGet(t, e, "/v1/products/scores.nat/records")
	if rec.Code != http.StatusOK {
		t.Fatalf("records status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var listing struct {
		Data []RecordInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode records: %v", err)
	}

	var mdrs []RecordInfo
	for _, r := range listing.Data {
		if r.Class == "MDR" {
			mdrs = append(mdrs, r)
		}
	}
	if len(mdrs) != 2 {
		t.Fatalf("expected 2 MDR rows, got %d", len(mdrs))
	}
	if !mdrs[0].Bad || !mdrs[1].Bad {
		t.Fatalf("expected both MDRs flagged bad: %+v", mdrs)
	}
	if mdrs[0].Version != 1 || mdrs[1].Version != 9 {
		t.Fatalf("unexpected MDR versions: %+v", mdrs)
	}
	if mdrs[1].Offset <= mdrs[0].Offset {
		t.Fatalf("MDR offsets not increasing: %+v", mdrs)
	}
}

func TestGeolocation(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)

	// Every measurement record in the scores fixture is a gap, so the
	// arrays are empty but the request succeeds.
	rec := doGet(t, e, "/v1/products/scores.nat/geolocation")
	if rec.Code != http.StatusOK {
		t.Fatalf("geolocation status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var geo GeolocationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &geo); err != nil {
		t.Fatalf("decode geolocation: %v", err)
	}
	if geo.Total != 0 || geo.Count != 0 {
		t.Fatalf("expected empty geolocation, got %+v", geo)
	}

	// Residual products carry no scan geometry.
	if rec := doGet(t, e, "/v1/products/residual.nat/geolocation"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for residual geolocation, got %d body=%s", rec.Code, rec.Body.String())
	}

	if rec := doGet(t, e, "/v1/products/scores.nat/geolocation?start=oops"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad start, got %d", rec.Code)
	}
	if rec := doGet(t, e, "/v1/products/scores.nat/geolocation?start=5"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range start, got %d", rec.Code)
	}
}

func TestStoreRejectsTraversalNames(t *testing.T) {
	t.Parallel()

	store := NewProductStore(t.TempDir())
	for _, name := range []string{"", ".", "..", "a/b", "../escape.nat"} {
		if _, err := store.path(name); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("name %q: expected invalid request, got %v", name, err)
		}
	}
}

func TestScores(t *testing.T) {
	t.Parallel()

	e := newTestEcho(t)
	rec := doGet(t, e, "/v1/products/scores.nat/scores")
	if rec.Code != http.StatusOK {
		t.Fatalf("scores status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var scores ScoresResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &scores); err != nil {
		t.Fatalf("decode scores: %v", err)
	}
	if len(scores.FirstChannel) != l1c.SB || scores.FirstChannel[1] != 2000 {
		t.Fatalf("unexpected first channels: %v", scores.FirstChannel)
	}
	if scores.NbrChannels[2] != 3461 {
		t.Fatalf("unexpected channel counts: %v", scores.NbrChannels)
	}
	if scores.ScoreQuantisation[0] != 0.5 {
		t.Fatalf("unexpected quantisation: %v", scores.ScoreQuantisation)
	}
	if scores.Total != 0 || len(scores.Scores) != 0 {
		t.Fatalf("expected no score rows, got %+v", scores)
	}

	if rec := doGet(t, e, "/v1/products/residual.nat/scores"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for residual scores, got %d body=%s", rec.Code, rec.Body.String())
	}
}
