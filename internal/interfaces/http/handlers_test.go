package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/scinventory/internal/application/catalog"
	"github.com/jhoicas/scinventory/internal/application/dto"
	"github.com/jhoicas/scinventory/internal/application/liveview"
	"github.com/jhoicas/scinventory/internal/application/media"
	"github.com/jhoicas/scinventory/internal/application/report"
	"github.com/jhoicas/scinventory/internal/application/scan"
	"github.com/jhoicas/scinventory/internal/domain/barcode"
	"github.com/jhoicas/scinventory/internal/domain/entity"
	"github.com/jhoicas/scinventory/internal/infrastructure/barcodeimg"
	"github.com/jhoicas/scinventory/internal/infrastructure/blob"
	"github.com/jhoicas/scinventory/internal/infrastructure/imaging"
	"github.com/jhoicas/scinventory/internal/infrastructure/memory"
	"github.com/jhoicas/scinventory/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/scinventory/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type apiEnv struct {
	app       *fiber.App
	repo      *memory.ItemRepository
	projector *liveview.Projector
}

// newAPI arma la API completa sobre el almacén en memoria, sin autenticación.
func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	log := zerolog.Nop()
	repo := memory.NewItemRepository()
	projector := liveview.NewProjector(repo, repo, log)
	require.NoError(t, projector.Start(context.Background()))
	t.Cleanup(projector.Stop)

	store, err := blob.NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		CatalogUC:  catalog.NewUseCase(repo, barcode.NewGenerator(memory.NewBarcodeRegistry(), 0), projector, log),
		ScanEngine: scan.NewEngine(repo, projector, scan.DefaultConfig(), log),
		Projector:  projector,
		MediaUC:    media.NewUseCase(store, imaging.Processor{}, log),
		ReportUC:   report.NewUseCase(projector, pdf.NewMarotoReportGenerator()),
		Barcodes:   barcodeimg.NewRenderer(),
		MediaDir:   store.Dir(),
		Logger:     log,
	})
	return &apiEnv{app: app, repo: repo, projector: projector}
}

func (e *apiEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func draftBody(college string, quantity int) map[string]any {
	return map[string]any{
		"text":           "Microscope",
		"college":        college,
		"quantity":       quantity,
		"amount":         "1000.50",
		"requested_date": "2024-03-15",
		"supplier":       "Acme",
		"item_type":      "Equipment",
	}
}

func (e *apiEnv) create(t *testing.T, college string, quantity int) dto.ItemResponse {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/items", draftBody(college, quantity))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.ItemResponse](t, resp)
}

// ──────────────────────────────────────────────────────────────────────────────
// Items
// ──────────────────────────────────────────────────────────────────────────────

func TestItems_CrearObtenerActualizarEliminar(t *testing.T) {
	e := newAPI(t)
	created := e.create(t, "CCS", 5)
	assert.True(t, barcode.Valid(created.Barcode))
	assert.Equal(t, "1000.5", created.Amount.String())

	got := decode[dto.ItemResponse](t, e.do(t, http.MethodGet, "/api/items/"+created.ID, nil))
	assert.Equal(t, created.Barcode, got.Barcode)

	edit := draftBody("COE", 9)
	resp := e.do(t, http.MethodPut, "/api/items/"+created.ID, edit)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[dto.ItemResponse](t, resp)
	assert.Equal(t, "COE", updated.College)
	assert.Equal(t, 9, updated.Quantity)
	assert.Equal(t, created.Barcode, updated.Barcode)

	resp = e.do(t, http.MethodDelete, "/api/items/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = e.do(t, http.MethodDelete, "/api/items/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, "borrar dos veces no es error")

	resp = e.do(t, http.MethodGet, "/api/items/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decode[dto.ErrorResponse](t, resp).Code)
}

func TestItems_CrearInvalidoDevuelveCampos(t *testing.T) {
	e := newAPI(t)
	body := draftBody("XYZ", 0)
	resp := e.do(t, http.MethodPost, "/api/items", body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", out.Code)
	assert.NotEmpty(t, out.Fields)
}

func TestItems_CuerpoMalFormado(t *testing.T) {
	e := newAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_BODY", decode[dto.ErrorResponse](t, resp).Code)
}

func TestItems_ListaYAgrupado(t *testing.T) {
	e := newAPI(t)
	e.create(t, "CCS", 5)
	e.create(t, "COE", 2)
	e.create(t, "CCS", 1)
	_, err := e.projector.Refresh(context.Background())
	require.NoError(t, err)

	list := decode[dto.SnapshotResponse](t, e.do(t, http.MethodGet, "/api/items", nil))
	assert.Len(t, list.Items, 3)
	assert.NotZero(t, list.Version)

	grouped := decode[dto.GroupedResponse](t, e.do(t, http.MethodGet, "/api/items/grouped", nil))
	require.Len(t, grouped.Departments, 2)
	assert.Equal(t, "CCS", grouped.Departments[0].College)
	assert.Equal(t, 6, grouped.Departments[0].TotalQuantity)
	assert.Equal(t, 8, grouped.TotalQuantity)
}

func TestItems_BarcodePNG(t *testing.T) {
	e := newAPI(t)
	created := e.create(t, "CCS", 1)

	resp := e.do(t, http.MethodGet, "/api/items/"+created.ID+"/barcode.png?w=400&h=100", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	defer resp.Body.Close()
	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	resp = e.do(t, http.MethodGet, "/api/items/missing/barcode.png", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Scans
// ──────────────────────────────────────────────────────────────────────────────

func TestScans_EstadosYCodigosHTTP(t *testing.T) {
	e := newAPI(t)
	created := e.create(t, "CCS", 3)
	qty := func(n int) *int { return &n }

	// Applied
	resp := e.do(t, http.MethodPost, "/api/scans", dto.ScanRequest{Barcode: created.Barcode, Quantity: qty(2)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.ScanOutcome](t, resp)
	assert.Equal(t, dto.ScanApplied, out.State)
	assert.Equal(t, 1, out.Remaining)

	// Rejected: no alcanza
	resp = e.do(t, http.MethodPost, "/api/scans", dto.ScanRequest{Barcode: created.Barcode, Quantity: qty(5)})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	out = decode[dto.ScanOutcome](t, resp)
	assert.Equal(t, dto.ScanRejected, out.State)
	assert.Equal(t, 1, out.Remaining)

	// Depleted con la cantidad por defecto
	resp = e.do(t, http.MethodPost, "/api/scans", dto.ScanRequest{Barcode: created.Barcode})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.ScanDepleted, decode[dto.ScanOutcome](t, resp).State)

	// NotFound
	resp = e.do(t, http.MethodPost, "/api/scans", dto.ScanRequest{Barcode: created.Barcode})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, dto.ScanNotFound, decode[dto.ScanOutcome](t, resp).State)

	// Invalid
	resp = e.do(t, http.MethodPost, "/api/scans", dto.ScanRequest{Barcode: "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, dto.ScanInvalid, decode[dto.ScanOutcome](t, resp).State)
}

// dupLister duplica cada ítem con otro ID, como un almacén sin índice único.
type dupLister struct{ *memory.ItemRepository }

func (d dupLister) ListAll(ctx context.Context) ([]*entity.Item, error) {
	items, err := d.ItemRepository.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Item, 0, 2*len(items))
	for _, it := range items {
		twin := it.Clone()
		twin.ID = it.ID + "-twin"
		out = append(out, it, twin)
	}
	return out, nil
}

func TestScans_CodigoDuplicadoEsConflicto(t *testing.T) {
	repo := memory.NewItemRepository()
	now := time.Now()
	_, err := repo.Create(context.Background(), &entity.Item{
		ItemFields: entity.ItemFields{Text: "dup", College: entity.CollegeCCS, Quantity: 2, ItemType: entity.ItemTypeBooks, Supplier: "x", RequestedDate: now},
		Barcode:    "ITEM-dup000000",
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	projector := liveview.NewProjector(dupLister{repo}, repo, zerolog.Nop())
	require.NoError(t, projector.Start(context.Background()))
	t.Cleanup(projector.Stop)

	app := fiber.New()
	app.Post("/scans", apphttp.NewScanHandler(scan.NewEngine(repo, projector, scan.DefaultConfig(), zerolog.Nop())).Scan)
	req := httptest.NewRequest(http.MethodPost, "/scans", strings.NewReader(`{"barcode":"ITEM-dup000000"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	out := decode[dto.ScanOutcome](t, resp)
	assert.Equal(t, dto.ScanConflict, out.State)

	assert.Empty(t, out.ItemID, "en conflicto no se elige ningún registro")
	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, all[0].Quantity, "nada se descuenta")
}

// ──────────────────────────────────────────────────────────────────────────────
// Live view (SSE)
// ──────────────────────────────────────────────────────────────────────────────

func TestLive_EmiteSnapshotActual(t *testing.T) {
	e := newAPI(t)
	e.create(t, "CCS", 4)
	_, err := e.projector.Refresh(context.Background())
	require.NoError(t, err)

	// Al detener el proyector el canal del suscriptor se cierra y el stream termina.
	go func() {
		time.Sleep(200 * time.Millisecond)
		e.projector.Stop()
	}()

	req := httptest.NewRequest(http.MethodGet, "/api/live", nil)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, "event: snapshot\n")
	assert.Contains(t, body, "\"quantity\":4")
	assert.GreaterOrEqual(t, strings.Count(body, "event: snapshot"), 1)
	assert.Contains(t, body, "id: ")
}

func TestWriteSnapshotEvent_Framing(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	snap := liveview.Snapshot{Version: 7, TakenAt: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}

	require.NoError(t, apphttp.WriteSnapshotEvent(w, snap))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "event: snapshot\nid: 7\ndata: {"), out)
	assert.True(t, strings.HasSuffix(out, "}\n\n"), out)
	assert.Contains(t, out, `"items":[]`)
}

// ──────────────────────────────────────────────────────────────────────────────
// Media y reportes
// ──────────────────────────────────────────────────────────────────────────────

func TestMedia_SubirImagenYServirla(t *testing.T) {
	e := newAPI(t)

	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, img))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "foto.png")
	require.NoError(t, err)
	_, err = fw.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/media/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decode[media.UploadResult](t, resp)
	assert.True(t, strings.HasPrefix(out.URL, "/media/images/"), out.URL)

	resp = e.do(t, http.MethodGet, out.URL, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "la foto se sirve desde /media")
}

func TestMedia_SinArchivo(t *testing.T) {
	e := newAPI(t)
	resp := e.do(t, http.MethodPost, "/api/media/images", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReports_InventarioPDF(t *testing.T) {
	e := newAPI(t)
	e.create(t, "CCS", 2)
	_, err := e.projector.Refresh(context.Background())
	require.NoError(t, err)

	resp := e.do(t, http.MethodGet, "/api/reports/inventory.pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "inventario-")
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}
