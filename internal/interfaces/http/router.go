package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/scinventory/internal/application/catalog"
	"github.com/jhoicas/scinventory/internal/application/liveview"
	"github.com/jhoicas/scinventory/internal/application/media"
	"github.com/jhoicas/scinventory/internal/application/report"
	"github.com/jhoicas/scinventory/internal/application/scan"
	"github.com/jhoicas/scinventory/internal/infrastructure/barcodeimg"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CatalogUC  *catalog.UseCase
	ScanEngine *scan.Engine
	Projector  *liveview.Projector
	MediaUC    *media.UseCase // opcional
	ReportUC   *report.UseCase
	Barcodes   *barcodeimg.Renderer
	MediaDir   string // si no está vacío, se sirve en /media
	JWTSecret  string
	JWTIssuer  string
	Logger     zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.MediaDir != "" {
		app.Static("/media", deps.MediaDir, fiber.Static{Browse: false})
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token si JWT_SECRET está definido)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	// Items
	items := protected.Group("/items")
	itemHandler := NewItemHandler(deps.CatalogUC, deps.Barcodes)
	items.Post("/", itemHandler.Create)
	items.Get("/", itemHandler.List)
	items.Get("/grouped", itemHandler.Grouped)
	items.Get("/:id", itemHandler.GetByID)
	items.Put("/:id", itemHandler.Update)
	items.Delete("/:id", itemHandler.Delete)
	items.Get("/:id/barcode.png", itemHandler.BarcodePNG)

	// Scans
	scanHandler := NewScanHandler(deps.ScanEngine)
	protected.Post("/scans", scanHandler.Scan)

	// Live view (SSE)
	liveHandler := NewLiveHandler(deps.Projector, deps.Logger)
	protected.Get("/live", liveHandler.Stream)

	// Media
	if deps.MediaUC != nil {
		mediaHandler := NewMediaHandler(deps.MediaUC)
		protected.Post("/media/images", mediaHandler.UploadImage)
	}

	// Reports
	reportHandler := NewReportHandler(deps.ReportUC)
	protected.Get("/reports/inventory.pdf", reportHandler.InventoryPDF)
}
