// seed carga ítems desde un CSV exportado del inventario anterior usando el catálogo,
// de modo que cada fila recibe su código de barras y pasa por las mismas validaciones que la API.
//
// Uso: go run ./cmd/seed [-latin1] [-dry-run] items.csv
// Columnas: text,college,quantity,amount,requested_date,supplier,item_type[,image]
// La primera fila se descarta si es un encabezado.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/scinventory/internal/application/catalog"
	"github.com/jhoicas/scinventory/internal/application/dto"
	"github.com/jhoicas/scinventory/internal/application/liveview"
	"github.com/jhoicas/scinventory/internal/domain"
	"github.com/jhoicas/scinventory/internal/domain/barcode"
	"github.com/jhoicas/scinventory/internal/infrastructure/store"
	"github.com/jhoicas/scinventory/pkg/config"
	"github.com/jhoicas/scinventory/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "el CSV está en ISO-8859-1")
	dryRun := flag.Bool("dry-run", false, "solo valida, no escribe")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: seed [-latin1] [-dry-run] items.csv")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "seed"})

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir CSV")
	}
	defer f.Close()

	var in io.Reader = f
	if *latin1 {
		in = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	drafts, err := readDrafts(in, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("leer CSV")
	}
	if *dryRun {
		log.Info().Int("rows", len(drafts)).Msg("dry-run: filas leídas, nada se escribe")
		return
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg, log.Component("store"))
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer st.Close()

	// El catálogo solo consulta la vista en ListItems/Grouped; aquí no se inicia.
	view := liveview.NewProjector(st.Items, st.Feed, zerolog.Nop())
	uc := catalog.NewUseCase(st.Items, barcode.NewGenerator(st.Registry, cfg.Barcode.MaxAttempts), view, log.Zerolog())

	created, skipped := load(ctx, uc, drafts, log.Zerolog())
	log.Info().Int("created", created).Int("skipped", skipped).Msg("seed terminado")
}

// row fila del CSV con su número de línea para los logs.
type row struct {
	line  int
	draft dto.ItemDraft
}

// readDrafts convierte el CSV en borradores. Filas con columnas faltantes o números ilegibles
// se registran y se omiten; la validación de negocio la hace el catálogo.
func readDrafts(r io.Reader, log zerolog.Logger) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []row
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "text") {
			continue
		}
		d, err := parseRecord(rec)
		if err != nil {
			log.Warn().Int("line", line).Err(err).Msg("fila omitida")
			continue
		}
		out = append(out, row{line: line, draft: d})
	}
}

func parseRecord(rec []string) (dto.ItemDraft, error) {
	if len(rec) < 7 {
		return dto.ItemDraft{}, fmt.Errorf("se esperaban al menos 7 columnas, hay %d", len(rec))
	}
	qty, err := strconv.Atoi(strings.TrimSpace(rec[2]))
	if err != nil {
		return dto.ItemDraft{}, fmt.Errorf("quantity %q: %w", rec[2], err)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
	if err != nil {
		return dto.ItemDraft{}, fmt.Errorf("amount %q: %w", rec[3], err)
	}
	d := dto.ItemDraft{
		Text:          rec[0],
		College:       strings.ToUpper(strings.TrimSpace(rec[1])),
		Quantity:      qty,
		Amount:        amount,
		RequestedDate: strings.TrimSpace(rec[4]),
		Supplier:      rec[5],
		ItemType:      strings.TrimSpace(rec[6]),
	}
	if len(rec) > 7 {
		if img := strings.TrimSpace(rec[7]); img != "" {
			d.Image = &img
		}
	}
	return d, nil
}

// ItemCreator alta de ítems (catalog.UseCase).
type ItemCreator interface {
	CreateItem(ctx context.Context, draft *dto.ItemDraft) (*dto.ItemResponse, error)
}

var _ ItemCreator = (*catalog.UseCase)(nil)

// load crea cada fila; un error de validación omite la fila, un fallo del almacén detiene la carga.
func load(ctx context.Context, uc ItemCreator, rows []row, log zerolog.Logger) (created, skipped int) {
	for _, r := range rows {
		draft := r.draft
		out, err := uc.CreateItem(ctx, &draft)
		switch {
		case err == nil:
			created++
			log.Debug().Int("line", r.line).Str("barcode", out.Barcode).Msg("ítem cargado")
		case errors.Is(err, domain.ErrInvalidInput):
			skipped++
			log.Warn().Int("line", r.line).Err(err).Msg("fila inválida omitida")
		default:
			log.Error().Int("line", r.line).Err(err).Msg("carga interrumpida")
			return created, skipped + len(rows) - created - skipped
		}
	}
	return created, skipped
}
