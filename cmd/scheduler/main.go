package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/tu-usuario/medstock-pro/internal/application/automation"
	"github.com/tu-usuario/medstock-pro/internal/application/ledger"
	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/application/reorder"
	"github.com/tu-usuario/medstock-pro/internal/domain"
	infrapdf "github.com/tu-usuario/medstock-pro/internal/infrastructure/pdf"
	"github.com/tu-usuario/medstock-pro/internal/infrastructure/postgres"
	"github.com/tu-usuario/medstock-pro/internal/infrastructure/transport"
	transportapi "github.com/tu-usuario/medstock-pro/internal/infrastructure/transport/api"
	"github.com/tu-usuario/medstock-pro/internal/infrastructure/transport/document"
	"github.com/tu-usuario/medstock-pro/internal/infrastructure/transport/manual"
	"github.com/tu-usuario/medstock-pro/pkg/config"
	"github.com/tu-usuario/medstock-pro/pkg/logger"
)

// El scheduler corre la reposición automática con cadencia fija: cada tick
// ejecuta RunAll (todas las organizaciones con automatización habilitada) y,
// si está habilitado, la revisión de pedidos atrasados.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Int("interval_minutes", cfg.Automation.Interval).
		Msg("iniciando scheduler de reposición")
	// Los adaptadores y casos de uso reciben el zerolog interno del wrapper.
	zlog := log.Zerolog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	orgRepo := postgres.NewOrganizationRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	levelRepo := postgres.NewStockLevelRepository(pool)
	batchRepo := postgres.NewBatchRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	orderRepo := postgres.NewSupplierOrderRepository(pool)
	draftRepo := postgres.NewOrderDraftRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	retry := ledger.DefaultRetryPolicy()

	ledgerUC := ledger.NewRecordMovementUseCase(txRunner, orgRepo, locationRepo, productRepo, movementRepo, retry)
	suggestUC := reorder.NewSuggestUseCase(levelRepo, productRepo, batchRepo)
	splitter := orders.NewSplitter(supplierRepo)

	httpClient := &http.Client{}
	transportTimeout := time.Duration(cfg.Transport.TimeoutSeconds) * time.Second
	documentAdapter := document.NewAdapter(httpClient, document.BuyerParty{
		Name:       cfg.Buyer.Name,
		Address:    cfg.Buyer.Address,
		City:       cfg.Buyer.City,
		PostalCode: cfg.Buyer.PostalCode,
		Country:    cfg.Buyer.Country,
	}, transportTimeout, zlog)
	apiAdapter := transportapi.NewAdapter(httpClient, transportapi.Customer{
		ID:         cfg.Buyer.GLN,
		Name:       cfg.Buyer.Name,
		Street:     cfg.Buyer.Address,
		City:       cfg.Buyer.City,
		PostalCode: cfg.Buyer.PostalCode,
		Country:    cfg.Buyer.Country,
		Email:      cfg.Buyer.Email,
		Phone:      cfg.Buyer.Phone,
	}, zlog)
	pdfGenerator := infrapdf.NewMarotoOrderGenerator(infrapdf.Buyer{
		Name:       cfg.Buyer.Name,
		Address:    cfg.Buyer.Address,
		City:       cfg.Buyer.City,
		PostalCode: cfg.Buyer.PostalCode,
		Country:    cfg.Buyer.Country,
		Email:      cfg.Buyer.Email,
		Phone:      cfg.Buyer.Phone,
	})
	manualAdapter := manual.NewAdapter(pdfGenerator, cfg.Transport.PDFOutDir, zlog)
	registry := transport.NewRegistry(documentAdapter, apiAdapter, manualAdapter)

	dispatcher := orders.NewDispatcher(registry, supplierRepo, orderRepo, notificationRepo, ledgerUC, nil, zlog)
	trackingUC := orders.NewTrackingUseCase(txRunner, orderRepo, ledgerUC, notificationRepo, retry, zlog)
	automationUC := automation.NewUseCase(orgRepo, levelRepo, batchRepo, suggestUC, splitter, dispatcher, draftRepo, notificationRepo, zlog)

	interval := time.Duration(cfg.Automation.Interval) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Automation.RunOnStart {
		runOnce(ctx, zlog, cfg, automationUC, trackingUC, orgRepo)
	}

	for {
		select {
		case <-ticker.C:
			runOnce(ctx, zlog, cfg, automationUC, trackingUC, orgRepo)
		case <-quit:
			log.Info().Msg("señal de apagado recibida, deteniendo scheduler")
			cancel()
			return
		}
	}
}

// runOnce ejecuta una corrida completa: reposición para todas las
// organizaciones habilitadas y, opcionalmente, detección de pedidos atrasados.
func runOnce(
	ctx context.Context,
	log zerolog.Logger,
	cfg *config.Config,
	automationUC *automation.UseCase,
	trackingUC *orders.TrackingUseCase,
	orgRepo *postgres.OrganizationRepo,
) {
	started := time.Now()
	results, err := automationUC.RunAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("corrida de reposición fallida")
		return
	}
	sent, failed, drafts := 0, 0, 0
	for _, r := range results {
		if r == nil || r.Err != nil {
			continue
		}
		sent += r.OrdersSent
		failed += r.OrdersFailed
		if r.DraftID != "" {
			drafts++
		}
	}
	log.Info().
		Int("organizations", len(results)).
		Int("orders_sent", sent).
		Int("orders_failed", failed).
		Int("drafts", drafts).
		Dur("elapsed", time.Since(started)).
		Msg("corrida de reposición terminada")

	if !cfg.Automation.OverdueCheck {
		return
	}
	orgs, err := orgRepo.ListAutomationEnabled()
	if err != nil {
		log.Error().Err(err).Msg("listar organizaciones para revisión de atrasos")
		return
	}
	for _, org := range orgs {
		orgCtx := domain.OrganizationContext{OrganizationID: org.ID, UserID: "automation"}
		overdue, err := trackingUC.CheckOverdue(ctx, orgCtx)
		if err != nil {
			log.Warn().Err(err).Str("organization_id", org.ID).Msg("revisión de pedidos atrasados fallida")
			continue
		}
		if len(overdue) > 0 {
			log.Warn().Str("organization_id", org.ID).Int("overdue", len(overdue)).Msg("pedidos con entrega vencida")
		}
	}
}
