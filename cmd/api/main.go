package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tu-usuario/medstock-pro/internal/application/automation"
	"github.com/tu-usuario/medstock-pro/internal/application/ledger"
	"github.com/tu-usuario/medstock-pro/internal/application/orders"
	"github.com/tu-usuario/medstock-pro/internal/application/reorder"
	infrapdf "github.com/tu-usuario/medstock-pro/internal/infrastructure/pdf"
	"github.com/tu-usuario/medstock-pro/internal/infrastructure/postgres"
	"github.com/tu-usuario/medstock-pro/internal/infrastructure/transport"
	transportapi "github.com/tu-usuario/medstock-pro/internal/infrastructure/transport/api"
	"github.com/tu-usuario/medstock-pro/internal/infrastructure/transport/document"
	"github.com/tu-usuario/medstock-pro/internal/infrastructure/transport/manual"
	httpRouter "github.com/tu-usuario/medstock-pro/internal/interfaces/http"
	"github.com/tu-usuario/medstock-pro/pkg/config"
	"github.com/tu-usuario/medstock-pro/pkg/logger"
)

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
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")
	// Los adaptadores y casos de uso reciben el zerolog interno del wrapper.
	zlog := log.Zerolog()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Repositorios sobre el pool; los casos de uso transaccionales reciben
	// además el TxRunner, que les entrega repos ligados a la transacción.
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

	// Canales de envío: documento estructurado (EDI), API del proveedor y
	// manual (orden de compra en PDF). email comparte el canal manual.
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

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "MedStock API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:           ledgerUC,
		Suggest:          suggestUC,
		Splitter:         splitter,
		Dispatcher:       dispatcher,
		Tracking:         trackingUC,
		Automation:       automationUC,
		OrderRepo:        orderRepo,
		NotificationRepo: notificationRepo,
		JWTSecret:        cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
