package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/pozinox/tienda-api/internal/application/auth"
	"github.com/pozinox/tienda-api/internal/application/billing"
	"github.com/pozinox/tienda-api/internal/application/catalog"
	"github.com/pozinox/tienda-api/internal/application/dto"
	"github.com/pozinox/tienda-api/internal/application/payment"
	appquote "github.com/pozinox/tienda-api/internal/application/quote"
	"github.com/pozinox/tienda-api/internal/application/sales"
	infragw "github.com/pozinox/tienda-api/internal/infrastructure/mercadopago"
	"github.com/pozinox/tienda-api/internal/infrastructure/mail"
	infrapdf "github.com/pozinox/tienda-api/internal/infrastructure/pdf"
	"github.com/pozinox/tienda-api/internal/infrastructure/postgres"
	"github.com/pozinox/tienda-api/internal/infrastructure/storage"
	httpRouter "github.com/pozinox/tienda-api/internal/interfaces/http"
	"github.com/pozinox/tienda-api/pkg/config"
	"github.com/pozinox/tienda-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	quoteRepo := postgres.NewQuoteRepository(pool)
	transferRepo := postgres.NewBankTransferRepository(pool)
	saleRepo := postgres.NewExternalSaleRepository(pool)
	seqRepo := postgres.NewSequenceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	files, err := storage.NewLocalStore(cfg.Archivos.Dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.Archivos.Dir).Msg("almacenamiento de archivos")
	}

	// Gateway de pago online. Sin access token el servidor igual arranca:
	// transferencia y efectivo no dependen de MercadoPago.
	var gateway payment.Gateway
	if cfg.Pagos.MercadoPagoAccessToken != "" {
		gw, err := infragw.New(cfg.Pagos.MercadoPagoAccessToken, cfg.HTTP.BaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("inicializar MercadoPago")
		}
		gateway = gw
	} else {
		log.Warn().Msg("MERCADOPAGO_ACCESS_TOKEN no configurado: pago online deshabilitado")
		gateway = infragw.Disabled{}
	}

	notifier := mail.NewGomailNotifier(cfg.SMTP, cfg.Empresa.Cuenta.EmailConfirmacion, customerRepo, log)
	renderer := infrapdf.NewMarotoReceiptRenderer()

	engine := billing.NewEngine(
		txRunner, quoteRepo, customerRepo, renderer, files, notifier,
		billing.IssuerConfig{
			RazonSocial: cfg.Empresa.RazonSocial,
			RUT:         cfg.Empresa.RUT,
			Direccion:   cfg.Empresa.Direccion,
			Email:       cfg.Empresa.Email,
			Telefono:    cfg.Empresa.Telefono,
		},
		log,
	)

	quoteUC := appquote.NewUseCase(quoteRepo, productRepo, seqRepo, appquote.Config{
		TaxRate:      cfg.Pagos.TasaIVA,
		ValidityDays: cfg.Pagos.VigenciaCotizacionDias,
	}, log)
	quotePDFUC := appquote.NewPDFUseCase(
		quoteRepo, customerRepo, infrapdf.NewMarotoQuoteRenderer(),
		cfg.Empresa.RazonSocial, cfg.Empresa.RUT,
	)

	paymentRouter := payment.NewRouter(quoteRepo, gateway, engine, payment.InstructionsConfig{
		Bank: dto.BankAccountInfo{
			Banco:             cfg.Empresa.Cuenta.Banco,
			TipoCuenta:        cfg.Empresa.Cuenta.TipoCuenta,
			NumeroCuenta:      cfg.Empresa.Cuenta.NumeroCuenta,
			RUTTitular:        cfg.Empresa.Cuenta.RUTTitular,
			NombreTitular:     cfg.Empresa.Cuenta.NombreTitular,
			EmailConfirmacion: cfg.Empresa.Cuenta.EmailConfirmacion,
		},
		Pickup: dto.PickupInfo{
			Direccion: cfg.Empresa.Retiro.Direccion,
			Horarios:  cfg.Empresa.Retiro.Horarios,
			Telefono:  cfg.Empresa.Retiro.Telefono,
		},
		TransferValidityDays: cfg.Pagos.VigenciaTransferenciaDias,
	}, log)

	transferUC := payment.NewTransferUseCase(
		quoteRepo, transferRepo, files, notifier,
		cfg.Pagos.VigenciaTransferenciaDias, log,
	)

	importer := sales.NewImporter(txRunner, saleRepo, quoteRepo, engine, cfg.Pagos.TasaIVA, log)
	customerUC := billing.NewCustomerUseCase(customerRepo)
	catalogUC := catalog.NewUseCase(productRepo)
	authUC := auth.NewAuthUseCase(userRepo, customerRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    8 << 20, // comprobantes de transferencia
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Pozinox Tienda API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		CustomerUC:    customerUC,
		CatalogUC:     catalogUC,
		QuoteUC:       quoteUC,
		QuotePDFUC:    quotePDFUC,
		PaymentRouter: paymentRouter,
		TransferUC:    transferUC,
		Engine:        engine,
		Importer:      importer,
		CustomerRepo:  customerRepo,
		JWTSecret:     cfg.JWT.Secret,
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
