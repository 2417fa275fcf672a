package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pozinox/tienda-api/internal/application/auth"
	"github.com/pozinox/tienda-api/internal/application/billing"
	"github.com/pozinox/tienda-api/internal/application/catalog"
	"github.com/pozinox/tienda-api/internal/application/payment"
	appquote "github.com/pozinox/tienda-api/internal/application/quote"
	"github.com/pozinox/tienda-api/internal/application/sales"
	"github.com/pozinox/tienda-api/internal/domain/repository"
)

// RouterDeps dependencias de la capa HTTP.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	CustomerUC    *billing.CustomerUseCase
	CatalogUC     *catalog.UseCase
	QuoteUC       *appquote.UseCase
	QuotePDFUC    *appquote.PDFUseCase
	PaymentRouter *payment.Router
	TransferUC    *payment.TransferUseCase
	Engine        *billing.Engine
	Importer      *sales.Importer

	CustomerRepo repository.CustomerRepository
	JWTSecret    string
}

// Router registra todas las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	authHandler := NewAuthHandler(deps.AuthUC)
	profileHandler := NewProfileHandler(deps.CustomerUC)
	productHandler := NewProductHandler(deps.CatalogUC)
	quoteHandler := NewQuoteHandler(deps.QuoteUC, deps.QuotePDFUC)
	paymentHandler := NewPaymentHandler(deps.PaymentRouter)
	transferHandler := NewTransferHandler(deps.TransferUC)
	billingHandler := NewBillingHandler(deps.Engine)
	saleHandler := NewSaleHandler(deps.Importer)

	api := app.Group("/api")

	// Rutas públicas.
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Get("/productos", productHandler.List)
	api.Get("/productos/:id", productHandler.GetByID)

	// Webhook servidor-a-servidor del gateway: no lleva token nuestro.
	api.Post("/pagos/webhook", paymentHandler.Webhook)

	// Rutas autenticadas.
	authed := api.Group("", AuthMiddleware(deps.JWTSecret), CustomerMiddleware(deps.CustomerRepo))

	authed.Get("/perfil", profileHandler.Get)
	authed.Put("/perfil/facturacion", profileHandler.UpdateBilling)

	authed.Post("/cotizaciones", quoteHandler.Create)
	authed.Get("/cotizaciones", quoteHandler.ListMine)
	authed.Get("/cotizaciones/estado/:estado", RequireStaff(), quoteHandler.ListByState)
	authed.Get("/cotizaciones/:id", quoteHandler.Get)
	authed.Post("/cotizaciones/:id/lineas", quoteHandler.AddLine)
	authed.Put("/cotizaciones/:id/lineas/:lineaID", quoteHandler.UpdateLine)
	authed.Delete("/cotizaciones/:id/lineas/:lineaID", quoteHandler.RemoveLine)
	authed.Post("/cotizaciones/:id/finalizar", quoteHandler.Finalize)
	authed.Get("/cotizaciones/:id/pdf", quoteHandler.DownloadPDF)
	authed.Post("/cotizaciones/:id/cancelar", quoteHandler.Cancel)
	authed.Post("/cotizaciones/:id/preparacion/avanzar", RequireStaff(), quoteHandler.AdvancePreparation)

	authed.Post("/cotizaciones/:id/pago", paymentHandler.SelectMethod)
	authed.Get("/pagos/retorno", paymentHandler.Return)
	authed.Post("/cotizaciones/:id/transferencia/comprobante", transferHandler.SubmitProof)
	authed.Get("/cotizaciones/:id/transferencia", transferHandler.GetByQuote)

	authed.Get("/cotizaciones/:id/documento", billingHandler.Receipt)

	// Rutas de staff.
	authed.Get("/transferencias/pendientes", RequireStaff(), transferHandler.ListPending)
	authed.Post("/transferencias/:id/aprobar", RequireStaff(), transferHandler.Approve)
	authed.Post("/transferencias/:id/rechazar", RequireStaff(), transferHandler.Reject)
	authed.Post("/cotizaciones/:id/facturar", RequireStaff(), billingHandler.Invoice)
	authed.Post("/ventas/externas", RequireStaff(), saleHandler.Import)

	authed.Post("/productos", RequireStaff(), productHandler.Create)
	authed.Put("/productos/:id", RequireStaff(), productHandler.Update)

	// Administración de usuarios.
	authed.Post("/usuarios", RequireAdmin(), authHandler.RegisterStaff)
}
