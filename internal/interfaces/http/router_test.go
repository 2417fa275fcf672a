package http_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pozinox/tienda-api/internal/domain/entity"
	apphttp "github.com/pozinox/tienda-api/internal/interfaces/http"
)

// buildRouterApp registra el router completo. Los handlers no llegan a
// invocarse en estos tests: el interés es qué rutas exigen sesión.
func buildRouterApp() *fiber.App {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		CustomerRepo: &fakeCustomerRepo{byUserID: map[string]*entity.Customer{}},
		JWTSecret:    testJWTSecret,
	})
	return app
}

// El retorno del checkout exige la sesión del dueño: con el puro id de la
// cotización y un status forjado en la URL no se obtiene nada.
func TestRouter_RetornoDePagoRequiereSesion(t *testing.T) {
	app := buildRouterApp()

	req := httptest.NewRequest(http.MethodGet,
		"/api/pagos/retorno?external_reference=q-1&status=approved&payment_id=123", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN")
	assert.NotContains(t, string(body), "q-1", "no se filtra información de la cotización")
}

// El webhook servidor-a-servidor sigue siendo público (el gateway no conoce
// nuestros tokens); un cuerpo inválido responde 400, nunca 401.
func TestRouter_WebhookEsPublico(t *testing.T) {
	app := buildRouterApp()

	req := httptest.NewRequest(http.MethodPost, "/api/pagos/webhook", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
