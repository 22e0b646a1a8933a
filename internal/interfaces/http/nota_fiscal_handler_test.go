package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalbr/nfe-api/internal/application/fiscal"
	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	apphttp "github.com/fiscalbr/nfe-api/internal/interfaces/http"
)

// notaRepoFixo devolve sempre a mesma nota, qualquer que seja o ID.
type notaRepoFixo struct {
	nota *entity.NotaFiscal
}

func (r *notaRepoFixo) Create(context.Context, *entity.NotaFiscal) error { return nil }

func (r *notaRepoFixo) GetByID(context.Context, string) (*entity.NotaFiscal, error) {
	if r.nota == nil {
		return nil, domain.ErrNaoEncontrado
	}
	return r.nota, nil
}

func (r *notaRepoFixo) GetByChave(context.Context, string) (*entity.NotaFiscal, error) {
	return r.GetByID(context.Background(), "")
}

func (r *notaRepoFixo) Update(context.Context, *entity.NotaFiscal) error { return nil }

func (r *notaRepoFixo) ListPendentesAntigas(context.Context, time.Time) ([]*entity.NotaFiscal, error) {
	return nil, nil
}

func (r *notaRepoFixo) ListByEmpresa(context.Context, string, int) ([]*entity.NotaFiscal, error) {
	return nil, nil
}

// appDeEventos monta uma aplicação com as rotas de cancelamento e carta de
// correção servidas por um caso de uso real sobre a nota dada.
func appDeEventos(nota *entity.NotaFiscal) *fiber.App {
	eventos := fiscal.NewEventosUseCase(&notaRepoFixo{nota: nota}, nil, nil, nil, nil, nil, nil, nil, nil)
	h := apphttp.NewNotaFiscalHandler(nil, nil, eventos, nil)

	app := fiber.New()
	app.Post("/api/notas/:id/cancelar", h.Cancelar)
	app.Post("/api/notas/:id/carta-correcao", h.CartaCorrecao)
	return app
}

func notaAutorizada() *entity.NotaFiscal {
	return &entity.NotaFiscal{
		ID:     "5f1b0a52-0000-0000-0000-000000000042",
		Status: entity.StatusAutorizada,
	}
}

func postJSON(t *testing.T, app *fiber.App, rota, corpo string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, rota, strings.NewReader(corpo))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	return resp, out
}

func TestCancelar_JustificativaCurtaRespondeBadRequest(t *testing.T) {
	app := appDeEventos(notaAutorizada())

	resp, out := postJSON(t, app, "/api/notas/42/cancelar", `{"justificativa":"curta demais"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", out["code"])
	assert.Contains(t, out["message"], "justificativa")
}

func TestCartaCorrecao_TextoCurtoRespondeBadRequest(t *testing.T) {
	app := appDeEventos(notaAutorizada())

	resp, out := postJSON(t, app, "/api/notas/42/carta-correcao", `{"correcao":"errei"}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", out["code"])
}
