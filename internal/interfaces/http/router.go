package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fiscalgo/emissor-nfe/internal/application/emissao"
	infranfe "github.com/fiscalgo/emissor-nfe/internal/infrastructure/nfe"
)

// RouterDeps dependências para o router.
type RouterDeps struct {
	EmitirNota *emissao.EmitirNotaUseCase
	DANFE      *emissao.DANFEUseCase
	Resolver   *infranfe.EndpointResolverService
	JWTSecret  string
}

// Router registra as rotas da API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Chaves (público: o DANFE impresso já expõe a chave)
	chaveHandler := NewChaveHandler()
	api.Get("/chaves/:chave", chaveHandler.Inspecionar)

	// Rotas protegidas (exigem Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Notas (protegido)
	notas := protected.Group("/notas")
	notaHandler := NewNotaHandler(deps.EmitirNota, deps.DANFE)
	notas.Post("/", RequireRole("admin", "operador"), notaHandler.Emitir)
	notas.Get("/", notaHandler.Listar)
	notas.Get("/:id", notaHandler.Consultar)
	notas.Get("/:id/xml", notaHandler.XML)
	notas.Get("/:id/danfe", notaHandler.DANFE)

	// Roteamento SEFAZ (protegido)
	sefaz := protected.Group("/sefaz")
	endpointHandler := NewEndpointHandler(deps.Resolver)
	sefaz.Get("/endpoints", endpointHandler.Resolver)
}
