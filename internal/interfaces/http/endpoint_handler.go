package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fiscalgo/emissor-nfe/internal/application/dto"
	infranfe "github.com/fiscalgo/emissor-nfe/internal/infrastructure/nfe"
)

// EndpointHandler expõe a resolução de webservices SEFAZ (protegido).
type EndpointHandler struct {
	resolver *infranfe.EndpointResolverService
}

// NewEndpointHandler constrói o handler.
func NewEndpointHandler(resolver *infranfe.EndpointResolverService) *EndpointHandler {
	return &EndpointHandler{resolver: resolver}
}

var servicosConsultaveis = []infranfe.Servico{
	infranfe.ServicoAutorizacao,
	infranfe.ServicoRetAutorizacao,
	infranfe.ServicoConsultaProtocolo,
	infranfe.ServicoStatusServico,
	infranfe.ServicoRecepcaoEvento,
	infranfe.ServicoInutilizacao,
}

// Resolver devolve as URLs de todos os serviços para a UF e ambiente pedidos.
// GET /api/sefaz/endpoints?uf=SP&ambiente=producao&contingencia=false
func (h *EndpointHandler) Resolver(c *fiber.Ctx) error {
	uf := c.Query("uf")
	ambiente := infranfe.Ambiente(c.Query("ambiente", string(infranfe.Homologacao)))
	contingencia := c.QueryBool("contingencia", false)

	autorizador, err := h.resolver.AutorizadorDaUF(uf)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	servicos := make(map[string]string, len(servicosConsultaveis))
	for _, svc := range servicosConsultaveis {
		url, err := h.resolver.Resolve(uf, svc, ambiente, contingencia)
		if err != nil {
			if errors.Is(err, infranfe.ErrServicoIndisponivel) {
				// SVC não oferece inutilização: omite em vez de falhar tudo.
				continue
			}
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		servicos[string(svc)] = url
	}

	if contingencia {
		if autorizador == infranfe.AutorizadorSVRS {
			autorizador = infranfe.AutorizadorSVCRS
		} else {
			autorizador = infranfe.AutorizadorSVCAN
		}
	}

	return c.JSON(dto.EndpointResponse{
		UF:           uf,
		Autorizador:  string(autorizador),
		Ambiente:     string(ambiente),
		Contingencia: contingencia,
		Servicos:     servicos,
	})
}
