package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fiscalgo/emissor-nfe/internal/application/dto"
	domnfe "github.com/fiscalgo/emissor-nfe/internal/domain/nfe"
	pkgnfe "github.com/fiscalgo/emissor-nfe/pkg/nfe"
)

// ChaveHandler valida e decompõe chaves de acesso (público: a chave já
// circula impressa no DANFE).
type ChaveHandler struct{}

// NewChaveHandler constrói o handler.
func NewChaveHandler() *ChaveHandler {
	return &ChaveHandler{}
}

// Inspecionar valida o dígito verificador e decompõe a chave.
// GET /api/chaves/:chave
func (h *ChaveHandler) Inspecionar(c *fiber.Ctx) error {
	chave := c.Params("chave")

	resp := dto.ChaveResponse{
		Chave:  chave,
		Valida: domnfe.ValidarChave(chave),
	}
	campos, err := domnfe.ParseChave(chave)
	if err != nil {
		// Tamanho errado: devolve só o veredito, sem decomposição.
		return c.JSON(resp)
	}

	resp.ChaveFormatada = domnfe.FormatarChave(chave)
	resp.CodigoUF = campos.CodigoUF
	resp.AnoMes = campos.AnoMes
	resp.CNPJ = campos.CNPJ
	resp.Modelo = campos.Modelo
	resp.Serie = campos.Serie
	resp.Numero = campos.Numero
	resp.TipoEmissao = campos.TipoEmissao
	resp.CodigoNF = campos.CodigoNF
	resp.DV = campos.DV

	// A sigla é informativa: código IBGE desconhecido não invalida o parse.
	if codigo := int(campos.CodigoUF[0]-'0')*10 + int(campos.CodigoUF[1]-'0'); codigo > 0 {
		if uf, err := pkgnfe.UFPorCodigo(codigo); err == nil {
			resp.UF = uf
		}
	}

	return c.JSON(resp)
}
