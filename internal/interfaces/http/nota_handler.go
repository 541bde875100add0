package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fiscalgo/emissor-nfe/internal/application/dto"
	"github.com/fiscalgo/emissor-nfe/internal/application/emissao"
	"github.com/fiscalgo/emissor-nfe/internal/domain"
	domnfe "github.com/fiscalgo/emissor-nfe/internal/domain/nfe"
)

// NotaHandler trata as requisições HTTP de emissão (protegido).
type NotaHandler struct {
	uc      *emissao.EmitirNotaUseCase
	danfeUC *emissao.DANFEUseCase
}

// NewNotaHandler constrói o handler.
func NewNotaHandler(uc *emissao.EmitirNotaUseCase, danfeUC *emissao.DANFEUseCase) *NotaHandler {
	return &NotaHandler{uc: uc, danfeUC: danfeUC}
}

// Emitir gera chave e XML e dispara o processamento SEFAZ.
// POST /api/notas
func (h *NotaHandler) Emitir(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.EmitirNotaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "corpo inválido"})
	}
	nota, err := h.uc.Emitir(c.Context(), empresaID, in)
	if err != nil {
		if errors.Is(err, domnfe.ErrNotaInvalida) ||
			errors.Is(err, domnfe.ErrCNPJInvalido) ||
			errors.Is(err, domnfe.ErrSerieInvalida) ||
			errors.Is(err, domnfe.ErrNumeroInvalido) ||
			errors.Is(err, domnfe.ErrTipoEmissaoInvalido) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrUnauthorized) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(nota)
}

// Listar devolve as notas da empresa, paginadas.
// GET /api/notas
func (h *NotaHandler) Listar(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginação inválida"})
	}
	notas, err := h.uc.Listar(c.Context(), empresaID, page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(notas)
}

// Consultar devolve o resumo de uma nota.
// GET /api/notas/:id
func (h *NotaHandler) Consultar(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id obrigatório"})
	}
	nota, err := h.uc.Consultar(c.Context(), empresaID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nota não encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(nota)
}

// XML devolve o XML da nota (assinado, se disponível).
// GET /api/notas/:id/xml
func (h *NotaHandler) XML(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	xml, err := h.uc.XMLDaNota(c.Context(), empresaID, c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nota não encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.SendString(xml)
}

// DANFE devolve o PDF do DANFE da nota.
// GET /api/notas/:id/danfe
func (h *NotaHandler) DANFE(c *fiber.Ctx) error {
	empresaID := GetEmpresaID(c)
	if empresaID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	pdf, err := h.danfeUC.Gerar(c.Context(), empresaID, c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nota não encontrada"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(pdf)
}
