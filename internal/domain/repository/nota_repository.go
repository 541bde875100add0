package repository

import (
	"context"

	"github.com/fiscalgo/emissor-nfe/internal/domain/entity"
)

// NotaRepository define o porto de persistência das notas emitidas.
type NotaRepository interface {
	Create(ctx context.Context, nota *entity.NotaEmitida) error
	// Update atualiza os campos do ciclo SEFAZ:
	// status, xml_assinado, protocolo, motivo.
	Update(ctx context.Context, nota *entity.NotaEmitida) error
	GetByID(ctx context.Context, empresaID, id string) (*entity.NotaEmitida, error)
	GetByChave(ctx context.Context, chave string) (*entity.NotaEmitida, error)
	ListByEmpresa(ctx context.Context, empresaID string, limit, offset int) ([]*entity.NotaEmitida, error)
	// ProximoNumero aloca o próximo nNF da série, de forma atômica.
	ProximoNumero(ctx context.Context, empresaID string, serie int) (int, error)
}
