package emissao

import (
	"context"

	"github.com/fiscalgo/emissor-nfe/internal/domain"
	"github.com/fiscalgo/emissor-nfe/internal/domain/repository"
)

// DANFEUseCase gera a representação gráfica (DANFE) de uma nota emitida.
type DANFEUseCase struct {
	notaRepo repository.NotaRepository
	gerador  GeradorDANFE
}

// NewDANFEUseCase constrói o caso de uso.
func NewDANFEUseCase(notaRepo repository.NotaRepository, gerador GeradorDANFE) *DANFEUseCase {
	return &DANFEUseCase{notaRepo: notaRepo, gerador: gerador}
}

// Gerar devolve os bytes do PDF do DANFE da nota.
func (uc *DANFEUseCase) Gerar(ctx context.Context, empresaID, id string) ([]byte, error) {
	nota, err := uc.notaRepo.GetByID(ctx, empresaID, id)
	if err != nil {
		return nil, err
	}
	if nota == nil {
		return nil, domain.ErrNotFound
	}
	return uc.gerador.GerarDANFE(ctx, nota)
}
