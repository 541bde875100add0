package emissao_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalgo/emissor-nfe/internal/application/dto"
	"github.com/fiscalgo/emissor-nfe/internal/application/emissao"
	"github.com/fiscalgo/emissor-nfe/internal/domain"
	"github.com/fiscalgo/emissor-nfe/internal/domain/entity"
	domnfe "github.com/fiscalgo/emissor-nfe/internal/domain/nfe"
	infranfe "github.com/fiscalgo/emissor-nfe/internal/infrastructure/nfe"
	"github.com/fiscalgo/emissor-nfe/pkg/logger"
)

const empresaTeste = "00000000-0000-0000-0000-000000000002"

// repoMemoria é um NotaRepository em memória para os testes do caso de uso.
type repoMemoria struct {
	mu     sync.Mutex
	notas  map[string]*entity.NotaEmitida
	series map[string]int
}

func novoRepoMemoria() *repoMemoria {
	return &repoMemoria{
		notas:  map[string]*entity.NotaEmitida{},
		series: map[string]int{},
	}
}

func (r *repoMemoria) Create(_ context.Context, nota *entity.NotaEmitida) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *nota
	r.notas[nota.ID] = &c
	return nil
}

func (r *repoMemoria) Update(_ context.Context, nota *entity.NotaEmitida) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *nota
	r.notas[nota.ID] = &c
	return nil
}

func (r *repoMemoria) GetByID(_ context.Context, empresaID, id string) (*entity.NotaEmitida, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notas[id]
	if !ok || (empresaID != "" && n.EmpresaID != empresaID) {
		return nil, nil
	}
	c := *n
	return &c, nil
}

func (r *repoMemoria) GetByChave(_ context.Context, chave string) (*entity.NotaEmitida, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notas {
		if n.Chave == chave {
			c := *n
			return &c, nil
		}
	}
	return nil, nil
}

func (r *repoMemoria) ListByEmpresa(_ context.Context, empresaID string, limit, offset int) ([]*entity.NotaEmitida, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.NotaEmitida
	for _, n := range r.notas {
		if n.EmpresaID == empresaID {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *repoMemoria) ProximoNumero(_ context.Context, empresaID string, serie int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := fmt.Sprintf("%s/%d", empresaID, serie)
	r.series[k]++
	return r.series[k], nil
}

func usecaseDeTeste(repo *repoMemoria) *emissao.EmitirNotaUseCase {
	return emissao.NewEmitirNotaUseCase(
		repo,
		infranfe.NewXMLBuilderService(),
		infranfe.NewEndpointResolverService(),
		nil, nil,
		emissao.Config{
			UF:           "SP",
			Ambiente:     "homologacao",
			SerieDefault: 1,
			AppEnv:       "development",
		},
		logger.New(logger.Config{Env: "development", Level: "error"}),
	)
}

func valor(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func requisicaoDeTeste(t *testing.T) dto.EmitirNotaRequest {
	t.Helper()
	return dto.EmitirNotaRequest{
		NaturezaOperacao: "VENDA DE MERCADORIA",
		DataEmissao:      time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		Emitente: dto.EmitenteDTO{
			CNPJ:        "11.222.333/0001-81",
			RazaoSocial: "COMERCIO DE DOCES LTDA",
			IE:          "123456789012",
			CRT:         1,
			Endereco: dto.EnderecoDTO{
				Logradouro:      "Rua das Laranjeiras",
				Numero:          "100",
				Bairro:          "Centro",
				CodigoMunicipio: "3550308",
				Municipio:       "São Paulo",
				UF:              "SP",
				CEP:             "01001-000",
			},
		},
		Destinatario: dto.DestinatarioDTO{
			CPF:       "123.456.789-09",
			Nome:      "FULANO DE TAL",
			IndIEDest: "9",
		},
		Itens: []dto.ItemDTO{
			{
				Codigo:        "P001",
				Descricao:     "Barra de chocolate",
				NCM:           "18063220",
				CFOP:          "5102",
				Unidade:       "UN",
				Quantidade:    valor(t, "2"),
				ValorUnitario: valor(t, "5.25"),
				ValorTotal:    valor(t, "10.50"),
				ICMS:          dto.ICMSDTO{Origem: "0", CSOSN: "102"},
				PIS:           dto.TributoDTO{CST: "07"},
				COFINS:        dto.TributoDTO{CST: "07"},
			},
		},
		ModFrete:   9,
		Pagamentos: []dto.PagamentoDTO{{Meio: "01", Valor: valor(t, "10.50")}},
	}
}

func TestEmitir_GeraPersisteEAutorizaSimulado(t *testing.T) {
	repo := novoRepoMemoria()
	uc := usecaseDeTeste(repo)
	ctx := context.Background()

	resp, err := uc.Emitir(ctx, empresaTeste, requisicaoDeTeste(t))
	require.NoError(t, err)

	// Resposta síncrona: chave válida, numeração alocada da série padrão.
	assert.Len(t, resp.Chave, 44)
	assert.True(t, domnfe.ValidarChave(resp.Chave))
	assert.Equal(t, 1, resp.Serie)
	assert.Equal(t, 1, resp.Numero)
	assert.Equal(t, entity.StatusGerada, resp.Status)
	assert.Equal(t, "NFe"+resp.Chave, resp.DocumentID)

	// Em development o ciclo assíncrono termina em autorização simulada.
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, uc.AguardarProcessamentos(waitCtx))

	nota, err := repo.GetByID(ctx, empresaTeste, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, nota)
	assert.Equal(t, entity.StatusAutorizada, nota.Status)
	assert.True(t, strings.HasPrefix(nota.Protocolo, "MOCK-"))
	assert.NotEmpty(t, nota.XML)
}

// O desligamento espera todas as goroutines de processamento: depois de
// AguardarProcessamentos nenhuma nota pode ficar presa em GERADA.
func TestAguardarProcessamentos_DrenaEmissoesEmVoo(t *testing.T) {
	repo := novoRepoMemoria()
	uc := usecaseDeTeste(repo)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		resp, err := uc.Emitir(ctx, empresaTeste, requisicaoDeTeste(t))
		require.NoError(t, err)
		ids = append(ids, resp.ID)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, uc.AguardarProcessamentos(waitCtx))

	for _, id := range ids {
		nota, err := repo.GetByID(ctx, empresaTeste, id)
		require.NoError(t, err)
		require.NotNil(t, nota)
		assert.Equal(t, entity.StatusAutorizada, nota.Status)
	}
}

func TestAguardarProcessamentos_RespeitaContexto(t *testing.T) {
	repo := novoRepoMemoria()
	uc := usecaseDeTeste(repo)

	// Fila vazia: retorna nil bem antes do prazo expirar.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, uc.AguardarProcessamentos(ctx))
}

func TestEmitir_SemEmpresaRetornaNaoAutorizado(t *testing.T) {
	uc := usecaseDeTeste(novoRepoMemoria())

	_, err := uc.Emitir(context.Background(), "", requisicaoDeTeste(t))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestEmitir_NumeracaoSequencialPorSerie(t *testing.T) {
	repo := novoRepoMemoria()
	uc := usecaseDeTeste(repo)
	ctx := context.Background()

	primeiro, err := uc.Emitir(ctx, empresaTeste, requisicaoDeTeste(t))
	require.NoError(t, err)
	segundo, err := uc.Emitir(ctx, empresaTeste, requisicaoDeTeste(t))
	require.NoError(t, err)

	assert.Equal(t, 1, primeiro.Numero)
	assert.Equal(t, 2, segundo.Numero)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, uc.AguardarProcessamentos(waitCtx))
}
