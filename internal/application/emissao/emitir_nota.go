package emissao

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiscalgo/emissor-nfe/internal/application/dto"
	"github.com/fiscalgo/emissor-nfe/internal/domain"
	"github.com/fiscalgo/emissor-nfe/internal/domain/entity"
	domnfe "github.com/fiscalgo/emissor-nfe/internal/domain/nfe"
	"github.com/fiscalgo/emissor-nfe/internal/domain/repository"
	infranfe "github.com/fiscalgo/emissor-nfe/internal/infrastructure/nfe"
	"github.com/fiscalgo/emissor-nfe/pkg/logger"
	pkgnfe "github.com/fiscalgo/emissor-nfe/pkg/nfe"
)

// Config parâmetros de emissão vindos da configuração da aplicação.
type Config struct {
	UF           string // UF de roteamento SEFAZ
	Ambiente     string // "producao" ou "homologacao"
	Contingencia bool
	SerieDefault int
	AppEnv       string // "development" simula assinatura/transmissão
}

// EmitirNotaUseCase orquestra o ciclo completo de emissão:
//
//	Validação → Chave → XML → Persistir GERADA → Assinar → Lote → Envio → Update DB
//
// A geração é síncrona (o chamador recebe chave e XML na resposta); assinatura
// e transmissão rodam em goroutine própria com context.Background() + timeout,
// desacopladas do ciclo HTTP.
//
// Modos (controlados por Config.AppEnv):
//   - "development" → gera o XML e simula autorização. Estado final: AUTORIZADA (mock).
//   - qualquer outro → exige Assinador e Transmissor injetados; envia à SEFAZ.
type EmitirNotaUseCase struct {
	notaRepo    repository.NotaRepository
	builder     *infranfe.XMLBuilderService
	resolver    *infranfe.EndpointResolverService
	assinador   Assinador
	transmissor Transmissor
	cfg         Config
	log         *logger.Logger
	processos   sync.WaitGroup
}

// NewEmitirNotaUseCase constrói o caso de uso. assinador e transmissor podem
// ser nil: nesse caso só o modo development funciona.
func NewEmitirNotaUseCase(
	notaRepo repository.NotaRepository,
	builder *infranfe.XMLBuilderService,
	resolver *infranfe.EndpointResolverService,
	assinador Assinador,
	transmissor Transmissor,
	cfg Config,
	log *logger.Logger,
) *EmitirNotaUseCase {
	return &EmitirNotaUseCase{
		notaRepo:    notaRepo,
		builder:     builder,
		resolver:    resolver,
		assinador:   assinador,
		transmissor: transmissor,
		cfg:         cfg,
		log:         log,
	}
}

// Emitir gera chave e XML, persiste a nota como GERADA e dispara o
// processamento assíncrono de assinatura e transmissão.
func (uc *EmitirNotaUseCase) Emitir(ctx context.Context, empresaID string, req dto.EmitirNotaRequest) (*dto.NotaResponse, error) {
	if empresaID == "" {
		return nil, domain.ErrUnauthorized
	}

	if req.Serie == 0 {
		req.Serie = uc.cfg.SerieDefault
	}
	if req.DataEmissao.IsZero() {
		req.DataEmissao = time.Now()
	}
	if req.Numero == 0 {
		numero, err := uc.notaRepo.ProximoNumero(ctx, empresaID, req.Serie)
		if err != nil {
			return nil, fmt.Errorf("alocar número da série %d: %w", req.Serie, err)
		}
		req.Numero = numero
	}

	nota := req.ParaDominio()
	nota.Identificacao.Ambiente = uc.tpAmb()

	resultado, err := uc.builder.Build(nota)
	if err != nil {
		return nil, err
	}

	agora := time.Now()
	registro := &entity.NotaEmitida{
		ID:           uuid.New().String(),
		EmpresaID:    empresaID,
		Chave:        resultado.Chave,
		Serie:        req.Serie,
		Numero:       req.Numero,
		Destinatario: req.Destinatario.Nome,
		ValorTotal:   valorTotal(nota),
		Ambiente:     nota.Identificacao.Ambiente,
		Status:       entity.StatusGerada,
		XML:          resultado.XML,
		CreatedAt:    agora,
		UpdatedAt:    agora,
	}
	if err := uc.notaRepo.Create(ctx, registro); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("nota_id", registro.ID).
		Str("chave", registro.Chave).
		Int("serie", registro.Serie).
		Int("numero", registro.Numero).
		Msg("nota gerada")

	uc.ProcessarAsync(registro.ID)

	return paraResponse(registro), nil
}

// ProcessarAsync dispara assinatura e transmissão em goroutine própria,
// registrada no WaitGroup para o desligamento gracioso aguardar.
func (uc *EmitirNotaUseCase) ProcessarAsync(notaID string) {
	uc.processos.Add(1)
	go func() {
		defer uc.processos.Done()
		uc.processar(notaID)
	}()
}

// AguardarProcessamentos bloqueia até todos os processamentos assíncronos em
// curso terminarem, ou até o contexto expirar. Chamado no desligamento para
// não matar uma nota no meio do ciclo assinar/transmitir/atualizar.
func (uc *EmitirNotaUseCase) AguardarProcessamentos(ctx context.Context) error {
	concluido := make(chan struct{})
	go func() {
		uc.processos.Wait()
		close(concluido)
	}()
	select {
	case <-concluido:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// processar é o núcleo assíncrono. Sempre termina atualizando o status no
// banco (AUTORIZADA, REJEITADA ou ERRO_GERACAO).
func (uc *EmitirNotaUseCase) processar(notaID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	marcarErro := func(nota *entity.NotaEmitida, etapa, msg string) {
		nota.Status = entity.StatusErroGeracao
		nota.Motivo = msg
		nota.UpdatedAt = time.Now()
		if err := uc.notaRepo.Update(ctx, nota); err != nil {
			uc.log.Error().Err(err).Str("nota_id", notaID).Msg("persistir ERRO_GERACAO")
		}
		uc.log.Error().Str("nota_id", notaID).Str("etapa", etapa).Msg(msg)
	}

	// Re-fetch: dados frescos, fora da goroutine HTTP.
	nota, err := uc.buscarPorID(ctx, notaID)
	if err != nil || nota == nil {
		uc.log.Error().Err(err).Str("nota_id", notaID).Msg("nota não encontrada para processamento")
		return
	}
	if nota.Status != entity.StatusGerada {
		uc.log.Warn().Str("nota_id", notaID).Str("status", nota.Status).Msg("status inesperado, pulando")
		return
	}

	appEnv := strings.ToLower(strings.TrimSpace(uc.cfg.AppEnv))
	if appEnv == "development" || appEnv == "" {
		// Modo desenvolvimento: não assina nem envia, simula autorização.
		nota.Status = entity.StatusAutorizada
		nota.Protocolo = "MOCK-" + nota.Chave[35:43]
		nota.UpdatedAt = time.Now()
		if err := uc.notaRepo.Update(ctx, nota); err != nil {
			uc.log.Error().Err(err).Str("nota_id", notaID).Msg("persistir autorização simulada")
		}
		uc.log.Info().Str("nota_id", notaID).Msg("autorização simulada (development)")
		return
	}

	if uc.assinador == nil || uc.transmissor == nil {
		marcarErro(nota, "config", "Assinador/Transmissor não injetados para ambiente "+appEnv)
		return
	}

	assinado, err := uc.assinador.Assinar(ctx, nota.XML, nota.Chave)
	if err != nil {
		marcarErro(nota, "assinatura", err.Error())
		return
	}
	nota.XMLAssinado = assinado
	nota.Status = entity.StatusAssinada
	nota.UpdatedAt = time.Now()
	if err := uc.notaRepo.Update(ctx, nota); err != nil {
		uc.log.Error().Err(err).Str("nota_id", notaID).Msg("persistir ASSINADA")
		return
	}

	url, err := uc.resolver.Resolve(uc.cfg.UF, infranfe.ServicoAutorizacao, uc.ambiente(), uc.cfg.Contingencia)
	if err != nil {
		marcarErro(nota, "roteamento", err.Error())
		return
	}

	lote, err := uc.builder.BuildBatchEnvelope(assinado, fmt.Sprintf("%d", time.Now().UnixNano()%1_000_000_000))
	if err != nil {
		marcarErro(nota, "lote", err.Error())
		return
	}

	retorno, err := uc.transmissor.EnviarLote(ctx, url, lote)
	if err != nil {
		marcarErro(nota, "transmissao", err.Error())
		return
	}

	if retorno.Autorizada {
		nota.Status = entity.StatusAutorizada
		nota.Protocolo = retorno.Protocolo
		uc.log.Info().Str("nota_id", notaID).Str("protocolo", retorno.Protocolo).Msg("autorizada pela SEFAZ")
	} else {
		nota.Status = entity.StatusRejeitada
		nota.Motivo = retorno.Motivo
		uc.log.Warn().Str("nota_id", notaID).Str("motivo", retorno.Motivo).Msg("rejeitada pela SEFAZ")
	}
	nota.UpdatedAt = time.Now()
	if err := uc.notaRepo.Update(ctx, nota); err != nil {
		uc.log.Error().Err(err).Str("nota_id", notaID).Str("status", nota.Status).Msg("persistir estado final")
	}
}

// Consultar devolve o resumo de uma nota da empresa.
func (uc *EmitirNotaUseCase) Consultar(ctx context.Context, empresaID, id string) (*dto.NotaResponse, error) {
	nota, err := uc.notaRepo.GetByID(ctx, empresaID, id)
	if err != nil {
		return nil, err
	}
	if nota == nil {
		return nil, domain.ErrNotFound
	}
	return paraResponse(nota), nil
}

// XMLDaNota devolve o XML mais completo disponível (assinado, se houver).
func (uc *EmitirNotaUseCase) XMLDaNota(ctx context.Context, empresaID, id string) (string, error) {
	nota, err := uc.notaRepo.GetByID(ctx, empresaID, id)
	if err != nil {
		return "", err
	}
	if nota == nil {
		return "", domain.ErrNotFound
	}
	if nota.XMLAssinado != "" {
		return nota.XMLAssinado, nil
	}
	return nota.XML, nil
}

// Listar devolve as notas da empresa, paginadas, mais recentes primeiro.
func (uc *EmitirNotaUseCase) Listar(ctx context.Context, empresaID string, page dto.PageRequest) ([]*dto.NotaResponse, error) {
	page.DefaultPage()
	notas, err := uc.notaRepo.ListByEmpresa(ctx, empresaID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.NotaResponse, 0, len(notas))
	for _, n := range notas {
		out = append(out, paraResponse(n))
	}
	return out, nil
}

func (uc *EmitirNotaUseCase) buscarPorID(ctx context.Context, id string) (*entity.NotaEmitida, error) {
	// O processamento assíncrono não tem empresaID em mãos; a busca por chave
	// primária ignora o escopo de empresa de propósito.
	return uc.notaRepo.GetByID(ctx, "", id)
}

// tpAmb converte o ambiente de configuração para o código do layout.
func (uc *EmitirNotaUseCase) tpAmb() string {
	if uc.cfg.Ambiente == "producao" {
		return pkgnfe.AmbienteProducao
	}
	return pkgnfe.AmbienteHomologacao
}

func (uc *EmitirNotaUseCase) ambiente() infranfe.Ambiente {
	if uc.cfg.Ambiente == "producao" {
		return infranfe.Producao
	}
	return infranfe.Homologacao
}

func valorTotal(nota *domnfe.NotaFiscal) decimal.Decimal {
	var total decimal.Decimal
	for _, item := range nota.Itens {
		if item.IndTot == 1 {
			total = total.Add(item.ValorProduto)
		}
	}
	if nota.Totais != nil && nota.Totais.ValorNota != nil {
		total = *nota.Totais.ValorNota
	}
	return total
}

func paraResponse(n *entity.NotaEmitida) *dto.NotaResponse {
	return &dto.NotaResponse{
		ID:             n.ID,
		Chave:          n.Chave,
		ChaveFormatada: domnfe.FormatarChave(n.Chave),
		DocumentID:     "NFe" + n.Chave,
		Serie:          n.Serie,
		Numero:         n.Numero,
		Destinatario:   n.Destinatario,
		ValorTotal:     n.ValorTotal,
		Ambiente:       n.Ambiente,
		Status:         n.Status,
		Protocolo:      n.Protocolo,
		Motivo:         n.Motivo,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}
