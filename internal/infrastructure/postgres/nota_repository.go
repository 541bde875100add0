package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fiscalgo/emissor-nfe/internal/domain"
	"github.com/fiscalgo/emissor-nfe/internal/domain/entity"
	"github.com/fiscalgo/emissor-nfe/internal/domain/repository"
)

var _ repository.NotaRepository = (*NotaRepo)(nil)

// NotaRepo implementação de NotaRepository (usável com pool ou tx).
type NotaRepo struct {
	q Querier
}

// NewNotaRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewNotaRepository(q Querier) *NotaRepo {
	return &NotaRepo{q: q}
}

// Create persiste a nota recém-gerada. A chave de acesso é única: colisão
// indica reemissão do mesmo número/série.
func (r *NotaRepo) Create(ctx context.Context, nota *entity.NotaEmitida) error {
	if nota.ID == "" {
		nota.ID = uuid.New().String()
	}
	query := `
		INSERT INTO notas_emitidas (id, empresa_id, chave, serie, numero, destinatario, valor_total, ambiente, status, xml, xml_assinado, protocolo, motivo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		nota.ID, nota.EmpresaID, nota.Chave, nota.Serie, nota.Numero,
		nota.Destinatario, nota.ValorTotal, nota.Ambiente, nota.Status,
		nota.XML, nullIfEmpty(nota.XMLAssinado), nullIfEmpty(nota.Protocolo), nullIfEmpty(nota.Motivo),
		nota.CreatedAt, nota.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: chave de acesso já emitida", domain.ErrDuplicate)
		}
		return fmt.Errorf("insert nota: %w", err)
	}
	return nil
}

// Update atualiza os campos do ciclo SEFAZ da nota.
func (r *NotaRepo) Update(ctx context.Context, nota *entity.NotaEmitida) error {
	query := `
		UPDATE notas_emitidas
		SET status       = $2,
		    xml_assinado = COALESCE($3, xml_assinado),
		    protocolo    = COALESCE($4, protocolo),
		    motivo       = COALESCE($5, motivo),
		    updated_at   = $6
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		nota.ID,
		nota.Status,
		nullIfEmpty(nota.XMLAssinado),
		nullIfEmpty(nota.Protocolo),
		nullIfEmpty(nota.Motivo),
		nota.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update nota: %w", err)
	}
	return nil
}

// GetByID obtém uma nota por ID. empresaID vazio ignora o escopo de empresa
// (uso interno do processamento assíncrono).
func (r *NotaRepo) GetByID(ctx context.Context, empresaID, id string) (*entity.NotaEmitida, error) {
	query := `
		SELECT id, empresa_id, chave, serie, numero, destinatario, valor_total, ambiente, status,
		       xml, COALESCE(xml_assinado, ''), COALESCE(protocolo, ''), COALESCE(motivo, ''),
		       created_at, updated_at
		FROM notas_emitidas
		WHERE id = $1 AND ($2 = '' OR empresa_id = $2)`
	return r.scanUma(r.q.QueryRow(ctx, query, id, empresaID))
}

// GetByChave obtém uma nota pela chave de acesso.
func (r *NotaRepo) GetByChave(ctx context.Context, chave string) (*entity.NotaEmitida, error) {
	query := `
		SELECT id, empresa_id, chave, serie, numero, destinatario, valor_total, ambiente, status,
		       xml, COALESCE(xml_assinado, ''), COALESCE(protocolo, ''), COALESCE(motivo, ''),
		       created_at, updated_at
		FROM notas_emitidas
		WHERE chave = $1`
	return r.scanUma(r.q.QueryRow(ctx, query, chave))
}

// ListByEmpresa lista as notas da empresa, mais recentes primeiro. Os XMLs
// ficam de fora: listagem é resumo.
func (r *NotaRepo) ListByEmpresa(ctx context.Context, empresaID string, limit, offset int) ([]*entity.NotaEmitida, error) {
	query := `
		SELECT id, empresa_id, chave, serie, numero, destinatario, valor_total, ambiente, status,
		       COALESCE(protocolo, ''), COALESCE(motivo, ''), created_at, updated_at
		FROM notas_emitidas
		WHERE empresa_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, empresaID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notas: %w", err)
	}
	defer rows.Close()
	var list []*entity.NotaEmitida
	for rows.Next() {
		var n entity.NotaEmitida
		if err := rows.Scan(
			&n.ID, &n.EmpresaID, &n.Chave, &n.Serie, &n.Numero,
			&n.Destinatario, &n.ValorTotal, &n.Ambiente, &n.Status,
			&n.Protocolo, &n.Motivo, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan nota: %w", err)
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

// ProximoNumero aloca o próximo nNF da série com um upsert atômico: duas
// emissões concorrentes nunca recebem o mesmo número.
func (r *NotaRepo) ProximoNumero(ctx context.Context, empresaID string, serie int) (int, error) {
	query := `
		INSERT INTO series_nfe (empresa_id, serie, ultimo_numero)
		VALUES ($1, $2, 1)
		ON CONFLICT (empresa_id, serie)
		DO UPDATE SET ultimo_numero = series_nfe.ultimo_numero + 1
		RETURNING ultimo_numero`
	var numero int
	if err := r.q.QueryRow(ctx, query, empresaID, serie).Scan(&numero); err != nil {
		return 0, fmt.Errorf("próximo número da série %d: %w", serie, err)
	}
	return numero, nil
}

func (r *NotaRepo) scanUma(row pgx.Row) (*entity.NotaEmitida, error) {
	var n entity.NotaEmitida
	err := row.Scan(
		&n.ID, &n.EmpresaID, &n.Chave, &n.Serie, &n.Numero,
		&n.Destinatario, &n.ValorTotal, &n.Ambiente, &n.Status,
		&n.XML, &n.XMLAssinado, &n.Protocolo, &n.Motivo,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get nota: %w", err)
	}
	return &n, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
