package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados do ciclo de emissão da NF-e.
const (
	StatusGerada      = "GERADA"       // XML gerado, pendente de assinatura
	StatusAssinada    = "ASSINADA"     // XML assinado, pendente de envio ao WS
	StatusAutorizada  = "AUTORIZADA"   // Autorizada pela SEFAZ (ou simulada em dev)
	StatusRejeitada   = "REJEITADA"    // Rejeitada pela SEFAZ com motivo
	StatusErroGeracao = "ERRO_GERACAO" // Falhou validação, chave ou serialização
)

// NotaEmitida é o registro persistido de uma emissão: resumo da nota,
// chave de acesso, XML nos dois estágios e o desfecho na SEFAZ.
type NotaEmitida struct {
	ID           string
	EmpresaID    string
	Chave        string // chave de acesso de 44 dígitos (única)
	Serie        int
	Numero       int
	Destinatario string // nome do destinatário, para listagens
	ValorTotal   decimal.Decimal
	Ambiente     string // tpAmb: "1" produção, "2" homologação
	Status       string
	XML          string // XML gerado (pré-assinatura)
	XMLAssinado  string // XML com XMLDSig, vazio até assinar
	Protocolo    string // nProt devolvido pela SEFAZ na autorização
	Motivo       string // xMotivo de rejeição ou detalhe do erro de geração
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
