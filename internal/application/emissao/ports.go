package emissao

import (
	"context"

	"github.com/fiscalgo/emissor-nfe/internal/domain/entity"
)

// Assinador aplica a assinatura XMLDSig sobre o infNFe do XML gerado.
// Implementações ficam fora deste módulo (HSM, A1 em arquivo, serviço
// externo); nil = modo simulado, a nota não é assinada nem transmitida.
type Assinador interface {
	Assinar(ctx context.Context, xml, chave string) (string, error)
}

// RetornoSEFAZ é o desfecho da transmissão de um lote.
type RetornoSEFAZ struct {
	Autorizada bool
	Protocolo  string // nProt quando autorizada
	Motivo     string // xMotivo da rejeição
}

// Transmissor envia o lote assinado ao webservice da SEFAZ e interpreta a
// resposta. A URL já chega resolvida (UF, ambiente e contingência aplicados).
type Transmissor interface {
	EnviarLote(ctx context.Context, url, loteXML string) (*RetornoSEFAZ, error)
}

// GeradorDANFE produz a representação gráfica (PDF) de uma nota emitida.
type GeradorDANFE interface {
	GerarDANFE(ctx context.Context, nota *entity.NotaEmitida) ([]byte, error)
}
