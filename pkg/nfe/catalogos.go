package nfe

// =============================================================================
// Modelos de documento fiscal (MOC 4.00 - campo "mod")
// =============================================================================

const (
	ModeloNFe  = 55 // NF-e
	ModeloNFCe = 65 // NFC-e (variante consumidor final)
)

// =============================================================================
// Tipo de emissão (campo "tpEmis") - 1=normal, demais são contingências
// =============================================================================

const (
	EmissaoNormal  = 1
	EmissaoFSIA    = 2 // Contingência FS-IA
	EmissaoSCAN    = 3 // SCAN (desativado, mantido pelo layout)
	EmissaoDPEC    = 4 // Contingência EPEC
	EmissaoFSDA    = 5 // Contingência FS-DA
	EmissaoSVCAN   = 6 // Contingência SVC-AN
	EmissaoSVCRS   = 7 // Contingência SVC-RS
	EmissaoOffline = 9 // Contingência off-line (NFC-e)
)

// =============================================================================
// Ambiente (campo "tpAmb")
// =============================================================================

const (
	AmbienteProducao    = "1"
	AmbienteHomologacao = "2"
)

// =============================================================================
// Modalidade do frete (campo "modFrete")
// =============================================================================

const (
	FretePorContaEmitente     = 0
	FretePorContaDestinatario = 1
	FretePorContaTerceiros    = 2
	FreteSemTransporte        = 9
)

// =============================================================================
// Meios de pagamento (campo "tPag", tabela do grupo YA)
// =============================================================================

const (
	PagamentoDinheiro         = "01"
	PagamentoCheque           = "02"
	PagamentoCartaoCredito    = "03"
	PagamentoCartaoDebito     = "04"
	PagamentoCreditoLoja      = "05"
	PagamentoValeAlimentacao  = "10"
	PagamentoBoleto           = "15"
	PagamentoDepositoBancario = "16"
	PagamentoPIX              = "17"
	PagamentoSemPagamento     = "90"
	PagamentoOutros           = "99"
)

// PagamentosComCartao são os meios que exigem o subgrupo "card"
// (tpIntegra, CNPJ da credenciadora, bandeira e autorização).
var PagamentosComCartao = map[string]bool{
	PagamentoCartaoCredito: true,
	PagamentoCartaoDebito:  true,
}

// =============================================================================
// CST do ICMS (regime normal) e CSOSN (Simples Nacional)
// =============================================================================

const (
	// CSOSNCreditoPermitido seleciona o grupo ICMSSN101 (com permissão de
	// crédito); qualquer outro CSOSN cai no grupo ICMSSN102.
	CSOSNCreditoPermitido = "101"
)

// CSTSemCalculo é o conjunto de CSTs que geram o grupo reduzido ICMS40
// (isenção, não incidência, suspensão e diferimento).
var CSTSemCalculo = map[string]bool{
	"40": true, // Isenta
	"41": true, // Não tributada
	"50": true, // Suspensão
	"51": true, // Diferimento
}

// =============================================================================
// Indicador de IE do destinatário (campo "indIEDest")
// =============================================================================

const (
	IndIEContribuinte    = "1" // Contribuinte ICMS com IE
	IndIEIsento          = "2" // Contribuinte isento de IE
	IndIENaoContribuinte = "9" // Não contribuinte
)

// =============================================================================
// Código EAN ausente (campos cEAN / cEANTrib)
// =============================================================================

const SemGTIN = "SEM GTIN"
