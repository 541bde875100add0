package nfe

import (
	"time"

	"github.com/shopspring/decimal"
)

// Finalidade da NF-e (campo "finNFe").
const (
	FinalidadeNormal       = 1
	FinalidadeComplementar = 2
	FinalidadeAjuste       = 3
	FinalidadeDevolucao    = 4
)

// Endereco postal de emitente, destinatário ou transportadora.
type Endereco struct {
	Logradouro      string
	Numero          string
	Complemento     string // opcional
	Bairro          string
	CodigoMunicipio string // código IBGE de 7 dígitos
	Municipio       string
	UF              string
	CEP             string // aceita formatação; serializado só com dígitos
	Telefone        string // opcional
}

// Emitente é o emissor da nota.
type Emitente struct {
	CNPJ         string
	RazaoSocial  string
	NomeFantasia string // opcional
	IE           string // inscrição estadual
	CRT          int    // 1=Simples, 2=Simples excesso sublimite, 3=Regime normal
	Endereco     Endereco
}

// Destinatario é o receptor da nota. Exatamente uma forma de identidade deve
// estar preenchida: CNPJ, CPF ou IDEstrangeiro.
type Destinatario struct {
	CNPJ          string
	CPF           string
	IDEstrangeiro string
	Nome          string
	IndIEDest     string    // 1=contribuinte, 2=isento, 9=não contribuinte
	IE            string    // opcional
	Email         string    // opcional
	Endereco      *Endereco // opcional
}

// ICMSSimples é o grupo de ICMS do Simples Nacional (CSOSN).
// CSOSN "101" gera ICMSSN101 (com crédito); qualquer outro gera ICMSSN102.
type ICMSSimples struct {
	Origem       string          // campo "orig" (0=nacional, ...)
	CSOSN        string
	AliqCredito  decimal.Decimal // pCredSN, só para CSOSN 101
	ValorCredito decimal.Decimal // vCredICMSSN, só para CSOSN 101
}

// ICMSNormal é o grupo de ICMS do regime normal (CST).
// CST em {40,41,50,51} gera o grupo reduzido ICMS40; os demais geram o grupo
// genérico com base/alíquota/valor (zerados quando ausentes).
type ICMSNormal struct {
	Origem   string
	CST      string
	ModBC    int
	Base     decimal.Decimal
	Aliquota decimal.Decimal
	Valor    decimal.Decimal
}

// ICMS é a união etiquetada dos dois regimes: exatamente um dos ponteiros
// deve estar preenchido. A decisão de regime acontece na montagem do
// documento, onde o CRT do emitente é conhecido — não na serialização.
type ICMS struct {
	Simples *ICMSSimples
	Normal  *ICMSNormal
}

// PISCofins carrega CST e valores opcionais de PIS ou COFINS.
type PISCofins struct {
	CST      string
	Base     decimal.Decimal
	Aliquota decimal.Decimal
	Valor    decimal.Decimal
}

// Item é uma linha da nota (grupo "det").
type Item struct {
	Codigo         string // cProd
	EAN            string // cEAN; vazio vira "SEM GTIN"
	Descricao      string // xProd
	NCM            string
	CFOP           string
	UnidadeCom     string          // uCom
	QuantidadeCom  decimal.Decimal // qCom (4 casas)
	ValorUnitCom   decimal.Decimal // vUnCom (10 casas)
	ValorProduto   decimal.Decimal // vProd (2 casas)
	EANTrib        string          // cEANTrib; vazio vira "SEM GTIN"
	UnidadeTrib    string
	QuantidadeTrib decimal.Decimal
	ValorUnitTrib  decimal.Decimal
	IndTot         int // 1 = compõe o total da nota
	ICMS           ICMS
	PIS            PISCofins
	COFINS         PISCofins
}

// Transportadora identifica o transportador (opcional no grupo transp).
type Transportadora struct {
	CNPJ        string
	RazaoSocial string
	IE          string
	Endereco    string
	Municipio   string
	UF          string
}

// Volume descreve um volume transportado.
type Volume struct {
	Quantidade  int
	Especie     string
	Marca       string
	Numeracao   string
	PesoLiquido decimal.Decimal
	PesoBruto   decimal.Decimal
}

// Transporte é o grupo "transp".
type Transporte struct {
	ModFrete       int // 0..2, 9
	Transportadora *Transportadora
	Volumes        []Volume
}

// Cartao é o subgrupo "card", obrigatório para tPag de cartão.
type Cartao struct {
	TipoIntegracao    int // tpIntegra: 1=integrado, 2=não integrado
	CNPJCredenciadora string
	Bandeira          string // tBand
	Autorizacao       string // cAut
}

// Pagamento é uma entrada do grupo "pag/detPag".
type Pagamento struct {
	Meio   string          // tPag
	Valor  decimal.Decimal // vPag
	Cartao *Cartao         // só para meios de cartão
}

// Totais é o grupo ICMSTot. Campos não informados são derivados (vProd/vNF)
// ou zerados na serialização.
type Totais struct {
	BaseICMS       *decimal.Decimal // vBC
	ValorICMS      *decimal.Decimal // vICMS
	ValorProdutos  *decimal.Decimal // vProd
	ValorFrete     *decimal.Decimal // vFrete
	ValorSeguro    *decimal.Decimal // vSeg
	ValorDesconto  *decimal.Decimal // vDesc
	OutrasDespesas *decimal.Decimal // vOutro
	ValorNota      *decimal.Decimal // vNF
}

// Identificacao é o bloco "ide" da nota.
type Identificacao struct {
	NaturezaOperacao string    // natOp
	Serie            int
	Numero           int
	DataEmissao      time.Time // dhEmi
	TipoEmissao      int       // tpEmis
	Finalidade       int       // finNFe
	IndPresenca      int       // indPres
	Ambiente         string    // tpAmb: "1" produção, "2" homologação
	CodigoNF         string    // cNF opcional; vazio = sorteado na chave
}

// NotaFiscal é a raiz do agregado consumido pelo builder. É montada por um
// processo externo de faturamento, consumida exatamente uma vez para produzir
// XML + chave, e não guarda estado próprio.
type NotaFiscal struct {
	Identificacao Identificacao
	Emitente      Emitente
	Destinatario  Destinatario
	Itens         []Item
	Transporte    Transporte
	Pagamentos    []Pagamento
	InfAdicional  string // infCpl, texto livre opcional
	Totais        *Totais
}
