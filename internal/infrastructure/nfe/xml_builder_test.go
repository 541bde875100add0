package nfe

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domnfe "github.com/fiscalgo/emissor-nfe/internal/domain/nfe"
)

// Chave determinística do fixture: SP, 2024-03, CNPJ 11.222.333/0001-81,
// modelo 55, série 1, número 123, tpEmis 1, cNF 00000001, DV 8.
const chaveFixture = "35240311222333000181550010000001231000000018"

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// notaDeTeste monta uma nota mínima válida do Simples Nacional com cNF fixo,
// para que a chave (e o XML inteiro) saia determinística.
func notaDeTeste(t *testing.T) *domnfe.NotaFiscal {
	t.Helper()
	return &domnfe.NotaFiscal{
		Identificacao: domnfe.Identificacao{
			NaturezaOperacao: "VENDA DE MERCADORIA",
			Serie:            1,
			Numero:           123,
			DataEmissao:      time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
			TipoEmissao:      1,
			Ambiente:         "2",
			CodigoNF:         "00000001",
		},
		Emitente: domnfe.Emitente{
			CNPJ:        "11.222.333/0001-81",
			RazaoSocial: "COMERCIO DE DOCES LTDA",
			IE:          "123.456.789.012",
			CRT:         1,
			Endereco: domnfe.Endereco{
				Logradouro:      "Rua das Laranjeiras",
				Numero:          "100",
				Bairro:          "Centro",
				CodigoMunicipio: "3550308",
				Municipio:       "São Paulo",
				UF:              "SP",
				CEP:             "01001-000",
			},
		},
		Destinatario: domnfe.Destinatario{
			CPF:       "123.456.789-09",
			Nome:      "FULANO DE TAL",
			IndIEDest: "9",
		},
		Itens: []domnfe.Item{
			{
				Codigo:         "P001",
				Descricao:      "Barra de chocolate",
				NCM:            "18063220",
				CFOP:           "5102",
				UnidadeCom:     "UN",
				QuantidadeCom:  dec(t, "2"),
				ValorUnitCom:   dec(t, "5.25"),
				ValorProduto:   dec(t, "10.50"),
				UnidadeTrib:    "UN",
				QuantidadeTrib: dec(t, "2"),
				ValorUnitTrib:  dec(t, "5.25"),
				IndTot:         1,
				ICMS: domnfe.ICMS{
					Simples: &domnfe.ICMSSimples{Origem: "0", CSOSN: "102"},
				},
				PIS:    domnfe.PISCofins{CST: "07"},
				COFINS: domnfe.PISCofins{CST: "07"},
			},
		},
		Transporte: domnfe.Transporte{ModFrete: 9},
		Pagamentos: []domnfe.Pagamento{
			{Meio: "01", Valor: dec(t, "10.50")},
		},
	}
}

func parseXML(t *testing.T, xml string) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	return doc
}

func textoDe(t *testing.T, doc *etree.Document, path string) string {
	t.Helper()
	el := doc.FindElement(path)
	require.NotNil(t, el, "elemento ausente: %s", path)
	return el.Text()
}

func TestBuild_ChaveEDocumentID(t *testing.T) {
	b := NewXMLBuilderService()

	res, err := b.Build(notaDeTeste(t))

	require.NoError(t, err)
	assert.Equal(t, chaveFixture, res.Chave)
	assert.Equal(t, "NFe"+chaveFixture, res.DocumentID)
	assert.Contains(t, res.XML, `Id="NFe`+chaveFixture+`"`)
	assert.Contains(t, res.XML, `versao="4.00"`)
	assert.Contains(t, res.XML, `xmlns="`+NsNFe+`"`)
}

func TestBuild_Deterministico(t *testing.T) {
	b := NewXMLBuilderService()

	primeiro, err := b.Build(notaDeTeste(t))
	require.NoError(t, err)
	segundo, err := b.Build(notaDeTeste(t))
	require.NoError(t, err)

	// Com cNF fixo a serialização é byte a byte reproduzível.
	assert.Equal(t, primeiro.XML, segundo.XML)
}

func TestBuild_CamposDeIdentificacao(t *testing.T) {
	b := NewXMLBuilderService()

	res, err := b.Build(notaDeTeste(t))
	require.NoError(t, err)
	doc := parseXML(t, res.XML)

	assert.Equal(t, "35", textoDe(t, doc, "//ide/cUF"))
	assert.Equal(t, "00000001", textoDe(t, doc, "//ide/cNF"))
	assert.Equal(t, "55", textoDe(t, doc, "//ide/mod"))
	assert.Equal(t, "1", textoDe(t, doc, "//ide/serie"))
	assert.Equal(t, "123", textoDe(t, doc, "//ide/nNF"))
	assert.Equal(t, "8", textoDe(t, doc, "//ide/cDV"))
	assert.Equal(t, "2", textoDe(t, doc, "//ide/tpAmb"))
	// 12:00 UTC fica 09:00 no offset fixo -03:00.
	assert.Equal(t, "2024-03-15T09:00:00-03:00", textoDe(t, doc, "//ide/dhEmi"))
}

func TestBuild_DigitosLimposNaSerializacao(t *testing.T) {
	b := NewXMLBuilderService()

	res, err := b.Build(notaDeTeste(t))
	require.NoError(t, err)
	doc := parseXML(t, res.XML)

	assert.Equal(t, "11222333000181", textoDe(t, doc, "//emit/CNPJ"))
	assert.Equal(t, "123456789012", textoDe(t, doc, "//emit/IE"))
	assert.Equal(t, "01001000", textoDe(t, doc, "//enderEmit/CEP"))
	assert.Equal(t, "12345678909", textoDe(t, doc, "//dest/CPF"))
}

func TestBuild_EscapeDeEntidades(t *testing.T) {
	b := NewXMLBuilderService()
	nota := notaDeTeste(t)
	nota.Itens[0].Descricao = `Açúcar & "Cia" <Especial>`
	nota.InfAdicional = "obs: valor < 100 & > 10"

	res, err := b.Build(nota)
	require.NoError(t, err)

	assert.Contains(t, res.XML, "&amp;")
	assert.Contains(t, res.XML, "&lt;")
	assert.NotContains(t, res.XML, "<Especial>")

	// Round-trip: o texto decodificado volta idêntico ao informado.
	doc := parseXML(t, res.XML)
	assert.Equal(t, `Açúcar & "Cia" <Especial>`, textoDe(t, doc, "//prod/xProd"))
	assert.Equal(t, "obs: valor < 100 & > 10", textoDe(t, doc, "//infAdic/infCpl"))
}

func TestBuild_FormatacaoDecimalFixa(t *testing.T) {
	b := NewXMLBuilderService()
	nota := notaDeTeste(t)
	nota.Itens[0].QuantidadeCom = dec(t, "2.5")
	nota.Itens[0].ValorUnitCom = dec(t, "5.2")
	nota.Itens[0].ValorProduto = dec(t, "13")

	res, err := b.Build(nota)
	require.NoError(t, err)
	doc := parseXML(t, res.XML)

	assert.Equal(t, "2.5000", textoDe(t, doc, "//prod/qCom"))
	assert.Equal(t, "5.2000000000", textoDe(t, doc, "//prod/vUnCom"))
	assert.Equal(t, "13.00", textoDe(t, doc, "//prod/vProd"))
}

func TestBuild_EANVazioViraSemGTIN(t *testing.T) {
	b := NewXMLBuilderService()

	res, err := b.Build(notaDeTeste(t))
	require.NoError(t, err)
	doc := parseXML(t, res.XML)

	assert.Equal(t, "SEM GTIN", textoDe(t, doc, "//prod/cEAN"))
	assert.Equal(t, "SEM GTIN", textoDe(t, doc, "//prod/cEANTrib"))
}

func TestBuild_TotaisDerivadosSoDeItensComIndTot(t *testing.T) {
	b := NewXMLBuilderService()
	nota := notaDeTeste(t)
	fora := nota.Itens[0]
	fora.Codigo = "P002"
	fora.ValorProduto = dec(t, "99.99")
	fora.IndTot = 0
	nota.Itens = append(nota.Itens, fora)
	nota.Pagamentos[0].Valor = dec(t, "10.50")

	res, err := b.Build(nota)
	require.NoError(t, err)
	doc := parseXML(t, res.XML)

	// O item com indTot=0 não entra em vProd nem em vNF.
	assert.Equal(t, "10.50", textoDe(t, doc, "//ICMSTot/vProd"))
	assert.Equal(t, "10.50", textoDe(t, doc, "//ICMSTot/vNF"))
	assert.Equal(t, "0.00", textoDe(t, doc, "//ICMSTot/vICMS"))
	assert.Equal(t, "0.00", textoDe(t, doc, "//ICMSTot/vFrete"))
}

func TestBuild_TotaisInformadosPassamInalterados(t *testing.T) {
	b := NewXMLBuilderService()
	nota := notaDeTeste(t)
	vbc := dec(t, "10.50")
	vicms := dec(t, "1.89")
	vnf := dec(t, "12.39")
	nota.Totais = &domnfe.Totais{
		BaseICMS:  &vbc,
		ValorICMS: &vicms,
		ValorNota: &vnf,
	}

	res, err := b.Build(nota)
	require.NoError(t, err)
	doc := parseXML(t, res.XML)

	assert.Equal(t, "10.50", textoDe(t, doc, "//ICMSTot/vBC"))
	assert.Equal(t, "1.89", textoDe(t, doc, "//ICMSTot/vICMS"))
	assert.Equal(t, "12.39", textoDe(t, doc, "//ICMSTot/vNF"))
	// vProd não foi informado: continua derivado dos itens.
	assert.Equal(t, "10.50", textoDe(t, doc, "//ICMSTot/vProd"))
}

func TestBuild_ICMSSimplesEscolheGrupoPeloCSOSN(t *testing.T) {
	b := NewXMLBuilderService()

	t.Run("CSOSN 102 gera ICMSSN102", func(t *testing.T) {
		res, err := b.Build(notaDeTeste(t))
		require.NoError(t, err)
		doc := parseXML(t, res.XML)

		require.NotNil(t, doc.FindElement("//ICMS/ICMSSN102"))
		assert.Nil(t, doc.FindElement("//ICMS/ICMSSN102/pCredSN"))
	})

	t.Run("CSOSN 101 gera ICMSSN101 com crédito", func(t *testing.T) {
		nota := notaDeTeste(t)
		nota.Itens[0].ICMS.Simples = &domnfe.ICMSSimples{
			Origem:       "0",
			CSOSN:        "101",
			AliqCredito:  dec(t, "2.8"),
			ValorCredito: dec(t, "0.29"),
		}
		res, err := b.Build(nota)
		require.NoError(t, err)
		doc := parseXML(t, res.XML)

		assert.Equal(t, "2.8000", textoDe(t, doc, "//ICMSSN101/pCredSN"))
		assert.Equal(t, "0.29", textoDe(t, doc, "//ICMSSN101/vCredICMSSN"))
	})
}

func TestBuild_ICMSNormalEscolheGrupoPeloCST(t *testing.T) {
	b := NewXMLBuilderService()

	t.Run("CST 40 gera grupo reduzido", func(t *testing.T) {
		nota := notaDeTeste(t)
		nota.Emitente.CRT = 3
		nota.Itens[0].ICMS = domnfe.ICMS{
			Normal: &domnfe.ICMSNormal{Origem: "0", CST: "40"},
		}
		res, err := b.Build(nota)
		require.NoError(t, err)
		doc := parseXML(t, res.XML)

		require.NotNil(t, doc.FindElement("//ICMS/ICMS40"))
		assert.Nil(t, doc.FindElement("//ICMS/ICMS40/vBC"))
	})

	t.Run("CST 00 gera grupo com base e alíquota", func(t *testing.T) {
		nota := notaDeTeste(t)
		nota.Emitente.CRT = 3
		nota.Itens[0].ICMS = domnfe.ICMS{
			Normal: &domnfe.ICMSNormal{
				Origem:   "0",
				CST:      "00",
				ModBC:    3,
				Base:     dec(t, "10.50"),
				Aliquota: dec(t, "18"),
				Valor:    dec(t, "1.89"),
			},
		}
		res, err := b.Build(nota)
		require.NoError(t, err)
		doc := parseXML(t, res.XML)

		assert.Equal(t, "10.50", textoDe(t, doc, "//ICMS00/vBC"))
		assert.Equal(t, "18.0000", textoDe(t, doc, "//ICMS00/pICMS"))
		assert.Equal(t, "1.89", textoDe(t, doc, "//ICMS00/vICMS"))
	})
}

func TestBuild_PISCofinsNaoTributadoGeraGrupoNT(t *testing.T) {
	b := NewXMLBuilderService()

	res, err := b.Build(notaDeTeste(t))
	require.NoError(t, err)
	doc := parseXML(t, res.XML)

	// CST 07 é não incidência: só o grupo NT, sem base e alíquota.
	require.NotNil(t, doc.FindElement("//PIS/PISNT"))
	require.NotNil(t, doc.FindElement("//COFINS/COFINSNT"))
	assert.Nil(t, doc.FindElement("//PIS/PISAliq"))
}

func TestBuild_BlocosOpcionaisOmitidos(t *testing.T) {
	b := NewXMLBuilderService()
	nota := notaDeTeste(t)

	res, err := b.Build(nota)
	require.NoError(t, err)
	doc := parseXML(t, res.XML)

	assert.Nil(t, doc.FindElement("//emit/xFant"))
	assert.Nil(t, doc.FindElement("//dest/enderDest"))
	assert.Nil(t, doc.FindElement("//infAdic"))
	assert.Nil(t, doc.FindElement("//transp/transporta"))
}

func TestBuild_PagamentoComCartao(t *testing.T) {
	b := NewXMLBuilderService()
	nota := notaDeTeste(t)
	nota.Pagamentos = []domnfe.Pagamento{
		{
			Meio:  "03",
			Valor: dec(t, "10.50"),
			Cartao: &domnfe.Cartao{
				TipoIntegracao:    1,
				CNPJCredenciadora: "10.440.482/0001-54",
				Bandeira:          "01",
				Autorizacao:       "A1B2C3",
			},
		},
	}

	res, err := b.Build(nota)
	require.NoError(t, err)
	doc := parseXML(t, res.XML)

	assert.Equal(t, "03", textoDe(t, doc, "//detPag/tPag"))
	assert.Equal(t, "10440482000154", textoDe(t, doc, "//card/CNPJ"))
	assert.Equal(t, "A1B2C3", textoDe(t, doc, "//card/cAut"))
}

func TestBuild_NotaInvalidaAbortaSemXML(t *testing.T) {
	b := NewXMLBuilderService()
	nota := notaDeTeste(t)
	nota.Itens = nil

	res, err := b.Build(nota)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domnfe.ErrNotaInvalida)
}

func TestBuild_SemLinhasVazias(t *testing.T) {
	b := NewXMLBuilderService()

	res, err := b.Build(notaDeTeste(t))
	require.NoError(t, err)

	for _, linha := range strings.Split(res.XML, "\n") {
		assert.NotEmpty(t, strings.TrimSpace(linha))
	}
}
