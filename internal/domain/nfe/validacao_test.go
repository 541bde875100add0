package nfe

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notaValida() *NotaFiscal {
	return &NotaFiscal{
		Identificacao: Identificacao{
			NaturezaOperacao: "VENDA",
			Serie:            1,
			Numero:           1,
			DataEmissao:      time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
			TipoEmissao:      1,
		},
		Emitente: Emitente{
			CNPJ:        "11222333000181",
			RazaoSocial: "EMPRESA LTDA",
			CRT:         1,
			Endereco:    Endereco{UF: "SP"},
		},
		Destinatario: Destinatario{
			CPF:  "12345678909",
			Nome: "CLIENTE",
		},
		Itens: []Item{
			{
				Descricao:    "Produto",
				CFOP:         "5102",
				ValorProduto: decimal.NewFromInt(10),
				IndTot:       1,
				ICMS:         ICMS{Simples: &ICMSSimples{CSOSN: "102"}},
			},
		},
		Transporte: Transporte{ModFrete: 9},
		Pagamentos: []Pagamento{{Meio: "01", Valor: decimal.NewFromInt(10)}},
	}
}

func TestValidarNota_Valida(t *testing.T) {
	assert.NoError(t, ValidarNota(notaValida()))
}

func TestValidarNota_Nula(t *testing.T) {
	assert.ErrorIs(t, ValidarNota(nil), ErrNotaInvalida)
}

func TestValidarNota_CamposObrigatorios(t *testing.T) {
	casos := []struct {
		nome    string
		mutacao func(*NotaFiscal)
	}{
		{"sem natOp", func(n *NotaFiscal) { n.Identificacao.NaturezaOperacao = "" }},
		{"sem dhEmi", func(n *NotaFiscal) { n.Identificacao.DataEmissao = time.Time{} }},
		{"sem CNPJ do emitente", func(n *NotaFiscal) { n.Emitente.CNPJ = "" }},
		{"sem razão social", func(n *NotaFiscal) { n.Emitente.RazaoSocial = "" }},
		{"CRT fora da faixa", func(n *NotaFiscal) { n.Emitente.CRT = 4 }},
		{"UF desconhecida", func(n *NotaFiscal) { n.Emitente.Endereco.UF = "XX" }},
		{"sem nome do destinatário", func(n *NotaFiscal) { n.Destinatario.Nome = "" }},
		{"sem itens", func(n *NotaFiscal) { n.Itens = nil }},
		{"item sem descrição", func(n *NotaFiscal) { n.Itens[0].Descricao = "" }},
		{"item sem CFOP", func(n *NotaFiscal) { n.Itens[0].CFOP = "" }},
		{"sem pagamentos", func(n *NotaFiscal) { n.Pagamentos = nil }},
		{"modFrete inválido", func(n *NotaFiscal) { n.Transporte.ModFrete = 3 }},
	}
	for _, c := range casos {
		t.Run(c.nome, func(t *testing.T) {
			nota := notaValida()
			c.mutacao(nota)
			assert.ErrorIs(t, ValidarNota(nota), ErrNotaInvalida)
		})
	}
}

func TestValidarNota_IdentidadeDoDestinatario(t *testing.T) {
	t.Run("nenhuma identidade", func(t *testing.T) {
		nota := notaValida()
		nota.Destinatario.CPF = ""
		assert.ErrorIs(t, ValidarNota(nota), ErrNotaInvalida)
	})

	t.Run("duas identidades", func(t *testing.T) {
		nota := notaValida()
		nota.Destinatario.CNPJ = "11222333000181"
		assert.ErrorIs(t, ValidarNota(nota), ErrNotaInvalida)
	})

	t.Run("idEstrangeiro sozinho é válido", func(t *testing.T) {
		nota := notaValida()
		nota.Destinatario.CPF = ""
		nota.Destinatario.IDEstrangeiro = "PASS123"
		assert.NoError(t, ValidarNota(nota))
	})
}

func TestValidarNota_ICMSUniaoEtiquetada(t *testing.T) {
	t.Run("nenhum regime", func(t *testing.T) {
		nota := notaValida()
		nota.Itens[0].ICMS = ICMS{}
		assert.ErrorIs(t, ValidarNota(nota), ErrNotaInvalida)
	})

	t.Run("dois regimes", func(t *testing.T) {
		nota := notaValida()
		nota.Itens[0].ICMS.Normal = &ICMSNormal{CST: "00"}
		assert.ErrorIs(t, ValidarNota(nota), ErrNotaInvalida)
	})
}

func TestValidarNota_CartaoObrigatorioParaMeioDeCartao(t *testing.T) {
	nota := notaValida()
	nota.Pagamentos[0].Meio = "03"
	assert.ErrorIs(t, ValidarNota(nota), ErrNotaInvalida)

	nota.Pagamentos[0].Cartao = &Cartao{TipoIntegracao: 2}
	assert.NoError(t, ValidarNota(nota))
}

func TestValidarNota_AcumulaFalhas(t *testing.T) {
	nota := notaValida()
	nota.Identificacao.NaturezaOperacao = ""
	nota.Emitente.CNPJ = ""
	nota.Itens = nil

	err := ValidarNota(nota)
	require.Error(t, err)
	// As três falhas aparecem juntas no erro agregado.
	assert.Contains(t, err.Error(), "natOp")
	assert.Contains(t, err.Error(), "CNPJ")
	assert.Contains(t, err.Error(), "item")
}
