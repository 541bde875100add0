package dto

import (
	"time"

	"github.com/shopspring/decimal"

	domnfe "github.com/fiscalgo/emissor-nfe/internal/domain/nfe"
)

// EnderecoDTO espelha o endereço do layout.
type EnderecoDTO struct {
	Logradouro      string `json:"logradouro"`
	Numero          string `json:"numero"`
	Complemento     string `json:"complemento,omitempty"`
	Bairro          string `json:"bairro"`
	CodigoMunicipio string `json:"codigo_municipio"`
	Municipio       string `json:"municipio"`
	UF              string `json:"uf"`
	CEP             string `json:"cep"`
	Telefone        string `json:"telefone,omitempty"`
}

// EmitenteDTO dados do emissor.
type EmitenteDTO struct {
	CNPJ         string      `json:"cnpj"`
	RazaoSocial  string      `json:"razao_social"`
	NomeFantasia string      `json:"nome_fantasia,omitempty"`
	IE           string      `json:"ie"`
	CRT          int         `json:"crt"`
	Endereco     EnderecoDTO `json:"endereco"`
}

// DestinatarioDTO dados do receptor. Exatamente uma identidade.
type DestinatarioDTO struct {
	CNPJ          string       `json:"cnpj,omitempty"`
	CPF           string       `json:"cpf,omitempty"`
	IDEstrangeiro string       `json:"id_estrangeiro,omitempty"`
	Nome          string       `json:"nome"`
	IndIEDest     string       `json:"ind_ie_dest,omitempty"`
	IE            string       `json:"ie,omitempty"`
	Email         string       `json:"email,omitempty"`
	Endereco      *EnderecoDTO `json:"endereco,omitempty"`
}

// ICMSDTO união achatada dos dois regimes: se CSOSN está preenchido é
// Simples Nacional; senão CST define o regime normal.
type ICMSDTO struct {
	Origem       string          `json:"origem,omitempty"`
	CSOSN        string          `json:"csosn,omitempty"`
	CST          string          `json:"cst,omitempty"`
	ModBC        int             `json:"mod_bc,omitempty"`
	Base         decimal.Decimal `json:"base,omitempty"`
	Aliquota     decimal.Decimal `json:"aliquota,omitempty"`
	Valor        decimal.Decimal `json:"valor,omitempty"`
	AliqCredito  decimal.Decimal `json:"aliq_credito,omitempty"`
	ValorCredito decimal.Decimal `json:"valor_credito,omitempty"`
}

// TributoDTO PIS ou COFINS.
type TributoDTO struct {
	CST      string          `json:"cst,omitempty"`
	Base     decimal.Decimal `json:"base,omitempty"`
	Aliquota decimal.Decimal `json:"aliquota,omitempty"`
	Valor    decimal.Decimal `json:"valor,omitempty"`
}

// ItemDTO uma linha da nota.
type ItemDTO struct {
	Codigo         string          `json:"codigo"`
	EAN            string          `json:"ean,omitempty"`
	Descricao      string          `json:"descricao"`
	NCM            string          `json:"ncm"`
	CFOP           string          `json:"cfop"`
	Unidade        string          `json:"unidade"`
	Quantidade     decimal.Decimal `json:"quantidade"`
	ValorUnitario  decimal.Decimal `json:"valor_unitario"`
	ValorTotal     decimal.Decimal `json:"valor_total"`
	ForaDoTotal    bool            `json:"fora_do_total,omitempty"` // indTot=0
	ICMS           ICMSDTO         `json:"icms"`
	PIS            TributoDTO      `json:"pis,omitempty"`
	COFINS         TributoDTO      `json:"cofins,omitempty"`
}

// CartaoDTO subgrupo card.
type CartaoDTO struct {
	TipoIntegracao    int    `json:"tipo_integracao"`
	CNPJCredenciadora string `json:"cnpj_credenciadora,omitempty"`
	Bandeira          string `json:"bandeira,omitempty"`
	Autorizacao       string `json:"autorizacao,omitempty"`
}

// PagamentoDTO uma entrada do grupo pag.
type PagamentoDTO struct {
	Meio   string          `json:"meio"`
	Valor  decimal.Decimal `json:"valor"`
	Cartao *CartaoDTO      `json:"cartao,omitempty"`
}

// TotaisDTO totais explícitos; campos ausentes são derivados ou zerados.
type TotaisDTO struct {
	BaseICMS       *decimal.Decimal `json:"base_icms,omitempty"`
	ValorICMS      *decimal.Decimal `json:"valor_icms,omitempty"`
	ValorProdutos  *decimal.Decimal `json:"valor_produtos,omitempty"`
	ValorFrete     *decimal.Decimal `json:"valor_frete,omitempty"`
	ValorSeguro    *decimal.Decimal `json:"valor_seguro,omitempty"`
	ValorDesconto  *decimal.Decimal `json:"valor_desconto,omitempty"`
	OutrasDespesas *decimal.Decimal `json:"outras_despesas,omitempty"`
	ValorNota      *decimal.Decimal `json:"valor_nota,omitempty"`
}

// EmitirNotaRequest corpo de POST /api/notas.
type EmitirNotaRequest struct {
	NaturezaOperacao string          `json:"natureza_operacao"`
	Serie            int             `json:"serie,omitempty"`  // 0 = série configurada
	Numero           int             `json:"numero,omitempty"` // 0 = próximo da série
	DataEmissao      time.Time       `json:"data_emissao,omitempty"`
	Finalidade       int             `json:"finalidade,omitempty"`
	IndPresenca      int             `json:"ind_presenca,omitempty"`
	Emitente         EmitenteDTO     `json:"emitente"`
	Destinatario     DestinatarioDTO `json:"destinatario"`
	Itens            []ItemDTO       `json:"itens"`
	ModFrete         int             `json:"mod_frete"`
	Pagamentos       []PagamentoDTO  `json:"pagamentos"`
	Totais           *TotaisDTO      `json:"totais,omitempty"`
	InfAdicional     string          `json:"inf_adicional,omitempty"`
}

// NotaResponse resumo devolvido pelos endpoints de emissão e consulta.
type NotaResponse struct {
	ID              string          `json:"id"`
	Chave           string          `json:"chave"`
	ChaveFormatada  string          `json:"chave_formatada"`
	DocumentID      string          `json:"document_id"`
	Serie           int             `json:"serie"`
	Numero          int             `json:"numero"`
	Destinatario    string          `json:"destinatario"`
	ValorTotal      decimal.Decimal `json:"valor_total"`
	Ambiente        string          `json:"ambiente"`
	Status          string          `json:"status"`
	Protocolo       string          `json:"protocolo,omitempty"`
	Motivo          string          `json:"motivo,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ChaveResponse resultado de GET /api/chaves/:chave.
type ChaveResponse struct {
	Chave          string `json:"chave"`
	ChaveFormatada string `json:"chave_formatada"`
	Valida         bool   `json:"valida"`
	CodigoUF       string `json:"codigo_uf,omitempty"`
	UF             string `json:"uf,omitempty"`
	AnoMes         string `json:"ano_mes,omitempty"`
	CNPJ           string `json:"cnpj,omitempty"`
	Modelo         string `json:"modelo,omitempty"`
	Serie          string `json:"serie,omitempty"`
	Numero         string `json:"numero,omitempty"`
	TipoEmissao    string `json:"tipo_emissao,omitempty"`
	CodigoNF       string `json:"codigo_nf,omitempty"`
	DV             string `json:"dv,omitempty"`
}

// EndpointResponse resultado de GET /api/sefaz/endpoints.
type EndpointResponse struct {
	UF           string            `json:"uf"`
	Autorizador  string            `json:"autorizador"`
	Ambiente     string            `json:"ambiente"`
	Contingencia bool              `json:"contingencia"`
	Servicos     map[string]string `json:"servicos"`
}

// ParaDominio converte a requisição no agregado de domínio consumido pelo
// builder. A escolha do regime de ICMS acontece aqui, onde CSOSN/CST chegam
// achatados do JSON.
func (r *EmitirNotaRequest) ParaDominio() *domnfe.NotaFiscal {
	nota := &domnfe.NotaFiscal{
		Identificacao: domnfe.Identificacao{
			NaturezaOperacao: r.NaturezaOperacao,
			Serie:            r.Serie,
			Numero:           r.Numero,
			DataEmissao:      r.DataEmissao,
			TipoEmissao:      1,
			Finalidade:       r.Finalidade,
			IndPresenca:      r.IndPresenca,
		},
		Emitente: domnfe.Emitente{
			CNPJ:         r.Emitente.CNPJ,
			RazaoSocial:  r.Emitente.RazaoSocial,
			NomeFantasia: r.Emitente.NomeFantasia,
			IE:           r.Emitente.IE,
			CRT:          r.Emitente.CRT,
			Endereco:     enderecoParaDominio(r.Emitente.Endereco),
		},
		Destinatario: domnfe.Destinatario{
			CNPJ:          r.Destinatario.CNPJ,
			CPF:           r.Destinatario.CPF,
			IDEstrangeiro: r.Destinatario.IDEstrangeiro,
			Nome:          r.Destinatario.Nome,
			IndIEDest:     r.Destinatario.IndIEDest,
			IE:            r.Destinatario.IE,
			Email:         r.Destinatario.Email,
		},
		Transporte:   domnfe.Transporte{ModFrete: r.ModFrete},
		InfAdicional: r.InfAdicional,
	}
	if r.Destinatario.Endereco != nil {
		end := enderecoParaDominio(*r.Destinatario.Endereco)
		nota.Destinatario.Endereco = &end
	}

	for _, it := range r.Itens {
		indTot := 1
		if it.ForaDoTotal {
			indTot = 0
		}
		nota.Itens = append(nota.Itens, domnfe.Item{
			Codigo:         it.Codigo,
			EAN:            it.EAN,
			Descricao:      it.Descricao,
			NCM:            it.NCM,
			CFOP:           it.CFOP,
			UnidadeCom:     it.Unidade,
			QuantidadeCom:  it.Quantidade,
			ValorUnitCom:   it.ValorUnitario,
			ValorProduto:   it.ValorTotal,
			EANTrib:        it.EAN,
			UnidadeTrib:    it.Unidade,
			QuantidadeTrib: it.Quantidade,
			ValorUnitTrib:  it.ValorUnitario,
			IndTot:         indTot,
			ICMS:           icmsParaDominio(it.ICMS),
			PIS:            domnfe.PISCofins{CST: it.PIS.CST, Base: it.PIS.Base, Aliquota: it.PIS.Aliquota, Valor: it.PIS.Valor},
			COFINS:         domnfe.PISCofins{CST: it.COFINS.CST, Base: it.COFINS.Base, Aliquota: it.COFINS.Aliquota, Valor: it.COFINS.Valor},
		})
	}

	for _, pg := range r.Pagamentos {
		pag := domnfe.Pagamento{Meio: pg.Meio, Valor: pg.Valor}
		if pg.Cartao != nil {
			pag.Cartao = &domnfe.Cartao{
				TipoIntegracao:    pg.Cartao.TipoIntegracao,
				CNPJCredenciadora: pg.Cartao.CNPJCredenciadora,
				Bandeira:          pg.Cartao.Bandeira,
				Autorizacao:       pg.Cartao.Autorizacao,
			}
		}
		nota.Pagamentos = append(nota.Pagamentos, pag)
	}

	if r.Totais != nil {
		nota.Totais = &domnfe.Totais{
			BaseICMS:       r.Totais.BaseICMS,
			ValorICMS:      r.Totais.ValorICMS,
			ValorProdutos:  r.Totais.ValorProdutos,
			ValorFrete:     r.Totais.ValorFrete,
			ValorSeguro:    r.Totais.ValorSeguro,
			ValorDesconto:  r.Totais.ValorDesconto,
			OutrasDespesas: r.Totais.OutrasDespesas,
			ValorNota:      r.Totais.ValorNota,
		}
	}
	return nota
}

func enderecoParaDominio(e EnderecoDTO) domnfe.Endereco {
	return domnfe.Endereco{
		Logradouro:      e.Logradouro,
		Numero:          e.Numero,
		Complemento:     e.Complemento,
		Bairro:          e.Bairro,
		CodigoMunicipio: e.CodigoMunicipio,
		Municipio:       e.Municipio,
		UF:              e.UF,
		CEP:             e.CEP,
		Telefone:        e.Telefone,
	}
}

func icmsParaDominio(i ICMSDTO) domnfe.ICMS {
	if i.CSOSN != "" {
		return domnfe.ICMS{Simples: &domnfe.ICMSSimples{
			Origem:       i.Origem,
			CSOSN:        i.CSOSN,
			AliqCredito:  i.AliqCredito,
			ValorCredito: i.ValorCredito,
		}}
	}
	if i.CST != "" {
		return domnfe.ICMS{Normal: &domnfe.ICMSNormal{
			Origem:   i.Origem,
			CST:      i.CST,
			ModBC:    i.ModBC,
			Base:     i.Base,
			Aliquota: i.Aliquota,
			Valor:    i.Valor,
		}}
	}
	// Sem regime informado: deixa a validação do domínio rejeitar.
	return domnfe.ICMS{}
}
