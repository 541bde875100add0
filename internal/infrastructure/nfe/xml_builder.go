// Package nfe implementa a serialização da NF-e (layout 4.00) para o XML
// exigido pelo schema nacional, antes da assinatura digital.
package nfe

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	domnfe "github.com/fiscalgo/emissor-nfe/internal/domain/nfe"
	pkgnfe "github.com/fiscalgo/emissor-nfe/pkg/nfe"
)

// Namespace oficial do Portal Fiscal e versão do layout.
const (
	NsNFe        = "http://www.portalfiscal.inf.br/nfe"
	VersaoLayout = "4.00"

	// prefixoDocumento compõe o Id do infNFe: "NFe" + chave de acesso.
	prefixoDocumento = "NFe"
)

// fusoBrasilia é o offset fixo -03:00 exigido nos timestamps. Simplificação
// conhecida: não há tratamento de horário de verão (o Brasil o aboliu em 2019;
// notas antigas re-serializadas podem divergir em uma hora).
var fusoBrasilia = time.FixedZone("-03:00", -3*60*60)

// BuildResult é a saída do builder: XML pronto para assinar, chave de acesso
// e o Id do documento ("NFe" + chave).
type BuildResult struct {
	XML        string
	Chave      string
	DocumentID string
}

// XMLBuilderService constrói o XML da NF-e (sem assinatura XMLDSig).
type XMLBuilderService struct{}

// NewXMLBuilderService cria o serviço.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build valida a nota, gera a chave de acesso e serializa o documento inteiro.
// Qualquer erro de chave ou de estrutura aborta o build: nunca sai XML parcial,
// porque o consumidor é o webservice da SEFAZ e rejeita qualquer malformação.
func (s *XMLBuilderService) Build(nota *domnfe.NotaFiscal) (*BuildResult, error) {
	if err := domnfe.ValidarNota(nota); err != nil {
		return nil, err
	}

	chave, err := domnfe.GerarChave(domnfe.ChaveParams{
		UF:          nota.Emitente.Endereco.UF,
		DataEmissao: nota.Identificacao.DataEmissao,
		CNPJ:        nota.Emitente.CNPJ,
		Modelo:      pkgnfe.ModeloNFe,
		Serie:       nota.Identificacao.Serie,
		Numero:      nota.Identificacao.Numero,
		TipoEmissao: nota.Identificacao.TipoEmissao,
		CodigoNF:    nota.Identificacao.CodigoNF,
	})
	if err != nil {
		return nil, err
	}
	campos, err := domnfe.ParseChave(chave)
	if err != nil {
		return nil, err
	}

	totais := derivarTotais(nota.Itens, nota.Totais)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("NFe")
	root.CreateAttr("xmlns", NsNFe)

	inf := root.CreateElement("infNFe")
	inf.CreateAttr("Id", prefixoDocumento+chave)
	inf.CreateAttr("versao", VersaoLayout)

	s.escreverIde(inf, nota, campos)
	s.escreverEmit(inf, &nota.Emitente)
	s.escreverDest(inf, &nota.Destinatario)
	for i, item := range nota.Itens {
		s.escreverDet(inf, i+1, &item, nota.Emitente.CRT)
	}
	s.escreverTotal(inf, totais)
	s.escreverTransp(inf, &nota.Transporte)
	s.escreverPag(inf, nota.Pagamentos)
	if nota.InfAdicional != "" {
		infAdic := inf.CreateElement("infAdic")
		texto(infAdic, "infCpl", nota.InfAdicional)
	}

	xmlStr, err := doc.WriteToString()
	if err != nil {
		return nil, fmt.Errorf("nfe: serializar documento: %w", err)
	}

	return &BuildResult{
		XML:        removerLinhasVazias(xmlStr),
		Chave:      chave,
		DocumentID: prefixoDocumento + chave,
	}, nil
}

// ── Blocos do documento ───────────────────────────────────────────────────────

func (s *XMLBuilderService) escreverIde(parent *etree.Element, nota *domnfe.NotaFiscal, campos domnfe.CamposChave) {
	ide := parent.CreateElement("ide")
	id := nota.Identificacao

	tpAmb := id.Ambiente
	if tpAmb == "" {
		tpAmb = pkgnfe.AmbienteHomologacao
	}
	finalidade := id.Finalidade
	if finalidade == 0 {
		finalidade = domnfe.FinalidadeNormal
	}
	// Operação interna ou interestadual, decidida pela UF de destino.
	idDest := "1"
	if nota.Destinatario.Endereco != nil && nota.Destinatario.Endereco.UF != nota.Emitente.Endereco.UF {
		idDest = "2"
	}

	texto(ide, "cUF", campos.CodigoUF)
	texto(ide, "cNF", campos.CodigoNF)
	texto(ide, "natOp", id.NaturezaOperacao)
	texto(ide, "mod", campos.Modelo)
	texto(ide, "serie", strconv.Itoa(id.Serie))
	texto(ide, "nNF", strconv.Itoa(id.Numero))
	texto(ide, "dhEmi", formatarDataHora(id.DataEmissao))
	texto(ide, "tpNF", "1") // saída
	texto(ide, "idDest", idDest)
	texto(ide, "cMunFG", somenteDigitos(nota.Emitente.Endereco.CodigoMunicipio))
	texto(ide, "tpImp", "1")
	texto(ide, "tpEmis", campos.TipoEmissao)
	texto(ide, "cDV", campos.DV)
	texto(ide, "tpAmb", tpAmb)
	texto(ide, "finNFe", strconv.Itoa(finalidade))
	texto(ide, "indFinal", "1")
	texto(ide, "indPres", strconv.Itoa(id.IndPresenca))
	texto(ide, "procEmi", "0")
	texto(ide, "verProc", "emissor-nfe/1.0")
}

func (s *XMLBuilderService) escreverEmit(parent *etree.Element, emit *domnfe.Emitente) {
	el := parent.CreateElement("emit")
	texto(el, "CNPJ", somenteDigitos(emit.CNPJ))
	texto(el, "xNome", emit.RazaoSocial)
	if emit.NomeFantasia != "" {
		texto(el, "xFant", emit.NomeFantasia)
	}
	s.escreverEndereco(el, "enderEmit", &emit.Endereco)
	texto(el, "IE", somenteDigitos(emit.IE))
	texto(el, "CRT", strconv.Itoa(emit.CRT))
}

func (s *XMLBuilderService) escreverDest(parent *etree.Element, dest *domnfe.Destinatario) {
	el := parent.CreateElement("dest")
	switch {
	case dest.CNPJ != "":
		texto(el, "CNPJ", somenteDigitos(dest.CNPJ))
	case dest.CPF != "":
		texto(el, "CPF", somenteDigitos(dest.CPF))
	default:
		texto(el, "idEstrangeiro", dest.IDEstrangeiro)
	}
	texto(el, "xNome", dest.Nome)
	if dest.Endereco != nil {
		s.escreverEndereco(el, "enderDest", dest.Endereco)
	}
	indIE := dest.IndIEDest
	if indIE == "" {
		indIE = pkgnfe.IndIENaoContribuinte
	}
	texto(el, "indIEDest", indIE)
	if dest.IE != "" {
		texto(el, "IE", somenteDigitos(dest.IE))
	}
	if dest.Email != "" {
		texto(el, "email", dest.Email)
	}
}

func (s *XMLBuilderService) escreverEndereco(parent *etree.Element, nome string, end *domnfe.Endereco) {
	el := parent.CreateElement(nome)
	texto(el, "xLgr", end.Logradouro)
	texto(el, "nro", end.Numero)
	if end.Complemento != "" {
		texto(el, "xCpl", end.Complemento)
	}
	texto(el, "xBairro", end.Bairro)
	texto(el, "cMun", somenteDigitos(end.CodigoMunicipio))
	texto(el, "xMun", end.Municipio)
	texto(el, "UF", end.UF)
	texto(el, "CEP", somenteDigitos(end.CEP))
	texto(el, "cPais", "1058")
	texto(el, "xPais", "BRASIL")
	if end.Telefone != "" {
		texto(el, "fone", somenteDigitos(end.Telefone))
	}
}

func (s *XMLBuilderService) escreverDet(parent *etree.Element, nItem int, item *domnfe.Item, crt int) {
	det := parent.CreateElement("det")
	det.CreateAttr("nItem", strconv.Itoa(nItem))

	prod := det.CreateElement("prod")
	texto(prod, "cProd", item.Codigo)
	texto(prod, "cEAN", eanOuSemGTIN(item.EAN))
	texto(prod, "xProd", item.Descricao)
	texto(prod, "NCM", item.NCM)
	texto(prod, "CFOP", item.CFOP)
	texto(prod, "uCom", item.UnidadeCom)
	texto(prod, "qCom", formatarQuantidade(item.QuantidadeCom))
	texto(prod, "vUnCom", formatarUnitario(item.ValorUnitCom))
	texto(prod, "vProd", formatarValor(item.ValorProduto))
	texto(prod, "cEANTrib", eanOuSemGTIN(item.EANTrib))
	texto(prod, "uTrib", item.UnidadeTrib)
	texto(prod, "qTrib", formatarQuantidade(item.QuantidadeTrib))
	texto(prod, "vUnTrib", formatarUnitario(item.ValorUnitTrib))
	texto(prod, "indTot", strconv.Itoa(item.IndTot))

	imposto := det.CreateElement("imposto")
	s.escreverICMS(imposto, item.ICMS)
	s.escreverPISCofins(imposto, "PIS", item.PIS)
	s.escreverPISCofins(imposto, "COFINS", item.COFINS)
}

// escreverICMS seleciona o grupo estrutural do ICMS. A decisão de regime já
// veio resolvida do domínio (união etiquetada): aqui cada variante é uma
// função total, sem inspeção de strings fora do código de situação.
func (s *XMLBuilderService) escreverICMS(parent *etree.Element, icms domnfe.ICMS) {
	el := parent.CreateElement("ICMS")
	switch {
	case icms.Simples != nil:
		sn := icms.Simples
		if sn.CSOSN == pkgnfe.CSOSNCreditoPermitido {
			g := el.CreateElement("ICMSSN101")
			texto(g, "orig", origemOuZero(sn.Origem))
			texto(g, "CSOSN", sn.CSOSN)
			texto(g, "pCredSN", formatarAliquota(sn.AliqCredito))
			texto(g, "vCredICMSSN", formatarValor(sn.ValorCredito))
		} else {
			g := el.CreateElement("ICMSSN102")
			texto(g, "orig", origemOuZero(sn.Origem))
			texto(g, "CSOSN", sn.CSOSN)
		}
	case icms.Normal != nil:
		n := icms.Normal
		if pkgnfe.CSTSemCalculo[n.CST] {
			g := el.CreateElement("ICMS40")
			texto(g, "orig", origemOuZero(n.Origem))
			texto(g, "CST", n.CST)
		} else {
			g := el.CreateElement("ICMS00")
			texto(g, "orig", origemOuZero(n.Origem))
			texto(g, "CST", n.CST)
			texto(g, "modBC", strconv.Itoa(n.ModBC))
			texto(g, "vBC", formatarValor(n.Base))
			texto(g, "pICMS", formatarAliquota(n.Aliquota))
			texto(g, "vICMS", formatarValor(n.Valor))
		}
	}
}

// escreverPISCofins emite PIS ou COFINS: CSTs de não incidência (04-09) geram
// o grupo NT só com o CST; os demais levam base, alíquota e valor.
func (s *XMLBuilderService) escreverPISCofins(parent *etree.Element, nome string, t domnfe.PISCofins) {
	el := parent.CreateElement(nome)
	cst := t.CST
	if cst == "" {
		cst = "01"
	}
	if cstNaoTributado(cst) {
		g := el.CreateElement(nome + "NT")
		texto(g, "CST", cst)
		return
	}
	g := el.CreateElement(nome + "Aliq")
	texto(g, "CST", cst)
	texto(g, "vBC", formatarValor(t.Base))
	texto(g, "p"+nome, formatarAliquota(t.Aliquota))
	texto(g, "v"+nome, formatarValor(t.Valor))
}

func (s *XMLBuilderService) escreverTotal(parent *etree.Element, t totaisEfetivos) {
	total := parent.CreateElement("total")
	el := total.CreateElement("ICMSTot")
	texto(el, "vBC", formatarValor(t.BaseICMS))
	texto(el, "vICMS", formatarValor(t.ValorICMS))
	texto(el, "vICMSDeson", "0.00")
	texto(el, "vFCP", "0.00")
	texto(el, "vBCST", "0.00")
	texto(el, "vST", "0.00")
	texto(el, "vFCPST", "0.00")
	texto(el, "vFCPSTRet", "0.00")
	texto(el, "vProd", formatarValor(t.ValorProdutos))
	texto(el, "vFrete", formatarValor(t.ValorFrete))
	texto(el, "vSeg", formatarValor(t.ValorSeguro))
	texto(el, "vDesc", formatarValor(t.ValorDesconto))
	texto(el, "vII", "0.00")
	texto(el, "vIPI", "0.00")
	texto(el, "vIPIDevol", "0.00")
	texto(el, "vPIS", "0.00")
	texto(el, "vCOFINS", "0.00")
	texto(el, "vOutro", formatarValor(t.OutrasDespesas))
	texto(el, "vNF", formatarValor(t.ValorNota))
}

func (s *XMLBuilderService) escreverTransp(parent *etree.Element, transp *domnfe.Transporte) {
	el := parent.CreateElement("transp")
	texto(el, "modFrete", strconv.Itoa(transp.ModFrete))
	if tr := transp.Transportadora; tr != nil {
		t := el.CreateElement("transporta")
		if tr.CNPJ != "" {
			texto(t, "CNPJ", somenteDigitos(tr.CNPJ))
		}
		texto(t, "xNome", tr.RazaoSocial)
		if tr.IE != "" {
			texto(t, "IE", somenteDigitos(tr.IE))
		}
		if tr.Endereco != "" {
			texto(t, "xEnder", tr.Endereco)
		}
		if tr.Municipio != "" {
			texto(t, "xMun", tr.Municipio)
		}
		if tr.UF != "" {
			texto(t, "UF", tr.UF)
		}
	}
	for _, v := range transp.Volumes {
		vol := el.CreateElement("vol")
		texto(vol, "qVol", strconv.Itoa(v.Quantidade))
		if v.Especie != "" {
			texto(vol, "esp", v.Especie)
		}
		if v.Marca != "" {
			texto(vol, "marca", v.Marca)
		}
		if v.Numeracao != "" {
			texto(vol, "nVol", v.Numeracao)
		}
		if !v.PesoLiquido.IsZero() {
			texto(vol, "pesoL", v.PesoLiquido.Round(3).StringFixed(3))
		}
		if !v.PesoBruto.IsZero() {
			texto(vol, "pesoB", v.PesoBruto.Round(3).StringFixed(3))
		}
	}
}

func (s *XMLBuilderService) escreverPag(parent *etree.Element, pagamentos []domnfe.Pagamento) {
	pag := parent.CreateElement("pag")
	for _, p := range pagamentos {
		det := pag.CreateElement("detPag")
		texto(det, "tPag", p.Meio)
		texto(det, "vPag", formatarValor(p.Valor))
		if p.Cartao != nil {
			card := det.CreateElement("card")
			texto(card, "tpIntegra", strconv.Itoa(p.Cartao.TipoIntegracao))
			texto(card, "CNPJ", somenteDigitos(p.Cartao.CNPJCredenciadora))
			texto(card, "tBand", p.Cartao.Bandeira)
			texto(card, "cAut", p.Cartao.Autorizacao)
		}
	}
}

// ── Derivação de totais ───────────────────────────────────────────────────────

// totaisEfetivos são os totais resolvidos, prontos para serializar.
type totaisEfetivos struct {
	BaseICMS       decimal.Decimal
	ValorICMS      decimal.Decimal
	ValorProdutos  decimal.Decimal
	ValorFrete     decimal.Decimal
	ValorSeguro    decimal.Decimal
	ValorDesconto  decimal.Decimal
	OutrasDespesas decimal.Decimal
	ValorNota      decimal.Decimal
}

// derivarTotais resolve o grupo ICMSTot: todo campo informado pelo chamador
// passa inalterado; na ausência, só vProd/vNF são derivados (soma do vProd dos
// itens com indTot=1) e o restante fica em 0.00.
//
// A assimetria é intencional: quem tem um motor tributário autoritativo deve
// informar os totais prontos; a derivação barata existe só para notas simples
// de mercadorias. Uma nota com impostos por item e sem Totais explícitos sai
// com vICMS total zerado — comportamento preservado de propósito, não
// "corrigir" somando os impostos dos itens, pois mudaria a semântica do
// documento na transmissão.
func derivarTotais(itens []domnfe.Item, informados *domnfe.Totais) totaisEfetivos {
	var somaProdutos decimal.Decimal
	for _, item := range itens {
		if item.IndTot == 1 {
			somaProdutos = somaProdutos.Add(item.ValorProduto)
		}
	}

	t := totaisEfetivos{
		ValorProdutos: somaProdutos,
		ValorNota:     somaProdutos,
	}
	if informados == nil {
		return t
	}
	aplicar := func(dst *decimal.Decimal, src *decimal.Decimal) {
		if src != nil {
			*dst = *src
		}
	}
	aplicar(&t.BaseICMS, informados.BaseICMS)
	aplicar(&t.ValorICMS, informados.ValorICMS)
	aplicar(&t.ValorProdutos, informados.ValorProdutos)
	aplicar(&t.ValorFrete, informados.ValorFrete)
	aplicar(&t.ValorSeguro, informados.ValorSeguro)
	aplicar(&t.ValorDesconto, informados.ValorDesconto)
	aplicar(&t.OutrasDespesas, informados.OutrasDespesas)
	aplicar(&t.ValorNota, informados.ValorNota)
	return t
}

// ── Formatação de campos ──────────────────────────────────────────────────────

// Casas decimais fixas por tipo de campo (exigência do schema, não cosmética):
// quantidades 4, valores monetários 2, preços unitários 10, alíquotas 4.
// Nunca usar formatação sensível a locale.

func formatarValor(d decimal.Decimal) string      { return d.Round(2).StringFixed(2) }
func formatarQuantidade(d decimal.Decimal) string { return d.Round(4).StringFixed(4) }
func formatarUnitario(d decimal.Decimal) string   { return d.Round(10).StringFixed(10) }
func formatarAliquota(d decimal.Decimal) string   { return d.Round(4).StringFixed(4) }

// formatarDataHora serializa em ISO-8601 com offset fixo -03:00.
func formatarDataHora(t time.Time) string {
	return t.In(fusoBrasilia).Format("2006-01-02T15:04:05-07:00")
}

func eanOuSemGTIN(ean string) string {
	if ean == "" {
		return pkgnfe.SemGTIN
	}
	return ean
}

func origemOuZero(orig string) string {
	if orig == "" {
		return "0"
	}
	return orig
}

func cstNaoTributado(cst string) bool {
	switch cst {
	case "04", "05", "06", "07", "08", "09":
		return true
	}
	return false
}

// texto cria um elemento filho com conteúdo textual. O etree aplica o escape
// de entidades (& < > " ') em todo texto, obrigatório para campos digitados
// por humanos.
func texto(parent *etree.Element, nome, valor string) {
	el := parent.CreateElement(nome)
	el.SetText(valor)
}

// somenteDigitos remove tudo que não é dígito. CNPJ/CPF/CEP/fone podem chegar
// formatados do modelo; a limpeza acontece na serialização.
func somenteDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// removerLinhasVazias tira linhas em branco do XML final (a SEFAZ de alguns
// estados é sensível a quebras de linha extras).
func removerLinhasVazias(s string) string {
	linhas := strings.Split(s, "\n")
	out := linhas[:0]
	for _, l := range linhas {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
