// Documentos de requisição irmãos do XML da nota: lote de envio, consulta de
// status do serviço e consulta de protocolo por chave. Mesma disciplina de
// escape e formatação do builder, sem ramificação nova.

package nfe

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	domnfe "github.com/fiscalgo/emissor-nfe/internal/domain/nfe"
	pkgnfe "github.com/fiscalgo/emissor-nfe/pkg/nfe"
)

// BuildBatchEnvelope embrulha o XML de uma nota no lote enviNFe para o
// serviço NfeAutorizacao. idLote é um identificador numérico do remetente
// (1 a 15 dígitos); indSinc=1 pede processamento síncrono.
func (s *XMLBuilderService) BuildBatchEnvelope(notaXML, idLote string) (string, error) {
	if strings.TrimSpace(notaXML) == "" {
		return "", fmt.Errorf("nfe: XML da nota vazio para o lote")
	}
	if idLote == "" || len(idLote) > 15 || somenteDigitos(idLote) != idLote {
		return "", fmt.Errorf("nfe: idLote deve ser numérico com até 15 dígitos, recebido %q", idLote)
	}

	doc := etree.NewDocument()
	env := doc.CreateElement("enviNFe")
	env.CreateAttr("xmlns", NsNFe)
	env.CreateAttr("versao", VersaoLayout)
	texto(env, "idLote", idLote)
	texto(env, "indSinc", "1")

	// A nota entra como subdocumento já serializado (será assinada antes do
	// envio; reprocessar os tokens aqui invalidaria a assinatura).
	notaDoc := etree.NewDocument()
	if err := notaDoc.ReadFromString(notaXML); err != nil {
		return "", fmt.Errorf("nfe: XML da nota malformado: %w", err)
	}
	raiz := notaDoc.Root()
	if raiz == nil {
		return "", fmt.Errorf("nfe: XML da nota sem elemento raiz")
	}
	env.AddChild(raiz.Copy())

	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("nfe: serializar lote: %w", err)
	}
	return removerLinhasVazias(out), nil
}

// BuildStatusQuery monta o consStatServ para o serviço NfeStatusServico da UF.
func (s *XMLBuilderService) BuildStatusQuery(uf, ambiente string) (string, error) {
	codUF, err := pkgnfe.CodigoUF(uf)
	if err != nil {
		return "", err
	}
	if ambiente == "" {
		ambiente = pkgnfe.AmbienteHomologacao
	}

	doc := etree.NewDocument()
	cons := doc.CreateElement("consStatServ")
	cons.CreateAttr("xmlns", NsNFe)
	cons.CreateAttr("versao", VersaoLayout)
	texto(cons, "tpAmb", ambiente)
	texto(cons, "cUF", fmt.Sprintf("%02d", codUF))
	texto(cons, "xServ", "STATUS")

	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("nfe: serializar consulta de status: %w", err)
	}
	return removerLinhasVazias(out), nil
}

// BuildDocumentQuery monta o consSitNFe para consulta de protocolo por chave.
// A chave é validada (módulo 11) antes: consultar uma chave corrompida só
// adianta a rejeição para cá.
func (s *XMLBuilderService) BuildDocumentQuery(chave, ambiente string) (string, error) {
	if !domnfe.ValidarChave(chave) {
		return "", fmt.Errorf("%w: %q", domnfe.ErrChaveInvalida, chave)
	}
	if ambiente == "" {
		ambiente = pkgnfe.AmbienteHomologacao
	}

	doc := etree.NewDocument()
	cons := doc.CreateElement("consSitNFe")
	cons.CreateAttr("xmlns", NsNFe)
	cons.CreateAttr("versao", VersaoLayout)
	texto(cons, "tpAmb", ambiente)
	texto(cons, "xServ", "CONSULTAR")
	texto(cons, "chNFe", chave)

	out, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("nfe: serializar consulta de protocolo: %w", err)
	}
	return removerLinhasVazias(out), nil
}
