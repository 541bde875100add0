// Roteamento de webservices SEFAZ (NF-e 4.00): UF -> autorizador ->
// {ambiente, serviço} -> URL. Tabelas estáticas montadas uma vez no init;
// nenhum estado além do flag de contingência passado pelo chamador.

package nfe

import (
	"errors"
	"fmt"

	pkgnfe "github.com/fiscalgo/emissor-nfe/pkg/nfe"
)

// Erros de roteamento. O resolver nunca cai para outro autorizador por conta
// própria: URL ausente é erro operacional, não caso de retry silencioso.
var (
	ErrUFNaoSuportada      = errors.New("nfe: UF sem autorizador configurado")
	ErrAmbienteInvalido    = errors.New("nfe: ambiente inválido")
	ErrServicoIndisponivel = errors.New("nfe: serviço indisponível para o autorizador")
)

// Ambiente de transmissão.
type Ambiente string

const (
	Producao    Ambiente = "producao"
	Homologacao Ambiente = "homologacao"
)

// Servico é um dos webservices do portal da NF-e.
type Servico string

const (
	ServicoAutorizacao       Servico = "NfeAutorizacao"       // envio de lote
	ServicoRetAutorizacao    Servico = "NfeRetAutorizacao"    // resultado do lote
	ServicoConsultaProtocolo Servico = "NfeConsultaProtocolo" // consulta por chave
	ServicoStatusServico     Servico = "NfeStatusServico"     // status do serviço
	ServicoRecepcaoEvento    Servico = "RecepcaoEvento"       // eventos (cancelamento, CC-e)
	ServicoInutilizacao      Servico = "NfeInutilizacao"      // inutilização de faixa
)

// Autorizador é a entidade que autoriza notas de uma UF: a própria SEFAZ,
// uma Sefaz Virtual compartilhada (SVAN/SVRS) ou as virtuais de contingência.
type Autorizador string

const (
	AutorizadorAM    Autorizador = "AM"
	AutorizadorBA    Autorizador = "BA"
	AutorizadorGO    Autorizador = "GO"
	AutorizadorMG    Autorizador = "MG"
	AutorizadorMS    Autorizador = "MS"
	AutorizadorMT    Autorizador = "MT"
	AutorizadorPE    Autorizador = "PE"
	AutorizadorPR    Autorizador = "PR"
	AutorizadorRS    Autorizador = "RS"
	AutorizadorSP    Autorizador = "SP"
	AutorizadorSVAN  Autorizador = "SVAN"
	AutorizadorSVRS  Autorizador = "SVRS"
	AutorizadorSVCAN Autorizador = "SVC-AN"
	AutorizadorSVCRS Autorizador = "SVC-RS"
)

// autorizadorPorUF mapeia cada uma das 27 UFs para seu autorizador normal.
// Dez estados mantêm webservice próprio; MA usa a SVAN; os demais dezesseis
// delegam à SVRS.
var autorizadorPorUF = map[string]Autorizador{
	"AM": AutorizadorAM, "BA": AutorizadorBA, "GO": AutorizadorGO,
	"MG": AutorizadorMG, "MS": AutorizadorMS, "MT": AutorizadorMT,
	"PE": AutorizadorPE, "PR": AutorizadorPR, "RS": AutorizadorRS,
	"SP": AutorizadorSP,

	"MA": AutorizadorSVAN,

	"AC": AutorizadorSVRS, "AL": AutorizadorSVRS, "AP": AutorizadorSVRS,
	"CE": AutorizadorSVRS, "DF": AutorizadorSVRS, "ES": AutorizadorSVRS,
	"PA": AutorizadorSVRS, "PB": AutorizadorSVRS, "PI": AutorizadorSVRS,
	"RJ": AutorizadorSVRS, "RN": AutorizadorSVRS, "RO": AutorizadorSVRS,
	"RR": AutorizadorSVRS, "SC": AutorizadorSVRS, "SE": AutorizadorSVRS,
	"TO": AutorizadorSVRS,
}

// servicoPaths são os caminhos dos webservices de um autorizador, idênticos
// nos dois ambientes (só o host muda).
type servicoPaths map[Servico]string

// ambientes monta as URLs de produção e homologação a partir do par de hosts
// e dos caminhos. Ter uma única fonte para os dois ambientes elimina a classe
// de defeito "URL corrigida só em uma das tabelas".
func ambientes(hostProducao, hostHomologacao string, paths servicoPaths) map[Ambiente]map[Servico]string {
	montar := func(host string) map[Servico]string {
		m := make(map[Servico]string, len(paths))
		for svc, path := range paths {
			m[svc] = host + path
		}
		return m
	}
	return map[Ambiente]map[Servico]string{
		Producao:    montar(hostProducao),
		Homologacao: montar(hostHomologacao),
	}
}

// endpoints é a tabela completa {autorizador -> ambiente -> serviço -> URL}.
// As virtuais de contingência não oferecem NfeInutilizacao (a inutilização de
// faixa só existe no autorizador normal).
var endpoints = map[Autorizador]map[Ambiente]map[Servico]string{
	AutorizadorSP: ambientes(
		"https://nfe.fazenda.sp.gov.br",
		"https://homologacao.nfe.fazenda.sp.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/ws/nfeautorizacao4.asmx",
			ServicoRetAutorizacao:    "/ws/nferetautorizacao4.asmx",
			ServicoConsultaProtocolo: "/ws/nfeconsultaprotocolo4.asmx",
			ServicoStatusServico:     "/ws/nfestatusservico4.asmx",
			ServicoRecepcaoEvento:    "/ws/nferecepcaoevento4.asmx",
			ServicoInutilizacao:      "/ws/nfeinutilizacao4.asmx",
		}),
	AutorizadorAM: ambientes(
		"https://nfe.sefaz.am.gov.br",
		"https://homnfe.sefaz.am.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/services2/services/NfeAutorizacao4",
			ServicoRetAutorizacao:    "/services2/services/NfeRetAutorizacao4",
			ServicoConsultaProtocolo: "/services2/services/NfeConsulta4",
			ServicoStatusServico:     "/services2/services/NfeStatusServico4",
			ServicoRecepcaoEvento:    "/services2/services/RecepcaoEvento4",
			ServicoInutilizacao:      "/services2/services/NfeInutilizacao4",
		}),
	AutorizadorBA: ambientes(
		"https://nfe.sefaz.ba.gov.br",
		"https://hnfe.sefaz.ba.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/webservices/NFeAutorizacao4/NFeAutorizacao4.asmx",
			ServicoRetAutorizacao:    "/webservices/NFeRetAutorizacao4/NFeRetAutorizacao4.asmx",
			ServicoConsultaProtocolo: "/webservices/NFeConsultaProtocolo4/NFeConsultaProtocolo4.asmx",
			ServicoStatusServico:     "/webservices/NFeStatusServico4/NFeStatusServico4.asmx",
			ServicoRecepcaoEvento:    "/webservices/NFeRecepcaoEvento4/NFeRecepcaoEvento4.asmx",
			ServicoInutilizacao:      "/webservices/NFeInutilizacao4/NFeInutilizacao4.asmx",
		}),
	AutorizadorGO: ambientes(
		"https://nfe.sefaz.go.gov.br",
		"https://homolog.sefaz.go.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/nfe/services/NFeAutorizacao4",
			ServicoRetAutorizacao:    "/nfe/services/NFeRetAutorizacao4",
			ServicoConsultaProtocolo: "/nfe/services/NFeConsultaProtocolo4",
			ServicoStatusServico:     "/nfe/services/NFeStatusServico4",
			ServicoRecepcaoEvento:    "/nfe/services/NFeRecepcaoEvento4",
			ServicoInutilizacao:      "/nfe/services/NFeInutilizacao4",
		}),
	AutorizadorMG: ambientes(
		"https://nfe.fazenda.mg.gov.br",
		"https://hnfe.fazenda.mg.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/nfe2/services/NFeAutorizacao4",
			ServicoRetAutorizacao:    "/nfe2/services/NFeRetAutorizacao4",
			ServicoConsultaProtocolo: "/nfe2/services/NFeConsultaProtocolo4",
			ServicoStatusServico:     "/nfe2/services/NFeStatusServico4",
			ServicoRecepcaoEvento:    "/nfe2/services/NFeRecepcaoEvento4",
			ServicoInutilizacao:      "/nfe2/services/NFeInutilizacao4",
		}),
	AutorizadorMS: ambientes(
		"https://nfe.sefaz.ms.gov.br",
		"https://hom.nfe.sefaz.ms.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/ws/NFeAutorizacao4",
			ServicoRetAutorizacao:    "/ws/NFeRetAutorizacao4",
			ServicoConsultaProtocolo: "/ws/NFeConsultaProtocolo4",
			ServicoStatusServico:     "/ws/NFeStatusServico4",
			ServicoRecepcaoEvento:    "/ws/NFeRecepcaoEvento4",
			ServicoInutilizacao:      "/ws/NFeInutilizacao4",
		}),
	AutorizadorMT: ambientes(
		"https://nfe.sefaz.mt.gov.br",
		"https://homologacao.sefaz.mt.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/nfews/v2/services/NfeAutorizacao4",
			ServicoRetAutorizacao:    "/nfews/v2/services/NfeRetAutorizacao4",
			ServicoConsultaProtocolo: "/nfews/v2/services/NfeConsulta4",
			ServicoStatusServico:     "/nfews/v2/services/NfeStatusServico4",
			ServicoRecepcaoEvento:    "/nfews/v2/services/RecepcaoEvento4",
			ServicoInutilizacao:      "/nfews/v2/services/NfeInutilizacao4",
		}),
	AutorizadorPE: ambientes(
		"https://nfe.sefaz.pe.gov.br",
		"https://nfehomolog.sefaz.pe.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/nfe-service/services/NFeAutorizacao4",
			ServicoRetAutorizacao:    "/nfe-service/services/NFeRetAutorizacao4",
			ServicoConsultaProtocolo: "/nfe-service/services/NFeConsultaProtocolo4",
			ServicoStatusServico:     "/nfe-service/services/NFeStatusServico4",
			ServicoRecepcaoEvento:    "/nfe-service/services/NFeRecepcaoEvento4",
			ServicoInutilizacao:      "/nfe-service/services/NFeInutilizacao4",
		}),
	AutorizadorPR: ambientes(
		"https://nfe.sefa.pr.gov.br",
		"https://homologacao.nfe.sefa.pr.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/nfe/NFeAutorizacao4",
			ServicoRetAutorizacao:    "/nfe/NFeRetAutorizacao4",
			ServicoConsultaProtocolo: "/nfe/NFeConsultaProtocolo4",
			ServicoStatusServico:     "/nfe/NFeStatusServico4",
			ServicoRecepcaoEvento:    "/nfe/NFeRecepcaoEvento4",
			ServicoInutilizacao:      "/nfe/NFeInutilizacao4",
		}),
	AutorizadorRS: ambientes(
		"https://nfe.sefazrs.rs.gov.br",
		"https://nfe-homologacao.sefazrs.rs.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
			ServicoRetAutorizacao:    "/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
			ServicoConsultaProtocolo: "/ws/NfeConsulta/NfeConsulta4.asmx",
			ServicoStatusServico:     "/ws/NfeStatusServico/NfeStatusServico4.asmx",
			ServicoRecepcaoEvento:    "/ws/recepcaoevento/recepcaoevento4.asmx",
			ServicoInutilizacao:      "/ws/nfeinutilizacao/nfeinutilizacao4.asmx",
		}),
	AutorizadorSVAN: ambientes(
		"https://www.sefazvirtual.fazenda.gov.br",
		"https://hom.sefazvirtual.fazenda.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/NFeAutorizacao4/NFeAutorizacao4.asmx",
			ServicoRetAutorizacao:    "/NFeRetAutorizacao4/NFeRetAutorizacao4.asmx",
			ServicoConsultaProtocolo: "/NFeConsultaProtocolo4/NFeConsultaProtocolo4.asmx",
			ServicoStatusServico:     "/NFeStatusServico4/NFeStatusServico4.asmx",
			ServicoRecepcaoEvento:    "/NFeRecepcaoEvento4/NFeRecepcaoEvento4.asmx",
			ServicoInutilizacao:      "/NFeInutilizacao4/NFeInutilizacao4.asmx",
		}),
	AutorizadorSVRS: ambientes(
		"https://nfe.svrs.rs.gov.br",
		"https://nfe-homologacao.svrs.rs.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
			ServicoRetAutorizacao:    "/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
			ServicoConsultaProtocolo: "/ws/NfeConsulta/NfeConsulta4.asmx",
			ServicoStatusServico:     "/ws/NfeStatusServico/NfeStatusServico4.asmx",
			ServicoRecepcaoEvento:    "/ws/recepcaoevento/recepcaoevento4.asmx",
			ServicoInutilizacao:      "/ws/nfeinutilizacao/nfeinutilizacao4.asmx",
		}),
	// SVC-AN: contingência nacional. Sem NfeInutilizacao.
	AutorizadorSVCAN: ambientes(
		"https://www.svc.fazenda.gov.br",
		"https://hom.svc.fazenda.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/NFeAutorizacao4/NFeAutorizacao4.asmx",
			ServicoRetAutorizacao:    "/NFeRetAutorizacao4/NFeRetAutorizacao4.asmx",
			ServicoConsultaProtocolo: "/NFeConsultaProtocolo4/NFeConsultaProtocolo4.asmx",
			ServicoStatusServico:     "/NFeStatusServico4/NFeStatusServico4.asmx",
			ServicoRecepcaoEvento:    "/NFeRecepcaoEvento4/NFeRecepcaoEvento4.asmx",
		}),
	// SVC-RS: contingência hospedada na infraestrutura da SVRS. Sem NfeInutilizacao.
	AutorizadorSVCRS: ambientes(
		"https://nfe.svrs.rs.gov.br",
		"https://nfe-homologacao.svrs.rs.gov.br",
		servicoPaths{
			ServicoAutorizacao:       "/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
			ServicoRetAutorizacao:    "/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
			ServicoConsultaProtocolo: "/ws/NfeConsulta/NfeConsulta4.asmx",
			ServicoStatusServico:     "/ws/NfeStatusServico/NfeStatusServico4.asmx",
			ServicoRecepcaoEvento:    "/ws/recepcaoevento/recepcaoevento4.asmx",
		}),
}

// EndpointResolverService resolve a URL do webservice SEFAZ para uma UF.
type EndpointResolverService struct{}

// NewEndpointResolverService cria o resolver.
func NewEndpointResolverService() *EndpointResolverService {
	return &EndpointResolverService{}
}

// Resolve devolve a URL do serviço para {uf, ambiente, contingência}.
//
// Em contingência o autorizador é sobrescrito: UFs cujo autorizador normal é
// a SVRS vão para a SVC-RS; todas as demais vão para a SVC-AN. A bifurcação
// depende do autorizador normal da UF — contingência não é simplesmente "vai
// para a nacional".
func (r *EndpointResolverService) Resolve(uf string, servico Servico, ambiente Ambiente, contingencia bool) (string, error) {
	// A UF precisa existir na tabela IBGE compartilhada antes do roteamento.
	if _, err := pkgnfe.CodigoUF(uf); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUFNaoSuportada, uf)
	}
	aut, ok := autorizadorPorUF[uf]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUFNaoSuportada, uf)
	}
	if contingencia {
		if aut == AutorizadorSVRS {
			aut = AutorizadorSVCRS
		} else {
			aut = AutorizadorSVCAN
		}
	}

	porAmbiente, ok := endpoints[aut]
	if !ok {
		return "", fmt.Errorf("%w: autorizador %s", ErrServicoIndisponivel, aut)
	}
	porServico, ok := porAmbiente[ambiente]
	if !ok {
		return "", fmt.Errorf("%w: %q (usar producao ou homologacao)", ErrAmbienteInvalido, ambiente)
	}
	url, ok := porServico[servico]
	if !ok {
		return "", fmt.Errorf("%w: %s/%s em %s", ErrServicoIndisponivel, aut, servico, ambiente)
	}
	return url, nil
}

// AutorizadorDaUF devolve o autorizador normal (sem contingência) da UF.
func (r *EndpointResolverService) AutorizadorDaUF(uf string) (Autorizador, error) {
	aut, ok := autorizadorPorUF[uf]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUFNaoSuportada, uf)
	}
	return aut, nil
}
