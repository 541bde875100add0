// Validações estruturais da nota antes da serialização. Uma nota com força
// legal nunca sai parcial: qualquer falha aqui aborta o build inteiro.

package nfe

import (
	"errors"
	"fmt"

	pkgnfe "github.com/fiscalgo/emissor-nfe/pkg/nfe"
)

// ErrNotaInvalida agrupa as falhas estruturais de uma nota.
var ErrNotaInvalida = errors.New("nfe: nota inválida")

// ValidarNota verifica a estrutura mínima exigida pelo layout: identidade do
// emitente e do destinatário, pelo menos um item e um pagamento, índices de
// item sequenciais e exatamente uma forma de identidade no destinatário.
func ValidarNota(nota *NotaFiscal) error {
	if nota == nil {
		return fmt.Errorf("%w: nota nula", ErrNotaInvalida)
	}
	var errs []error

	if nota.Identificacao.NaturezaOperacao == "" {
		errs = append(errs, fmt.Errorf("natureza da operação (natOp) é obrigatória"))
	}
	if nota.Identificacao.DataEmissao.IsZero() {
		errs = append(errs, fmt.Errorf("data de emissão (dhEmi) é obrigatória"))
	}

	if nota.Emitente.CNPJ == "" {
		errs = append(errs, fmt.Errorf("CNPJ do emitente é obrigatório"))
	}
	if nota.Emitente.RazaoSocial == "" {
		errs = append(errs, fmt.Errorf("razão social do emitente é obrigatória"))
	}
	if nota.Emitente.CRT < 1 || nota.Emitente.CRT > 3 {
		errs = append(errs, fmt.Errorf("CRT do emitente deve ser 1, 2 ou 3 (recebido %d)", nota.Emitente.CRT))
	}
	if _, err := pkgnfe.CodigoUF(nota.Emitente.Endereco.UF); err != nil {
		errs = append(errs, err)
	}

	// Destinatário: exatamente uma forma de identidade.
	formas := 0
	if nota.Destinatario.CNPJ != "" {
		formas++
	}
	if nota.Destinatario.CPF != "" {
		formas++
	}
	if nota.Destinatario.IDEstrangeiro != "" {
		formas++
	}
	if formas != 1 {
		errs = append(errs, fmt.Errorf("destinatário deve ter exatamente uma identidade (CNPJ, CPF ou idEstrangeiro); recebidas %d", formas))
	}
	if nota.Destinatario.Nome == "" {
		errs = append(errs, fmt.Errorf("nome do destinatário é obrigatório"))
	}

	if len(nota.Itens) == 0 {
		errs = append(errs, fmt.Errorf("a nota deve ter ao menos um item"))
	}
	for i, item := range nota.Itens {
		if item.Descricao == "" {
			errs = append(errs, fmt.Errorf("item %d: descrição (xProd) é obrigatória", i+1))
		}
		if item.CFOP == "" {
			errs = append(errs, fmt.Errorf("item %d: CFOP é obrigatório", i+1))
		}
		if err := validarICMS(i+1, item.ICMS); err != nil {
			errs = append(errs, err)
		}
	}

	if len(nota.Pagamentos) == 0 {
		errs = append(errs, fmt.Errorf("a nota deve ter ao menos um pagamento"))
	}
	for i, pag := range nota.Pagamentos {
		if pkgnfe.PagamentosComCartao[pag.Meio] && pag.Cartao == nil {
			errs = append(errs, fmt.Errorf("pagamento %d: meio %s exige o grupo card", i+1, pag.Meio))
		}
	}

	mf := nota.Transporte.ModFrete
	if mf != pkgnfe.FretePorContaEmitente && mf != pkgnfe.FretePorContaDestinatario &&
		mf != pkgnfe.FretePorContaTerceiros && mf != pkgnfe.FreteSemTransporte {
		errs = append(errs, fmt.Errorf("modFrete %d inválido (0-2 ou 9)", mf))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrNotaInvalida}, errs...)...)
	}
	return nil
}

// validarICMS exige que a união etiquetada tenha exatamente um lado preenchido.
func validarICMS(nItem int, icms ICMS) error {
	if icms.Simples == nil && icms.Normal == nil {
		return fmt.Errorf("item %d: ICMS sem regime definido (Simples ou Normal)", nItem)
	}
	if icms.Simples != nil && icms.Normal != nil {
		return fmt.Errorf("item %d: ICMS com os dois regimes preenchidos", nItem)
	}
	return nil
}
