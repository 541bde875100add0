// Package nfe: geração e validação da chave de acesso da NF-e (44 dígitos)
// conforme o Manual de Orientação do Contribuinte, layout 4.00.
// Composição: cUF(2) AAMM(4) CNPJ(14) mod(2) serie(3) nNF(9) tpEmis(1) cNF(8) cDV(1).

package nfe

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	pkgnfe "github.com/fiscalgo/emissor-nfe/pkg/nfe"
)

// Erros de validação dos parâmetros da chave. Sempre fatais para a operação;
// o chamador corrige a entrada, nunca há retry interno.
var (
	ErrCNPJInvalido        = errors.New("nfe: CNPJ deve ter 14 dígitos")
	ErrModeloInvalido      = errors.New("nfe: modelo deve ser 55 ou 65")
	ErrSerieInvalida       = errors.New("nfe: série deve estar entre 0 e 999")
	ErrNumeroInvalido      = errors.New("nfe: número deve estar entre 1 e 999999999")
	ErrTipoEmissaoInvalido = errors.New("nfe: tipo de emissão deve estar entre 1 e 9")
	ErrTamanhoInvalido     = errors.New("nfe: chave de acesso deve ter 44 dígitos")
	ErrChaveInvalida       = errors.New("nfe: chave de acesso com dígito verificador inválido")
)

// ChaveParams são os insumos para gerar a chave de acesso.
type ChaveParams struct {
	UF          string    // Sigla da UF do emitente (tabela IBGE fechada)
	DataEmissao time.Time // Só ano (mod 100) e mês entram na chave
	CNPJ        string    // CNPJ do emitente; aceita pontuação, são extraídos os dígitos
	Modelo      int       // 55 (NF-e) ou 65 (NFC-e)
	Serie       int       // 0..999
	Numero      int       // 1..999999999
	TipoEmissao int       // 1..9 (normal e contingências)
	CodigoNF    string    // cNF com 8 dígitos; vazio = gerado aleatoriamente
}

// CamposChave é a decomposição posicional de uma chave de 44 dígitos.
type CamposChave struct {
	CodigoUF    string // posições 0-1
	AnoMes      string // posições 2-5 (AAMM)
	CNPJ        string // posições 6-19
	Modelo      string // posições 20-21
	Serie       string // posições 22-24
	Numero      string // posições 25-33
	TipoEmissao string // posição 34
	CodigoNF    string // posições 35-42
	DV          string // posição 43
}

// GerarChave monta a chave de acesso de 44 dígitos validando cada campo.
// O dígito verificador (módulo 11) é calculado sobre os 43 primeiros.
func GerarChave(p ChaveParams) (string, error) {
	cnpj := somenteDigitos(p.CNPJ)
	if len(cnpj) != 14 {
		return "", fmt.Errorf("%w: recebidos %d dígitos", ErrCNPJInvalido, len(cnpj))
	}
	if p.Modelo != pkgnfe.ModeloNFe && p.Modelo != pkgnfe.ModeloNFCe {
		return "", fmt.Errorf("%w: recebido %d", ErrModeloInvalido, p.Modelo)
	}
	if p.Serie < 0 || p.Serie > 999 {
		return "", fmt.Errorf("%w: recebida %d", ErrSerieInvalida, p.Serie)
	}
	if p.Numero < 1 || p.Numero > 999_999_999 {
		return "", fmt.Errorf("%w: recebido %d", ErrNumeroInvalido, p.Numero)
	}
	if p.TipoEmissao < 1 || p.TipoEmissao > 9 {
		return "", fmt.Errorf("%w: recebido %d", ErrTipoEmissaoInvalido, p.TipoEmissao)
	}
	codUF, err := pkgnfe.CodigoUF(p.UF)
	if err != nil {
		return "", err
	}

	cNF := p.CodigoNF
	if cNF == "" {
		cNF = gerarCodigoNF()
	} else {
		// Assim como o CNPJ, o cNF entra na chave só com os dígitos.
		cNF = somenteDigitos(cNF)
		if len(cNF) != 8 {
			return "", fmt.Errorf("nfe: cNF deve ter 8 dígitos, recebido %q", p.CodigoNF)
		}
	}

	// Cada campo entra com largura fixa, zero à esquerda, na ordem do layout.
	prefixo := fmt.Sprintf("%02d%02d%02d%s%02d%03d%09d%d%s",
		codUF,
		p.DataEmissao.Year()%100,
		int(p.DataEmissao.Month()),
		cnpj,
		p.Modelo,
		p.Serie,
		p.Numero,
		p.TipoEmissao,
		cNF,
	)

	dv := DigitoVerificador(prefixo)
	return prefixo + string(rune('0'+dv)), nil
}

// DigitoVerificador calcula o dígito módulo 11 da chave de acesso.
// Percorre os 43 dígitos da direita para a esquerda multiplicando pelos pesos
// cíclicos 2,3,4,5,6,7,8,9. Resto 0 ou 1 vira dígito 0; senão 11 - resto.
// A direção do percurso e o ciclo de pesos são exigência do layout: qualquer
// desvio produz chave rejeitada pela SEFAZ.
func DigitoVerificador(digitos string) int {
	peso := 2
	soma := 0
	for i := len(digitos) - 1; i >= 0; i-- {
		soma += int(digitos[i]-'0') * peso
		peso++
		if peso > 9 {
			peso = 2
		}
	}
	resto := soma % 11
	if resto == 0 || resto == 1 {
		return 0
	}
	return 11 - resto
}

// ValidarChave confere o dígito verificador de uma chave de 44 dígitos.
// Remove tudo que não é dígito antes de validar; tamanho diferente de 44
// devolve false, nunca pânico.
func ValidarChave(chave string) bool {
	d := somenteDigitos(chave)
	if len(d) != 44 {
		return false
	}
	return DigitoVerificador(d[:43]) == int(d[43]-'0')
}

// ParseChave decompõe a chave pelos offsets fixos do layout, sem recalcular nada.
func ParseChave(chave string) (CamposChave, error) {
	d := somenteDigitos(chave)
	if len(d) != 44 {
		return CamposChave{}, fmt.Errorf("%w: recebidos %d", ErrTamanhoInvalido, len(d))
	}
	return CamposChave{
		CodigoUF:    d[0:2],
		AnoMes:      d[2:6],
		CNPJ:        d[6:20],
		Modelo:      d[20:22],
		Serie:       d[22:25],
		Numero:      d[25:34],
		TipoEmissao: d[34:35],
		CodigoNF:    d[35:43],
		DV:          d[43:44],
	}, nil
}

// FormatarChave agrupa os dígitos de 4 em 4 separados por espaço
// (apresentação do DANFE; não serve para validação).
func FormatarChave(chave string) string {
	d := somenteDigitos(chave)
	var b strings.Builder
	for i, r := range d {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// gerarCodigoNF sorteia um cNF na faixa completa de 8 dígitos [10000000, 99999999].
// É só anticolisão, sem valor criptográfico; o chamador não deve assumir
// reprodutibilidade.
func gerarCodigoNF() string {
	return fmt.Sprintf("%08d", 10_000_000+rand.IntN(90_000_000))
}

// somenteDigitos deixa apenas os caracteres 0-9.
func somenteDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
