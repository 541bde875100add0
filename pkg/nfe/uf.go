// Package nfe contém catálogos e validações alinhados ao Manual de Orientação
// do Contribuinte (MOC) da NF-e, layout 4.00.
package nfe

import (
	"errors"
	"fmt"
	"sort"
)

// Erros da tabela de UF (compartilhados pela chave de acesso e pelo resolver de endpoints).
var (
	ErrUFDesconhecida       = errors.New("nfe: UF desconhecida")
	ErrCodigoUFDesconhecido = errors.New("nfe: código IBGE de UF desconhecido")
)

// codigosUF é a tabela fechada das 27 unidades federativas (código IBGE).
// Fonte única: a geração da chave de acesso e o resolver de endpoints usam
// esta mesma tabela para não divergirem.
var codigosUF = map[string]int{
	"RO": 11, "AC": 12, "AM": 13, "RR": 14, "PA": 15, "AP": 16, "TO": 17,
	"MA": 21, "PI": 22, "CE": 23, "RN": 24, "PB": 25, "PE": 26, "AL": 27, "SE": 28, "BA": 29,
	"MG": 31, "ES": 32, "RJ": 33, "SP": 35,
	"PR": 41, "SC": 42, "RS": 43,
	"MS": 50, "MT": 51, "GO": 52, "DF": 53,
}

// ufsPorCodigo é o índice inverso, montado uma vez no init.
var ufsPorCodigo = func() map[int]string {
	m := make(map[int]string, len(codigosUF))
	for uf, cod := range codigosUF {
		m[cod] = uf
	}
	return m
}()

// CodigoUF devolve o código IBGE da UF (ex: "SP" -> 35).
// UF desconhecida é erro fatal: nunca há default silencioso.
func CodigoUF(uf string) (int, error) {
	cod, ok := codigosUF[uf]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUFDesconhecida, uf)
	}
	return cod, nil
}

// UFPorCodigo devolve a sigla da UF a partir do código IBGE (ex: 35 -> "SP").
func UFPorCodigo(codigo int) (string, error) {
	uf, ok := ufsPorCodigo[codigo]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrCodigoUFDesconhecido, codigo)
	}
	return uf, nil
}

// UFs devolve as 27 siglas em ordem alfabética (útil para iteração estável em testes).
func UFs() []string {
	out := make([]string, 0, len(codigosUF))
	for uf := range codigosUF {
		out = append(out, uf)
	}
	sort.Strings(out)
	return out
}
