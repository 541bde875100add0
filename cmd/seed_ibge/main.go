// seed_ibge gera o script SQL que povoa a tabela paramétrica de municípios
// (código IBGE de 7 dígitos, usado no cMunFG e nos endereços da NF-e) a partir
// do XML da Divisão Territorial Brasileira.
//
// Uso: go run ./cmd/seed_ibge [caminho/Municipios.xml]
// Por padrão procura Municipios.xml no diretório atual.
// Escreve: internal/infrastructure/postgres/migrations/003_seed_municipios.sql
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	pkgnfe "github.com/fiscalgo/emissor-nfe/pkg/nfe"
)

type divisao struct {
	Municipios []municipio `xml:"municipio"`
}

type municipio struct {
	Codigo string `xml:"codigo,attr"` // código IBGE de 7 dígitos
	Nome   string `xml:"nome,attr"`
	UF     string `xml:"uf,attr"` // sigla
}

func main() {
	xmlPath := "Municipios.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var d divisao
	dec := xml.NewDecoder(f)
	// O IBGE ainda distribui o arquivo em ISO-8859-1.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&d); err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}

	var linhas []municipio
	descartados := 0
	for _, m := range d.Municipios {
		m.Codigo = strings.TrimSpace(m.Codigo)
		m.Nome = strings.TrimSpace(m.Nome)
		m.UF = strings.ToUpper(strings.TrimSpace(m.UF))
		if len(m.Codigo) != 7 || m.Nome == "" {
			descartados++
			continue
		}
		// Só UFs da tabela IBGE fechada entram no seed.
		if _, err := pkgnfe.CodigoUF(m.UF); err != nil {
			descartados++
			continue
		}
		linhas = append(linhas, m)
	}
	sort.Slice(linhas, func(i, j int) bool { return linhas[i].Codigo < linhas[j].Codigo })

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "003_seed_municipios.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Criar arquivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- Municípios do Brasil (código IBGE de 7 dígitos)\n")
	out.WriteString("-- Gerado de Municipios.xml (IBGE, Divisão Territorial Brasileira)\n\n")
	out.WriteString("INSERT INTO municipios (codigo_ibge, nome, uf) VALUES\n")
	for i, m := range linhas {
		sep := ","
		if i == len(linhas)-1 {
			sep = ""
		}
		fmt.Fprintf(out, "  ('%s', '%s', '%s')%s\n", m.Codigo, escapeSQL(m.Nome), m.UF, sep)
	}
	out.WriteString("ON CONFLICT (codigo_ibge) DO UPDATE SET nome = EXCLUDED.nome, uf = EXCLUDED.uf;\n")

	fmt.Printf("Gerado %s: %d municípios (%d descartados)\n", outPath, len(linhas), descartados)
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
