package postgres

import (
	"os"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// O contrato entre o repositório e o esquema: Create insere NULL (via
// nullIfEmpty) em xml_assinado/protocolo/motivo enquanto vazios, e Update
// usa COALESCE para atualização parcial. Um NOT NULL nessas colunas faria
// todo INSERT falhar, então o teste trava o esquema na forma anulável.
func TestMigracaoNotas_ColunasDoCicloSefazAnulaveis(t *testing.T) {
	sql, err := os.ReadFile("migrations/001_init.sql")
	require.NoError(t, err)

	for _, coluna := range []string{"xml_assinado", "protocolo", "motivo"} {
		re := regexp.MustCompile(`(?m)^\s*` + coluna + `\s+TEXT\s*,?\s*$`)
		assert.True(t, re.Match(sql),
			"coluna %s deve ser TEXT anulável, sem NOT NULL", coluna)
	}
}

func TestNullIfEmpty(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))

	v := nullIfEmpty("935240000000001")
	require.NotNil(t, v)
	assert.Equal(t, "935240000000001", *v)
}
