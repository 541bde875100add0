package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalgo/emissor-nfe/pkg/config"
)

func TestDSN_EscapaCredenciais(t *testing.T) {
	db := config.DBConfig{
		Host:     "db.interno",
		Port:     5432,
		User:     "emissor",
		Password: "s#nh@ com espaço",
		DBName:   "emissor_nfe",
		SSLMode:  "require",
	}

	dsn := db.DSN()

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.interno:5432")
	assert.Contains(t, dsn, "/emissor_nfe")
	assert.Contains(t, dsn, "sslmode=require")
	// A senha com caracteres especiais sai URL-encoded, nunca crua.
	assert.NotContains(t, dsn, "s#nh@ com espaço")
}

func TestConnectionString_URLCompletaTemPrioridade(t *testing.T) {
	db := config.DBConfig{
		DatabaseURL: "postgres://u:p@host:5432/db?sslmode=disable",
		Host:        "ignorado",
		DBName:      "ignorado",
	}
	assert.Equal(t, db.DatabaseURL, db.ConnectionString())
}

func TestLoad_SecaoNFEViaEnv(t *testing.T) {
	t.Setenv("NFE_UF", "MG")
	t.Setenv("NFE_AMBIENTE", "producao")
	t.Setenv("NFE_CONTINGENCIA", "true")
	t.Setenv("NFE_SERIE", "7")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "MG", cfg.NFE.UF)
	assert.Equal(t, "producao", cfg.NFE.Ambiente)
	assert.True(t, cfg.NFE.Contingencia)
	assert.Equal(t, 7, cfg.NFE.Serie)
}

func TestLoad_DefaultsDeEmissao(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "SP", cfg.NFE.UF)
	assert.Equal(t, "homologacao", cfg.NFE.Ambiente)
	assert.False(t, cfg.NFE.Contingencia)
	assert.Equal(t, 1, cfg.NFE.Serie)
}
