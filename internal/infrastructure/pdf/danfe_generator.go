// Package pdf implementa a geração do DANFE (Documento Auxiliar da NF-e)
// em modo simplificado, a partir do registro de emissão.
//
// Layout da página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: DANFE + série/número  │  Status + Data             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CHAVE DE ACESSO: grupos de 4 dígitos + código de barras    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DESTINATÁRIO / VALOR TOTAL / PROTOCOLO DE AUTORIZAÇÃO      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR de consulta + legenda legal                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/fiscalgo/emissor-nfe/internal/domain/entity"
	domnfe "github.com/fiscalgo/emissor-nfe/internal/domain/nfe"
)

// ── Paleta de cores ───────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 16, Green: 78, Blue: 40}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// MarotoDANFEGenerator implementa emissao.GeradorDANFE usando Maroto v2.
type MarotoDANFEGenerator struct{}

// NewMarotoDANFEGenerator constrói o gerador.
func NewMarotoDANFEGenerator() *MarotoDANFEGenerator { return &MarotoDANFEGenerator{} }

// GerarDANFE gera o PDF e devolve seus bytes.
func (g *MarotoDANFEGenerator) GerarDANFE(_ context.Context, nota *entity.NotaEmitida) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("DANFE", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(nota))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(chaveRows(nota)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(resumoRow(nota))
	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(nota)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: gerar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Seções ────────────────────────────────────────────────────────────────────

// headerRow: identificação do documento (esq) e status + data (dir).
func headerRow(nota *entity.NotaEmitida) core.Row {
	numero := fmt.Sprintf("Série %03d — Nº %09d", nota.Serie, nota.Numero)
	data := nota.CreatedAt.Format("02/01/2006 15:04")

	return row.New(18).Add(
		col.New(7).Add(
			text.New("DANFE", props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1,
			}),
			text.New("Documento Auxiliar da Nota Fiscal Eletrônica", props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
			text.New(numero, props.Text{Size: 9, Top: 13}),
		),
		col.New(5).Add(
			text.New(nota.Status, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right,
				Color: colorPrimary, Top: 2,
			}),
			text.New("Emissão: "+data, props.Text{
				Size: 8, Align: align.Right, Top: 10, Color: colorGray,
			}),
			text.New(ambienteLegenda(nota.Ambiente), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// chaveRows: chave de acesso em grupos de 4 + código de barras Code128.
func chaveRows(nota *entity.NotaEmitida) []core.Row {
	return []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("CHAVE DE ACESSO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(6).Add(col.New(12).Add(
			text.New(domnfe.FormatarChave(nota.Chave), props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 1, Align: align.Center,
			}),
		)),
		row.New(16).Add(
			col.New(2),
			col.New(8).Add(code.NewBar(nota.Chave, props.Barcode{
				Percent: 90, Center: true,
			})),
			col.New(2),
		),
	}
}

// resumoRow: destinatário, valor total e protocolo.
func resumoRow(nota *entity.NotaEmitida) core.Row {
	protocolo := nota.Protocolo
	if protocolo == "" {
		protocolo = "—"
	}
	return row.New(20).Add(
		col.New(6).Add(
			text.New("DESTINATÁRIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nota.Destinatario, props.Text{Style: fontstyle.Bold, Size: 10, Top: 7}),
		),
		col.New(3).Add(
			text.New("VALOR TOTAL", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New("R$ "+nota.ValorTotal.Round(2).StringFixed(2), props.Text{
				Style: fontstyle.Bold, Size: 11, Top: 7,
			}),
		),
		col.New(3).Add(
			text.New("PROTOCOLO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(protocolo, props.Text{Size: 9, Top: 7}),
		),
	)
}

// footerRows: QR de consulta pela chave + legenda legal.
func footerRows(nota *entity.NotaEmitida) []core.Row {
	consulta := "https://www.nfe.fazenda.gov.br/portal/consultaRecaptcha.aspx?chNFe=" + nota.Chave

	rows := []core.Row{
		row.New(40).Add(
			col.New(4).Add(code.NewQr(consulta, props.Rect{
				Percent: 90,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Consulte pela chave de acesso no portal nacional\nda NF-e ou escaneie o código QR.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("NOTA FISCAL ELETRÔNICA", props.Text{
					Style: fontstyle.Bold, Size: 10, Top: 20,
					Left: 3, Color: colorPrimary,
				}),
			),
		),
	}

	if nota.Ambiente == "2" {
		rows = append(rows, row.New(8).Add(col.New(12).Add(
			text.New("EMITIDA EM AMBIENTE DE HOMOLOGAÇÃO — SEM VALOR FISCAL", props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Center, Top: 2,
			}),
		)))
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Documento auxiliar: não substitui o XML autorizado. "+
				"Conserve o arquivo eletrônico como suporte fiscal.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func ambienteLegenda(tpAmb string) string {
	if tpAmb == "1" {
		return "Ambiente: produção"
	}
	return "Ambiente: homologação"
}
