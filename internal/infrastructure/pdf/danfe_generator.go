// Package pdf implementa a geração do DANFE (Documento Auxiliar da Nota
// Fiscal Eletrônica) e do DANFE NFC-e em formato simplificado.
//
// Layout da página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razão Social + CNPJ  │  DANFE + Nº/Série + Data    │
//	│  CHAVE DE ACESSO (44 dígitos)                                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  EMITENTE: Endereço / IE                                     │
//	│  DESTINATÁRIO: Nome + CPF/CNPJ (NFC-e pode omitir)           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABELA: Qtd | Descrição | NCM | V.Unit | ICMS | V.Total     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAIS: Produtos / ICMS / PIS+COFINS / TOTAL DA NOTA        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: Protocolo de autorização + QR (NFC-e)               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"os"
	"path/filepath"

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

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
)

// ── Paleta de cores ───────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// DANFEGenerator implementa fiscal.GeradorDANFE usando Maroto v2. O PDF é
// gravado em outputDir e a referência devolvida é o caminho do arquivo.
type DANFEGenerator struct {
	outputDir string
}

// NewDANFEGenerator constrói o gerador apontando para o diretório de saída.
func NewDANFEGenerator(outputDir string) *DANFEGenerator {
	return &DANFEGenerator{outputDir: outputDir}
}

// Gerar monta o DANFE da nota e devolve o caminho do PDF gravado.
func (g *DANFEGenerator) Gerar(nota *entity.NotaFiscal) (string, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(tituloDocumento(nota), true).
		WithAuthor(nota.Emitente.RazaoSocial, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(nota))
	m.AddRows(chaveRow(nota))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(emitenteRow(&nota.Emitente))
	m.AddRows(destinatarioRow(nota))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableItemRows(nota.Itens) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totaisRow(nota))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range footerRows(nota) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return "", fmt.Errorf("pdf: gerar documento: %w", err)
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("pdf: diretório de saída: %w", err)
	}
	nome := nota.ChaveAcesso
	if nome == "" {
		nome = nota.ID
	}
	path := filepath.Join(g.outputDir, nome+".pdf")
	if err := os.WriteFile(path, doc.GetBytes(), 0o644); err != nil {
		return "", fmt.Errorf("pdf: gravar %s: %w", path, err)
	}
	return path, nil
}

// ── Seções ────────────────────────────────────────────────────────────────────

func tituloDocumento(nota *entity.NotaFiscal) string {
	if nota.Modelo == entity.ModeloNFCe {
		return "DANFE NFC-e"
	}
	return "DANFE"
}

// headerRow: razão social + CNPJ (esq) e número/série + data (dir).
func headerRow(nota *entity.NotaFiscal) core.Row {
	numSerie := fmt.Sprintf("Nº %09d  Série %03d", nota.Numero, nota.Serie)
	data := nota.DataEmissao.Format("02/01/2006 15:04")

	return row.New(18).Add(
		col.New(7).Add(
			text.New(nota.Emitente.RazaoSocial, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("CNPJ: "+formatCNPJ(nota.Emitente.CNPJ), props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(tituloDocumento(nota), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(numSerie, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
			}),
			text.New("Emissão: "+data, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// chaveRow: chave de acesso em grupos de 4 dígitos.
func chaveRow(nota *entity.NotaFiscal) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New("CHAVE DE ACESSO", props.Text{
				Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1,
			}),
			text.New(formatChave(nota.ChaveAcesso), props.Text{
				Size: 9, Top: 5, Align: align.Center,
			}),
		),
	)
}

// emitenteRow: endereço e IE do emitente.
func emitenteRow(emp *entity.Empresa) core.Row {
	end := emp.Endereco
	return row.New(12).Add(
		col.New(12).Add(
			text.New("EMITENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s, %s - %s, %s/%s   |   IE: %s",
				end.Logradouro, end.Numero, end.Bairro, end.Municipio, end.UF,
				nonEmpty(emp.IE, "ISENTO"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// destinatarioRow: dados do destinatário; NFC-e sem identificação recebe a
// legenda de consumidor não identificado.
func destinatarioRow(nota *entity.NotaFiscal) core.Row {
	dest := nota.Destinatario
	if dest.CPFCNPJ == "" {
		return row.New(10).Add(
			col.New(12).Add(
				text.New("DESTINATÁRIO", props.Text{
					Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
				}),
				text.New("CONSUMIDOR NÃO IDENTIFICADO", props.Text{
					Size: 9, Top: 6, Color: colorGray,
				}),
			),
		)
	}

	doc := "CNPJ: " + formatCNPJ(dest.CPFCNPJ)
	if dest.PessoaFisica() {
		doc = "CPF: " + formatCPF(dest.CPFCNPJ)
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("DESTINATÁRIO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(dest.Nome, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(fmt.Sprintf("%s   |   %s/%s",
				doc, nonEmpty(dest.Endereco.Municipio, "—"), nonEmpty(dest.Endereco.UF, "—"),
			), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// tableHeaderRow: cabeçalho da tabela de itens.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Qtd.", 1, align.Center),
		h("Descrição do produto", 4, align.Left),
		h("NCM", 2, align.Center),
		h("V. Unit.", 2, align.Right),
		h("ICMS", 1, align.Center),
		h("V. Total", 2, align.Right),
	)
}

// tableItemRows: uma linha por item da nota.
func tableItemRows(itens []entity.ItemNotaFiscal) []core.Row {
	result := make([]core.Row, 0, len(itens))
	for _, it := range itens {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(
				it.Quantidade.StringFixed(0),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(4).Add(text.New(
				it.Descricao,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				it.NCM,
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				"R$ "+it.ValorUnitario.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				it.AliquotaICMS.StringFixed(0)+"%",
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				"R$ "+it.ValorTotal.StringFixed(2),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totaisRow: bloco de totais alinhado à direita.
func totaisRow(nota *entity.NotaFiscal) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2,
		})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1,
		})
	}

	return row.New(32).Add(
		col.New(3),
		col.New(3).Add(
			label("Produtos:"),
			label("ICMS:"),
			label("PIS + COFINS:"),
			grandLabel("TOTAL DA NOTA:"),
		),
		col.New(3).Add(
			value("R$ "+nota.ValorProdutos.StringFixed(2)),
			value("R$ "+nota.ValorICMS.StringFixed(2)),
			value("R$ "+nota.ValorPIS.Add(nota.ValorCOFINS).StringFixed(2)),
			grandValue("R$ "+nota.ValorTotal.StringFixed(2)),
		),
		col.New(3),
	)
}

// footerRows: protocolo de autorização + QR code (NFC-e).
func footerRows(nota *entity.NotaFiscal) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("INFORMAÇÕES DA AUTORIZAÇÃO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	if nota.Protocolo != "" {
		prot := "Protocolo de autorização: " + nota.Protocolo
		if nota.DataAutorizacao != nil {
			prot += "   |   " + nota.DataAutorizacao.Format("02/01/2006 15:04:05")
		}
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New(prot, props.Text{Size: 8, Top: 1, Color: colorGray}),
		)))
	}

	rows = append(rows, row.New(3))

	if nota.QRCodeURL != "" {
		rows = append(rows, row.New(50).Add(
			col.New(4).Add(code.NewQr(nota.QRCodeURL, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Consulte pela chave de acesso ou\npelo QR Code no portal da SEFAZ.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("DANFE NFC-e\nDocumento Auxiliar da NFC-e", props.Text{
					Style: fontstyle.Bold, Size: 10, Top: 22,
					Left: 3, Color: colorPrimary,
				}),
			),
		))
	} else {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New("Consulta de autenticidade no portal nacional da NF-e: www.nfe.fazenda.gov.br", props.Text{
				Size: 8, Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"O DANFE é uma representação simplificada da NF-e e não substitui o "+
				"arquivo XML. A validade jurídica do documento é do XML assinado "+
				"e autorizado pela SEFAZ.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatChave agrupa a chave de acesso de 4 em 4 dígitos.
// Ex: "3524...": "3524 0111 2223 ..."
func formatChave(chave string) string {
	if len(chave) != 44 {
		return chave
	}
	buf := make([]byte, 0, 44+10)
	for i := 0; i < 44; i += 4 {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, chave[i:i+4]...)
	}
	return string(buf)
}

// formatCNPJ aplica a máscara 00.000.000/0000-00.
func formatCNPJ(cnpj string) string {
	if len(cnpj) != 14 {
		return cnpj
	}
	return cnpj[0:2] + "." + cnpj[2:5] + "." + cnpj[5:8] + "/" + cnpj[8:12] + "-" + cnpj[12:14]
}

// formatCPF aplica a máscara 000.000.000-00.
func formatCPF(cpf string) string {
	if len(cpf) != 11 {
		return cpf
	}
	return cpf[0:3] + "." + cpf[3:6] + "." + cpf[6:9] + "-" + cpf[9:11]
}
