package sefaz

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notaParaXML() *entity.NotaFiscal {
	qtd := decimal.NewFromInt(2)
	unit := decimal.NewFromFloat(50)
	total := decimal.NewFromInt(100)

	return &entity.NotaFiscal{
		ID:               "nota-1",
		Modelo:           entity.ModeloNFe,
		Serie:            1,
		Numero:           42,
		NaturezaOperacao: "Venda de mercadoria",
		DataEmissao:      time.Date(2024, 1, 15, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600)),
		ChaveAcesso:      chaveTeste,
		Emitente: entity.Empresa{
			CNPJ:        "11222333000181",
			RazaoSocial: "Empresa Teste LTDA",
			IE:          "110042490114",
			Endereco: entity.Endereco{
				Logradouro:      "Rua das Flores",
				Numero:          "100",
				Bairro:          "Centro",
				CodigoMunicipio: "3550308",
				Municipio:       "Sao Paulo",
				UF:              "SP",
				CEP:             "01001-000",
			},
		},
		Destinatario: entity.Destinatario{
			CPFCNPJ: "52998224725",
			Nome:    "Cliente Teste",
			Endereco: entity.Endereco{
				Logradouro:      "Avenida Central",
				Numero:          "200",
				Bairro:          "Jardins",
				CodigoMunicipio: "3304557",
				Municipio:       "Rio de Janeiro",
				UF:              "RJ",
				CEP:             "20040-000",
			},
		},
		Itens: []entity.ItemNotaFiscal{{
			CodigoProduto:  "P001",
			Descricao:      "Café torrado 500g",
			NCM:            "09012100",
			CFOP:           "6102",
			Unidade:        "UN",
			Quantidade:     qtd,
			ValorUnitario:  unit,
			ValorTotal:     total,
			CSTICMS:        "00",
			BaseICMS:       total,
			AliquotaICMS:   decimal.NewFromInt(12),
			ValorICMS:      decimal.NewFromInt(12),
			CSTPIS:         "01",
			BasePIS:        total,
			AliquotaPIS:    decimal.NewFromFloat(0.65),
			ValorPIS:       decimal.NewFromFloat(0.65),
			CSTCOFINS:      "01",
			BaseCOFINS:     total,
			AliquotaCOFINS: decimal.NewFromInt(3),
			ValorCOFINS:    decimal.NewFromInt(3),
			CSTIPI:         "53",
		}},
		ValorProdutos: total,
		ValorICMS:     decimal.NewFromInt(12),
		ValorPIS:      decimal.NewFromFloat(0.65),
		ValorCOFINS:   decimal.NewFromInt(3),
		ValorTotal:    total,
	}
}

func configParaXML() *entity.ConfiguracaoFiscal {
	return &entity.ConfiguracaoFiscal{
		RegimeTributario: entity.RegimePresumido,
		UFEmissao:        "SP",
		Ambiente:         entity.AmbienteHomologacao,
		SerieNFe:         1,
	}
}

func TestBuild_EstruturaNFe(t *testing.T) {
	svc := NewXMLBuilderService()

	xml, err := svc.Build(&NotaBuildContext{Nota: notaParaXML(), Config: configParaXML()})
	require.NoError(t, err)
	out := string(xml)

	assert.True(t, strings.HasPrefix(out, `<NFe xmlns="`+NsNFe+`">`), "namespace único no elemento raiz")
	assert.Contains(t, out, `<infNFe versao="4.00" Id="NFe`+chaveTeste+`">`)
	assert.NotContains(t, out, "\n", "saída compacta, sem indentação")
}

func TestBuild_GrupoIde(t *testing.T) {
	svc := NewXMLBuilderService()

	xml, err := svc.Build(&NotaBuildContext{Nota: notaParaXML(), Config: configParaXML()})
	require.NoError(t, err)
	out := string(xml)

	assert.Contains(t, out, "<cUF>35</cUF>")
	assert.Contains(t, out, "<cNF>00000042</cNF>", "cNF vem da própria chave")
	assert.Contains(t, out, "<mod>55</mod>")
	assert.Contains(t, out, "<serie>1</serie>")
	assert.Contains(t, out, "<nNF>42</nNF>")
	assert.Contains(t, out, "<dhEmi>2024-01-15T10:00:00-03:00</dhEmi>")
	assert.Contains(t, out, "<idDest>2</idDest>", "SP para RJ é interestadual")
	assert.Contains(t, out, "<tpImp>1</tpImp>")
	assert.Contains(t, out, "<cDV>8</cDV>")
	assert.Contains(t, out, "<tpAmb>2</tpAmb>")

	// ordem do schema: cUF antes de cNF, dhEmi antes de tpNF
	assert.Less(t, strings.Index(out, "<cUF>"), strings.Index(out, "<cNF>"))
	assert.Less(t, strings.Index(out, "<dhEmi>"), strings.Index(out, "<tpNF>"))
}

func TestBuild_EmitenteEDestinatario(t *testing.T) {
	svc := NewXMLBuilderService()

	xml, err := svc.Build(&NotaBuildContext{Nota: notaParaXML(), Config: configParaXML()})
	require.NoError(t, err)
	out := string(xml)

	assert.Contains(t, out, "<CNPJ>11222333000181</CNPJ>")
	assert.Contains(t, out, "<CRT>3</CRT>", "presumido emite com CRT 3")
	assert.Contains(t, out, "<CPF>52998224725</CPF>", "documento de 11 dígitos vira CPF")
	assert.Contains(t, out, "<xNome>"+NomeDestHomologacao+"</xNome>", "em homologação o nome do destinatário é o texto fixo")
	assert.Contains(t, out, "<enderDest>")
	assert.Contains(t, out, "<indIEDest>9</indIEDest>")
}

func TestBuild_ItemEImpostos(t *testing.T) {
	svc := NewXMLBuilderService()

	xml, err := svc.Build(&NotaBuildContext{Nota: notaParaXML(), Config: configParaXML()})
	require.NoError(t, err)
	out := string(xml)

	assert.Contains(t, out, `<det nItem="1">`)
	assert.Contains(t, out, "<cEAN>SEM GTIN</cEAN>")
	assert.Contains(t, out, "<qCom>2.0000</qCom>")
	assert.Contains(t, out, "<vUnCom>50.0000000000</vUnCom>")
	assert.Contains(t, out, "<vProd>100.00</vProd>")
	assert.Contains(t, out, "<xProd>Cafe torrado 500g</xProd>", "acentos saem do texto")

	assert.Contains(t, out, "<ICMS00>")
	assert.Contains(t, out, "<pICMS>12.0000</pICMS>")
	assert.Contains(t, out, "<vICMS>12.00</vICMS>")
	assert.Contains(t, out, "<IPINT><CST>53</CST></IPINT>", "IPI não tributado no modelo 55")
	assert.Contains(t, out, "<PISAliq>")
	assert.Contains(t, out, "<COFINSAliq>")
	assert.Contains(t, out, "<vTotTrib>15.65</vTotTrib>")
}

func TestBuild_TotaisTranspPag(t *testing.T) {
	svc := NewXMLBuilderService()

	xml, err := svc.Build(&NotaBuildContext{Nota: notaParaXML(), Config: configParaXML()})
	require.NoError(t, err)
	out := string(xml)

	assert.Contains(t, out, "<ICMSTot>")
	assert.Contains(t, out, "<vNF>100.00</vNF>")
	assert.Contains(t, out, "<modFrete>9</modFrete>", "sem transporte por padrão")
	assert.Contains(t, out, "<indPag>0</indPag>")
	assert.Contains(t, out, "<tPag>01</tPag>")
	assert.Contains(t, out, "<vPag>100.00</vPag>")
	// vICMSDeson..vTotTrib: lista completa do ICMSTot
	for _, campo := range []string{"vICMSDeson", "vFCPUFDest", "vBCST", "vFCPSTRet", "vII", "vIPIDevol", "vOutro", "vTotTrib"} {
		assert.Contains(t, out, "<"+campo+">", campo)
	}
}

func TestBuild_NFCeOmiteDestSemDocumento(t *testing.T) {
	svc := NewXMLBuilderService()
	nota := notaParaXML()
	nota.Modelo = entity.ModeloNFCe
	nota.Destinatario = entity.Destinatario{}

	xml, err := svc.Build(&NotaBuildContext{Nota: nota, Config: configParaXML()})
	require.NoError(t, err)
	out := string(xml)

	assert.NotContains(t, out, "<dest>", "consumidor não identificado sai sem grupo dest")
	assert.Contains(t, out, "<mod>65</mod>")
	assert.Contains(t, out, "<tpImp>4</tpImp>", "DANFE NFC-e")
	assert.Contains(t, out, "<indFinal>1</indFinal>")
	assert.Contains(t, out, "<indPres>1</indPres>")
	assert.NotContains(t, out, "<IPI>", "NFC-e não destaca IPI")
	assert.NotContains(t, out, "<enderDest>")
}

func TestBuild_NFeExigeEnderecoDestinatario(t *testing.T) {
	svc := NewXMLBuilderService()
	nota := notaParaXML()
	nota.Destinatario.Endereco = entity.Endereco{}

	_, err := svc.Build(&NotaBuildContext{Nota: nota, Config: configParaXML()})
	assert.Error(t, err)
}

func TestBuild_SemChave(t *testing.T) {
	svc := NewXMLBuilderService()
	nota := notaParaXML()
	nota.ChaveAcesso = ""

	_, err := svc.Build(&NotaBuildContext{Nota: nota, Config: configParaXML()})
	assert.Error(t, err)
}

func TestBuild_Deterministico(t *testing.T) {
	svc := NewXMLBuilderService()

	a, err := svc.Build(&NotaBuildContext{Nota: notaParaXML(), Config: configParaXML()})
	require.NoError(t, err)
	b, err := svc.Build(&NotaBuildContext{Nota: notaParaXML(), Config: configParaXML()})
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b), "mesma nota gera os mesmos bytes")
}

func TestBuild_SimplesUsaCSOSN(t *testing.T) {
	svc := NewXMLBuilderService()
	nota := notaParaXML()
	nota.Itens[0].CSTICMS = "102"
	nota.Itens[0].CSTPIS = "99"
	nota.Itens[0].CSTCOFINS = "99"
	cfg := configParaXML()
	cfg.RegimeTributario = entity.RegimeSimples

	xml, err := svc.Build(&NotaBuildContext{Nota: nota, Config: cfg})
	require.NoError(t, err)
	out := string(xml)

	assert.Contains(t, out, "<CRT>1</CRT>")
	assert.Contains(t, out, "<ICMSSN102>")
	assert.Contains(t, out, "<CSOSN>102</CSOSN>")
	assert.Contains(t, out, "<PISOutr>")
	assert.Contains(t, out, "<COFINSOutr>")
	assert.NotContains(t, out, "<ICMS00>")
}

func TestTruncate_NaoCortaRuneNoMeio(t *testing.T) {
	texto := strings.Repeat("ç", 10)

	cortado := truncate(texto, 7)
	assert.True(t, utf8.ValidString(cortado), "corte deve preservar UTF-8 válido")
	assert.Equal(t, 7, len([]rune(cortado)))
	assert.Equal(t, strings.Repeat("ç", 7), cortado)

	assert.Equal(t, "abc", truncate("abc", 7), "texto dentro do limite fica intacto")
}
