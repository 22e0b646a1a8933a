package nfe_test

import (
	"testing"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/nfe"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var agoraFixo = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func notaValida() *entity.NotaFiscal {
	return &entity.NotaFiscal{
		Modelo: entity.ModeloNFe,
		Emitente: entity.Empresa{
			RazaoSocial: "Comercial Horizonte LTDA",
			CNPJ:        "11222333000181",
			IE:          "110042490114",
		},
		Destinatario: entity.Destinatario{
			Nome:    "Maria da Silva",
			CPFCNPJ: "52998224725",
			Endereco: entity.Endereco{
				Logradouro: "Rua das Laranjeiras", Numero: "100", Bairro: "Centro",
				CodigoMunicipio: "3304557", Municipio: "Rio de Janeiro", UF: "RJ", CEP: "22240005",
			},
		},
		Itens: []entity.ItemNotaFiscal{
			{
				Descricao:     "Camiseta algodão",
				NCM:           "61091000",
				CFOP:          "6102",
				Quantidade:    decimal.RequireFromString("2"),
				ValorUnitario: decimal.RequireFromString("50.00"),
				ValorTotal:    decimal.RequireFromString("100.00"),
			},
		},
		ValorTotal: decimal.RequireFromString("100.00"),
	}
}

func configValida() *entity.ConfiguracaoFiscal {
	return &entity.ConfiguracaoFiscal{
		RegimeTributario: entity.RegimeReal,
		UFEmissao:        "SP",
		Ambiente:         entity.AmbienteHomologacao,
		SerieNFe:         1,
		ProximoNumeroNFe: 42,
	}
}

func certValido() *entity.CertificadoDigital {
	return &entity.CertificadoDigital{
		ValidadeInicio: agoraFixo.AddDate(-1, 0, 0),
		ValidadeFim:    agoraFixo.AddDate(0, 6, 0),
	}
}

func TestValidarNota_NotaCorreta(t *testing.T) {
	r := nfe.ValidarNota(notaValida(), configValida(), certValido(), agoraFixo)
	assert.True(t, r.Valida(), "erros: %v", r.Erros)
	assert.Empty(t, r.Avisos)
}

func TestValidarNota_SemConfiguracao(t *testing.T) {
	r := nfe.ValidarNota(notaValida(), nil, certValido(), agoraFixo)
	assert.False(t, r.Valida())
}

func TestValidarNota_CNPJEmitenteInvalido(t *testing.T) {
	nota := notaValida()
	nota.Emitente.CNPJ = "11222333000100"
	r := nfe.ValidarNota(nota, configValida(), certValido(), agoraFixo)
	assert.False(t, r.Valida())
}

func TestValidarNota_SemItens(t *testing.T) {
	nota := notaValida()
	nota.Itens = nil
	r := nfe.ValidarNota(nota, configValida(), certValido(), agoraFixo)
	assert.False(t, r.Valida())
}

func TestValidarNota_LimiteItens(t *testing.T) {
	nota := notaValida()
	item := nota.Itens[0]
	nota.Itens = make([]entity.ItemNotaFiscal, 991)
	for i := range nota.Itens {
		nota.Itens[i] = item
	}
	r := nfe.ValidarNota(nota, configValida(), certValido(), agoraFixo)
	assert.False(t, r.Valida(), "991 itens excede o limite de 990")
}

// Divergência de total vira aviso, não erro: dados legados são tolerados.
func TestValidarNota_TotalDivergenteVirarAviso(t *testing.T) {
	nota := notaValida()
	nota.Itens[0].ValorTotal = decimal.RequireFromString("100.50")
	nota.ValorTotal = decimal.RequireFromString("100.50")

	r := nfe.ValidarNota(nota, configValida(), certValido(), agoraFixo)
	assert.True(t, r.Valida(), "divergência de total não bloqueia")
	assert.NotEmpty(t, r.Avisos)
}

func TestValidarNota_ToleranciaCentavo(t *testing.T) {
	nota := notaValida()
	nota.ValorTotal = decimal.RequireFromString("100.01")
	r := nfe.ValidarNota(nota, configValida(), certValido(), agoraFixo)
	assert.Empty(t, r.Avisos, "diferença de um centavo está dentro da tolerância")
}

func TestValidarNota_CertificadoExpirado(t *testing.T) {
	cert := certValido()
	cert.ValidadeFim = agoraFixo.AddDate(0, 0, -1)
	r := nfe.ValidarNota(notaValida(), configValida(), cert, agoraFixo)
	assert.False(t, r.Valida(), "certificado expirado bloqueia a emissão")
}

func TestValidarNota_CertificadoExpirandoVirarAviso(t *testing.T) {
	cert := certValido()
	cert.ValidadeFim = agoraFixo.AddDate(0, 0, 10)
	r := nfe.ValidarNota(notaValida(), configValida(), cert, agoraFixo)
	assert.True(t, r.Valida())
	assert.NotEmpty(t, r.Avisos)
}

func TestValidarNota_NFCeSemDestinatarioIdentificado(t *testing.T) {
	nota := notaValida()
	nota.Modelo = entity.ModeloNFCe
	nota.Destinatario = entity.Destinatario{}
	r := nfe.ValidarNota(nota, configValida(), certValido(), agoraFixo)
	assert.True(t, r.Valida(), "NFC-e admite consumidor não identificado: %v", r.Erros)
}

func TestValidarNota_NFeEnderecoIncompleto(t *testing.T) {
	nota := notaValida()
	nota.Destinatario.Endereco.CEP = ""
	r := nfe.ValidarNota(nota, configValida(), certValido(), agoraFixo)
	assert.False(t, r.Valida())
}

func TestValidarJustificativa(t *testing.T) {
	require.ErrorIs(t, nfe.ValidarJustificativa("muito curta"), domain.ErrValidacao)
	require.NoError(t, nfe.ValidarJustificativa("justificativa com tamanho suficiente"))

	longa := make([]rune, 1001)
	for i := range longa {
		longa[i] = 'a'
	}
	require.ErrorIs(t, nfe.ValidarJustificativa(string(longa)), domain.ErrValidacao)
}
