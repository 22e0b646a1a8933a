package sefaz

import (
	"testing"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dhEventoFixo = time.Date(2024, 1, 20, 14, 30, 0, 0, time.FixedZone("BRT", -3*3600))

func TestMontarEventoCancelamento(t *testing.T) {
	svc := NewEventoBuilderService()

	xml, err := svc.MontarEventoCancelamento(
		chaveTeste, "11.222.333/0001-81", "SP", entity.AmbienteHomologacao,
		"135240000000001", "Erro de digitacao nos valores da nota", dhEventoFixo,
	)
	require.NoError(t, err)

	out := string(xml)
	assert.Contains(t, out, `Id="ID110111`+chaveTeste+`01"`)
	assert.Contains(t, out, "<cOrgao>35</cOrgao>")
	assert.Contains(t, out, "<tpAmb>2</tpAmb>")
	assert.Contains(t, out, "<CNPJ>11222333000181</CNPJ>", "CNPJ entra sem pontuação")
	assert.Contains(t, out, "<tpEvento>110111</tpEvento>")
	assert.Contains(t, out, "<nSeqEvento>1</nSeqEvento>")
	assert.Contains(t, out, "<descEvento>Cancelamento</descEvento>")
	assert.Contains(t, out, "<nProt>135240000000001</nProt>")
	assert.Contains(t, out, "<xJust>Erro de digitacao nos valores da nota</xJust>")
	assert.Contains(t, out, "<dhEvento>2024-01-20T14:30:00-03:00</dhEvento>")
}

func TestMontarEventoCancelamento_SemProtocolo(t *testing.T) {
	svc := NewEventoBuilderService()

	_, err := svc.MontarEventoCancelamento(chaveTeste, "11222333000181", "SP", "2", "", "justificativa valida aqui", dhEventoFixo)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidacao)
}

func TestMontarEventoCartaCorrecao(t *testing.T) {
	svc := NewEventoBuilderService()

	xml, err := svc.MontarEventoCartaCorrecao(
		chaveTeste, "11222333000181", "SP", entity.AmbienteProducao,
		"Corrigir a razao social do transportador", 2, dhEventoFixo,
	)
	require.NoError(t, err)

	out := string(xml)
	assert.Contains(t, out, `Id="ID110110`+chaveTeste+`02"`, "sequência com dois dígitos")
	assert.Contains(t, out, "<nSeqEvento>2</nSeqEvento>")
	assert.Contains(t, out, "<descEvento>Carta de Correcao</descEvento>")
	assert.Contains(t, out, "<xCorrecao>Corrigir a razao social do transportador</xCorrecao>")
	assert.Contains(t, out, "<xCondUso>A Carta de Correcao e disciplinada")
}

func TestMontarEventoCartaCorrecao_SequenciaForaDaFaixa(t *testing.T) {
	svc := NewEventoBuilderService()

	_, err := svc.MontarEventoCartaCorrecao(chaveTeste, "11222333000181", "SP", "2", "correcao", 21, dhEventoFixo)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidacao)

	_, err = svc.MontarEventoCartaCorrecao(chaveTeste, "11222333000181", "SP", "2", "correcao", 0, dhEventoFixo)
	assert.Error(t, err)
}

func TestMontarEvento_ChaveInvalida(t *testing.T) {
	svc := NewEventoBuilderService()

	_, err := svc.MontarEventoCancelamento("123", "11222333000181", "SP", "2", "135240000000001", "justificativa", dhEventoFixo)
	assert.Error(t, err)
}

func TestMontarEnvEvento(t *testing.T) {
	svc := NewEventoBuilderService()

	env := svc.MontarEnvEvento([]byte(`<?xml version="1.0"?><evento><infEvento/></evento>`), "7")
	out := string(env)

	assert.Contains(t, out, `<envEvento xmlns="`+NsNFe+`" versao="1.00">`)
	assert.Contains(t, out, "<idLote>7</idLote>")
	assert.Contains(t, out, "<evento><infEvento/></evento>")
	assert.NotContains(t, out, "<?xml", "declaração do fragmento embutido deve sair")
}

func TestMontarInutilizacao(t *testing.T) {
	svc := NewEventoBuilderService()
	ano := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	xml, err := svc.MontarInutilizacao("SP", entity.AmbienteHomologacao, "11222333000181", entity.ModeloNFe, 1, 100, 110, "Quebra de sequencia na numeracao por falha do sistema emissor", ano)
	require.NoError(t, err)

	out := string(xml)
	assert.Contains(t, out, `Id="ID35241122233300018155001000000100000000110"`)
	assert.Contains(t, out, "<xServ>INUTILIZAR</xServ>")
	assert.Contains(t, out, "<ano>24</ano>")
	assert.Contains(t, out, "<mod>55</mod>")
	assert.Contains(t, out, "<serie>1</serie>")
	assert.Contains(t, out, "<nNFIni>100</nNFIni>")
	assert.Contains(t, out, "<nNFFin>110</nNFFin>")
}

func TestMontarInutilizacao_FaixaInvalida(t *testing.T) {
	svc := NewEventoBuilderService()
	ano := time.Now()

	_, err := svc.MontarInutilizacao("SP", "2", "11222333000181", entity.ModeloNFe, 1, 110, 100, "justificativa de teste valida", ano)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidacao)

	_, err = svc.MontarInutilizacao("SP", "2", "11222333000181", "60", 1, 1, 2, "justificativa de teste valida", ano)
	assert.Error(t, err, "modelo desconhecido")
}

func TestMontarProcNFe(t *testing.T) {
	svc := NewEventoBuilderService()

	prot := &ProtocoloSefaz{
		CStat:       "100",
		XMotivo:     "Autorizado o uso da NF-e",
		Protocolo:   "135240000000001",
		Chave:       chaveTeste,
		Digest:      "q2hhdmU=",
		Recebimento: "2024-01-15T10:30:00-03:00",
	}
	proc, err := svc.MontarProcNFe([]byte(`<NFe xmlns="`+NsNFe+`"><infNFe/></NFe>`), prot, entity.AmbienteHomologacao)
	require.NoError(t, err)

	out := string(proc)
	assert.Contains(t, out, `<nfeProc xmlns="`+NsNFe+`" versao="4.00">`)
	assert.Contains(t, out, "<infNFe/>")
	assert.Contains(t, out, "<nProt>135240000000001</nProt>")
	assert.Contains(t, out, "<cStat>100</cStat>")
	assert.Contains(t, out, "<digVal>q2hhdmU=</digVal>")
}

func TestMontarProcNFe_SemProtocolo(t *testing.T) {
	svc := NewEventoBuilderService()

	_, err := svc.MontarProcNFe([]byte(`<NFe/>`), &ProtocoloSefaz{CStat: "103"}, "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidacao)
}
