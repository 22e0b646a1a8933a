package sefaz

import (
	"fmt"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
)

// Serviços dos webservices da NF-e 4.00.
const (
	ServicoAutorizacao       = "NfeAutorizacao"
	ServicoRetAutorizacao    = "NfeRetAutorizacao"
	ServicoConsultaProtocolo = "NfeConsultaProtocolo"
	ServicoStatusServico     = "NfeStatusServico"
	ServicoRecepcaoEvento    = "RecepcaoEvento"
	ServicoInutilizacao      = "NfeInutilizacao"

	// Serviços exclusivos da NFC-e (endpoints distintos, mesmo contrato)
	ServicoNFCeAutorizacao    = "NfceAutorizacao"
	ServicoNFCeRetAutorizacao = "NfceRetAutorizacao"
)

// autorizadorPorUF indica qual SEFAZ responde por cada UF. As UFs com
// webservice próprio apontam para si mesmas; as demais são atendidas pela
// SEFAZ Virtual do RS. Autorizadores sem tabela de endpoints cadastrada
// também caem na SVRS.
var autorizadorPorUF = map[string]string{
	"AM": "AM", "BA": "BA", "CE": "CE", "GO": "GO",
	"MG": "MG", "MS": "MS", "MT": "MT", "PE": "PE",
	"PR": "PR", "RS": "RS", "SP": "SP",
}

const autorizadorPadrao = "SVRS"

// urlsWebservice: autorizador → ambiente → serviço → endpoint.
var urlsWebservice = map[string]map[string]map[string]string{
	"SP": {
		entity.AmbienteProducao: {
			ServicoAutorizacao:        "https://nfe.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
			ServicoRetAutorizacao:     "https://nfe.fazenda.sp.gov.br/ws/nferetautorizacao4.asmx",
			ServicoConsultaProtocolo:  "https://nfe.fazenda.sp.gov.br/ws/nfeconsultaprotocolo4.asmx",
			ServicoStatusServico:      "https://nfe.fazenda.sp.gov.br/ws/nfestatusservico4.asmx",
			ServicoRecepcaoEvento:     "https://nfe.fazenda.sp.gov.br/ws/nferecepcaoevento4.asmx",
			ServicoInutilizacao:       "https://nfe.fazenda.sp.gov.br/ws/nfeinutilizacao4.asmx",
			ServicoNFCeAutorizacao:    "https://nfce.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
			ServicoNFCeRetAutorizacao: "https://nfce.fazenda.sp.gov.br/ws/nferetautorizacao4.asmx",
		},
		entity.AmbienteHomologacao: {
			ServicoAutorizacao:        "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
			ServicoRetAutorizacao:     "https://homologacao.nfe.fazenda.sp.gov.br/ws/nferetautorizacao4.asmx",
			ServicoConsultaProtocolo:  "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeconsultaprotocolo4.asmx",
			ServicoStatusServico:      "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfestatusservico4.asmx",
			ServicoRecepcaoEvento:     "https://homologacao.nfe.fazenda.sp.gov.br/ws/nferecepcaoevento4.asmx",
			ServicoInutilizacao:       "https://homologacao.nfe.fazenda.sp.gov.br/ws/nfeinutilizacao4.asmx",
			ServicoNFCeAutorizacao:    "https://homologacao.nfce.fazenda.sp.gov.br/ws/nfeautorizacao4.asmx",
			ServicoNFCeRetAutorizacao: "https://homologacao.nfce.fazenda.sp.gov.br/ws/nferetautorizacao4.asmx",
		},
	},
	"SVRS": {
		entity.AmbienteProducao: {
			ServicoAutorizacao:        "https://nfe.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
			ServicoRetAutorizacao:     "https://nfe.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
			ServicoConsultaProtocolo:  "https://nfe.svrs.rs.gov.br/ws/NfeConsulta/NfeConsulta4.asmx",
			ServicoStatusServico:      "https://nfe.svrs.rs.gov.br/ws/NfeStatusServico/NfeStatusServico4.asmx",
			ServicoRecepcaoEvento:     "https://nfe.svrs.rs.gov.br/ws/recepcaoevento/recepcaoevento4.asmx",
			ServicoInutilizacao:       "https://nfe.svrs.rs.gov.br/ws/nfeinutilizacao/nfeinutilizacao4.asmx",
			ServicoNFCeAutorizacao:    "https://nfce.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
			ServicoNFCeRetAutorizacao: "https://nfce.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
		},
		entity.AmbienteHomologacao: {
			ServicoAutorizacao:        "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
			ServicoRetAutorizacao:     "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
			ServicoConsultaProtocolo:  "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeConsulta/NfeConsulta4.asmx",
			ServicoStatusServico:      "https://nfe-homologacao.svrs.rs.gov.br/ws/NfeStatusServico/NfeStatusServico4.asmx",
			ServicoRecepcaoEvento:     "https://nfe-homologacao.svrs.rs.gov.br/ws/recepcaoevento/recepcaoevento4.asmx",
			ServicoInutilizacao:       "https://nfe-homologacao.svrs.rs.gov.br/ws/nfeinutilizacao/nfeinutilizacao4.asmx",
			ServicoNFCeAutorizacao:    "https://nfce-homologacao.svrs.rs.gov.br/ws/NfeAutorizacao/NFeAutorizacao4.asmx",
			ServicoNFCeRetAutorizacao: "https://nfce-homologacao.svrs.rs.gov.br/ws/NfeRetAutorizacao/NFeRetAutorizacao4.asmx",
		},
	},
}

// ResolverURL devolve o endpoint do webservice para a UF, ambiente, serviço e
// modelo do documento. Para NFC-e os serviços de autorização e de consulta de
// recibo trocam para os endpoints próprios do varejo.
func ResolverURL(uf, ambiente, servico, modelo string) (string, error) {
	if modelo == entity.ModeloNFCe {
		switch servico {
		case ServicoAutorizacao:
			servico = ServicoNFCeAutorizacao
		case ServicoRetAutorizacao:
			servico = ServicoNFCeRetAutorizacao
		}
	}

	autorizador, ok := autorizadorPorUF[uf]
	if !ok {
		autorizador = autorizadorPadrao
	}
	ambientes, ok := urlsWebservice[autorizador]
	if !ok {
		ambientes = urlsWebservice[autorizadorPadrao]
	}
	servicos, ok := ambientes[ambiente]
	if !ok {
		return "", fmt.Errorf("%w: ambiente %q desconhecido", domain.ErrConfiguracaoAusente, ambiente)
	}
	url, ok := servicos[servico]
	if !ok {
		return "", fmt.Errorf("%w: serviço %q sem endpoint para o autorizador %s", domain.ErrConfiguracaoAusente, servico, autorizador)
	}
	return url, nil
}
