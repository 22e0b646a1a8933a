// Cliente SOAP 1.2 dos webservices da SEFAZ. Toda chamada usa mTLS com o
// certificado A1 do emitente carregado em memória; nenhum material de chave
// toca o disco ou os logs.

package sefaz

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/pkg/fiscal"
	"github.com/rs/zerolog"
)

const (
	nsSOAP12         = "http://www.w3.org/2003/05/soap-envelope"
	contentTypeSOAP  = "application/soap+xml; charset=utf-8"
	prefixoWSDL      = "http://www.portalfiscal.inf.br/nfe/wsdl/"
	timeoutPadrao    = 30 * time.Second
	esperaReciboMin  = 1 * time.Second
	esperaReciboMax  = 15 * time.Second
	versaoInutilizar = "4.00"
)

// wsdlPorServico: serviço lógico → nome WSDL e operação, usados no namespace
// do nfeDadosMsg e no parâmetro action do Content-Type.
var wsdlPorServico = map[string]struct{ nome, op string }{
	ServicoAutorizacao:        {"NFeAutorizacao4", "nfeAutorizacaoLote"},
	ServicoRetAutorizacao:     {"NFeRetAutorizacao4", "nfeRetAutorizacaoLote"},
	ServicoConsultaProtocolo:  {"NFeConsultaProtocolo4", "nfeConsultaNF"},
	ServicoStatusServico:      {"NFeStatusServico4", "nfeStatusServicoNF"},
	ServicoRecepcaoEvento:     {"NFeRecepcaoEvento4", "nfeRecepcaoEvento"},
	ServicoInutilizacao:       {"NFeInutilizacao4", "nfeInutilizacaoNF"},
	ServicoNFCeAutorizacao:    {"NFeAutorizacao4", "nfeAutorizacaoLote"},
	ServicoNFCeRetAutorizacao: {"NFeRetAutorizacao4", "nfeRetAutorizacaoLote"},
}

// ProtocoloSefaz resume a resposta de autorização de um documento.
type ProtocoloSefaz struct {
	CStat       string
	XMotivo     string
	Protocolo   string
	Chave       string
	Digest      string
	Recebimento string
	Recibo      string
}

// RetornoEvento resume a resposta de registro de um evento fiscal.
type RetornoEvento struct {
	CStat        string
	XMotivo      string
	Protocolo    string
	DataRegistro string
}

// RetornoInutilizacao resume a resposta de inutilização de faixa.
type RetornoInutilizacao struct {
	CStat     string
	XMotivo   string
	Protocolo string
}

// RetornoStatus resume a resposta de status do serviço.
type RetornoStatus struct {
	CStat      string
	XMotivo    string
	TempoMedio string
	Observacao string
}

// SOAPClient envia envelopes SOAP 1.2 para um endpoint da SEFAZ. A
// identidade mTLS é por chamada: cada emitente conversa com a SEFAZ usando
// o próprio certificado A1, e os http.Client montados são reaproveitados
// por impressão digital do certificado.
type SOAPClient struct {
	padrao  tls.Certificate // identidade quando a chamada não traz certificado
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	clients map[string]*http.Client
}

// NewSOAPClient monta o cliente SOAP. O certificado recebido é a identidade
// padrão, usada só nas chamadas sem emitente (status do serviço).
func NewSOAPClient(cert tls.Certificate, timeout time.Duration, logger zerolog.Logger) *SOAPClient {
	if timeout <= 0 {
		timeout = timeoutPadrao
	}
	return &SOAPClient{
		padrao:  cert,
		timeout: timeout,
		logger:  logger,
		clients: make(map[string]*http.Client),
	}
}

// httpClientFor devolve (criando sob demanda) o http.Client com a identidade
// mTLS do certificado dado.
func (c *SOAPClient) httpClientFor(cert tls.Certificate) *http.Client {
	if len(cert.Certificate) == 0 {
		cert = c.padrao
	}
	chave := ""
	if len(cert.Certificate) > 0 {
		sum := sha256.Sum256(cert.Certificate[0])
		chave = string(sum[:])
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[chave]; ok {
		return client
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		},
	}
	client := &http.Client{Transport: transport, Timeout: c.timeout}
	c.clients[chave] = client
	return client
}

// Call envelopa o payload no Body SOAP 1.2, envia com a identidade mTLS do
// certificado dado e devolve o conteúdo do nfeResultMsg da resposta.
func (c *SOAPClient) Call(ctx context.Context, url, servico string, payload []byte, cert tls.Certificate) ([]byte, error) {
	wsdl, ok := wsdlPorServico[servico]
	if !ok {
		return nil, fmt.Errorf("%w: serviço SOAP %q desconhecido", domain.ErrConfiguracaoAusente, servico)
	}
	ns := prefixoWSDL + wsdl.nome

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	sb.WriteString(`<soap12:Envelope xmlns:soap12="` + nsSOAP12 + `">`)
	sb.WriteString(`<soap12:Body>`)
	sb.WriteString(`<nfeDadosMsg xmlns="` + ns + `">`)
	sb.Write(payload)
	sb.WriteString(`</nfeDadosMsg>`)
	sb.WriteString(`</soap12:Body>`)
	sb.WriteString(`</soap12:Envelope>`)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("%w: montar requisição: %v", domain.ErrTransporte, err)
	}
	req.Header.Set("Content-Type", fmt.Sprintf(`%s; action="%s/%s"`, contentTypeSOAP, ns, wsdl.op))

	inicio := time.Now()
	resp, err := c.httpClientFor(cert).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransporte, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: ler resposta: %v", domain.ErrTransporte, err)
	}
	c.logger.Debug().
		Str("servico", servico).
		Int("status", resp.StatusCode).
		Dur("duracao", time.Since(inicio)).
		Msg("Chamada SOAP concluída")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: SEFAZ respondeu HTTP %d", domain.ErrTransporte, resp.StatusCode)
	}
	return extractResultMsg(body)
}

// extractResultMsg abre o envelope de resposta e devolve o XML interno do
// nfeResultMsg (o retorno do serviço).
func extractResultMsg(body []byte) ([]byte, error) {
	var envelope struct {
		Body struct {
			Inner []byte `xml:",innerxml"`
		} `xml:"Body"`
	}
	if err := xml.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: envelope SOAP inválido: %v", domain.ErrTransporte, err)
	}
	var resultMsg struct {
		Inner []byte `xml:",innerxml"`
	}
	if err := xml.Unmarshal(envelope.Body.Inner, &resultMsg); err != nil {
		return nil, fmt.Errorf("%w: nfeResultMsg inválido: %v", domain.ErrTransporte, err)
	}
	return bytes.TrimSpace(resultMsg.Inner), nil
}

// ── estruturas de resposta ────────────────────────────────────────────────────

type infProtXML struct {
	TpAmb    string `xml:"tpAmb"`
	ChNFe    string `xml:"chNFe"`
	DhRecbto string `xml:"dhRecbto"`
	NProt    string `xml:"nProt"`
	DigVal   string `xml:"digVal"`
	CStat    string `xml:"cStat"`
	XMotivo  string `xml:"xMotivo"`
}

type protNFeXML struct {
	InfProt infProtXML `xml:"infProt"`
}

type retEnviNFeXML struct {
	CStat   string `xml:"cStat"`
	XMotivo string `xml:"xMotivo"`
	InfRec  *struct {
		NRec string `xml:"nRec"`
		TMed int    `xml:"tMed"`
	} `xml:"infRec"`
	Prot *protNFeXML `xml:"protNFe"`
}

type retConsReciXML struct {
	CStat   string       `xml:"cStat"`
	XMotivo string       `xml:"xMotivo"`
	NRec    string       `xml:"nRec"`
	Prots   []protNFeXML `xml:"protNFe"`
}

type retConsSitXML struct {
	CStat   string      `xml:"cStat"`
	XMotivo string      `xml:"xMotivo"`
	ChNFe   string      `xml:"chNFe"`
	Prot    *protNFeXML `xml:"protNFe"`
}

type retEnvEventoXML struct {
	CStat     string `xml:"cStat"`
	XMotivo   string `xml:"xMotivo"`
	RetEvento []struct {
		InfEvento struct {
			CStat       string `xml:"cStat"`
			XMotivo     string `xml:"xMotivo"`
			NProt       string `xml:"nProt"`
			DhRegEvento string `xml:"dhRegEvento"`
		} `xml:"infEvento"`
	} `xml:"retEvento"`
}

type retInutXML struct {
	InfInut struct {
		CStat   string `xml:"cStat"`
		XMotivo string `xml:"xMotivo"`
		NProt   string `xml:"nProt"`
	} `xml:"infInut"`
}

type retStatusXML struct {
	CStat   string `xml:"cStat"`
	XMotivo string `xml:"xMotivo"`
	TMed    string `xml:"tMed"`
	XObs    string `xml:"xObs"`
}

// ── transmissor ───────────────────────────────────────────────────────────────

// TransmissorSEFAZ orquestra as chamadas aos serviços da SEFAZ para uma UF e
// ambiente fixos.
type TransmissorSEFAZ struct {
	client   *SOAPClient
	uf       string
	ambiente string
	logger   zerolog.Logger

	// substituível em teste para apontar a um servidor local
	resolverURL func(uf, ambiente, servico, modelo string) (string, error)
}

// NewTransmissorSEFAZ cria o transmissor para a UF/ambiente do emitente.
func NewTransmissorSEFAZ(client *SOAPClient, uf, ambiente string, logger zerolog.Logger) *TransmissorSEFAZ {
	return &TransmissorSEFAZ{
		client:      client,
		uf:          uf,
		ambiente:    ambiente,
		logger:      logger,
		resolverURL: ResolverURL,
	}
}

// EnviarLote envia o documento assinado em lote síncrono (indSinc=1). Quando
// a SEFAZ devolve 103 (lote recebido) com recibo, aguarda o tempo médio
// informado e consulta o recibo uma vez.
func (t *TransmissorSEFAZ) EnviarLote(ctx context.Context, xmlAssinado []byte, idLote, modelo string, cert tls.Certificate) (*ProtocoloSefaz, error) {
	url, err := t.resolverURL(t.uf, t.ambiente, ServicoAutorizacao, modelo)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`<enviNFe xmlns="` + NsNFe + `" versao="` + VersaoLeiaute + `">`)
	sb.WriteString(`<idLote>` + idLote + `</idLote>`)
	sb.WriteString(`<indSinc>1</indSinc>`)
	sb.Write(xmlAssinado)
	sb.WriteString(`</enviNFe>`)

	result, err := t.client.Call(ctx, url, ServicoAutorizacao, []byte(sb.String()), cert)
	if err != nil {
		return nil, err
	}
	var ret retEnviNFeXML
	if err := xml.Unmarshal(result, &ret); err != nil {
		return nil, fmt.Errorf("%w: retEnviNFe inválido: %v", domain.ErrTransporte, err)
	}

	t.logger.Info().
		Str("cstat", ret.CStat).
		Str("motivo", ret.XMotivo).
		Msg("Lote recebido pela SEFAZ")

	if ret.Prot != nil {
		return protocoloDe(ret.Prot.InfProt, ""), nil
	}
	if ret.CStat == "103" && ret.InfRec != nil {
		espera := time.Duration(ret.InfRec.TMed) * time.Second
		if espera < esperaReciboMin {
			espera = esperaReciboMin
		}
		if espera > esperaReciboMax {
			espera = esperaReciboMax
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrTransporte, ctx.Err())
		case <-time.After(espera):
		}
		return t.ConsultarRecibo(ctx, ret.InfRec.NRec, modelo, cert)
	}
	return &ProtocoloSefaz{CStat: ret.CStat, XMotivo: ret.XMotivo}, nil
}

// ConsultarRecibo consulta o resultado do processamento de um lote.
func (t *TransmissorSEFAZ) ConsultarRecibo(ctx context.Context, nRec, modelo string, cert tls.Certificate) (*ProtocoloSefaz, error) {
	url, err := t.resolverURL(t.uf, t.ambiente, ServicoRetAutorizacao, modelo)
	if err != nil {
		return nil, err
	}
	payload := `<consReciNFe xmlns="` + NsNFe + `" versao="` + VersaoLeiaute + `">` +
		`<tpAmb>` + t.ambiente + `</tpAmb>` +
		`<nRec>` + nRec + `</nRec>` +
		`</consReciNFe>`

	result, err := t.client.Call(ctx, url, ServicoRetAutorizacao, []byte(payload), cert)
	if err != nil {
		return nil, err
	}
	var ret retConsReciXML
	if err := xml.Unmarshal(result, &ret); err != nil {
		return nil, fmt.Errorf("%w: retConsReciNFe inválido: %v", domain.ErrTransporte, err)
	}
	if len(ret.Prots) > 0 {
		return protocoloDe(ret.Prots[0].InfProt, nRec), nil
	}
	return &ProtocoloSefaz{CStat: ret.CStat, XMotivo: ret.XMotivo, Recibo: nRec}, nil
}

// ConsultarProtocolo consulta a situação atual de um documento pela chave.
func (t *TransmissorSEFAZ) ConsultarProtocolo(ctx context.Context, chave, modelo string, cert tls.Certificate) (*ProtocoloSefaz, error) {
	url, err := t.resolverURL(t.uf, t.ambiente, ServicoConsultaProtocolo, modelo)
	if err != nil {
		return nil, err
	}
	payload := `<consSitNFe xmlns="` + NsNFe + `" versao="` + VersaoLeiaute + `">` +
		`<tpAmb>` + t.ambiente + `</tpAmb>` +
		`<xServ>CONSULTAR</xServ>` +
		`<chNFe>` + chave + `</chNFe>` +
		`</consSitNFe>`

	result, err := t.client.Call(ctx, url, ServicoConsultaProtocolo, []byte(payload), cert)
	if err != nil {
		return nil, err
	}
	var ret retConsSitXML
	if err := xml.Unmarshal(result, &ret); err != nil {
		return nil, fmt.Errorf("%w: retConsSitNFe inválido: %v", domain.ErrTransporte, err)
	}
	if ret.Prot != nil {
		return protocoloDe(ret.Prot.InfProt, ""), nil
	}
	return &ProtocoloSefaz{CStat: ret.CStat, XMotivo: ret.XMotivo, Chave: ret.ChNFe}, nil
}

// EnviarEvento envia um envelope envEvento já assinado (cancelamento ou carta
// de correção) e devolve o retorno do primeiro evento do lote.
func (t *TransmissorSEFAZ) EnviarEvento(ctx context.Context, envEventoAssinado []byte, modelo string, cert tls.Certificate) (*RetornoEvento, error) {
	url, err := t.resolverURL(t.uf, t.ambiente, ServicoRecepcaoEvento, modelo)
	if err != nil {
		return nil, err
	}
	result, err := t.client.Call(ctx, url, ServicoRecepcaoEvento, envEventoAssinado, cert)
	if err != nil {
		return nil, err
	}
	var ret retEnvEventoXML
	if err := xml.Unmarshal(result, &ret); err != nil {
		return nil, fmt.Errorf("%w: retEnvEvento inválido: %v", domain.ErrTransporte, err)
	}
	if len(ret.RetEvento) == 0 {
		return &RetornoEvento{CStat: ret.CStat, XMotivo: ret.XMotivo}, nil
	}
	inf := ret.RetEvento[0].InfEvento
	return &RetornoEvento{
		CStat:        inf.CStat,
		XMotivo:      inf.XMotivo,
		Protocolo:    inf.NProt,
		DataRegistro: inf.DhRegEvento,
	}, nil
}

// Inutilizar envia o pedido de inutilização de faixa já assinado.
func (t *TransmissorSEFAZ) Inutilizar(ctx context.Context, inutAssinado []byte, modelo string, cert tls.Certificate) (*RetornoInutilizacao, error) {
	url, err := t.resolverURL(t.uf, t.ambiente, ServicoInutilizacao, modelo)
	if err != nil {
		return nil, err
	}
	result, err := t.client.Call(ctx, url, ServicoInutilizacao, inutAssinado, cert)
	if err != nil {
		return nil, err
	}
	var ret retInutXML
	if err := xml.Unmarshal(result, &ret); err != nil {
		return nil, fmt.Errorf("%w: retInutNFe inválido: %v", domain.ErrTransporte, err)
	}
	return &RetornoInutilizacao{
		CStat:     ret.InfInut.CStat,
		XMotivo:   ret.InfInut.XMotivo,
		Protocolo: ret.InfInut.NProt,
	}, nil
}

// StatusServico consulta a disponibilidade do webservice da UF. Não há
// emitente envolvido, então a chamada sai com a identidade padrão do cliente.
func (t *TransmissorSEFAZ) StatusServico(ctx context.Context, modelo string) (*RetornoStatus, error) {
	url, err := t.resolverURL(t.uf, t.ambiente, ServicoStatusServico, modelo)
	if err != nil {
		return nil, err
	}
	cuf, ok := fiscal.UFCodes[t.uf]
	if !ok {
		return nil, fmt.Errorf("%w: UF %q desconhecida", domain.ErrConfiguracaoAusente, t.uf)
	}
	payload := `<consStatServ xmlns="` + NsNFe + `" versao="` + VersaoLeiaute + `">` +
		`<tpAmb>` + t.ambiente + `</tpAmb>` +
		`<cUF>` + cuf + `</cUF>` +
		`<xServ>STATUS</xServ>` +
		`</consStatServ>`

	result, err := t.client.Call(ctx, url, ServicoStatusServico, []byte(payload), tls.Certificate{})
	if err != nil {
		return nil, err
	}
	var ret retStatusXML
	if err := xml.Unmarshal(result, &ret); err != nil {
		return nil, fmt.Errorf("%w: retConsStatServ inválido: %v", domain.ErrTransporte, err)
	}
	return &RetornoStatus{
		CStat:      ret.CStat,
		XMotivo:    ret.XMotivo,
		TempoMedio: ret.TMed,
		Observacao: ret.XObs,
	}, nil
}

func protocoloDe(inf infProtXML, recibo string) *ProtocoloSefaz {
	return &ProtocoloSefaz{
		CStat:       inf.CStat,
		XMotivo:     inf.XMotivo,
		Protocolo:   inf.NProt,
		Chave:       inf.ChNFe,
		Digest:      inf.DigVal,
		Recebimento: inf.DhRecbto,
		Recibo:      recibo,
	}
}
