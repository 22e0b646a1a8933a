package fiscal

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/nfe"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz/signer"
)

// EmissaoUseCase orquestra o ciclo completo de emissão:
//
//	Validação → Numeração → Chave de acesso → XML 4.00 → Assinatura →
//	QR Code (NFC-e) → Envio SOAP → Interpretação do cStat → Update DB
//
// A reserva de numeração e a gravação da chave acontecem na mesma transação:
// nunca se queima um número sem nota correspondente. Falha de transporte
// devolve a nota a Pendente com o motivo registrado (a SEFAZ pode ter
// recebido o lote, então a reemissão reusa a chave e trata duplicidade como
// sucesso); Processando só persiste se o processo cair no meio do envio, e
// aí a varredura de pendências consulta a situação pela chave.
type EmissaoUseCase struct {
	notaRepo    repository.NotaFiscalRepository
	configRepo  repository.ConfiguracaoFiscalRepository
	certRepo    repository.CertificadoRepository
	tx          TxRunner
	chaveCalc   *nfe.ChaveCalculatorService
	calculadora *nfe.CalculadoraImpostos
	xmlBuilder  *sefaz.XMLBuilderService
	qrcode      *sefaz.QRCodeService
	eventos     *sefaz.EventoBuilderService
	assinador   Assinador
	transmissor Transmissor
	danfe       GeradorDANFE // nil = sem PDF
	versaoProc  string
}

// NewEmissaoUseCase constrói o orquestrador com todas as dependências.
func NewEmissaoUseCase(
	notaRepo repository.NotaFiscalRepository,
	configRepo repository.ConfiguracaoFiscalRepository,
	certRepo repository.CertificadoRepository,
	tx TxRunner,
	chaveCalc *nfe.ChaveCalculatorService,
	calculadora *nfe.CalculadoraImpostos,
	xmlBuilder *sefaz.XMLBuilderService,
	qrcode *sefaz.QRCodeService,
	eventos *sefaz.EventoBuilderService,
	assinador Assinador,
	transmissor Transmissor,
	danfe GeradorDANFE,
	versaoProc string,
) *EmissaoUseCase {
	return &EmissaoUseCase{
		notaRepo:    notaRepo,
		configRepo:  configRepo,
		certRepo:    certRepo,
		tx:          tx,
		chaveCalc:   chaveCalc,
		calculadora: calculadora,
		xmlBuilder:  xmlBuilder,
		qrcode:      qrcode,
		eventos:     eventos,
		assinador:   assinador,
		transmissor: transmissor,
		danfe:       danfe,
		versaoProc:  versaoProc,
	}
}

// EmitirAsync dispara a emissão em goroutine independente, desacoplada do
// ciclo HTTP, com timeout próprio.
func (u *EmissaoUseCase) EmitirAsync(notaID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if _, err := u.Emitir(ctx, notaID); err != nil {
			log.Printf("[SEFAZ][%s] emissão assíncrona falhou: %v", notaID, err)
		}
	}()
}

// Emitir executa o ciclo de emissão de ponta a ponta e devolve o desfecho.
func (u *EmissaoUseCase) Emitir(ctx context.Context, notaID string) (*ResultadoEmissao, error) {
	agora := time.Now()

	// ═══════════════════════════════════════════════════════════════════════════
	// 0. Re-fetch dados frescos e pré-condições de estado
	// ═══════════════════════════════════════════════════════════════════════════
	nota, err := u.notaRepo.GetByID(ctx, notaID)
	if err != nil {
		return nil, fmt.Errorf("emissão: nota %s: %w", notaID, err)
	}
	if !nota.EmitivelDe() {
		return nil, fmt.Errorf("%w: nota %s em %q não pode ser emitida", domain.ErrConflitoEstado, notaID, nota.Status)
	}

	config, err := u.configRepo.GetByEmpresa(ctx, nota.EmpresaID)
	if err != nil {
		return nil, fmt.Errorf("emissão: configuração fiscal da empresa %s: %w", nota.EmpresaID, err)
	}
	cert, err := u.certRepo.GetVigente(ctx, nota.EmpresaID, agora)
	if err != nil {
		return nil, fmt.Errorf("emissão: %w", err)
	}

	// markError grava Rejeitada com o motivo e registra o problema no log.
	markError := func(etapa, motivo string) {
		nota.Status = entity.StatusRejeitada
		nota.MotivoRejeicao = motivo
		nota.UpdatedAt = time.Now()
		if uerr := u.notaRepo.Update(ctx, nota); uerr != nil {
			log.Printf("[SEFAZ][%s] não conseguiu persistir Rejeitada: %v", notaID, uerr)
		}
		log.Printf("[SEFAZ][%s] ERRO em %s: %s", notaID, etapa, motivo)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. Validar a nota antes de consumir numeração
	// ═══════════════════════════════════════════════════════════════════════════
	resultado := nfe.ValidarNota(nota, config, cert, agora)
	if !resultado.Valida() {
		// Validação não consome número nem muda o estado: o chamador corrige
		// e tenta de novo.
		return &ResultadoEmissao{
			NotaID:   nota.ID,
			Status:   nota.Status,
			Mensagem: strings.Join(resultado.Erros, "; "),
			Avisos:   resultado.Avisos,
		}, fmt.Errorf("%w: %s", domain.ErrValidacao, strings.Join(resultado.Erros, "; "))
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. Reservar numeração e gerar a chave na mesma transação
	// ═══════════════════════════════════════════════════════════════════════════
	if nota.ChaveAcesso == "" {
		err = u.tx.Run(ctx, func(
			notaRepo repository.NotaFiscalRepository,
			configRepo repository.ConfiguracaoFiscalRepository,
			_ repository.EventoFiscalRepository,
		) error {
			if nota.Numero == 0 {
				numero, nerr := configRepo.ProximoNumero(ctx, nota.EmpresaID, nota.Modelo)
				if nerr != nil {
					return nerr
				}
				nota.Numero = numero
			}
			if nota.Serie == 0 {
				nota.Serie = config.SerieParaModelo(nota.Modelo)
			}
			chave, cerr := u.chaveCalc.Calculate(&nfe.ChaveParams{
				UF:          config.UFEmissao,
				DataEmissao: nota.DataEmissao,
				CNPJ:        nota.Emitente.CNPJ,
				Modelo:      nota.Modelo,
				Serie:       nota.Serie,
				Numero:      nota.Numero,
			})
			if cerr != nil {
				return cerr
			}
			nota.ChaveAcesso = chave
			nota.Status = entity.StatusProcessando
			nota.UpdatedAt = time.Now()
			return notaRepo.Update(ctx, nota)
		})
		if err != nil {
			return nil, fmt.Errorf("emissão: reserva de numeração: %w", err)
		}
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. Recalcular impostos e totais (a nota vai para a SEFAZ consistente)
	// ═══════════════════════════════════════════════════════════════════════════
	ufDestino := nota.Destinatario.Endereco.UF
	if ufDestino == "" {
		ufDestino = config.UFEmissao
	}
	for i := range nota.Itens {
		it := &nota.Itens[i]
		valorLinha := it.Quantidade.Mul(it.ValorUnitario).Sub(it.ValorDesconto)
		impostos, ierr := u.calculadora.Calcular(config.RegimeTributario, config.UFEmissao, ufDestino, valorLinha)
		if ierr != nil {
			markError("impostos", ierr.Error())
			return u.resultadoDe(nota), fmt.Errorf("emissão: impostos do item %d: %w", i+1, ierr)
		}
		impostos.AplicarAoItem(it)
	}
	nfe.TotalizarNota(nota)

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. Montar o XML da NF-e 4.00
	// ═══════════════════════════════════════════════════════════════════════════
	xmlGerado, err := u.xmlBuilder.Build(&sefaz.NotaBuildContext{
		Nota:       nota,
		Config:     config,
		VersaoProc: u.versaoProc,
	})
	if err != nil {
		markError("xml", err.Error())
		return u.resultadoDe(nota), fmt.Errorf("emissão: montagem do XML: %w", err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 5. Assinatura digital (XML-DSig sobre infNFe)
	// ═══════════════════════════════════════════════════════════════════════════
	tlsCert, err := carregarCertificado(cert)
	if err != nil {
		markError("certificado", err.Error())
		return u.resultadoDe(nota), fmt.Errorf("emissão: %w", err)
	}
	xmlAssinado, err := u.assinador.Sign(xmlGerado, tlsCert)
	if err != nil {
		markError("assinatura", err.Error())
		return u.resultadoDe(nota), fmt.Errorf("emissão: %w", err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 6. NFC-e: QR Code e infNFeSupl (depois da assinatura; a Reference
	//    cobre só o infNFe, então o suplemento não a invalida)
	// ═══════════════════════════════════════════════════════════════════════════
	if nota.Modelo == entity.ModeloNFCe {
		qrURL := u.qrcode.BuildURL(nota.ChaveAcesso, config.UFEmissao, config.Ambiente)
		urlChave := u.qrcode.URLConsulta(config.UFEmissao, config.Ambiente)
		xmlAssinado, err = u.qrcode.AppendInfNFeSupl(xmlAssinado, qrURL, urlChave)
		if err != nil {
			markError("qrcode", err.Error())
			return u.resultadoDe(nota), fmt.Errorf("emissão: %w", err)
		}
		nota.QRCodeURL = qrURL
	}

	// Persistir os XMLs antes de transmitir: se o processo cair no meio do
	// envio, a varredura de pendências retoma daqui.
	nota.XMLGerado = string(xmlGerado)
	nota.XMLAssinado = string(xmlAssinado)
	nota.Status = entity.StatusProcessando
	nota.UpdatedAt = time.Now()
	if err := u.notaRepo.Update(ctx, nota); err != nil {
		return nil, fmt.Errorf("emissão: persistindo XML assinado: %w", err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 7. Transmitir o lote e interpretar o cStat
	// ═══════════════════════════════════════════════════════════════════════════
	prot, err := u.transmissor.EnviarLote(ctx, xmlAssinado, fmt.Sprintf("%d", nota.Numero), nota.Modelo, tlsCert)
	if err != nil {
		// Falha de transporte: desfecho desconhecido, a nota NUNCA vira
		// Rejeitada aqui. Volta para Pendente com o motivo registrado; a
		// chave permanece e a reemissão reusa o mesmo número (duplicidade
		// na SEFAZ é tratada como sucesso idempotente).
		nota.Status = entity.StatusPendente
		nota.MotivoRejeicao = fmt.Sprintf("transporte: %v", err)
		nota.UpdatedAt = time.Now()
		if uerr := u.notaRepo.Update(ctx, nota); uerr != nil {
			log.Printf("[SEFAZ][%s] não conseguiu persistir Pendente pós-transporte: %v", notaID, uerr)
		}
		log.Printf("[SEFAZ][%s] transporte falhou, nota volta a Pendente: %v", notaID, err)
		return u.resultadoDe(nota), fmt.Errorf("emissão: %w", err)
	}

	switch {
	case cStatAutorizada[prot.CStat]:
		// segue para a autorização abaixo

	case cStatDuplicidade[prot.CStat]:
		// A SEFAZ já conhece o documento: recuperar o protocolo pela chave e
		// tratar como sucesso idempotente.
		log.Printf("[SEFAZ][%s] duplicidade (cStat %s), consultando protocolo", notaID, prot.CStat)
		if consulta, cerr := u.transmissor.ConsultarProtocolo(ctx, nota.ChaveAcesso, nota.Modelo, tlsCert); cerr == nil && consulta.Protocolo != "" {
			prot = consulta
		}

	default:
		motivo := fmt.Sprintf("%s - %s", prot.CStat, prot.XMotivo)
		markError("sefaz", motivo)
		return u.resultadoDe(nota), fmt.Errorf("%w: %s", domain.ErrRejeitadoSefaz, motivo)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 8. Autorizada: procNFe, DANFE e persistência final
	// ═══════════════════════════════════════════════════════════════════════════
	nota.Status = entity.StatusAutorizada
	nota.Protocolo = prot.Protocolo
	nota.MotivoRejeicao = ""
	if dh, derr := time.Parse(time.RFC3339, prot.Recebimento); derr == nil {
		nota.DataAutorizacao = &dh
	} else {
		nota.DataAutorizacao = &agora
	}

	if procNFe, perr := u.eventos.MontarProcNFe(xmlAssinado, prot, config.Ambiente); perr == nil {
		nota.XMLProtocolado = string(procNFe)
	} else {
		log.Printf("[SEFAZ][%s] procNFe não gerado: %v", notaID, perr)
	}

	if u.danfe != nil {
		if ref, derr := u.danfe.Gerar(nota); derr == nil {
			nota.DANFERef = ref
		} else {
			// O PDF nunca derruba uma emissão autorizada.
			log.Printf("[SEFAZ][%s] DANFE não gerado: %v", notaID, derr)
		}
	}

	nota.UpdatedAt = time.Now()
	if err := u.notaRepo.Update(ctx, nota); err != nil {
		return nil, fmt.Errorf("emissão: persistindo autorização: %w", err)
	}

	log.Printf("[SEFAZ][%s] autorizada → protocolo %s (cStat %s)", notaID, prot.Protocolo, prot.CStat)

	res := u.resultadoDe(nota)
	res.CStat = prot.CStat
	res.Mensagem = prot.XMotivo
	res.Avisos = resultado.Avisos
	return res, nil
}

func (u *EmissaoUseCase) resultadoDe(nota *entity.NotaFiscal) *ResultadoEmissao {
	return &ResultadoEmissao{
		NotaID:    nota.ID,
		Status:    nota.Status,
		Chave:     nota.ChaveAcesso,
		Protocolo: nota.Protocolo,
		Mensagem:  nota.MotivoRejeicao,
	}
}

// ── helpers privados ──────────────────────────────────────────────────────────

// carregarCertificado abre o A1 do emitente. O material de chave vive só em
// memória: nada é copiado para disco nem logado.
func carregarCertificado(cert *entity.CertificadoDigital) (tls.Certificate, error) {
	if cert == nil || cert.CaminhoArquivo == "" {
		return tls.Certificate{}, fmt.Errorf("%w: caminho do certificado não configurado", domain.ErrCertificadoIndisponivel)
	}
	lower := strings.ToLower(cert.CaminhoArquivo)
	if strings.HasSuffix(lower, ".p12") || strings.HasSuffix(lower, ".pfx") {
		return signer.LoadFromP12(cert.CaminhoArquivo, cert.Senha)
	}
	return signer.LoadFromPEM(cert.CaminhoArquivo, strings.TrimSuffix(cert.CaminhoArquivo, ".pem")+".key")
}
