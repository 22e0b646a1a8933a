package fiscal

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz"
)

// cStat da consulta de situação que indicam documento cancelado.
var cStatSituacaoCancelada = map[string]bool{"101": true, "135": true, "151": true, "155": true}

// ConsultaUseCase consulta a situação do documento na SEFAZ e reconcilia o
// estado local com o que a autarquia responde.
type ConsultaUseCase struct {
	notaRepo    repository.NotaFiscalRepository
	eventoRepo  repository.EventoFiscalRepository
	certRepo    repository.CertificadoRepository
	transmissor Transmissor
}

// NewConsultaUseCase constrói o caso de uso de consulta.
func NewConsultaUseCase(
	notaRepo repository.NotaFiscalRepository,
	eventoRepo repository.EventoFiscalRepository,
	certRepo repository.CertificadoRepository,
	transmissor Transmissor,
) *ConsultaUseCase {
	return &ConsultaUseCase{notaRepo: notaRepo, eventoRepo: eventoRepo, certRepo: certRepo, transmissor: transmissor}
}

// ConsultarSituacao consulta o protocolo pela chave de acesso e atualiza o
// estado local quando a SEFAZ disser diferente. É o caminho de recuperação
// das notas presas em Processando por falha de transporte.
func (u *ConsultaUseCase) ConsultarSituacao(ctx context.Context, notaID string) (*ResultadoEmissao, error) {
	nota, err := u.notaRepo.GetByID(ctx, notaID)
	if err != nil {
		return nil, fmt.Errorf("consulta: nota %s: %w", notaID, err)
	}
	if nota.ChaveAcesso == "" {
		return nil, fmt.Errorf("%w: nota %s ainda não tem chave de acesso", domain.ErrValidacao, notaID)
	}

	cert, err := u.certRepo.GetVigente(ctx, nota.EmpresaID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("consulta: %w", err)
	}
	tlsCert, err := carregarCertificado(cert)
	if err != nil {
		return nil, fmt.Errorf("consulta: %w", err)
	}

	prot, err := u.transmissor.ConsultarProtocolo(ctx, nota.ChaveAcesso, nota.Modelo, tlsCert)
	if err != nil {
		return nil, fmt.Errorf("consulta: %w", err)
	}

	anterior := nota.Status
	switch {
	case cStatAutorizada[prot.CStat]:
		nota.Status = entity.StatusAutorizada
		if prot.Protocolo != "" {
			nota.Protocolo = prot.Protocolo
		}
		if nota.DataAutorizacao == nil {
			if dh, derr := time.Parse(time.RFC3339, prot.Recebimento); derr == nil {
				nota.DataAutorizacao = &dh
			}
		}
		nota.MotivoRejeicao = ""

	case cStatSituacaoCancelada[prot.CStat]:
		nota.Status = entity.StatusCancelada

	case prot.CStat == "217":
		// 217 = NF-e não consta na base: o lote nunca chegou. Volta para
		// Pendente para a reemissão ser segura.
		if nota.Status == entity.StatusProcessando {
			nota.Status = entity.StatusPendente
		}
	}

	if nota.Status != anterior {
		nota.UpdatedAt = time.Now()
		if err := u.notaRepo.Update(ctx, nota); err != nil {
			return nil, fmt.Errorf("consulta: reconciliação: %w", err)
		}
		log.Printf("[SEFAZ][%s] situação reconciliada: %s → %s (cStat %s)", notaID, anterior, nota.Status, prot.CStat)
	}

	return &ResultadoEmissao{
		NotaID:    nota.ID,
		Status:    nota.Status,
		CStat:     prot.CStat,
		Mensagem:  prot.XMotivo,
		Chave:     nota.ChaveAcesso,
		Protocolo: nota.Protocolo,
	}, nil
}

// StatusServico consulta a disponibilidade do autorizador da UF configurada.
func (u *ConsultaUseCase) StatusServico(ctx context.Context, modelo string) (*sefaz.RetornoStatus, error) {
	return u.transmissor.StatusServico(ctx, modelo)
}

// Eventos lista os eventos fiscais registrados para a nota.
func (u *ConsultaUseCase) Eventos(ctx context.Context, notaID string) ([]*entity.EventoFiscal, error) {
	return u.eventoRepo.ListByNota(ctx, notaID)
}
