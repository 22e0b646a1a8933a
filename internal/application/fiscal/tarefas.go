package fiscal

import (
	"context"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
	"github.com/fiscalbr/nfe-api/pkg/logger"
)

// CortePendencia é a idade mínima de uma nota Pendente/Processando para a
// varredura tentar o desfecho dela (evita colidir com emissões em curso).
const CortePendencia = 5 * time.Minute

// ServicoTarefas roda as varreduras de manutenção em segundo plano:
// reconciliação de notas presas em Processando e aviso de certificados
// perto do vencimento.
type ServicoTarefas struct {
	notaRepo    repository.NotaFiscalRepository
	certRepo    repository.CertificadoRepository
	empresaRepo repository.EmpresaRepository
	consulta    *ConsultaUseCase
	log         *logger.Logger
}

// NewServicoTarefas constrói o serviço de tarefas periódicas.
func NewServicoTarefas(
	notaRepo repository.NotaFiscalRepository,
	certRepo repository.CertificadoRepository,
	empresaRepo repository.EmpresaRepository,
	consulta *ConsultaUseCase,
	log *logger.Logger,
) *ServicoTarefas {
	return &ServicoTarefas{
		notaRepo:    notaRepo,
		certRepo:    certRepo,
		empresaRepo: empresaRepo,
		consulta:    consulta,
		log:         log,
	}
}

// Iniciar agenda as varreduras e retorna; elas param quando ctx é cancelado.
func (s *ServicoTarefas) Iniciar(ctx context.Context) {
	go s.loop(ctx, time.Minute, s.VarrerPendentes)
	go s.loop(ctx, 12*time.Hour, s.VarrerCertificados)
}

func (s *ServicoTarefas) loop(ctx context.Context, intervalo time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(intervalo)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// VarrerPendentes consulta na SEFAZ a situação das notas paradas em
// Pendente/Processando há mais tempo que o corte. A consulta reconcilia o
// estado local (Autorizada, Cancelada ou de volta a Pendente quando o lote
// nunca chegou).
func (s *ServicoTarefas) VarrerPendentes(ctx context.Context) {
	corte := time.Now().Add(-CortePendencia)
	notas, err := s.notaRepo.ListPendentesAntigas(ctx, corte)
	if err != nil {
		s.log.Error().Err(err).Msg("varredura de pendências: listagem falhou")
		return
	}
	for _, nota := range notas {
		if nota.ChaveAcesso == "" {
			// Sem chave não há o que consultar: a emissão nem reservou número.
			continue
		}
		if _, err := s.consulta.ConsultarSituacao(ctx, nota.ID); err != nil {
			s.log.Warn().Err(err).Str("nota_id", nota.ID).Msg("varredura de pendências: consulta falhou")
		}
	}
	if len(notas) > 0 {
		s.log.Info().Int("notas", len(notas)).Msg("varredura de pendências concluída")
	}
}

// VarrerCertificados avisa sobre certificados expirando ou expirados de
// todas as empresas cadastradas.
func (s *ServicoTarefas) VarrerCertificados(ctx context.Context) {
	agora := time.Now()
	empresas, err := s.empresaRepo.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("varredura de certificados: listagem de empresas falhou")
		return
	}
	for _, empresa := range empresas {
		certs, err := s.certRepo.ListByEmpresa(ctx, empresa.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("empresa_id", empresa.ID).Msg("varredura de certificados: listagem falhou")
			continue
		}
		for _, cert := range certs {
			switch cert.Status(agora) {
			case entity.CertificadoExpirando:
				s.log.Warn().
					Str("empresa_id", empresa.ID).
					Time("validade_fim", cert.ValidadeFim).
					Msg("certificado digital expira em breve")
			case entity.CertificadoExpirado:
				s.log.Error().
					Str("empresa_id", empresa.ID).
					Time("validade_fim", cert.ValidadeFim).
					Msg("certificado digital expirado: emissão bloqueada")
			}
		}
	}
}
