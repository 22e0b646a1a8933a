package fiscal

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/nfe"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz"
)

// EventosUseCase cobre os eventos pós-emissão: cancelamento, carta de
// correção e inutilização de faixa. Todas as pré-condições de estado são
// verificadas ANTES de assinar ou tocar a rede: um pedido inválido nunca
// chega à SEFAZ.
type EventosUseCase struct {
	notaRepo    repository.NotaFiscalRepository
	eventoRepo  repository.EventoFiscalRepository
	configRepo  repository.ConfiguracaoFiscalRepository
	certRepo    repository.CertificadoRepository
	empresaRepo repository.EmpresaRepository
	tx          TxRunner
	eventos     *sefaz.EventoBuilderService
	assinador   Assinador
	transmissor Transmissor
}

// NewEventosUseCase constrói o caso de uso de eventos fiscais.
func NewEventosUseCase(
	notaRepo repository.NotaFiscalRepository,
	eventoRepo repository.EventoFiscalRepository,
	configRepo repository.ConfiguracaoFiscalRepository,
	certRepo repository.CertificadoRepository,
	empresaRepo repository.EmpresaRepository,
	tx TxRunner,
	eventos *sefaz.EventoBuilderService,
	assinador Assinador,
	transmissor Transmissor,
) *EventosUseCase {
	return &EventosUseCase{
		notaRepo:    notaRepo,
		eventoRepo:  eventoRepo,
		configRepo:  configRepo,
		certRepo:    certRepo,
		empresaRepo: empresaRepo,
		tx:          tx,
		eventos:     eventos,
		assinador:   assinador,
		transmissor: transmissor,
	}
}

// Cancelar registra o evento 110111 para uma nota autorizada dentro da
// janela legal de 24 horas.
func (u *EventosUseCase) Cancelar(ctx context.Context, notaID, justificativa string) (*ResultadoEmissao, error) {
	agora := time.Now()

	nota, err := u.notaRepo.GetByID(ctx, notaID)
	if err != nil {
		return nil, fmt.Errorf("cancelamento: nota %s: %w", notaID, err)
	}
	if nota.Status != entity.StatusAutorizada {
		return nil, fmt.Errorf("%w: só nota Autorizada pode ser cancelada (atual: %q)", domain.ErrConflitoEstado, nota.Status)
	}
	if err := nfe.ValidarJustificativa(justificativa); err != nil {
		return nil, err
	}
	if !nota.DentroJanelaCancelamento(agora) {
		return nil, fmt.Errorf("%w: janela de cancelamento de 24h expirada", domain.ErrConflitoEstado)
	}

	config, cert, err := u.contexto(ctx, nota.EmpresaID, agora)
	if err != nil {
		return nil, fmt.Errorf("cancelamento: %w", err)
	}

	evento, err := u.eventos.MontarEventoCancelamento(
		nota.ChaveAcesso, nota.Emitente.CNPJ, config.UFEmissao, config.Ambiente,
		nota.Protocolo, justificativa, agora,
	)
	if err != nil {
		return nil, fmt.Errorf("cancelamento: %w", err)
	}

	assinado, ret, err := u.assinarEEnviar(ctx, evento, cert, nota.Modelo, fmt.Sprintf("%d", nota.Numero))
	if err != nil {
		return nil, fmt.Errorf("cancelamento: %w", err)
	}
	if !cStatEventoRegistrado[ret.CStat] {
		return nil, fmt.Errorf("%w: %s - %s", domain.ErrRejeitadoSefaz, ret.CStat, ret.XMotivo)
	}

	// Mudança de estado e registro do evento no mesmo commit.
	err = u.tx.Run(ctx, func(
		notaRepo repository.NotaFiscalRepository,
		_ repository.ConfiguracaoFiscalRepository,
		eventoRepo repository.EventoFiscalRepository,
	) error {
		nota.Status = entity.StatusCancelada
		nota.UpdatedAt = time.Now()
		if uerr := notaRepo.Update(ctx, nota); uerr != nil {
			return uerr
		}
		return eventoRepo.Create(ctx, &entity.EventoFiscal{
			NotaFiscalID: nota.ID,
			Tipo:         entity.EventoCancelamento,
			Sequencia:    1,
			Descricao:    justificativa,
			Protocolo:    ret.Protocolo,
			CStat:        ret.CStat,
			XMLEvento:    string(assinado),
			DataEvento:   agora,
			CreatedAt:    agora,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("cancelamento: persistência: %w", err)
	}

	log.Printf("[SEFAZ][%s] cancelada → protocolo %s (cStat %s)", notaID, ret.Protocolo, ret.CStat)
	return &ResultadoEmissao{
		NotaID:    nota.ID,
		Status:    nota.Status,
		CStat:     ret.CStat,
		Mensagem:  ret.XMotivo,
		Chave:     nota.ChaveAcesso,
		Protocolo: ret.Protocolo,
	}, nil
}

// CartaCorrecao registra o evento 110110. A sequência é contada a partir dos
// eventos já registrados; a 21ª carta é barrada antes de qualquer assinatura.
func (u *EventosUseCase) CartaCorrecao(ctx context.Context, notaID, correcao string) (*ResultadoEmissao, error) {
	agora := time.Now()

	nota, err := u.notaRepo.GetByID(ctx, notaID)
	if err != nil {
		return nil, fmt.Errorf("carta de correção: nota %s: %w", notaID, err)
	}
	if nota.Status != entity.StatusAutorizada {
		return nil, fmt.Errorf("%w: carta de correção exige nota Autorizada (atual: %q)", domain.ErrConflitoEstado, nota.Status)
	}
	if err := nfe.ValidarJustificativa(correcao); err != nil {
		return nil, err
	}

	registradas, err := u.eventoRepo.CountByTipo(ctx, nota.ID, entity.EventoCartaCorrecao)
	if err != nil {
		return nil, fmt.Errorf("carta de correção: contagem: %w", err)
	}
	if registradas >= entity.MaxCartasCorrecao {
		return nil, fmt.Errorf("%w: limite de %d cartas de correção atingido", domain.ErrConflitoEstado, entity.MaxCartasCorrecao)
	}
	sequencia := registradas + 1

	config, cert, err := u.contexto(ctx, nota.EmpresaID, agora)
	if err != nil {
		return nil, fmt.Errorf("carta de correção: %w", err)
	}

	evento, err := u.eventos.MontarEventoCartaCorrecao(
		nota.ChaveAcesso, nota.Emitente.CNPJ, config.UFEmissao, config.Ambiente,
		correcao, sequencia, agora,
	)
	if err != nil {
		return nil, fmt.Errorf("carta de correção: %w", err)
	}

	assinado, ret, err := u.assinarEEnviar(ctx, evento, cert, nota.Modelo, fmt.Sprintf("%d", nota.Numero))
	if err != nil {
		return nil, fmt.Errorf("carta de correção: %w", err)
	}
	if !cStatEventoRegistrado[ret.CStat] {
		return nil, fmt.Errorf("%w: %s - %s", domain.ErrRejeitadoSefaz, ret.CStat, ret.XMotivo)
	}

	err = u.tx.Run(ctx, func(
		notaRepo repository.NotaFiscalRepository,
		_ repository.ConfiguracaoFiscalRepository,
		eventoRepo repository.EventoFiscalRepository,
	) error {
		nota.CartasCorrecao = sequencia
		nota.UpdatedAt = time.Now()
		if uerr := notaRepo.Update(ctx, nota); uerr != nil {
			return uerr
		}
		return eventoRepo.Create(ctx, &entity.EventoFiscal{
			NotaFiscalID: nota.ID,
			Tipo:         entity.EventoCartaCorrecao,
			Sequencia:    sequencia,
			Descricao:    correcao,
			Protocolo:    ret.Protocolo,
			CStat:        ret.CStat,
			XMLEvento:    string(assinado),
			DataEvento:   agora,
			CreatedAt:    agora,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("carta de correção: persistência: %w", err)
	}

	log.Printf("[SEFAZ][%s] carta de correção %d registrada → protocolo %s", notaID, sequencia, ret.Protocolo)
	return &ResultadoEmissao{
		NotaID:    nota.ID,
		Status:    nota.Status,
		CStat:     ret.CStat,
		Mensagem:  ret.XMotivo,
		Chave:     nota.ChaveAcesso,
		Protocolo: ret.Protocolo,
	}, nil
}

// Inutilizar homologa junto à SEFAZ uma faixa de numeração que nunca será
// usada. Cada número homologado vira uma nota criada já em Inutilizada,
// além do evento avulso da empresa com o protocolo.
func (u *EventosUseCase) Inutilizar(ctx context.Context, empresaID, modelo string, serie, numeroInicial, numeroFinal int, justificativa string) (*ResultadoEmissao, error) {
	agora := time.Now()

	if err := nfe.ValidarJustificativa(justificativa); err != nil {
		return nil, err
	}

	empresa, err := u.empresaRepo.GetByID(ctx, empresaID)
	if err != nil {
		return nil, fmt.Errorf("inutilização: empresa %s: %w", empresaID, err)
	}
	config, cert, err := u.contexto(ctx, empresaID, agora)
	if err != nil {
		return nil, fmt.Errorf("inutilização: %w", err)
	}

	inutXML, err := u.eventos.MontarInutilizacao(
		config.UFEmissao, config.Ambiente, empresa.CNPJ, modelo,
		serie, numeroInicial, numeroFinal, justificativa, agora,
	)
	if err != nil {
		return nil, fmt.Errorf("inutilização: %w", err)
	}

	tlsCert, err := carregarCertificado(cert)
	if err != nil {
		return nil, fmt.Errorf("inutilização: %w", err)
	}
	assinado, err := u.assinador.Sign(inutXML, tlsCert)
	if err != nil {
		return nil, fmt.Errorf("inutilização: %w", err)
	}

	ret, err := u.transmissor.Inutilizar(ctx, assinado, modelo, tlsCert)
	if err != nil {
		return nil, fmt.Errorf("inutilização: %w", err)
	}
	if !cStatInutilizada[ret.CStat] {
		return nil, fmt.Errorf("%w: %s - %s", domain.ErrRejeitadoSefaz, ret.CStat, ret.XMotivo)
	}

	// O evento e as notas da faixa nascem juntos: cada número homologado
	// vira um documento terminal em Inutilizada, ocupando a numeração.
	descricao := fmt.Sprintf("série %d, números %d a %d: %s", serie, numeroInicial, numeroFinal, justificativa)
	err = u.tx.Run(ctx, func(
		notaRepo repository.NotaFiscalRepository,
		_ repository.ConfiguracaoFiscalRepository,
		eventoRepo repository.EventoFiscalRepository,
	) error {
		if cerr := eventoRepo.Create(ctx, &entity.EventoFiscal{
			Tipo:       entity.EventoInutilizacao,
			Sequencia:  1,
			Descricao:  descricao,
			Protocolo:  ret.Protocolo,
			CStat:      ret.CStat,
			XMLEvento:  string(assinado),
			DataEvento: agora,
			CreatedAt:  agora,
		}); cerr != nil {
			return cerr
		}
		for numero := numeroInicial; numero <= numeroFinal; numero++ {
			if cerr := notaRepo.Create(ctx, &entity.NotaFiscal{
				ID:               uuid.New().String(),
				EmpresaID:        empresaID,
				Modelo:           modelo,
				Serie:            serie,
				Numero:           numero,
				NaturezaOperacao: "Inutilização de numeração",
				DataEmissao:      agora,
				Status:           entity.StatusInutilizada,
				Emitente:         *empresa,
				MotivoRejeicao:   justificativa,
				Protocolo:        ret.Protocolo,
				CreatedAt:        agora,
				UpdatedAt:        agora,
			}); cerr != nil {
				return cerr
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inutilização: registro: %w", err)
	}

	log.Printf("[SEFAZ][empresa %s] faixa %d-%d/%d inutilizada → protocolo %s", empresaID, numeroInicial, numeroFinal, serie, ret.Protocolo)
	return &ResultadoEmissao{
		Status:    entity.StatusInutilizada,
		CStat:     ret.CStat,
		Mensagem:  ret.XMotivo,
		Protocolo: ret.Protocolo,
	}, nil
}

// contexto busca configuração fiscal e certificado vigente da empresa.
func (u *EventosUseCase) contexto(ctx context.Context, empresaID string, agora time.Time) (*entity.ConfiguracaoFiscal, *entity.CertificadoDigital, error) {
	config, err := u.configRepo.GetByEmpresa(ctx, empresaID)
	if err != nil {
		return nil, nil, err
	}
	cert, err := u.certRepo.GetVigente(ctx, empresaID, agora)
	if err != nil {
		return nil, nil, err
	}
	return config, cert, nil
}

// assinarEEnviar assina o evento, envelopa no envEvento e transmite.
func (u *EventosUseCase) assinarEEnviar(ctx context.Context, evento []byte, cert *entity.CertificadoDigital, modelo, idLote string) ([]byte, *sefaz.RetornoEvento, error) {
	tlsCert, err := carregarCertificado(cert)
	if err != nil {
		return nil, nil, err
	}
	assinado, err := u.assinador.Sign(evento, tlsCert)
	if err != nil {
		return nil, nil, err
	}
	envEvento := u.eventos.MontarEnvEvento(assinado, idLote)
	ret, err := u.transmissor.EnviarEvento(ctx, envEvento, modelo, tlsCert)
	if err != nil {
		return nil, nil, err
	}
	return assinado, ret, nil
}
