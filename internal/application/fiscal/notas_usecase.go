package fiscal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fiscalbr/nfe-api/internal/application/dto"
	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/nfe"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
)

// NotasUseCase cria rascunhos de nota fiscal e expõe as consultas locais.
// A criação já aplica a calculadora de impostos para o chamador enxergar os
// tributos antes de emitir; os valores são recalculados na emissão.
type NotasUseCase struct {
	notaRepo    repository.NotaFiscalRepository
	empresaRepo repository.EmpresaRepository
	destRepo    repository.DestinatarioRepository
	configRepo  repository.ConfiguracaoFiscalRepository
	calculadora *nfe.CalculadoraImpostos
}

// NewNotasUseCase constrói o caso de uso de notas.
func NewNotasUseCase(
	notaRepo repository.NotaFiscalRepository,
	empresaRepo repository.EmpresaRepository,
	destRepo repository.DestinatarioRepository,
	configRepo repository.ConfiguracaoFiscalRepository,
	calculadora *nfe.CalculadoraImpostos,
) *NotasUseCase {
	return &NotasUseCase{
		notaRepo:    notaRepo,
		empresaRepo: empresaRepo,
		destRepo:    destRepo,
		configRepo:  configRepo,
		calculadora: calculadora,
	}
}

// Criar grava a nota em Rascunho com os snapshots de emitente e
// destinatário copiados no ato. Numeração e chave ficam para a emissão.
func (u *NotasUseCase) Criar(ctx context.Context, in dto.CriarNotaRequest) (*dto.NotaResponse, error) {
	if in.Modelo != entity.ModeloNFe && in.Modelo != entity.ModeloNFCe {
		return nil, fmt.Errorf("%w: modelo deve ser 55 (NF-e) ou 65 (NFC-e)", domain.ErrValidacao)
	}
	if len(in.Itens) == 0 {
		return nil, fmt.Errorf("%w: a nota precisa de ao menos um item", domain.ErrValidacao)
	}
	if in.Modelo == entity.ModeloNFe && in.DestinatarioID == "" {
		return nil, fmt.Errorf("%w: NF-e exige destinatário identificado", domain.ErrValidacao)
	}

	empresa, err := u.empresaRepo.GetByID(ctx, in.EmpresaID)
	if err != nil {
		return nil, fmt.Errorf("empresa %s: %w", in.EmpresaID, err)
	}
	config, err := u.configRepo.GetByEmpresa(ctx, in.EmpresaID)
	if err != nil {
		return nil, fmt.Errorf("configuração fiscal: %w", err)
	}

	var destinatario entity.Destinatario
	if in.DestinatarioID != "" {
		dest, derr := u.destRepo.GetByID(ctx, in.DestinatarioID)
		if derr != nil {
			return nil, fmt.Errorf("destinatário %s: %w", in.DestinatarioID, derr)
		}
		destinatario = *dest
	}

	ufDestino := destinatario.Endereco.UF
	if ufDestino == "" {
		ufDestino = config.UFEmissao
	}

	now := time.Now()
	nota := &entity.NotaFiscal{
		ID:                        uuid.New().String(),
		EmpresaID:                 in.EmpresaID,
		DestinatarioID:            in.DestinatarioID,
		Modelo:                    in.Modelo,
		NaturezaOperacao:          in.NaturezaOperacao,
		DataEmissao:               now,
		Status:                    entity.StatusRascunho,
		Emitente:                  *empresa,
		Destinatario:              destinatario,
		ValorFrete:                in.ValorFrete,
		ValorSeguro:               in.ValorSeguro,
		ValorDesconto:             in.ValorDesconto,
		ModalidadeFrete:           ouTexto(in.ModalidadeFrete, "9"),
		MeioPagamento:             ouTexto(in.MeioPagamento, "01"),
		InformacoesComplementares: in.InfComplementar,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}

	nota.Itens = make([]entity.ItemNotaFiscal, len(in.Itens))
	for i, item := range in.Itens {
		if item.Quantidade.Sign() <= 0 {
			return nil, fmt.Errorf("%w: item %d com quantidade não positiva", domain.ErrValidacao, i+1)
		}
		ent := entity.ItemNotaFiscal{
			ID:            uuid.New().String(),
			NotaFiscalID:  nota.ID,
			CodigoProduto: item.CodigoProduto,
			Descricao:     item.Descricao,
			NCM:           item.NCM,
			CEST:          item.CEST,
			CFOP:          item.CFOP,
			Origem:        ouTexto(item.Origem, "0"),
			Unidade:       item.Unidade,
			Quantidade:    item.Quantidade,
			ValorUnitario: item.ValorUnitario,
			ValorTotal:    item.Quantidade.Mul(item.ValorUnitario).Round(2),
			ValorDesconto: item.ValorDesconto,
		}
		valorLinha := ent.ValorTotal.Sub(ent.ValorDesconto)
		impostos, ierr := u.calculadora.Calcular(config.RegimeTributario, config.UFEmissao, ufDestino, valorLinha)
		if ierr != nil {
			return nil, fmt.Errorf("%w: item %d: %v", domain.ErrValidacao, i+1, ierr)
		}
		impostos.AplicarAoItem(&ent)
		nota.Itens[i] = ent
	}
	nfe.TotalizarNota(nota)

	if err := u.notaRepo.Create(ctx, nota); err != nil {
		return nil, err
	}
	return paraNotaResponse(nota, true), nil
}

// Obter devolve a nota completa (com itens) pelo ID.
func (u *NotasUseCase) Obter(ctx context.Context, id string) (*dto.NotaResponse, error) {
	nota, err := u.notaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return paraNotaResponse(nota, true), nil
}

// Status devolve a resposta leve de polling da nota.
func (u *NotasUseCase) Status(ctx context.Context, id string) (*dto.NotaStatusDTO, error) {
	nota, err := u.notaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.NotaStatusDTO{
		ID:             nota.ID,
		Status:         nota.Status,
		ChaveAcesso:    nota.ChaveAcesso,
		Protocolo:      nota.Protocolo,
		MotivoRejeicao: nota.MotivoRejeicao,
	}, nil
}

// XMLProtocolado devolve o procNFe da nota autorizada (ou o assinado, se a
// autorização ainda não chegou).
func (u *NotasUseCase) XMLProtocolado(ctx context.Context, id string) ([]byte, error) {
	nota, err := u.notaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case nota.XMLProtocolado != "":
		return []byte(nota.XMLProtocolado), nil
	case nota.XMLAssinado != "":
		return []byte(nota.XMLAssinado), nil
	default:
		return nil, fmt.Errorf("%w: nota %s ainda não tem XML gerado", domain.ErrNaoEncontrado, id)
	}
}

// DANFERef devolve o caminho do DANFE gerado da nota, ou ErrNaoEncontrado se
// o PDF ainda não existe.
func (u *NotasUseCase) DANFERef(ctx context.Context, id string) (string, error) {
	nota, err := u.notaRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if nota.DANFERef == "" {
		return "", fmt.Errorf("%w: nota %s ainda não tem DANFE gerado", domain.ErrNaoEncontrado, id)
	}
	return nota.DANFERef, nil
}

// Listar devolve as notas da empresa, mais recentes primeiro.
func (u *NotasUseCase) Listar(ctx context.Context, empresaID string, limit int) ([]dto.NotaResponse, error) {
	notas, err := u.notaRepo.ListByEmpresa(ctx, empresaID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotaResponse, 0, len(notas))
	for _, n := range notas {
		out = append(out, *paraNotaResponse(n, false))
	}
	return out, nil
}

// ── mapeadores ────────────────────────────────────────────────────────────────

func paraNotaResponse(n *entity.NotaFiscal, comItens bool) *dto.NotaResponse {
	out := &dto.NotaResponse{
		ID:               n.ID,
		EmpresaID:        n.EmpresaID,
		Modelo:           n.Modelo,
		Serie:            n.Serie,
		Numero:           n.Numero,
		NaturezaOperacao: n.NaturezaOperacao,
		DataEmissao:      n.DataEmissao,
		Status:           n.Status,
		ChaveAcesso:      n.ChaveAcesso,
		Protocolo:        n.Protocolo,
		DataAutorizacao:  n.DataAutorizacao,
		MotivoRejeicao:   n.MotivoRejeicao,
		Destinatario:     n.Destinatario.Nome,
		ValorTotal:       n.ValorTotal,
		ValorICMS:        n.ValorICMS,
		QRCodeURL:        n.QRCodeURL,
		DANFERef:         n.DANFERef,
		CartasCorrecao:   n.CartasCorrecao,
	}
	if comItens {
		out.Itens = make([]dto.ItemNotaResponse, len(n.Itens))
		for i, it := range n.Itens {
			out.Itens[i] = dto.ItemNotaResponse{
				CodigoProduto: it.CodigoProduto,
				Descricao:     it.Descricao,
				NCM:           it.NCM,
				CFOP:          it.CFOP,
				Unidade:       it.Unidade,
				Quantidade:    it.Quantidade,
				ValorUnitario: it.ValorUnitario,
				ValorTotal:    it.ValorTotal,
				ValorICMS:     it.ValorICMS,
				ValorIPI:      it.ValorIPI,
				ValorPIS:      it.ValorPIS,
				ValorCOFINS:   it.ValorCOFINS,
			}
		}
	}
	return out
}

// paraEventoResponse converte o evento para a resposta HTTP.
func paraEventoResponse(e *entity.EventoFiscal) dto.EventoFiscalResponse {
	return dto.EventoFiscalResponse{
		ID:         e.ID,
		Tipo:       e.Tipo,
		Sequencia:  e.Sequencia,
		Descricao:  e.Descricao,
		Protocolo:  e.Protocolo,
		CStat:      e.CStat,
		DataEvento: e.DataEvento,
	}
}

func ouTexto(valor, padrao string) string {
	if valor != "" {
		return valor
	}
	return padrao
}
