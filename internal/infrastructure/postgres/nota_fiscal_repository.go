package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
)

var _ repository.NotaFiscalRepository = (*NotaFiscalRepo)(nil)

// NotaFiscalRepo implementação de NotaFiscalRepository (usável com pool ou tx).
// Os snapshots de emitente e destinatário vão em colunas JSONB: o documento
// precisa refletir o cadastro no momento da emissão, não o atual.
type NotaFiscalRepo struct {
	q Querier
}

// NewNotaFiscalRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewNotaFiscalRepository(q Querier) *NotaFiscalRepo {
	return &NotaFiscalRepo{q: q}
}

// Create persiste a nota e seus itens.
func (r *NotaFiscalRepo) Create(ctx context.Context, nota *entity.NotaFiscal) error {
	if nota.ID == "" {
		nota.ID = uuid.New().String()
	}
	emitente, err := json.Marshal(nota.Emitente)
	if err != nil {
		return fmt.Errorf("serializar emitente: %w", err)
	}
	destinatario, err := json.Marshal(nota.Destinatario)
	if err != nil {
		return fmt.Errorf("serializar destinatario: %w", err)
	}

	query := `
		INSERT INTO notas_fiscais (
			id, empresa_id, destinatario_id, modelo, serie, numero,
			natureza_operacao, data_emissao, status, chave_acesso,
			emitente_snapshot, destinatario_snapshot,
			valor_produtos, valor_desconto, valor_frete, valor_seguro, valor_outros,
			valor_icms, valor_ipi, valor_pis, valor_cofins, valor_total,
			modalidade_frete, meio_pagamento, inf_complementares, inf_fisco,
			protocolo, motivo_rejeicao,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`
	_, err = r.q.Exec(ctx, query,
		nota.ID, nota.EmpresaID, nullIfEmpty(nota.DestinatarioID), nota.Modelo, nota.Serie, nota.Numero,
		nota.NaturezaOperacao, nota.DataEmissao, nota.Status, nullIfEmpty(nota.ChaveAcesso),
		emitente, destinatario,
		nota.ValorProdutos, nota.ValorDesconto, nota.ValorFrete, nota.ValorSeguro, nota.ValorOutros,
		nota.ValorICMS, nota.ValorIPI, nota.ValorPIS, nota.ValorCOFINS, nota.ValorTotal,
		nota.ModalidadeFrete, nota.MeioPagamento, nota.InformacoesComplementares, nota.InformacoesFisco,
		nullIfEmpty(nota.Protocolo), nota.MotivoRejeicao,
		nota.CreatedAt, nota.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: numeração %s/%d-%d já utilizada", domain.ErrConflitoEstado, nota.Modelo, nota.Serie, nota.Numero)
		}
		return fmt.Errorf("insert nota fiscal: %w", err)
	}
	for i := range nota.Itens {
		if err := r.createItem(ctx, nota.ID, i+1, &nota.Itens[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *NotaFiscalRepo) createItem(ctx context.Context, notaID string, ordem int, it *entity.ItemNotaFiscal) error {
	if it.ID == "" {
		it.ID = uuid.New().String()
	}
	it.NotaFiscalID = notaID
	query := `
		INSERT INTO itens_nota_fiscal (
			id, nota_fiscal_id, ordem, codigo_produto, descricao, ncm, cest, cfop, origem,
			unidade, quantidade, valor_unitario, valor_total, valor_desconto,
			cst_icms, base_icms, aliquota_icms, valor_icms,
			cst_ipi, base_ipi, aliquota_ipi, valor_ipi,
			cst_pis, base_pis, aliquota_pis, valor_pis,
			cst_cofins, base_cofins, aliquota_cofins, valor_cofins)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`
	_, err := r.q.Exec(ctx, query,
		it.ID, notaID, ordem, it.CodigoProduto, it.Descricao, it.NCM, it.CEST, it.CFOP, it.Origem,
		it.Unidade, it.Quantidade, it.ValorUnitario, it.ValorTotal, it.ValorDesconto,
		it.CSTICMS, it.BaseICMS, it.AliquotaICMS, it.ValorICMS,
		it.CSTIPI, it.BaseIPI, it.AliquotaIPI, it.ValorIPI,
		it.CSTPIS, it.BasePIS, it.AliquotaPIS, it.ValorPIS,
		it.CSTCOFINS, it.BaseCOFINS, it.AliquotaCOFINS, it.ValorCOFINS,
	)
	if err != nil {
		return fmt.Errorf("insert item da nota: %w", err)
	}
	return nil
}

const colunasNota = `
	id, empresa_id, COALESCE(destinatario_id, ''), modelo, serie, numero,
	natureza_operacao, data_emissao, status, COALESCE(chave_acesso, ''),
	emitente_snapshot, destinatario_snapshot,
	valor_produtos, valor_desconto, valor_frete, valor_seguro, valor_outros,
	valor_icms, valor_ipi, valor_pis, valor_cofins, valor_total,
	modalidade_frete, meio_pagamento, inf_complementares, inf_fisco,
	COALESCE(protocolo, ''), data_autorizacao, COALESCE(motivo_rejeicao, ''),
	COALESCE(xml_gerado, ''), COALESCE(xml_assinado, ''), COALESCE(xml_protocolado, ''),
	COALESCE(qrcode_url, ''), COALESCE(danfe_ref, ''), cartas_correcao,
	created_at, updated_at`

func (r *NotaFiscalRepo) scanNota(row pgx.Row) (*entity.NotaFiscal, error) {
	var n entity.NotaFiscal
	var emitente, destinatario []byte
	var dataAutorizacao *time.Time
	err := row.Scan(
		&n.ID, &n.EmpresaID, &n.DestinatarioID, &n.Modelo, &n.Serie, &n.Numero,
		&n.NaturezaOperacao, &n.DataEmissao, &n.Status, &n.ChaveAcesso,
		&emitente, &destinatario,
		&n.ValorProdutos, &n.ValorDesconto, &n.ValorFrete, &n.ValorSeguro, &n.ValorOutros,
		&n.ValorICMS, &n.ValorIPI, &n.ValorPIS, &n.ValorCOFINS, &n.ValorTotal,
		&n.ModalidadeFrete, &n.MeioPagamento, &n.InformacoesComplementares, &n.InformacoesFisco,
		&n.Protocolo, &dataAutorizacao, &n.MotivoRejeicao,
		&n.XMLGerado, &n.XMLAssinado, &n.XMLProtocolado,
		&n.QRCodeURL, &n.DANFERef, &n.CartasCorrecao,
		&n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.DataAutorizacao = dataAutorizacao
	if err := json.Unmarshal(emitente, &n.Emitente); err != nil {
		return nil, fmt.Errorf("ler snapshot do emitente: %w", err)
	}
	if err := json.Unmarshal(destinatario, &n.Destinatario); err != nil {
		return nil, fmt.Errorf("ler snapshot do destinatario: %w", err)
	}
	return &n, nil
}

// GetByID devolve a nota completa (com itens) ou ErrNaoEncontrado.
func (r *NotaFiscalRepo) GetByID(ctx context.Context, id string) (*entity.NotaFiscal, error) {
	row := r.q.QueryRow(ctx, `SELECT `+colunasNota+` FROM notas_fiscais WHERE id = $1`, id)
	nota, err := r.scanNota(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNaoEncontrado
		}
		return nil, fmt.Errorf("get nota fiscal: %w", err)
	}
	if nota.Itens, err = r.listItens(ctx, nota.ID); err != nil {
		return nil, err
	}
	return nota, nil
}

// GetByChave devolve a nota pela chave de acesso.
func (r *NotaFiscalRepo) GetByChave(ctx context.Context, chave string) (*entity.NotaFiscal, error) {
	row := r.q.QueryRow(ctx, `SELECT `+colunasNota+` FROM notas_fiscais WHERE chave_acesso = $1`, chave)
	nota, err := r.scanNota(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNaoEncontrado
		}
		return nil, fmt.Errorf("get nota por chave: %w", err)
	}
	if nota.Itens, err = r.listItens(ctx, nota.ID); err != nil {
		return nil, err
	}
	return nota, nil
}

func (r *NotaFiscalRepo) listItens(ctx context.Context, notaID string) ([]entity.ItemNotaFiscal, error) {
	query := `
		SELECT id, nota_fiscal_id, codigo_produto, descricao, ncm, cest, cfop, origem,
		       unidade, quantidade, valor_unitario, valor_total, valor_desconto,
		       cst_icms, base_icms, aliquota_icms, valor_icms,
		       cst_ipi, base_ipi, aliquota_ipi, valor_ipi,
		       cst_pis, base_pis, aliquota_pis, valor_pis,
		       cst_cofins, base_cofins, aliquota_cofins, valor_cofins
		FROM itens_nota_fiscal WHERE nota_fiscal_id = $1 ORDER BY ordem`
	rows, err := r.q.Query(ctx, query, notaID)
	if err != nil {
		return nil, fmt.Errorf("listar itens da nota: %w", err)
	}
	defer rows.Close()

	var itens []entity.ItemNotaFiscal
	for rows.Next() {
		var it entity.ItemNotaFiscal
		if err := rows.Scan(
			&it.ID, &it.NotaFiscalID, &it.CodigoProduto, &it.Descricao, &it.NCM, &it.CEST, &it.CFOP, &it.Origem,
			&it.Unidade, &it.Quantidade, &it.ValorUnitario, &it.ValorTotal, &it.ValorDesconto,
			&it.CSTICMS, &it.BaseICMS, &it.AliquotaICMS, &it.ValorICMS,
			&it.CSTIPI, &it.BaseIPI, &it.AliquotaIPI, &it.ValorIPI,
			&it.CSTPIS, &it.BasePIS, &it.AliquotaPIS, &it.ValorPIS,
			&it.CSTCOFINS, &it.BaseCOFINS, &it.AliquotaCOFINS, &it.ValorCOFINS,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		itens = append(itens, it)
	}
	return itens, rows.Err()
}

// Update atualiza o estado de emissão da nota: status, chave, protocolo,
// XMLs, QR Code e contadores. Os itens são imutáveis depois do Create.
func (r *NotaFiscalRepo) Update(ctx context.Context, nota *entity.NotaFiscal) error {
	query := `
		UPDATE notas_fiscais
		SET status           = $2,
		    serie            = $3,
		    numero           = $4,
		    chave_acesso     = COALESCE($5, chave_acesso),
		    protocolo        = COALESCE($6, protocolo),
		    data_autorizacao = $7,
		    motivo_rejeicao  = $8,
		    xml_gerado       = COALESCE($9,  xml_gerado),
		    xml_assinado     = COALESCE($10, xml_assinado),
		    xml_protocolado  = COALESCE($11, xml_protocolado),
		    qrcode_url       = COALESCE($12, qrcode_url),
		    danfe_ref        = COALESCE($13, danfe_ref),
		    cartas_correcao  = $14,
		    updated_at       = $15
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		nota.ID, nota.Status, nota.Serie, nota.Numero,
		nullIfEmpty(nota.ChaveAcesso), nullIfEmpty(nota.Protocolo),
		nota.DataAutorizacao, nota.MotivoRejeicao,
		nullIfEmpty(nota.XMLGerado), nullIfEmpty(nota.XMLAssinado), nullIfEmpty(nota.XMLProtocolado),
		nullIfEmpty(nota.QRCodeURL), nullIfEmpty(nota.DANFERef),
		nota.CartasCorrecao, nota.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update nota fiscal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNaoEncontrado
	}
	return nil
}

// ListPendentesAntigas devolve notas Pendente/Processando paradas desde antes
// do corte, mais antigas primeiro.
func (r *NotaFiscalRepo) ListPendentesAntigas(ctx context.Context, corte time.Time) ([]*entity.NotaFiscal, error) {
	query := `SELECT ` + colunasNota + `
		FROM notas_fiscais
		WHERE status IN ($1, $2) AND updated_at < $3
		ORDER BY updated_at ASC`
	return r.listNotas(ctx, query, entity.StatusPendente, entity.StatusProcessando, corte)
}

// ListByEmpresa devolve as notas mais recentes da empresa.
func (r *NotaFiscalRepo) ListByEmpresa(ctx context.Context, empresaID string, limit int) ([]*entity.NotaFiscal, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + colunasNota + `
		FROM notas_fiscais
		WHERE empresa_id = $1
		ORDER BY created_at DESC
		LIMIT $2`
	return r.listNotas(ctx, query, empresaID, limit)
}

func (r *NotaFiscalRepo) listNotas(ctx context.Context, query string, args ...any) ([]*entity.NotaFiscal, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listar notas: %w", err)
	}
	defer rows.Close()

	var notas []*entity.NotaFiscal
	for rows.Next() {
		nota, err := r.scanNota(rows)
		if err != nil {
			return nil, fmt.Errorf("scan nota: %w", err)
		}
		notas = append(notas, nota)
	}
	return notas, rows.Err()
}
