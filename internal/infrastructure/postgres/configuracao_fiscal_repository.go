package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
)

var _ repository.ConfiguracaoFiscalRepository = (*ConfiguracaoFiscalRepo)(nil)

// ConfiguracaoFiscalRepo implementação de ConfiguracaoFiscalRepository
// (usável com pool ou tx).
type ConfiguracaoFiscalRepo struct {
	q Querier
}

// NewConfiguracaoFiscalRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewConfiguracaoFiscalRepository(q Querier) *ConfiguracaoFiscalRepo {
	return &ConfiguracaoFiscalRepo{q: q}
}

// Create persiste a configuração fiscal da empresa (uma por empresa).
func (r *ConfiguracaoFiscalRepo) Create(ctx context.Context, cfg *entity.ConfiguracaoFiscal) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	query := `
		INSERT INTO configuracoes_fiscais (
			id, empresa_id, regime_tributario, uf_emissao, ambiente,
			serie_nfe, proximo_numero_nfe, serie_nfce, proximo_numero_nfce,
			csc_nfce, id_token_csc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		cfg.ID, cfg.EmpresaID, cfg.RegimeTributario, cfg.UFEmissao, cfg.Ambiente,
		cfg.SerieNFe, cfg.ProximoNumeroNFe, cfg.SerieNFCe, cfg.ProximoNumeroNFCe,
		nullIfEmpty(cfg.CSCNFCe), nullIfEmpty(cfg.IDTokenCSC), cfg.CreatedAt, cfg.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: empresa já tem configuração fiscal", domain.ErrConflitoEstado)
		}
		return fmt.Errorf("insert configuracao fiscal: %w", err)
	}
	return nil
}

// GetByEmpresa devolve a configuração da empresa ou ErrNaoEncontrado.
func (r *ConfiguracaoFiscalRepo) GetByEmpresa(ctx context.Context, empresaID string) (*entity.ConfiguracaoFiscal, error) {
	query := `
		SELECT id, empresa_id, regime_tributario, uf_emissao, ambiente,
		       serie_nfe, proximo_numero_nfe, serie_nfce, proximo_numero_nfce,
		       COALESCE(csc_nfce, ''), COALESCE(id_token_csc, ''), created_at, updated_at
		FROM configuracoes_fiscais WHERE empresa_id = $1`
	var c entity.ConfiguracaoFiscal
	err := r.q.QueryRow(ctx, query, empresaID).Scan(
		&c.ID, &c.EmpresaID, &c.RegimeTributario, &c.UFEmissao, &c.Ambiente,
		&c.SerieNFe, &c.ProximoNumeroNFe, &c.SerieNFCe, &c.ProximoNumeroNFCe,
		&c.CSCNFCe, &c.IDTokenCSC, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNaoEncontrado
		}
		return nil, fmt.Errorf("get configuracao fiscal: %w", err)
	}
	return &c, nil
}

// Update atualiza os parâmetros de emissão (não mexe nos contadores; use
// ProximoNumero para consumir numeração).
func (r *ConfiguracaoFiscalRepo) Update(ctx context.Context, cfg *entity.ConfiguracaoFiscal) error {
	query := `
		UPDATE configuracoes_fiscais
		SET regime_tributario = $2,
		    uf_emissao        = $3,
		    ambiente          = $4,
		    serie_nfe         = $5,
		    serie_nfce        = $6,
		    csc_nfce          = COALESCE($7, csc_nfce),
		    id_token_csc      = COALESCE($8, id_token_csc),
		    updated_at        = $9
		WHERE empresa_id = $1`
	tag, err := r.q.Exec(ctx, query,
		cfg.EmpresaID, cfg.RegimeTributario, cfg.UFEmissao, cfg.Ambiente,
		cfg.SerieNFe, cfg.SerieNFCe,
		nullIfEmpty(cfg.CSCNFCe), nullIfEmpty(cfg.IDTokenCSC), cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update configuracao fiscal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNaoEncontrado
	}
	return nil
}

// ProximoNumero consome o próximo número do modelo em um único UPDATE:
// o RETURNING devolve o número reservado e o incremento é atômico mesmo com
// emissões concorrentes.
func (r *ConfiguracaoFiscalRepo) ProximoNumero(ctx context.Context, empresaID, modelo string) (int, error) {
	coluna := "proximo_numero_nfe"
	if modelo == entity.ModeloNFCe {
		coluna = "proximo_numero_nfce"
	}
	query := fmt.Sprintf(`
		UPDATE configuracoes_fiscais
		SET %[1]s = %[1]s + 1, updated_at = NOW()
		WHERE empresa_id = $1
		RETURNING %[1]s - 1`, coluna)

	var numero int
	err := r.q.QueryRow(ctx, query, empresaID).Scan(&numero)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNaoEncontrado
		}
		return 0, fmt.Errorf("consumir numeracao: %w", err)
	}
	return numero, nil
}
