package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
)

var _ repository.CertificadoRepository = (*CertificadoRepo)(nil)

// CertificadoRepo implementação de CertificadoRepository. A tabela guarda o
// caminho do arquivo cifrado e a senha; a chave privada em si nunca é
// persistida fora do .pfx.
type CertificadoRepo struct {
	q Querier
}

// NewCertificadoRepository constrói o adaptador. Passar pool ou tx (Querier).
func NewCertificadoRepository(q Querier) *CertificadoRepo {
	return &CertificadoRepo{q: q}
}

// Create registra um certificado A1 da empresa.
func (r *CertificadoRepo) Create(ctx context.Context, cert *entity.CertificadoDigital) error {
	if cert.ID == "" {
		cert.ID = uuid.New().String()
	}
	query := `
		INSERT INTO certificados_digitais (
			id, empresa_id, caminho_arquivo, senha,
			validade_inicio, validade_fim, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		cert.ID, cert.EmpresaID, cert.CaminhoArquivo, cert.Senha,
		cert.ValidadeInicio, cert.ValidadeFim, cert.CreatedAt, cert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert certificado: %w", err)
	}
	return nil
}

// ListByEmpresa lista os certificados da empresa, mais recentes primeiro.
func (r *CertificadoRepo) ListByEmpresa(ctx context.Context, empresaID string) ([]*entity.CertificadoDigital, error) {
	query := `
		SELECT id, empresa_id, caminho_arquivo, senha,
		       validade_inicio, validade_fim, created_at, updated_at
		FROM certificados_digitais
		WHERE empresa_id = $1
		ORDER BY validade_fim DESC`
	rows, err := r.q.Query(ctx, query, empresaID)
	if err != nil {
		return nil, fmt.Errorf("listar certificados: %w", err)
	}
	defer rows.Close()

	var certs []*entity.CertificadoDigital
	for rows.Next() {
		var c entity.CertificadoDigital
		if err := rows.Scan(
			&c.ID, &c.EmpresaID, &c.CaminhoArquivo, &c.Senha,
			&c.ValidadeInicio, &c.ValidadeFim, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan certificado: %w", err)
		}
		certs = append(certs, &c)
	}
	return certs, rows.Err()
}

// GetVigente devolve o certificado que cobre o instante dado, preferindo o de
// validade final mais distante. Nil com ErrCertificadoIndisponivel se não houver.
func (r *CertificadoRepo) GetVigente(ctx context.Context, empresaID string, agora time.Time) (*entity.CertificadoDigital, error) {
	query := `
		SELECT id, empresa_id, caminho_arquivo, senha,
		       validade_inicio, validade_fim, created_at, updated_at
		FROM certificados_digitais
		WHERE empresa_id = $1 AND validade_inicio <= $2 AND validade_fim >= $2
		ORDER BY validade_fim DESC
		LIMIT 1`
	var c entity.CertificadoDigital
	err := r.q.QueryRow(ctx, query, empresaID, agora).Scan(
		&c.ID, &c.EmpresaID, &c.CaminhoArquivo, &c.Senha,
		&c.ValidadeInicio, &c.ValidadeFim, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCertificadoIndisponivel
		}
		return nil, fmt.Errorf("get certificado vigente: %w", err)
	}
	return &c, nil
}
