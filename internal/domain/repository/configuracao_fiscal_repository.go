package repository

import (
	"context"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
)

// ConfiguracaoFiscalRepository guarda os parâmetros de emissão por empresa.
type ConfiguracaoFiscalRepository interface {
	Create(ctx context.Context, cfg *entity.ConfiguracaoFiscal) error
	GetByEmpresa(ctx context.Context, empresaID string) (*entity.ConfiguracaoFiscal, error)
	Update(ctx context.Context, cfg *entity.ConfiguracaoFiscal) error
	// ProximoNumero consome e devolve o próximo número do modelo (55/65) para a
	// empresa. O incremento é atômico: duas emissões concorrentes nunca recebem
	// o mesmo número.
	ProximoNumero(ctx context.Context, empresaID, modelo string) (int, error)
}

// CertificadoRepository guarda os certificados digitais A1 por empresa.
type CertificadoRepository interface {
	Create(ctx context.Context, cert *entity.CertificadoDigital) error
	ListByEmpresa(ctx context.Context, empresaID string) ([]*entity.CertificadoDigital, error)
	// GetVigente devolve o certificado não expirado com validade final mais
	// distante, ou nil se não houver.
	GetVigente(ctx context.Context, empresaID string, agora time.Time) (*entity.CertificadoDigital, error)
}

// EmpresaRepository acessa os emitentes.
type EmpresaRepository interface {
	Create(ctx context.Context, empresa *entity.Empresa) error
	GetByID(ctx context.Context, id string) (*entity.Empresa, error)
	List(ctx context.Context) ([]*entity.Empresa, error)
}

// DestinatarioRepository acessa os destinatários.
type DestinatarioRepository interface {
	Create(ctx context.Context, dest *entity.Destinatario) error
	GetByID(ctx context.Context, id string) (*entity.Destinatario, error)
}
