package fiscal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fiscalbr/nfe-api/internal/application/dto"
	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz/signer"
	"github.com/fiscalbr/nfe-api/pkg/fiscal"
)

// CadastroUseCase cobre os cadastros que sustentam a emissão: empresas
// emitentes, destinatários, configuração fiscal e certificados digitais.
type CadastroUseCase struct {
	empresaRepo repository.EmpresaRepository
	destRepo    repository.DestinatarioRepository
	configRepo  repository.ConfiguracaoFiscalRepository
	certRepo    repository.CertificadoRepository
}

// NewCadastroUseCase constrói o caso de uso de cadastros.
func NewCadastroUseCase(
	empresaRepo repository.EmpresaRepository,
	destRepo repository.DestinatarioRepository,
	configRepo repository.ConfiguracaoFiscalRepository,
	certRepo repository.CertificadoRepository,
) *CadastroUseCase {
	return &CadastroUseCase{
		empresaRepo: empresaRepo,
		destRepo:    destRepo,
		configRepo:  configRepo,
		certRepo:    certRepo,
	}
}

// CriarEmpresa cadastra um emitente. O CNPJ é validado pelo dígito
// verificador e armazenado só com dígitos.
func (u *CadastroUseCase) CriarEmpresa(ctx context.Context, in dto.CriarEmpresaRequest) (*dto.EmpresaResponse, error) {
	cnpj := somenteDigitos(in.CNPJ)
	if err := fiscal.ValidateCNPJ(cnpj); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidacao, err)
	}
	if in.RazaoSocial == "" {
		return nil, fmt.Errorf("%w: razão social é obrigatória", domain.ErrValidacao)
	}

	now := time.Now()
	empresa := &entity.Empresa{
		ID:           uuid.New().String(),
		RazaoSocial:  in.RazaoSocial,
		NomeFantasia: in.NomeFantasia,
		CNPJ:         cnpj,
		IE:           somenteDigitos(in.IE),
		Endereco:     paraEndereco(in.Endereco),
		Email:        in.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.empresaRepo.Create(ctx, empresa); err != nil {
		return nil, err
	}
	return paraEmpresaResponse(empresa), nil
}

// ObterEmpresa busca o emitente pelo ID.
func (u *CadastroUseCase) ObterEmpresa(ctx context.Context, id string) (*dto.EmpresaResponse, error) {
	empresa, err := u.empresaRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return paraEmpresaResponse(empresa), nil
}

// ListarEmpresas lista os emitentes cadastrados.
func (u *CadastroUseCase) ListarEmpresas(ctx context.Context) ([]dto.EmpresaResponse, error) {
	empresas, err := u.empresaRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.EmpresaResponse, 0, len(empresas))
	for _, e := range empresas {
		out = append(out, *paraEmpresaResponse(e))
	}
	return out, nil
}

// CriarDestinatario cadastra um destinatário. O documento é discriminado
// pelo tamanho: 11 dígitos valida como CPF, 14 como CNPJ.
func (u *CadastroUseCase) CriarDestinatario(ctx context.Context, in dto.CriarDestinatarioRequest) (*dto.DestinatarioResponse, error) {
	doc := somenteDigitos(in.CPFCNPJ)
	switch len(doc) {
	case 11:
		if err := fiscal.ValidateCPF(doc); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidacao, err)
		}
	case 14:
		if err := fiscal.ValidateCNPJ(doc); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidacao, err)
		}
	default:
		return nil, fmt.Errorf("%w: documento deve ter 11 (CPF) ou 14 (CNPJ) dígitos", domain.ErrValidacao)
	}

	indIE := in.IndIEDest
	if indIE == "" {
		indIE = entity.IndIENaoContribuinte
	}
	now := time.Now()
	dest := &entity.Destinatario{
		ID:        uuid.New().String(),
		Nome:      in.Nome,
		CPFCNPJ:   doc,
		IE:        somenteDigitos(in.IE),
		IndIEDest: indIE,
		Endereco:  paraEndereco(in.Endereco),
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := u.destRepo.Create(ctx, dest); err != nil {
		return nil, err
	}
	return paraDestinatarioResponse(dest), nil
}

// ObterDestinatario busca um destinatário pelo ID.
func (u *CadastroUseCase) ObterDestinatario(ctx context.Context, id string) (*dto.DestinatarioResponse, error) {
	dest, err := u.destRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return paraDestinatarioResponse(dest), nil
}

// SalvarConfiguracao cria ou atualiza a configuração fiscal da empresa.
// Os contadores de numeração só podem ser definidos na criação: depois
// disso a numeração avança exclusivamente pelo consumo atômico.
func (u *CadastroUseCase) SalvarConfiguracao(ctx context.Context, empresaID string, in dto.ConfiguracaoFiscalRequest) (*dto.ConfiguracaoFiscalResponse, error) {
	if _, ok := fiscal.UFCodes[in.UFEmissao]; !ok {
		return nil, fmt.Errorf("%w: UF %q desconhecida", domain.ErrValidacao, in.UFEmissao)
	}
	switch in.RegimeTributario {
	case entity.RegimeSimples, entity.RegimePresumido, entity.RegimeReal:
	default:
		return nil, fmt.Errorf("%w: regime tributário %q desconhecido", domain.ErrValidacao, in.RegimeTributario)
	}
	if in.Ambiente != entity.AmbienteProducao && in.Ambiente != entity.AmbienteHomologacao {
		return nil, fmt.Errorf("%w: ambiente deve ser 1 (produção) ou 2 (homologação)", domain.ErrValidacao)
	}

	now := time.Now()
	existente, err := u.configRepo.GetByEmpresa(ctx, empresaID)
	switch {
	case err == nil:
		existente.RegimeTributario = in.RegimeTributario
		existente.UFEmissao = in.UFEmissao
		existente.Ambiente = in.Ambiente
		existente.SerieNFe = ouPadrao(in.SerieNFe, existente.SerieNFe)
		existente.SerieNFCe = ouPadrao(in.SerieNFCe, existente.SerieNFCe)
		existente.CSCNFCe = in.CSCNFCe
		existente.IDTokenCSC = in.IDTokenCSC
		existente.UpdatedAt = now
		if err := u.configRepo.Update(ctx, existente); err != nil {
			return nil, err
		}
		return paraConfiguracaoResponse(existente), nil

	case errors.Is(err, domain.ErrNaoEncontrado):
		cfg := &entity.ConfiguracaoFiscal{
			ID:                uuid.New().String(),
			EmpresaID:         empresaID,
			RegimeTributario:  in.RegimeTributario,
			UFEmissao:         in.UFEmissao,
			Ambiente:          in.Ambiente,
			SerieNFe:          ouPadrao(in.SerieNFe, 1),
			ProximoNumeroNFe:  ouPadrao(in.ProximoNumeroNFe, 1),
			SerieNFCe:         ouPadrao(in.SerieNFCe, 1),
			ProximoNumeroNFCe: ouPadrao(in.ProximoNumeroNFCe, 1),
			CSCNFCe:           in.CSCNFCe,
			IDTokenCSC:        in.IDTokenCSC,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := u.configRepo.Create(ctx, cfg); err != nil {
			return nil, err
		}
		return paraConfiguracaoResponse(cfg), nil

	default:
		return nil, err
	}
}

// ObterConfiguracao devolve a configuração fiscal da empresa.
func (u *CadastroUseCase) ObterConfiguracao(ctx context.Context, empresaID string) (*dto.ConfiguracaoFiscalResponse, error) {
	cfg, err := u.configRepo.GetByEmpresa(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	return paraConfiguracaoResponse(cfg), nil
}

// CadastrarCertificado registra um certificado A1. O arquivo é aberto uma
// vez para extrair a janela de validade; certificado já vencido é recusado.
func (u *CadastroUseCase) CadastrarCertificado(ctx context.Context, empresaID string, in dto.CadastrarCertificadoRequest) (*dto.CertificadoResponse, error) {
	if _, err := u.empresaRepo.GetByID(ctx, empresaID); err != nil {
		return nil, err
	}

	cert := &entity.CertificadoDigital{
		ID:             uuid.New().String(),
		EmpresaID:      empresaID,
		CaminhoArquivo: in.CaminhoArquivo,
		Senha:          in.Senha,
	}
	tlsCert, err := carregarCertificado(cert)
	if err != nil {
		return nil, err
	}
	inicio, fim, err := signer.Validade(tlsCert)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCertificadoIndisponivel, err)
	}
	now := time.Now()
	if now.After(fim) {
		return nil, fmt.Errorf("%w: venceu em %s", domain.ErrCertificadoExpirado, fim.Format("2006-01-02"))
	}

	cert.ValidadeInicio = inicio
	cert.ValidadeFim = fim
	cert.CreatedAt = now
	cert.UpdatedAt = now
	if err := u.certRepo.Create(ctx, cert); err != nil {
		return nil, err
	}
	return paraCertificadoResponse(cert, now), nil
}

// ListarCertificados lista os certificados da empresa, mais recente primeiro.
func (u *CadastroUseCase) ListarCertificados(ctx context.Context, empresaID string) ([]dto.CertificadoResponse, error) {
	certs, err := u.certRepo.ListByEmpresa(ctx, empresaID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]dto.CertificadoResponse, 0, len(certs))
	for _, c := range certs {
		out = append(out, *paraCertificadoResponse(c, now))
	}
	return out, nil
}

// ── mapeadores ────────────────────────────────────────────────────────────────

func paraEndereco(in dto.EnderecoDTO) entity.Endereco {
	return entity.Endereco{
		Logradouro:      in.Logradouro,
		Numero:          in.Numero,
		Complemento:     in.Complemento,
		Bairro:          in.Bairro,
		CodigoMunicipio: somenteDigitos(in.CodigoMunicipio),
		Municipio:       in.Municipio,
		UF:              strings.ToUpper(in.UF),
		CEP:             somenteDigitos(in.CEP),
		Telefone:        somenteDigitos(in.Telefone),
	}
}

func paraEnderecoDTO(e entity.Endereco) dto.EnderecoDTO {
	return dto.EnderecoDTO{
		Logradouro:      e.Logradouro,
		Numero:          e.Numero,
		Complemento:     e.Complemento,
		Bairro:          e.Bairro,
		CodigoMunicipio: e.CodigoMunicipio,
		Municipio:       e.Municipio,
		UF:              e.UF,
		CEP:             e.CEP,
		Telefone:        e.Telefone,
	}
}

func paraEmpresaResponse(e *entity.Empresa) *dto.EmpresaResponse {
	if e == nil {
		return nil
	}
	return &dto.EmpresaResponse{
		ID:           e.ID,
		RazaoSocial:  e.RazaoSocial,
		NomeFantasia: e.NomeFantasia,
		CNPJ:         e.CNPJ,
		IE:           e.IE,
		Endereco:     paraEnderecoDTO(e.Endereco),
		Email:        e.Email,
		CreatedAt:    e.CreatedAt,
	}
}

func paraDestinatarioResponse(d *entity.Destinatario) *dto.DestinatarioResponse {
	if d == nil {
		return nil
	}
	return &dto.DestinatarioResponse{
		ID:        d.ID,
		Nome:      d.Nome,
		CPFCNPJ:   d.CPFCNPJ,
		IE:        d.IE,
		IndIEDest: d.IndIEDest,
		Endereco:  paraEnderecoDTO(d.Endereco),
		Email:     d.Email,
	}
}

func paraConfiguracaoResponse(c *entity.ConfiguracaoFiscal) *dto.ConfiguracaoFiscalResponse {
	return &dto.ConfiguracaoFiscalResponse{
		EmpresaID:         c.EmpresaID,
		RegimeTributario:  c.RegimeTributario,
		UFEmissao:         c.UFEmissao,
		Ambiente:          c.Ambiente,
		SerieNFe:          c.SerieNFe,
		ProximoNumeroNFe:  c.ProximoNumeroNFe,
		SerieNFCe:         c.SerieNFCe,
		ProximoNumeroNFCe: c.ProximoNumeroNFCe,
	}
}

func paraCertificadoResponse(c *entity.CertificadoDigital, agora time.Time) *dto.CertificadoResponse {
	return &dto.CertificadoResponse{
		ID:             c.ID,
		EmpresaID:      c.EmpresaID,
		Status:         c.Status(agora),
		ValidadeInicio: c.ValidadeInicio,
		ValidadeFim:    c.ValidadeFim,
	}
}

func somenteDigitos(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ouPadrao(valor, padrao int) int {
	if valor > 0 {
		return valor
	}
	return padrao
}
