package fiscal

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/nfe"
	"github.com/fiscalbr/nfe-api/internal/domain/repository"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz/signer"
)

// ── fakes em memória ──────────────────────────────────────────────────────────

type fakeNotaRepo struct {
	notas   map[string]*entity.NotaFiscal
	updates int
}

func newFakeNotaRepo(notas ...*entity.NotaFiscal) *fakeNotaRepo {
	r := &fakeNotaRepo{notas: map[string]*entity.NotaFiscal{}}
	for _, n := range notas {
		r.notas[n.ID] = n
	}
	return r
}

func (r *fakeNotaRepo) Create(_ context.Context, nota *entity.NotaFiscal) error {
	r.notas[nota.ID] = nota
	return nil
}

func (r *fakeNotaRepo) GetByID(_ context.Context, id string) (*entity.NotaFiscal, error) {
	n, ok := r.notas[id]
	if !ok {
		return nil, domain.ErrNaoEncontrado
	}
	return n, nil
}

func (r *fakeNotaRepo) GetByChave(_ context.Context, chave string) (*entity.NotaFiscal, error) {
	for _, n := range r.notas {
		if n.ChaveAcesso == chave {
			return n, nil
		}
	}
	return nil, domain.ErrNaoEncontrado
}

func (r *fakeNotaRepo) Update(_ context.Context, nota *entity.NotaFiscal) error {
	if _, ok := r.notas[nota.ID]; !ok {
		return domain.ErrNaoEncontrado
	}
	r.notas[nota.ID] = nota
	r.updates++
	return nil
}

func (r *fakeNotaRepo) ListPendentesAntigas(_ context.Context, corte time.Time) ([]*entity.NotaFiscal, error) {
	var out []*entity.NotaFiscal
	for _, n := range r.notas {
		if (n.Status == entity.StatusPendente || n.Status == entity.StatusProcessando) && n.UpdatedAt.Before(corte) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotaRepo) ListByEmpresa(_ context.Context, empresaID string, _ int) ([]*entity.NotaFiscal, error) {
	var out []*entity.NotaFiscal
	for _, n := range r.notas {
		if n.EmpresaID == empresaID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeConfigRepo struct {
	config   *entity.ConfiguracaoFiscal
	consumos int
}

func (r *fakeConfigRepo) Create(context.Context, *entity.ConfiguracaoFiscal) error { return nil }
func (r *fakeConfigRepo) Update(context.Context, *entity.ConfiguracaoFiscal) error { return nil }

func (r *fakeConfigRepo) GetByEmpresa(_ context.Context, empresaID string) (*entity.ConfiguracaoFiscal, error) {
	if r.config == nil || r.config.EmpresaID != empresaID {
		return nil, domain.ErrNaoEncontrado
	}
	return r.config, nil
}

func (r *fakeConfigRepo) ProximoNumero(_ context.Context, _, modelo string) (int, error) {
	r.consumos++
	if modelo == entity.ModeloNFCe {
		n := r.config.ProximoNumeroNFCe
		r.config.ProximoNumeroNFCe++
		return n, nil
	}
	n := r.config.ProximoNumeroNFe
	r.config.ProximoNumeroNFe++
	return n, nil
}

type fakeCertRepo struct {
	cert *entity.CertificadoDigital
}

func (r *fakeCertRepo) Create(context.Context, *entity.CertificadoDigital) error { return nil }

func (r *fakeCertRepo) ListByEmpresa(context.Context, string) ([]*entity.CertificadoDigital, error) {
	if r.cert == nil {
		return nil, nil
	}
	return []*entity.CertificadoDigital{r.cert}, nil
}

func (r *fakeCertRepo) GetVigente(_ context.Context, _ string, agora time.Time) (*entity.CertificadoDigital, error) {
	if r.cert == nil || !r.cert.Vigente(agora) {
		return nil, domain.ErrCertificadoIndisponivel
	}
	return r.cert, nil
}

type fakeEventoRepo struct {
	eventos []*entity.EventoFiscal
}

func (r *fakeEventoRepo) Create(_ context.Context, e *entity.EventoFiscal) error {
	r.eventos = append(r.eventos, e)
	return nil
}

func (r *fakeEventoRepo) ListByNota(_ context.Context, notaID string) ([]*entity.EventoFiscal, error) {
	var out []*entity.EventoFiscal
	for _, e := range r.eventos {
		if e.NotaFiscalID == notaID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeEventoRepo) CountByTipo(_ context.Context, notaID, tipo string) (int, error) {
	count := 0
	for _, e := range r.eventos {
		if e.NotaFiscalID == notaID && e.Tipo == tipo {
			count++
		}
	}
	return count, nil
}

// fakeTx executa fn direto, sem transação de verdade.
type fakeTx struct {
	notaRepo   repository.NotaFiscalRepository
	configRepo repository.ConfiguracaoFiscalRepository
	eventoRepo repository.EventoFiscalRepository
}

func (t *fakeTx) Run(_ context.Context, fn func(
	repository.NotaFiscalRepository,
	repository.ConfiguracaoFiscalRepository,
	repository.EventoFiscalRepository,
) error) error {
	return fn(t.notaRepo, t.configRepo, t.eventoRepo)
}

// ── cenário padrão ────────────────────────────────────────────────────────────

const (
	empresaTesteID = "emp-1"
	notaTesteID    = "nota-1"
)

func notaDeTeste(modelo string) *entity.NotaFiscal {
	q := decimal.NewFromInt(2)
	vu := decimal.RequireFromString("50.00")
	nota := &entity.NotaFiscal{
		ID:               notaTesteID,
		EmpresaID:        empresaTesteID,
		Modelo:           modelo,
		NaturezaOperacao: "Venda de mercadoria",
		DataEmissao:      time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Status:           entity.StatusPendente,
		Emitente: entity.Empresa{
			RazaoSocial: "Empresa Teste LTDA",
			CNPJ:        "11222333000181",
			IE:          "123456789012",
			Endereco: entity.Endereco{
				Logradouro: "Rua das Flores", Numero: "100", Bairro: "Centro",
				CodigoMunicipio: "3550308", Municipio: "Sao Paulo", UF: "SP", CEP: "01001000",
			},
		},
		Destinatario: entity.Destinatario{
			Nome: "Cliente Teste", CPFCNPJ: "52998224725", IndIEDest: entity.IndIENaoContribuinte,
			Endereco: entity.Endereco{
				Logradouro: "Av Atlantica", Numero: "200", Bairro: "Copacabana",
				CodigoMunicipio: "3304557", Municipio: "Rio de Janeiro", UF: "RJ", CEP: "22010000",
			},
		},
		Itens: []entity.ItemNotaFiscal{{
			CodigoProduto: "CAFE-500", Descricao: "Cafe torrado 500g",
			NCM: "09012100", CFOP: "6102", Origem: "0", Unidade: "UN",
			Quantidade: q, ValorUnitario: vu, ValorTotal: q.Mul(vu),
		}},
		ValorTotal:      decimal.RequireFromString("100.00"),
		ModalidadeFrete: "9",
		MeioPagamento:   "01",
	}
	if modelo == entity.ModeloNFCe {
		nota.Destinatario = entity.Destinatario{}
	}
	return nota
}

func configDeTeste() *entity.ConfiguracaoFiscal {
	return &entity.ConfiguracaoFiscal{
		ID:                "cfg-1",
		EmpresaID:         empresaTesteID,
		RegimeTributario:  entity.RegimePresumido,
		UFEmissao:         "SP",
		Ambiente:          entity.AmbienteHomologacao,
		SerieNFe:          1,
		ProximoNumeroNFe:  42,
		SerieNFCe:         1,
		ProximoNumeroNFCe: 7,
	}
}

// certificadoPEMDeTeste gera um par certificado/chave autoassinado em disco e
// devolve a entidade apontando para ele.
func certificadoPEMDeTeste(t *testing.T) *entity.CertificadoDigital {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "EMPRESA TESTE LTDA:11222333000181"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath := filepath.Join(dir, "certificado.pem")
	keyPath := filepath.Join(dir, "certificado.key")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}), 0o600))

	return &entity.CertificadoDigital{
		ID:             "cert-1",
		EmpresaID:      empresaTesteID,
		CaminhoArquivo: certPath,
		ValidadeInicio: tmpl.NotBefore,
		ValidadeFim:    tmpl.NotAfter,
	}
}

// bancada monta o caso de uso de emissão com fakes e devolve os fakes para
// inspeção.
type bancada struct {
	notaRepo    *fakeNotaRepo
	configRepo  *fakeConfigRepo
	certRepo    *fakeCertRepo
	eventoRepo  *fakeEventoRepo
	transmissor *fakeTransmissor
	emissao     *EmissaoUseCase
}

func novaBancada(t *testing.T, nota *entity.NotaFiscal) *bancada {
	t.Helper()
	b := &bancada{
		notaRepo:    newFakeNotaRepo(nota),
		configRepo:  &fakeConfigRepo{config: configDeTeste()},
		certRepo:    &fakeCertRepo{cert: certificadoPEMDeTeste(t)},
		eventoRepo:  &fakeEventoRepo{},
		transmissor: &fakeTransmissor{},
	}
	tx := &fakeTx{notaRepo: b.notaRepo, configRepo: b.configRepo, eventoRepo: b.eventoRepo}
	b.emissao = NewEmissaoUseCase(
		b.notaRepo, b.configRepo, b.certRepo, tx,
		nfe.NewChaveCalculatorService(),
		nfe.NewCalculadoraImpostos(nfe.NewTabelaAliquotas()),
		sefaz.NewXMLBuilderService(),
		sefaz.NewQRCodeService(),
		sefaz.NewEventoBuilderService(),
		signer.NewDigitalSignatureService(), b.transmissor, nil, "nfe-api-teste 1.0",
	)
	return b
}

// fakeTransmissor devolve respostas roteirizadas e captura os envios.
type fakeTransmissor struct {
	protocolo      *sefaz.ProtocoloSefaz
	protocoloErr   error
	consulta       *sefaz.ProtocoloSefaz
	consultaErr    error
	evento         *sefaz.RetornoEvento
	eventoErr      error
	inutilizacao   *sefaz.RetornoInutilizacao
	inutErr        error
	status         *sefaz.RetornoStatus
	lotesEnviados  [][]byte
	eventosEnviado [][]byte
	consultas      []string
	certsUsados    []tls.Certificate
}

func (f *fakeTransmissor) EnviarLote(_ context.Context, xmlAssinado []byte, _, _ string, cert tls.Certificate) (*sefaz.ProtocoloSefaz, error) {
	f.lotesEnviados = append(f.lotesEnviados, xmlAssinado)
	f.certsUsados = append(f.certsUsados, cert)
	return f.protocolo, f.protocoloErr
}

func (f *fakeTransmissor) ConsultarProtocolo(_ context.Context, chave, _ string, cert tls.Certificate) (*sefaz.ProtocoloSefaz, error) {
	f.consultas = append(f.consultas, chave)
	f.certsUsados = append(f.certsUsados, cert)
	return f.consulta, f.consultaErr
}

func (f *fakeTransmissor) EnviarEvento(_ context.Context, envEvento []byte, _ string, cert tls.Certificate) (*sefaz.RetornoEvento, error) {
	f.eventosEnviado = append(f.eventosEnviado, envEvento)
	f.certsUsados = append(f.certsUsados, cert)
	return f.evento, f.eventoErr
}

func (f *fakeTransmissor) Inutilizar(_ context.Context, _ []byte, _ string, cert tls.Certificate) (*sefaz.RetornoInutilizacao, error) {
	f.certsUsados = append(f.certsUsados, cert)
	return f.inutilizacao, f.inutErr
}

func (f *fakeTransmissor) StatusServico(_ context.Context, _ string) (*sefaz.RetornoStatus, error) {
	return f.status, nil
}

// ── testes de emissão ─────────────────────────────────────────────────────────

func TestEmitir_NFeAutorizada(t *testing.T) {
	nota := notaDeTeste(entity.ModeloNFe)
	b := novaBancada(t, nota)
	b.transmissor.protocolo = &sefaz.ProtocoloSefaz{
		CStat: "100", XMotivo: "Autorizado o uso da NF-e",
		Protocolo: "135240000000123", Recebimento: "2024-01-15T10:05:00-03:00",
	}

	res, err := b.emissao.Emitir(context.Background(), notaTesteID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusAutorizada, res.Status)
	assert.Equal(t, "100", res.CStat)
	assert.Equal(t, "135240000000123", res.Protocolo)
	assert.Len(t, res.Chave, 44, "chave de acesso completa")

	assert.Equal(t, 42, nota.Numero, "consumiu o próximo número configurado")
	assert.Equal(t, 43, b.configRepo.config.ProximoNumeroNFe, "contador avançou")
	assert.NotEmpty(t, nota.XMLGerado)
	assert.NotEmpty(t, nota.XMLAssinado)
	assert.Contains(t, nota.XMLProtocolado, "<nfeProc", "procNFe persistido")
	assert.Contains(t, nota.XMLProtocolado, "135240000000123")
	require.NotNil(t, nota.DataAutorizacao)
	assert.Equal(t, 2024, nota.DataAutorizacao.Year())

	require.Len(t, b.transmissor.lotesEnviados, 1)
	assert.Contains(t, string(b.transmissor.lotesEnviados[0]), "<Signature", "lote foi assinado")

	require.Len(t, b.transmissor.certsUsados, 1)
	assert.NotEmpty(t, b.transmissor.certsUsados[0].Certificate,
		"transmissão sai com o certificado A1 do emitente")
}

func TestEmitir_NFCeGanhaQRCode(t *testing.T) {
	nota := notaDeTeste(entity.ModeloNFCe)
	b := novaBancada(t, nota)
	b.transmissor.protocolo = &sefaz.ProtocoloSefaz{CStat: "100", XMotivo: "Autorizado", Protocolo: "135240000000456"}

	_, err := b.emissao.Emitir(context.Background(), notaTesteID)
	require.NoError(t, err)

	assert.Equal(t, 7, nota.Numero, "numeração NFC-e independente da NF-e")
	assert.NotEmpty(t, nota.QRCodeURL)
	assert.Contains(t, nota.XMLAssinado, "<infNFeSupl>")
	assert.Contains(t, nota.XMLAssinado, "<![CDATA[")
}

func TestEmitir_RejeicaoSefaz(t *testing.T) {
	nota := notaDeTeste(entity.ModeloNFe)
	b := novaBancada(t, nota)
	b.transmissor.protocolo = &sefaz.ProtocoloSefaz{CStat: "539", XMotivo: "Duplicidade de NF-e com diferenca na chave de acesso"}

	_, err := b.emissao.Emitir(context.Background(), notaTesteID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRejeitadoSefaz)

	assert.Equal(t, entity.StatusRejeitada, nota.Status)
	assert.Contains(t, nota.MotivoRejeicao, "539")
	assert.NotEmpty(t, nota.ChaveAcesso, "chave permanece para a reemissão")
}

func TestEmitir_FalhaDeTransporteVoltaParaPendente(t *testing.T) {
	nota := notaDeTeste(entity.ModeloNFe)
	b := novaBancada(t, nota)
	b.transmissor.protocoloErr = domain.ErrTransporte

	_, err := b.emissao.Emitir(context.Background(), notaTesteID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransporte)

	// Desfecho desconhecido não é terminal nem fica em voo: a nota volta a
	// Pendente com o motivo da falha registrado.
	assert.NotEqual(t, entity.StatusProcessando, nota.Status)
	assert.Equal(t, entity.StatusPendente, nota.Status)
	assert.NotEmpty(t, nota.MotivoRejeicao)
	assert.Contains(t, nota.MotivoRejeicao, "transporte")
	assert.NotEmpty(t, nota.ChaveAcesso, "chave permanece para a reemissão")
}

func TestEmitir_ValidacaoNaoConsomeNumero(t *testing.T) {
	nota := notaDeTeste(entity.ModeloNFe)
	nota.Itens = nil
	b := novaBancada(t, nota)

	_, err := b.emissao.Emitir(context.Background(), notaTesteID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidacao)

	assert.Zero(t, b.configRepo.consumos, "numeração intocada em falha de validação")
	assert.Empty(t, nota.ChaveAcesso)
	assert.Empty(t, b.transmissor.lotesEnviados)
}

func TestEmitir_DuplicidadeEhSucessoIdempotente(t *testing.T) {
	nota := notaDeTeste(entity.ModeloNFe)
	b := novaBancada(t, nota)
	b.transmissor.protocolo = &sefaz.ProtocoloSefaz{CStat: "204", XMotivo: "Duplicidade de NF-e"}
	b.transmissor.consulta = &sefaz.ProtocoloSefaz{CStat: "100", XMotivo: "Autorizado", Protocolo: "135240000000789"}

	res, err := b.emissao.Emitir(context.Background(), notaTesteID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusAutorizada, res.Status)
	assert.Equal(t, "135240000000789", res.Protocolo, "protocolo recuperado pela consulta")
	require.Len(t, b.transmissor.consultas, 1)
	assert.Equal(t, nota.ChaveAcesso, b.transmissor.consultas[0])
}

func TestEmitir_EstadoNaoEmitivel(t *testing.T) {
	nota := notaDeTeste(entity.ModeloNFe)
	nota.Status = entity.StatusAutorizada
	b := novaBancada(t, nota)

	_, err := b.emissao.Emitir(context.Background(), notaTesteID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflitoEstado)
	assert.Empty(t, b.transmissor.lotesEnviados)
}

func TestEmitir_ReemissaoNaoQueimaNovoNumero(t *testing.T) {
	nota := notaDeTeste(entity.ModeloNFe)
	b := novaBancada(t, nota)
	b.transmissor.protocolo = &sefaz.ProtocoloSefaz{CStat: "539", XMotivo: "Rejeicao qualquer"}

	_, err := b.emissao.Emitir(context.Background(), notaTesteID)
	require.Error(t, err)
	chave := nota.ChaveAcesso
	numero := nota.Numero

	b.transmissor.protocolo = &sefaz.ProtocoloSefaz{CStat: "100", XMotivo: "Autorizado", Protocolo: "135240000000999"}
	res, err := b.emissao.Emitir(context.Background(), notaTesteID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusAutorizada, res.Status)
	assert.Equal(t, chave, nota.ChaveAcesso, "mesma chave na reemissão")
	assert.Equal(t, numero, nota.Numero, "mesmo número na reemissão")
	assert.Equal(t, 1, b.configRepo.consumos, "numeração consumida uma única vez")
}

func TestEmitir_SemCertificadoVigente(t *testing.T) {
	nota := notaDeTeste(entity.ModeloNFe)
	b := novaBancada(t, nota)
	b.certRepo.cert = nil

	_, err := b.emissao.Emitir(context.Background(), notaTesteID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCertificadoIndisponivel)
}
