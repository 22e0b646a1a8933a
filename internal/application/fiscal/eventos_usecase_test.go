package fiscal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz"
	"github.com/fiscalbr/nfe-api/internal/infrastructure/sefaz/signer"
)

const chaveAutorizada = "35240111222333000181550010000000421000000428"

type fakeEmpresaRepo struct {
	empresa *entity.Empresa
}

func (r *fakeEmpresaRepo) Create(context.Context, *entity.Empresa) error { return nil }

func (r *fakeEmpresaRepo) GetByID(_ context.Context, id string) (*entity.Empresa, error) {
	if r.empresa == nil || r.empresa.ID != id {
		return nil, domain.ErrNaoEncontrado
	}
	return r.empresa, nil
}

func (r *fakeEmpresaRepo) List(context.Context) ([]*entity.Empresa, error) {
	if r.empresa == nil {
		return nil, nil
	}
	return []*entity.Empresa{r.empresa}, nil
}

// notaAutorizada devolve uma nota recém-autorizada, dentro da janela de 24h.
func notaAutorizada() *entity.NotaFiscal {
	nota := notaDeTeste(entity.ModeloNFe)
	autorizacao := time.Now().Add(-2 * time.Hour)
	nota.Status = entity.StatusAutorizada
	nota.ChaveAcesso = chaveAutorizada
	nota.Numero = 42
	nota.Serie = 1
	nota.Protocolo = "135240000000123"
	nota.DataAutorizacao = &autorizacao
	return nota
}

type bancadaEventos struct {
	notaRepo    *fakeNotaRepo
	eventoRepo  *fakeEventoRepo
	transmissor *fakeTransmissor
	eventos     *EventosUseCase
}

func novaBancadaEventos(t *testing.T, nota *entity.NotaFiscal) *bancadaEventos {
	t.Helper()
	b := &bancadaEventos{
		notaRepo:    newFakeNotaRepo(nota),
		eventoRepo:  &fakeEventoRepo{},
		transmissor: &fakeTransmissor{},
	}
	configRepo := &fakeConfigRepo{config: configDeTeste()}
	certRepo := &fakeCertRepo{cert: certificadoPEMDeTeste(t)}
	empresaRepo := &fakeEmpresaRepo{empresa: &entity.Empresa{
		ID: empresaTesteID, RazaoSocial: "Empresa Teste LTDA", CNPJ: "11222333000181",
	}}
	tx := &fakeTx{notaRepo: b.notaRepo, configRepo: configRepo, eventoRepo: b.eventoRepo}
	b.eventos = NewEventosUseCase(
		b.notaRepo, b.eventoRepo, configRepo, certRepo, empresaRepo, tx,
		sefaz.NewEventoBuilderService(),
		signer.NewDigitalSignatureService(), b.transmissor,
	)
	return b
}

// ── cancelamento ──────────────────────────────────────────────────────────────

func TestCancelar_DentroDaJanela(t *testing.T) {
	nota := notaAutorizada()
	b := novaBancadaEventos(t, nota)
	b.transmissor.evento = &sefaz.RetornoEvento{
		CStat: "135", XMotivo: "Evento registrado e vinculado a NF-e", Protocolo: "135240000000200",
	}

	res, err := b.eventos.Cancelar(context.Background(), notaTesteID, "Erro no valor dos produtos informados")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusCancelada, res.Status)
	assert.Equal(t, "135", res.CStat)
	assert.Equal(t, entity.StatusCancelada, nota.Status)

	require.Len(t, b.eventoRepo.eventos, 1)
	ev := b.eventoRepo.eventos[0]
	assert.Equal(t, entity.EventoCancelamento, ev.Tipo)
	assert.Equal(t, 1, ev.Sequencia)
	assert.Equal(t, "135240000000200", ev.Protocolo)
	assert.Contains(t, ev.XMLEvento, "<Signature", "evento assinado foi o registrado")

	require.Len(t, b.transmissor.eventosEnviado, 1)
	assert.Contains(t, string(b.transmissor.eventosEnviado[0]), "<envEvento")
	assert.Contains(t, string(b.transmissor.eventosEnviado[0]), "110111")
}

func TestCancelar_ForaDaJanelaNaoTocaRede(t *testing.T) {
	nota := notaAutorizada()
	antiga := time.Now().Add(-25 * time.Hour)
	nota.DataAutorizacao = &antiga
	b := novaBancadaEventos(t, nota)

	_, err := b.eventos.Cancelar(context.Background(), notaTesteID, "Erro no valor dos produtos informados")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflitoEstado)

	assert.Empty(t, b.transmissor.eventosEnviado, "nada foi enviado à SEFAZ")
	assert.Equal(t, entity.StatusAutorizada, nota.Status)
}

func TestCancelar_SoNotaAutorizada(t *testing.T) {
	nota := notaAutorizada()
	nota.Status = entity.StatusPendente
	b := novaBancadaEventos(t, nota)

	_, err := b.eventos.Cancelar(context.Background(), notaTesteID, "Erro no valor dos produtos informados")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflitoEstado)
}

func TestCancelar_JustificativaCurta(t *testing.T) {
	b := novaBancadaEventos(t, notaAutorizada())

	_, err := b.eventos.Cancelar(context.Background(), notaTesteID, "curta demais")
	require.Error(t, err)
	assert.Empty(t, b.transmissor.eventosEnviado)
}

func TestCancelar_RejeicaoSefazNaoMudaEstado(t *testing.T) {
	nota := notaAutorizada()
	b := novaBancadaEventos(t, nota)
	b.transmissor.evento = &sefaz.RetornoEvento{CStat: "573", XMotivo: "Duplicidade de evento"}

	_, err := b.eventos.Cancelar(context.Background(), notaTesteID, "Erro no valor dos produtos informados")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRejeitadoSefaz)

	assert.Equal(t, entity.StatusAutorizada, nota.Status)
	assert.Empty(t, b.eventoRepo.eventos)
}

// ── carta de correção ─────────────────────────────────────────────────────────

func TestCartaCorrecao_SequenciaCrescente(t *testing.T) {
	nota := notaAutorizada()
	b := novaBancadaEventos(t, nota)
	b.transmissor.evento = &sefaz.RetornoEvento{CStat: "135", XMotivo: "Evento registrado", Protocolo: "135240000000300"}

	res, err := b.eventos.CartaCorrecao(context.Background(), notaTesteID, "Corrigir a natureza da operacao informada")
	require.NoError(t, err)
	assert.Equal(t, "135", res.CStat)

	res, err = b.eventos.CartaCorrecao(context.Background(), notaTesteID, "Corrigir o endereco de entrega informado")
	require.NoError(t, err)
	require.NotNil(t, res)

	require.Len(t, b.eventoRepo.eventos, 2)
	assert.Equal(t, 1, b.eventoRepo.eventos[0].Sequencia)
	assert.Equal(t, 2, b.eventoRepo.eventos[1].Sequencia)
	assert.Equal(t, 2, nota.CartasCorrecao)

	// nSeqEvento aparece no XML do segundo evento
	assert.Contains(t, b.eventoRepo.eventos[1].XMLEvento, "<nSeqEvento>2</nSeqEvento>")
}

func TestCartaCorrecao_VigesimaPrimeiraBarrada(t *testing.T) {
	nota := notaAutorizada()
	b := novaBancadaEventos(t, nota)
	for i := 1; i <= entity.MaxCartasCorrecao; i++ {
		b.eventoRepo.eventos = append(b.eventoRepo.eventos, &entity.EventoFiscal{
			NotaFiscalID: nota.ID,
			Tipo:         entity.EventoCartaCorrecao,
			Sequencia:    i,
			Descricao:    fmt.Sprintf("correcao de numero %d registrada", i),
		})
	}

	_, err := b.eventos.CartaCorrecao(context.Background(), notaTesteID, "Corrigir a natureza da operacao informada")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflitoEstado)
	assert.Empty(t, b.transmissor.eventosEnviado, "barrada antes de assinar ou transmitir")
}

func TestCartaCorrecao_NotaCancelada(t *testing.T) {
	nota := notaAutorizada()
	nota.Status = entity.StatusCancelada
	b := novaBancadaEventos(t, nota)

	_, err := b.eventos.CartaCorrecao(context.Background(), notaTesteID, "Corrigir a natureza da operacao informada")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflitoEstado)
}

// ── inutilização ──────────────────────────────────────────────────────────────

func TestInutilizar_FaixaHomologada(t *testing.T) {
	b := novaBancadaEventos(t, notaAutorizada())
	b.transmissor.inutilizacao = &sefaz.RetornoInutilizacao{
		CStat: "102", XMotivo: "Inutilizacao de numero homologado", Protocolo: "135240000000400",
	}

	res, err := b.eventos.Inutilizar(context.Background(), empresaTesteID, entity.ModeloNFe, 1, 100, 110,
		"Falha no sistema emissor pulou a faixa de numeracao")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusInutilizada, res.Status)
	assert.Equal(t, "102", res.CStat)
	assert.Equal(t, "135240000000400", res.Protocolo)

	require.Len(t, b.eventoRepo.eventos, 1)
	ev := b.eventoRepo.eventos[0]
	assert.Equal(t, entity.EventoInutilizacao, ev.Tipo)
	assert.Empty(t, ev.NotaFiscalID, "evento é avulso da empresa")
	assert.Contains(t, ev.Descricao, "100 a 110")

	// Cada número da faixa vira uma nota terminal em Inutilizada.
	inutilizadas := notasPorStatus(b.notaRepo, entity.StatusInutilizada)
	require.Len(t, inutilizadas, 11)
	numeros := map[int]bool{}
	for _, n := range inutilizadas {
		numeros[n.Numero] = true
		assert.Equal(t, empresaTesteID, n.EmpresaID)
		assert.Equal(t, entity.ModeloNFe, n.Modelo)
		assert.Equal(t, 1, n.Serie)
		assert.Equal(t, "135240000000400", n.Protocolo)
		assert.NotEmpty(t, n.MotivoRejeicao)
	}
	for numero := 100; numero <= 110; numero++ {
		assert.True(t, numeros[numero], "número %d da faixa sem nota inutilizada", numero)
	}
}

// notasPorStatus filtra o conteúdo do repositório fake pelo status.
func notasPorStatus(r *fakeNotaRepo, status string) []*entity.NotaFiscal {
	var out []*entity.NotaFiscal
	for _, n := range r.notas {
		if n.Status == status {
			out = append(out, n)
		}
	}
	return out
}

func TestInutilizar_RejeicaoNaoRegistraEvento(t *testing.T) {
	b := novaBancadaEventos(t, notaAutorizada())
	b.transmissor.inutilizacao = &sefaz.RetornoInutilizacao{CStat: "241", XMotivo: "Um numero da faixa ja foi utilizado"}

	_, err := b.eventos.Inutilizar(context.Background(), empresaTesteID, entity.ModeloNFe, 1, 100, 110,
		"Falha no sistema emissor pulou a faixa de numeracao")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRejeitadoSefaz)
	assert.Empty(t, b.eventoRepo.eventos)
	assert.Empty(t, notasPorStatus(b.notaRepo, entity.StatusInutilizada), "faixa recusada não cria nota")
}

// ── consulta e reconciliação ──────────────────────────────────────────────────

func TestConsultarSituacao_ReconciliaAutorizada(t *testing.T) {
	nota := notaAutorizada()
	nota.Status = entity.StatusProcessando
	nota.Protocolo = ""
	nota.DataAutorizacao = nil
	notaRepo := newFakeNotaRepo(nota)
	tr := &fakeTransmissor{consulta: &sefaz.ProtocoloSefaz{
		CStat: "100", XMotivo: "Autorizado o uso da NF-e",
		Protocolo: "135240000000500", Recebimento: "2024-01-15T10:05:00-03:00",
	}}
	uc := NewConsultaUseCase(notaRepo, &fakeEventoRepo{}, &fakeCertRepo{cert: certificadoPEMDeTeste(t)}, tr)

	res, err := uc.ConsultarSituacao(context.Background(), notaTesteID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusAutorizada, res.Status)
	assert.Equal(t, entity.StatusAutorizada, nota.Status)
	assert.Equal(t, "135240000000500", nota.Protocolo)
	require.NotNil(t, nota.DataAutorizacao)
}

func TestConsultarSituacao_LoteNuncaChegouVoltaParaPendente(t *testing.T) {
	nota := notaAutorizada()
	nota.Status = entity.StatusProcessando
	notaRepo := newFakeNotaRepo(nota)
	tr := &fakeTransmissor{consulta: &sefaz.ProtocoloSefaz{CStat: "217", XMotivo: "NF-e nao consta na base de dados da SEFAZ"}}
	uc := NewConsultaUseCase(notaRepo, &fakeEventoRepo{}, &fakeCertRepo{cert: certificadoPEMDeTeste(t)}, tr)

	res, err := uc.ConsultarSituacao(context.Background(), notaTesteID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusPendente, res.Status)
}

func TestConsultarSituacao_CanceladaNaSefaz(t *testing.T) {
	nota := notaAutorizada()
	notaRepo := newFakeNotaRepo(nota)
	tr := &fakeTransmissor{consulta: &sefaz.ProtocoloSefaz{CStat: "101", XMotivo: "Cancelamento de NF-e homologado"}}
	uc := NewConsultaUseCase(notaRepo, &fakeEventoRepo{}, &fakeCertRepo{cert: certificadoPEMDeTeste(t)}, tr)

	res, err := uc.ConsultarSituacao(context.Background(), notaTesteID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusCancelada, res.Status)
	assert.Equal(t, entity.StatusCancelada, nota.Status)
}

func TestConsultarSituacao_SemChave(t *testing.T) {
	nota := notaDeTeste(entity.ModeloNFe)
	uc := NewConsultaUseCase(newFakeNotaRepo(nota), &fakeEventoRepo{}, &fakeCertRepo{cert: certificadoPEMDeTeste(t)}, &fakeTransmissor{})

	_, err := uc.ConsultarSituacao(context.Background(), notaTesteID)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidacao)
}
