package nfe_test

import (
	"testing"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/internal/domain/nfe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// TestCalculateChave_VetorExato valida que a montagem e o dígito verificador
// produzem a chave exata esperada para parâmetros conhecidos.
//
// Este teste é o "canário na mina" da integração SEFAZ: se alguém alterar a
// ordem dos campos, a largura do zero-padding ou o cálculo do módulo 11, a
// chave muda e a SEFAZ rejeita o lote por chave inválida (cStat 502).
//
// Vetor calculado manualmente:
//
//	base = "35" + "2401" + "11222333000181" + "55" + "001" + "000000042" +
//	       "1" + "00000042"  (43 dígitos)
//	dv   = 8
// ──────────────────────────────────────────────────────────────────────────────

const (
	testChaveEsperada = "35240111222333000181550010000000421000000428"
	testCNPJEmitente  = "11222333000181"
)

func buildChaveParams() *nfe.ChaveParams {
	return &nfe.ChaveParams{
		UF:          "SP",
		DataEmissao: time.Date(2024, 1, 15, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600)),
		CNPJ:        testCNPJEmitente,
		Modelo:      "55",
		Serie:       1,
		Numero:      42,
	}
}

func TestCalculateChave_VetorExato(t *testing.T) {
	svc := nfe.NewChaveCalculatorService()

	chave, err := svc.Calculate(buildChaveParams())
	require.NoError(t, err, "Calculate não deve falhar com parâmetros válidos")
	assert.Equal(t, testChaveEsperada, chave,
		"chave deve coincidir exatamente com o vetor de referência")
	assert.Len(t, chave, 44)
}

func TestCalculateChave_VetorNFCe(t *testing.T) {
	svc := nfe.NewChaveCalculatorService()

	chave, err := svc.Calculate(&nfe.ChaveParams{
		UF:          "RS",
		DataEmissao: time.Date(2023, 12, 3, 18, 30, 0, 0, time.UTC),
		CNPJ:        testCNPJEmitente,
		Modelo:      "65",
		Serie:       1,
		Numero:      1234,
	})
	require.NoError(t, err)
	assert.Equal(t, "43231211222333000181650010000012341000012348", chave)
}

// TestCalculateChave_Deterministica verifica que os mesmos parâmetros
// produzem sempre a mesma chave.
func TestCalculateChave_Deterministica(t *testing.T) {
	svc := nfe.NewChaveCalculatorService()

	c1, err1 := svc.Calculate(buildChaveParams())
	c2, err2 := svc.Calculate(buildChaveParams())

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, c1, c2, "o mesmo input sempre deve produzir a mesma chave")
}

// TestValidateChave_RoundTrip garante que toda chave gerada valida, e que a
// corrupção de qualquer dígito é detectada.
func TestValidateChave_RoundTrip(t *testing.T) {
	svc := nfe.NewChaveCalculatorService()
	chave, err := svc.Calculate(buildChaveParams())
	require.NoError(t, err)

	assert.NoError(t, nfe.ValidateChave(chave), "chave gerada deve validar")

	for pos := 0; pos < 44; pos++ {
		original := chave[pos]
		trocado := byte('0' + (int(original-'0')+1)%10)
		corrompida := chave[:pos] + string(trocado) + chave[pos+1:]
		assert.Error(t, nfe.ValidateChave(corrompida),
			"chave com dígito %d corrompido deve ser inválida", pos)
	}
}

// ── Erros de validação ────────────────────────────────────────────────────────

func TestCheckDigit_ErroTamanho(t *testing.T) {
	_, err := nfe.CheckDigit("123")
	assert.ErrorIs(t, err, domain.ErrValidacao, "base com menos de 43 dígitos deve falhar")

	_, err = nfe.CheckDigit("35240111222333000181550010000000421000000428")
	assert.ErrorIs(t, err, domain.ErrValidacao, "base com 44 dígitos deve falhar")
}

func TestCheckDigit_ErroNaoNumerico(t *testing.T) {
	base := "35240111222333000181550010000000421000000X2"
	_, err := nfe.CheckDigit(base)
	assert.ErrorIs(t, err, domain.ErrValidacao)
}

func TestCalculateChave_ErroSeNilParams(t *testing.T) {
	svc := nfe.NewChaveCalculatorService()
	_, err := svc.Calculate(nil)
	assert.Error(t, err)
}

func TestCalculateChave_ErroUFDesconhecida(t *testing.T) {
	svc := nfe.NewChaveCalculatorService()
	p := buildChaveParams()
	p.UF = "XX"
	_, err := svc.Calculate(p)
	assert.Error(t, err)
}

func TestCalculateChave_ErroCNPJInvalido(t *testing.T) {
	svc := nfe.NewChaveCalculatorService()
	p := buildChaveParams()
	p.CNPJ = "11222333000100"
	_, err := svc.Calculate(p)
	assert.Error(t, err)
}

func TestCalculateChave_ErroModeloInvalido(t *testing.T) {
	svc := nfe.NewChaveCalculatorService()
	p := buildChaveParams()
	p.Modelo = "99"
	_, err := svc.Calculate(p)
	assert.ErrorIs(t, err, domain.ErrValidacao)
}

func TestValidateChave_ErroTamanho(t *testing.T) {
	assert.ErrorIs(t, nfe.ValidateChave("123"), domain.ErrValidacao)
	assert.ErrorIs(t, nfe.ValidateChave(""), domain.ErrValidacao)
}

func TestValidateChave_ErroDigitoVerificador(t *testing.T) {
	chave := "35240111222333000181550010000000421000000429"
	assert.ErrorIs(t, nfe.ValidateChave(chave), domain.ErrValidacao)
}
