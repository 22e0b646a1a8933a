package nfe_test

import (
	"testing"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/internal/domain/nfe"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calcFixa(t *testing.T) *nfe.CalculadoraImpostos {
	t.Helper()
	return nfe.NewCalculadoraImpostos(nil)
}

// Cenário de referência: empresa em SP, regime normal, vendendo para cliente
// no RJ com uma linha de 100,00 → ICMS interestadual 12%, valor 12,00;
// o total da nota continua 100,00 (ICMS por dentro).
func TestCalcular_InterestadualSPparaRJ(t *testing.T) {
	imp, err := calcFixa(t).Calcular(nfe.RegimeNaoCumulativo, "SP", "RJ", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	assert.Equal(t, "12", imp.ICMS.Aliquota.String(), "SP→RJ resolve para 12%%")
	assert.Equal(t, "12.00", imp.ICMS.Valor.StringFixed(2))
	assert.Equal(t, "100.00", imp.ICMS.Base.StringFixed(2))
	assert.Equal(t, "00", imp.ICMS.CST)
}

func TestCalcular_OperacaoInterna(t *testing.T) {
	imp, err := calcFixa(t).Calcular(nfe.RegimeCumulativo, "SP", "SP", decimal.RequireFromString("200.00"))
	require.NoError(t, err)

	assert.Equal(t, "18", imp.ICMS.Aliquota.String(), "alíquota interna de SP")
	assert.Equal(t, "36.00", imp.ICMS.Valor.StringFixed(2))
}

func TestCalcular_InterestadualParaNorteNordeste(t *testing.T) {
	calc := calcFixa(t)

	casos := []struct {
		origem, destino, esperada string
	}{
		{"SP", "BA", "7"},  // Sudeste → Nordeste
		{"SP", "ES", "7"},  // ES recebe a alíquota reduzida
		{"RS", "PA", "7"},  // Sul → Norte
		{"SP", "MG", "12"}, // Sudeste → Sudeste
		{"BA", "SP", "12"}, // origem fora do Sul/Sudeste
		{"BA", "PE", "12"},
	}
	for _, c := range casos {
		imp, err := calc.Calcular(nfe.RegimeNaoCumulativo, c.origem, c.destino, decimal.RequireFromString("100.00"))
		require.NoError(t, err)
		assert.Equal(t, c.esperada, imp.ICMS.Aliquota.String(), "%s→%s", c.origem, c.destino)
	}
}

// Regime Simples: ICMS e PIS/COFINS não destacados: base, alíquota e valor
// exatamente zero; CSOSN 102, CST 99.
func TestCalcular_SimplesNacionalZeraTributos(t *testing.T) {
	imp, err := calcFixa(t).Calcular(nfe.RegimeSimplesNacional, "SP", "RJ", decimal.RequireFromString("1000.00"))
	require.NoError(t, err)

	assert.Equal(t, "102", imp.ICMS.CST)
	assert.True(t, imp.ICMS.Base.IsZero())
	assert.True(t, imp.ICMS.Aliquota.IsZero())
	assert.True(t, imp.ICMS.Valor.IsZero())

	assert.Equal(t, "99", imp.PIS.CST)
	assert.True(t, imp.PIS.Valor.IsZero())
	assert.Equal(t, "99", imp.COFINS.CST)
	assert.True(t, imp.COFINS.Valor.IsZero())
}

func TestCalcular_PISCOFINSPorRegime(t *testing.T) {
	calc := calcFixa(t)
	valor := decimal.RequireFromString("1000.00")

	impPresumido, err := calc.Calcular(nfe.RegimeCumulativo, "SP", "SP", valor)
	require.NoError(t, err)
	assert.Equal(t, "0.6500", impPresumido.PIS.Aliquota.StringFixed(4))
	assert.Equal(t, "6.50", impPresumido.PIS.Valor.StringFixed(2))
	assert.Equal(t, "3.0000", impPresumido.COFINS.Aliquota.StringFixed(4))
	assert.Equal(t, "30.00", impPresumido.COFINS.Valor.StringFixed(2))

	impReal, err := calc.Calcular(nfe.RegimeNaoCumulativo, "SP", "SP", valor)
	require.NoError(t, err)
	assert.Equal(t, "1.6500", impReal.PIS.Aliquota.StringFixed(4))
	assert.Equal(t, "16.50", impReal.PIS.Valor.StringFixed(2))
	assert.Equal(t, "7.6000", impReal.COFINS.Aliquota.StringFixed(4))
	assert.Equal(t, "76.00", impReal.COFINS.Valor.StringFixed(2))
}

func TestCalcular_IPISempreZerado(t *testing.T) {
	imp, err := calcFixa(t).Calcular(nfe.RegimeNaoCumulativo, "SP", "RJ", decimal.RequireFromString("500.00"))
	require.NoError(t, err)
	assert.Equal(t, "53", imp.IPI.CST)
	assert.True(t, imp.IPI.Valor.IsZero())
}

func TestCalcular_ErroValorNegativo(t *testing.T) {
	_, err := calcFixa(t).Calcular(nfe.RegimeNaoCumulativo, "SP", "RJ", decimal.RequireFromString("-1"))
	assert.Error(t, err)
}

func TestTabela_OverrideInterestadual(t *testing.T) {
	tabela := nfe.NewTabelaAliquotas()
	tabela.DefinirInterestadual("SP", "RJ", decimal.RequireFromString("4"))

	calc := nfe.NewCalculadoraImpostos(tabela)
	imp, err := calc.Calcular(nfe.RegimeNaoCumulativo, "SP", "RJ", decimal.RequireFromString("100.00"))
	require.NoError(t, err)
	assert.Equal(t, "4", imp.ICMS.Aliquota.String(), "override do par deve prevalecer sobre a regra geral")
}

func TestTotalizarNota_ICMSPorDentro(t *testing.T) {
	nota := &entity.NotaFiscal{
		Itens: []entity.ItemNotaFiscal{
			{
				ValorTotal:  decimal.RequireFromString("100.00"),
				ValorICMS:   decimal.RequireFromString("12.00"),
				ValorPIS:    decimal.RequireFromString("1.65"),
				ValorCOFINS: decimal.RequireFromString("7.60"),
			},
		},
	}
	nfe.TotalizarNota(nota)

	assert.Equal(t, "100.00", nota.ValorProdutos.StringFixed(2))
	assert.Equal(t, "100.00", nota.ValorTotal.StringFixed(2), "ICMS não soma ao total")
	assert.Equal(t, "12.00", nota.ValorICMS.StringFixed(2))
}
