// Cálculo de impostos por linha (ICMS, IPI, PIS, COFINS) conforme o regime
// tributário e o par origem/destino da operação. Função pura: sem I/O.
package nfe

import (
	"fmt"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/pkg/fiscal"
	"github.com/shopspring/decimal"
)

// TributoLinha é a tripla (base, alíquota, valor) de um imposto, com o código
// de situação tributária correspondente.
type TributoLinha struct {
	CST      string
	Base     decimal.Decimal
	Aliquota decimal.Decimal
	Valor    decimal.Decimal
}

// ImpostosLinha agrupa os tributos calculados para uma linha da nota.
type ImpostosLinha struct {
	ICMS   TributoLinha
	IPI    TributoLinha
	PIS    TributoLinha
	COFINS TributoLinha
}

// CalculadoraImpostos resolve os tributos de cada linha a partir da tabela de
// alíquotas. Determinística; valores monetários com 2 casas, alíquotas com 4.
type CalculadoraImpostos struct {
	tabela *TabelaAliquotas
}

// NewCalculadoraImpostos cria a calculadora com a tabela informada
// (nil = tabela padrão compilada).
func NewCalculadoraImpostos(tabela *TabelaAliquotas) *CalculadoraImpostos {
	if tabela == nil {
		tabela = NewTabelaAliquotas()
	}
	return &CalculadoraImpostos{tabela: tabela}
}

// Calcular computa os tributos de uma linha. No Simples Nacional o ICMS e o
// PIS/COFINS não são destacados na nota (base, alíquota e valor zerados;
// CSOSN 102 / CST 99): o recolhimento ocorre em guia única. O IPI é sempre
// zerado (CST 53): imposto de industrialização fora do escopo do emissor.
func (c *CalculadoraImpostos) Calcular(regime, ufOrigem, ufDestino string, valorLinha decimal.Decimal) (*ImpostosLinha, error) {
	if valorLinha.IsNegative() {
		return nil, fmt.Errorf("nfe: valor da linha não pode ser negativo")
	}

	out := &ImpostosLinha{
		IPI: TributoLinha{CST: fiscal.CSTIPINaoTributada},
	}

	if regime == RegimeSimplesNacional {
		out.ICMS = TributoLinha{CST: fiscal.CSOSNSemCredito}
		out.PIS = TributoLinha{CST: fiscal.CSTPisCofinsOutras}
		out.COFINS = TributoLinha{CST: fiscal.CSTPisCofinsOutras}
		return out, nil
	}

	aliqICMS := c.tabela.ICMS(ufOrigem, ufDestino).Round(4)
	base := valorLinha.Round(2)
	out.ICMS = TributoLinha{
		CST:      fiscal.CSTICMSTributadaIntegral,
		Base:     base,
		Aliquota: aliqICMS,
		Valor:    base.Mul(aliqICMS).Div(decimal.NewFromInt(100)).Round(2),
	}

	aliqPIS, aliqCOFINS := c.tabela.PISCOFINS(regime)
	out.PIS = TributoLinha{
		CST:      fiscal.CSTPisCofinsAliquotaBasica,
		Base:     base,
		Aliquota: aliqPIS.Round(4),
		Valor:    base.Mul(aliqPIS).Div(decimal.NewFromInt(100)).Round(2),
	}
	out.COFINS = TributoLinha{
		CST:      fiscal.CSTPisCofinsAliquotaBasica,
		Base:     base,
		Aliquota: aliqCOFINS.Round(4),
		Valor:    base.Mul(aliqCOFINS).Div(decimal.NewFromInt(100)).Round(2),
	}
	return out, nil
}

// AplicarAoItem grava os tributos calculados nos campos do item.
func (t *ImpostosLinha) AplicarAoItem(item *entity.ItemNotaFiscal) {
	item.CSTICMS = t.ICMS.CST
	item.BaseICMS = t.ICMS.Base
	item.AliquotaICMS = t.ICMS.Aliquota
	item.ValorICMS = t.ICMS.Valor

	item.CSTIPI = t.IPI.CST
	item.BaseIPI = t.IPI.Base
	item.AliquotaIPI = t.IPI.Aliquota
	item.ValorIPI = t.IPI.Valor

	item.CSTPIS = t.PIS.CST
	item.BasePIS = t.PIS.Base
	item.AliquotaPIS = t.PIS.Aliquota
	item.ValorPIS = t.PIS.Valor

	item.CSTCOFINS = t.COFINS.CST
	item.BaseCOFINS = t.COFINS.Base
	item.AliquotaCOFINS = t.COFINS.Aliquota
	item.ValorCOFINS = t.COFINS.Valor
}

// TotalizarNota recalcula os agregados da nota a partir dos itens.
// O ICMS é "por dentro": não soma ao valor total dos produtos.
func TotalizarNota(nota *entity.NotaFiscal) {
	var produtos, desconto, icms, ipi, pis, cofins decimal.Decimal
	for i := range nota.Itens {
		it := &nota.Itens[i]
		produtos = produtos.Add(it.ValorTotal)
		desconto = desconto.Add(it.ValorDesconto)
		icms = icms.Add(it.ValorICMS)
		ipi = ipi.Add(it.ValorIPI)
		pis = pis.Add(it.ValorPIS)
		cofins = cofins.Add(it.ValorCOFINS)
	}
	nota.ValorProdutos = produtos.Round(2)
	nota.ValorDesconto = desconto.Round(2)
	nota.ValorICMS = icms.Round(2)
	nota.ValorIPI = ipi.Round(2)
	nota.ValorPIS = pis.Round(2)
	nota.ValorCOFINS = cofins.Round(2)
	nota.ValorTotal = produtos.Sub(desconto).
		Add(nota.ValorFrete).Add(nota.ValorSeguro).Add(nota.ValorOutros).
		Add(ipi).Round(2)
}
