// Package nfe: geração da chave de acesso de 44 dígitos da NF-e/NFC-e.
// Composição: cUF(2) + AAMM(4) + CNPJ(14) + mod(2) + série(3) + nNF(9) +
// tpEmis(1) + cNF(8) + cDV(1). Dígito verificador por módulo 11.
package nfe

import (
	"fmt"
	"time"

	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/fiscalbr/nfe-api/pkg/fiscal"
)

// TpEmisNormal é o tipo de emissão normal (não contingência).
const TpEmisNormal = "1"

// ChaveParams contém os dados para montar a chave na ordem exigida pelo leiaute.
type ChaveParams struct {
	UF          string    // sigla da UF de emissão (ex: "SP")
	DataEmissao time.Time // fornece AAMM
	CNPJ        string    // CNPJ do emitente, somente dígitos
	Modelo      string    // "55" ou "65"
	Serie       int
	Numero      int
	TpEmis      string // vazio = emissão normal
	CodigoNF    int    // cNF; zero = usar o próprio número da nota
}

// ChaveCalculatorService monta e valida a chave de acesso.
type ChaveCalculatorService struct{}

// NewChaveCalculatorService cria o serviço.
func NewChaveCalculatorService() *ChaveCalculatorService {
	return &ChaveCalculatorService{}
}

// Calculate gera a chave de acesso completa (44 dígitos) a partir dos parâmetros.
// Determinística: os mesmos parâmetros produzem sempre a mesma chave.
func (s *ChaveCalculatorService) Calculate(p *ChaveParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("%w: parâmetros da chave são obrigatórios", domain.ErrValidacao)
	}
	cuf, ok := fiscal.UFCodes[p.UF]
	if !ok {
		return "", fmt.Errorf("%w: UF %q desconhecida", domain.ErrValidacao, p.UF)
	}
	if err := fiscal.ValidateCNPJ(p.CNPJ); err != nil {
		return "", fmt.Errorf("%w: CNPJ do emitente inválido: %v", domain.ErrValidacao, err)
	}
	if p.Modelo != "55" && p.Modelo != "65" {
		return "", fmt.Errorf("%w: modelo %q inválido (usar 55 ou 65)", domain.ErrValidacao, p.Modelo)
	}
	if p.Numero <= 0 || p.Numero > 999999999 {
		return "", fmt.Errorf("%w: número %d fora da faixa 1..999999999", domain.ErrValidacao, p.Numero)
	}
	if p.Serie < 0 || p.Serie > 999 {
		return "", fmt.Errorf("%w: série %d fora da faixa 0..999", domain.ErrValidacao, p.Serie)
	}
	tpEmis := p.TpEmis
	if tpEmis == "" {
		tpEmis = TpEmisNormal
	}
	codigoNF := p.CodigoNF
	if codigoNF == 0 {
		codigoNF = p.Numero
	}

	base := cuf +
		p.DataEmissao.Format("0601") + // AAMM
		p.CNPJ +
		p.Modelo +
		fmt.Sprintf("%03d", p.Serie) +
		fmt.Sprintf("%09d", p.Numero) +
		tpEmis +
		fmt.Sprintf("%08d", codigoNF)

	dv, err := CheckDigit(base)
	if err != nil {
		return "", err
	}
	return base + string(dv), nil
}

// CheckDigit calcula o dígito verificador dos 43 primeiros dígitos da chave.
// Algoritmo: dígitos invertidos, pesos cíclicos 2..9, soma, módulo 11 com
// piso (resto < 2 vira 0). Erro se a entrada não tiver exatamente 43 dígitos.
func CheckDigit(base string) (byte, error) {
	if len(base) != 43 {
		return 0, fmt.Errorf("%w: base da chave deve ter 43 dígitos, recebidos %d", domain.ErrValidacao, len(base))
	}
	pesos := [8]int{2, 3, 4, 5, 6, 7, 8, 9}
	var soma int
	for i := 0; i < 43; i++ {
		ch := base[42-i]
		if ch < '0' || ch > '9' {
			return 0, fmt.Errorf("%w: base da chave contém caractere não numérico %q", domain.ErrValidacao, ch)
		}
		soma += int(ch-'0') * pesos[i%8]
	}
	resto := soma % 11
	if resto < 2 {
		return '0', nil
	}
	return byte('0' + (11 - resto)), nil
}

// ValidateChave valida formato e dígito verificador de uma chave de 44 dígitos.
func ValidateChave(chave string) error {
	if len(chave) != 44 {
		return fmt.Errorf("%w: chave de acesso deve ter 44 dígitos, recebidos %d", domain.ErrValidacao, len(chave))
	}
	dv, err := CheckDigit(chave[:43])
	if err != nil {
		return err
	}
	if chave[43] != dv {
		return fmt.Errorf("%w: dígito verificador da chave inválido: esperado %c, recebido %c", domain.ErrValidacao, dv, chave[43])
	}
	if _, ok := fiscal.UFFromCode[chave[:2]]; !ok {
		return fmt.Errorf("%w: código de UF %q desconhecido na chave", domain.ErrValidacao, chave[:2])
	}
	return nil
}
