// Package fiscal: validação de identificadores fiscais brasileiros (CPF, CNPJ,
// NCM, CEST) pelo algoritmo módulo 11 da Receita Federal.
package fiscal

import (
	"fmt"
	"unicode"
)

// pesos do primeiro e segundo dígito verificador do CNPJ.
var (
	cnpjWeightsFirst  = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeightsSecond = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// ValidateCPF valida um CPF (com ou sem pontuação) pelos dois dígitos
// verificadores. Sequências com todos os dígitos iguais são rejeitadas.
func ValidateCPF(cpf string) error {
	digits := extractDigits(cpf)
	if len(digits) != 11 {
		return fmt.Errorf("fiscal: CPF deve ter 11 dígitos, encontrados %d", len(digits))
	}
	if allSameDigits(digits) {
		return fmt.Errorf("fiscal: CPF com todos os dígitos iguais é inválido")
	}
	dv1 := mod11Digit(weightedSumDescending(digits[:9], 10))
	if digits[9] != dv1 {
		return fmt.Errorf("fiscal: primeiro dígito verificador do CPF inválido: esperado %c, recebido %c", dv1, digits[9])
	}
	dv2 := mod11Digit(weightedSumDescending(digits[:10], 11))
	if digits[10] != dv2 {
		return fmt.Errorf("fiscal: segundo dígito verificador do CPF inválido: esperado %c, recebido %c", dv2, digits[10])
	}
	return nil
}

// ValidateCNPJ valida um CNPJ (com ou sem pontuação) pelos dois dígitos
// verificadores. Sequências com todos os dígitos iguais são rejeitadas.
func ValidateCNPJ(cnpj string) error {
	digits := extractDigits(cnpj)
	if len(digits) != 14 {
		return fmt.Errorf("fiscal: CNPJ deve ter 14 dígitos, encontrados %d", len(digits))
	}
	if allSameDigits(digits) {
		return fmt.Errorf("fiscal: CNPJ com todos os dígitos iguais é inválido")
	}
	var sum int
	for i := 0; i < 12; i++ {
		sum += int(digits[i]-'0') * cnpjWeightsFirst[i]
	}
	dv1 := mod11Digit(sum)
	if digits[12] != dv1 {
		return fmt.Errorf("fiscal: primeiro dígito verificador do CNPJ inválido: esperado %c, recebido %c", dv1, digits[12])
	}
	sum = 0
	for i := 0; i < 13; i++ {
		sum += int(digits[i]-'0') * cnpjWeightsSecond[i]
	}
	dv2 := mod11Digit(sum)
	if digits[13] != dv2 {
		return fmt.Errorf("fiscal: segundo dígito verificador do CNPJ inválido: esperado %c, recebido %c", dv2, digits[13])
	}
	return nil
}

// ComputeCPFCheckDigits calcula os dois dígitos verificadores para os 9
// primeiros dígitos de um CPF. Útil para gerar massas de teste.
func ComputeCPFCheckDigits(base string) (string, error) {
	digits := extractDigits(base)
	if len(digits) < 9 {
		return "", fmt.Errorf("fiscal: são necessários 9 dígitos para calcular os verificadores do CPF, encontrados %d", len(digits))
	}
	digits = digits[:9]
	dv1 := mod11Digit(weightedSumDescending(digits, 10))
	digits = append(digits, dv1)
	dv2 := mod11Digit(weightedSumDescending(digits, 11))
	return string([]byte{dv1, dv2}), nil
}

// ComputeCNPJCheckDigits calcula os dois dígitos verificadores para os 12
// primeiros dígitos de um CNPJ.
func ComputeCNPJCheckDigits(base string) (string, error) {
	digits := extractDigits(base)
	if len(digits) < 12 {
		return "", fmt.Errorf("fiscal: são necessários 12 dígitos para calcular os verificadores do CNPJ, encontrados %d", len(digits))
	}
	digits = digits[:12]
	var sum int
	for i, d := range digits {
		sum += int(d-'0') * cnpjWeightsFirst[i]
	}
	dv1 := mod11Digit(sum)
	digits = append(digits, dv1)
	sum = 0
	for i, d := range digits {
		sum += int(d-'0') * cnpjWeightsSecond[i]
	}
	dv2 := mod11Digit(sum)
	return string([]byte{dv1, dv2}), nil
}

// ValidateNCM valida o formato da Nomenclatura Comum do Mercosul (8 dígitos).
func ValidateNCM(ncm string) error {
	digits := extractDigits(ncm)
	if len(digits) != 8 || len(digits) != len(ncm) {
		return fmt.Errorf("fiscal: NCM deve ter exatamente 8 dígitos numéricos")
	}
	return nil
}

// ValidateCEST valida o Código Especificador da Substituição Tributária
// (7 dígitos). Campo opcional: string vazia é aceita.
func ValidateCEST(cest string) error {
	if cest == "" {
		return nil
	}
	digits := extractDigits(cest)
	if len(digits) != 7 {
		return fmt.Errorf("fiscal: CEST deve ter exatamente 7 dígitos")
	}
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// weightedSumDescending soma digits[i] * (maxWeight - i).
func weightedSumDescending(digits []byte, maxWeight int) int {
	var sum int
	for i, d := range digits {
		sum += int(d-'0') * (maxWeight - i)
	}
	return sum
}

// mod11Digit aplica a regra módulo 11 da Receita: resto < 2 vira 0.
func mod11Digit(sum int) byte {
	resto := sum % 11
	if resto < 2 {
		return '0'
	}
	return byte('0' + (11 - resto))
}

func allSameDigits(digits []byte) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
