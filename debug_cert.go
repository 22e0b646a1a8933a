package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

// Diagnóstico rápido de certificado A1: confirma que o arquivo .p12/.pfx
// abre com a senha configurada antes de apontar a API para ele.
//
// Uso: go run debug_cert.go caminho/certificado.p12
// A senha é lida de SEFAZ_CERT_PASSWORD.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: debug_cert <caminho do .p12/.pfx>")
		os.Exit(1)
	}
	certPath := os.Args[1]
	certPass := os.Getenv("SEFAZ_CERT_PASSWORD")

	fmt.Println("🔍 DIAGNÓSTICO DE CERTIFICADO A1")
	fmt.Println("--------------------------------")
	fmt.Printf("📂 Tentando ler: %s\n", certPath)

	p12Data, err := os.ReadFile(certPath)
	if err != nil {
		fmt.Println("\n❌ ERRO DE ARQUIVO:")
		fmt.Println("   Não foi possível encontrar ou abrir o arquivo.")
		fmt.Printf("   Detalhe técnico: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Arquivo encontrado. Tamanho: %d bytes\n", len(p12Data))

	fmt.Println("\n🔐 Tentando decodificar o PKCS#12 com a senha...")
	_, _, err = pkcs12.Decode(p12Data, certPass)
	if err != nil {
		fmt.Println("\n❌ ERRO DE SENHA OU FORMATO:")
		fmt.Println("   O arquivo existe, mas a senha em SEFAZ_CERT_PASSWORD falhou ou o arquivo está corrompido.")
		fmt.Printf("   Detalhe técnico: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n✨ SUCESSO! Certificado e senha conferem.")
	fmt.Println("   Se a API ainda falhar, o problema está na carga do .env, não no arquivo.")
}
