// Carga do certificado A1 a partir de .p12/.pfx ou par PEM.

package signer

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"
)

// LoadFromP12 carrega certificado e chave privada de um arquivo .p12/.pfx.
// A senha pode ser vazia se o arquivo não estiver protegido.
func LoadFromP12(path, senha string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("ler p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, senha)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	// pkcs12.Decode devolve um único certificado; para a SEFAZ basta a folha.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEM carrega certificado e chave de arquivos PEM (separados ou combinados).
func LoadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("carregar PEM: %w", err)
	}
	return cert, nil
}

// Validade devolve a janela de validade do certificado carregado.
func Validade(cert tls.Certificate) (inicio, fim time.Time, err error) {
	leaf := cert.Leaf
	if leaf == nil {
		if len(cert.Certificate) == 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("certificado vazio")
		}
		leaf, err = x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsear certificado: %w", err)
		}
	}
	return leaf.NotBefore, leaf.NotAfter, nil
}
