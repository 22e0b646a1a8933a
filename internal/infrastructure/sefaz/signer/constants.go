// Constantes da assinatura XML-DSig exigida pelo Portal da NF-e.
// Os algoritmos (SHA-1 + RSA PKCS#1 v1.5) são fixados pelo schema oficial:
// não podem ser "modernizados" sem quebrar a interoperabilidade com a SEFAZ.

package signer

// Namespace XMLDSig.
const NamespaceDS = "http://www.w3.org/2000/09/xmldsig#"

// Algoritmos fixados pelo leiaute da NF-e.
const (
	AlgC14N            = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	AlgRSASHA1         = "http://www.w3.org/2000/09/xmldsig#rsa-sha1"
	AlgSHA1            = "http://www.w3.org/2000/09/xmldsig#sha1"
	TransformEnveloped = "http://www.w3.org/2000/09/xmldsig#enveloped-signature"
)

// signableElements são os elementos assináveis, na ordem de busca:
// documento, evento (cancelamento/CCe) e inutilização.
var signableElements = []string{"infNFe", "infEvento", "infInut"}
