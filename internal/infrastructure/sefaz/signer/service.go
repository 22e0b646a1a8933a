// Assinatura XML-DSig do Portal da NF-e: C14N inclusivo sobre o elemento
// alvo, digest SHA-1, SignedInfo canônico assinado com RSA PKCS#1 v1.5 e
// <Signature> inserido como próximo irmão do elemento assinado.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/fiscalbr/nfe-api/internal/domain"
	"github.com/ucarion/c14n"
)

// DigitalSignatureService implementa a assinatura e a verificação do perfil
// XML-DSig da SEFAZ.
type DigitalSignatureService struct{}

// NewDigitalSignatureService cria o serviço.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{}
}

// Sign localiza o elemento assinável (infNFe, infEvento ou infInut, nesta
// ordem), calcula o digest do elemento canonicalizado e injeta o nó
// <Signature> imediatamente após o elemento assinado.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, fmt.Errorf("%w: XML vazio", domain.ErrFalhaAssinatura)
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: o certificado deve ter chave privada RSA", domain.ErrFalhaAssinatura)
	}
	if len(cert.Certificate) == 0 {
		return nil, fmt.Errorf("%w: certificado sem cadeia", domain.ErrCertificadoIndisponivel)
	}
	x509Cert, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("%w: parsear certificado: %v", domain.ErrFalhaAssinatura, err)
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("%w: parsear XML: %v", domain.ErrFalhaAssinatura, err)
	}

	target := findSignable(doc)
	if target == nil {
		return nil, domain.ErrElementoAssinavelAusente
	}
	id := target.SelectAttrValue("Id", "")
	if id == "" {
		return nil, fmt.Errorf("%w: elemento %s sem atributo Id", domain.ErrFalhaAssinatura, target.Tag)
	}

	// 1) Digest do elemento alvo canonicalizado (C14N inclusivo sem comentários)
	canonicalTarget, err := canonicalizeElement(target)
	if err != nil {
		return nil, fmt.Errorf("%w: canonicalizar %s: %v", domain.ErrFalhaAssinatura, target.Tag, err)
	}
	digest := sha1.Sum(canonicalTarget)
	digestB64 := base64.StdEncoding.EncodeToString(digest[:])

	// 2) SignedInfo canônico → RSA-SHA1
	signedInfoCore := buildSignedInfoCore(id, digestB64)
	standalone := `<SignedInfo xmlns="` + NamespaceDS + `">` + signedInfoCore + `</SignedInfo>`
	canonicalSignedInfo, err := canonicalizeXML([]byte(standalone))
	if err != nil {
		return nil, fmt.Errorf("%w: canonicalizar SignedInfo: %v", domain.ErrFalhaAssinatura, err)
	}
	signHash := sha1.Sum(canonicalSignedInfo)
	signatureValue, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA1, signHash[:])
	if err != nil {
		return nil, fmt.Errorf("%w: assinar SignedInfo: %v", domain.ErrFalhaAssinatura, err)
	}

	// 3) Nó Signature completo. O SignedInfo embutido NÃO redeclara o
	// namespace: herda do Signature, exatamente a forma que o validador
	// da SEFAZ reconstrói ao verificar.
	certB64 := base64.StdEncoding.EncodeToString(x509Cert.Raw)
	var sb strings.Builder
	sb.WriteString(`<Signature xmlns="` + NamespaceDS + `">`)
	sb.WriteString(`<SignedInfo>` + signedInfoCore + `</SignedInfo>`)
	sb.WriteString(`<SignatureValue>` + base64.StdEncoding.EncodeToString(signatureValue) + `</SignatureValue>`)
	sb.WriteString(`<KeyInfo><X509Data><X509Certificate>` + certB64 + `</X509Certificate></X509Data></KeyInfo>`)
	sb.WriteString(`</Signature>`)

	// 4) Inserir como próximo irmão do elemento assinado
	sigDoc := etree.NewDocument()
	if err := sigDoc.ReadFromString(sb.String()); err != nil {
		return nil, fmt.Errorf("%w: parsear Signature: %v", domain.ErrFalhaAssinatura, err)
	}
	parent := target.Parent()
	if parent == nil {
		return nil, fmt.Errorf("%w: elemento assinável sem pai", domain.ErrFalhaAssinatura)
	}
	parent.InsertChildAt(target.Index()+1, sigDoc.Root())

	var out bytes.Buffer
	if _, err := doc.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("%w: serializar XML assinado: %v", domain.ErrFalhaAssinatura, err)
	}
	return out.Bytes(), nil
}

// Verify confere a assinatura de um documento assinado por Sign: recalcula o
// digest do elemento referenciado (sem o nó Signature) e valida o
// SignatureValue sobre o SignedInfo canônico com a chave pública embutida.
func (s *DigitalSignatureService) Verify(xmlBytes []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return fmt.Errorf("verificar assinatura: parsear XML: %w", err)
	}
	sig := doc.FindElement("//Signature")
	if sig == nil {
		return fmt.Errorf("verificar assinatura: nó Signature ausente")
	}

	digestValue := findText(sig, "DigestValue")
	signatureValue := findText(sig, "SignatureValue")
	certB64 := findText(sig, "X509Certificate")
	if digestValue == "" || signatureValue == "" || certB64 == "" {
		return fmt.Errorf("verificar assinatura: Signature incompleto")
	}
	certDER, err := base64.StdEncoding.DecodeString(strings.TrimSpace(certB64))
	if err != nil {
		return fmt.Errorf("verificar assinatura: certificado inválido: %w", err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return fmt.Errorf("verificar assinatura: %w", err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("verificar assinatura: chave pública não é RSA")
	}

	// Reference URI="#id" → elemento alvo
	ref := sig.FindElement(".//Reference")
	if ref == nil {
		return fmt.Errorf("verificar assinatura: Reference ausente")
	}
	id := strings.TrimPrefix(ref.SelectAttrValue("URI", ""), "#")
	target := findByID(doc, id)
	if target == nil {
		return fmt.Errorf("verificar assinatura: elemento Id=%q não encontrado", id)
	}

	canonicalTarget, err := canonicalizeElement(target)
	if err != nil {
		return fmt.Errorf("verificar assinatura: %w", err)
	}
	digest := sha1.Sum(canonicalTarget)
	if base64.StdEncoding.EncodeToString(digest[:]) != strings.TrimSpace(digestValue) {
		return fmt.Errorf("verificar assinatura: digest não confere (conteúdo alterado)")
	}

	// SignedInfo canônico: reconstruído com a declaração de namespace
	signedInfo := sig.FindElement("SignedInfo")
	if signedInfo == nil {
		return fmt.Errorf("verificar assinatura: SignedInfo ausente")
	}
	siCopy := signedInfo.Copy()
	if siCopy.SelectAttr("xmlns") == nil {
		siCopy.CreateAttr("xmlns", NamespaceDS)
	}
	siDoc := etree.NewDocument()
	siDoc.SetRoot(siCopy)
	siBytes, err := siDoc.WriteToBytes()
	if err != nil {
		return fmt.Errorf("verificar assinatura: %w", err)
	}
	canonicalSI, err := canonicalizeXML(siBytes)
	if err != nil {
		return fmt.Errorf("verificar assinatura: %w", err)
	}
	siHash := sha1.Sum(canonicalSI)

	sigBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signatureValue))
	if err != nil {
		return fmt.Errorf("verificar assinatura: SignatureValue inválido: %w", err)
	}
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA1, siHash[:], sigBytes); err != nil {
		return fmt.Errorf("verificar assinatura: %w", err)
	}
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func canonicalizeXML(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}

// canonicalizeElement serializa o elemento em documento próprio (garantindo a
// declaração do namespace herdado) e aplica C14N inclusivo.
func canonicalizeElement(el *etree.Element) ([]byte, error) {
	cp := el.Copy()
	removeSignatureChild(cp)
	if cp.SelectAttr("xmlns") == nil && !strings.Contains(cp.Tag, ":") {
		if ns := inheritedDefaultNS(el); ns != "" {
			cp.CreateAttr("xmlns", ns)
		}
	}
	doc := etree.NewDocument()
	doc.SetRoot(cp)
	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, err
	}
	return canonicalizeXML(raw)
}

// inheritedDefaultNS sobe na árvore até achar a declaração xmlns vigente.
func inheritedDefaultNS(el *etree.Element) string {
	for e := el; e != nil; e = e.Parent() {
		if attr := e.SelectAttr("xmlns"); attr != nil {
			return attr.Value
		}
	}
	return ""
}

func removeSignatureChild(el *etree.Element) {
	for _, child := range el.ChildElements() {
		if child.Tag == "Signature" {
			el.RemoveChild(child)
			continue
		}
		removeSignatureChild(child)
	}
}

func buildSignedInfoCore(id, digestB64 string) string {
	var sb strings.Builder
	sb.WriteString(`<CanonicalizationMethod Algorithm="` + AlgC14N + `"></CanonicalizationMethod>`)
	sb.WriteString(`<SignatureMethod Algorithm="` + AlgRSASHA1 + `"></SignatureMethod>`)
	sb.WriteString(`<Reference URI="#` + id + `">`)
	sb.WriteString(`<Transforms>`)
	sb.WriteString(`<Transform Algorithm="` + TransformEnveloped + `"></Transform>`)
	sb.WriteString(`<Transform Algorithm="` + AlgC14N + `"></Transform>`)
	sb.WriteString(`</Transforms>`)
	sb.WriteString(`<DigestMethod Algorithm="` + AlgSHA1 + `"></DigestMethod>`)
	sb.WriteString(`<DigestValue>` + digestB64 + `</DigestValue>`)
	sb.WriteString(`</Reference>`)
	return sb.String()
}

func findSignable(doc *etree.Document) *etree.Element {
	for _, name := range signableElements {
		if el := doc.FindElement("//" + name); el != nil {
			return el
		}
	}
	return nil
}

func findByID(doc *etree.Document, id string) *etree.Element {
	if id == "" {
		return nil
	}
	var walk func(el *etree.Element) *etree.Element
	walk = func(el *etree.Element) *etree.Element {
		if el.SelectAttrValue("Id", "") == id {
			return el
		}
		for _, child := range el.ChildElements() {
			if found := walk(child); found != nil {
				return found
			}
		}
		return nil
	}
	if root := doc.Root(); root != nil {
		return walk(root)
	}
	return nil
}

func findText(scope *etree.Element, tag string) string {
	if el := scope.FindElement(".//" + tag); el != nil {
		return el.Text()
	}
	return ""
}
