package sefaz

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/fiscalbr/nfe-api/internal/domain/entity"
)

// URLs de consulta pública do QR Code da NFC-e por UF e ambiente.
var urlsQRCode = map[string]map[string]string{
	"SP": {
		entity.AmbienteProducao:    "https://www.nfce.fazenda.sp.gov.br/NFCeConsultaPublica/Paginas/ConsultaQRCode.aspx",
		entity.AmbienteHomologacao: "https://www.homologacao.nfce.fazenda.sp.gov.br/NFCeConsultaPublica/Paginas/ConsultaQRCode.aspx",
	},
	"RS": {
		entity.AmbienteProducao:    "https://www.sefaz.rs.gov.br/NFCE/NFCE-COM.aspx",
		entity.AmbienteHomologacao: "https://www.sefaz.rs.gov.br/NFCE/NFCE-COM.aspx",
	},
}

// urlsConsultaNFCe é a URL "por chave" exibida no DANFE NFC-e (urlChave).
var urlsConsultaNFCe = map[string]map[string]string{
	"SP": {
		entity.AmbienteProducao:    "https://www.nfce.fazenda.sp.gov.br/NFCeConsultaPublica",
		entity.AmbienteHomologacao: "https://www.homologacao.nfce.fazenda.sp.gov.br/NFCeConsultaPublica",
	},
}

// QRCodeService monta o conteúdo do qrCode e injeta o grupo infNFeSupl na
// NFC-e assinada. O grupo fica fora do escopo da assinatura: só pode ser
// anexado depois de assinar.
type QRCodeService struct{}

// NewQRCodeService cria o serviço.
func NewQRCodeService() *QRCodeService {
	return &QRCodeService{}
}

// BuildURL monta a URL do QR Code (versão 100) para a chave.
func (s *QRCodeService) BuildURL(chave, uf, ambiente string) string {
	porUF, ok := urlsQRCode[uf]
	if !ok {
		porUF = urlsQRCode["SP"]
	}
	base := porUF[ambiente]
	return fmt.Sprintf("%s?chNFe=%s&nVersao=100&tpAmb=%s", base, chave, ambiente)
}

// URLConsulta devolve a URL de consulta por chave (urlChave).
func (s *QRCodeService) URLConsulta(uf, ambiente string) string {
	porUF, ok := urlsConsultaNFCe[uf]
	if !ok {
		porUF = urlsConsultaNFCe["SP"]
	}
	return porUF[ambiente]
}

// AppendInfNFeSupl insere infNFeSupl logo após infNFe no XML já assinado,
// mantendo a ordem do schema (infNFe, infNFeSupl, Signature).
func (s *QRCodeService) AppendInfNFeSupl(signedXML []byte, qrURL, urlChave string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(signedXML); err != nil {
		return nil, fmt.Errorf("sefaz: parsear XML assinado: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("sefaz: documento sem raiz")
	}
	var infNFe *etree.Element
	for _, child := range root.ChildElements() {
		if localName(child.Tag) == "infNFe" {
			infNFe = child
			break
		}
	}
	if infNFe == nil {
		return nil, fmt.Errorf("sefaz: infNFe não encontrado para anexar infNFeSupl")
	}

	supl := etree.NewElement("infNFeSupl")
	qr := supl.CreateElement("qrCode")
	qr.CreateCData(qrURL)
	supl.CreateElement("urlChave").SetText(urlChave)

	root.InsertChildAt(infNFe.Index()+1, supl)

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("sefaz: serializar XML com infNFeSupl: %w", err)
	}
	return out, nil
}

// localName remove o prefixo de um tag qualificado.
func localName(tag string) string {
	for i := len(tag) - 1; i >= 0; i-- {
		if tag[i] == ':' {
			return tag[i+1:]
		}
	}
	return tag
}
