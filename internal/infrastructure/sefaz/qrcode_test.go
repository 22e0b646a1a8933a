package sefaz

import (
	"strings"
	"testing"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL_ParametrosDaConsulta(t *testing.T) {
	svc := NewQRCodeService()

	url := svc.BuildURL(chaveTeste, "SP", entity.AmbienteHomologacao)

	assert.Contains(t, url, "?chNFe="+chaveTeste)
	assert.Contains(t, url, "&nVersao=100")
	assert.Contains(t, url, "&tpAmb=2")
}

func TestBuildURL_UFSemPortalUsaPadrao(t *testing.T) {
	svc := NewQRCodeService()

	url := svc.BuildURL(chaveTeste, "AC", entity.AmbienteProducao)
	assert.NotEmpty(t, url)
	assert.Contains(t, url, "chNFe="+chaveTeste)
}

func TestAppendInfNFeSupl_EntreInfNFeESignature(t *testing.T) {
	svc := NewQRCodeService()
	assinado := `<NFe xmlns="` + NsNFe + `">` +
		`<infNFe versao="4.00" Id="NFe` + chaveTeste + `"><ide/></infNFe>` +
		`<Signature xmlns="http://www.w3.org/2000/09/xmldsig#"><SignedInfo/></Signature>` +
		`</NFe>`

	qrURL := svc.BuildURL(chaveTeste, "SP", entity.AmbienteHomologacao)
	urlChave := svc.URLConsulta("SP", entity.AmbienteHomologacao)

	out, err := svc.AppendInfNFeSupl([]byte(assinado), qrURL, urlChave)
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "<infNFeSupl>")
	assert.Contains(t, s, "<qrCode><![CDATA["+qrURL+"]]></qrCode>")
	assert.Contains(t, s, "<urlChave>"+urlChave+"</urlChave>")

	idxInf := strings.Index(s, "</infNFe>")
	idxSupl := strings.Index(s, "<infNFeSupl>")
	idxSig := strings.Index(s, "<Signature")
	require.True(t, idxInf >= 0 && idxSupl >= 0 && idxSig >= 0)
	assert.Less(t, idxInf, idxSupl, "infNFeSupl depois do infNFe")
	assert.Less(t, idxSupl, idxSig, "infNFeSupl antes da Signature")
}

func TestAppendInfNFeSupl_SemInfNFe(t *testing.T) {
	svc := NewQRCodeService()

	_, err := svc.AppendInfNFeSupl([]byte(`<outro/>`), "qr", "url")
	assert.Error(t, err)
}
