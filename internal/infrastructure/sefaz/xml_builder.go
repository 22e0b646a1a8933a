package sefaz

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/fiscalbr/nfe-api/internal/domain/entity"
	"github.com/fiscalbr/nfe-api/pkg/fiscal"
	"github.com/shopspring/decimal"
)

// XMLBuilderService monta o XML da NF-e/NFC-e 4.00 (sem assinatura).
// A ordem dos elementos segue estritamente o schema: a SEFAZ rejeita
// documentos com campos fora de ordem.
type XMLBuilderService struct{}

// NewXMLBuilderService cria o serviço.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build gera o []byte do documento NFe. Saída compacta (sem indentação): o
// conteúdo de infNFe entra byte a byte no digest da assinatura.
func (s *XMLBuilderService) Build(ctx *NotaBuildContext) ([]byte, error) {
	if ctx == nil || ctx.Nota == nil || ctx.Config == nil {
		return nil, fmt.Errorf("sefaz: faltam nota ou configuração no contexto")
	}
	nota := ctx.Nota
	if len(nota.ChaveAcesso) != 44 {
		return nil, fmt.Errorf("sefaz: chave de acesso ausente ou incompleta")
	}
	if nota.Modelo == entity.ModeloNFe && !nota.Destinatario.Endereco.Completo() {
		return nil, fmt.Errorf("sefaz: endereço do destinatário incompleto")
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	root := xml.StartElement{
		Name: xml.Name{Local: "NFe"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: NsNFe}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	infNFe := xml.StartElement{
		Name: xml.Name{Local: "infNFe"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "versao"}, Value: VersaoLeiaute},
			{Name: xml.Name{Local: "Id"}, Value: "NFe" + nota.ChaveAcesso},
		},
	}
	if err := enc.EncodeToken(infNFe); err != nil {
		return nil, err
	}

	s.writeIde(enc, ctx)
	s.writeEmit(enc, ctx)
	s.writeDest(enc, ctx)
	for i := range nota.Itens {
		s.writeDet(enc, ctx, i)
	}
	s.writeTotal(enc, nota)
	s.writeTransp(enc, nota)
	s.writePag(enc, nota)
	s.writeInfAdic(enc, nota)

	if err := enc.EncodeToken(infNFe.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ── grupos do documento ───────────────────────────────────────────────────────

func (s *XMLBuilderService) writeIde(enc *xml.Encoder, ctx *NotaBuildContext) {
	nota, cfg := ctx.Nota, ctx.Config
	emissao := nota.DataEmissao
	if ctx.DataEmissao != nil {
		emissao = *ctx.DataEmissao
	}

	// tpImp 4 = DANFE NFC-e; indFinal/indPres 1 = consumidor final presencial
	tpImp, indFinal, indPres := "1", "0", "0"
	if nota.Modelo == entity.ModeloNFCe {
		tpImp, indFinal, indPres = "4", "1", "1"
	}
	verProc := ctx.VersaoProc
	if verProc == "" {
		verProc = "fiscalbr-nfe-api 1.0"
	}

	ide := startEl(enc, "ide")
	writeEl(enc, "cUF", fiscal.UFCodes[cfg.UFEmissao])
	writeEl(enc, "cNF", nota.ChaveAcesso[35:43])
	writeEl(enc, "natOp", sanitizeText(nota.NaturezaOperacao))
	writeEl(enc, "mod", nota.Modelo)
	writeEl(enc, "serie", strconv.Itoa(nota.Serie))
	writeEl(enc, "nNF", strconv.Itoa(nota.Numero))
	writeEl(enc, "dhEmi", formatDataEmissao(emissao))
	writeEl(enc, "tpNF", "1") // saída
	writeEl(enc, "idDest", s.idDestino(cfg.UFEmissao, nota.Destinatario.Endereco.UF))
	writeEl(enc, "cMunFG", nota.Emitente.Endereco.CodigoMunicipio)
	writeEl(enc, "tpImp", tpImp)
	writeEl(enc, "tpEmis", "1")
	writeEl(enc, "cDV", string(nota.ChaveAcesso[43]))
	writeEl(enc, "tpAmb", cfg.Ambiente)
	writeEl(enc, "finNFe", "1") // NF-e normal
	writeEl(enc, "indFinal", indFinal)
	writeEl(enc, "indPres", indPres)
	writeEl(enc, "procEmi", "0") // emissão por aplicativo do contribuinte
	writeEl(enc, "verProc", verProc)
	endEl(enc, ide)
}

func (s *XMLBuilderService) idDestino(ufEmit, ufDest string) string {
	switch {
	case ufDest == "" || ufEmit == ufDest:
		return "1" // operação interna
	case ufDest == "EX":
		return "3" // exterior
	default:
		return "2" // interestadual
	}
}

func (s *XMLBuilderService) writeEmit(enc *xml.Encoder, ctx *NotaBuildContext) {
	emp := &ctx.Nota.Emitente
	emit := startEl(enc, "emit")
	writeEl(enc, "CNPJ", onlyDigits(emp.CNPJ))
	writeEl(enc, "xNome", sanitizeText(emp.RazaoSocial))
	if emp.NomeFantasia != "" {
		writeEl(enc, "xFant", sanitizeText(emp.NomeFantasia))
	}
	s.writeEndereco(enc, "enderEmit", emp.Endereco)
	writeEl(enc, "IE", onlyDigits(emp.IE))
	writeEl(enc, "CRT", ctx.Config.CRT())
	endEl(enc, emit)
}

func (s *XMLBuilderService) writeDest(enc *xml.Encoder, ctx *NotaBuildContext) {
	nota := ctx.Nota
	d := &nota.Destinatario

	// NFC-e sem identificação do consumidor: grupo dest é omitido
	if nota.Modelo == entity.ModeloNFCe && d.CPFCNPJ == "" {
		return
	}

	dest := startEl(enc, "dest")
	doc := onlyDigits(d.CPFCNPJ)
	if len(doc) == 11 {
		writeEl(enc, "CPF", doc)
	} else {
		writeEl(enc, "CNPJ", doc)
	}

	nome := sanitizeText(d.Nome)
	if ctx.Config.Ambiente == entity.AmbienteHomologacao {
		nome = NomeDestHomologacao
	}
	writeEl(enc, "xNome", nome)

	if nota.Modelo == entity.ModeloNFe {
		s.writeEndereco(enc, "enderDest", d.Endereco)
	}

	indIE := d.IndIEDest
	if indIE == "" {
		indIE = entity.IndIENaoContribuinte
	}
	writeEl(enc, "indIEDest", indIE)
	if indIE == entity.IndIEContribuinte && d.IE != "" {
		writeEl(enc, "IE", onlyDigits(d.IE))
	}
	if d.Email != "" {
		writeEl(enc, "email", d.Email)
	}
	endEl(enc, dest)
}

func (s *XMLBuilderService) writeEndereco(enc *xml.Encoder, tag string, e entity.Endereco) {
	el := startEl(enc, tag)
	writeEl(enc, "xLgr", sanitizeText(e.Logradouro))
	writeEl(enc, "nro", sanitizeText(e.Numero))
	if e.Complemento != "" {
		writeEl(enc, "xCpl", sanitizeText(e.Complemento))
	}
	writeEl(enc, "xBairro", sanitizeText(e.Bairro))
	writeEl(enc, "cMun", e.CodigoMunicipio)
	writeEl(enc, "xMun", sanitizeText(e.Municipio))
	writeEl(enc, "UF", e.UF)
	writeEl(enc, "CEP", onlyDigits(e.CEP))
	writeEl(enc, "cPais", "1058")
	writeEl(enc, "xPais", "BRASIL")
	if e.Telefone != "" {
		writeEl(enc, "fone", onlyDigits(e.Telefone))
	}
	endEl(enc, el)
}

func (s *XMLBuilderService) writeDet(enc *xml.Encoder, ctx *NotaBuildContext, idx int) {
	nota := ctx.Nota
	it := &nota.Itens[idx]

	det := xml.StartElement{
		Name: xml.Name{Local: "det"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "nItem"}, Value: strconv.Itoa(idx + 1)}},
	}
	_ = enc.EncodeToken(det)

	// ── prod ────────────────────────────────────────────────────────────────
	prod := startEl(enc, "prod")
	writeEl(enc, "cProd", sanitizeText(it.CodigoProduto))
	writeEl(enc, "cEAN", "SEM GTIN")
	writeEl(enc, "xProd", sanitizeText(it.Descricao))
	writeEl(enc, "NCM", it.NCM)
	if it.CEST != "" {
		writeEl(enc, "CEST", it.CEST)
	}
	writeEl(enc, "CFOP", it.CFOP)
	writeEl(enc, "uCom", it.Unidade)
	writeEl(enc, "qCom", formatDecimal(it.Quantidade, 4))
	writeEl(enc, "vUnCom", formatDecimal(it.ValorUnitario, 10))
	writeEl(enc, "vProd", formatDecimal(it.ValorTotal, 2))
	writeEl(enc, "cEANTrib", "SEM GTIN")
	writeEl(enc, "uTrib", it.Unidade)
	writeEl(enc, "qTrib", formatDecimal(it.Quantidade, 4))
	writeEl(enc, "vUnTrib", formatDecimal(it.ValorUnitario, 10))
	if it.ValorDesconto.Sign() > 0 {
		writeEl(enc, "vDesc", formatDecimal(it.ValorDesconto, 2))
	}
	writeEl(enc, "indTot", "1")
	endEl(enc, prod)

	// ── imposto ─────────────────────────────────────────────────────────────
	imposto := startEl(enc, "imposto")
	vTotTrib := it.ValorICMS.Add(it.ValorIPI).Add(it.ValorPIS).Add(it.ValorCOFINS)
	writeEl(enc, "vTotTrib", formatDecimal(vTotTrib, 2))
	s.writeICMS(enc, it)
	if nota.Modelo == entity.ModeloNFe {
		s.writeIPI(enc, it)
	}
	s.writePISCOFINS(enc, it)
	endEl(enc, imposto)

	_ = enc.EncodeToken(det.End())
}

// writeICMS escolhe o grupo pelo código de situação: CST de 2 dígitos para o
// regime normal, CSOSN de 3 dígitos para o Simples Nacional.
func (s *XMLBuilderService) writeICMS(enc *xml.Encoder, it *entity.ItemNotaFiscal) {
	icms := startEl(enc, "ICMS")
	origem := it.Origem
	if origem == "" {
		origem = "0"
	}
	cst := it.CSTICMS

	switch cst {
	case "00":
		g := startEl(enc, "ICMS00")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CST", cst)
		writeEl(enc, "modBC", "3") // valor da operação
		writeEl(enc, "vBC", formatDecimal(it.BaseICMS, 2))
		writeEl(enc, "pICMS", formatDecimal(it.AliquotaICMS, 4))
		writeEl(enc, "vICMS", formatDecimal(it.ValorICMS, 2))
		endEl(enc, g)
	case "20":
		g := startEl(enc, "ICMS20")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CST", cst)
		writeEl(enc, "modBC", "3")
		writeEl(enc, "pRedBC", "0.0000")
		writeEl(enc, "vBC", formatDecimal(it.BaseICMS, 2))
		writeEl(enc, "pICMS", formatDecimal(it.AliquotaICMS, 4))
		writeEl(enc, "vICMS", formatDecimal(it.ValorICMS, 2))
		endEl(enc, g)
	case "40", "41", "50":
		g := startEl(enc, "ICMS40")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CST", cst)
		endEl(enc, g)
	case "51":
		g := startEl(enc, "ICMS51")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CST", cst)
		endEl(enc, g)
	case "60":
		g := startEl(enc, "ICMS60")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CST", cst)
		endEl(enc, g)
	case "90":
		g := startEl(enc, "ICMS90")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CST", cst)
		writeEl(enc, "vBC", formatDecimal(it.BaseICMS, 2))
		writeEl(enc, "pICMS", formatDecimal(it.AliquotaICMS, 4))
		writeEl(enc, "vICMS", formatDecimal(it.ValorICMS, 2))
		endEl(enc, g)
	case "101":
		g := startEl(enc, "ICMSSN101")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CSOSN", cst)
		writeEl(enc, "pCredSN", formatDecimal(it.AliquotaICMS, 4))
		writeEl(enc, "vCredICMSSN", formatDecimal(it.ValorICMS, 2))
		endEl(enc, g)
	case "102", "103", "300", "400":
		g := startEl(enc, "ICMSSN102")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CSOSN", cst)
		endEl(enc, g)
	case "500":
		g := startEl(enc, "ICMSSN500")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CSOSN", cst)
		endEl(enc, g)
	case "900":
		g := startEl(enc, "ICMSSN900")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CSOSN", cst)
		endEl(enc, g)
	default:
		// situação não mapeada: declara como isenta para não gerar XML inválido
		g := startEl(enc, "ICMS40")
		writeEl(enc, "orig", origem)
		writeEl(enc, "CST", "40")
		endEl(enc, g)
	}
	endEl(enc, icms)
}

// writeIPI destaca o IPI como não tributado (CST 53): imposto de
// industrialização fora do escopo do emissor. Somente no modelo 55.
func (s *XMLBuilderService) writeIPI(enc *xml.Encoder, it *entity.ItemNotaFiscal) {
	ipi := startEl(enc, "IPI")
	writeEl(enc, "cEnq", "999")
	cst := it.CSTIPI
	if cst == "" {
		cst = fiscal.CSTIPINaoTributada
	}
	ipint := startEl(enc, "IPINT")
	writeEl(enc, "CST", cst)
	endEl(enc, ipint)
	endEl(enc, ipi)
}

func (s *XMLBuilderService) writePISCOFINS(enc *xml.Encoder, it *entity.ItemNotaFiscal) {
	pis := startEl(enc, "PIS")
	s.writeTributoFederal(enc, "PIS", it.CSTPIS, it.BasePIS, it.AliquotaPIS, it.ValorPIS)
	endEl(enc, pis)

	cofins := startEl(enc, "COFINS")
	s.writeTributoFederal(enc, "COFINS", it.CSTCOFINS, it.BaseCOFINS, it.AliquotaCOFINS, it.ValorCOFINS)
	endEl(enc, cofins)
}

// writeTributoFederal escreve o subgrupo de PIS/COFINS conforme o CST:
// 01/02 alíquota em percentual, 04-09 não tributado, demais em PISOutr/COFINSOutr.
func (s *XMLBuilderService) writeTributoFederal(enc *xml.Encoder, nome, cst string, base, aliquota, valor decimal.Decimal) {
	if cst == "" {
		cst = "99"
	}
	switch cst {
	case "01", "02":
		g := startEl(enc, nome+"Aliq")
		writeEl(enc, "CST", cst)
		writeEl(enc, "vBC", formatDecimal(base, 2))
		writeEl(enc, "p"+nome, formatDecimal(aliquota, 4))
		writeEl(enc, "v"+nome, formatDecimal(valor, 2))
		endEl(enc, g)
	case "04", "05", "06", "07", "08", "09":
		g := startEl(enc, nome+"NT")
		writeEl(enc, "CST", cst)
		endEl(enc, g)
	default:
		g := startEl(enc, nome+"Outr")
		writeEl(enc, "CST", cst)
		writeEl(enc, "vBC", formatDecimal(base, 2))
		writeEl(enc, "p"+nome, formatDecimal(aliquota, 4))
		writeEl(enc, "v"+nome, formatDecimal(valor, 2))
		endEl(enc, g)
	}
}

func (s *XMLBuilderService) writeTotal(enc *xml.Encoder, nota *entity.NotaFiscal) {
	var baseICMS decimal.Decimal
	for i := range nota.Itens {
		baseICMS = baseICMS.Add(nota.Itens[i].BaseICMS)
	}
	vTotTrib := nota.ValorICMS.Add(nota.ValorIPI).Add(nota.ValorPIS).Add(nota.ValorCOFINS)
	zero := decimal.Zero

	total := startEl(enc, "total")
	icmsTot := startEl(enc, "ICMSTot")
	writeEl(enc, "vBC", formatDecimal(baseICMS, 2))
	writeEl(enc, "vICMS", formatDecimal(nota.ValorICMS, 2))
	writeEl(enc, "vICMSDeson", formatDecimal(zero, 2))
	writeEl(enc, "vFCPUFDest", formatDecimal(zero, 2))
	writeEl(enc, "vICMSUFDest", formatDecimal(zero, 2))
	writeEl(enc, "vICMSUFRemet", formatDecimal(zero, 2))
	writeEl(enc, "vFCP", formatDecimal(zero, 2))
	writeEl(enc, "vBCST", formatDecimal(zero, 2))
	writeEl(enc, "vST", formatDecimal(zero, 2))
	writeEl(enc, "vFCPST", formatDecimal(zero, 2))
	writeEl(enc, "vFCPSTRet", formatDecimal(zero, 2))
	writeEl(enc, "vProd", formatDecimal(nota.ValorProdutos, 2))
	writeEl(enc, "vFrete", formatDecimal(nota.ValorFrete, 2))
	writeEl(enc, "vSeg", formatDecimal(nota.ValorSeguro, 2))
	writeEl(enc, "vDesc", formatDecimal(nota.ValorDesconto, 2))
	writeEl(enc, "vII", formatDecimal(zero, 2))
	writeEl(enc, "vIPI", formatDecimal(nota.ValorIPI, 2))
	writeEl(enc, "vIPIDevol", formatDecimal(zero, 2))
	writeEl(enc, "vPIS", formatDecimal(nota.ValorPIS, 2))
	writeEl(enc, "vCOFINS", formatDecimal(nota.ValorCOFINS, 2))
	writeEl(enc, "vOutro", formatDecimal(nota.ValorOutros, 2))
	writeEl(enc, "vNF", formatDecimal(nota.ValorTotal, 2))
	writeEl(enc, "vTotTrib", formatDecimal(vTotTrib, 2))
	endEl(enc, icmsTot)
	endEl(enc, total)
}

func (s *XMLBuilderService) writeTransp(enc *xml.Encoder, nota *entity.NotaFiscal) {
	modFrete := nota.ModalidadeFrete
	if modFrete == "" {
		modFrete = fiscal.FreteSemOcorrencia
	}
	transp := startEl(enc, "transp")
	writeEl(enc, "modFrete", modFrete)
	endEl(enc, transp)
}

func (s *XMLBuilderService) writePag(enc *xml.Encoder, nota *entity.NotaFiscal) {
	tPag := nota.MeioPagamento
	if tPag == "" {
		tPag = fiscal.PagDinheiro
	}
	pag := startEl(enc, "pag")
	detPag := startEl(enc, "detPag")
	writeEl(enc, "indPag", "0") // à vista
	writeEl(enc, "tPag", tPag)
	writeEl(enc, "vPag", formatDecimal(nota.ValorTotal, 2))
	endEl(enc, detPag)
	endEl(enc, pag)
}

func (s *XMLBuilderService) writeInfAdic(enc *xml.Encoder, nota *entity.NotaFiscal) {
	if nota.InformacoesComplementares == "" && nota.InformacoesFisco == "" {
		return
	}
	infAdic := startEl(enc, "infAdic")
	if nota.InformacoesFisco != "" {
		writeEl(enc, "infAdFisco", sanitizeText(truncate(nota.InformacoesFisco, 2000)))
	}
	if nota.InformacoesComplementares != "" {
		writeEl(enc, "infCpl", sanitizeText(truncate(nota.InformacoesComplementares, 5000)))
	}
	endEl(enc, infAdic)
}

// ── helpers de serialização ───────────────────────────────────────────────────

func startEl(enc *xml.Encoder, local string) xml.StartElement {
	el := xml.StartElement{Name: xml.Name{Local: local}}
	_ = enc.EncodeToken(el)
	return el
}

func endEl(enc *xml.Encoder, el xml.StartElement) {
	_ = enc.EncodeToken(el.End())
}

func writeEl(enc *xml.Encoder, local, value string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: local}})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: local}})
}

// truncate corta em máximo de caracteres, nunca no meio de uma rune:
// razões sociais com acento não podem virar UTF-8 inválido no XML.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
