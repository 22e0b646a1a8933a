// seed_fiscal gera o script SQL que povoa a tabela de municípios (código
// IBGE de 7 dígitos) a partir do XML da Divisão Territorial Brasileira.
//
// Uso: go run ./cmd/seed_fiscal [caminho/Municipios.xml]
// Por padrão procura Municipios.xml no diretório atual.
// Escreve: internal/infrastructure/postgres/migrations/009_seed_municipios.sql
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

type divisaoTerritorial struct {
	Municipios []municipio `xml:"municipio"`
}

type municipio struct {
	Codigo string `xml:"codigo,attr"` // código IBGE de 7 dígitos
	Nome   string `xml:"nome,attr"`
	UF     string `xml:"uf,attr"` // sigla
}

func main() {
	xmlPath := "Municipios.xml"
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var dtb divisaoTerritorial
	dec := xml.NewDecoder(f)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		if strings.EqualFold(charset, "ISO-8859-1") || strings.EqualFold(charset, "ISO8859-1") {
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		}
		return input, nil
	}
	if err := dec.Decode(&dtb); err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}

	var municipios []municipio
	for _, m := range dtb.Municipios {
		if len(m.Codigo) != 7 || m.Nome == "" || len(m.UF) != 2 {
			continue
		}
		municipios = append(municipios, municipio{
			Codigo: strings.TrimSpace(m.Codigo),
			Nome:   strings.TrimSpace(m.Nome),
			UF:     strings.ToUpper(strings.TrimSpace(m.UF)),
		})
	}
	sort.Slice(municipios, func(i, j int) bool { return municipios[i].Codigo < municipios[j].Codigo })

	// Caminho do script de saída (relativo ao módulo)
	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "009_seed_municipios.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Criar arquivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	out.WriteString("-- Municípios brasileiros (código IBGE de 7 dígitos)\n")
	out.WriteString("-- Gerado a partir do XML da Divisão Territorial Brasileira\n\n")

	out.WriteString("INSERT INTO municipios (codigo_ibge, nome, uf) VALUES\n")
	for i, m := range municipios {
		sep := ","
		if i == len(municipios)-1 {
			sep = ""
		}
		fmt.Fprintf(out, "  ('%s', '%s', '%s')%s\n", m.Codigo, escapeSQL(m.Nome), m.UF, sep)
	}
	out.WriteString("ON CONFLICT (codigo_ibge) DO UPDATE SET nome = EXCLUDED.nome, uf = EXCLUDED.uf;\n")

	fmt.Printf("Gerado %s: %d municípios\n", outPath, len(municipios))
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
