// Package docs registra a especificação Swagger da API.
// Code generated by swag. Atualize com: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/auth/registrar": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Registrar usuário",
                "parameters": [
                    {
                        "description": "Dados do usuário",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.RegistrarUsuarioRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.UsuarioResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Autenticar usuário",
                "parameters": [
                    {
                        "description": "Credenciais",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/empresas": {
            "get": {
                "produces": ["application/json"],
                "tags": ["empresas"],
                "summary": "Listar empresas",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.EmpresaResponse"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["empresas"],
                "summary": "Cadastrar empresa emitente",
                "parameters": [
                    {
                        "description": "Dados da empresa",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CriarEmpresaRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.EmpresaResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/empresas/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["empresas"],
                "summary": "Obter empresa por ID",
                "parameters": [
                    {"type": "string", "description": "ID da empresa", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.EmpresaResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/empresas/{id}/configuracao": {
            "get": {
                "produces": ["application/json"],
                "tags": ["empresas"],
                "summary": "Obter configuração fiscal da empresa",
                "parameters": [
                    {"type": "string", "description": "ID da empresa", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ConfiguracaoFiscalResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["empresas"],
                "summary": "Salvar configuração fiscal da empresa",
                "parameters": [
                    {"type": "string", "description": "ID da empresa", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Configuração fiscal",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.ConfiguracaoFiscalRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ConfiguracaoFiscalResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/empresas/{id}/certificados": {
            "get": {
                "produces": ["application/json"],
                "tags": ["empresas"],
                "summary": "Listar certificados da empresa",
                "parameters": [
                    {"type": "string", "description": "ID da empresa", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.CertificadoResponse"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["empresas"],
                "summary": "Cadastrar certificado digital A1",
                "parameters": [
                    {"type": "string", "description": "ID da empresa", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Certificado",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CadastrarCertificadoRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.CertificadoResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/destinatarios": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["destinatarios"],
                "summary": "Cadastrar destinatário",
                "parameters": [
                    {
                        "description": "Dados do destinatário",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CriarDestinatarioRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.DestinatarioResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/destinatarios/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["destinatarios"],
                "summary": "Obter destinatário por ID",
                "parameters": [
                    {"type": "string", "description": "ID do destinatário", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.DestinatarioResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/notas": {
            "get": {
                "produces": ["application/json"],
                "tags": ["notas"],
                "summary": "Listar notas da empresa",
                "parameters": [
                    {"type": "string", "description": "ID da empresa", "name": "empresa_id", "in": "query", "required": true},
                    {"type": "integer", "default": 50, "description": "Limite", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.NotaResponse"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notas"],
                "summary": "Criar nota fiscal em rascunho",
                "parameters": [
                    {
                        "description": "Dados da nota",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CriarNotaRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.NotaResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/notas/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["notas"],
                "summary": "Obter nota fiscal por ID",
                "parameters": [
                    {"type": "string", "description": "ID da nota", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.NotaResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/notas/{id}/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["notas"],
                "summary": "Status resumido da nota (polling)",
                "parameters": [
                    {"type": "string", "description": "ID da nota", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.NotaStatusDTO"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/notas/{id}/xml": {
            "get": {
                "produces": ["application/xml"],
                "tags": ["notas"],
                "summary": "XML protocolado da nota",
                "parameters": [
                    {"type": "string", "description": "ID da nota", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/notas/{id}/danfe": {
            "get": {
                "produces": ["application/pdf"],
                "tags": ["notas"],
                "summary": "Download do DANFE em PDF",
                "parameters": [
                    {"type": "string", "description": "ID da nota", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/notas/{id}/eventos": {
            "get": {
                "produces": ["application/json"],
                "tags": ["notas"],
                "summary": "Eventos fiscais registrados na nota",
                "parameters": [
                    {"type": "string", "description": "ID da nota", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.EventoFiscalResponse"}}}
                }
            }
        },
        "/api/notas/{id}/emitir": {
            "post": {
                "produces": ["application/json"],
                "tags": ["notas"],
                "summary": "Emitir a nota na SEFAZ",
                "parameters": [
                    {"type": "string", "description": "ID da nota", "name": "id", "in": "path", "required": true},
                    {"type": "boolean", "description": "Emissão síncrona", "name": "aguardar", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/fiscal.ResultadoEmissao"}},
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.NotaStatusDTO"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/notas/{id}/consultar": {
            "post": {
                "produces": ["application/json"],
                "tags": ["notas"],
                "summary": "Consultar situação da nota na SEFAZ",
                "parameters": [
                    {"type": "string", "description": "ID da nota", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/fiscal.ResultadoEmissao"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/notas/{id}/cancelar": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notas"],
                "summary": "Cancelar nota autorizada",
                "parameters": [
                    {"type": "string", "description": "ID da nota", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Justificativa",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CancelarNotaRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/fiscal.ResultadoEmissao"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/notas/{id}/carta-correcao": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notas"],
                "summary": "Registrar carta de correção eletrônica",
                "parameters": [
                    {"type": "string", "description": "ID da nota", "name": "id", "in": "path", "required": true},
                    {
                        "description": "Texto da correção",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.CartaCorrecaoRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/fiscal.ResultadoEmissao"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/inutilizacoes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["notas"],
                "summary": "Inutilizar faixa de numeração",
                "parameters": [
                    {
                        "description": "Faixa e justificativa",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.InutilizarFaixaRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/fiscal.ResultadoEmissao"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/api/sefaz/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sefaz"],
                "summary": "Status do serviço da SEFAZ",
                "parameters": [
                    {"type": "string", "default": "55", "description": "Modelo do documento (55 ou 65)", "name": "modelo", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/sefaz.RetornoStatus"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.RegistrarUsuarioRequest": {
            "type": "object",
            "properties": {
                "empresa_id": {"type": "string"},
                "email": {"type": "string"},
                "senha": {"type": "string"},
                "nome": {"type": "string"},
                "perfil": {"type": "string"}
            }
        },
        "dto.UsuarioResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "empresa_id": {"type": "string"},
                "email": {"type": "string"},
                "nome": {"type": "string"},
                "perfil": {"type": "string"},
                "ativo": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "dto.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "senha": {"type": "string"}
            }
        },
        "dto.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "usuario": {"$ref": "#/definitions/dto.UsuarioResponse"}
            }
        },
        "dto.EnderecoDTO": {
            "type": "object",
            "properties": {
                "logradouro": {"type": "string"},
                "numero": {"type": "string"},
                "complemento": {"type": "string"},
                "bairro": {"type": "string"},
                "codigo_municipio": {"type": "string"},
                "municipio": {"type": "string"},
                "uf": {"type": "string"},
                "cep": {"type": "string"},
                "telefone": {"type": "string"}
            }
        },
        "dto.CriarEmpresaRequest": {
            "type": "object",
            "properties": {
                "razao_social": {"type": "string"},
                "nome_fantasia": {"type": "string"},
                "cnpj": {"type": "string"},
                "ie": {"type": "string"},
                "endereco": {"$ref": "#/definitions/dto.EnderecoDTO"},
                "email": {"type": "string"}
            }
        },
        "dto.EmpresaResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "razao_social": {"type": "string"},
                "nome_fantasia": {"type": "string"},
                "cnpj": {"type": "string"},
                "ie": {"type": "string"},
                "endereco": {"$ref": "#/definitions/dto.EnderecoDTO"},
                "email": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "dto.CriarDestinatarioRequest": {
            "type": "object",
            "properties": {
                "nome": {"type": "string"},
                "cpf_cnpj": {"type": "string"},
                "ie": {"type": "string"},
                "ind_ie_dest": {"type": "string"},
                "endereco": {"$ref": "#/definitions/dto.EnderecoDTO"},
                "email": {"type": "string"}
            }
        },
        "dto.DestinatarioResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "nome": {"type": "string"},
                "cpf_cnpj": {"type": "string"},
                "ie": {"type": "string"},
                "ind_ie_dest": {"type": "string"},
                "endereco": {"$ref": "#/definitions/dto.EnderecoDTO"},
                "email": {"type": "string"}
            }
        },
        "dto.ConfiguracaoFiscalRequest": {
            "type": "object",
            "properties": {
                "regime_tributario": {"type": "string"},
                "uf_emissao": {"type": "string"},
                "ambiente": {"type": "string"},
                "serie_nfe": {"type": "integer"},
                "proximo_numero_nfe": {"type": "integer"},
                "serie_nfce": {"type": "integer"},
                "proximo_numero_nfce": {"type": "integer"},
                "csc_nfce": {"type": "string"},
                "id_token_csc": {"type": "string"}
            }
        },
        "dto.ConfiguracaoFiscalResponse": {
            "type": "object",
            "properties": {
                "empresa_id": {"type": "string"},
                "regime_tributario": {"type": "string"},
                "uf_emissao": {"type": "string"},
                "ambiente": {"type": "string"},
                "serie_nfe": {"type": "integer"},
                "proximo_numero_nfe": {"type": "integer"},
                "serie_nfce": {"type": "integer"},
                "proximo_numero_nfce": {"type": "integer"}
            }
        },
        "dto.CadastrarCertificadoRequest": {
            "type": "object",
            "properties": {
                "caminho_arquivo": {"type": "string"},
                "senha": {"type": "string"}
            }
        },
        "dto.CertificadoResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "empresa_id": {"type": "string"},
                "status": {"type": "string"},
                "validade_inicio": {"type": "string"},
                "validade_fim": {"type": "string"}
            }
        },
        "dto.ItemNotaRequest": {
            "type": "object",
            "properties": {
                "codigo_produto": {"type": "string"},
                "descricao": {"type": "string"},
                "ncm": {"type": "string"},
                "cest": {"type": "string"},
                "cfop": {"type": "string"},
                "origem": {"type": "string"},
                "unidade": {"type": "string"},
                "quantidade": {"type": "number"},
                "valor_unitario": {"type": "number"},
                "valor_desconto": {"type": "number"}
            }
        },
        "dto.CriarNotaRequest": {
            "type": "object",
            "properties": {
                "empresa_id": {"type": "string"},
                "destinatario_id": {"type": "string"},
                "modelo": {"type": "string"},
                "natureza_operacao": {"type": "string"},
                "meio_pagamento": {"type": "string"},
                "modalidade_frete": {"type": "string"},
                "valor_frete": {"type": "number"},
                "valor_seguro": {"type": "number"},
                "valor_desconto": {"type": "number"},
                "informacoes_complementares": {"type": "string"},
                "itens": {"type": "array", "items": {"$ref": "#/definitions/dto.ItemNotaRequest"}}
            }
        },
        "dto.ItemNotaResponse": {
            "type": "object",
            "properties": {
                "codigo_produto": {"type": "string"},
                "descricao": {"type": "string"},
                "ncm": {"type": "string"},
                "cfop": {"type": "string"},
                "unidade": {"type": "string"},
                "quantidade": {"type": "number"},
                "valor_unitario": {"type": "number"},
                "valor_total": {"type": "number"},
                "valor_icms": {"type": "number"},
                "valor_ipi": {"type": "number"},
                "valor_pis": {"type": "number"},
                "valor_cofins": {"type": "number"}
            }
        },
        "dto.NotaResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "empresa_id": {"type": "string"},
                "modelo": {"type": "string"},
                "serie": {"type": "integer"},
                "numero": {"type": "integer"},
                "natureza_operacao": {"type": "string"},
                "data_emissao": {"type": "string"},
                "status": {"type": "string"},
                "chave_acesso": {"type": "string"},
                "protocolo": {"type": "string"},
                "data_autorizacao": {"type": "string"},
                "motivo_rejeicao": {"type": "string"},
                "destinatario": {"type": "string"},
                "valor_total": {"type": "number"},
                "valor_icms": {"type": "number"},
                "qrcode_url": {"type": "string"},
                "danfe_ref": {"type": "string"},
                "cartas_correcao": {"type": "integer"},
                "itens": {"type": "array", "items": {"$ref": "#/definitions/dto.ItemNotaResponse"}}
            }
        },
        "dto.NotaStatusDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "status": {"type": "string"},
                "chave_acesso": {"type": "string"},
                "protocolo": {"type": "string"},
                "motivo_rejeicao": {"type": "string"}
            }
        },
        "dto.CancelarNotaRequest": {
            "type": "object",
            "properties": {
                "justificativa": {"type": "string"}
            }
        },
        "dto.CartaCorrecaoRequest": {
            "type": "object",
            "properties": {
                "correcao": {"type": "string"}
            }
        },
        "dto.InutilizarFaixaRequest": {
            "type": "object",
            "properties": {
                "empresa_id": {"type": "string"},
                "modelo": {"type": "string"},
                "serie": {"type": "integer"},
                "numero_inicial": {"type": "integer"},
                "numero_final": {"type": "integer"},
                "justificativa": {"type": "string"}
            }
        },
        "dto.EventoFiscalResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "tipo": {"type": "string"},
                "sequencia": {"type": "integer"},
                "descricao": {"type": "string"},
                "protocolo": {"type": "string"},
                "cstat": {"type": "string"},
                "data_evento": {"type": "string"}
            }
        },
        "fiscal.ResultadoEmissao": {
            "type": "object",
            "properties": {
                "nota_id": {"type": "string"},
                "status": {"type": "string"},
                "cstat": {"type": "string"},
                "mensagem": {"type": "string"},
                "chave": {"type": "string"},
                "protocolo": {"type": "string"},
                "avisos": {"type": "array", "items": {"type": "string"}}
            }
        },
        "sefaz.RetornoStatus": {
            "type": "object",
            "properties": {
                "CStat": {"type": "string"},
                "XMotivo": {"type": "string"},
                "TempoMedio": {"type": "string"},
                "Observacao": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "NFe API",
	Description:      "Emissão de NF-e e NFC-e (modelo 55/65) com assinatura digital e transmissão à SEFAZ.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
