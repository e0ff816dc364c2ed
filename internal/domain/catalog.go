package domain

import (
	"strconv"
)

// FieldType é o conjunto fechado de tipos de coluna do destino.
type FieldType string

const (
	FieldTypeInteger FieldType = "INTEGER"
	FieldTypeFloat   FieldType = "FLOAT"
	FieldTypeString  FieldType = "STRING"
)

// Field é uma coluna conhecida do catálogo, na ordem em que foi vista.
type Field struct {
	Name string
	Type FieldType
}

// FieldCatalog é o conjunto acumulado de colunas de saída, ordenado por
// primeira aparição. Append-only: uma coluna nunca é removida nem
// re-tipada para um tipo mais estreito.
type FieldCatalog struct {
	fields []Field
	index  map[string]int
	// seeded marca quantas colunas vieram do schema do destino. O tipo
	// dessas colunas é do destino e não pode ser alterado por amostra: só
	// adições de coluna são publicáveis, nunca mudanças de tipo.
	seeded int
}

// NewFieldCatalog cria um catálogo a partir das colunas já conhecidas
// (normalmente o schema atual da tabela de destino).
func NewFieldCatalog(fields ...Field) *FieldCatalog {
	c := &FieldCatalog{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		c.Append(f)
	}
	c.seeded = len(c.fields)
	return c
}

// Len retorna a quantidade de colunas conhecidas.
func (c *FieldCatalog) Len() int { return len(c.fields) }

// Fields retorna uma cópia das colunas na ordem de primeira aparição.
func (c *FieldCatalog) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Lookup retorna a posição e o tipo de uma coluna, se conhecida.
func (c *FieldCatalog) Lookup(name string) (pos int, typ FieldType, ok bool) {
	pos, ok = c.index[name]
	if !ok {
		return 0, "", false
	}
	return pos, c.fields[pos].Type, true
}

// Append adiciona uma coluna nova ao final do catálogo. Se a coluna já
// existe, só permite alargamento de tipo (INTEGER → FLOAT), nunca
// estreitamento — e só em colunas registradas nesta execução: uma coluna
// semeada do destino mantém o tipo do destino e a amostra é coagida a ele.
func (c *FieldCatalog) Append(f Field) int {
	if pos, ok := c.index[f.Name]; ok {
		if pos >= c.seeded && c.fields[pos].Type == FieldTypeInteger && f.Type == FieldTypeFloat {
			c.fields[pos].Type = FieldTypeFloat
		}
		return pos
	}
	c.fields = append(c.fields, f)
	c.index[f.Name] = len(c.fields) - 1
	return len(c.fields) - 1
}

// Clone devolve uma cópia independente do catálogo, preservando a fronteira
// entre colunas semeadas do destino e colunas registradas na execução.
func (c *FieldCatalog) Clone() *FieldCatalog {
	clone := &FieldCatalog{
		fields: make([]Field, len(c.fields)),
		index:  make(map[string]int, len(c.index)),
		seeded: c.seeded,
	}
	copy(clone.fields, c.fields)
	for name, pos := range c.index {
		clone.index[name] = pos
	}
	return clone
}

// FieldsSince retorna as colunas adicionadas depois da posição n — o que
// cresceu desde um snapshot anterior e precisa ser publicado no destino.
func (c *FieldCatalog) FieldsSince(n int) []Field {
	if n >= len(c.fields) {
		return nil
	}
	out := make([]Field, len(c.fields)-n)
	copy(out, c.fields[n:])
	return out
}

// InferType é a função pura de inferência de tipo a partir de um valor
// amostrado: string com cara de inteiro → INTEGER, com cara de número →
// FLOAT, senão STRING. Colunas fixas de identidade são sempre STRING.
func InferType(name string, value interface{}) FieldType {
	if StaticStringFields[name] {
		return FieldTypeString
	}
	switch v := value.(type) {
	case int, int32, int64:
		return FieldTypeInteger
	case float32:
		return floatType(float64(v))
	case float64:
		return floatType(v)
	case string:
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			return FieldTypeInteger
		}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return FieldTypeFloat
		}
		return FieldTypeString
	default:
		return FieldTypeString
	}
}

// JSON decodifica números como float64; um float com parte fracionária nula
// vindo de um campo métrico ainda é tratado como inteiro.
func floatType(v float64) FieldType {
	if v == float64(int64(v)) {
		return FieldTypeInteger
	}
	return FieldTypeFloat
}

// ReconciledRow carrega os valores posicionados conforme o catálogo vigente
// no momento da reconciliação. nil marca ausência explícita — o destino
// distingue "não presente" de "presente e zero".
type ReconciledRow struct {
	Partition string
	Values    []interface{}
}
