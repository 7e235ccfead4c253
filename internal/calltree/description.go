// Package calltree definisce l'albero delle chiamate prodotto dall'analisi di una catena di metodi.
package calltree

import (
	"sort"
	"strings"
)

// Chiavi degli attributi liberi di una Description.
const (
	AttrCaller         = "caller"
	AttrParameters     = "parameters"
	AttrExternal       = "external"
	AttrImplementation = "implementation"
	AttrImplements     = "implements"
	AttrStatement      = "statement"
	AttrExpressionText = "expression.text"
	AttrSubBody        = "expression.subBody"
	AttrMethodInit     = "method.init"
)

// Signature identifica un metodo. Due firme sono uguali se tutti i campi coincidono.
type Signature struct {
	Owner      string // nome qualificato del tipo proprietario
	Name       string
	ReturnType string
	Params     string // tipi dei parametri separati da ", "
}

// String restituisce Owner.Name.
func (s Signature) String() string {
	if s.Owner == "" {
		return s.Name
	}
	return s.Owner + "." + s.Name
}

// Description è il payload di un nodo: identità del metodo più sorgente, documentazione e attributi.
type Description struct {
	Signature

	SimpleOwner string
	Source      string
	Doc         string
	File        string
	Line        int

	attrs map[string]string
}

// NewDescription crea una Description senza attributi.
func NewDescription(sig Signature, simpleOwner string) *Description {
	if simpleOwner == "" {
		simpleOwner = simpleName(sig.Owner)
	}
	return &Description{Signature: sig, SimpleOwner: simpleOwner, attrs: map[string]string{}}
}

// Attr restituisce il valore dell'attributo o "" se assente.
func (d *Description) Attr(key string) string {
	if d == nil || d.attrs == nil {
		return ""
	}
	return d.attrs[key]
}

// Flag riporta se l'attributo vale "true".
func (d *Description) Flag(key string) bool {
	return d.Attr(key) == "true"
}

// Set imposta un attributo.
func (d *Description) Set(key, value string) {
	if d.attrs == nil {
		d.attrs = map[string]string{}
	}
	d.attrs[key] = value
}

// Attrs restituisce una copia degli attributi.
func (d *Description) Attrs() map[string]string {
	out := make(map[string]string, len(d.attrs))
	for k, v := range d.attrs {
		out[k] = v
	}
	return out
}

// AttrKeys restituisce le chiavi ordinate.
func (d *Description) AttrKeys() []string {
	keys := make([]string, 0, len(d.attrs))
	for k := range d.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MethodID è la chiave usata per deduplicare il codice raccolto: Owner-Name-parametri.
func (d *Description) MethodID() string {
	return d.Owner + "-" + d.Name + "-" + d.Attr(AttrParameters)
}

// IsVoid riporta se il metodo non restituisce nulla.
func (d *Description) IsVoid() bool {
	rt := strings.TrimSpace(d.ReturnType)
	return rt == "" || rt == "void"
}

func simpleName(qualified string) string {
	if i := strings.LastIndexAny(qualified, "./"); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}
