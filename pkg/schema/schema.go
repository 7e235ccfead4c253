// Package schema definisce i documenti JSON prodotti da callchain.
package schema

// ============================================================================
// Struttura Principale
// ============================================================================

// Analysis è il documento root prodotto dal comando tree.
type Analysis struct {
	Metadata Metadata  `json:"metadata"`
	Stats    Stats     `json:"stats"`
	Tree     *CallNode `json:"tree"` // nil se il metodo di ingresso non è analizzabile
	Issues   []Issue   `json:"issues"`
}

// Metadata contiene informazioni sull'analisi eseguita.
type Metadata struct {
	ID                 string `json:"id"`
	Analyzer           string `json:"analyzer"`
	Version            string `json:"version"`
	Language           string `json:"language"`
	Timestamp          string `json:"timestamp"`
	ProjectPath        string `json:"project_path"`
	EntryMethod        string `json:"entry_method"`
	MaxDepth           int    `json:"max_depth"`
	AnalysisDurationMs int64  `json:"analysis_duration_ms"`
}

// Stats riassume la forma dell'albero.
type Stats struct {
	Nodes  int      `json:"nodes"`
	Height int      `json:"height"`
	Owners []string `json:"owners"`
}

// Issue rappresenta un problema rilevato durante l'analisi.
type Issue struct {
	Severity string    `json:"severity"` // error|warning|info
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Position *Position `json:"position,omitempty"`
}

// Position identifica una posizione nel sorgente.
type Position struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// ============================================================================
// Albero delle chiamate
// ============================================================================

// CallNode è la forma serializzata di un nodo dell'albero.
type CallNode struct {
	Owner       string            `json:"owner"`
	SimpleOwner string            `json:"simple_owner"`
	Name        string            `json:"name"`
	ReturnType  string            `json:"return_type,omitempty"`
	Params      string            `json:"params,omitempty"`
	Depth       int               `json:"depth"`
	Recursive   bool              `json:"recursive,omitempty"`
	Doc         string            `json:"doc,omitempty"`
	Position    *Position         `json:"position,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Source      string            `json:"source,omitempty"`
	Children    []*CallNode       `json:"children,omitempty"`
}

// ============================================================================
// Elenco metodi
// ============================================================================

// MethodRef descrive un possibile metodo di ingresso.
type MethodRef struct {
	Ref       string    `json:"ref"` // stringa accettata dalla ricerca del metodo
	Owner     string    `json:"owner"`
	Name      string    `json:"name"`
	Signature string    `json:"signature,omitempty"`
	Abstract  bool      `json:"abstract,omitempty"`
	Position  *Position `json:"position,omitempty"`
}

// MethodList è il documento prodotto dal comando methods.
type MethodList struct {
	Language string      `json:"language"`
	Methods  []MethodRef `json:"methods"`
}
