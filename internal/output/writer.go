// Package output gestisce la scrittura dei documenti prodotti da callchain.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Config configura l'output writer.
type Config struct {
	OutputDir string    // directory output (vuoto = Stdout)
	Indent    bool      // indentazione JSON
	Stdout    io.Writer // destinazione quando OutputDir è vuoto (default os.Stdout)
}

// Nomi dei file prodotti nella directory di output.
const (
	FileSequence = "sequence.puml"
	FileActivity = "activity.puml"
	FileTree     = "analysis.json"
	FileCode     = "callchain.txt"
	FileMethods  = "methods.json"
)

// WriteText scrive un documento testuale (diagramma o sorgente) con il nome indicato.
func WriteText(text, name string, cfg Config) error {
	return withWriter(name, cfg, func(w io.Writer) error {
		if _, err := io.WriteString(w, text); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	})
}

// WriteJSON scrive qualsiasi struttura in formato JSON.
func WriteJSON(data interface{}, name string, cfg Config) error {
	return withWriter(name, cfg, func(w io.Writer) error {
		return Encode(w, data, cfg.Indent)
	})
}

// Encode codifica data su w senza escape HTML.
func Encode(w io.Writer, data interface{}, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	// Assicura che i caratteri speciali non siano escaped
	enc.SetEscapeHTML(false)

	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ToJSON converte data in una stringa JSON.
func ToJSON(data interface{}, indent bool) (string, error) {
	var (
		out []byte
		err error
	)
	if indent {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}
	return string(out), nil
}

func withWriter(name string, cfg Config, fn func(io.Writer) error) error {
	if cfg.OutputDir == "" {
		w := cfg.Stdout
		if w == nil {
			w = os.Stdout
		}
		return fn(w)
	}

	// Crea directory se non esiste
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	outPath := filepath.Join(cfg.OutputDir, name)
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
