// Package config carica la configurazione da callchain.yml e dalle variabili d'ambiente.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/codellm-devkit/callchain-go/internal/chain"
)

// FileName è il nome del file cercato nella radice analizzata e nella directory corrente.
const FileName = "callchain.yml"

// EnvPrefix precede le variabili d'ambiente che sovrascrivono le chiavi, es. CALLCHAIN_MAX_DEPTH.
const EnvPrefix = "CALLCHAIN"

// ErrInvalidConfig segnala valori non ammessi.
var ErrInvalidConfig = errors.New("invalid configuration")

// Languages supportati; auto sceglie in base al contenuto della radice.
const (
	LangAuto = "auto"
	LangGo   = "go"
	LangJava = "java"
)

type Config struct {
	Language     string   `mapstructure:"language" yaml:"language"`
	MaxDepth     int      `mapstructure:"max_depth" yaml:"max_depth"`
	MaxNodes     int      `mapstructure:"max_nodes" yaml:"max_nodes"`
	Workers      int      `mapstructure:"workers" yaml:"workers"`
	IncludeTests bool     `mapstructure:"include_tests" yaml:"include_tests"`
	ExcludeDirs  []string `mapstructure:"exclude_dirs" yaml:"exclude_dirs"`
	Patterns     Patterns `mapstructure:"patterns" yaml:"patterns"`
	Render       Render   `mapstructure:"render" yaml:"render"`
	Neo4j        Neo4j    `mapstructure:"neo4j" yaml:"neo4j"`

	// File è il file letto, vuoto se si usano solo i default.
	File string `mapstructure:"-" yaml:"-"`
}

type Patterns struct {
	Include  []string `mapstructure:"include" yaml:"include"`
	Exclude  []string `mapstructure:"exclude" yaml:"exclude"`
	Platform []string `mapstructure:"platform" yaml:"platform"`
}

type Render struct {
	Title      bool `mapstructure:"title" yaml:"title"`
	Legend     bool `mapstructure:"legend" yaml:"legend"`
	Statements bool `mapstructure:"statements" yaml:"statements"`
}

type Neo4j struct {
	URI      string `mapstructure:"uri" yaml:"uri"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// Default restituisce la configurazione usata quando nessun file è presente.
func Default() Config {
	return Config{
		Language:    LangAuto,
		MaxDepth:    chain.DefaultMaxDepth,
		Workers:     4,
		ExcludeDirs: []string{},
		Patterns: Patterns{
			Include:  append([]string(nil), chain.DefaultInclude...),
			Exclude:  append([]string(nil), chain.DefaultExclude...),
			Platform: append([]string(nil), chain.DefaultPlatform...),
		},
		Render: Render{Title: true, Legend: true, Statements: true},
		Neo4j:  Neo4j{URI: "bolt://localhost:7687", User: "neo4j", Database: "neo4j"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("language", d.Language)
	v.SetDefault("max_depth", d.MaxDepth)
	v.SetDefault("max_nodes", d.MaxNodes)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("include_tests", d.IncludeTests)
	v.SetDefault("exclude_dirs", d.ExcludeDirs)
	v.SetDefault("patterns.include", d.Patterns.Include)
	v.SetDefault("patterns.exclude", d.Patterns.Exclude)
	v.SetDefault("patterns.platform", d.Patterns.Platform)
	v.SetDefault("render.title", d.Render.Title)
	v.SetDefault("render.legend", d.Render.Legend)
	v.SetDefault("render.statements", d.Render.Statements)
	v.SetDefault("neo4j.uri", d.Neo4j.URI)
	v.SetDefault("neo4j.user", d.Neo4j.User)
	v.SetDefault("neo4j.password", d.Neo4j.Password)
	v.SetDefault("neo4j.database", d.Neo4j.Database)
}

// Load legge la configurazione. Se explicit non è vuoto il file deve esistere; altrimenti
// callchain.yml viene cercato in root e poi nella directory corrente, e la sua assenza
// non è un errore. Le variabili CALLCHAIN_* hanno la precedenza sul file.
func Load(explicit, root string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, explicit, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
		v.SetConfigType("yaml")
		if root != "" {
			v.AddConfigPath(root)
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate controlla i valori che il motore non può correggere da solo.
func (c Config) Validate() error {
	switch c.Language {
	case LangAuto, LangGo, LangJava:
	default:
		return fmt.Errorf("%w: language %q (want auto, go or java)", ErrInvalidConfig, c.Language)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: max_depth must be positive, got %d", ErrInvalidConfig, c.MaxDepth)
	}
	if c.MaxNodes < 0 {
		return fmt.Errorf("%w: max_nodes must not be negative, got %d", ErrInvalidConfig, c.MaxNodes)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Classifier costruisce il classificatore dai pattern configurati.
func (c Config) Classifier() *chain.Classifier {
	return chain.NewClassifier(c.Patterns.Include, c.Patterns.Exclude, c.Patterns.Platform)
}

// WriteDefault scrive la configurazione di default in path senza sovrascrivere file esistenti.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
