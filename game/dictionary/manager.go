package dictionary

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/codenames-server/game/engine"
)

var (
	ErrDictionaryNotFound = errors.New("dictionary not found")
	ErrInvalidDictionary  = errors.New("invalid dictionary")
)

//go:embed default.yaml
var defaultDictionary []byte

// Dictionary is a named list of unique words
type Dictionary struct {
	Filename    string
	Name        string
	Description string
	// Warning flags dictionaries that need attention (explicit words, age restriction)
	Warning    bool
	Words      []string
	Duplicates int
}

// Info describes a dictionary for listings
type Info struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Warning      bool     `json:"warning"`
	WordCount    int      `json:"wordCount"`
	WordsExample []string `json:"wordsExample"`
}

// RandomWords returns n distinct words picked uniformly at random
func (d *Dictionary) RandomWords(n int) ([]string, error) {
	if n > len(d.Words) {
		return nil, fmt.Errorf("%w: dictionary %q has %d words, need %d", engine.ErrInsufficientWords, d.Name, len(d.Words), n)
	}

	picked := make([]string, 0, n)
	for _, i := range rand.Perm(len(d.Words))[:n] {
		picked = append(picked, d.Words[i])
	}
	return picked, nil
}

// file mirrors the YAML layout of a dictionary file
type file struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Warn        bool     `yaml:"warn"`
	Words       wordList `yaml:"words"`
}

// wordList accepts either a delimited string or a sequence of strings
type wordList []string

func (w *wordList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*w = SplitWords(value.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*w = SplitWords(strings.Join(items, " "))
		return nil
	}
	return fmt.Errorf("words must be a string or a list, got yaml kind %d", value.Kind)
}

// SplitWords splits raw text on whitespace, commas and semicolons
func SplitWords(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// Parse decodes a YAML dictionary and removes duplicate words
func Parse(data []byte, filename string) (*Dictionary, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDictionary, filename, err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("%w: %s: name is required", ErrInvalidDictionary, filename)
	}

	seen := make(map[string]bool, len(f.Words))
	unique := make([]string, 0, len(f.Words))
	for _, word := range f.Words {
		if seen[word] {
			continue
		}
		seen[word] = true
		unique = append(unique, word)
	}

	return &Dictionary{
		Filename:    filename,
		Name:        f.Name,
		Description: f.Description,
		Warning:     f.Warn,
		Words:       unique,
		Duplicates:  len(f.Words) - len(unique),
	}, nil
}

// Manager loads and serves the dictionaries of a directory
type Manager struct {
	dir          string
	dictionaries []*Dictionary
	logger       zerolog.Logger
	mu           sync.RWMutex
}

// NewManager creates a dictionary manager. An empty or missing directory
// falls back to the embedded default dictionary.
func NewManager(dir string, logger zerolog.Logger) (*Manager, error) {
	m := &Manager{
		dir:    dir,
		logger: logger.With().Str("component", "dictionary").Logger(),
	}
	if err := m.Reload(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload re-reads every dictionary file from disk
func (m *Manager) Reload() error {
	dictionaries, err := LoadDir(m.dir)
	if err != nil {
		return err
	}

	if len(dictionaries) == 0 {
		m.logger.Warn().Str("dir", m.dir).Msg("no dictionaries found, using embedded default")
		dict, err := Parse(defaultDictionary, "default.yaml")
		if err != nil {
			return fmt.Errorf("failed to parse embedded dictionary: %w", err)
		}
		dictionaries = []*Dictionary{dict}
	}

	for _, dict := range dictionaries {
		m.logger.Info().
			Str("file", dict.Filename).
			Str("name", dict.Name).
			Int("words", len(dict.Words)).
			Msg("dictionary loaded")
	}

	m.mu.Lock()
	m.dictionaries = dictionaries
	m.mu.Unlock()
	return nil
}

// Get returns the dictionary with the given id
func (m *Manager) Get(id int) (*Dictionary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id < 0 || id >= len(m.dictionaries) {
		return nil, fmt.Errorf("%w: %d", ErrDictionaryNotFound, id)
	}
	return m.dictionaries[id], nil
}

// RandomWords picks n words from the dictionary with the given id
func (m *Manager) RandomWords(id, n int) ([]string, error) {
	dict, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return dict.RandomWords(n)
}

// List describes every loaded dictionary with a few sample words
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.dictionaries))
	for i, dict := range m.dictionaries {
		sample, err := dict.RandomWords(min(5, len(dict.Words)))
		if err != nil {
			sample = nil
		}
		infos = append(infos, Info{
			ID:           i,
			Name:         dict.Name,
			Description:  dict.Description,
			Warning:      dict.Warning,
			WordCount:    len(dict.Words),
			WordsExample: sample,
		})
	}
	return infos
}

// Count returns the number of loaded dictionaries
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dictionaries)
}

// LoadDir parses every *.yaml / *.yml file of dir in lexical order.
// A missing directory yields no dictionaries and no error.
func LoadDir(dir string) ([]*Dictionary, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read dictionary directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	dictionaries := make([]*Dictionary, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read dictionary %s: %w", name, err)
		}
		dict, err := Parse(data, name)
		if err != nil {
			return nil, err
		}
		dictionaries = append(dictionaries, dict)
	}
	return dictionaries, nil
}
