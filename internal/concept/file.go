package concept

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// topicFile is the on-disk layout of one topic's content.
type topicFile struct {
	Topic    string        `yaml:"topic"`
	Concepts []yamlConcept `yaml:"concepts"`
}

type yamlConcept struct {
	Key              string        `yaml:"key"`
	Title            string        `yaml:"title"`
	Concept          string        `yaml:"concept"`
	Definition       string        `yaml:"definition"`
	Example          string        `yaml:"example"`
	Formula          string        `yaml:"formula"`
	FormulaBreakdown []yamlPart    `yaml:"formula_breakdown"`
	Goal             string        `yaml:"goal"`
	Animation        string        `yaml:"animation"`
	Quiz             *yamlQuiz     `yaml:"quiz"`
	Matching         *yamlMatching `yaml:"matching"`
}

type yamlPart struct {
	Part        string `yaml:"part"`
	Icon        string `yaml:"icon"`
	Description string `yaml:"description"`
}

type yamlMatching struct {
	Pairs []struct {
		Left  string `yaml:"left"`
		Right string `yaml:"right"`
	} `yaml:"pairs"`
}

type yamlQuiz struct {
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
	Answer   string   `yaml:"answer"`
}

// FileRepository serves topic content from YAML files under a directory.
// Content is loaded once at construction.
type FileRepository struct {
	rootDir string
	topics  map[string]*Set
	mu      sync.RWMutex
}

// NewFileRepository loads every topic YAML file under rootDir.
func NewFileRepository(rootDir string) (*FileRepository, error) {
	r := &FileRepository{
		rootDir: rootDir,
		topics:  make(map[string]*Set),
	}

	if err := r.loadAll(); err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}

	slog.Info("content loaded", "dir", rootDir, "topics", len(r.topics))
	return r, nil
}

// Concepts returns the topic's concepts. An unknown topic yields an empty
// set, matching the content server.
func (r *FileRepository) Concepts(ctx context.Context, topic string) (*Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Topic: topic, Err: err}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if set, ok := r.topics[topic]; ok {
		return set, nil
	}
	return NewSet(), nil
}

// Topics returns the names of the loaded topics.
func (r *FileRepository) Topics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.topics))
	for name := range r.topics {
		names = append(names, name)
	}
	return names
}

func (r *FileRepository) loadAll() error {
	if _, err := os.Stat(r.rootDir); err != nil {
		return err
	}
	return filepath.Walk(r.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			return r.loadTopic(path)
		}
		return nil
	})
}

func (r *FileRepository) loadTopic(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file topicFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		slog.Warn("skipping invalid topic YAML", "path", path, "error", err)
		return nil
	}
	if file.Topic == "" {
		return nil // Not a topic file
	}

	concepts := make([]Concept, 0, len(file.Concepts))
	for _, yc := range file.Concepts {
		if yc.Key == "" {
			slog.Warn("skipping concept without key", "path", path, "title", yc.Title)
			continue
		}
		c := Concept{
			Key:         yc.Key,
			Title:       yc.Title,
			Explanation: firstNonEmpty(yc.Concept, yc.Definition),
			Example:     yc.Example,
			Formula:     yc.Formula,
			Goal:        yc.Goal,
			Animation:   yc.Animation,
		}
		for _, p := range yc.FormulaBreakdown {
			c.Breakdown = append(c.Breakdown, FormulaPart{Part: p.Part, Icon: p.Icon, Description: p.Description})
		}
		if yc.Matching != nil {
			c.Matching = &Matching{}
			for _, p := range yc.Matching.Pairs {
				c.Matching.Pairs = append(c.Matching.Pairs, Pair{Left: p.Left, Right: p.Right})
			}
		}
		if yc.Quiz != nil {
			c.Quiz = &Quiz{Question: yc.Quiz.Question, Options: yc.Quiz.Options, Answer: yc.Quiz.Answer}
		}
		concepts = append(concepts, c)
	}

	r.mu.Lock()
	r.topics[file.Topic] = NewSet(concepts...)
	r.mu.Unlock()

	return nil
}
