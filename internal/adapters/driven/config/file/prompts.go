package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/docbrain/docbrain-cli/internal/core/ports/driven"
	"github.com/docbrain/docbrain-cli/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// placeholders lists the format verbs each templated prompt must keep.
var placeholders = map[string]int{
	driven.PromptGapAdvice: 1,
}

// PromptStore serves the answer and gap prompts from editable text files
// in a directory, one <name>.txt per prompt. Missing files are seeded with
// the built-in defaults on first use. Edits are picked up on the next Load.
type PromptStore struct {
	dir string

	seed    sync.Once
	seedErr error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

type cachedPrompt struct {
	text    string
	modTime time.Time
}

// NewPromptStore creates a store over dir. An empty dir means
// ~/.docbrain/prompts. No files are touched until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the named prompt. A file that cannot be read, or that lost
// a required placeholder, yields the built-in default.
func (s *PromptStore) Load(name string) (string, error) {
	def, known := driven.DefaultPrompts()[name]

	s.seed.Do(s.seedDefaults)
	if s.seedErr != nil {
		if known {
			return def, nil
		}
		return "", fmt.Errorf("prompt directory: %w", s.seedErr)
	}

	text, err := s.read(name)
	if err != nil {
		if known {
			return def, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	if want, ok := placeholders[name]; ok && strings.Count(text, "%s") != want {
		logger.Warn("prompt %s.txt must contain %d %%s placeholder(s), using the default", name, want)
		return def, nil
	}
	return text, nil
}

// Reload drops cached prompts.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]cachedPrompt)
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// read returns the file contents, reusing the cache while the file's
// modification time is unchanged.
func (s *PromptStore) read(name string) (string, error) {
	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	cached, ok := s.cache[name]
	s.mu.Unlock()
	if ok && cached.modTime.Equal(info.ModTime()) {
		return cached.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))

	s.mu.Lock()
	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime()}
	s.mu.Unlock()
	return text, nil
}

func (s *PromptStore) seedDefaults() {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		s.seedErr = fmt.Errorf("create %s: %w", s.dir, err)
		return
	}
	for name, text := range driven.DefaultPrompts() {
		if err := writeIfMissing(s.path(name), text); err != nil {
			s.seedErr = fmt.Errorf("seed prompt %q: %w", name, err)
			return
		}
	}
	s.seedErr = writeIfMissing(filepath.Join(s.dir, "README.md"), promptReadme)
}

func writeIfMissing(path, content string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0600)
}

const promptReadme = `# docbrain prompts

Each file holds one prompt sent to the language model. Edit a file and the
next question or gap report uses the new text. Delete a file to restore its
default.

- answer_system.txt: system instruction for answers grounded in retrieved sections
- no_context.txt: replaces the context block when nothing relevant was retrieved
- gap_advice.txt: asks for a prioritised plan for empty and incomplete sections

gap_advice.txt must keep exactly one %s, where the list of gaps is inserted.
Otherwise the default is used.
`
