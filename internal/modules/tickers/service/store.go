package service

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Store: множество тикеров, которые когда-либо приходили в сигналах.
// Файл: один тикер на строку, отсортировано.
type Store struct {
	path string

	mu     sync.Mutex
	set    map[string]struct{}
	loaded bool
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
		set:  make(map[string]struct{}),
	}
}

// Add возвращает true, если тикер новый и файл переписан.
func (s *Store) Add(ticker string) (bool, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return false, err
	}
	if _, ok := s.set[ticker]; ok {
		return false, nil
	}
	s.set[ticker] = struct{}{}
	if err := s.saveLocked(); err != nil {
		delete(s.set, ticker)
		return false, err
	}
	return true, nil
}

// All: отсортированная копия множества.
func (s *Store) All() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	return s.sortedLocked(), nil
}

func (s *Store) sortedLocked() []string {
	out := make([]string, 0, len(s.set))
	for t := range s.set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if t := strings.TrimSpace(sc.Text()); t != "" {
			s.set[t] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", s.path, err)
	}

	s.loaded = true
	return nil
}

func (s *Store) saveLocked() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	for _, t := range s.sortedLocked() {
		buf.WriteString(t)
		buf.WriteByte('\n')
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path) // атомарно
}
