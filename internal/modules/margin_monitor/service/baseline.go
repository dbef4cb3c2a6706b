package service

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const dateLayout = "2006-01-02"

// Baseline: дневной снимок процентов ГО, от него считается дайджест.
type Baseline struct {
	Date   string             `yaml:"date"`
	Values map[string]float64 `yaml:"values"`
}

func LoadBaseline(path string) (*Baseline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var bl Baseline
	if err := yaml.Unmarshal(b, &bl); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if bl.Values == nil {
		bl.Values = map[string]float64{}
	}
	return &bl, nil
}

func SaveBaseline(path string, bl *Baseline) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	b, err := yaml.Marshal(bl)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
