package wordbank

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
)

// Provider supplies candidate secret words.
type Provider interface {
	// Sample returns up to n distinct words, uniformly without replacement.
	Sample(n int) []string
}

// Fallback is used when no word file can be loaded.
var Fallback = []string{
	"苹果", "香蕉", "西瓜", "桌子", "椅子", "电脑", "手机", "飞机",
	"汽车", "猫", "狗", "老虎", "狮子", "长颈鹿", "河马",
}

// FileBank is a fixed word list shared by every room.
type FileBank struct {
	words []string
	rng   *rand.Rand
	mutex sync.Mutex
}

// New builds a bank from words, dropping blanks and duplicates.
func New(words []string, rng *rand.Rand) *FileBank {
	seen := make(map[string]struct{}, len(words))
	clean := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		clean = append(clean, w)
	}
	return &FileBank{words: clean, rng: rng}
}

// Read parses a line-delimited word list. Lines starting with # are skipped.
func Read(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// Load reads path; if the file is missing or empty the fallback list is used
// and the returned error explains why.
func Load(path string, rng *rand.Rand) (*FileBank, error) {
	file, err := os.Open(path)
	if err != nil {
		return New(Fallback, rng), fmt.Errorf("open word file %s: %w", path, err)
	}
	defer file.Close()

	words, err := Read(file)
	if err != nil {
		return New(Fallback, rng), fmt.Errorf("read word file %s: %w", path, err)
	}

	bank := New(words, rng)
	if bank.Len() == 0 {
		return New(Fallback, rng), fmt.Errorf("word file %s has no words", path)
	}
	return bank, nil
}

// Len returns the number of distinct words.
func (b *FileBank) Len() int {
	return len(b.words)
}

func (b *FileBank) Sample(n int) []string {
	if n > len(b.words) {
		n = len(b.words)
	}
	if n <= 0 {
		return []string{}
	}

	pool := make([]string, len(b.words))
	copy(pool, b.words)

	b.mutex.Lock()
	defer b.mutex.Unlock()

	// partial Fisher–Yates: the first n slots end up a uniform sample
	for i := 0; i < n; i++ {
		j := i + b.rng.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
