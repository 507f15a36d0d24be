// internal/symbols/symbols.go
//
// Loads the fixed symbol set the board is dealt from.
//
// Initialization behavior (Init):
//   1. If path is non-empty, read one symbol per line from that file
//      (blank lines and "#" comments are skipped).
//   2. Otherwise fall back to the embedded default in assets/symbols.txt.
//
// Constraints:
//   • At least one symbol, at most MaxSymbols.
//   • Symbols must be distinct after trimming.
//   • The set is loaded once (sync.Once) and is immutable afterwards.

package symbols

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/memory/assets"
)

// MaxSymbols bounds the board at 2*MaxSymbols tiles.
const MaxSymbols = 64

var (
	ErrEmpty     = errors.New("symbols: set is empty")
	ErrTooMany   = fmt.Errorf("symbols: more than %d symbols", MaxSymbols)
	ErrDuplicate = errors.New("symbols: duplicate symbol")
)

var (
	initOnce   sync.Once
	set        []string
	initialErr error
)

// Init loads the symbol set exactly once.
func Init(path string) error {
	initOnce.Do(func() {
		var list []string
		var err error
		if path != "" {
			list, err = readFile(path)
		} else {
			list, err = assets.SymbolList()
		}
		if err != nil {
			initialErr = fmt.Errorf("symbols: load: %w", err)
			return
		}
		if err := Validate(list); err != nil {
			initialErr = err
			return
		}
		set = list
	})
	return initialErr
}

// Validate checks that list is usable as a symbol set.
func Validate(list []string) error {
	if len(list) == 0 {
		return ErrEmpty
	}
	if len(list) > MaxSymbols {
		return ErrTooMany
	}
	seen := make(map[string]struct{}, len(list))
	for _, s := range list {
		if s == "" {
			return ErrEmpty
		}
		if _, ok := seen[s]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicate, s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// readFile loads one symbol per line, skipping blanks and comments.
func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// All returns a copy of the loaded set (nil before Init succeeds).
func All() []string {
	return append([]string(nil), set...)
}

// Pairs returns K, the number of loaded symbols.
func Pairs() int { return len(set) }
