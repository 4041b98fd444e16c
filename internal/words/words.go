// Package words holds the local dictionary: the curated target words with
// their hints, and the wider list of words accepted as guesses.
package words

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/CodeAndHammer/wordwise/internal/constants"
	"github.com/CodeAndHammer/wordwise/internal/util"
)

var ErrEmptyCatalog = errors.New("word catalog is empty")

type Entry struct {
	Word string `json:"word"`
	Hint string `json:"hint"`
}

type wordList struct {
	Words []Entry `json:"words"`
}

type Catalog struct {
	entries    []Entry
	wordSet    map[string]struct{}
	accepted   map[string]struct{}
	restricted bool
	hints      map[string]string
}

// NewCatalog builds a catalog from entries, dropping anything that is not a
// five letter word. When accepted holds no words, guesses are not checked
// against a dictionary.
func NewCatalog(entries []Entry, accepted []string) (*Catalog, error) {
	valid := lo.FilterMap(entries, func(e Entry, _ int) (Entry, bool) {
		e.Word = strings.ToUpper(strings.TrimSpace(e.Word))
		if len(e.Word) != constants.WordLength {
			util.LogWarn("Skipping word %q: not %d letters", e.Word, constants.WordLength)
			return e, false
		}
		return e, true
	})
	valid = lo.UniqBy(valid, func(e Entry) string { return e.Word })
	if len(valid) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		entries:  valid,
		wordSet:  make(map[string]struct{}, len(valid)),
		accepted: make(map[string]struct{}, len(valid)+len(accepted)),
		hints: lo.Associate(valid, func(e Entry) (string, string) {
			return e.Word, e.Hint
		}),
	}
	for _, e := range valid {
		c.wordSet[e.Word] = struct{}{}
		c.accepted[e.Word] = struct{}{}
	}
	for _, w := range accepted {
		w = strings.ToUpper(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		c.accepted[w] = struct{}{}
		c.restricted = true
	}
	return c, nil
}

// Load reads the JSON word list and the newline separated accepted list.
// acceptedPath may be empty.
func Load(wordsPath, acceptedPath string) (*Catalog, error) {
	util.LogInfo("Loading words from %s", wordsPath)
	data, err := os.ReadFile(wordsPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", wordsPath, err)
	}
	var wl wordList
	if err := json.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse %s: %w", wordsPath, err)
	}

	var accepted []string
	if acceptedPath != "" {
		util.LogInfo("Loading accepted words from %s", acceptedPath)
		raw, err := os.ReadFile(acceptedPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", acceptedPath, err)
		}
		accepted = strings.Split(string(raw), "\n")
	}

	c, err := NewCatalog(wl.Words, accepted)
	if err != nil {
		return nil, err
	}
	util.LogInfo("Loaded %d words, %d accepted", c.Len(), len(c.accepted))
	return c, nil
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

func (c *Catalog) AcceptedLen() int {
	return len(c.accepted)
}

func (c *Catalog) Contains(word string) bool {
	_, ok := c.wordSet[word]
	return ok
}

// Restricted reports whether guesses must come from the accepted list.
func (c *Catalog) Restricted() bool {
	return c.restricted
}

// IsAccepted reports whether word may be guessed. Without an accepted list
// every word is allowed; callers validate the shape separately.
func (c *Catalog) IsAccepted(word string) bool {
	if !c.restricted {
		return true
	}
	_, ok := c.accepted[word]
	return ok
}

func (c *Catalog) Hint(word string) string {
	if word == "" {
		return ""
	}
	return c.hints[word]
}

// Random picks a catalog entry uniformly. On cancellation or a failing random
// source it returns the first entry.
func (c *Catalog) Random(ctx context.Context) Entry {
	return pick(ctx, c.entries)
}

// RandomExcluding picks an entry not in completed. When every word has been
// completed it picks from the full list and reports needsReset.
func (c *Catalog) RandomExcluding(ctx context.Context, completed []string) (entry Entry, needsReset bool) {
	if len(completed) == 0 {
		return c.Random(ctx), false
	}
	available := lo.Filter(c.entries, func(e Entry, _ int) bool {
		return !slices.Contains(completed, e.Word)
	})
	if len(available) == 0 {
		util.LogInfoCtx(ctx, "All words completed, reset needed. Total words: %d, Completed: %d", len(c.entries), len(completed))
		return c.Random(ctx), true
	}
	return pick(ctx, available), false
}

func pick(ctx context.Context, entries []Entry) Entry {
	select {
	case <-ctx.Done():
		util.LogWarnCtx(ctx, "Word selection cancelled: %v", ctx.Err())
		return entries[0]
	default:
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(entries))))
	if err != nil {
		util.LogWarnCtx(ctx, "Error generating random number: %v, using fallback", err)
		return entries[0]
	}
	return entries[n.Int64()]
}
