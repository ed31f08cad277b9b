// Package cache answers greetings and frequent questions without calling the model.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// minPartialKeyLen keeps very short keys like "hi" from matching inside unrelated words.
const minPartialKeyLen = 3

type Entry struct {
	Phrase string `json:"phrase"`
	Reply  string `json:"reply"`
}

// Cache is a read-only phrase table. Keys keep their insertion order so the
// partial match is deterministic.
type Cache struct {
	keys    []string
	replies map[string]string
}

func New(entries []Entry) *Cache {
	c := &Cache{replies: make(map[string]string, len(entries))}
	for _, e := range entries {
		key := normalize(e.Phrase)
		if key == "" {
			continue
		}
		if _, dup := c.replies[key]; dup {
			continue
		}
		c.keys = append(c.keys, key)
		c.replies[key] = e.Reply
	}
	return c
}

// Load reads an ordered JSON array of {"phrase","reply"} pairs.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read canned replies: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode canned replies: %w", err)
	}
	return New(entries), nil
}

// Lookup tries an exact match on the normalized message, then the first key
// (in insertion order) longer than three characters contained in it.
func (c *Cache) Lookup(message string) (string, bool) {
	msg := normalize(message)
	if msg == "" {
		return "", false
	}
	if reply, ok := c.replies[msg]; ok {
		return reply, true
	}
	for _, key := range c.keys {
		if utf8.RuneCountInString(key) > minPartialKeyLen && strings.Contains(msg, key) {
			return c.replies[key], true
		}
	}
	return "", false
}

func (c *Cache) Len() int { return len(c.keys) }

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
