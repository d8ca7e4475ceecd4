package session

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/f3rmion/dlgview/internal/dialog"
	"github.com/f3rmion/dlgview/internal/metrics"
)

// Cache keeps recently parsed conversations keyed by absolute path.
// Conversations are never mutated after parsing, so sessions share them.
type Cache struct {
	entries *lru.Cache[string, *dialog.Conversation]

	mu     sync.RWMutex
	utcDir string
}

// NewCache returns a cache holding up to size conversations. When utcDir is
// set, owner tags are looked up among the creature templates there.
func NewCache(size int, utcDir string) (*Cache, error) {
	entries, err := lru.New[string, *dialog.Conversation](size)
	if err != nil {
		return nil, fmt.Errorf("creating conversation cache: %w", err)
	}
	return &Cache{entries: entries, utcDir: utcDir}, nil
}

// Load returns the conversation at path, parsing it on a miss.
func (c *Cache) Load(path string) (*dialog.Conversation, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	if conv, ok := c.entries.Get(key); ok {
		metrics.ConversationsLoaded.WithLabelValues("cache").Inc()
		return conv, nil
	}

	conv, err := dialog.ParseFile(path)
	if err != nil {
		metrics.ConversationLoadErrors.Inc()
		return nil, err
	}
	if dir := c.ownerDir(); conv.OwnerTag == "" && dir != "" {
		conv.OwnerTag = dialog.FindOwnerTag(dir, conv.Name)
	}

	c.entries.Add(key, conv)
	metrics.ConversationsLoaded.WithLabelValues("disk").Inc()
	slog.Info("loaded conversation", "name", conv.Name, "nodes", len(conv.Nodes), "owner", conv.OwnerTag)
	return conv, nil
}

// Len returns the number of cached conversations.
func (c *Cache) Len() int { return c.entries.Len() }

// Purge drops every cached conversation.
func (c *Cache) Purge() { c.entries.Purge() }

func (c *Cache) ownerDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.utcDir
}

// SetOwnerDir changes the creature template directory. Cached
// conversations carry owner tags from the old directory and are purged.
func (c *Cache) SetOwnerDir(dir string) {
	c.mu.Lock()
	changed := c.utcDir != dir
	c.utcDir = dir
	c.mu.Unlock()

	if changed {
		c.Purge()
		slog.Info("conversation cache purged", "utc_dir", dir)
	}
}
