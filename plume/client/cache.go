package client

import (
	"sync"

	"plume/plume/sources/mongo/models"
)

// chatCache deduplicates transcript reads between writes. Entries live until
// explicitly invalidated; there is no TTL because every write path
// invalidates the transcript it touched.
type chatCache struct {
	mu    sync.Mutex
	chats map[string]*models.Chat
}

func newChatCache() *chatCache {
	return &chatCache{chats: make(map[string]*models.Chat)}
}

func (c *chatCache) get(id string) (*models.Chat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	chat, ok := c.chats[id]
	return chat, ok
}

func (c *chatCache) put(id string, chat *models.Chat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chats[id] = chat
}

func (c *chatCache) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.chats, id)
}
