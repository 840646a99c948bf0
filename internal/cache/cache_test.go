package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "upnext:video:dQw4w9WgXcQ", VideoKey("dQw4w9WgXcQ"))
	assert.Equal(t, "upnext:lock:advance:owner-1", AdvanceLockKey("owner-1"))
	assert.Equal(t, "upnext:lock:submit:owner-1:user-2", SubmitLockKey("owner-1", "user-2"))
	assert.Equal(t, "upnext:jobs:metadata", DefaultQueue)
}

func TestRandomToken_Unique(t *testing.T) {
	a, b := randomToken(), randomToken()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("not-a-redis-url")
	assert.Error(t, err)

	r, err := New("redis://localhost:6379/0")
	assert.NoError(t, err)
	assert.NoError(t, r.Close())
}
