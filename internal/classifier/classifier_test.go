package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/entities"
)

func fileEntry(pathLower string) entities.RemoteEntry {
	return entities.RemoteEntry{
		ID:        "id:abc123",
		PathLower: pathLower,
		Tag:       entities.TagFile,
	}
}

func TestClassifyImages(t *testing.T) {
	c := New("0 US")

	tests := []struct {
		name    string
		path    string
		wantKey string
	}{
		{
			name:    "jpg keeps key",
			path:    "/0 us/alice/trip/photo.jpg",
			wantKey: "0 US/alice/trip/photo.jpg",
		},
		{
			name:    "png forced to jpg",
			path:    "/0 us/alice/trip/scan.png",
			wantKey: "0 US/alice/trip/scan.jpg",
		},
		{
			name:    "gif forced to jpg",
			path:    "/0 us/bob/memes/loop.gif",
			wantKey: "0 US/bob/memes/loop.jpg",
		},
		{
			name:    "webp forced to jpg",
			path:    "/0 us/bob/art/frame.webp",
			wantKey: "0 US/bob/art/frame.jpg",
		},
		{
			name:    "jpeg forced to jpg",
			path:    "/0 us/alice/photo.jpeg",
			wantKey: "0 US/alice/photo.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf, ok := c.Classify(fileEntry(tt.path))
			require.True(t, ok)
			assert.Equal(t, entities.KindImage, cf.Kind)
			assert.Equal(t, tt.wantKey, cf.Key)
			assert.Equal(t, "id:abc123", cf.RemoteID)
		})
	}
}

func TestClassifyVideosKeepExtension(t *testing.T) {
	c := New("0 US")

	for _, path := range []string{
		"/0 us/alice/trip/clip.mov",
		"/0 us/alice/trip/clip.mp4",
		"/0 us/alice/trip/clip.m4v",
		"/0 us/alice/trip/clip.avi",
		"/0 us/alice/trip/clip.mkv",
	} {
		cf, ok := c.Classify(fileEntry(path))
		require.True(t, ok, path)
		assert.Equal(t, entities.KindVideo, cf.Kind)
		assert.Equal(t, cf.SourcePath, cf.Key, "videos keep their source key")
	}
}

func TestClassifySkips(t *testing.T) {
	c := New("0 US")

	t.Run("unsupported extensions", func(t *testing.T) {
		for _, path := range []string{
			"/0 us/alice/notes.txt",
			"/0 us/alice/archive.zip",
			"/0 us/alice/raw.cr2",
			"/0 us/alice/noextension",
		} {
			_, ok := c.Classify(fileEntry(path))
			assert.False(t, ok, path)
		}
	})

	t.Run("folders and deletions", func(t *testing.T) {
		_, ok := c.Classify(entities.RemoteEntry{PathLower: "/0 us/alice", Tag: entities.TagFolder})
		assert.False(t, ok)
		_, ok = c.Classify(entities.RemoteEntry{PathLower: "/0 us/alice/photo.jpg", Tag: entities.TagDeleted})
		assert.False(t, ok)
	})
}

func TestClassifyNormalizesRootSegment(t *testing.T) {
	c := New("0 US")

	cf, ok := c.Classify(fileEntry("/0 us/alice/trip/photo.jpg"))
	require.True(t, ok)
	assert.Equal(t, "0 US/alice/trip/photo.jpg", cf.Key)
	assert.Equal(t, "alice", cf.OwnerFolder)
}

func TestSplitKeyRoundTrip(t *testing.T) {
	tests := []struct {
		key      string
		wantDir  string
		wantName string
	}{
		{"0 US/alice/trip/photo.jpg", "0 US/alice/trip", "photo"},
		{"0 US/alice/clip.mov", "0 US/alice", "clip"},
		{"top.png", "", "top"},
		{"dir/noext", "dir", "noext"},
	}

	for _, tt := range tests {
		dir, name := SplitKey(tt.key)
		assert.Equal(t, tt.wantDir, dir)
		assert.Equal(t, tt.wantName, name)

		rebuilt := JoinKey(dir, name) + Ext(tt.key)
		assert.Equal(t, tt.key, rebuilt)
	}
}

func TestContentTypeForKey(t *testing.T) {
	assert.Equal(t, "video/mp4", ContentTypeForKey("a/b/clip.mp4"))
	assert.Equal(t, "video/quicktime", ContentTypeForKey("a/b/clip.MOV"))
	assert.Equal(t, "video/x-m4v", ContentTypeForKey("clip.m4v"))
	assert.Equal(t, "application/octet-stream", ContentTypeForKey("clip.wmv"))
	assert.Equal(t, "application/octet-stream", ContentTypeForKey("noext"))
}
