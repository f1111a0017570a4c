package classifier

import (
	"strings"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/entities"
)

// ImageExt is the uniform extension every image rendition is written with.
const ImageExt = ".jpg"

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
}

var videoExts = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".m4v": {}, ".avi": {}, ".mkv": {},
}

var videoContentTypes = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
	".m4v": "video/x-m4v",
	".avi": "video/x-msvideo",
	".mkv": "video/x-matroska",
}

// Classifier maps remote entries to canonical destination keys. The origin
// store reports paths lowercased; the configured root segment is restored to
// its canonical casing so keys match what the library serves.
type Classifier struct {
	root      string
	rootLower string
}

func New(root string) *Classifier {
	root = strings.Trim(root, "/")
	return &Classifier{
		root:      root,
		rootLower: strings.ToLower(root),
	}
}

// Classify routes a discovered entry into the pipeline. The second return is
// false for folders, deletions and files outside the extension allow-lists.
func (c *Classifier) Classify(e entities.RemoteEntry) (entities.ClassifiedFile, bool) {
	if e.Tag != entities.TagFile {
		return entities.ClassifiedFile{}, false
	}

	rel := strings.TrimLeft(e.PathLower, "/")
	if c.rootLower != "" && strings.HasPrefix(rel, c.rootLower+"/") {
		rel = c.root + rel[len(c.rootLower):]
	}

	ext := Ext(rel)
	var kind entities.MediaKind
	switch {
	case isImageExt(ext):
		kind = entities.KindImage
	case isVideoExt(ext):
		kind = entities.KindVideo
	default:
		return entities.ClassifiedFile{}, false
	}

	key := rel
	if kind == entities.KindImage {
		dir, name := SplitKey(rel)
		key = JoinKey(dir, name) + ImageExt
	}

	return entities.ClassifiedFile{
		RemoteID:    e.ID,
		SourcePath:  rel,
		Key:         key,
		Kind:        kind,
		OwnerFolder: c.ownerFolder(rel),
	}, true
}

// ownerFolder is the path segment directly under the root prefix.
func (c *Classifier) ownerFolder(rel string) string {
	if c.root != "" {
		rel = strings.TrimPrefix(rel, c.root+"/")
	}
	if i := strings.IndexByte(rel, '/'); i > 0 {
		return rel[:i]
	}
	return ""
}

// SplitKey splits an object key into its directory and the file's base name
// without extension. The inverse is JoinKey(dir, name) + ext.
func SplitKey(key string) (dir, name string) {
	name = key
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		dir, name = key[:i], key[i+1:]
	}
	if dot := strings.LastIndexByte(name, '.'); dot > -1 {
		name = name[:dot]
	}
	return dir, name
}

// JoinKey joins a directory and base name, tolerating an empty directory.
func JoinKey(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// Ext returns the lowercased extension of key including the dot, or "".
func Ext(key string) string {
	if dot := strings.LastIndexByte(key, '.'); dot > -1 {
		return strings.ToLower(key[dot:])
	}
	return ""
}

// ContentTypeForKey derives the upload content type from the key's extension,
// falling back to a generic binary type.
func ContentTypeForKey(key string) string {
	if ct, ok := videoContentTypes[Ext(key)]; ok {
		return ct
	}
	return "application/octet-stream"
}

func isImageExt(ext string) bool {
	_, ok := imageExts[ext]
	return ok
}

func isVideoExt(ext string) bool {
	_, ok := videoExts[ext]
	return ok
}
