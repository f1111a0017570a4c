package entities

import "time"

type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

type EntryTag string

const (
	TagFile    EntryTag = "file"
	TagFolder  EntryTag = "folder"
	TagDeleted EntryTag = "deleted"
)

// RemoteEntry is a single item discovered while enumerating the origin store.
type RemoteEntry struct {
	ID          string
	PathLower   string
	PathDisplay string
	Tag         EntryTag
}

// ClassifiedFile is a RemoteEntry that passed the media allow-list.
// Key is the canonical destination key; SourcePath keeps the original
// extension and has no leading slash.
type ClassifiedFile struct {
	RemoteID    string
	SourcePath  string
	Key         string
	Kind        MediaKind
	OwnerFolder string
}

// Asset is one mirrored object recorded in the catalog. Rows are keyed by
// destination key and upserted, so re-processing the same source is a no-op
// apart from the timestamp.
type Asset struct {
	Key              string    `json:"key"`
	SourcePath       string    `json:"source_path"`
	Kind             MediaKind `json:"kind"`
	OwnerFolder      string    `json:"owner_folder"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	SizeBytes        int64     `json:"size_bytes"`
	ContentType      string    `json:"content_type"`
	UpdatedTimestamp time.Time `json:"updated_timestamp"`
}
