package queue

import "github.com/WebRendHQ/MaclellanFamily.com/internal/entities"

// Job is what we push to Redis Streams. No bytes here; workers fetch the
// source from the origin store by RemoteID. A job carries everything the
// worker needs so it never goes back through classification.
type Job struct {
	RemoteID    string             `json:"remoteId"`
	Path        string             `json:"path"` // canonical source path with leading slash
	Kind        entities.MediaKind `json:"kind"`
	OwnerFolder string             `json:"ownerFolder"`
	ImageWidths []int              `json:"imageWidths,omitempty"`
}
