package link

import (
	"path"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShareLink is an externally shared file link. It is created once and then
// only touched by the approval workflow (expiry extension, side-effect
// flags); deletion and expiry enforcement live in the storage layer.
type ShareLink struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Token     string             `bson:"token" json:"token"`
	RepoID    string             `bson:"repo_id" json:"repo_id"`
	Path      string             `bson:"path" json:"path"`
	Owner     string             `bson:"owner" json:"owner"`
	Ctime     time.Time          `bson:"ctime" json:"ctime"`
	ExpireAt  time.Time          `bson:"expire_at" json:"expire_at"`
	Receivers []string           `bson:"receivers,omitempty" json:"receivers,omitempty"`
	Note      string             `bson:"note,omitempty" json:"note,omitempty"`

	// Side-effect idempotency flags. Poll jobs rerun, so these are persisted
	// rather than guarded by locks alone.
	BackupDone     bool `bson:"backup_done" json:"backup_done"`
	ResultNotified bool `bson:"result_notified" json:"result_notified"`

	DownloadCount   int        `bson:"download_count" json:"download_count"`
	FirstDownloadAt *time.Time `bson:"first_download_at,omitempty" json:"first_download_at,omitempty"`
}

// FileName returns the base name of the shared file.
func (l *ShareLink) FileName() string {
	return path.Base(l.Path)
}

// URL renders the public link under the given service base URL.
func (l *ShareLink) URL(serviceURL string) string {
	return serviceURL + "/d/" + l.Token + "/"
}

// Expired reports whether the link has passed its expiry time.
func (l *ShareLink) Expired(now time.Time) bool {
	return !l.ExpireAt.IsZero() && now.After(l.ExpireAt)
}
