package entity

import "time"

// Product describes a downloadable file offered by an archive for an
// observation: a FITS image, a spectrum, a preview, etc.
type Product struct {
	Name      string `json:"name"`
	FileName  string `json:"fileName"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType,omitempty"`
	AccessURL string `json:"accessUrl"`
	Checksum  string `json:"checksum,omitempty"`
}

// DownloadStatus is the lifecycle of a single product download
type DownloadStatus string

const (
	DownloadPending    DownloadStatus = "pending"
	DownloadInProgress DownloadStatus = "downloading"
	DownloadCompleted  DownloadStatus = "completed"
	DownloadSkipped    DownloadStatus = "skipped"
	DownloadFailed     DownloadStatus = "failed"
)

// IsFinished reports whether the download will make no further progress
func (s DownloadStatus) IsFinished() bool {
	switch s {
	case DownloadCompleted, DownloadSkipped, DownloadFailed:
		return true
	}
	return false
}

// ManifestEntry records the outcome of one product download
type ManifestEntry struct {
	Product   Product        `json:"product"`
	LocalPath string         `json:"localPath"`
	Status    DownloadStatus `json:"status"`
	Bytes     int64          `json:"bytes"`
	Error     string         `json:"error,omitempty"`
	StartedAt time.Time      `json:"startedAt,omitempty"`
	EndedAt   time.Time      `json:"endedAt,omitempty"`
}

// Manifest is the download record written next to the retrieved files
type Manifest struct {
	Archive   string          `json:"archive"`
	CreatedAt time.Time       `json:"createdAt"`
	Entries   []ManifestEntry `json:"entries"`
}
