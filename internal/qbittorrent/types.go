package qbittorrent

import (
	"fmt"
)

// TorrentState represents the state of a torrent
type TorrentState string

const (
	StateError              TorrentState = "error"              // Some error occurred, applies to paused torrents
	StateMissingFiles       TorrentState = "missingFiles"       // Torrent data files is missing
	StateUploading          TorrentState = "uploading"          // Torrent is being seeded and data is being transferred
	StatePausedUP           TorrentState = "pausedUP"           // Torrent is paused and has finished downloading
	StateQueuedUP           TorrentState = "queuedUP"           // Queuing is enabled and torrent is queued for upload
	StateStalledUP          TorrentState = "stalledUP"          // Torrent is being seeded, but no connection were made
	StateCheckingUP         TorrentState = "checkingUP"         // Torrent has finished downloading and is being checked
	StateForcedUP           TorrentState = "forcedUP"           // Torrent is forced to uploading and ignore queue limit
	StateAllocating         TorrentState = "allocating"         // Torrent is allocating disk space for download
	StateDownloading        TorrentState = "downloading"        // Torrent is being downloaded and data is being transferred
	StateMetaDL             TorrentState = "metaDL"             // Torrent has just started downloading and is fetching metadata
	StatePausedDL           TorrentState = "pausedDL"           // Torrent is paused and has NOT finished downloading
	StateQueuedDL           TorrentState = "queuedDL"           // Queuing is enabled and torrent is queued for download
	StateStalledDL          TorrentState = "stalledDL"          // Torrent is being downloaded, but no connection were made
	StateCheckingDL         TorrentState = "checkingDL"         // Same as checkingUP, but torrent has NOT finished downloading
	StateForcedDL           TorrentState = "forcedDL"           // Torrent is forced to downloading to ignore queue limit
	StateCheckingResumeData TorrentState = "checkingResumeData" // Checking resume data on qBt startup
	StateMoving             TorrentState = "moving"             // Torrent is moving to another location
	StateUnknown            TorrentState = "unknown"            // Unknown status
)

// Torrent represents the subset of a qBittorrent torrent the panel reads
type Torrent struct {
	Hash     string       `json:"hash"`     // Torrent hash
	Name     string       `json:"name"`     // Torrent name
	Size     int64        `json:"size"`     // Total size (bytes) of files selected for download
	Progress float64      `json:"progress"` // Torrent progress (percentage/100)
	Dlspeed  int64        `json:"dlspeed"`  // Torrent download speed (bytes/s)
	Upspeed  int64        `json:"upspeed"`  // Torrent upload speed (bytes/s)
	Eta      int64        `json:"eta"`      // Torrent ETA (seconds)
	State    TorrentState `json:"state"`    // Torrent state
	Category string       `json:"category"` // Category of the torrent
	AddedOn  int64        `json:"added_on"` // Time (Unix Timestamp) when the torrent was added to the client
}

// IsDownloading returns true if the torrent is currently downloading
func (t *Torrent) IsDownloading() bool {
	return t.State == StateDownloading || t.State == StateMetaDL ||
		t.State == StateStalledDL || t.State == StateCheckingDL ||
		t.State == StateForcedDL || t.State == StateQueuedDL ||
		t.State == StateAllocating
}

// IsCompleted returns true if the torrent has finished downloading
func (t *Torrent) IsCompleted() bool {
	return t.Progress >= 1.0
}

// GetProgressPercentage returns progress as a percentage (0-100)
func (t *Torrent) GetProgressPercentage() float64 {
	return t.Progress * 100
}

// APIError represents an error from the qBittorrent API
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("qBittorrent API error %d: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("qBittorrent API error %d: %s", e.Code, e.Message)
}
