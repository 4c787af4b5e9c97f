package probe

import (
	"context"

	"github.com/raainshe/homepanel/internal/qbittorrent"
)

// TorrentLister is the part of the torrent client the probe reads from.
type TorrentLister interface {
	GetTorrents(ctx context.Context, filter string) ([]qbittorrent.Torrent, error)
}

// TorrentSummary describes the most active download.
type TorrentSummary struct {
	Name     string
	Progress float64 // percent, 0-100
	DlRate   int64   // bytes/s
	UlRate   int64   // bytes/s
	Count    int     // torrents currently downloading
}

// Summarize picks the downloading torrent with the highest download rate.
// It returns nil when nothing is downloading.
func Summarize(torrents []qbittorrent.Torrent) *TorrentSummary {
	var best *qbittorrent.Torrent
	count := 0
	for i := range torrents {
		t := &torrents[i]
		if !t.IsDownloading() {
			continue
		}
		count++
		if best == nil || t.Dlspeed > best.Dlspeed {
			best = t
		}
	}
	if best == nil {
		return nil
	}
	return &TorrentSummary{
		Name:     best.Name,
		Progress: best.GetProgressPercentage(),
		DlRate:   best.Dlspeed,
		UlRate:   best.Upspeed,
		Count:    count,
	}
}

// FetchTorrentSummary lists all torrents and summarizes them.
func FetchTorrentSummary(ctx context.Context, lister TorrentLister) (*TorrentSummary, error) {
	torrents, err := lister.GetTorrents(ctx, "all")
	if err != nil {
		return nil, err
	}
	return Summarize(torrents), nil
}
