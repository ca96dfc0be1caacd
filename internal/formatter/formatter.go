// package formatter renders sync history, album listings and frame status as plain text, CSV or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/shared"
)

// Format selects an output rendering.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
)

// ParseFormat accepts "text", "csv", "markdown" (or "md"), case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

// csvTime renders t as RFC 3339, or an empty cell for the zero time.
func csvTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// displayURL is the URL a sync posts for the photo: url_k, else url_o.
func displayURL(photo models.Photo) string {
	if photo.URLLarge != "" {
		return photo.URLLarge
	}
	return photo.URLOriginal
}

// FormatHistory renders journal entries in the requested format.
func FormatHistory(runs []*models.SyncRun, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return HistoryToCSV(runs)
	case Markdown:
		return HistoryToMarkdown(runs)
	default:
		return HistoryToText(runs)
	}
}

// HistoryToCSV converts runs to CSV with columns: Sequence, Playlist, Album, Outcome, Forced, Inserted, Deleted, Calls, Started, Duration, Reason
func HistoryToCSV(runs []*models.SyncRun) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Playlist", "Album", "Outcome", "Forced", "Inserted", "Deleted", "Calls", "Started", "Duration", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, run := range runs {
		record := []string{
			strconv.Itoa(run.Sequence),
			run.Playlist,
			run.Album,
			string(run.Outcome),
			strconv.FormatBool(run.Forced),
			strconv.Itoa(run.ItemsInserted),
			strconv.Itoa(run.ItemsDeleted),
			strconv.Itoa(run.InsertCalls),
			run.StartedAt.UTC().Format(time.RFC3339),
			run.Duration().String(),
			run.Reason,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// HistoryToMarkdown converts runs to a Markdown table.
func HistoryToMarkdown(runs []*models.SyncRun) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Sync history\n\n")
	if len(runs) == 0 {
		buf.WriteString("_No sync runs recorded._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Playlist | Album | Outcome | Photos | Calls | Started | Reason |\n")
	buf.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, run := range runs {
		outcome := string(run.Outcome)
		if run.Forced {
			outcome += " (forced)"
		}
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %d | %d | %s | %s |\n",
			run.Sequence,
			escapeCell(run.Playlist),
			escapeCell(run.Album),
			outcome,
			run.ItemsInserted,
			run.InsertCalls,
			formatTime(run.StartedAt),
			escapeCell(run.Reason),
		)
	}

	return buf.Bytes(), nil
}

// HistoryToText converts runs to one line per run, newest first as given.
func HistoryToText(runs []*models.SyncRun) ([]byte, error) {
	var buf bytes.Buffer

	if len(runs) == 0 {
		buf.WriteString("No sync runs recorded.\n")
		return buf.Bytes(), nil
	}

	for _, run := range runs {
		fmt.Fprintf(&buf, "#%d %s %s <- %s: %s", run.Sequence, formatTime(run.StartedAt), run.Playlist, run.Album, run.Outcome)
		switch run.Outcome {
		case models.OutcomeSynced:
			fmt.Fprintf(&buf, " (%d photos, %d calls, %s)", run.ItemsInserted, run.InsertCalls, run.Duration().Round(time.Millisecond))
		case models.OutcomeFailed:
			fmt.Fprintf(&buf, " (%s)", run.Reason)
			if run.Mutated {
				buf.WriteString(" [playlist modified]")
			}
		}
		if run.Forced {
			buf.WriteString(" [forced]")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// FormatAlbum renders an album and its photos in the requested format.
func FormatAlbum(album *models.Album, photos []models.Photo, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return AlbumToCSV(photos)
	case Markdown:
		return AlbumToMarkdown(album, photos)
	default:
		return AlbumToText(album, photos)
	}
}

// AlbumToCSV converts photos to CSV with columns: ID, Title, Width, Height, Orientation, LastUpdate, URL
func AlbumToCSV(photos []models.Photo) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Width", "Height", "Orientation", "LastUpdate", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, photo := range photos {
		record := []string{
			photo.ID,
			photo.Title,
			strconv.Itoa(photo.Width),
			strconv.Itoa(photo.Height),
			models.OrientationOf(photo.Width, photo.Height).String(),
			csvTime(photo.LastUpdate),
			displayURL(photo),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// AlbumToMarkdown converts an album to Markdown with a linked list of photos.
func AlbumToMarkdown(album *models.Album, photos []models.Photo) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", album.Title)
	fmt.Fprintf(&buf, "**Photos**: %d\n", album.PhotoCount)
	fmt.Fprintf(&buf, "**Updated**: %s\n\n", formatTime(album.UpdatedAt))

	buf.WriteString("## Photos\n\n")
	for i, photo := range photos {
		title := photo.Title
		if title == "" {
			title = photo.ID
		}
		orientation := models.OrientationOf(photo.Width, photo.Height)
		if photo.URLLarge == "" {
			fmt.Fprintf(&buf, "%d. %s (%s, no large size)\n", i+1, title, orientation)
			continue
		}
		fmt.Fprintf(&buf, "%d. [%s](%s) (%s, %dx%d)\n", i+1, title, photo.URLLarge, orientation, photo.Width, photo.Height)
	}

	return buf.Bytes(), nil
}

// AlbumToText converts an album to plain text format
func AlbumToText(album *models.Album, photos []models.Photo) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Album: %s\n", album.Title)
	fmt.Fprintf(&buf, "Photos: %d\n", album.PhotoCount)
	fmt.Fprintf(&buf, "Updated: %s\n\n", formatTime(album.UpdatedAt))

	for i, photo := range photos {
		title := photo.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&buf, "%d. %s [%s]\n", i+1, title, models.OrientationOf(photo.Width, photo.Height))
	}

	return buf.Bytes(), nil
}

// PlaylistsToText renders one line per playlist.
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer
	for _, p := range playlists {
		fmt.Fprintf(&buf, "%s  %-30s %4d items  updated %s\n", p.ID, p.Name, p.ItemCount, formatTime(p.UpdatedAt))
	}
	return buf.Bytes()
}

// FrameReport is the status of one frame as printed by `nixflix status`.
type FrameReport struct {
	Frame       models.Frame          `json:"frame"`
	Settings    *models.FrameSettings `json:"settings,omitempty"`
	Status      *models.FrameStatus   `json:"status,omitempty"`
	HasPlaylist bool                  `json:"has_playlist"`
}

// FrameReportToText renders a frame report as an indented block.
func FrameReportToText(r FrameReport, playlist string) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Frame: %s (%s)\n", r.Frame.Name, r.Frame.ID)
	if r.Status != nil {
		state := "offline"
		if r.Status.Online {
			state = "online"
		}
		fmt.Fprintf(&buf, "  Status: %s, last connected %s\n", state, formatTime(r.Status.LastConnected))
	}
	if r.Settings != nil {
		fmt.Fprintf(&buf, "  Slideshow: %ds per slide, shuffle %t, transition %s\n",
			r.Settings.SlideDuration, r.Settings.Shuffle, r.Settings.Transition)
	}
	if playlist != "" {
		fmt.Fprintf(&buf, "  Carries %s: %t\n", playlist, r.HasPlaylist)
	}
	fmt.Fprintf(&buf, "  Playlists: %d\n", len(r.Frame.PlaylistIDs))

	return buf.Bytes()
}

// WriteExport writes data to path, or to stdout when path is empty or "-".
func WriteExport(data []byte, path string) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
