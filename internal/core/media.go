package core

import "strings"

type MediaType string

const (
	MediaAudio   MediaType = "audio"
	MediaVideo   MediaType = "video"
	MediaUnknown MediaType = "unknown"
)

var (
	videoExtensions = []string{"mp4", "avi", "mov", "wmv", "flv", "webm", "mkv", "mpeg", "mpg", "m4v", "3gp"}
	audioExtensions = []string{"mp3", "wav", "m4a", "aac", "ogg", "flac", "wma", "aiff"}
)

// DetectMedia classifies a work from its file type and URL.
func DetectMedia(fileType, fileURL string) MediaType {
	if fileType == "" && fileURL == "" {
		return MediaUnknown
	}
	typ := strings.ToLower(fileType)
	url := strings.ToLower(fileURL)

	switch {
	case strings.HasPrefix(typ, "video/"):
		return MediaVideo
	case strings.HasPrefix(typ, "audio/"):
		return MediaAudio
	}

	for _, ext := range videoExtensions {
		if strings.Contains(typ, ext) || strings.Contains(url, "."+ext) {
			return MediaVideo
		}
	}
	for _, ext := range audioExtensions {
		if strings.Contains(typ, ext) || strings.Contains(url, "."+ext) {
			return MediaAudio
		}
	}
	if strings.HasPrefix(typ, "video") || strings.Contains(url, "video") {
		return MediaVideo
	}
	if strings.HasPrefix(typ, "audio") || strings.Contains(url, "audio") {
		return MediaAudio
	}
	return MediaUnknown
}

// ResolveMedia gives the declared upload type precedence over file hints.
func ResolveMedia(fileType, fileURL, uploadType string) MediaType {
	u := strings.ToLower(strings.ReplaceAll(uploadType, "_", " "))
	switch {
	case strings.Contains(u, "audio"), strings.Contains(u, "mp3"),
		strings.Contains(u, "wav"), strings.Contains(u, "m4a"):
		return MediaAudio
	case strings.Contains(u, "video"), strings.Contains(u, "mp4"),
		strings.Contains(u, "mov"), strings.Contains(u, "avi"):
		return MediaVideo
	}
	return DetectMedia(fileType, fileURL)
}

// DownloadName is the file name offered when downloading a work.
func DownloadName(title, fileType string) string {
	ext := strings.TrimSpace(fileType)
	if ext == "" || strings.Contains(ext, "/") {
		ext = "mp3"
	}
	return title + "." + ext
}
