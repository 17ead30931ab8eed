// Package release reads what a torrent's file name says about its content:
// title, year and encoding details.
package release

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Info contains parsed information from a release or file name.
type Info struct {
	Title      string `json:"title"`
	Year       int    `json:"year,omitempty"`
	Resolution string `json:"resolution,omitempty"` // 2160p, 1080p, 720p, 480p
	Source     string `json:"source,omitempty"`     // bluray, webdl, webrip, hdtv, dvd
	Codec      string `json:"codec,omitempty"`      // hevc, x264, xvid
	Group      string `json:"group,omitempty"`
}

var (
	yearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	// markerRe matches the tokens that end the title part of a release name.
	markerRe = regexp.MustCompile(`(?i)\b(2160p|1080p|720p|480p|4k|uhd|blu-?ray|bdrip|brrip|web-?dl|web-?rip|hdtv|dvdrip|dvd|[xh] ?26[45]|hevc|avc|xvid|divx|proper|repack|extended|remux)\b`)

	mediaExts = map[string]bool{
		".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".m4v": true, ".ts": true,
	}
)

// Parse extracts information from a release name. A trailing media file
// extension is ignored. Unrecognized details are left empty.
func Parse(name string) Info {
	if ext := filepath.Ext(name); mediaExts[strings.ToLower(ext)] {
		name = strings.TrimSuffix(name, ext)
	}
	s := strings.NewReplacer(".", " ", "_", " ").Replace(name)

	var info Info
	markers := markerRe.FindAllStringIndex(s, -1)
	for _, m := range markers {
		applyMarker(&info, strings.ToLower(s[m[0]:m[1]]))
	}
	info.Group = parseGroup(s, markers)

	cut := len(s)
	if len(markers) > 0 {
		cut = markers[0][0]
	}
	// The last year before the first marker; a leading year belongs to the title.
	for _, m := range yearRe.FindAllStringIndex(s[:cut], -1) {
		if m[0] == 0 {
			continue
		}
		info.Year, _ = strconv.Atoi(s[m[0]:m[1]])
		cut = m[0]
	}
	if cut == len(s) && info.Group != "" {
		cut = strings.LastIndex(s, "-")
	}

	info.Title = strings.Join(strings.Fields(strings.Trim(s[:cut], " -([")), " ")
	return info
}

func applyMarker(info *Info, tok string) {
	tok = strings.NewReplacer("-", "", " ", "").Replace(tok)
	switch tok {
	case "2160p", "4k", "uhd":
		info.Resolution = "2160p"
	case "1080p", "720p", "480p":
		if info.Resolution == "" {
			info.Resolution = tok
		}
	case "bluray", "bdrip", "brrip":
		info.Source = "bluray"
	case "webdl":
		info.Source = "webdl"
	case "webrip":
		info.Source = "webrip"
	case "hdtv":
		info.Source = "hdtv"
	case "dvdrip", "dvd":
		info.Source = "dvd"
	case "x265", "h265", "hevc":
		info.Codec = "hevc"
	case "x264", "h264", "avc":
		if info.Codec == "" {
			info.Codec = "x264"
		}
	case "xvid", "divx":
		info.Codec = "xvid"
	}
}

// parseGroup returns the release group after the last hyphen, unless that
// hyphen is part of a marker such as WEB-DL.
func parseGroup(s string, markers [][]int) string {
	idx := strings.LastIndex(s, "-")
	if idx <= 0 || idx == len(s)-1 {
		return ""
	}
	for _, m := range markers {
		if idx >= m[0] && idx < m[1] {
			return ""
		}
	}
	group := strings.TrimSpace(s[idx+1:])
	if group == "" || strings.ContainsAny(group, " ") {
		return ""
	}
	return group
}
