package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		want Info
	}{
		{
			"The.Matrix.1999.1080p.BluRay.x264-GROUP.mkv",
			Info{Title: "The Matrix", Year: 1999, Resolution: "1080p", Source: "bluray", Codec: "x264", Group: "GROUP"},
		},
		{
			"Movie.Name.2020.2160p.WEB-DL.H.265-NTb.mkv",
			Info{Title: "Movie Name", Year: 2020, Resolution: "2160p", Source: "webdl", Codec: "hevc", Group: "NTb"},
		},
		{
			"Blade Runner 2049 (2017) 720p",
			Info{Title: "Blade Runner 2049", Year: 2017, Resolution: "720p"},
		},
		{
			"2001.A.Space.Odyssey.1968.720p.mp4",
			Info{Title: "2001 A Space Odyssey", Year: 1968, Resolution: "720p"},
		},
		{
			"Spider-Man.2002.DVDRip.XviD.avi",
			Info{Title: "Spider-Man", Year: 2002, Source: "dvd", Codec: "xvid"},
		},
		{
			"Some Show WEB-DL",
			Info{Title: "Some Show", Source: "webdl"},
		},
		{
			"home_video.avi",
			Info{Title: "home video"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.name))
		})
	}
}

func TestParse_KeepsUnknownExtension(t *testing.T) {
	assert.Equal(t, "notes txt", Parse("notes.txt").Title)
}
