package compress

import (
	"errors"
	"io"
	"strings"
)

// Archive formats accepted by the import and export endpoints.
const (
	Zip = "zip"
	Tar = "tar"
)

// ErrNoCSV is returned when an archive holds no .csv entry.
var ErrNoCSV = errors.New("csv file not found in archive")

// ErrUnknownFormat is returned for archive types other than zip and tar.
var ErrUnknownFormat = errors.New("unknown archive type")

// ParseType normalizes an archiveType value. Anything unrecognized becomes zip.
func ParseType(s string) string {
	if strings.EqualFold(s, Tar) {
		return Tar
	}
	return Zip
}

// NewReader returns the first CSV file of the archive read from r.
func NewReader(archiveType string, r io.ReadCloser) (io.ReadCloser, error) {
	switch archiveType {
	case Zip:
		return NewZipReader(r)
	case Tar:
		return NewTarReader(r)
	}
	return nil, ErrUnknownFormat
}

// NewWriter packs everything written into a single fileName entry of an
// archive streamed to w. The archive is complete after Close.
func NewWriter(archiveType string, w io.Writer, fileName string) (io.WriteCloser, error) {
	switch archiveType {
	case Zip:
		return NewZipWriter(w, fileName)
	case Tar:
		return NewTarWriter(w, fileName), nil
	}
	return nil, ErrUnknownFormat
}

func isCSV(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".csv")
}
