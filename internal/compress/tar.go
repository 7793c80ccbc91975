package compress

import (
	"archive/tar"
	"bytes"
	"io"
	"time"
)

// TarReader reads the first CSV file of a TAR archive.
type TarReader struct {
	current io.Reader
}

// NewTarReader scans the archive until the first regular .csv entry.
func NewTarReader(r io.ReadCloser) (*TarReader, error) {
	defer r.Close()

	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, ErrNoCSV
		}
		if err != nil {
			return nil, err
		}
		if header.Typeflag == tar.TypeReg && isCSV(header.Name) {
			// the entry must be buffered: the underlying body is closed on return
			buf := &bytes.Buffer{}
			if _, err := io.Copy(buf, tr); err != nil {
				return nil, err
			}
			return &TarReader{current: buf}, nil
		}
	}
}

func (t *TarReader) Read(p []byte) (int, error) {
	return t.current.Read(p)
}

func (t *TarReader) Close() error {
	return nil
}

// TarWriter buffers one file and writes it as a TAR archive on Close, since
// the entry header carries the size.
type TarWriter struct {
	w        io.Writer
	fileName string
	buf      bytes.Buffer
	modTime  time.Time
}

func NewTarWriter(w io.Writer, fileName string) *TarWriter {
	return &TarWriter{w: w, fileName: fileName, modTime: time.Now()}
}

func (t *TarWriter) Write(p []byte) (int, error) {
	return t.buf.Write(p)
}

func (t *TarWriter) Close() error {
	tw := tar.NewWriter(t.w)
	err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     t.fileName,
		Mode:     0o644,
		Size:     int64(t.buf.Len()),
		ModTime:  t.modTime,
	})
	if err != nil {
		return err
	}
	if _, err := tw.Write(t.buf.Bytes()); err != nil {
		return err
	}
	return tw.Close()
}
