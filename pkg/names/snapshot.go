package names

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	snapshotMagic   = "RLSNAP"
	snapshotVersion = 1
)

// ErrInvalidSnapshot is returned for data that is not a name snapshot.
var ErrInvalidSnapshot = errors.New("invalid name snapshot")

type snapshotFile struct {
	Version int      `msgpack:"v"`
	Records []Record `msgpack:"r"`
}

// WriteSnapshot writes records in the compiled snapshot format: a magic
// header followed by an LZ4 stream of the msgpack-encoded table.
func WriteSnapshot(w io.Writer, records []Record) error {
	_, err := io.WriteString(w, snapshotMagic)
	if err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	zw := lz4.NewWriter(w)

	err = msgpack.NewEncoder(zw).Encode(snapshotFile{Version: snapshotVersion, Records: records})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}

	return nil
}

// WriteSnapshotFile writes a snapshot of records to path.
func WriteSnapshotFile(path string, records []Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	err = WriteSnapshot(file, records)
	if err != nil {
		file.Close()

		return err
	}

	return file.Close()
}

// ReadSnapshot decodes a snapshot. Keys are recomputed from the names.
func ReadSnapshot(r io.Reader) ([]Record, error) {
	header := make([]byte, len(snapshotMagic))

	_, err := io.ReadFull(r, header)
	if err != nil || !bytes.Equal(header, []byte(snapshotMagic)) {
		return nil, ErrInvalidSnapshot
	}

	var file snapshotFile

	err = msgpack.NewDecoder(lz4.NewReader(r)).Decode(&file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	if file.Version != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, file.Version)
	}

	recs := make([]Record, 0, len(file.Records))

	for _, rec := range file.Records {
		rec.Key = Normalize(rec.Name)
		if rec.Key != "" {
			recs = append(recs, rec)
		}
	}

	return recs, nil
}
