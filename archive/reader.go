package archive

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"
	"io/ioutil"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	slog "github.com/vearne/simplelog"

	"github.com/westhule/combatcap/consts"
	"github.com/westhule/combatcap/wire"
)

// Reader iterates archived frames across the rotated files of one archive
// directory in order, oldest file first.
type Reader struct {
	sync.Mutex
	file      *os.File
	reader    *bufio.Reader
	filepaths []string
	index     int
	EOF       bool
}

func NewReader(dirPath string) (*Reader, error) {
	files, err := archiveFiles(dirPath)
	if err != nil {
		return nil, err
	}
	if len(files) <= 0 {
		return nil, errors.Errorf("no archive files under %v", dirPath)
	}

	var r Reader
	r.index = 0
	sort.Strings(files)
	r.filepaths = files

	slog.Debug("create archive.Reader, files:%v", files)
	r.file, r.reader, err = createReader(r.filepaths[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read file [%v]", r.filepaths[0])
	}
	return &r, nil
}

func createReader(path string) (file *os.File, reader *bufio.Reader, err error) {
	var gz *gzip.Reader
	// gzip file
	if strings.HasSuffix(path, ".gz") {
		file, err = os.Open(path)
		if err != nil {
			return
		}
		gz, err = gzip.NewReader(file)
		if err != nil {
			return
		}
		reader = bufio.NewReader(gz)
		return
	}
	file, err = os.Open(path)
	if err != nil {
		return
	}
	return file, bufio.NewReader(file), nil
}

func (r *Reader) Close() error {
	return r.file.Close()
}

func (r *Reader) NextFile() error {
	if r.index+1 < len(r.filepaths) {
		var err error
		// close old file
		err = r.file.Close()
		if err != nil {
			return err
		}
		// normal circumstances, try next file
		r.index++
		slog.Info("switch to file:%v", r.filepaths[r.index])
		r.file, r.reader, err = createReader(r.filepaths[r.index])
		if err != nil {
			return err
		}
		return nil
	}
	r.EOF = true
	slog.Info("All files are read")
	return io.EOF
}

// ReadFrame returns the next archived frame, io.EOF after the last file is
// exhausted.
func (r *Reader) ReadFrame() (*wire.Frame, error) {
	r.Lock()
	defer r.Unlock()

	if r.EOF {
		return nil, io.EOF
	}

	for {
		line, err := r.reader.ReadBytes('\n')
		if err == io.EOF {
			if len(bytes.TrimSpace(line)) > 0 {
				// last line of the file has no trailing newline
				return parseArchiveLine(line)
			}
			err = r.NextFile()
			if err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		return parseArchiveLine(line)
	}
}

func parseArchiveLine(line []byte) (*wire.Frame, error) {
	parts := strings.Fields(string(line))
	if len(parts) != 7 {
		return nil, errors.Wrapf(consts.ErrArchiveFormat, "%v fields", len(parts))
	}

	sequence, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return nil, errors.Wrap(consts.ErrArchiveFormat, "sequence")
	}
	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, errors.Wrap(consts.ErrArchiveFormat, "capture time")
	}
	// parts[2] is the frame uuid, only used for eyeballing archives
	frameType, err := strconv.ParseInt(parts[3], 10, 32)
	if err != nil {
		return nil, errors.Wrap(consts.ErrArchiveFormat, "type")
	}
	length, err := strconv.ParseInt(parts[4], 10, 32)
	if err != nil {
		return nil, errors.Wrap(consts.ErrArchiveFormat, "length")
	}
	encoding, err := strconv.ParseUint(parts[5], 10, 8)
	if err != nil {
		return nil, errors.Wrap(consts.ErrArchiveFormat, "encoding")
	}
	payload, err := base64.StdEncoding.DecodeString(parts[6])
	if err != nil {
		return nil, errors.Wrap(consts.ErrArchiveFormat, "payload")
	}

	var f wire.Frame
	f.Sequence = uint32(sequence)
	f.ObservedAt = time.Unix(0, nanos)
	f.Type = int32(frameType)
	f.Length = int32(length)
	f.Encoding = uint8(encoding)
	f.Payload = payload
	return &f, nil
}

/*
-rw-r--r--  1 root  wheel   299464 10 14 13:50 frames-2022-10-14T05-50-39.473.log.gz
-rw-r--r--  1 root  wheel   299153 10 14 13:50 frames-2022-10-14T05-50-41.733.log.gz
-rw-r--r--  1 root  wheel  7333254 10 14 13:50 frames.log
*/
func archiveFiles(dirPth string) (files []string, err error) {
	fileInfoList, err := ioutil.ReadDir(dirPth)
	if err != nil {
		return nil, err
	}

	PthSep := string(os.PathSeparator)
	files = make([]string, 0)
	for _, fi := range fileInfoList {
		if fi.IsDir() {
			continue
		}
		name := fi.Name()
		if !strings.HasPrefix(name, "frames") {
			continue
		}

		if strings.HasSuffix(name, ".log") || strings.HasSuffix(name, ".log.gz") {
			files = append(files, dirPth+PthSep+fi.Name())
		}
	}
	return files, nil
}
