// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devblok/koru/utility/kar"
	qt "github.com/frankban/quicktest"
	"golang.org/x/exp/mmap"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildArchive(c *qt.C) []byte {
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	c.Assert(err, qt.IsNil)
	defer builder.Close()

	c.Assert(builder.Add("test", strings.NewReader(testString1)), qt.IsNil)
	c.Assert(builder.Add("test2", strings.NewReader(testString2)), qt.IsNil)

	var buf bytes.Buffer
	written, err := builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	c.Logf("written %d", written)
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	c := qt.New(t)

	ar, err := kar.Open(bytes.NewReader(buildArchive(c)))
	c.Assert(err, qt.IsNil)

	f, err := ar.Open("test")
	c.Assert(err, qt.IsNil)
	c.Assert(f.Size(), qt.Equals, int64(len(testString1)))

	result := make([]byte, len(testString1))
	_, err = io.ReadFull(f, result)
	c.Assert(err, qt.IsNil)
	c.Assert(string(result), qt.Equals, testString1)
}

func TestCreateAndReadAll(t *testing.T) {
	c := qt.New(t)

	ar, err := kar.Open(bytes.NewReader(buildArchive(c)))
	c.Assert(err, qt.IsNil)
	c.Assert(ar.Names(), qt.DeepEquals, []string{"test", "test2"})
	c.Assert(ar.Header().Author, qt.Equals, "devblok")

	f, err := ar.ReadAll("test2")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, testString2)

	f, err = ar.ReadAll("test")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, testString1)
}

func TestReadMissing(t *testing.T) {
	c := qt.New(t)

	ar, err := kar.Open(bytes.NewReader(buildArchive(c)))
	c.Assert(err, qt.IsNil)

	_, err = ar.ReadAll("missing")
	c.Assert(err, qt.Equals, kar.ErrNotFound)
}

func TestOpenNotAnArchive(t *testing.T) {
	c := qt.New(t)

	_, err := kar.Open(strings.NewReader("this is not a kar archive"))
	c.Assert(err, qt.Equals, kar.ErrFileFormat)

	_, err = kar.Open(strings.NewReader("KA"))
	c.Assert(err, qt.Equals, kar.ErrFileFormat)

	truncated := buildArchive(c)[:kar.DataOffset+4]
	_, err = kar.Open(bytes.NewReader(truncated))
	c.Assert(err, qt.Equals, kar.ErrFileFormat)
}

func TestOpenmmap(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(c.Mkdir(), "opentest.kar")
	c.Assert(ioutil.WriteFile(path, buildArchive(c), 0644), qt.IsNil)

	r, err := mmap.Open(path)
	c.Assert(err, qt.IsNil)
	defer r.Close()

	ar, err := kar.Open(r)
	c.Assert(err, qt.IsNil)

	f, err := ar.ReadAll("test")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, testString1)
}

func TestOpenFile(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(c.Mkdir(), "opentest.kar")
	c.Assert(ioutil.WriteFile(path, buildArchive(c), 0644), qt.IsNil)

	r, err := os.Open(path)
	c.Assert(err, qt.IsNil)
	defer r.Close()

	ar, err := kar.Open(r)
	c.Assert(err, qt.IsNil)
	c.Assert(ar.Names(), qt.HasLen, 2)
}
