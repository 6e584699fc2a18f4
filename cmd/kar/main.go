// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"os"
	"os/user"
	"time"

	"github.com/devblok/koru/core"
	"github.com/devblok/koru/utility/kar"
	log "github.com/sirupsen/logrus"
)

func currentUserName() string {
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Username
}

var (
	author   = flag.String("author", currentUserName(), "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the given archive into the directory given with -d")
	compress = flag.String("c", "", "Compress the given shader folder")
	dstFile  = flag.String("f", "out.kar", "Destination file")
	dstDir   = flag.String("d", ".", "Destination directory when extracting")
	compiler = flag.String("compiler", "glslc", "Shader compiler used for sources without bytecode")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	if *extract != "" && *compress != "" {
		log.Fatal("only one operation at a time")
	}

	switch {
	case *extract != "":
		if err := extractArchive(*extract, *dstDir); err != nil {
			log.WithError(err).Fatal("extracting archive")
		}
	case *compress != "":
		header := kar.Header{
			Author:      *author,
			DateCreated: time.Now().Unix(),
			Version:     *version,
		}
		if err := compressShaders(*compress, *dstFile, header, core.ExternalCompiler(*compiler)); err != nil {
			log.WithError(err).Fatal("compressing shaders")
		}
	default:
		flag.PrintDefaults()
		os.Exit(2)
	}
}
