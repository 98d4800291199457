// Copyright 2020 Arne Roomann-Kurrik
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kurrik/fauxfile"
)

type Args struct {
	input             string
	output            string
	settings          string
	postFolders       bool
	prefixDate        bool
	dateFolders       string
	saveImages        string
	includeOtherTypes bool
}

func DefaultArgs() *Args {
	return &Args{
		input:       "export.xml",
		output:      "output",
		settings:    "settings.yaml",
		postFolders: true,
		dateFolders: DateFoldersNone,
		saveImages:  SaveImagesAll,
	}
}

func main() {
	a := DefaultArgs()
	flag.StringVar(&a.input, "input", a.input, "Path to WordPress export file.")
	flag.StringVar(&a.output, "output", a.output, "Path to output folder.")
	flag.StringVar(&a.settings, "settings", a.settings, "Path to optional settings file.")
	flag.BoolVar(&a.postFolders, "post-folders", a.postFolders, "Put each post into its own folder.")
	flag.BoolVar(&a.prefixDate, "prefix-date", a.prefixDate, "Prefix post folders/files with date.")
	flag.StringVar(&a.dateFolders, "date-folders", a.dateFolders, "Organize into folders by date: none, year, year-month.")
	flag.StringVar(&a.saveImages, "save-images", a.saveImages, "Which images to save: none, attached, scraped, all.")
	flag.BoolVar(&a.includeOtherTypes, "include-other-types", a.includeOtherTypes, "Convert pages and custom post types too.")
	flag.Parse()
	c := NewConverter(&fauxfile.RealFilesystem{}, a)
	if err := c.Process(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
