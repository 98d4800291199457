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
	"io"
	"log"
	"os"

	"github.com/kurrik/fauxfile"
	"gopkg.in/yaml.v2"
)

// Master Control Program.
type Converter struct {
	args   *Args
	fs     fauxfile.Filesystem
	log    *log.Logger
	config *Config
}

// Creates a new Converter.
func NewConverter(fs fauxfile.Filesystem, args *Args) *Converter {
	return &Converter{
		args: args,
		fs:   fs,
		log:  log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Parses the export file and writes the Markdown tree into the output
// directory. Parsing and translation problems abort the run; per-file write
// and download problems are only reported.
func (c *Converter) Process() (err error) {
	if err = c.loadConfig(); err != nil {
		return
	}
	c.log.Printf("Parsing export %v", c.config.Input)
	var content string
	if content, err = c.readFile(c.config.Input); err != nil {
		return
	}
	var posts []*Post
	if posts, err = NewParser(c.config, c.log).Parse(content); err != nil {
		return
	}
	NewWriter(c.fs, c.config, c.log).WriteAll(posts)
	c.log.Printf("All done! Output is in %v", c.config.Output)
	return
}

// Resolves args plus the optional settings file into c.config. A missing
// settings file means defaults; an unreadable one is an error.
func (c *Converter) loadConfig() (err error) {
	var meta *SettingsMeta
	if _, statErr := c.fs.Stat(c.args.settings); statErr == nil {
		c.log.Printf("Parsing settings %v", c.args.settings)
		meta = &SettingsMeta{}
		if err = c.unyaml(c.args.settings, meta); err != nil {
			return
		}
	}
	c.config, err = BuildConfig(c.args, meta)
	return
}

// Reads a file from the given path and returns a string of the contents.
func (c *Converter) readFile(path string) (out string, err error) {
	var (
		f   fauxfile.File
		fi  os.FileInfo
		buf []byte
	)
	if f, err = c.fs.Open(path); err != nil {
		return
	}
	defer f.Close()
	if fi, err = f.Stat(); err != nil {
		return
	}
	buf = make([]byte, fi.Size())
	if _, err = io.ReadFull(f, buf); err != nil {
		return
	}
	out = string(buf)
	return
}

// Deserializes the yaml file at the given path to the supplied object.
func (c *Converter) unyaml(path string, out interface{}) (err error) {
	var data string
	if data, err = c.readFile(path); err != nil {
		return
	}
	err = yaml.Unmarshal([]byte(data), out)
	return
}
