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
	"path/filepath"
)

// Returns the destination path of the Markdown file for a post. Layout is
// governed entirely by config; posts without a parseable date skip the
// date-derived segments rather than inventing a date.
func PostPath(post *Post, config *Config) string {
	segments := []string{config.Output}
	if config.IncludeOtherTypes {
		segments = append(segments, post.Type)
	}
	if post.IsDraft {
		segments = append(segments, "drafts")
	}
	if post.Date != nil {
		switch config.DateFolders {
		case DateFoldersYear:
			segments = append(segments, post.Date.Format("2006"))
		case DateFoldersYearMonth:
			segments = append(segments, post.Date.Format("2006"), post.Date.Format("01"))
		}
	}
	fragment := post.Slug
	if fragment == "" {
		fragment = "id-" + post.Id
	}
	if config.PrefixDate && post.Date != nil {
		fragment = post.Date.Format("2006-01-02") + "-" + fragment
	}
	if config.PostFolders {
		segments = append(segments, fragment, "index.md")
	} else {
		segments = append(segments, fragment+".md")
	}
	return filepath.Join(segments...)
}

// Returns the directory a post's images are saved under.
func ImageDir(postPath string) string {
	return filepath.Join(filepath.Dir(postPath), "images")
}
