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
	"net/url"
	"regexp"
	"strings"
)

// Sentinel id for images scraped from post bodies. A scraped image can never
// be a cover image, only a WordPress attachment can.
const NoImageId = ""

// Image ties an image URL to the post that owns it. Attached images carry
// the attachment's own post id plus the parent post id from the export;
// scraped images carry only the id of the post they were found in.
type Image struct {
	Id     string
	PostId string
	Url    string
}

// Image file extensions WordPress serves that this tool will download.
var imageExtensions = regexp.MustCompile(`(?i)\.(gif|jpe?g|png|webp)$`)

// Reports whether the URL points at an image file type we handle.
func IsImageUrl(u string) bool {
	return imageExtensions.MatchString(u)
}

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Derives a local filename from an image URL: last path segment, percent
// decoding undone when possible, query and fragment stripped, characters the
// filesystem rejects substituted.
func FilenameFromUrl(u string) string {
	name := u
	if i := strings.IndexAny(name, "?#"); i != -1 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "/"); i != -1 {
		name = name[i+1:]
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		// Improperly encoded names are left as-is.
		name = decoded
	}
	return invalidFilenameChars.ReplaceAllString(name, "-")
}
