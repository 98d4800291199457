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
	"time"
)

// Post is the central record built from one <item> of the export. CoverImage
// and ImageUrls are filled in once during the image merge, Frontmatter once
// after that; the record is read-only from then on.
type Post struct {
	Id           string
	Type         string
	Slug         string
	Title        string
	Author       string
	Link         string
	IsDraft      bool
	Date         *time.Time
	CoverImageId string
	CoverImage   string
	ImageUrls    []string
	Content      string
	Frontmatter  Frontmatter

	rawBody    string
	excerpt    string
	hasExcerpt bool
	categories []string
	tags       []string
}

// Layouts accepted for <pubDate>. Exports write RFC-2822 dates, usually with
// a numeric zone but occasionally with a zone name.
var pubDateLayouts = []string{
	"Mon, 02 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// Parses an RFC-2822 pubDate into the configured zone. Missing or
// unparseable dates yield nil, never a fabricated time.
func parsePubDate(value string, zone *time.Location) *time.Time {
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.In(zone)
			return &t
		}
	}
	return nil
}

// Decodes a URL-encoded slug or nicename. Improperly encoded values are
// returned unchanged.
func decodeSlug(value string) string {
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return value
	}
	return decoded
}

// Builds a Post from one <item> node. CoverImage, ImageUrls and Frontmatter
// are left for later phases. Structural problems with the item are fatal.
func NewPost(item *XmlNode, config *Config, translator *Translator) (post *Post, err error) {
	post = &Post{}
	if post.Id, err = item.ChildValue("post_id", 0); err != nil {
		return
	}
	if post.Type, err = item.ChildValue("post_type", 0); err != nil {
		return
	}
	var slug string
	if slug, err = item.ChildValue("post_name", 0); err != nil {
		return
	}
	post.Slug = decodeSlug(slug)
	post.Title, _ = item.OptionalChildValue("title", 0)
	post.Author, _ = item.OptionalChildValue("creator", 0)
	post.Link, _ = item.OptionalChildValue("link", 0)
	status, ok := item.OptionalChildValue("status", 0)
	if !ok {
		status = "publish"
	}
	post.IsDraft = status == "draft"
	if pubDate, ok := item.OptionalChildValue("pubDate", 0); ok {
		post.Date = parsePubDate(pubDate, config.Timezone)
	}
	for _, meta := range item.Children("postmeta") {
		key, _ := meta.OptionalChildValue("meta_key", 0)
		if key != "_thumbnail_id" {
			continue
		}
		if value, ok := meta.OptionalChildValue("meta_value", 0); ok {
			post.CoverImageId = value
			break
		}
	}
	post.rawBody, _ = item.OptionalChildValue("encoded", 0)
	post.excerpt, post.hasExcerpt = item.OptionalChildValue("encoded", 1)
	for _, category := range item.Children("category") {
		domain, err := category.Attribute("domain")
		if err != nil {
			continue
		}
		nicename, err := category.Attribute("nicename")
		if err != nil {
			continue
		}
		switch domain {
		case "category":
			post.categories = append(post.categories, decodeSlug(nicename))
		case "post_tag":
			post.tags = append(post.tags, decodeSlug(nicename))
		}
	}
	post.Content, err = translator.Translate(post.rawBody)
	return
}

// Appends a URL to the post's image set, preserving first-seen order.
func (p *Post) addImageUrl(u string) {
	for _, existing := range p.ImageUrls {
		if existing == u {
			return
		}
	}
	p.ImageUrls = append(p.ImageUrls, u)
}
