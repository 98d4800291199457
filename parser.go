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
	"fmt"
	"log"
	"net/url"
	"regexp"
)

// Internal WordPress item types that never become output posts.
var excludedPostTypes = map[string]bool{
	"attachment":          true,
	"revision":            true,
	"nav_menu_item":       true,
	"custom_css":          true,
	"customize_changeset": true,
	"oembed_cache":        true,
	"user_request":        true,
	"wp_block":            true,
	"wp_global_styles":    true,
	"wp_navigation":       true,
	"wp_template":         true,
	"wp_template_part":    true,
}

var reScrapedImage = regexp.MustCompile(`(?i)<img[^>]*src="(.+?\.(?:gif|jpe?g|png|webp))"[^>]*>`)

// Parser walks the export document and produces the final post set.
type Parser struct {
	config     *Config
	translator *Translator
	log        *log.Logger
}

func NewParser(config *Config, logger *log.Logger) *Parser {
	return &Parser{
		config:     config,
		translator: NewTranslator(config),
		log:        logger,
	}
}

// Parse runs the full extraction: posts, then attached and scraped images,
// then the image merge, then frontmatter. Structural problems with the
// export are fatal; the whole conversion aborts.
func (p *Parser) Parse(content string) (posts []*Post, err error) {
	var (
		root    *XmlNode
		channel *XmlNode
		images  []*Image
	)
	if root, err = ParseDocument(content); err != nil {
		return
	}
	if channel, err = root.Child("channel", 0); err != nil {
		return
	}
	if posts, err = p.collectPosts(channel); err != nil {
		return
	}
	if p.config.SaveAttachedImages() {
		images = append(images, p.collectAttachedImages(channel)...)
	}
	if p.config.SaveScrapedImages() {
		var scraped []*Image
		if scraped, err = p.collectScrapedImages(posts); err != nil {
			return
		}
		images = append(images, scraped...)
	}
	mergeImagesIntoPosts(images, posts)
	for _, post := range posts {
		if err = PopulateFrontmatter(post, p.config); err != nil {
			return
		}
	}
	return
}

// Returns the post types to convert: just "post" by default, or every
// distinct non-internal type in the export when other types are included.
func (p *Parser) postTypes(channel *XmlNode) []string {
	if !p.config.IncludeOtherTypes {
		return []string{"post"}
	}
	var (
		types []string
		seen  = map[string]bool{}
	)
	for _, item := range channel.Children("item") {
		postType, ok := item.OptionalChildValue("post_type", 0)
		if !ok || seen[postType] || excludedPostTypes[postType] {
			continue
		}
		seen[postType] = true
		types = append(types, postType)
	}
	return types
}

// Returns channel items of the given post type.
func itemsOfType(channel *XmlNode, postType string) []*XmlNode {
	var items []*XmlNode
	for _, item := range channel.Children("item") {
		if value, ok := item.OptionalChildValue("post_type", 0); ok && value == postType {
			items = append(items, item)
		}
	}
	return items
}

// Builds Post records for every retained item, type by type. Trashed items
// and the WordPress sample page are dropped.
func (p *Parser) collectPosts(channel *XmlNode) (posts []*Post, err error) {
	for _, postType := range p.postTypes(channel) {
		for _, item := range itemsOfType(channel, postType) {
			status, ok := item.OptionalChildValue("status", 0)
			if ok && status == "trash" {
				continue
			}
			if slug, ok := item.OptionalChildValue("post_name", 0); ok {
				if postType == "page" && slug == "sample-page" {
					continue
				}
			}
			var post *Post
			if post, err = NewPost(item, p.config, p.translator); err != nil {
				return
			}
			posts = append(posts, post)
		}
	}
	p.log.Printf("Found %v posts to convert.", len(posts))
	return
}

// Collects attachment items whose URL has an image extension.
func (p *Parser) collectAttachedImages(channel *XmlNode) []*Image {
	var images []*Image
	for _, item := range itemsOfType(channel, "attachment") {
		attachmentUrl, ok := item.OptionalChildValue("attachment_url", 0)
		if !ok || !IsImageUrl(attachmentUrl) {
			continue
		}
		id, _ := item.OptionalChildValue("post_id", 0)
		parent, ok := item.OptionalChildValue("post_parent", 0)
		if !ok {
			parent = "0"
		}
		images = append(images, &Image{Id: id, PostId: parent, Url: attachmentUrl})
	}
	return images
}

// Scans retained post bodies for <img> tags and records each referenced
// image against its post. Relative sources resolve against the post's link;
// having no absolute base to resolve against is fatal since the image could
// never be fetched.
func (p *Parser) collectScrapedImages(posts []*Post) (images []*Image, err error) {
	for _, post := range posts {
		for _, match := range reScrapedImage.FindAllStringSubmatch(post.rawBody, -1) {
			var resolved string
			if resolved, err = resolveImageUrl(match[1], post.Link); err != nil {
				err = fmt.Errorf("Could not resolve image URL %v in post %v: %v", match[1], post.Id, err)
				return
			}
			exists := false
			for _, image := range images {
				if image.PostId == post.Id && image.Url == resolved {
					exists = true
					break
				}
			}
			if exists {
				continue
			}
			images = append(images, &Image{Id: NoImageId, PostId: post.Id, Url: resolved})
			p.log.Printf("Scraped %v.", resolved)
		}
	}
	return
}

// Resolves a scraped image src to an absolute URL using the post link as
// base when needed.
func resolveImageUrl(src string, link string) (resolved string, err error) {
	var u *url.URL
	if u, err = url.Parse(src); err != nil {
		return
	}
	if u.IsAbs() {
		resolved = src
		return
	}
	var base *url.URL
	if base, err = url.Parse(link); err != nil {
		return
	}
	if !base.IsAbs() {
		err = fmt.Errorf("post link %q is not an absolute URL", link)
		return
	}
	resolved = base.ResolveReference(u).String()
	return
}

// Attaches image URLs to the posts that own them. Ownership comes from the
// attachment's parent post id, or from a matching cover image id, which also
// sets the cover image filename. The cover id match is independent of the
// parent id: WordPress records a cover image's post_parent as 0 in some
// exports.
func mergeImagesIntoPosts(images []*Image, posts []*Post) {
	for _, image := range images {
		for _, post := range posts {
			isCover := image.Id != NoImageId && image.Id == post.CoverImageId
			if image.PostId == post.Id || isCover {
				post.addImageUrl(image.Url)
			}
			if isCover {
				post.CoverImage = FilenameFromUrl(image.Url)
			}
		}
	}
}
