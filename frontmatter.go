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
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FrontmatterValue is one resolved output field. Values are strings, ints,
// bools or string slices.
type FrontmatterValue struct {
	Key   string
	Value interface{}
}

// Frontmatter holds resolved fields in configured order.
type Frontmatter []FrontmatterValue

// A resolver computes one frontmatter field from a fully built post. The
// second return is false when the field doesn't apply to the post.
type resolver func(post *Post, config *Config) (interface{}, bool)

// The closed set of supported fields. Configuration naming anything else is
// rejected up front by ValidateFrontmatterFields.
var resolvers = map[string]resolver{
	"title":      resolveTitle,
	"date":       resolveDate,
	"slug":       resolveSlug,
	"categories": resolveCategories,
	"tags":       resolveTags,
	"coverImage": resolveCoverImage,
	"draft":      resolveDraft,
	"excerpt":    resolveExcerpt,
	"id":         resolveId,
	"author":     resolveAuthor,
	"type":       resolveType,
}

// Splits a "name" or "name:alias" field spec.
func splitFieldSpec(spec string) (name string, alias string) {
	name = spec
	alias = spec
	if i := strings.Index(spec, ":"); i != -1 {
		name = spec[:i]
		alias = spec[i+1:]
	}
	return
}

// Rejects configured field specs that name an unknown field.
func ValidateFrontmatterFields(fields []string) error {
	for _, spec := range fields {
		name, _ := splitFieldSpec(spec)
		if _, ok := resolvers[name]; !ok {
			return fmt.Errorf("Could not resolve frontmatter field %q", name)
		}
	}
	return nil
}

// Computes the configured frontmatter fields for a post. Runs once, after
// the image merge.
func PopulateFrontmatter(post *Post, config *Config) error {
	post.Frontmatter = Frontmatter{}
	for _, spec := range config.FrontmatterFields {
		name, alias := splitFieldSpec(spec)
		resolve, ok := resolvers[name]
		if !ok {
			return fmt.Errorf("Could not resolve frontmatter field %q", name)
		}
		if value, present := resolve(post, config); present {
			post.Frontmatter = append(post.Frontmatter, FrontmatterValue{Key: alias, Value: value})
		}
	}
	return nil
}

// Raw title, not decoded.
func resolveTitle(post *Post, config *Config) (interface{}, bool) {
	return post.Title, true
}

// Post date as previously parsed. A custom format string wins over the
// include-time flag; the fallback is date-only ISO.
func resolveDate(post *Post, config *Config) (interface{}, bool) {
	if post.Date == nil {
		return nil, false
	}
	switch {
	case config.CustomDateFormat != "":
		return post.Date.Format(config.CustomDateFormat), true
	case config.IncludeTimeWithDate:
		return post.Date.Format(time.RFC3339), true
	default:
		return post.Date.Format("2006-01-02"), true
	}
}

// Slug, previously URL-decoded by the parser.
func resolveSlug(post *Post, config *Config) (interface{}, bool) {
	return post.Slug, true
}

// Decoded category nicenames, minus the configured exclusions.
func resolveCategories(post *Post, config *Config) (interface{}, bool) {
	categories := []string{}
	for _, category := range post.categories {
		excluded := false
		for _, filtered := range config.FilterCategories {
			if category == filtered {
				excluded = true
				break
			}
		}
		if !excluded {
			categories = append(categories, category)
		}
	}
	return categories, true
}

// Decoded tag nicenames. Posts without tags resolve to an empty list, not an
// absent field.
func resolveTags(post *Post, config *Config) (interface{}, bool) {
	tags := []string{}
	tags = append(tags, post.tags...)
	return tags, true
}

// Cover image filename, set during the image merge.
func resolveCoverImage(post *Post, config *Config) (interface{}, bool) {
	if post.CoverImage == "" {
		return nil, false
	}
	return post.CoverImage, true
}

// Included only when true, never emitted as false.
func resolveDraft(post *Post, config *Config) (interface{}, bool) {
	if !post.IsDraft {
		return nil, false
	}
	return true, true
}

var reNewlineRuns = regexp.MustCompile(`[\r\n]+`)

// Excerpt, not decoded, newline runs collapsed to single spaces.
func resolveExcerpt(post *Post, config *Config) (interface{}, bool) {
	if !post.hasExcerpt {
		return nil, false
	}
	return reNewlineRuns.ReplaceAllString(post.excerpt, " "), true
}

// Post id as an integer.
func resolveId(post *Post, config *Config) (interface{}, bool) {
	id, err := strconv.Atoi(post.Id)
	if err != nil {
		return nil, false
	}
	return id, true
}

// Raw creator login, not decoded.
func resolveAuthor(post *Post, config *Config) (interface{}, bool) {
	return post.Author, true
}

func resolveType(post *Post, config *Config) (interface{}, bool) {
	return post.Type, true
}

// Escapes a string for a double-quoted YAML scalar.
func escapeQuotes(value string) string {
	return strings.ReplaceAll(value, `"`, `\"`)
}

// Renders the frontmatter block. Strings are double-quoted, arrays become
// block sequences, booleans and integers stay bare. Empty strings and empty
// arrays are omitted entirely.
func RenderFrontmatter(frontmatter Frontmatter) string {
	var b strings.Builder
	b.WriteString("---\n")
	for _, field := range frontmatter {
		switch value := field.Value.(type) {
		case string:
			if value == "" {
				continue
			}
			fmt.Fprintf(&b, "%v: \"%v\"\n", field.Key, escapeQuotes(value))
		case bool:
			fmt.Fprintf(&b, "%v: %v\n", field.Key, value)
		case int:
			fmt.Fprintf(&b, "%v: %v\n", field.Key, value)
		case []string:
			if len(value) == 0 {
				continue
			}
			fmt.Fprintf(&b, "%v:\n", field.Key)
			for _, item := range value {
				fmt.Fprintf(&b, "  - \"%v\"\n", escapeQuotes(item))
			}
		}
	}
	b.WriteString("---\n")
	return b.String()
}
