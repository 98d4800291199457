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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	config, err := BuildConfig(DefaultArgs(), nil)
	require.NoError(t, err)
	return config
}

func translate(t *testing.T, body string) string {
	out, err := NewTranslator(testConfig(t)).Translate(body)
	require.NoError(t, err)
	return out
}

func TestTranslateEmptyBody(t *testing.T) {
	assert.Equal(t, "", translate(t, ""))
}

func TestTranslateParagraphsStaySeparated(t *testing.T) {
	out := translate(t, "<p>a</p>\n\n<p>b</p>")
	assert.Regexp(t, `a\n\nb`, out)
}

func TestTranslateUnwrappedTextStaysSeparated(t *testing.T) {
	out := translate(t, "first paragraph\n\nsecond paragraph")
	assert.Regexp(t, `first paragraph\n\nsecond paragraph`, out)
}

func TestTranslateMoreSeparatorSurvives(t *testing.T) {
	out := translate(t, "<p>before</p>\n\n<!--more-->\n\n<p>after</p>")
	assert.Equal(t, 1, strings.Count(out, "<!--more-->"))
}

func TestTranslateMoreSeparatorCustomLabel(t *testing.T) {
	out := translate(t, "<p>before</p>\n\n<!--more Keep reading-->\n\n<p>after</p>")
	assert.Contains(t, out, "<!--more Keep reading-->")
}

func TestTranslateTweetPreserved(t *testing.T) {
	body := `<blockquote class="twitter-tweet"><p>Just setting up</p></blockquote>`
	out := translate(t, body)
	assert.Contains(t, out, `<blockquote class="twitter-tweet">`)
}

func TestTranslateRegularBlockquoteConverted(t *testing.T) {
	out := translate(t, "<blockquote><p>quoted</p></blockquote>")
	assert.NotContains(t, out, "<blockquote")
	assert.Contains(t, out, "> quoted")
}

func TestTranslateCodepenPreserved(t *testing.T) {
	body := `<p class="codepen" data-slug-hash="abc123" data-default-tab="result">See the pen</p>`
	out := translate(t, body)
	assert.Contains(t, out, `data-slug-hash="abc123"`)
	assert.Contains(t, out, "<p")
}

func TestTranslateScriptPreservedWithBooleanAttr(t *testing.T) {
	body := `<blockquote class="twitter-tweet"><p>hi</p></blockquote>` +
		`<script async="" src="https://platform.twitter.com/widgets.js" charset="utf-8"></script>`
	out := translate(t, body)
	assert.Contains(t, out, "<script async src=")
	assert.NotContains(t, out, `async=""`)
}

func TestTranslateIframePreserved(t *testing.T) {
	body := `<iframe src="https://player.example.com/v/1" allowfullscreen=""></iframe>`
	out := translate(t, body)
	assert.Contains(t, out, "<iframe")
	assert.Contains(t, out, "allowfullscreen")
	assert.NotContains(t, out, `allowfullscreen=""`)
}

func TestTranslateFigureWithCaptionPreserved(t *testing.T) {
	body := `<figure><img src="https://example.com/a.png"><figcaption>A caption</figcaption></figure>`
	out := translate(t, body)
	assert.Contains(t, out, "<figure>")
	assert.Contains(t, out, "<figcaption>A caption</figcaption>")
}

func TestTranslateFigureWithoutCaptionUnwrapped(t *testing.T) {
	body := `<figure><img src="https://example.com/a.png" alt="a"></figure>`
	out := translate(t, body)
	assert.NotContains(t, out, "<figure>")
	assert.Contains(t, out, "a.png")
}

func TestTranslateDivInsideLinkUnwrapped(t *testing.T) {
	body := `<a href="https://example.com"><div class="wp-block-group">click me</div></a>`
	out := translate(t, body)
	assert.NotContains(t, out, "<div")
	assert.Contains(t, out, "click me")
}

func TestTranslateStyleRemoved(t *testing.T) {
	out := translate(t, "<style>body { color: red; }</style><p>kept</p>")
	assert.NotContains(t, out, "color: red")
	assert.Contains(t, out, "kept")
}

func TestTranslateCodeShortcode(t *testing.T) {
	body := "[code language=\"css\"]\nbody { color: red; }\n[/code]"
	out := translate(t, body)
	assert.Contains(t, out, "```css")
	assert.Contains(t, out, "color: red;")
}

func TestTranslateCodeShortcodeDefaultLanguage(t *testing.T) {
	out := translate(t, "[code]\nplain text\n[/code]")
	assert.Contains(t, out, "```none")
}

func TestTranslatePreWithoutCodeFenced(t *testing.T) {
	body := `<!-- wp:codemirror-blocks/code-block {"language":"go"} --><pre>fmt.Println("hi")</pre>`
	out := translate(t, body)
	assert.Contains(t, out, "```go")
	assert.Contains(t, out, `fmt.Println("hi")`)
}

func TestTranslatePreLanguageAfterOtherContent(t *testing.T) {
	body := "<p>intro</p>\n\n" +
		"<!-- wp:codemirror-blocks/code-block {\"language\":\"css\"} -->\n" +
		"<pre>b { c: d }</pre>"
	out := translate(t, body)
	assert.Contains(t, out, "intro")
	assert.Contains(t, out, "```css")
	assert.Contains(t, out, "b { c: d }")
}

func TestTranslatePreWithoutLanguageComment(t *testing.T) {
	out := translate(t, "<pre>plain</pre>")
	assert.Contains(t, out, "```\nplain\n```")
}

func TestTranslateImagePathsRewritten(t *testing.T) {
	body := `<p><img src="https://example.com/wp-content/uploads/2020/01/photo.jpg" alt="a photo"></p>`
	out := translate(t, body)
	assert.Contains(t, out, "images/photo.jpg")
	assert.NotContains(t, out, "wp-content")
}

func TestTranslateImagePathsKeptWhenNotSaving(t *testing.T) {
	args := DefaultArgs()
	args.saveImages = SaveImagesNone
	config, err := BuildConfig(args, nil)
	require.NoError(t, err)
	body := `<p><img src="https://example.com/wp-content/uploads/photo.jpg" alt="a photo"></p>`
	out, err := NewTranslator(config).Translate(body)
	require.NoError(t, err)
	assert.Contains(t, out, "https://example.com/wp-content/uploads/photo.jpg")
}

func TestTranslateListSpacingCollapsed(t *testing.T) {
	out := translate(t, "<ul><li>one</li><li>two</li></ul>")
	assert.Contains(t, out, "- one")
	assert.NotContains(t, out, "-  one")
}

func TestTranslateHeadingsAtx(t *testing.T) {
	out := translate(t, "<h2>Section</h2><p>text</p>")
	assert.Contains(t, out, "## Section")
}

func TestTranslateCollapsesExtraNewlines(t *testing.T) {
	out := translate(t, "<p>a</p><br><br><br><p>b</p>")
	assert.NotContains(t, out, "\n\n\n")
}

func TestTranslateDeterministic(t *testing.T) {
	body := `<h1>T</h1><p>a</p>\n\n<p>b</p><ul><li>x</li></ul>`
	first := translate(t, body)
	second := translate(t, body)
	assert.Equal(t, first, second)
}
