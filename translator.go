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
	"html"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	xhtml "golang.org/x/net/html"
)

// Language token used for [code] shortcodes that don't declare one.
const shortcodeDefaultLanguage = "none"

var (
	reDoubleLineBreak = regexp.MustCompile(`(\r?\n){2}`)
	reImageSrc        = regexp.MustCompile(`(?i)(<img[^>]*src=")[^"]*?([^/"]+\.(?:gif|jpe?g|png|webp))("[^>]*>)`)
	reMoreComment     = regexp.MustCompile(`<(!--more( [^>]*)?--)>`)
	reMoreEscaped     = regexp.MustCompile(`\\?(<!--more( [^>]*)?--)\\?>`)
	reCodeShortcode   = regexp.MustCompile(`(?s)\[code([^\]]*)\]\r?\n?(.*?)\[/code\]`)
	reCodeLanguage    = regexp.MustCompile(`language="([^"]*)"`)
	rePreLanguage     = regexp.MustCompile(`<!--[^<]*?"language":"([^"]+)"[^<]*?-->\s*(<pre)([\s>])`)
	reListSpacing     = regexp.MustCompile(`(-|\d+\.)[ ]+`)
	reExtraNewlines   = regexp.MustCompile(`\n{3,}`)
	reFigureNewlines  = regexp.MustCompile(`\n{4}`)
)

// Translator converts one post body from HTML to Markdown. Configured once,
// then reused for every post in the export.
type Translator struct {
	converter         *md.Converter
	rewriteImagePaths bool
}

func NewTranslator(config *Config) *Translator {
	t := &Translator{
		rewriteImagePaths: config.SaveScrapedImages(),
	}
	t.converter = md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
	})
	t.converter.Use(plugin.GitHubFlavored())
	t.converter.Remove("style")
	t.converter.AddRules(
		ruleTweet,
		ruleCodepenParagraph,
		ruleDiv,
		ruleScript,
		ruleIframe,
		ruleFigure,
		ruleFigcaption,
		rulePre,
	)
	return t
}

// Translate converts a raw post body into Markdown. An empty body yields an
// empty string; malformed HTML is tolerated by the parser underneath.
func (t *Translator) Translate(body string) (content string, err error) {
	if body == "" {
		return
	}
	// The block editor records a code block's language in a comment next to
	// the <pre>. The HTML parser hoists comments that precede any body
	// content out of <body>, so the language has to move onto the element
	// itself before parsing.
	content = rePreLanguage.ReplaceAllString(body, `${2} data-language="${1}"${3}`)
	// Insert an empty div between double line breaks so adjacent paragraphs
	// of unwrapped text stay separated, without touching the inside of
	// <pre> or <code> blocks.
	content = reDoubleLineBreak.ReplaceAllString(content, "\n<div></div>\n")
	if t.rewriteImagePaths {
		// Scraped images get saved to a local images folder, so point
		// the content at it.
		content = reImageSrc.ReplaceAllString(content, "${1}images/${2}${3}")
	}
	content = escapeMoreComment(content)
	content = normalizeCodeShortcodes(content)
	if content, err = t.converter.ConvertString(content); err != nil {
		return
	}
	content = reMoreEscaped.ReplaceAllString(content, "${1}>")
	content = reListSpacing.ReplaceAllString(content, "$1 ")
	content = reExtraNewlines.ReplaceAllString(content, "\n\n")
	return
}

// HTML-escapes the first <!--more--> separator (optionally labeled) so the
// generic conversion doesn't discard it as a comment. The escaping is undone
// after conversion.
func escapeMoreComment(content string) string {
	loc := reMoreComment.FindStringSubmatchIndex(content)
	if loc == nil {
		return content
	}
	return content[:loc[0]] + "&lt;" + content[loc[2]:loc[3]] + "&gt;" + content[loc[1]:]
}

// Rewrites [code language="x"]...[/code] shortcodes into semantic
// <pre><code class="language-x"> elements ahead of the generic conversion.
func normalizeCodeShortcodes(content string) string {
	return reCodeShortcode.ReplaceAllStringFunc(content, func(match string) string {
		groups := reCodeShortcode.FindStringSubmatch(match)
		language := shortcodeDefaultLanguage
		if attr := reCodeLanguage.FindStringSubmatch(groups[1]); attr != nil && attr[1] != "" {
			language = attr[1]
		}
		code := html.EscapeString(strings.Trim(groups[2], "\r\n"))
		return fmt.Sprintf("<pre><code class=\"language-%v\">%v</code></pre>", language, code)
	})
}

// Serializes a selection back to raw HTML. Conversion rules fall back to the
// generic handling when serialization fails.
func outerHtml(selec *goquery.Selection) (string, bool) {
	out, err := goquery.OuterHtml(selec)
	if err != nil {
		return "", false
	}
	return out, true
}

// Embedded tweets stay raw HTML.
var ruleTweet = md.Rule{
	Filter: []string{"blockquote"},
	Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
		if selec.AttrOr("class", "") != "twitter-tweet" {
			return nil
		}
		out, ok := outerHtml(selec)
		if !ok {
			return nil
		}
		return md.String("\n\n" + out)
	},
}

// CodePen embed snippets have changed shape over the years, but a
// data-slug-hash attribute plus a codepen class is common to all of them.
func isCodepen(selec *goquery.Selection) bool {
	_, hasSlug := selec.Attr("data-slug-hash")
	return hasSlug && selec.AttrOr("class", "") == "codepen"
}

var ruleCodepenParagraph = md.Rule{
	Filter: []string{"p"},
	Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
		if !isCodepen(selec) {
			return nil
		}
		out, ok := outerHtml(selec)
		if !ok {
			return nil
		}
		return md.String("\n\n" + out)
	},
}

// Divs are preserved for codepen embeds and unwrapped when WordPress's block
// editor nests them inside links, where a raw div would break the Markdown
// link syntax.
var ruleDiv = md.Rule{
	Filter: []string{"div"},
	Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
		if isCodepen(selec) {
			out, ok := outerHtml(selec)
			if !ok {
				return nil
			}
			return md.String("\n\n" + out)
		}
		if selec.ParentsFiltered("a").Length() > 0 {
			return md.String(content)
		}
		return nil
	},
}

// Scripts stay raw HTML (tweet and codepen widgets need them). Boolean
// attributes are cleaned up and the tag stays snug with a preceding embed
// element.
var ruleScript = md.Rule{
	Filter: []string{"script"},
	Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
		out, ok := outerHtml(selec)
		if !ok {
			return nil
		}
		out = strings.Replace(out, `async=""`, "async", 1)
		before := "\n\n"
		if node := selec.Get(0); node != nil && node.PrevSibling != nil && node.PrevSibling.Type != xhtml.TextNode {
			before = "\n"
		}
		return md.String(before + out + "\n\n")
	},
}

// Iframes stay raw HTML, common for embedded audio and video.
var ruleIframe = md.Rule{
	Filter: []string{"iframe"},
	Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
		out, ok := outerHtml(selec)
		if !ok {
			return nil
		}
		out = strings.Replace(out, `allowfullscreen=""`, "allowfullscreen", 1)
		out = strings.Replace(out, `allowpaymentrequest=""`, "allowpaymentrequest", 1)
		return md.String("\n\n" + out + "\n\n")
	},
}

// A figure with a caption keeps its wrapper; one without is unwrapped to its
// content.
var ruleFigure = md.Rule{
	Filter: []string{"figure"},
	Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
		if selec.Find("figcaption").Length() == 0 {
			return md.String(content)
		}
		inner := reFigureNewlines.ReplaceAllString(content, "\n\n")
		return md.String("\n\n<figure>" + inner + "</figure>\n\n")
	},
}

var ruleFigcaption = md.Rule{
	Filter: []string{"figcaption"},
	Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
		return md.String("<figcaption>" + content + "</figcaption>")
	},
}

// A <pre> without a nested <code> (the classic WordPress code block) becomes
// a fenced block, labeled with the language Translate lifted out of the
// block editor's comment when there was one.
var rulePre = md.Rule{
	Filter: []string{"pre"},
	Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
		if selec.Find("code").Length() > 0 {
			return nil
		}
		language := selec.AttrOr("data-language", "")
		code := strings.Trim(selec.Text(), "\r\n")
		return md.String("\n\n```" + language + "\n" + code + "\n```\n\n")
	},
}
