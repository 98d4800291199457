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
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/kurrik/fauxfile"
)

// Payload is one pending output file: a destination, a delayed start, and a
// function producing the bytes. Payloads fail independently of each other.
type Payload struct {
	Name  string
	Path  string
	Delay time.Duration
	Load  func() ([]byte, error)
}

// Writer persists converted posts and downloads their images. All
// filesystem access goes through fs so tests can run against a mock.
type Writer struct {
	fs     fauxfile.Filesystem
	config *Config
	log    *log.Logger
	client *http.Client
}

func NewWriter(fs fauxfile.Filesystem, config *Config, logger *log.Logger) *Writer {
	w := &Writer{
		fs:     fs,
		config: config,
		log:    logger,
		client: &http.Client{},
	}
	if !config.StrictSSL {
		w.client = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
	return w
}

// Writes Markdown files for every post, then downloads and saves images.
// Individual failures are reported and counted, never escalated.
func (w *Writer) WriteAll(posts []*Post) {
	w.writeMarkdown(posts)
	w.writeImages(posts)
}

func (w *Writer) fileExists(path string) bool {
	_, err := w.fs.Stat(path)
	return err == nil
}

// Builds and processes Markdown payloads. Files that already exist are
// skipped, not rewritten.
func (w *Writer) writeMarkdown(posts []*Post) {
	var (
		payloads  []*Payload
		skipCount int
		delay     time.Duration
	)
	for _, post := range posts {
		post := post
		path := PostPath(post, w.config)
		if w.fileExists(path) {
			skipCount++
			continue
		}
		name := post.Slug
		if w.config.IncludeOtherTypes {
			name = post.Type + " - " + name
		}
		payloads = append(payloads, &Payload{
			Name:  name,
			Path:  path,
			Delay: delay,
			Load: func() ([]byte, error) {
				return renderMarkdownFile(post), nil
			},
		})
		delay += w.config.MarkdownFileWriteDelay
	}
	if len(payloads)+skipCount == 0 {
		w.log.Printf("No posts to save...")
		return
	}
	w.log.Printf("Saving %v posts (%v already exist)...", len(payloads), skipCount)
	w.processPayloads(payloads)
}

// Builds and processes image download payloads for every image URL merged
// into every post.
func (w *Writer) writeImages(posts []*Post) {
	var (
		payloads  []*Payload
		skipCount int
		delay     time.Duration
	)
	for _, post := range posts {
		imagesDir := ImageDir(PostPath(post, w.config))
		for _, imageUrl := range post.ImageUrls {
			imageUrl := imageUrl
			filename := FilenameFromUrl(imageUrl)
			path := filepath.Join(imagesDir, filename)
			if w.fileExists(path) {
				skipCount++
				continue
			}
			payloads = append(payloads, &Payload{
				Name:  filename,
				Path:  path,
				Delay: delay,
				Load: func() ([]byte, error) {
					return w.downloadImage(imageUrl)
				},
			})
			delay += w.config.ImageFileRequestDelay
		}
	}
	if len(payloads)+skipCount == 0 {
		w.log.Printf("No images to download and save...")
		return
	}
	w.log.Printf("Downloading and saving %v images (%v already exist)...", len(payloads), skipCount)
	w.processPayloads(payloads)
}

// Runs payloads concurrently, staggered by their delays. One failure does
// not abort the others; a summary count is reported at the end.
func (w *Writer) processPayloads(payloads []*Payload) {
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		failedCount int
	)
	for _, payload := range payloads {
		payload := payload
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(payload.Delay)
			data, err := payload.Load()
			if err == nil {
				err = w.writeFile(payload.Path, data)
			}
			if err != nil {
				w.log.Printf("[FAILED] %v (%v)", payload.Name, err)
				mu.Lock()
				failedCount++
				mu.Unlock()
				return
			}
			w.log.Printf("[OK] %v", payload.Name)
		}()
	}
	wg.Wait()
	if failedCount == 0 {
		w.log.Printf("Done, got them all!")
	} else {
		w.log.Printf("Done, but with %v failed.", failedCount)
	}
}

// Writes content to a new file at path, creating parent directories.
func (w *Writer) writeFile(path string, data []byte) (err error) {
	var f fauxfile.File
	if err = w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	if f, err = w.fs.Create(path); err != nil {
		return
	}
	defer f.Close()
	_, err = f.Write(data)
	return
}

// Serializes one post: frontmatter block, blank line, translated body,
// trailing newline.
func renderMarkdownFile(post *Post) []byte {
	return []byte(RenderFrontmatter(post.Frontmatter) + "\n" + post.Content + "\n")
}

var reEncodedChar = regexp.MustCompile(`(?i)%[0-9a-f]{2}`)

// Fetches an image. URLs are only percent-encoded when they don't already
// contain encoded characters, to avoid double-encoding.
func (w *Writer) downloadImage(imageUrl string) (data []byte, err error) {
	requestUrl := imageUrl
	if !reEncodedChar.MatchString(imageUrl) {
		if u, parseErr := url.Parse(imageUrl); parseErr == nil {
			requestUrl = u.String()
		}
	}
	var req *http.Request
	if req, err = http.NewRequest(http.MethodGet, requestUrl, nil); err != nil {
		return
	}
	req.Header.Set("User-Agent", "wxr2md")
	var resp *http.Response
	if resp, err = w.client.Do(req); err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("StatusCodeError: %v", resp.StatusCode)
		return
	}
	data, err = io.ReadAll(resp.Body)
	return
}
