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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kurrik/fauxfile"
)

func SetupWriter(t *testing.T) (w *Writer, fs *fauxfile.MockFilesystem) {
	fs = fauxfile.NewMockFilesystem()
	fs.MkdirAll("/home/test", 0755)
	fs.Chdir("/home/test")
	args := DefaultArgs()
	zero := 0
	meta := &SettingsMeta{
		ImageFileRequestDelay:  &zero,
		MarkdownFileWriteDelay: &zero,
	}
	config, err := BuildConfig(args, meta)
	if err != nil {
		t.Fatalf("BuildConfig: %v", err)
	}
	w = NewWriter(fs, config, log.New(io.Discard, "", log.LstdFlags))
	return
}

func writerPost() *Post {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Post{
		Id:      "1",
		Type:    "post",
		Slug:    "hello-world",
		Title:   "Hello World",
		Date:    &date,
		Content: "Hi",
		Frontmatter: Frontmatter{
			{Key: "title", Value: "Hello World"},
			{Key: "date", Value: "2024-01-01"},
		},
	}
}

func TestWriteMarkdown(t *testing.T) {
	w, fs := SetupWriter(t)
	w.WriteAll([]*Post{writerPost()})
	data, err := ReadFile(fs, "output/hello-world/index.md")
	if err != nil {
		t.Fatalf("Could not read output: %v", err)
	}
	expected := `---
title: "Hello World"
date: "2024-01-01"
---

Hi
`
	if data != expected {
		t.Errorf("Expected %q, got %q", expected, data)
	}
}

func TestWriteMarkdownSkipsExisting(t *testing.T) {
	w, fs := SetupWriter(t)
	if err := WriteFile(fs, "output/hello-world/index.md", "KEEP"); err != nil {
		t.Fatalf("Could not seed output: %v", err)
	}
	w.WriteAll([]*Post{writerPost()})
	data, err := ReadFile(fs, "output/hello-world/index.md")
	if err != nil {
		t.Fatalf("Could not read output: %v", err)
	}
	if data != "KEEP" {
		t.Errorf("Existing file was rewritten, got %q", data)
	}
}

func TestWriteMarkdownOtherTypesFilename(t *testing.T) {
	w, fs := SetupWriter(t)
	w.config.IncludeOtherTypes = true
	post := writerPost()
	post.Type = "page"
	w.WriteAll([]*Post{post})
	if _, err := ReadFile(fs, "output/page/hello-world/index.md"); err != nil {
		t.Errorf("Expected type folder in path: %v", err)
	}
}

func TestWriteImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(rw http.ResponseWriter, req *http.Request) {
			rw.Write([]byte("PNGDATA"))
		}))
	defer server.Close()

	w, fs := SetupWriter(t)
	post := writerPost()
	post.ImageUrls = []string{server.URL + "/uploads/photo.png"}
	w.WriteAll([]*Post{post})

	data, err := ReadFile(fs, "output/hello-world/images/photo.png")
	if err != nil {
		t.Fatalf("Could not read image: %v", err)
	}
	if data != "PNGDATA" {
		t.Errorf("Expected image bytes, got %q", data)
	}
}

func TestWriteImagesSkipsExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(rw http.ResponseWriter, req *http.Request) {
			rw.Write([]byte("FRESH"))
		}))
	defer server.Close()

	w, fs := SetupWriter(t)
	if err := WriteFile(fs, "output/hello-world/images/photo.png", "KEEP"); err != nil {
		t.Fatalf("Could not seed image: %v", err)
	}
	post := writerPost()
	post.ImageUrls = []string{server.URL + "/uploads/photo.png"}
	w.WriteAll([]*Post{post})

	data, err := ReadFile(fs, "output/hello-world/images/photo.png")
	if err != nil {
		t.Fatalf("Could not read image: %v", err)
	}
	if data != "KEEP" {
		t.Errorf("Existing image was rewritten, got %q", data)
	}
}

func TestWriteImageFailureDoesNotAbort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(rw http.ResponseWriter, req *http.Request) {
			if req.URL.Path == "/missing.png" {
				rw.WriteHeader(http.StatusNotFound)
				return
			}
			rw.Write([]byte("PNGDATA"))
		}))
	defer server.Close()

	w, fs := SetupWriter(t)
	post := writerPost()
	post.ImageUrls = []string{
		server.URL + "/missing.png",
		server.URL + "/photo.png",
	}
	w.WriteAll([]*Post{post})

	if _, err := fs.Stat("output/hello-world/images/missing.png"); err == nil {
		t.Errorf("Failed download should not produce a file")
	}
	data, err := ReadFile(fs, "output/hello-world/images/photo.png")
	if err != nil {
		t.Fatalf("Other downloads should still run: %v", err)
	}
	if data != "PNGDATA" {
		t.Errorf("Expected image bytes, got %q", data)
	}
}

func TestDownloadImageSetsUserAgent(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(
		func(rw http.ResponseWriter, req *http.Request) {
			agent = req.Header.Get("User-Agent")
			rw.Write([]byte("PNGDATA"))
		}))
	defer server.Close()

	w, _ := SetupWriter(t)
	if _, err := w.downloadImage(server.URL + "/photo.png"); err != nil {
		t.Fatalf("downloadImage: %v", err)
	}
	if agent != "wxr2md" {
		t.Errorf("Expected wxr2md user agent, got %q", agent)
	}
}

func TestDownloadImageStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(rw http.ResponseWriter, req *http.Request) {
			rw.WriteHeader(http.StatusForbidden)
		}))
	defer server.Close()

	w, _ := SetupWriter(t)
	_, err := w.downloadImage(server.URL + "/photo.png")
	if err == nil {
		t.Fatalf("Expected an error for a 403 response")
	}
	if err.Error() != "StatusCodeError: 403" {
		t.Errorf("Expected StatusCodeError: 403, got %v", err)
	}
}

func TestDownloadImagePreservesEncodedUrl(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(
		func(rw http.ResponseWriter, req *http.Request) {
			requested = req.RequestURI
			rw.Write([]byte("PNGDATA"))
		}))
	defer server.Close()

	w, _ := SetupWriter(t)
	if _, err := w.downloadImage(server.URL + "/my%20photo.png"); err != nil {
		t.Fatalf("downloadImage: %v", err)
	}
	if requested != "/my%20photo.png" {
		t.Errorf("Encoded URL was re-encoded, requested %q", requested)
	}
}
