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

// Serializable models used to configure a conversion run.

import (
	"fmt"
	"time"
)

// Date folder layouts.
const (
	DateFoldersNone      = "none"
	DateFoldersYear      = "year"
	DateFoldersYearMonth = "year-month"
)

// Image save modes.
const (
	SaveImagesNone     = "none"
	SaveImagesAttached = "attached"
	SaveImagesScraped  = "scraped"
	SaveImagesAll      = "all"
)

// SettingsMeta holds the advanced options read from settings.yaml. Anything
// left unset falls back to a default in BuildConfig.
type SettingsMeta struct {
	FrontmatterFields      []string `yaml:"frontmatter_fields"`
	ImageFileRequestDelay  *int     `yaml:"image_file_request_delay"`
	MarkdownFileWriteDelay *int     `yaml:"markdown_file_write_delay"`
	IncludeTimeWithDate    bool     `yaml:"include_time_with_date"`
	CustomDateFormat       string   `yaml:"custom_date_formatting"`
	CustomDateTimezone     string   `yaml:"custom_date_timezone"`
	FilterCategories       []string `yaml:"filter_categories"`
	StrictSSL              *bool    `yaml:"strict_ssl"`
}

// Config is the fully resolved, read-only configuration the pipeline runs
// against. Built once from command line args and settings before parsing
// starts.
type Config struct {
	Input                  string
	Output                 string
	PostFolders            bool
	PrefixDate             bool
	DateFolders            string
	SaveImages             string
	IncludeOtherTypes      bool
	FrontmatterFields      []string
	ImageFileRequestDelay  time.Duration
	MarkdownFileWriteDelay time.Duration
	IncludeTimeWithDate    bool
	CustomDateFormat       string
	Timezone               *time.Location
	FilterCategories       []string
	StrictSSL              bool
}

// Reports whether images attached to posts should be collected.
func (c *Config) SaveAttachedImages() bool {
	return c.SaveImages == SaveImagesAttached || c.SaveImages == SaveImagesAll
}

// Reports whether images referenced in post bodies should be collected.
func (c *Config) SaveScrapedImages() bool {
	return c.SaveImages == SaveImagesScraped || c.SaveImages == SaveImagesAll
}

// Resolves args and settings into a Config. Invalid option values are
// configuration mistakes and fail here, before any parsing happens.
func BuildConfig(args *Args, meta *SettingsMeta) (config *Config, err error) {
	config = &Config{
		Input:                  args.input,
		Output:                 args.output,
		PostFolders:            args.postFolders,
		PrefixDate:             args.prefixDate,
		DateFolders:            args.dateFolders,
		SaveImages:             args.saveImages,
		IncludeOtherTypes:      args.includeOtherTypes,
		FrontmatterFields:      []string{"title", "date", "categories", "tags", "coverImage"},
		ImageFileRequestDelay:  500 * time.Millisecond,
		MarkdownFileWriteDelay: 25 * time.Millisecond,
		Timezone:               time.UTC,
		FilterCategories:       []string{"uncategorized"},
		StrictSSL:              true,
	}
	if meta != nil {
		if meta.FrontmatterFields != nil {
			config.FrontmatterFields = meta.FrontmatterFields
		}
		if meta.ImageFileRequestDelay != nil {
			config.ImageFileRequestDelay = time.Duration(*meta.ImageFileRequestDelay) * time.Millisecond
		}
		if meta.MarkdownFileWriteDelay != nil {
			config.MarkdownFileWriteDelay = time.Duration(*meta.MarkdownFileWriteDelay) * time.Millisecond
		}
		config.IncludeTimeWithDate = meta.IncludeTimeWithDate
		config.CustomDateFormat = meta.CustomDateFormat
		if meta.FilterCategories != nil {
			config.FilterCategories = meta.FilterCategories
		}
		if meta.StrictSSL != nil {
			config.StrictSSL = *meta.StrictSSL
		}
		if meta.CustomDateTimezone != "" {
			zone := meta.CustomDateTimezone
			if zone == "utc" {
				zone = "UTC"
			}
			if config.Timezone, err = time.LoadLocation(zone); err != nil {
				err = fmt.Errorf("Invalid custom_date_timezone %q: %v", meta.CustomDateTimezone, err)
				return
			}
		}
	}
	switch config.DateFolders {
	case DateFoldersNone, DateFoldersYear, DateFoldersYearMonth:
	default:
		err = fmt.Errorf("Invalid date-folders value %q, must be one of: none, year, year-month", config.DateFolders)
		return
	}
	switch config.SaveImages {
	case SaveImagesNone, SaveImagesAttached, SaveImagesScraped, SaveImagesAll:
	default:
		err = fmt.Errorf("Invalid save-images value %q, must be one of: none, attached, scraped, all", config.SaveImages)
		return
	}
	if config.ImageFileRequestDelay < 0 || config.MarkdownFileWriteDelay < 0 {
		err = fmt.Errorf("Write delays must be integers >= 0")
		return
	}
	err = ValidateFrontmatterFields(config.FrontmatterFields)
	return
}
