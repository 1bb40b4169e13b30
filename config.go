package main

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	yaml "go.yaml.in/yaml/v3"
)

type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

type ItemsConfig struct {
	PerPage           int `yaml:"per_page"`
	OldItemDays       int `yaml:"old_item_days"`
	CommentDepthLimit int `yaml:"comment_depth_limit"`
	// Moderators lists the tripcodes allowed to pin items and mark bios.
	Moderators []string `yaml:"moderators"`
}

func (c ItemsConfig) moderator(tripcode string) bool {
	if tripcode == "" {
		return false
	}
	for _, m := range c.Moderators {
		if m == tripcode {
			return true
		}
	}
	return false
}

type QueueConfig struct {
	Driver string `yaml:"driver"`
	Dsn    string `yaml:"dsn"`
	// Poll is the interval between job fetches, e.g. "1s".
	Poll  string `yaml:"poll"`
	Batch int    `yaml:"batch"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type Config struct {
	Server          string        `yaml:"server"`
	Database        string        `yaml:"database"`
	Dsn             string        `yaml:"dsn"`
	Cache           bool          `yaml:"cache"`
	PostBlockExpire string        `yaml:"post_block_expire"`
	Translations    string        `yaml:"translations"`
	Language        string        `yaml:"language"`
	Site            SiteConfig    `yaml:"site"`
	Items           ItemsConfig   `yaml:"items"`
	Queue           QueueConfig   `yaml:"queue"`
	Logging         LoggingConfig `yaml:"logging"`
}

func NewConfig() *Config {
	return &Config{
		Server:          ":8080",
		Database:        "sqlite",
		Dsn:             "file:itemboard.sqlite?_time_format=sqlite",
		PostBlockExpire: "30s",
		Translations:    "./translations",
		Language:        "en",
		Site: SiteConfig{
			Title:       "itemboard",
			Description: "Threaded items with self-destructing and scheduled posts",
		},
		Items: ItemsConfig{
			PerPage:           30,
			OldItemDays:       3,
			CommentDepthLimit: 6,
		},
		Queue: QueueConfig{
			Driver: "sqlite",
			Dsn:    "file:itemboard-jobs.sqlite",
			Poll:   "1s",
			Batch:  10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load applies the file named by -config, if any, over the defaults.
func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("itemboard", flag.ContinueOnError)
	path := fs.String("config", "", "path to the YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path != "" {
		f, err := os.Open(*path)
		if err != nil {
			return errors.Wrap(err, "open config")
		}
		defer f.Close()
		if err := c.Decode(f); err != nil {
			return errors.Wrapf(err, "load config %s", *path)
		}
	}
	return c.Validate()
}

// Decode reads YAML over the current values. Unknown keys are rejected.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if _, err := c.postBlock(); err != nil {
		return errors.Wrap(err, "post_block_expire")
	}
	if _, err := c.pollInterval(); err != nil {
		return errors.Wrap(err, "queue.poll")
	}
	if c.Items.PerPage < 1 {
		return errors.New("items.per_page must be positive")
	}
	if c.Items.CommentDepthLimit < 2 {
		return errors.New("items.comment_depth_limit must be at least 2")
	}
	if c.Items.OldItemDays < 0 {
		return errors.New("items.old_item_days must not be negative")
	}
	return nil
}

func (c *Config) postBlock() (time.Duration, error) {
	return time.ParseDuration(c.PostBlockExpire)
}

func (c *Config) pollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Queue.Poll)
	if err == nil && d <= 0 {
		err = errors.New("must be positive")
	}
	return d, err
}

// pollSchedule is the cron spec of the job runner.
func (c *Config) pollSchedule() string {
	d, err := c.pollInterval()
	if err != nil {
		return ""
	}
	return "@every " + d.String()
}

func (c *Config) listenAddress() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return c.Server
}
