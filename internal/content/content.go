// Package content holds the static marketing copy around the shop: the farm
// carousel, the customer photo grid and the social links.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

// ErrNotFound is returned for an unknown post index or social slug.
var ErrNotFound = errors.New("content: not found")

// Slide is one farm carousel image.
type Slide struct {
	Src     string `yaml:"src"`
	Alt     string `yaml:"alt"`
	Caption string `yaml:"caption"`
}

// Post is a customer photo in the UGC grid.
type Post struct {
	Username string `yaml:"username"`
	Caption  string `yaml:"caption"`
	Likes    int    `yaml:"likes"`
	Image    string `yaml:"image"`
	Alt      string `yaml:"alt"`
}

// Social is an outbound social media link.
type Social struct {
	Slug   string `yaml:"slug"`
	Name   string `yaml:"name"`
	Icon   string `yaml:"icon"`
	Handle string `yaml:"handle"`
}

// Content is the full document.
type Content struct {
	Slides  []Slide  `yaml:"slides"`
	Posts   []Post   `yaml:"posts"`
	Socials []Social `yaml:"socials"`
}

var loadDefault = sync.OnceValues(func() (*Content, error) {
	return Parse(contentYAML)
})

// Default returns the embedded content.
func Default() (*Content, error) { return loadDefault() }

// Parse decodes a content document.
func Parse(raw []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("content: parse: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Socials))
	for i, s := range c.Socials {
		slug := strings.ToLower(strings.TrimSpace(s.Slug))
		if slug == "" {
			return nil, fmt.Errorf("content: social %d has no slug", i)
		}
		if _, dup := seen[slug]; dup {
			return nil, fmt.Errorf("content: duplicate social %q", slug)
		}
		seen[slug] = struct{}{}
		c.Socials[i].Slug = slug
	}
	for i, p := range c.Posts {
		if strings.TrimSpace(p.Username) == "" {
			return nil, fmt.Errorf("content: post %d has no username", i)
		}
	}
	return &c, nil
}

// Post returns the post at index i.
func (c *Content) Post(i int) (Post, error) {
	if i < 0 || i >= len(c.Posts) {
		return Post{}, fmt.Errorf("%w: post %d", ErrNotFound, i)
	}
	return c.Posts[i], nil
}

// Social looks a link up by slug.
func (c *Content) Social(slug string) (Social, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, s := range c.Socials {
		if s.Slug == slug {
			return s, nil
		}
	}
	return Social{}, fmt.Errorf("%w: social %q", ErrNotFound, slug)
}

// OpenMessage is the demo notification for clicking a post.
func (p Post) OpenMessage() string {
	return fmt.Sprintf("📱 Opening %s's post... (demo)", p.Username)
}

// OpenMessage is the demo notification for clicking a social link.
func (s Social) OpenMessage() string {
	return fmt.Sprintf("🚀 Opening %s... Follow us for daily gelato goodness!", s.Name)
}
