// Package site holds the public landing page copy served to the web front end.
package site

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

type Content struct {
	Hero         Hero         `yaml:"hero" json:"hero"`
	Features     Features     `yaml:"features" json:"features"`
	Partners     []string     `yaml:"partners" json:"partners"`
	Solutions    Solutions    `yaml:"solutions" json:"solutions"`
	Process      Process      `yaml:"process" json:"process"`
	Testimonials Testimonials `yaml:"testimonials" json:"testimonials"`
	FAQ          FAQ          `yaml:"faq" json:"faq"`
}

type Hero struct {
	Title    string `yaml:"title" json:"title"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
	CTA      string `yaml:"cta" json:"cta"`
}

type Card struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Metric      string `yaml:"metric,omitempty" json:"metric,omitempty"`
}

type Features struct {
	Heading string `yaml:"heading" json:"heading"`
	Items   []Card `yaml:"items" json:"items"`
}

type Solutions struct {
	Heading string `yaml:"heading" json:"heading"`
	Items   []Card `yaml:"items" json:"items"`
}

type Process struct {
	Heading  string `yaml:"heading" json:"heading"`
	Subtitle string `yaml:"subtitle" json:"subtitle"`
	Steps    []Card `yaml:"steps" json:"steps"`
}

type Testimonial struct {
	Author string `yaml:"author" json:"author"`
	Quote  string `yaml:"quote" json:"quote"`
}

type Testimonials struct {
	Heading  string        `yaml:"heading" json:"heading"`
	Subtitle string        `yaml:"subtitle" json:"subtitle"`
	Items    []Testimonial `yaml:"items" json:"items"`
}

type Question struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
}

type FAQ struct {
	Footer string     `yaml:"footer" json:"footer"`
	Items  []Question `yaml:"items" json:"items"`
}

// Load parses the embedded landing content.
func Load() (Content, error) {
	return Parse(contentYAML)
}

func Parse(data []byte) (Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Content{}, fmt.Errorf("parse site content: %w", err)
	}
	if c.Hero.Title == "" {
		return Content{}, errors.New("site content: hero title is required")
	}
	return c, nil
}
