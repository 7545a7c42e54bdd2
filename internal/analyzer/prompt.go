package analyzer

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/vibe.md
var defaultPromptFS embed.FS

// PromptConfig describes a prompt definition. Files use YAML frontmatter
// for metadata and templates, with the markdown body as the system
// template when system_template is absent.
type PromptConfig struct {
	Slug           string `yaml:"slug"`
	Name           string `yaml:"name,omitempty"`
	Version        string `yaml:"version,omitempty"`
	SystemTemplate string `yaml:"system_template,omitempty"`
	UserTemplate   string `yaml:"user_template,omitempty"`
}

// Prompt is a parsed prompt with compiled templates.
type Prompt struct {
	Config PromptConfig
	Source string

	userTmpl *template.Template
}

// promptVars is the variable set available to prompt templates.
type promptVars struct {
	Title   string
	Reviews string
}

// DefaultPrompt returns the embedded vibe analysis prompt.
func DefaultPrompt() (*Prompt, error) {
	data, err := defaultPromptFS.ReadFile("prompts/vibe.md")
	if err != nil {
		return nil, fmt.Errorf("read embedded prompt: %w", err)
	}
	return LoadPrompt("vibe.md", data)
}

// LoadPromptFile reads a prompt override from disk.
func LoadPromptFile(path string) (*Prompt, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- prompt path is user-provided
	if err != nil {
		return nil, fmt.Errorf("read prompt %s: %w", path, err)
	}
	return LoadPrompt(path, data)
}

// LoadPrompt parses a prompt definition from YAML-frontmatter markdown.
func LoadPrompt(source string, data []byte) (*Prompt, error) {
	config, body, err := parseFrontmatter(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", source, err)
	}

	if strings.TrimSpace(config.SystemTemplate) == "" {
		config.SystemTemplate = strings.TrimSpace(body)
	}
	if strings.TrimSpace(config.UserTemplate) == "" {
		return nil, fmt.Errorf("prompt %s missing user_template", source)
	}

	userTmpl, err := template.New(source).Parse(config.UserTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse user_template in %s: %w", source, err)
	}

	return &Prompt{Config: config, Source: source, userTmpl: userTmpl}, nil
}

// Render produces the system and user messages for a title and its
// reviews. Reviews are joined with blank lines, matching how they are
// presented to the model.
func (p *Prompt) Render(title string, reviews []string) (system, user string, err error) {
	var buf bytes.Buffer
	vars := promptVars{
		Title:   title,
		Reviews: strings.Join(reviews, "\n\n"),
	}
	if err := p.userTmpl.Execute(&buf, vars); err != nil {
		return "", "", fmt.Errorf("render prompt %s: %w", p.Source, err)
	}
	return p.Config.SystemTemplate, strings.TrimSpace(buf.String()), nil
}

func parseFrontmatter(data []byte) (PromptConfig, string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return PromptConfig{}, "", fmt.Errorf("empty prompt")
	}

	lines := bufio.NewScanner(bytes.NewReader(trimmed))
	lines.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		frontmatter []string
		body        []string
		inFront     bool
		headerSeen  bool
	)

	for lines.Scan() {
		line := lines.Text()
		switch {
		case !headerSeen && strings.TrimSpace(line) == "---":
			headerSeen = true
			inFront = true
		case headerSeen && inFront && strings.TrimSpace(line) == "---":
			inFront = false
		default:
			if inFront {
				frontmatter = append(frontmatter, line)
			} else {
				body = append(body, line)
			}
		}
	}
	if err := lines.Err(); err != nil {
		return PromptConfig{}, "", err
	}

	var cfg PromptConfig
	if headerSeen {
		if err := yaml.Unmarshal([]byte(strings.Join(frontmatter, "\n")), &cfg); err != nil {
			return PromptConfig{}, "", fmt.Errorf("invalid frontmatter: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &cfg); err != nil {
			return PromptConfig{}, "", fmt.Errorf("invalid yaml: %w", err)
		}
	}

	return cfg, strings.Join(body, "\n"), nil
}
