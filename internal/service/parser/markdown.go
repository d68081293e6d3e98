package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
	"github.com/shurcooL/sanitized_anchor_name"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	goldmarkParser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown flavors.
const (
	FlavorGitHub   = "github"
	FlavorOriginal = "original"
)

// Markdown expose a parser that transform Markdown into sanitized HTML.
type Markdown struct {
	Flavor string

	policy   *bluemonday.Policy
	goldmark goldmark.Markdown
}

// Init the internal state.
func (m *Markdown) Init() error {
	switch m.Flavor {
	case "":
		m.Flavor = FlavorGitHub
	case FlavorGitHub, FlavorOriginal:
	default:
		return fmt.Errorf("unknown flavor '%s'", m.Flavor)
	}

	m.goldmark = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(goldmarkParser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	// Code blocks keep their language class so diagram blocks can be located after the sanitization.
	m.policy = bluemonday.UGCPolicy()
	m.policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[a-zA-Z0-9_-]+$`)).OnElements("code")
	m.policy.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	m.policy.AllowAttrs("checked", "disabled").OnElements("input")
	return nil
}

// Do transform the Markdown into HTML.
func (m Markdown) Do(payload []byte) []byte {
	var output []byte
	if m.Flavor == FlavorOriginal {
		output = blackfriday.Run(
			payload, blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.AutoHeadingIDs),
		)
	} else {
		var buf bytes.Buffer
		ctx := goldmarkParser.NewContext(goldmarkParser.WithIDs(newAnchorIDs()))
		if err := m.goldmark.Convert(payload, &buf, goldmarkParser.WithContext(ctx)); err != nil {
			// The goldmark writer is a bytes.Buffer, the conversion can't fail.
			return nil
		}
		output = buf.Bytes()
	}
	return m.policy.SanitizeBytes(output)
}

// SanitizedAnchorName process the anchor.
func (m Markdown) SanitizedAnchorName(text string) string {
	return sanitized_anchor_name.Create(text)
}

// anchorIDs generates the heading ids the same way blackfriday does, so both flavors share the anchors.
type anchorIDs struct {
	values map[string]struct{}
}

func newAnchorIDs() *anchorIDs {
	return &anchorIDs{values: make(map[string]struct{})}
}

func (a *anchorIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	id := sanitized_anchor_name.Create(string(value))
	if id == "" {
		id = "heading"
	}

	unique := id
	for i := 1; ; i++ {
		if _, ok := a.values[unique]; !ok {
			break
		}
		unique = id + "-" + strconv.Itoa(i)
	}
	a.values[unique] = struct{}{}
	return []byte(unique)
}

func (a *anchorIDs) Put(value []byte) {
	a.values[string(value)] = struct{}{}
}
