package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Listener handles an event dispatched to a node.
type Listener func(*Event)

// Event is dispatched to the listeners of a node and its ancestors.
type Event struct {
	Type   string
	Target *html.Node

	defaultPrevented bool
}

// PreventDefault cancels the default action of the event.
func (e *Event) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented reports if any listener canceled the default action.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

const styleBreakers = ";{}\\\n\r"

type declaration struct {
	property string
	value    string
}

// Element is the container where the visual renders its content.
type Element struct {
	doc       *goquery.Document
	root      *goquery.Selection
	style     []declaration
	listeners map[*html.Node]map[string][]Listener
}

// NewElement creates an empty container element.
func NewElement() (*Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<div class="container"></div>`))
	if err != nil {
		return nil, fmt.Errorf("fail to parse the container: %w", err)
	}
	root := doc.Find("div.container").First()
	if root.Length() == 0 {
		return nil, errors.New("missing container node")
	}
	return &Element{doc: doc, root: root, listeners: make(map[*html.Node]map[string][]Listener)}, nil
}

// SetStyle sets an inline style property. Like the browser style object, a value that can't be a single declaration
// value is rejected and the previous value kept.
func (e *Element) SetStyle(property, value string) {
	if strings.ContainsAny(property, styleBreakers+":") || strings.ContainsAny(value, styleBreakers) {
		return
	}

	found := false
	for i := range e.style {
		if e.style[i].property == property {
			e.style[i].value = value
			found = true
			break
		}
	}
	if !found {
		e.style = append(e.style, declaration{property: property, value: value})
	}

	declarations := make([]string, 0, len(e.style))
	for _, d := range e.style {
		declarations = append(declarations, fmt.Sprintf("%s: %s;", d.property, d.value))
	}
	e.root.SetAttr("style", strings.Join(declarations, " "))
}

// Style returns the value of an inline style property.
func (e *Element) Style(property string) string {
	for _, d := range e.style {
		if d.property == property {
			return d.value
		}
	}
	return ""
}

// SetInnerHTML replaces the content of the container. Listeners attached to the removed nodes are discarded.
func (e *Element) SetInnerHTML(content string) {
	e.root.SetHtml(content)
	e.prune()
}

// InnerHTML returns the serialized content of the container.
func (e *Element) InnerHTML() (string, error) {
	return e.root.Html()
}

// OuterHTML returns the serialized container, including its inline style.
func (e *Element) OuterHTML() (string, error) {
	return goquery.OuterHtml(e.root)
}

// Find the descendants of the container matching the selector.
func (e *Element) Find(selector string) *goquery.Selection {
	return e.root.Find(selector)
}

// AddEventListener attaches a listener to a node inside the container.
func (e *Element) AddEventListener(node *html.Node, eventType string, listener Listener) {
	byType, ok := e.listeners[node]
	if !ok {
		byType = make(map[string][]Listener)
		e.listeners[node] = byType
	}
	byType[eventType] = append(byType[eventType], listener)
}

// Dispatch an event at the node. The event bubbles up to the container.
func (e *Element) Dispatch(node *html.Node, eventType string) *Event {
	event := &Event{Type: eventType, Target: node}
	for n := node; n != nil; n = n.Parent {
		for _, listener := range e.listeners[n][eventType] {
			listener(event)
		}
		if n == e.root.Nodes[0] {
			break
		}
	}
	return event
}

// Click dispatches a click at every node of the selection.
func (e *Element) Click(selection *goquery.Selection) []*Event {
	events := make([]*Event, 0, selection.Length())
	for _, node := range selection.Nodes {
		events = append(events, e.Dispatch(node, "click"))
	}
	return events
}

// prune removes the listeners of nodes that are no longer attached to the container.
func (e *Element) prune() {
	root := e.root.Nodes[0]
	for node := range e.listeners {
		if !attached(root, node) {
			delete(e.listeners, node)
		}
	}
}

func attached(root, node *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}
