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
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// XmlNode wraps one element of a parsed XML document behind safe accessors.
// Every node remembers how it was reached from the root (for example
// rss.channel[0].item[3]) so that failures point at the exact location in
// the export file.
type XmlNode struct {
	name     string
	attrs    map[string]string
	children map[string][]*XmlNode
	value    string
	hasValue bool
	expr     string
}

// Builds the expression for a child of this node.
func (n *XmlNode) childExpr(name string, index int) string {
	return fmt.Sprintf("%v.%v[%v]", n.expr, name, index)
}

// Returns all children with the given name, in document order.
// Missing names yield an empty slice, never an error.
func (n *XmlNode) Children(name string) []*XmlNode {
	return n.children[name]
}

// Returns the child with the given name at the given index.
func (n *XmlNode) Child(name string, index int) (c *XmlNode, err error) {
	nodes, ok := n.children[name]
	if !ok {
		err = fmt.Errorf("Could not find %v.%v", n.expr, name)
		return
	}
	if index < 0 || index >= len(nodes) {
		err = fmt.Errorf("Could not find %v", n.childExpr(name, index))
		return
	}
	c = nodes[index]
	return
}

// Returns the value of the child with the given name at the given index.
func (n *XmlNode) ChildValue(name string, index int) (v string, err error) {
	var c *XmlNode
	if c, err = n.Child(name, index); err != nil {
		return
	}
	return c.Value()
}

// Returns the inline text value of this node.
func (n *XmlNode) Value() (v string, err error) {
	if !n.hasValue {
		err = fmt.Errorf("Could not get value from %v", n.expr)
		return
	}
	v = n.value
	return
}

// Returns the value of the named attribute of this node.
func (n *XmlNode) Attribute(name string) (v string, err error) {
	var ok bool
	if v, ok = n.attrs[name]; !ok {
		err = fmt.Errorf("Could not get attribute %v from %v", name, n.expr)
	}
	return
}

// Like Child, but returns nil instead of an error when absent.
func (n *XmlNode) OptionalChild(name string, index int) *XmlNode {
	c, err := n.Child(name, index)
	if err != nil {
		return nil
	}
	return c
}

// Like ChildValue, but reports absence through ok instead of an error.
func (n *XmlNode) OptionalChildValue(name string, index int) (v string, ok bool) {
	v, err := n.ChildValue(name, index)
	ok = err == nil
	return
}

// Like Value, but reports absence through ok instead of an error.
func (n *XmlNode) OptionalValue() (v string, ok bool) {
	v, err := n.Value()
	ok = err == nil
	return
}

// Reads one element (the decoder is just past its start tag) and all of its
// descendants into XmlNode form.
func decodeElement(d *xml.Decoder, start xml.StartElement, expr string) (n *XmlNode, err error) {
	n = &XmlNode{
		name:     start.Name.Local,
		attrs:    map[string]string{},
		children: map[string][]*XmlNode{},
		expr:     expr,
	}
	for _, attr := range start.Attr {
		n.attrs[attr.Name.Local] = attr.Value
	}
	var (
		tok  xml.Token
		text strings.Builder
	)
	for {
		if tok, err = d.Token(); err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var child *XmlNode
			name := t.Name.Local
			index := len(n.children[name])
			child, err = decodeElement(d, t, n.childExpr(name, index))
			if err != nil {
				return
			}
			n.children[name] = append(n.children[name], child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			// Leaf elements carry a value even when it is empty,
			// elements with children only when text remains after
			// trimming. Mirrors how loose XML-to-object mappers
			// represent leaves.
			n.value = strings.TrimSpace(text.String())
			n.hasValue = len(n.children) == 0 || n.value != ""
			return
		}
	}
}

// Parses a WordPress export document and returns the <rss> root node.
func ParseDocument(content string) (root *XmlNode, err error) {
	var (
		d   = xml.NewDecoder(strings.NewReader(content))
		tok xml.Token
	)
	d.Strict = false
	for {
		if tok, err = d.Token(); err != nil {
			if err == io.EOF {
				err = fmt.Errorf("Could not find <rss> root node. This likely means your export file is malformed.")
			} else {
				err = fmt.Errorf("Could not parse XML. This likely means your export file is malformed: %v", err)
			}
			return
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != "rss" {
				err = fmt.Errorf("Could not find <rss> root node. This likely means your export file is malformed.")
				return
			}
			if root, err = decodeElement(d, start, "rss"); err != nil {
				err = fmt.Errorf("Could not parse XML. This likely means your export file is malformed: %v", err)
			}
			return
		}
	}
}
