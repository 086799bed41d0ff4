package graph

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the YAML representation of a program graph, used by the CLI
// and by tests. Front-ends that build graphs in memory do not go through it.
type Document struct {
	ID       string    `yaml:"id"`
	Language string    `yaml:"language,omitempty"`
	Nodes    []NodeDoc `yaml:"nodes"`
}

// NodeDoc is one node in a Document. Children nest recursively.
type NodeDoc struct {
	ID       string    `yaml:"id"`
	Kind     string    `yaml:"kind"`
	Language string    `yaml:"language,omitempty"`
	Name     string    `yaml:"name,omitempty"`
	Children []NodeDoc `yaml:"children,omitempty"`
}

// Parse builds a graph from YAML data.
func Parse(data []byte) (*Graph, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse graph document: %w", err)
	}
	return doc.Build()
}

// LoadFile reads and parses a graph document from disk.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph document: %w", err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Build materializes the document into a Graph.
func (d *Document) Build() (*Graph, error) {
	rootID := d.ID
	if rootID == "" {
		rootID = "graph"
	}
	g := New(rootID)
	g.root.Language = d.Language
	for _, nd := range d.Nodes {
		if err := addDoc(g, g.root, nd, d.Language); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func addDoc(g *Graph, parent *Node, nd NodeDoc, defaultLang string) error {
	lang := nd.Language
	if lang == "" {
		lang = parent.Language
	}
	if lang == "" {
		lang = defaultLang
	}
	node := &Node{
		ID:       nd.ID,
		Kind:     Kind(nd.Kind),
		Language: lang,
		Name:     nd.Name,
	}
	if node.Kind == "" {
		return fmt.Errorf("node %q has no kind", nd.ID)
	}
	if err := g.Add(parent, node); err != nil {
		return err
	}
	for _, c := range nd.Children {
		if err := addDoc(g, node, c, defaultLang); err != nil {
			return err
		}
	}
	return nil
}
