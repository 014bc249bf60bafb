package fogsim

// gml.go reads network topologies written in the Graph Modelling Language, as
// distributed by the Internet Topology Zoo: a top-level 'graph' list holding
// 'node' lists (id, label, Longitude, Latitude) and 'edge' lists (source, target).
// Keys this reader does not use are skipped, nested lists included.

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// GMLNode is a node of a GML graph.  Located is false when the file gives no
// coordinates for it.
type GMLNode struct {
	ID        int
	Label     string
	Longitude float64
	Latitude  float64
	Located   bool
}

// GMLEdge is an undirected edge of a GML graph
type GMLEdge struct {
	Source int
	Target int
}

// GMLGraph is the content of a GML file
type GMLGraph struct {
	Nodes []GMLNode
	Edges []GMLEdge
}

// Node returns the node with the given id
func (gg *GMLGraph) Node(id int) (GMLNode, bool) {
	for _, gn := range gg.Nodes {
		if gn.ID == id {
			return gn, true
		}
	}
	return GMLNode{}, false
}

// ReadGML parses a GML graph.  If dict is empty the file whose name is given is read.
func ReadGML(filename string, dict []byte) (*GMLGraph, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}
	return ParseGML(string(dict))
}

// gmlTokenize splits GML text into brackets, quoted strings and bare words
func gmlTokenize(text string) ([]string, error) {
	tokens := make([]string, 0)
	runes := []rune(text)
	for idx := 0; idx < len(runes); {
		r := runes[idx]
		switch {
		case unicode.IsSpace(r):
			idx += 1
		case r == '#':
			for idx < len(runes) && runes[idx] != '\n' {
				idx += 1
			}
		case r == '[' || r == ']':
			tokens = append(tokens, string(r))
			idx += 1
		case r == '"':
			end := idx + 1
			for end < len(runes) && runes[end] != '"' {
				end += 1
			}
			if end == len(runes) {
				return nil, fmt.Errorf("gml: unterminated string")
			}
			tokens = append(tokens, string(runes[idx:end+1]))
			idx = end + 1
		default:
			end := idx
			for end < len(runes) && !unicode.IsSpace(runes[end]) && runes[end] != '[' && runes[end] != ']' {
				end += 1
			}
			tokens = append(tokens, string(runes[idx:end]))
			idx = end
		}
	}
	return tokens, nil
}

// gmlParser walks a token list
type gmlParser struct {
	tokens []string
	pos    int
}

func (gp *gmlParser) more() bool {
	return gp.pos < len(gp.tokens)
}

func (gp *gmlParser) next() (string, error) {
	if !gp.more() {
		return "", fmt.Errorf("gml: unexpected end of input")
	}
	tkn := gp.tokens[gp.pos]
	gp.pos += 1
	return tkn, nil
}

// skipValue consumes one value, a whole list if it starts with '['
func (gp *gmlParser) skipValue() error {
	tkn, err := gp.next()
	if err != nil {
		return err
	}
	if tkn != "[" {
		return nil
	}
	depth := 1
	for depth > 0 {
		tkn, err = gp.next()
		if err != nil {
			return err
		}
		switch tkn {
		case "[":
			depth += 1
		case "]":
			depth -= 1
		}
	}
	return nil
}

// readList calls visit with every key of the list that starts at the current
// position, up to and including its closing ']'.  visit consumes the value.
func (gp *gmlParser) readList(visit func(key string) error) error {
	open, err := gp.next()
	if err != nil {
		return err
	}
	if open != "[" {
		return fmt.Errorf("gml: expected '[' but found %q", open)
	}
	for {
		key, err := gp.next()
		if err != nil {
			return err
		}
		if key == "]" {
			return nil
		}
		if err := visit(key); err != nil {
			return err
		}
	}
}

func (gp *gmlParser) readInt() (int, error) {
	tkn, err := gp.next()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(tkn)
}

func (gp *gmlParser) readFloat() (float64, error) {
	tkn, err := gp.next()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(tkn, 64)
}

func (gp *gmlParser) readNode() (GMLNode, error) {
	gn := GMLNode{ID: -1}
	hasLong, hasLat := false, false
	err := gp.readList(func(key string) error {
		var err error
		switch key {
		case "id":
			gn.ID, err = gp.readInt()
		case "label":
			var tkn string
			tkn, err = gp.next()
			gn.Label = strings.Trim(tkn, "\"")
		case "Longitude":
			gn.Longitude, err = gp.readFloat()
			hasLong = true
		case "Latitude":
			gn.Latitude, err = gp.readFloat()
			hasLat = true
		default:
			err = gp.skipValue()
		}
		return err
	})
	if err != nil {
		return gn, err
	}
	if gn.ID < 0 {
		return gn, fmt.Errorf("gml: node without id")
	}
	gn.Located = hasLong && hasLat
	return gn, nil
}

func (gp *gmlParser) readEdge() (GMLEdge, error) {
	ge := GMLEdge{Source: -1, Target: -1}
	err := gp.readList(func(key string) error {
		var err error
		switch key {
		case "source":
			ge.Source, err = gp.readInt()
		case "target":
			ge.Target, err = gp.readInt()
		default:
			err = gp.skipValue()
		}
		return err
	})
	if err != nil {
		return ge, err
	}
	if ge.Source < 0 || ge.Target < 0 {
		return ge, fmt.Errorf("gml: edge without source or target")
	}
	return ge, nil
}

// ParseGML parses GML text
func ParseGML(text string) (*GMLGraph, error) {
	tokens, err := gmlTokenize(text)
	if err != nil {
		return nil, err
	}
	gp := &gmlParser{tokens: tokens}
	gg := &GMLGraph{Nodes: make([]GMLNode, 0), Edges: make([]GMLEdge, 0)}
	found := false

	for gp.more() {
		key, _ := gp.next()
		if key != "graph" {
			if err := gp.skipValue(); err != nil {
				return nil, err
			}
			continue
		}
		found = true
		err := gp.readList(func(key string) error {
			switch key {
			case "node":
				gn, err := gp.readNode()
				if err != nil {
					return err
				}
				gg.Nodes = append(gg.Nodes, gn)
			case "edge":
				ge, err := gp.readEdge()
				if err != nil {
					return err
				}
				gg.Edges = append(gg.Edges, ge)
			default:
				return gp.skipValue()
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, fmt.Errorf("gml: no graph found")
	}
	return gg, nil
}
