package rdf

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"
)

// Format identifies a concrete RDF serialization.
type Format string

// Supported serialization formats.
const (
	// FormatTurtle is the Turtle (.ttl) serialization.
	FormatTurtle Format = "turtle"

	// FormatRDFXML is the RDF/XML (.owl, .rdf) serialization.
	FormatRDFXML Format = "rdfxml"
)

// Codec parses and serializes one format. Implementations are stateless and
// safe for concurrent use.
type Codec interface {
	// Format returns the format this codec handles.
	Format() Format

	// Parse decodes UTF-8 text into a graph. Blank nodes receive
	// load-scoped labels in first-appearance order.
	Parse(text []byte) (*Graph, error)

	// Serialize encodes a graph deterministically: serializing the same
	// graph twice yields byte-identical output.
	Serialize(g *Graph) ([]byte, error)
}

// registry holds codecs keyed by format. Format subpackages register
// themselves via init().
var registry = struct {
	mu     sync.RWMutex
	codecs map[Format]Codec
}{codecs: make(map[Format]Codec)}

// RegisterCodec adds a codec to the global registry. Later registrations
// for the same format win; callers register from init() so ordering is
// deterministic in practice.
func RegisterCodec(c Codec) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.codecs[c.Format()] = c
}

// CodecFor returns the codec registered for a format.
func CodecFor(f Format) (Codec, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	c, ok := registry.codecs[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	return c, nil
}

// Parse decodes text in the given format. A UTF-8 byte-order mark is
// tolerated and stripped; any other non-UTF-8 content fails with
// ErrEncoding before the parser runs.
func Parse(text []byte, f Format) (*Graph, error) {
	c, err := CodecFor(f)
	if err != nil {
		return nil, err
	}
	text = bytes.TrimPrefix(text, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(text) {
		return nil, fmt.Errorf("parse %s: %w", f, ErrEncoding)
	}
	return c.Parse(text)
}

// Serialize encodes a graph in the given format.
func Serialize(g *Graph, f Format) ([]byte, error) {
	c, err := CodecFor(f)
	if err != nil {
		return nil, err
	}
	return c.Serialize(g)
}

// FormatForPath guesses the format from a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttl", ".turtle":
		return FormatTurtle, nil
	case ".owl", ".rdf", ".xml", ".rdfxml":
		return FormatRDFXML, nil
	default:
		return "", fmt.Errorf("%w: no format for extension of %q", ErrUnknownFormat, path)
	}
}
