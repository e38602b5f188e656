// Package turtle implements the Turtle serialization of RDF graphs.
//
// The parser covers the subset of Turtle 1.1 found in hand-curated
// ontologies: prefix and base directives (both @-style and SPARQL-style),
// prefixed names, the "a" keyword, predicate and object lists, anonymous
// blank nodes and blank-node property lists, collections, short and long
// string literals, language tags, datatype annotations, and numeric and
// boolean abbreviations. Errors carry 1-based line and column positions.
package turtle

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/c360studio/ontosync/rdf"
)

func init() {
	rdf.RegisterCodec(Codec{})
}

// Codec is the Turtle implementation of rdf.Codec.
type Codec struct{}

// Format returns rdf.FormatTurtle.
func (Codec) Format() rdf.Format { return rdf.FormatTurtle }

// Parse decodes Turtle text into a graph.
func (Codec) Parse(text []byte) (*rdf.Graph, error) {
	p := &parser{
		src:      string(text),
		line:     1,
		col:      1,
		prefixes: make(map[string]string),
		labels:   make(map[string]string),
		graph:    rdf.NewGraph(),
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.graph, nil
}

type parser struct {
	src  string
	pos  int
	line int
	col  int

	prefixes map[string]string
	base     string
	labels   map[string]string // document bnode label -> load-scoped label
	nblank   int
	graph    *rdf.Graph
}

func (p *parser) errf(format string, args ...any) error {
	return &rdf.ParseError{
		Format: rdf.FormatTurtle,
		Line:   p.line,
		Column: p.col,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(p.src[p.pos:])
	return r
}

func (p *parser) next() rune {
	r, w := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += w
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return r
}

// skipWS consumes whitespace and comments.
func (p *parser) skipWS() {
	for !p.eof() {
		r := p.peek()
		switch {
		case r == '#':
			for !p.eof() && p.peek() != '\n' {
				p.next()
			}
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			p.next()
		default:
			return
		}
	}
}

func (p *parser) expect(r rune) error {
	if p.eof() || p.peek() != r {
		return p.errf("expected %q", string(r))
	}
	p.next()
	return nil
}

func (p *parser) run() error {
	for {
		p.skipWS()
		if p.eof() {
			return nil
		}
		if err := p.statement(); err != nil {
			return err
		}
	}
}

func (p *parser) statement() error {
	if p.peek() == '@' {
		return p.atDirective()
	}
	if p.matchKeyword("PREFIX") {
		return p.prefixDirective(false)
	}
	if p.matchKeyword("BASE") {
		return p.baseDirective(false)
	}
	return p.triples()
}

// matchKeyword consumes an identifier keyword case-insensitively, but only
// if it is not part of a longer token (SPARQL-style directives).
func (p *parser) matchKeyword(kw string) bool {
	if len(p.src)-p.pos < len(kw) {
		return false
	}
	if !strings.EqualFold(p.src[p.pos:p.pos+len(kw)], kw) {
		return false
	}
	rest := p.src[p.pos+len(kw):]
	if rest != "" {
		r, _ := utf8.DecodeRuneInString(rest)
		if isPNChar(r) || r == ':' {
			return false
		}
	}
	for range kw {
		p.next()
	}
	return true
}

func (p *parser) atDirective() error {
	p.next() // '@'
	word := p.readWord()
	switch strings.ToLower(word) {
	case "prefix":
		return p.prefixDirective(true)
	case "base":
		return p.baseDirective(true)
	default:
		return p.errf("unknown directive @%s", word)
	}
}

func (p *parser) readWord() string {
	start := p.pos
	for !p.eof() {
		r := p.peek()
		if !unicode.IsLetter(r) {
			break
		}
		p.next()
	}
	return p.src[start:p.pos]
}

func (p *parser) prefixDirective(dotted bool) error {
	p.skipWS()
	name, err := p.readPrefixName()
	if err != nil {
		return err
	}
	p.skipWS()
	iri, err := p.readIRIRef()
	if err != nil {
		return err
	}
	p.prefixes[name] = iri
	if dotted {
		p.skipWS()
		return p.expect('.')
	}
	return nil
}

func (p *parser) baseDirective(dotted bool) error {
	p.skipWS()
	iri, err := p.readIRIRef()
	if err != nil {
		return err
	}
	p.base = iri
	if dotted {
		p.skipWS()
		return p.expect('.')
	}
	return nil
}

// readPrefixName reads "name:" and returns the name (possibly empty).
func (p *parser) readPrefixName() (string, error) {
	start := p.pos
	for !p.eof() && p.peek() != ':' {
		r := p.peek()
		if !isPNChar(r) && r != '.' {
			break
		}
		p.next()
	}
	name := p.src[start:p.pos]
	if err := p.expect(':'); err != nil {
		return "", p.errf("expected prefix declaration name ending in ':'")
	}
	return name, nil
}

func (p *parser) triples() error {
	var subject rdf.Term
	var err error
	if p.peek() == '[' {
		subject, err = p.blankNodePropertyList()
		if err != nil {
			return err
		}
		p.skipWS()
		// A bare "[...]" followed by '.' is a valid statement.
		if p.peek() == '.' {
			p.next()
			return nil
		}
	} else {
		subject, err = p.subject()
		if err != nil {
			return err
		}
	}
	if err := p.predicateObjectList(subject); err != nil {
		return err
	}
	p.skipWS()
	return p.expect('.')
}

func (p *parser) subject() (rdf.Term, error) {
	p.skipWS()
	switch r := p.peek(); {
	case r == '<':
		iri, err := p.readIRIRef()
		if err != nil {
			return rdf.Term{}, err
		}
		return rdf.NewIRI(iri), nil
	case r == '_':
		return p.readBlankNodeLabel()
	case r == '(':
		return p.collection()
	default:
		return p.readPrefixedName()
	}
}

func (p *parser) predicateObjectList(subject rdf.Term) error {
	for {
		p.skipWS()
		pred, err := p.verb()
		if err != nil {
			return err
		}
		if err := p.objectList(subject, pred); err != nil {
			return err
		}
		p.skipWS()
		if p.peek() != ';' {
			return nil
		}
		p.next()
		p.skipWS()
		// Trailing ';' before '.' or ']' is allowed.
		if r := p.peek(); r == '.' || r == ']' {
			return nil
		}
	}
}

func (p *parser) verb() (rdf.Term, error) {
	if p.peek() == 'a' {
		// "a" only when followed by whitespace or an opening bracket.
		if p.pos+1 >= len(p.src) {
			return rdf.Term{}, p.errf("unexpected end of input after 'a'")
		}
		r, _ := utf8.DecodeRuneInString(p.src[p.pos+1:])
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '<' || r == '[' {
			p.next()
			return rdf.RDFType, nil
		}
	}
	if p.peek() == '<' {
		iri, err := p.readIRIRef()
		if err != nil {
			return rdf.Term{}, err
		}
		return rdf.NewIRI(iri), nil
	}
	return p.readPrefixedName()
}

func (p *parser) objectList(subject, predicate rdf.Term) error {
	for {
		p.skipWS()
		obj, err := p.object()
		if err != nil {
			return err
		}
		if err := p.emit(subject, predicate, obj); err != nil {
			return err
		}
		p.skipWS()
		if p.peek() != ',' {
			return nil
		}
		p.next()
	}
}

func (p *parser) object() (rdf.Term, error) {
	switch r := p.peek(); {
	case r == '<':
		iri, err := p.readIRIRef()
		if err != nil {
			return rdf.Term{}, err
		}
		return rdf.NewIRI(iri), nil
	case r == '_':
		return p.readBlankNodeLabel()
	case r == '[':
		return p.blankNodePropertyList()
	case r == '(':
		return p.collection()
	case r == '"' || r == '\'':
		return p.readRDFLiteral()
	case r == '+' || r == '-' || (r >= '0' && r <= '9'):
		return p.readNumericLiteral()
	default:
		if p.matchKeyword("true") {
			return rdf.NewTypedLiteral("true", rdf.XSDBoolean), nil
		}
		if p.matchKeyword("false") {
			return rdf.NewTypedLiteral("false", rdf.XSDBoolean), nil
		}
		return p.readPrefixedName()
	}
}

func (p *parser) emit(s, pred, o rdf.Term) error {
	if err := p.graph.Add(rdf.Triple{Subject: s, Predicate: pred, Object: o}); err != nil {
		return p.errf("%v", err)
	}
	return nil
}

// freshBlank allocates the next load-scoped blank node.
func (p *parser) freshBlank() rdf.Term {
	p.nblank++
	return rdf.NewBlank(fmt.Sprintf("b%d", p.nblank))
}

func (p *parser) readBlankNodeLabel() (rdf.Term, error) {
	p.next() // '_'
	if err := p.expect(':'); err != nil {
		return rdf.Term{}, p.errf("expected ':' after '_' in blank node label")
	}
	start := p.pos
	for !p.eof() && (isPNChar(p.peek()) || p.peek() == '.') {
		p.next()
	}
	// A trailing dot terminates the statement, not the label.
	for p.pos > start && p.src[p.pos-1] == '.' {
		p.pos--
		p.col--
	}
	label := p.src[start:p.pos]
	if label == "" {
		return rdf.Term{}, p.errf("empty blank node label")
	}
	mapped, ok := p.labels[label]
	if !ok {
		t := p.freshBlank()
		p.labels[label] = t.Value
		return t, nil
	}
	return rdf.NewBlank(mapped), nil
}

func (p *parser) blankNodePropertyList() (rdf.Term, error) {
	p.next() // '['
	node := p.freshBlank()
	p.skipWS()
	if p.peek() == ']' {
		p.next()
		return node, nil
	}
	if err := p.predicateObjectList(node); err != nil {
		return rdf.Term{}, err
	}
	p.skipWS()
	if err := p.expect(']'); err != nil {
		return rdf.Term{}, err
	}
	return node, nil
}

// collection parses "( object* )" into an rdf:first/rdf:rest chain.
func (p *parser) collection() (rdf.Term, error) {
	p.next() // '('
	var items []rdf.Term
	for {
		p.skipWS()
		if p.eof() {
			return rdf.Term{}, p.errf("unterminated collection")
		}
		if p.peek() == ')' {
			p.next()
			break
		}
		obj, err := p.object()
		if err != nil {
			return rdf.Term{}, err
		}
		items = append(items, obj)
	}
	if len(items) == 0 {
		return rdf.RDFNil, nil
	}
	head := p.freshBlank()
	node := head
	for i, item := range items {
		if err := p.emit(node, rdf.RDFFirst, item); err != nil {
			return rdf.Term{}, err
		}
		if i == len(items)-1 {
			if err := p.emit(node, rdf.RDFRest, rdf.RDFNil); err != nil {
				return rdf.Term{}, err
			}
		} else {
			next := p.freshBlank()
			if err := p.emit(node, rdf.RDFRest, next); err != nil {
				return rdf.Term{}, err
			}
			node = next
		}
	}
	return head, nil
}

func (p *parser) readIRIRef() (string, error) {
	if err := p.expect('<'); err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errf("unterminated IRI")
		}
		r := p.next()
		switch r {
		case '>':
			return p.resolveIRI(b.String()), nil
		case '\\':
			esc, err := p.readUnicodeEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(esc)
		case '\n':
			return "", p.errf("newline in IRI")
		default:
			b.WriteRune(r)
		}
	}
}

// resolveIRI resolves a relative reference against the base IRI. Only the
// forms that appear in ontology files are handled: absolute IRIs pass
// through, fragment references append to the base, and other relative
// references concatenate onto the base's directory.
func (p *parser) resolveIRI(ref string) string {
	if p.base == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "urn:") || strings.HasPrefix(ref, "mailto:") {
		return ref
	}
	if ref == "" {
		return p.base
	}
	if strings.HasPrefix(ref, "#") {
		return strings.TrimSuffix(p.base, "#") + ref
	}
	if i := strings.LastIndex(p.base, "/"); i >= 0 {
		return p.base[:i+1] + ref
	}
	return p.base + ref
}

func (p *parser) readPrefixedName() (rdf.Term, error) {
	if p.eof() {
		return rdf.Term{}, p.errf("unexpected end of input")
	}
	start := p.pos
	startCol := p.col
	for !p.eof() && p.peek() != ':' {
		r := p.peek()
		if !isPNChar(r) && r != '.' {
			break
		}
		p.next()
	}
	if p.eof() || p.peek() != ':' {
		p.col = startCol
		return rdf.Term{}, p.errf("expected IRI, prefixed name, or literal at %q", snippet(p.src[start:]))
	}
	prefix := p.src[start:p.pos]
	p.next() // ':'
	ns, ok := p.prefixes[prefix]
	if !ok {
		return rdf.Term{}, p.errf("undefined prefix %q", prefix+":")
	}
	var local strings.Builder
	for !p.eof() {
		r := p.peek()
		if r == '\\' {
			p.next()
			if p.eof() {
				return rdf.Term{}, p.errf("unterminated local name escape")
			}
			local.WriteRune(p.next())
			continue
		}
		if !isPNChar(r) && r != '.' && r != ':' {
			break
		}
		p.next()
		local.WriteRune(r)
	}
	name := local.String()
	// A trailing dot belongs to the statement, not the local name.
	for strings.HasSuffix(name, ".") {
		name = name[:len(name)-1]
		p.pos--
		p.col--
	}
	return rdf.NewIRI(ns + name), nil
}

func (p *parser) readRDFLiteral() (rdf.Term, error) {
	lexical, err := p.readString()
	if err != nil {
		return rdf.Term{}, err
	}
	if !p.eof() && p.peek() == '@' {
		p.next()
		start := p.pos
		for !p.eof() {
			r := p.peek()
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
				break
			}
			p.next()
		}
		lang := p.src[start:p.pos]
		if lang == "" {
			return rdf.Term{}, p.errf("empty language tag")
		}
		return rdf.NewLangLiteral(lexical, lang), nil
	}
	if strings.HasPrefix(p.src[p.pos:], "^^") {
		p.next()
		p.next()
		var dt rdf.Term
		var err error
		if p.peek() == '<' {
			iri, ierr := p.readIRIRef()
			if ierr != nil {
				return rdf.Term{}, ierr
			}
			dt = rdf.NewIRI(iri)
		} else {
			dt, err = p.readPrefixedName()
			if err != nil {
				return rdf.Term{}, err
			}
		}
		return rdf.NewTypedLiteral(lexical, dt.Value), nil
	}
	return rdf.NewLiteral(lexical), nil
}

func (p *parser) readString() (string, error) {
	quote := p.next() // '"' or '\''
	long := false
	if strings.HasPrefix(p.src[p.pos:], string(quote)+string(quote)) {
		p.next()
		p.next()
		long = true
	}
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errf("unterminated string literal")
		}
		r := p.next()
		if r == quote {
			if !long {
				return b.String(), nil
			}
			if strings.HasPrefix(p.src[p.pos:], string(quote)+string(quote)) {
				p.next()
				p.next()
				return b.String(), nil
			}
			b.WriteRune(r)
			continue
		}
		if r == '\n' && !long {
			return "", p.errf("newline in string literal")
		}
		if r == '\\' {
			esc, err := p.readEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(esc)
			continue
		}
		b.WriteRune(r)
	}
}

func (p *parser) readEscape() (rune, error) {
	if p.eof() {
		return 0, p.errf("unterminated escape sequence")
	}
	r := p.next()
	switch r {
	case 't':
		return '\t', nil
	case 'b':
		return '\b', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case '"':
		return '"', nil
	case '\'':
		return '\'', nil
	case '\\':
		return '\\', nil
	case 'u', 'U':
		return p.readHexEscape(r)
	default:
		return 0, p.errf("invalid escape sequence '\\%s'", string(r))
	}
}

// readUnicodeEscape handles \uXXXX and \UXXXXXXXX inside IRIs.
func (p *parser) readUnicodeEscape() (rune, error) {
	if p.eof() {
		return 0, p.errf("unterminated escape sequence")
	}
	r := p.next()
	if r != 'u' && r != 'U' {
		return 0, p.errf("invalid IRI escape '\\%s'", string(r))
	}
	return p.readHexEscape(r)
}

func (p *parser) readHexEscape(kind rune) (rune, error) {
	n := 4
	if kind == 'U' {
		n = 8
	}
	if len(p.src)-p.pos < n {
		return 0, p.errf("truncated \\%s escape", string(kind))
	}
	hex := p.src[p.pos : p.pos+n]
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, p.errf("invalid \\%s escape %q", string(kind), hex)
	}
	for i := 0; i < n; i++ {
		p.next()
	}
	return rune(v), nil
}

func (p *parser) readNumericLiteral() (rdf.Term, error) {
	start := p.pos
	if r := p.peek(); r == '+' || r == '-' {
		p.next()
	}
	digits := 0
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.next()
		digits++
	}
	decimal := false
	if !p.eof() && p.peek() == '.' {
		// Only a decimal if digits follow; otherwise the dot ends the
		// statement.
		if p.pos+1 < len(p.src) && p.src[p.pos+1] >= '0' && p.src[p.pos+1] <= '9' {
			decimal = true
			p.next()
			for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
				p.next()
				digits++
			}
		}
	}
	double := false
	if !p.eof() && (p.peek() == 'e' || p.peek() == 'E') {
		double = true
		p.next()
		if r := p.peek(); r == '+' || r == '-' {
			p.next()
		}
		for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
			p.next()
		}
	}
	if digits == 0 {
		return rdf.Term{}, p.errf("malformed numeric literal")
	}
	lexical := p.src[start:p.pos]
	switch {
	case double:
		return rdf.NewTypedLiteral(lexical, rdf.XSDDouble), nil
	case decimal:
		return rdf.NewTypedLiteral(lexical, rdf.XSDDecimal), nil
	default:
		return rdf.NewTypedLiteral(lexical, rdf.XSDInteger), nil
	}
}

// isPNChar approximates the PN_CHARS production: letters, digits,
// underscore, hyphen, and non-ASCII name characters.
func isPNChar(r rune) bool {
	return r == '_' || r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) || r == '%'
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\r\n"); i > 0 {
		s = s[:i]
	}
	if len(s) > 20 {
		s = s[:20] + "..."
	}
	return s
}
