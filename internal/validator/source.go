package validator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"

	"uigen/internal/domain"
)

var errParseFailed = errors.New("tsx parse failed")

// tsxParser wraps one tree-sitter parser. Parsers are expensive to build and not
// safe for concurrent use, so parses are serialized.
type tsxParser struct {
	mu sync.Mutex
	p  *sitter.Parser
}

func newTSXParser() *tsxParser {
	p := sitter.NewParser()
	p.SetLanguage(tsx.GetLanguage())
	return &tsxParser{p: p}
}

// parse returns a fresh tree owned by the caller.
func (tp *tsxParser) parse(ctx context.Context, src []byte) (tree *sitter.Tree, err error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = fmt.Errorf("%w: %v", errParseFailed, r)
		}
	}()
	tree, err = tp.p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errParseFailed, err)
	}
	if tree == nil {
		return nil, errParseFailed
	}
	return tree, nil
}

// Source is the input every check receives.
type Source struct {
	Code     string
	Category domain.Category

	ctx    context.Context
	bytes  []byte
	parser *tsxParser
}

// newSource builds a Source that parses with p. A nil parser disables tree checks.
func newSource(ctx context.Context, code string, category domain.Category, p *tsxParser) *Source {
	return &Source{Code: code, Category: category, ctx: ctx, bytes: []byte(code), parser: p}
}

// Tree parses the source into a syntax tree. The returned release func must be called.
// Each caller gets its own tree because node handles are cached per tree and not
// safe to share across goroutines.
func (s *Source) Tree() (*sitter.Node, func(), error) {
	if s.parser == nil {
		return nil, func() {}, errParseFailed
	}
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	tree, err := s.parser.parse(ctx, s.bytes)
	if err != nil {
		return nil, func() {}, err
	}
	return tree.RootNode(), tree.Close, nil
}

// Text returns the source text of n.
func (s *Source) Text(n *sitter.Node) string {
	return n.Content(s.bytes)
}

// position converts a byte offset into a 1-based line and column.
func (s *Source) position(offset int) (int, int) {
	line, col := 1, 1
	for i := 0; i < offset && i < len(s.bytes); i++ {
		if s.bytes[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func nodeFinding(n *sitter.Node, kind Kind, code, msg string, sev Severity) Finding {
	p := n.StartPoint()
	return Finding{
		Kind:     kind,
		Code:     code,
		Message:  msg,
		Line:     int(p.Row) + 1,
		Column:   int(p.Column) + 1,
		Severity: sev,
	}
}

// walk visits n and its descendants depth first. Returning false skips children.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}
