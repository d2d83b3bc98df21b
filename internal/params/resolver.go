// Package params is the Parameter Resolver (spec.md §4.3, §9 "Template-
// driven params"): it walks a node's raw parameter tree once, tagging every
// leaf as Literal or Template, and later resolves only the Template leaves
// against a live context. The engine tags a node's params on its first
// dispatch within a Scheduler and caches the tree there; the Graph
// Compiler does not tag params.
package params

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/prana-run/prana/internal/evaluator"
)

// marker matches a single {{ expression }} template span.
var marker = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Node is the tagged variant for one resolved parameter leaf.
type Node interface{ isNode() }

// Literal is a leaf with no template markers: resolution is the identity.
type Literal struct{ Value any }

func (Literal) isNode() {}

// Template is a leaf whose source string contains one or more {{ expr }}
// spans, scanned once at Tag time.
type Template struct {
	Source string
	// Whole is true when the entire trimmed source is a single {{ expr }}
	// span, in which case resolution preserves the expression's native
	// type instead of stringifying it.
	Whole bool
	Expr  string // only meaningful when Whole is true
}

func (Template) isNode() {}

// Tree is a params tree after tagging: maps and slices are walked
// recursively, string leaves become Literal or Template, everything else
// stays a Literal.
type Tree any // map[string]Node | []Node | Node, recursively

// Tag performs the tagging scan described in spec.md §9: it never
// touches the evaluator, only regexp.
func Tag(raw any) Tree {
	switch v := raw.(type) {
	case string:
		return tagString(v)
	case map[string]any:
		tagged := make(map[string]Tree, len(v))
		for k, val := range v {
			tagged[k] = Tag(val)
		}
		return mapTree(tagged)
	case []any:
		out := make(mapSliceTree, len(v))
		for i, val := range v {
			out[i] = Tag(val)
		}
		return out
	default:
		return Literal{Value: v}
	}
}

// mapTree and mapSliceTree let Tag/Resolve recurse without reflection; they
// are simple aliases so the public Tree stays an opaque any.
type mapTree map[string]Tree
type mapSliceTree []Tree

func tagString(s string) Node {
	matches := marker.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return Literal{Value: s}
	}

	trimmed := strings.TrimSpace(s)
	if whole := marker.FindStringSubmatchIndex(trimmed); whole != nil &&
		whole[0] == 0 && whole[1] == len(trimmed) {
		return Template{Source: s, Whole: true, Expr: strings.TrimSpace(trimmed[whole[2]:whole[3]])}
	}

	return Template{Source: s, Whole: false}
}

// Resolve walks a tagged Tree, rendering every Template leaf against ctx
// via ev. Literal leaves pass through unchanged (not even copied, since
// they're immutable from the engine's point of view).
func Resolve(tree Tree, ev evaluator.Evaluator, ctx map[string]any) (any, error) {
	switch t := tree.(type) {
	case Literal:
		return t.Value, nil
	case Template:
		return resolveTemplate(t, ev, ctx)
	case mapTree:
		out := make(map[string]any, len(t))
		for k, v := range t {
			resolved, err := Resolve(v, ev, ctx)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = resolved
		}
		return out, nil
	case mapSliceTree:
		out := make([]any, len(t))
		for i, v := range t {
			resolved, err := Resolve(v, ev, ctx)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return nil, fmt.Errorf("params: unrecognized tree node %T", tree)
	}
}

// ResolveMap is the common entry point: a node's whole params tree, tagged
// once and resolved fresh on every invocation.
func ResolveMap(tree Tree, ev evaluator.Evaluator, ctx map[string]any) (map[string]any, error) {
	resolved, err := Resolve(tree, ev, ctx)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return map[string]any{}, nil
	}
	m, ok := resolved.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("params: root must resolve to an object, got %T", resolved)
	}
	return m, nil
}

func resolveTemplate(t Template, ev evaluator.Evaluator, ctx map[string]any) (any, error) {
	if t.Whole {
		// Single-expression leaf: preserve native type, including nil.
		return ev.Eval(t.Expr, ctx)
	}

	// Mixed literal + expression text: every {{ expr }} span is evaluated
	// and stringified into the surrounding literal text.
	var resolveErr error
	result := marker.ReplaceAllStringFunc(t.Source, func(span string) string {
		if resolveErr != nil {
			return span
		}
		inner := strings.TrimSpace(span[2 : len(span)-2])
		value, err := ev.Eval(inner, ctx)
		if err != nil {
			resolveErr = err
			return span
		}
		if value == nil {
			return ""
		}
		return fmt.Sprint(value)
	})
	if resolveErr != nil {
		return nil, resolveErr
	}
	return result, nil
}
