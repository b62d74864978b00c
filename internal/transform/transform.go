// Package transform rewrites namespace-qualified references such as
// React.useState, React.ReactNode and <React.Fragment> into bare names bound
// by individually named imports.
//
// A Transformer runs three phases over one parsed unit:
//
//  1. collect: walk the tree and gather value and type members.
//  2. synthesize: drop the namespace import and prepend consolidated
//     value and type-only imports.
//  3. rewrite: walk the tree again and replace each qualified reference.
//
// All phases read the tree; changes are byte-range edits over the original
// text applied once at the end, so everything outside a rewritten span is
// preserved byte for byte.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jward/unqualify/internal/edit"
	"github.com/jward/unqualify/internal/runtime"
)

// ErrParse is returned for a unit whose syntax tree contains errors. No
// output is produced for such a unit.
var ErrParse = errors.New("syntax error")

// ErrOverlap reports two rewrites over the same bytes.
var ErrOverlap = edit.ErrOverlap

// Quote styles for synthesized import paths.
const (
	QuoteAuto   = "auto"
	QuoteSingle = "single"
	QuoteDouble = "double"
)

// Semicolon styles for synthesized import statements.
const (
	SemicolonsAuto   = "auto"
	SemicolonsAlways = "always"
	SemicolonsNever  = "never"
)

// Config selects the namespace identifier, the module it is imported from
// and how synthesized imports are printed. "auto" styles copy the removed
// import, or failing that the unit's first import, and otherwise use single
// quotes with semicolons.
type Config struct {
	Namespace  string
	Module     string
	Quote      string
	Semicolons string
}

// DefaultConfig returns the configuration for React.
func DefaultConfig() Config {
	return Config{
		Namespace:  "React",
		Module:     "react",
		Quote:      QuoteAuto,
		Semicolons: SemicolonsAuto,
	}
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Validate checks that c describes a usable transform.
func (c Config) Validate() error {
	if !identifierRe.MatchString(c.Namespace) {
		return fmt.Errorf("namespace %q is not an identifier", c.Namespace)
	}
	if c.Module == "" {
		return errors.New("module must not be empty")
	}
	switch c.Quote {
	case QuoteAuto, QuoteSingle, QuoteDouble:
	default:
		return fmt.Errorf("quote must be auto, single or double, got %q", c.Quote)
	}
	switch c.Semicolons {
	case SemicolonsAuto, SemicolonsAlways, SemicolonsNever:
	default:
		return fmt.Errorf("semicolons must be auto, always or never, got %q", c.Semicolons)
	}
	return nil
}

// withDefaults fills empty fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Namespace == "" {
		c.Namespace = def.Namespace
	}
	if c.Module == "" {
		c.Module = def.Module
	}
	if c.Quote == "" {
		c.Quote = def.Quote
	}
	if c.Semicolons == "" {
		c.Semicolons = def.Semicolons
	}
	return c
}

// Transformer rewrites units for one Config. It holds no per-unit state and
// is safe for concurrent use.
type Transformer struct {
	cfg Config
}

// New returns a Transformer for cfg, with empty fields defaulted.
func New(cfg Config) (*Transformer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	return &Transformer{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (t *Transformer) Config() Config {
	return t.cfg
}

// Result is the outcome of transforming one unit.
type Result struct {
	// Output is the rewritten text. When Changed is false it is the input
	// slice itself.
	Output  []byte
	Changed bool

	Members  MemberSet
	Rewrites []Rewrite

	// RemovedImports counts import statements that lost their namespace
	// binding.
	RemovedImports int
	// KeptImport is set when a namespace import was left in place because
	// the unit still uses the namespace identifier in a shape that is not
	// rewritten.
	KeptImport bool
}

// Transform parses src as lang and rewrites it.
func (t *Transformer) Transform(ctx context.Context, lang string, src []byte) (*Result, error) {
	u, err := runtime.Parse(ctx, lang, src)
	if err != nil {
		return nil, err
	}
	defer u.Close()
	return t.TransformUnit(u)
}

// TransformUnit rewrites an already parsed unit. The unit's tree is only
// read; its Source is never modified.
func (t *Transformer) TransformUnit(u *runtime.Unit) (*Result, error) {
	if pt, bad := u.SyntaxError(); bad {
		return nil, fmt.Errorf("%w at line %d, column %d", ErrParse, pt.Row+1, pt.Column+1)
	}

	members, refs := t.collect(u)
	_, residual := t.scanner(u).residualUse(u.Root(), refs)

	buf := edit.NewBuffer(u.Source)
	removed, kept := t.synthesize(u, members, residual, buf)
	rewrites := t.rewrite(u, members, buf)

	out, err := buf.Bytes()
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	changed := !bytes.Equal(out, u.Source)
	if !changed {
		out = u.Source
	}
	return &Result{
		Output:         out,
		Changed:        changed,
		Members:        members,
		Rewrites:       rewrites,
		RemovedImports: removed,
		KeptImport:     kept,
	}, nil
}
