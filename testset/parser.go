/*
 *
 * typst-test - a visual regression test engine for typst
 * Copyright (C) 2026 The typst-test Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package testset

import (
	"fmt"

	"go.typst-test.dev/typst-test/errext"
	"go.typst-test.dev/typst-test/errext/exitcodes"
	"go.typst-test.dev/typst-test/id"
)

// Parse parses a test-set expression and applies the semantics-preserving
// rewrites from Simplify before returning it.
func Parse(src string) (Expr, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}

	expr, err := p.parseUnion()
	if err != nil {
		return nil, errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}

	if p.tok.Kind != TokEOF {
		return nil, errext.WithExitCodeIfNone(&SyntaxError{Pos: p.tok.Pos, Message: fmt.Sprintf("unexpected %s, expected end of input", p.tok.Kind)}, exitcodes.OperationFailure)
	}

	return Simplify(expr), nil
}

type parser struct {
	lex *lexer
	tok Token
}

func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, &SyntaxError{Pos: p.tok.Pos, Message: fmt.Sprintf("expected %s, found %s", kind, p.tok.Kind)}
	}
	tok := p.tok
	return tok, p.advance()
}

// parseUnion : parseIntersect (('|' | "or") parseIntersect)*
func (p *parser) parseUnion() (Expr, error) {
	left, err := p.parseIntersect()
	if err != nil {
		return nil, err
	}

	for p.tok.Kind == TokOr {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseIntersect()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: OpUnion, Left: left, Right: right}
	}

	return left, nil
}

// parseIntersect : parseDiff (('&' | "and") parseDiff)*
func (p *parser) parseIntersect() (Expr, error) {
	left, err := p.parseDiff()
	if err != nil {
		return nil, err
	}

	for p.tok.Kind == TokAnd {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseDiff()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: OpIntersect, Left: left, Right: right}
	}

	return left, nil
}

// parseDiff : parseXor (('~' | "diff") parseXor)*
func (p *parser) parseDiff() (Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}

	for p.tok.Kind == TokDiff {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: OpDiff, Left: left, Right: right}
	}

	return left, nil
}

// parseXor : parseUnary (('^' | "xor") parseUnary)*
func (p *parser) parseXor() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.tok.Kind == TokXor {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: OpXor, Left: left, Right: right}
	}

	return left, nil
}

// parseUnary : ('!' | "not") parseUnary | primary
func (p *parser) parseUnary() (Expr, error) {
	if p.tok.Kind == TokNot {
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	}

	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.Kind {
	case TokNum:
		v := p.tok.Num
		return NumLit{Value: v}, p.advance()

	case TokStr:
		v := p.tok.Str
		return StrLit{Value: v}, p.advance()

	case TokPat:
		kind, ok := id.ParseKind(p.tok.PatKind)
		if !ok {
			return nil, &SyntaxError{Pos: p.tok.Pos, Message: fmt.Sprintf("unknown pattern kind %q", p.tok.PatKind)}
		}
		raw := p.tok.PatRaw
		return PatLit{Kind: kind, Raw: raw}, p.advance()

	case TokIdent:
		name := p.tok.Lit
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.tok.Kind == TokLParen {
			return p.parseCall(name)
		}
		return Ident{Name: name}, nil

	case TokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return inner, nil

	default:
		return nil, &SyntaxError{Pos: p.tok.Pos, Message: fmt.Sprintf("unexpected %s", p.tok.Kind)}
	}
}

func (p *parser) parseCall(name string) (Expr, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}

	var args []Expr
	if p.tok.Kind != TokRParen {
		for {
			arg, err := p.parseUnion()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.tok.Kind != TokComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}

	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}

	return Call{Func: name, Args: args}, nil
}
