// Package expr evaluates restricted arithmetic expressions.
//
// The grammar covers numbers, the operators + - * / % ** (power) and
// // (floor division), unary minus, parentheses, and calls to a fixed
// set of functions:
// abs, round, min, max, sum, pow. No other names resolve, so inbound
// text from an untrusted caller cannot reach anything but arithmetic.
package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Eval parses and evaluates an arithmetic expression.
func Eval(input string) (float64, error) {
	p := &parser{input: input}
	p.next()

	v, err := p.parseExpr(0)
	if err != nil {
		return 0, err
	}
	if p.tok.kind != tokEOF {
		return 0, fmt.Errorf("unexpected %q at position %d", p.tok.text, p.tok.pos)
	}
	return v, nil
}

// ============================================================================
// TOKENS
// ============================================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp     // + - * / // %
	tokPower  // **
	tokLParen // (
	tokRParen  // )
	tokComma   // ,
	tokInvalid // anything else
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type parser struct {
	input string
	pos   int
	tok   token
}

func (p *parser) next() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}

	start := p.pos
	if p.pos >= len(p.input) {
		p.tok = token{kind: tokEOF, pos: start}
		return
	}

	c := p.input[p.pos]
	switch {
	case c >= '0' && c <= '9' || c == '.':
		for p.pos < len(p.input) && (isDigit(p.input[p.pos]) || p.input[p.pos] == '.' ||
			p.input[p.pos] == 'e' || p.input[p.pos] == 'E' ||
			((p.input[p.pos] == '+' || p.input[p.pos] == '-') && (p.input[p.pos-1] == 'e' || p.input[p.pos-1] == 'E'))) {
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: p.input[start:p.pos], pos: start}

	case isIdentStart(c):
		for p.pos < len(p.input) && isIdentPart(p.input[p.pos]) {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: p.input[start:p.pos], pos: start}

	case c == '*':
		if p.pos+1 < len(p.input) && p.input[p.pos+1] == '*' {
			p.pos += 2
			p.tok = token{kind: tokPower, text: "**", pos: start}
			return
		}
		p.pos++
		p.tok = token{kind: tokOp, text: "*", pos: start}

	case c == '/':
		if p.pos+1 < len(p.input) && p.input[p.pos+1] == '/' {
			p.pos += 2
			p.tok = token{kind: tokOp, text: "//", pos: start}
			return
		}
		p.pos++
		p.tok = token{kind: tokOp, text: "/", pos: start}

	case c == '+' || c == '-' || c == '%':
		p.pos++
		p.tok = token{kind: tokOp, text: string(c), pos: start}

	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", pos: start}

	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", pos: start}

	case c == ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ",", pos: start}

	default:
		p.pos++
		p.tok = token{kind: tokInvalid, text: string(c), pos: start}
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || unicode.IsLetter(rune(c)) }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }

// ============================================================================
// PARSER - precedence climbing
// ============================================================================

func binaryPrecedence(t token) int {
	switch {
	case t.kind == tokOp && (t.text == "+" || t.text == "-"):
		return 1
	case t.kind == tokOp && (t.text == "*" || t.text == "/" || t.text == "//" || t.text == "%"):
		return 2
	case t.kind == tokPower:
		return powerPrecedence
	default:
		return 0
	}
}

// powerPrecedence is the highest binary level. Unary minus parses its
// operand at this level so that ** binds tighter, as in -2 ** 2 == -4.
const powerPrecedence = 3

func (p *parser) parseExpr(minPrec int) (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	for {
		prec := binaryPrecedence(p.tok)
		if prec == 0 || prec < minPrec {
			return left, nil
		}

		op := p.tok
		p.next()

		// ** is right-associative, the rest are left-associative
		nextMin := prec + 1
		if op.kind == tokPower {
			nextMin = prec
		}

		right, err := p.parseExpr(nextMin)
		if err != nil {
			return 0, err
		}

		left, err = applyBinary(op, left, right)
		if err != nil {
			return 0, err
		}
	}
}

func applyBinary(op token, left, right float64) (float64, error) {
	switch op.text {
	case "+":
		return left + right, nil
	case "-":
		return left - right, nil
	case "*":
		return left * right, nil
	case "/":
		if right == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return left / right, nil
	case "//":
		if right == 0 {
			return 0, fmt.Errorf("floor division by zero")
		}
		return math.Floor(left / right), nil
	case "%":
		if right == 0 {
			return 0, fmt.Errorf("modulo by zero")
		}
		return math.Mod(left, right), nil
	case "**":
		return math.Pow(left, right), nil
	default:
		return 0, fmt.Errorf("unsupported operator %q at position %d", op.text, op.pos)
	}
}

func (p *parser) parseUnary() (float64, error) {
	if p.tok.kind == tokOp && (p.tok.text == "-" || p.tok.text == "+") {
		neg := p.tok.text == "-"
		p.next()
		v, err := p.parseExpr(powerPrecedence)
		if err != nil {
			return 0, err
		}
		if neg {
			return -v, nil
		}
		return v, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (float64, error) {
	switch p.tok.kind {
	case tokNumber:
		v, err := strconv.ParseFloat(p.tok.text, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q at position %d", p.tok.text, p.tok.pos)
		}
		p.next()
		return v, nil

	case tokLParen:
		p.next()
		v, err := p.parseExpr(0)
		if err != nil {
			return 0, err
		}
		if p.tok.kind != tokRParen {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.tok.pos)
		}
		p.next()
		return v, nil

	case tokIdent:
		name := p.tok.text
		pos := p.tok.pos
		p.next()
		if p.tok.kind != tokLParen {
			return 0, fmt.Errorf("name %q is not defined", name)
		}
		args, err := p.parseArgs()
		if err != nil {
			return 0, err
		}
		return callFunc(name, pos, args)

	case tokEOF:
		return 0, fmt.Errorf("unexpected end of expression")

	default:
		return 0, fmt.Errorf("unexpected %q at position %d", p.tok.text, p.tok.pos)
	}
}

func (p *parser) parseArgs() ([]float64, error) {
	// caller has verified p.tok is '('
	p.next()

	var args []float64
	if p.tok.kind == tokRParen {
		p.next()
		return args, nil
	}

	for {
		v, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		args = append(args, v)

		switch p.tok.kind {
		case tokComma:
			p.next()
		case tokRParen:
			p.next()
			return args, nil
		default:
			return nil, fmt.Errorf("expected ',' or ')' at position %d", p.tok.pos)
		}
	}
}

// ============================================================================
// FUNCTIONS - the only names the evaluator resolves
// ============================================================================

func callFunc(name string, pos int, args []float64) (float64, error) {
	switch strings.ToLower(name) {
	case "abs":
		if len(args) != 1 {
			return 0, fmt.Errorf("abs expects 1 argument, got %d", len(args))
		}
		return math.Abs(args[0]), nil

	case "round":
		// ties go to the even neighbor: round(2.5) == 2, round(3.5) == 4
		switch len(args) {
		case 1:
			return math.RoundToEven(args[0]), nil
		case 2:
			shift := math.Pow(10, math.Trunc(args[1]))
			return math.RoundToEven(args[0]*shift) / shift, nil
		default:
			return 0, fmt.Errorf("round expects 1 or 2 arguments, got %d", len(args))
		}

	case "min":
		if len(args) == 0 {
			return 0, fmt.Errorf("min expects at least 1 argument")
		}
		v := args[0]
		for _, a := range args[1:] {
			v = math.Min(v, a)
		}
		return v, nil

	case "max":
		if len(args) == 0 {
			return 0, fmt.Errorf("max expects at least 1 argument")
		}
		v := args[0]
		for _, a := range args[1:] {
			v = math.Max(v, a)
		}
		return v, nil

	case "sum":
		var v float64
		for _, a := range args {
			v += a
		}
		return v, nil

	case "pow":
		if len(args) != 2 {
			return 0, fmt.Errorf("pow expects 2 arguments, got %d", len(args))
		}
		return math.Pow(args[0], args[1]), nil

	default:
		return 0, fmt.Errorf("name %q is not defined", name)
	}
}

// Format renders a result the way the calculator reports it: integral
// values without a trailing fraction, everything else in shortest form.
func Format(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
